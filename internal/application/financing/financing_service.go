package financing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loanbook/backend/internal/domain/financing"
	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/loanbook/backend/internal/domain/shared/valueobject"
	"github.com/loanbook/backend/internal/infrastructure/telemetry"
)

// FinancingService handles financing contract business operations.
// The expected pattern is load aggregate, mutate through the engine and save
// with optimistic locking inside one transaction; conflicting writers surface
// as a concurrency error instead of being retried here.
type FinancingService struct {
	repo           financing.FinancingRepository
	eventPublisher shared.EventPublisher
}

// NewFinancingService creates a new FinancingService
func NewFinancingService(repo financing.FinancingRepository) *FinancingService {
	return &FinancingService{repo: repo}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *FinancingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new financing contract and its full installment schedule
func (s *FinancingService) Create(ctx context.Context, req CreateFinancingRequest) (*FinancingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "financing", "create")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrContractNumber, req.ContractNumber,
		telemetry.SpanAttrCustomerID, req.CustomerID.String(),
		telemetry.SpanAttrMethod, req.Method.String(),
	)

	existing, err := s.repo.FindByContractNumber(ctx, req.ContractNumber)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to check contract number: %w", err)
	}
	if existing != nil {
		err := shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Contract number %s already exists", req.ContractNumber))
		telemetry.RecordError(span, err)
		return nil, err
	}

	f, err := financing.NewFinancing(
		req.ContractNumber,
		req.CustomerID,
		req.CustomerName,
		valueobject.NewMoneyBRL(req.Principal),
		req.AnnualRate,
		req.TermMonths,
		req.StartDate,
		req.Method,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.repo.Save(ctx, f); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save financing: %w", err)
	}

	s.publishEvents(ctx, f)

	resp := ToFinancingResponse(f, true)
	return &resp, nil
}

// GetByID returns a financing contract with its installments
func (s *FinancingService) GetByID(ctx context.Context, id uuid.UUID) (*FinancingResponse, error) {
	f, err := s.loadFinancing(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := ToFinancingResponse(f, true)
	return &resp, nil
}

// List returns financing contracts matching the filter, without installments
func (s *FinancingService) List(ctx context.Context, filter financing.FinancingFilter) ([]FinancingResponse, int64, error) {
	items, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list financings: %w", err)
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count financings: %w", err)
	}

	responses := make([]FinancingResponse, 0, len(items))
	for i := range items {
		responses = append(responses, ToFinancingResponse(&items[i], false))
	}
	return responses, total, nil
}

// ListInstallments returns the installment schedule of a financing
func (s *FinancingService) ListInstallments(ctx context.Context, id uuid.UUID) ([]InstallmentResponse, error) {
	f, err := s.loadFinancing(ctx, id)
	if err != nil {
		return nil, err
	}

	responses := make([]InstallmentResponse, 0, len(f.Installments))
	for _, inst := range f.Installments {
		responses = append(responses, ToInstallmentResponse(inst))
	}
	return responses, nil
}

// ApplyCorrection applies a monetary correction index to the outstanding
// balance and recalculates the unpaid future installments
func (s *FinancingService) ApplyCorrection(ctx context.Context, id uuid.UUID, req ApplyCorrectionRequest) (*FinancingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "financing", "apply_correction")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrFinancingID, id.String(),
		telemetry.SpanAttrIndexValue, req.IndexValue.String(),
	)

	f, err := s.loadFinancing(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	loadedVersion := f.Version
	if err := f.ApplyCorrection(valueobject.NewRate(req.IndexValue), req.CorrectionDate); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.repo.SaveWithLock(ctx, f, loadedVersion); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, f)

	resp := ToFinancingResponse(f, true)
	return &resp, nil
}

// RegisterPayment credits a payment to one installment and propagates the
// amortization portion to the outstanding balance
func (s *FinancingService) RegisterPayment(ctx context.Context, id uuid.UUID, req RegisterPaymentRequest) (*FinancingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "financing", "register_payment")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrFinancingID, id.String(),
		telemetry.SpanAttrSequenceNumber, req.SequenceNumber,
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	f, err := s.loadFinancing(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	loadedVersion := f.Version
	if err := f.AddPayment(req.SequenceNumber, valueobject.NewMoneyBRL(req.Amount), req.PaymentDate, time.Now()); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.repo.SaveWithLock(ctx, f, loadedVersion); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, f)

	resp := ToFinancingResponse(f, true)
	return &resp, nil
}

// ReversePayment restores a previously applied amortization amount to the
// outstanding balance, compensating a voided payment
func (s *FinancingService) ReversePayment(ctx context.Context, id uuid.UUID, req ReversePaymentRequest) (*FinancingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "financing", "reverse_payment")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrFinancingID, id.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	f, err := s.loadFinancing(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	loadedVersion := f.Version
	if err := f.RestoreRemainingDebt(req.Amount); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.repo.SaveWithLock(ctx, f, loadedVersion); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, f)

	resp := ToFinancingResponse(f, true)
	return &resp, nil
}

// Complete settles a financing contract
func (s *FinancingService) Complete(ctx context.Context, id uuid.UUID) (*FinancingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "financing", "complete")
	defer span.End()

	f, err := s.loadFinancing(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	loadedVersion := f.Version
	if err := f.Complete(time.Now()); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// A repeat Complete is a no-op that leaves the version untouched; the
	// save still matches the loaded version, so it succeeds idempotently.
	if err := s.repo.SaveWithLock(ctx, f, loadedVersion); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, f)

	resp := ToFinancingResponse(f, false)
	return &resp, nil
}

// Cancel cancels a financing contract
func (s *FinancingService) Cancel(ctx context.Context, id uuid.UUID, reason string) (*FinancingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "financing", "cancel")
	defer span.End()

	f, err := s.loadFinancing(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	loadedVersion := f.Version
	if err := f.Cancel(reason); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.repo.SaveWithLock(ctx, f, loadedVersion); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, f)

	resp := ToFinancingResponse(f, false)
	return &resp, nil
}

// loadFinancing fetches the aggregate or returns a NOT_FOUND domain error
func (s *FinancingService) loadFinancing(ctx context.Context, id uuid.UUID) (*financing.Financing, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load financing: %w", err)
	}
	if f == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Financing not found")
	}
	return f, nil
}

// publishEvents publishes and clears the aggregate's collected domain events
func (s *FinancingService) publishEvents(ctx context.Context, f *financing.Financing) {
	if s.eventPublisher == nil {
		return
	}
	// Event handling is best effort; the state change is already persisted
	_ = s.eventPublisher.Publish(ctx, f.GetDomainEvents()...)
	f.ClearDomainEvents()
}
