package financing

import (
	"context"
	"fmt"
	"time"

	"github.com/loanbook/backend/internal/domain/financing"
	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/loanbook/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// OverdueService runs the due-date sweep: it flags unpaid installments whose
// due date has passed. The reference time is an explicit parameter so runs
// are deterministic.
type OverdueService struct {
	repo           financing.FinancingRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOverdueService creates a new OverdueService
func NewOverdueService(repo financing.FinancingRepository, logger *zap.Logger) *OverdueService {
	return &OverdueService{
		repo:   repo,
		logger: logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OverdueService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// OverdueSweepResult summarizes one sweep
type OverdueSweepResult struct {
	FinancingsTouched int `json:"financings_touched"`
	Installments      int `json:"installments_flagged"`
	Failed            int `json:"failed"`
}

// Run flags every past-due Pending or PartiallyPaid installment of every
// active financing. Individual failures do not abort the sweep.
func (s *OverdueService) Run(ctx context.Context, reference time.Time) (*OverdueSweepResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "overdue_sweep", "run")
	defer span.End()

	active, err := s.repo.FindActive(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load active financings: %w", err)
	}

	result := &OverdueSweepResult{}

	for i := range active {
		f := &active[i]

		pastDue := f.PastDueInstallments(reference)
		if len(pastDue) == 0 {
			continue
		}

		// Each flagged installment bumps the aggregate version, so the
		// save must match the version the sweep loaded, not version-1.
		loadedVersion := f.Version
		flagged := 0
		for _, inst := range pastDue {
			if err := f.MarkInstallmentOverdue(inst.SequenceNumber); err != nil {
				result.Failed++
				s.logger.Warn("Failed to flag installment as overdue",
					zap.String("financing_id", f.ID.String()),
					zap.Int("sequence_number", inst.SequenceNumber),
					zap.Error(err))
				continue
			}
			flagged++
		}
		if flagged == 0 {
			continue
		}

		if err := s.repo.SaveWithLock(ctx, f, loadedVersion); err != nil {
			result.Failed++
			s.logger.Error("Failed to save financing after overdue sweep",
				zap.String("financing_id", f.ID.String()),
				zap.Error(err))
			continue
		}

		if s.eventPublisher != nil {
			_ = s.eventPublisher.Publish(ctx, f.GetDomainEvents()...)
			f.ClearDomainEvents()
		}

		result.FinancingsTouched++
		result.Installments += flagged
	}

	s.logger.Info("Overdue sweep finished",
		zap.Time("reference", reference),
		zap.Int("financings_touched", result.FinancingsTouched),
		zap.Int("installments_flagged", result.Installments),
		zap.Int("failed", result.Failed))

	return result, nil
}
