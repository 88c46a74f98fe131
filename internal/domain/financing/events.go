package financing

import (
	"time"

	"github.com/google/uuid"
	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/loanbook/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// FinancingCreatedEvent is raised when a new financing contract is created
type FinancingCreatedEvent struct {
	shared.BaseDomainEvent
	FinancingID    uuid.UUID          `json:"financing_id"`
	ContractNumber string             `json:"contract_number"`
	CustomerID     uuid.UUID          `json:"customer_id"`
	CustomerName   string             `json:"customer_name"`
	Principal      decimal.Decimal    `json:"principal"`
	AnnualRate     decimal.Decimal    `json:"annual_rate"`
	TermMonths     int                `json:"term_months"`
	Method         AmortizationMethod `json:"method"`
	StartDate      time.Time          `json:"start_date"`
}

// EventType returns the event type name
func (e *FinancingCreatedEvent) EventType() string {
	return "FinancingCreated"
}

// NewFinancingCreatedEvent creates a new FinancingCreatedEvent
func NewFinancingCreatedEvent(f *Financing) *FinancingCreatedEvent {
	return &FinancingCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FinancingCreated", "Financing", f.ID),
		FinancingID:     f.ID,
		ContractNumber:  f.ContractNumber,
		CustomerID:      f.CustomerID,
		CustomerName:    f.CustomerName,
		Principal:       f.Principal,
		AnnualRate:      f.AnnualRate,
		TermMonths:      f.TermMonths,
		Method:          f.Method,
		StartDate:       f.StartDate,
	}
}

// FinancingCorrectionAppliedEvent is raised when a monetary correction is
// applied to the outstanding balance
type FinancingCorrectionAppliedEvent struct {
	shared.BaseDomainEvent
	FinancingID     uuid.UUID       `json:"financing_id"`
	ContractNumber  string          `json:"contract_number"`
	IndexValue      decimal.Decimal `json:"index_value"`
	CorrectionDate  time.Time       `json:"correction_date"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	NewBalance      decimal.Decimal `json:"new_balance"`
}

// EventType returns the event type name
func (e *FinancingCorrectionAppliedEvent) EventType() string {
	return "FinancingCorrectionApplied"
}

// NewFinancingCorrectionAppliedEvent creates a new FinancingCorrectionAppliedEvent
func NewFinancingCorrectionAppliedEvent(f *Financing, index valueobject.Rate, correctionDate time.Time, previousBalance decimal.Decimal) *FinancingCorrectionAppliedEvent {
	return &FinancingCorrectionAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FinancingCorrectionApplied", "Financing", f.ID),
		FinancingID:     f.ID,
		ContractNumber:  f.ContractNumber,
		IndexValue:      index.Value(),
		CorrectionDate:  correctionDate,
		PreviousBalance: previousBalance,
		NewBalance:      f.OutstandingBalance,
	}
}

// InstallmentPaidEvent is raised when an installment is fully paid
type InstallmentPaidEvent struct {
	shared.BaseDomainEvent
	FinancingID    uuid.UUID       `json:"financing_id"`
	ContractNumber string          `json:"contract_number"`
	SequenceNumber int             `json:"sequence_number"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentDate    *time.Time      `json:"payment_date,omitempty"`
}

// EventType returns the event type name
func (e *InstallmentPaidEvent) EventType() string {
	return "InstallmentPaid"
}

// NewInstallmentPaidEvent creates a new InstallmentPaidEvent
func NewInstallmentPaidEvent(f *Financing, inst *FinancingInstallment) *InstallmentPaidEvent {
	return &InstallmentPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InstallmentPaid", "Financing", f.ID),
		FinancingID:     f.ID,
		ContractNumber:  f.ContractNumber,
		SequenceNumber:  inst.SequenceNumber,
		TotalAmount:     inst.TotalAmount,
		PaymentDate:     inst.PaymentDate,
	}
}

// InstallmentPartiallyPaidEvent is raised when a partial payment is credited
type InstallmentPartiallyPaidEvent struct {
	shared.BaseDomainEvent
	FinancingID     uuid.UUID       `json:"financing_id"`
	ContractNumber  string          `json:"contract_number"`
	SequenceNumber  int             `json:"sequence_number"`
	AppliedAmount   decimal.Decimal `json:"applied_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

// EventType returns the event type name
func (e *InstallmentPartiallyPaidEvent) EventType() string {
	return "InstallmentPartiallyPaid"
}

// NewInstallmentPartiallyPaidEvent creates a new InstallmentPartiallyPaidEvent
func NewInstallmentPartiallyPaidEvent(f *Financing, inst *FinancingInstallment, applied decimal.Decimal) *InstallmentPartiallyPaidEvent {
	return &InstallmentPartiallyPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InstallmentPartiallyPaid", "Financing", f.ID),
		FinancingID:     f.ID,
		ContractNumber:  f.ContractNumber,
		SequenceNumber:  inst.SequenceNumber,
		AppliedAmount:   applied,
		RemainingAmount: inst.RemainingAmount,
	}
}

// InstallmentOverdueEvent is raised when the sweep flags an installment as overdue
type InstallmentOverdueEvent struct {
	shared.BaseDomainEvent
	FinancingID     uuid.UUID       `json:"financing_id"`
	ContractNumber  string          `json:"contract_number"`
	SequenceNumber  int             `json:"sequence_number"`
	DueDate         time.Time       `json:"due_date"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

// EventType returns the event type name
func (e *InstallmentOverdueEvent) EventType() string {
	return "InstallmentOverdue"
}

// NewInstallmentOverdueEvent creates a new InstallmentOverdueEvent
func NewInstallmentOverdueEvent(f *Financing, inst *FinancingInstallment) *InstallmentOverdueEvent {
	return &InstallmentOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InstallmentOverdue", "Financing", f.ID),
		FinancingID:     f.ID,
		ContractNumber:  f.ContractNumber,
		SequenceNumber:  inst.SequenceNumber,
		DueDate:         inst.DueDate,
		RemainingAmount: inst.RemainingAmount,
	}
}

// FinancingCompletedEvent is raised when the outstanding balance is settled
type FinancingCompletedEvent struct {
	shared.BaseDomainEvent
	FinancingID    uuid.UUID `json:"financing_id"`
	ContractNumber string    `json:"contract_number"`
	CompletedAt    time.Time `json:"completed_at"`
}

// EventType returns the event type name
func (e *FinancingCompletedEvent) EventType() string {
	return "FinancingCompleted"
}

// NewFinancingCompletedEvent creates a new FinancingCompletedEvent
func NewFinancingCompletedEvent(f *Financing, completedAt time.Time) *FinancingCompletedEvent {
	return &FinancingCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FinancingCompleted", "Financing", f.ID),
		FinancingID:     f.ID,
		ContractNumber:  f.ContractNumber,
		CompletedAt:     completedAt,
	}
}

// FinancingCancelledEvent is raised when a financing contract is cancelled
type FinancingCancelledEvent struct {
	shared.BaseDomainEvent
	FinancingID    uuid.UUID `json:"financing_id"`
	ContractNumber string    `json:"contract_number"`
	CancelReason   string    `json:"cancel_reason"`
}

// EventType returns the event type name
func (e *FinancingCancelledEvent) EventType() string {
	return "FinancingCancelled"
}

// NewFinancingCancelledEvent creates a new FinancingCancelledEvent
func NewFinancingCancelledEvent(f *Financing) *FinancingCancelledEvent {
	return &FinancingCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FinancingCancelled", "Financing", f.ID),
		FinancingID:     f.ID,
		ContractNumber:  f.ContractNumber,
		CancelReason:    f.CancelReason,
	}
}

// FinancingReactivatedEvent is raised when a settled financing regains a
// positive balance after a payment reversal
type FinancingReactivatedEvent struct {
	shared.BaseDomainEvent
	FinancingID        uuid.UUID       `json:"financing_id"`
	ContractNumber     string          `json:"contract_number"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

// EventType returns the event type name
func (e *FinancingReactivatedEvent) EventType() string {
	return "FinancingReactivated"
}

// NewFinancingReactivatedEvent creates a new FinancingReactivatedEvent
func NewFinancingReactivatedEvent(f *Financing) *FinancingReactivatedEvent {
	return &FinancingReactivatedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent("FinancingReactivated", "Financing", f.ID),
		FinancingID:        f.ID,
		ContractNumber:     f.ContractNumber,
		OutstandingBalance: f.OutstandingBalance,
	}
}
