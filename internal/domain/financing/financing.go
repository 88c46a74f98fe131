package financing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/loanbook/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// FinancingStatus represents the status of a financing contract
type FinancingStatus string

const (
	FinancingStatusActive    FinancingStatus = "ACTIVE"    // Outstanding balance > 0
	FinancingStatusCompleted FinancingStatus = "COMPLETED" // Balance settled
	FinancingStatusCancelled FinancingStatus = "CANCELLED" // Cancelled contract
)

// IsValid checks if the status is a valid FinancingStatus
func (s FinancingStatus) IsValid() bool {
	switch s {
	case FinancingStatusActive, FinancingStatusCompleted, FinancingStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of FinancingStatus
func (s FinancingStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the financing is in a terminal state
func (s FinancingStatus) IsTerminal() bool {
	return s == FinancingStatusCompleted || s == FinancingStatusCancelled
}

// Financing represents a financing contract aggregate root.
// It owns the ordered installment schedule and the running outstanding
// balance, and funnels all installment mutation through its own methods.
type Financing struct {
	shared.BaseAggregateRoot
	ContractNumber     string                  `json:"contract_number"`
	CustomerID         uuid.UUID               `json:"customer_id"`
	CustomerName       string                  `json:"customer_name"`
	Principal          decimal.Decimal         `json:"principal"`
	AnnualRate         decimal.Decimal         `json:"annual_rate"` // Percentage units, 12.0 means 12% a year
	TermMonths         int                     `json:"term_months"`
	Method             AmortizationMethod      `json:"method"`
	StartDate          time.Time               `json:"start_date"`
	EndDate            *time.Time              `json:"end_date"` // Projection at creation, actual date on completion
	Status             FinancingStatus         `json:"status"`
	OutstandingBalance decimal.Decimal         `json:"outstanding_balance"`
	LastCorrectionDate time.Time               `json:"last_correction_date"`
	CancelledAt        *time.Time              `json:"cancelled_at"`
	CancelReason       string                  `json:"cancel_reason"`
	Installments       []*FinancingInstallment `json:"installments"`
}

// NewFinancing creates a new financing contract and generates its full
// installment schedule. Installment k is due startDate + k months.
func NewFinancing(
	contractNumber string,
	customerID uuid.UUID,
	customerName string,
	principal valueobject.Money,
	annualRate decimal.Decimal,
	termMonths int,
	startDate time.Time,
	method AmortizationMethod,
) (*Financing, error) {
	if contractNumber == "" {
		return nil, shared.NewDomainError("INVALID_CONTRACT_NUMBER", "Contract number cannot be empty")
	}
	if len(contractNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_CONTRACT_NUMBER", "Contract number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if principal.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_PRINCIPAL", "Principal must be positive")
	}
	if annualRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_RATE", "Annual rate cannot be negative")
	}
	if termMonths < 1 {
		return nil, shared.NewDomainError("INVALID_TERM", "Term must be at least 1 month")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", fmt.Sprintf("Amortization method %s is not valid", method))
	}

	f := &Financing{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		ContractNumber:     contractNumber,
		CustomerID:         customerID,
		CustomerName:       customerName,
		Principal:          principal.Amount(),
		AnnualRate:         annualRate,
		TermMonths:         termMonths,
		Method:             method,
		StartDate:          startDate,
		Status:             FinancingStatusActive,
		OutstandingBalance: principal.Amount(),
		LastCorrectionDate: startDate,
	}

	lines, err := CalculateSchedule(ScheduleInput{
		Balance:           f.Principal,
		AnnualRatePercent: f.AnnualRate,
		Periods:           f.TermMonths,
		StartingSequence:  1,
		FirstDueDate:      startDate.AddDate(0, 1, 0),
		Method:            f.Method,
	})
	if err != nil {
		return nil, err
	}

	f.Installments = make([]*FinancingInstallment, 0, len(lines))
	for _, line := range lines {
		f.Installments = append(f.Installments, newInstallmentFromLine(f.ID, line))
	}

	projectedEnd := startDate.AddDate(0, termMonths, 0)
	f.EndDate = &projectedEnd

	f.AddDomainEvent(NewFinancingCreatedEvent(f))

	return f, nil
}

// ApplyCorrection applies a monetary correction index to the outstanding
// balance and recalculates all unpaid future installments. The index value
// is a fractional rate (0.005 means 0.5%). The correction date must be
// strictly after the last correction date.
func (f *Financing) ApplyCorrection(index valueobject.Rate, correctionDate time.Time) error {
	if f.Status != FinancingStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply correction to financing in %s status", f.Status))
	}
	if !correctionDate.After(f.LastCorrectionDate) {
		return shared.NewDomainError("INVALID_CORRECTION_DATE",
			fmt.Sprintf("Correction date %s must be after last correction date %s",
				correctionDate.Format("2006-01-02"), f.LastCorrectionDate.Format("2006-01-02")))
	}
	if index.Factor().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_INDEX", "Correction index cannot reduce the balance to zero or below")
	}

	previousBalance := f.OutstandingBalance
	f.OutstandingBalance = f.OutstandingBalance.Mul(index.Factor()).Round(moneyPlaces)

	if err := f.RecalculateRemainingInstallments(correctionDate); err != nil {
		f.OutstandingBalance = previousBalance
		return err
	}

	f.LastCorrectionDate = correctionDate
	f.UpdatedAt = time.Now()
	f.IncrementVersion()

	f.AddDomainEvent(NewFinancingCorrectionAppliedEvent(f, index, correctionDate, previousBalance))

	return nil
}

// RecalculateRemainingInstallments rewrites the amounts of every unpaid
// future installment from the current outstanding balance. Only installments
// due strictly after the reference date and still awaiting their first
// payment (Pending, or Adjusted by an earlier correction) are selected;
// paid, partially paid and overdue installments are never touched. An empty
// selection is a no-op.
func (f *Financing) RecalculateRemainingInstallments(referenceDate time.Time) error {
	selected := make([]*FinancingInstallment, 0, len(f.Installments))
	for _, inst := range f.Installments {
		if inst.IsDueAfter(referenceDate) &&
			(inst.Status == InstallmentStatusPending || inst.Status == InstallmentStatusAdjusted) {
			selected = append(selected, inst)
		}
	}
	if len(selected) == 0 {
		return nil
	}

	lines, err := CalculateSchedule(ScheduleInput{
		Balance:           f.OutstandingBalance,
		AnnualRatePercent: f.AnnualRate,
		Periods:           len(selected),
		StartingSequence:  selected[0].SequenceNumber,
		FirstDueDate:      selected[0].DueDate,
		Method:            f.Method,
	})
	if err != nil {
		return err
	}

	// Sequence numbers and due dates of the selected installments are
	// preserved; only the monetary amounts are overwritten.
	for idx, inst := range selected {
		inst.markAsAdjusted(lines[idx])
	}

	return nil
}

// AddPayment credits a payment to the installment with the given sequence
// number and propagates the amortization portion of the applied amount to
// the outstanding balance.
func (f *Financing) AddPayment(sequenceNumber int, amount valueobject.Money, paymentDate, now time.Time) error {
	if f.Status != FinancingStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot register payment on financing in %s status", f.Status))
	}

	inst := f.GetInstallment(sequenceNumber)
	if inst == nil {
		return shared.NewDomainError("INSTALLMENT_NOT_FOUND", fmt.Sprintf("Installment %d not found", sequenceNumber))
	}

	applied, err := inst.AddPayment(amount.Amount(), paymentDate)
	if err != nil {
		return err
	}

	if inst.IsPaid() {
		f.AddDomainEvent(NewInstallmentPaidEvent(f, inst))
	} else {
		f.AddDomainEvent(NewInstallmentPartiallyPaidEvent(f, inst, applied))
	}

	f.UpdateRemainingDebt(f.amortizationPortion(inst, applied), now)
	f.UpdatedAt = time.Now()
	f.IncrementVersion()

	return nil
}

// amortizationPortion derives the share of an applied payment that reduces
// principal, proportional to the installment's amortization/total ratio.
func (f *Financing) amortizationPortion(inst *FinancingInstallment, applied decimal.Decimal) decimal.Decimal {
	if inst.TotalAmount.IsZero() {
		return decimal.Zero
	}
	return applied.Mul(inst.AmortizationAmount).Div(inst.TotalAmount).Round(moneyPlaces)
}

// UpdateRemainingDebt subtracts an amortization payment from the outstanding
// balance. A balance reaching zero or below is clamped to exactly zero and
// completes the financing, with the caller-supplied reference time as the
// end date.
func (f *Financing) UpdateRemainingDebt(amount decimal.Decimal, now time.Time) {
	f.OutstandingBalance = f.OutstandingBalance.Sub(amount)

	if f.OutstandingBalance.LessThanOrEqual(decimal.Zero) {
		f.OutstandingBalance = decimal.Zero
		if f.Status == FinancingStatusActive {
			f.Status = FinancingStatusCompleted
			f.EndDate = &now
			f.AddDomainEvent(NewFinancingCompletedEvent(f, now))
		}
	}

	f.UpdatedAt = time.Now()
}

// RestoreRemainingDebt adds an amount back to the outstanding balance,
// compensating a reversed or voided payment. A Completed financing whose
// balance becomes positive again is reactivated.
func (f *Financing) RestoreRemainingDebt(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Restore amount must be positive")
	}
	if f.Status == FinancingStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot restore debt on a cancelled financing")
	}

	f.OutstandingBalance = f.OutstandingBalance.Add(amount)

	if f.Status == FinancingStatusCompleted && f.OutstandingBalance.GreaterThan(decimal.Zero) {
		f.Status = FinancingStatusActive
		f.EndDate = nil
		f.AddDomainEvent(NewFinancingReactivatedEvent(f))
	}

	f.UpdatedAt = time.Now()
	f.IncrementVersion()

	return nil
}

// Complete marks the financing as settled at the given reference time.
// Completing an already completed financing is an idempotent no-op.
func (f *Financing) Complete(now time.Time) error {
	if f.Status == FinancingStatusCompleted {
		return nil
	}
	if f.Status == FinancingStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot complete a cancelled financing")
	}

	f.Status = FinancingStatusCompleted
	f.OutstandingBalance = decimal.Zero
	f.EndDate = &now
	f.UpdatedAt = time.Now()
	f.IncrementVersion()

	f.AddDomainEvent(NewFinancingCompletedEvent(f, now))

	return nil
}

// Cancel cancels the financing contract.
// Cancelling an already cancelled financing is an idempotent no-op.
func (f *Financing) Cancel(reason string) error {
	if f.Status == FinancingStatusCancelled {
		return nil
	}
	if f.Status == FinancingStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel a completed financing")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	f.Status = FinancingStatusCancelled
	f.CancelledAt = &now
	f.CancelReason = reason
	f.UpdatedAt = now
	f.IncrementVersion()

	f.AddDomainEvent(NewFinancingCancelledEvent(f))

	return nil
}

// MarkInstallmentOverdue flags the installment with the given sequence
// number as overdue. The due-date sweep that decides when to call this runs
// in the application layer.
func (f *Financing) MarkInstallmentOverdue(sequenceNumber int) error {
	if f.Status != FinancingStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark installments overdue on financing in %s status", f.Status))
	}

	inst := f.GetInstallment(sequenceNumber)
	if inst == nil {
		return shared.NewDomainError("INSTALLMENT_NOT_FOUND", fmt.Sprintf("Installment %d not found", sequenceNumber))
	}

	if err := inst.MarkAsOverdue(); err != nil {
		return err
	}

	f.UpdatedAt = time.Now()
	f.IncrementVersion()

	f.AddDomainEvent(NewInstallmentOverdueEvent(f, inst))

	return nil
}

// Helper methods

// GetInstallment returns the installment with the given sequence number, or nil
func (f *Financing) GetInstallment(sequenceNumber int) *FinancingInstallment {
	for _, inst := range f.Installments {
		if inst.SequenceNumber == sequenceNumber {
			return inst
		}
	}
	return nil
}

// PastDueInstallments returns the installments the overdue sweep should flag
// at the given reference time
func (f *Financing) PastDueInstallments(reference time.Time) []*FinancingInstallment {
	var result []*FinancingInstallment
	for _, inst := range f.Installments {
		if inst.IsPastDue(reference) {
			result = append(result, inst)
		}
	}
	return result
}

// GetPrincipalMoney returns the principal as Money
func (f *Financing) GetPrincipalMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(f.Principal)
}

// GetOutstandingBalanceMoney returns the outstanding balance as Money
func (f *Financing) GetOutstandingBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(f.OutstandingBalance)
}

// IsActive returns true if the financing is active
func (f *Financing) IsActive() bool {
	return f.Status == FinancingStatusActive
}

// IsCompleted returns true if the financing is settled
func (f *Financing) IsCompleted() bool {
	return f.Status == FinancingStatusCompleted
}

// IsCancelled returns true if the financing is cancelled
func (f *Financing) IsCancelled() bool {
	return f.Status == FinancingStatusCancelled
}

// PaidInstallmentCount returns the number of fully paid installments
func (f *Financing) PaidInstallmentCount() int {
	count := 0
	for _, inst := range f.Installments {
		if inst.IsPaid() {
			count++
		}
	}
	return count
}

// TotalPaidAmount returns the cumulative amount credited across all installments
func (f *Financing) TotalPaidAmount() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range f.Installments {
		total = total.Add(inst.PaidAmount)
	}
	return total
}
