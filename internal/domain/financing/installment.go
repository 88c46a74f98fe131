package financing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/loanbook/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InstallmentStatus represents the payment status of a financing installment
type InstallmentStatus string

const (
	InstallmentStatusPending       InstallmentStatus = "PENDING"        // Unpaid, no payment received
	InstallmentStatusPartiallyPaid InstallmentStatus = "PARTIALLY_PAID" // 0 < paid < total
	InstallmentStatusPaid          InstallmentStatus = "PAID"           // Fully paid, remaining = 0
	InstallmentStatusOverdue       InstallmentStatus = "OVERDUE"        // Past due date, unpaid
	InstallmentStatusAdjusted      InstallmentStatus = "ADJUSTED"       // Amounts rewritten by a correction
)

// IsValid checks if the status is a valid InstallmentStatus
func (s InstallmentStatus) IsValid() bool {
	switch s {
	case InstallmentStatusPending, InstallmentStatusPartiallyPaid, InstallmentStatusPaid,
		InstallmentStatusOverdue, InstallmentStatusAdjusted:
		return true
	}
	return false
}

// String returns the string representation of InstallmentStatus
func (s InstallmentStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further amount mutation is permitted
func (s InstallmentStatus) IsTerminal() bool {
	return s == InstallmentStatusPaid
}

// CanReceivePayment returns true if payments can be credited in this status
func (s InstallmentStatus) CanReceivePayment() bool {
	return s == InstallmentStatusPending || s == InstallmentStatusPartiallyPaid ||
		s == InstallmentStatusOverdue || s == InstallmentStatusAdjusted
}

// CanBeMarkedOverdue returns true if the overdue sweep may flag this status
func (s InstallmentStatus) CanBeMarkedOverdue() bool {
	return s == InstallmentStatusPending || s == InstallmentStatusPartiallyPaid
}

// FinancingInstallment is one installment of a financing contract.
// It is created only by Financing schedule generation and mutated in place
// for the life of the financing. TotalAmount = InterestAmount +
// AmortizationAmount and RemainingAmount = TotalAmount - PaidAmount hold
// after every mutation.
type FinancingInstallment struct {
	shared.BaseEntity
	FinancingID        uuid.UUID         `json:"financing_id"`
	SequenceNumber     int               `json:"sequence_number"`
	TotalAmount        decimal.Decimal   `json:"total_amount"`
	InterestAmount     decimal.Decimal   `json:"interest_amount"`
	AmortizationAmount decimal.Decimal   `json:"amortization_amount"`
	DueDate            time.Time         `json:"due_date"`
	PaymentDate        *time.Time        `json:"payment_date"`
	Status             InstallmentStatus `json:"status"`
	PaidAmount         decimal.Decimal   `json:"paid_amount"`
	RemainingAmount    decimal.Decimal   `json:"remaining_amount"`
}

// newInstallmentFromLine wraps a calculator line in a pending installment
func newInstallmentFromLine(financingID uuid.UUID, line InstallmentLine) *FinancingInstallment {
	return &FinancingInstallment{
		BaseEntity:         shared.NewBaseEntity(),
		FinancingID:        financingID,
		SequenceNumber:     line.SequenceNumber,
		TotalAmount:        line.TotalAmount,
		InterestAmount:     line.InterestAmount,
		AmortizationAmount: line.AmortizationAmount,
		DueDate:            line.DueDate,
		Status:             InstallmentStatusPending,
		PaidAmount:         decimal.Zero,
		RemainingAmount:    line.TotalAmount,
	}
}

// MarkAsPaid settles the installment in full.
// Valid from any non-terminal status.
func (i *FinancingInstallment) MarkAsPaid(paymentDate time.Time) error {
	if !i.Status.CanReceivePayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pay installment in %s status", i.Status))
	}

	i.PaidAmount = i.TotalAmount
	i.RemainingAmount = decimal.Zero
	i.Status = InstallmentStatusPaid
	i.setPaymentDate(paymentDate)
	i.UpdatedAt = time.Now()

	return nil
}

// MarkAsPartiallyPaid credits a partial payment.
// The amount must be strictly positive and strictly below the remaining
// amount; full or excess payments must be routed to MarkAsPaid instead.
// Amounts are never silently clamped.
func (i *FinancingInstallment) MarkAsPartiallyPaid(amount decimal.Decimal, paymentDate time.Time) error {
	if !i.Status.CanReceivePayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pay installment in %s status", i.Status))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_PAYMENT_AMOUNT", "Payment amount must be positive")
	}
	if amount.GreaterThanOrEqual(i.RemainingAmount) {
		return shared.NewDomainError("INVALID_PAYMENT_AMOUNT",
			fmt.Sprintf("Partial payment %s must be below remaining amount %s", amount.StringFixed(2), i.RemainingAmount.StringFixed(2)))
	}

	i.PaidAmount = i.PaidAmount.Add(amount)
	i.RemainingAmount = i.TotalAmount.Sub(i.PaidAmount)
	i.Status = InstallmentStatusPartiallyPaid
	i.setPaymentDate(paymentDate)
	i.UpdatedAt = time.Now()

	return nil
}

// MarkAsOverdue flags the installment as past due.
// Valid from Pending or PartiallyPaid only; the due-date sweep that decides
// when to call this lives outside the aggregate.
func (i *FinancingInstallment) MarkAsOverdue() error {
	if !i.Status.CanBeMarkedOverdue() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark installment in %s status as overdue", i.Status))
	}

	i.Status = InstallmentStatusOverdue
	i.UpdatedAt = time.Now()

	return nil
}

// markAsAdjusted overwrites the installment amounts with a recalculated line,
// preserving sequence number and due date. Called only by the correction
// recalculation on the parent aggregate.
func (i *FinancingInstallment) markAsAdjusted(line InstallmentLine) {
	i.TotalAmount = line.TotalAmount
	i.InterestAmount = line.InterestAmount
	i.AmortizationAmount = line.AmortizationAmount
	i.RemainingAmount = i.TotalAmount.Sub(i.PaidAmount)
	i.Status = InstallmentStatusAdjusted
	i.UpdatedAt = time.Now()
}

// AddPayment is the single entry point for crediting a payment.
// Amounts covering the remaining balance settle the installment in full;
// smaller amounts are credited as a partial payment. Returns the amount
// actually applied toward this installment.
func (i *FinancingInstallment) AddPayment(amount decimal.Decimal, paymentDate time.Time) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.NewDomainError("INVALID_PAYMENT_AMOUNT", "Payment amount must be positive")
	}

	if amount.GreaterThanOrEqual(i.RemainingAmount) {
		applied := i.RemainingAmount
		if err := i.MarkAsPaid(paymentDate); err != nil {
			return decimal.Zero, err
		}
		return applied, nil
	}

	if err := i.MarkAsPartiallyPaid(amount, paymentDate); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// setPaymentDate keeps the latest payment date
func (i *FinancingInstallment) setPaymentDate(paymentDate time.Time) {
	if i.PaymentDate == nil || paymentDate.After(*i.PaymentDate) {
		i.PaymentDate = &paymentDate
	}
}

// Helper methods

// GetTotalAmountMoney returns the total amount as Money
func (i *FinancingInstallment) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(i.TotalAmount)
}

// GetRemainingAmountMoney returns the remaining amount as Money
func (i *FinancingInstallment) GetRemainingAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(i.RemainingAmount)
}

// GetPaidAmountMoney returns the paid amount as Money
func (i *FinancingInstallment) GetPaidAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(i.PaidAmount)
}

// IsPaid returns true if the installment is fully paid
func (i *FinancingInstallment) IsPaid() bool {
	return i.Status == InstallmentStatusPaid
}

// IsOpen returns true if the installment still carries a remaining amount
func (i *FinancingInstallment) IsOpen() bool {
	return i.Status.CanReceivePayment()
}

// IsDueAfter returns true if the installment is due strictly after the reference date
func (i *FinancingInstallment) IsDueAfter(reference time.Time) bool {
	return i.DueDate.After(reference)
}

// IsPastDue returns true if the due date has passed and the installment can
// still be flagged by the overdue sweep
func (i *FinancingInstallment) IsPastDue(reference time.Time) bool {
	return i.Status.CanBeMarkedOverdue() && reference.After(i.DueDate)
}
