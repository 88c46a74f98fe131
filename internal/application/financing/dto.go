package financing

import (
	"time"

	"github.com/google/uuid"
	"github.com/loanbook/backend/internal/domain/financing"
	"github.com/shopspring/decimal"
)

// CreateFinancingRequest carries the input for creating a financing contract
type CreateFinancingRequest struct {
	ContractNumber string
	CustomerID     uuid.UUID
	CustomerName   string
	Principal      decimal.Decimal
	AnnualRate     decimal.Decimal
	TermMonths     int
	StartDate      time.Time
	Method         financing.AmortizationMethod
}

// ApplyCorrectionRequest carries the input for a monetary correction
type ApplyCorrectionRequest struct {
	IndexValue     decimal.Decimal
	CorrectionDate time.Time
}

// RegisterPaymentRequest carries the input for crediting a payment
type RegisterPaymentRequest struct {
	SequenceNumber int
	Amount         decimal.Decimal
	PaymentDate    time.Time
}

// ReversePaymentRequest carries the input for compensating a voided payment
type ReversePaymentRequest struct {
	Amount decimal.Decimal
}

// InstallmentResponse is the read model for one installment
type InstallmentResponse struct {
	ID                 uuid.UUID       `json:"id"`
	SequenceNumber     int             `json:"sequence_number"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	InterestAmount     decimal.Decimal `json:"interest_amount"`
	AmortizationAmount decimal.Decimal `json:"amortization_amount"`
	DueDate            time.Time       `json:"due_date"`
	PaymentDate        *time.Time      `json:"payment_date,omitempty"`
	Status             string          `json:"status"`
	PaidAmount         decimal.Decimal `json:"paid_amount"`
	RemainingAmount    decimal.Decimal `json:"remaining_amount"`
}

// FinancingResponse is the read model for a financing contract
type FinancingResponse struct {
	ID                 uuid.UUID             `json:"id"`
	ContractNumber     string                `json:"contract_number"`
	CustomerID         uuid.UUID             `json:"customer_id"`
	CustomerName       string                `json:"customer_name"`
	Principal          decimal.Decimal       `json:"principal"`
	AnnualRate         decimal.Decimal       `json:"annual_rate"`
	TermMonths         int                   `json:"term_months"`
	Method             string                `json:"method"`
	StartDate          time.Time             `json:"start_date"`
	EndDate            *time.Time            `json:"end_date,omitempty"`
	Status             string                `json:"status"`
	OutstandingBalance decimal.Decimal       `json:"outstanding_balance"`
	LastCorrectionDate time.Time             `json:"last_correction_date"`
	Version            int                   `json:"version"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
	Installments       []InstallmentResponse `json:"installments,omitempty"`
}

// ToInstallmentResponse converts an installment entity to its read model
func ToInstallmentResponse(inst *financing.FinancingInstallment) InstallmentResponse {
	return InstallmentResponse{
		ID:                 inst.ID,
		SequenceNumber:     inst.SequenceNumber,
		TotalAmount:        inst.TotalAmount,
		InterestAmount:     inst.InterestAmount,
		AmortizationAmount: inst.AmortizationAmount,
		DueDate:            inst.DueDate,
		PaymentDate:        inst.PaymentDate,
		Status:             inst.Status.String(),
		PaidAmount:         inst.PaidAmount,
		RemainingAmount:    inst.RemainingAmount,
	}
}

// ToFinancingResponse converts a financing aggregate to its read model
func ToFinancingResponse(f *financing.Financing, withInstallments bool) FinancingResponse {
	resp := FinancingResponse{
		ID:                 f.ID,
		ContractNumber:     f.ContractNumber,
		CustomerID:         f.CustomerID,
		CustomerName:       f.CustomerName,
		Principal:          f.Principal,
		AnnualRate:         f.AnnualRate,
		TermMonths:         f.TermMonths,
		Method:             f.Method.String(),
		StartDate:          f.StartDate,
		EndDate:            f.EndDate,
		Status:             f.Status.String(),
		OutstandingBalance: f.OutstandingBalance,
		LastCorrectionDate: f.LastCorrectionDate,
		Version:            f.GetVersion(),
		CreatedAt:          f.CreatedAt,
		UpdatedAt:          f.UpdatedAt,
	}
	if withInstallments {
		resp.Installments = make([]InstallmentResponse, 0, len(f.Installments))
		for _, inst := range f.Installments {
			resp.Installments = append(resp.Installments, ToInstallmentResponse(inst))
		}
	}
	return resp
}
