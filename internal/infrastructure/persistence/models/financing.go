package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/loanbook/backend/internal/domain/financing"
	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// FinancingModel is the persistence model for the Financing aggregate root.
type FinancingModel struct {
	AggregateModel
	ContractNumber     string                       `gorm:"type:varchar(50);not null;uniqueIndex:idx_financing_contract_number"`
	CustomerID         uuid.UUID                    `gorm:"type:uuid;not null;index"`
	CustomerName       string                       `gorm:"type:varchar(200);not null"`
	Principal          decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	AnnualRate         decimal.Decimal              `gorm:"type:decimal(12,8);not null"`
	TermMonths         int                          `gorm:"not null"`
	Method             financing.AmortizationMethod `gorm:"type:varchar(10);not null"`
	StartDate          time.Time                    `gorm:"not null;index"`
	EndDate            *time.Time
	Status             financing.FinancingStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	OutstandingBalance decimal.Decimal           `gorm:"type:decimal(18,4);not null;index"`
	LastCorrectionDate time.Time
	CancelledAt        *time.Time
	CancelReason       string                       `gorm:"type:varchar(500)"`
	Installments       []FinancingInstallmentModel  `gorm:"foreignKey:FinancingID;references:ID"`
}

// TableName returns the table name for GORM
func (FinancingModel) TableName() string {
	return "financings"
}

// FinancingInstallmentModel is the persistence model for financing installments.
type FinancingInstallmentModel struct {
	BaseModel
	FinancingID        uuid.UUID                   `gorm:"type:uuid;not null;index;uniqueIndex:idx_installment_financing_seq,priority:1"`
	SequenceNumber     int                         `gorm:"not null;uniqueIndex:idx_installment_financing_seq,priority:2"`
	TotalAmount        decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	InterestAmount     decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	AmortizationAmount decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	DueDate            time.Time                   `gorm:"not null;index"`
	PaymentDate        *time.Time
	Status             financing.InstallmentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaidAmount         decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	RemainingAmount    decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (FinancingInstallmentModel) TableName() string {
	return "financing_installments"
}

// ToDomain converts the persistence model to a domain FinancingInstallment entity.
func (m *FinancingInstallmentModel) ToDomain() *financing.FinancingInstallment {
	return &financing.FinancingInstallment{
		BaseEntity:         m.BaseModel.ToDomain(),
		FinancingID:        m.FinancingID,
		SequenceNumber:     m.SequenceNumber,
		TotalAmount:        m.TotalAmount,
		InterestAmount:     m.InterestAmount,
		AmortizationAmount: m.AmortizationAmount,
		DueDate:            m.DueDate,
		PaymentDate:        m.PaymentDate,
		Status:             m.Status,
		PaidAmount:         m.PaidAmount,
		RemainingAmount:    m.RemainingAmount,
	}
}

// FromDomain populates the persistence model from a domain FinancingInstallment.
func (m *FinancingInstallmentModel) FromDomain(inst *financing.FinancingInstallment) {
	m.FromDomainBaseEntity(inst.BaseEntity)
	m.FinancingID = inst.FinancingID
	m.SequenceNumber = inst.SequenceNumber
	m.TotalAmount = inst.TotalAmount
	m.InterestAmount = inst.InterestAmount
	m.AmortizationAmount = inst.AmortizationAmount
	m.DueDate = inst.DueDate
	m.PaymentDate = inst.PaymentDate
	m.Status = inst.Status
	m.PaidAmount = inst.PaidAmount
	m.RemainingAmount = inst.RemainingAmount
}

// ToDomain converts the persistence model to a domain Financing entity.
func (m *FinancingModel) ToDomain() *financing.Financing {
	installments := make([]*financing.FinancingInstallment, len(m.Installments))
	for i := range m.Installments {
		installments[i] = m.Installments[i].ToDomain()
	}
	return &financing.Financing{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		ContractNumber:     m.ContractNumber,
		CustomerID:         m.CustomerID,
		CustomerName:       m.CustomerName,
		Principal:          m.Principal,
		AnnualRate:         m.AnnualRate,
		TermMonths:         m.TermMonths,
		Method:             m.Method,
		StartDate:          m.StartDate,
		EndDate:            m.EndDate,
		Status:             m.Status,
		OutstandingBalance: m.OutstandingBalance,
		LastCorrectionDate: m.LastCorrectionDate,
		CancelledAt:        m.CancelledAt,
		CancelReason:       m.CancelReason,
		Installments:       installments,
	}
}

// FromDomain populates the persistence model from a domain Financing entity.
func (m *FinancingModel) FromDomain(f *financing.Financing) {
	m.FromDomainAggregateRoot(f.BaseAggregateRoot)
	m.ContractNumber = f.ContractNumber
	m.CustomerID = f.CustomerID
	m.CustomerName = f.CustomerName
	m.Principal = f.Principal
	m.AnnualRate = f.AnnualRate
	m.TermMonths = f.TermMonths
	m.Method = f.Method
	m.StartDate = f.StartDate
	m.EndDate = f.EndDate
	m.Status = f.Status
	m.OutstandingBalance = f.OutstandingBalance
	m.LastCorrectionDate = f.LastCorrectionDate
	m.CancelledAt = f.CancelledAt
	m.CancelReason = f.CancelReason

	m.Installments = make([]FinancingInstallmentModel, len(f.Installments))
	for i, inst := range f.Installments {
		m.Installments[i].FromDomain(inst)
	}
}

// FinancingModelFromDomain creates a new persistence model from a domain Financing.
func FinancingModelFromDomain(f *financing.Financing) *FinancingModel {
	m := &FinancingModel{}
	m.FromDomain(f)
	return m
}
