package models

import (
	"time"

	"github.com/bnpl/backend/internal/domain/lending"
	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanModel is the persistence model for the Loan aggregate root.
// Installments live in their own table and are saved in the same
// transaction as the loan row; payment records are held as JSONB.
type LoanModel struct {
	TenantAggregateModel
	LoanNumber             string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_loan_tenant_number,priority:2"`
	ProviderID             *uuid.UUID             `gorm:"type:uuid;index"`
	ProviderName           string                 `gorm:"type:varchar(100)"`
	DownPaymentPercentage  decimal.Decimal        `gorm:"type:decimal(5,2);not null;default:0"`
	InterestRatePercentage decimal.Decimal        `gorm:"type:decimal(7,4);not null;default:0"`
	Currency               string                 `gorm:"type:varchar(3);not null"`
	TotalAmount            int64                  `gorm:"not null"`
	DownPayment            int64                  `gorm:"not null"`
	BNPLAmount             int64                  `gorm:"column:bnpl_amount;not null"`
	NumberOfInstallments   int                    `gorm:"not null"`
	PaymentIntervalDays    int                    `gorm:"not null"`
	InstallmentAmount      int64                  `gorm:"not null"`
	AmountPaid             int64                  `gorm:"not null;default:0"`
	Status                 lending.LoanStatus     `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	PurchaseDate           time.Time              `gorm:"not null;index"`
	Installments           []InstallmentModel     `gorm:"foreignKey:LoanID;references:ID"`
	Payments               lending.PaymentRecords `gorm:"type:jsonb;default:'[]'"`
	ReceiptSeq             int64                  `gorm:"not null;default:0"`
	CompletedAt            *time.Time
	CancelledAt            *time.Time
	CancelReason           string `gorm:"type:varchar(500)"`
	DefaultedAt            *time.Time
	DefaultReason          string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (LoanModel) TableName() string {
	return "bnpl_loans"
}

// InstallmentModel is the persistence model for one installment of a loan
type InstallmentModel struct {
	BaseModel
	LoanID         uuid.UUID                 `gorm:"type:uuid;not null;index;uniqueIndex:idx_installment_loan_seq,priority:1"`
	Sequence       int                       `gorm:"not null;uniqueIndex:idx_installment_loan_seq,priority:2"`
	DueDate        time.Time                 `gorm:"not null;index"`
	AmountExpected int64                     `gorm:"not null"`
	AmountPaid     int64                     `gorm:"not null;default:0"`
	Currency       string                    `gorm:"type:varchar(3);not null"`
	Status         lending.InstallmentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaidDate       *time.Time
}

// TableName returns the table name for GORM
func (InstallmentModel) TableName() string {
	return "bnpl_installments"
}

// ToDomain converts the persistence model to a domain Installment
func (m *InstallmentModel) ToDomain() lending.Installment {
	return lending.Installment{
		ID:             m.ID,
		Sequence:       m.Sequence,
		DueDate:        m.DueDate,
		AmountExpected: m.AmountExpected,
		AmountPaid:     m.AmountPaid,
		Currency:       m.Currency,
		Status:         m.Status,
		PaidDate:       m.PaidDate,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// InstallmentModelFromDomain creates a persistence model from a domain Installment
func InstallmentModelFromDomain(loanID uuid.UUID, inst lending.Installment) InstallmentModel {
	return InstallmentModel{
		BaseModel: BaseModel{
			ID:        inst.ID,
			CreatedAt: inst.CreatedAt,
			UpdatedAt: inst.UpdatedAt,
		},
		LoanID:         loanID,
		Sequence:       inst.Sequence,
		DueDate:        inst.DueDate,
		AmountExpected: inst.AmountExpected,
		AmountPaid:     inst.AmountPaid,
		Currency:       inst.Currency,
		Status:         inst.Status,
		PaidDate:       inst.PaidDate,
	}
}

// ToDomain converts the persistence model to a domain Loan entity
func (m *LoanModel) ToDomain() *lending.Loan {
	loan := &lending.Loan{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID: m.TenantID,
		},
		LoanNumber:             m.LoanNumber,
		ProviderID:             m.ProviderID,
		ProviderName:           m.ProviderName,
		DownPaymentPercentage:  m.DownPaymentPercentage,
		InterestRatePercentage: m.InterestRatePercentage,
		Currency:               m.Currency,
		TotalAmount:            m.TotalAmount,
		DownPayment:            m.DownPayment,
		BNPLAmount:             m.BNPLAmount,
		NumberOfInstallments:   m.NumberOfInstallments,
		PaymentIntervalDays:    m.PaymentIntervalDays,
		InstallmentAmount:      m.InstallmentAmount,
		AmountPaid:             m.AmountPaid,
		Status:                 m.Status,
		PurchaseDate:           m.PurchaseDate,
		Payments:               m.Payments,
		ReceiptSeq:             m.ReceiptSeq,
		CompletedAt:            m.CompletedAt,
		CancelledAt:            m.CancelledAt,
		CancelReason:           m.CancelReason,
		DefaultedAt:            m.DefaultedAt,
		DefaultReason:          m.DefaultReason,
	}

	loan.Installments = make([]lending.Installment, len(m.Installments))
	for i := range m.Installments {
		loan.Installments[i] = m.Installments[i].ToDomain()
	}

	return loan
}

// FromDomain populates the persistence model from a domain Loan entity
func (m *LoanModel) FromDomain(loan *lending.Loan) {
	m.FromDomainTenantAggregateRoot(loan.TenantAggregateRoot)
	m.LoanNumber = loan.LoanNumber
	m.ProviderID = loan.ProviderID
	m.ProviderName = loan.ProviderName
	m.DownPaymentPercentage = loan.DownPaymentPercentage
	m.InterestRatePercentage = loan.InterestRatePercentage
	m.Currency = loan.Currency
	m.TotalAmount = loan.TotalAmount
	m.DownPayment = loan.DownPayment
	m.BNPLAmount = loan.BNPLAmount
	m.NumberOfInstallments = loan.NumberOfInstallments
	m.PaymentIntervalDays = loan.PaymentIntervalDays
	m.InstallmentAmount = loan.InstallmentAmount
	m.AmountPaid = loan.AmountPaid
	m.Status = loan.Status
	m.PurchaseDate = loan.PurchaseDate
	m.Payments = loan.Payments
	m.ReceiptSeq = loan.ReceiptSeq
	m.CompletedAt = loan.CompletedAt
	m.CancelledAt = loan.CancelledAt
	m.CancelReason = loan.CancelReason
	m.DefaultedAt = loan.DefaultedAt
	m.DefaultReason = loan.DefaultReason

	m.Installments = make([]InstallmentModel, len(loan.Installments))
	for i := range loan.Installments {
		m.Installments[i] = InstallmentModelFromDomain(loan.ID, loan.Installments[i])
	}
}

// LoanModelFromDomain creates a new persistence model from a domain Loan
func LoanModelFromDomain(loan *lending.Loan) *LoanModel {
	m := &LoanModel{}
	m.FromDomain(loan)
	return m
}

// ProviderModel is the persistence model for BNPL service providers
type ProviderModel struct {
	TenantAggregateModel
	Name                   string          `gorm:"type:varchar(100);not null;index"`
	PhoneNumber            string          `gorm:"type:varchar(50)"`
	Email                  string          `gorm:"type:varchar(200)"`
	Website                string          `gorm:"type:varchar(200)"`
	DownPaymentPercentage  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	InterestRatePercentage decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ProviderModel) TableName() string {
	return "bnpl_providers"
}

// ToDomain converts the persistence model to a domain Provider entity
func (m *ProviderModel) ToDomain() *lending.Provider {
	return &lending.Provider{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID: m.TenantID,
		},
		Name:                   m.Name,
		PhoneNumber:            m.PhoneNumber,
		Email:                  m.Email,
		Website:                m.Website,
		DownPaymentPercentage:  m.DownPaymentPercentage,
		InterestRatePercentage: m.InterestRatePercentage,
	}
}

// FromDomain populates the persistence model from a domain Provider entity
func (m *ProviderModel) FromDomain(p *lending.Provider) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.Name = p.Name
	m.PhoneNumber = p.PhoneNumber
	m.Email = p.Email
	m.Website = p.Website
	m.DownPaymentPercentage = p.DownPaymentPercentage
	m.InterestRatePercentage = p.InterestRatePercentage
}

// ProviderModelFromDomain creates a new persistence model from a domain Provider
func ProviderModelFromDomain(p *lending.Provider) *ProviderModel {
	m := &ProviderModel{}
	m.FromDomain(p)
	return m
}
