package lending

import (
	"time"

	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LoanCreatedEvent is raised when a purchase is converted into a loan
type LoanCreatedEvent struct {
	shared.BaseDomainEvent
	LoanID               uuid.UUID  `json:"loan_id"`
	LoanNumber           string     `json:"loan_number"`
	ProviderID           *uuid.UUID `json:"provider_id,omitempty"`
	TotalAmount          int64      `json:"total_amount"`
	DownPayment          int64      `json:"down_payment"`
	BNPLAmount           int64      `json:"bnpl_amount"`
	NumberOfInstallments int        `json:"number_of_installments"`
	PurchaseDate         time.Time  `json:"purchase_date"`
}

// EventType returns the event type name
func (e *LoanCreatedEvent) EventType() string {
	return "LoanCreated"
}

// NewLoanCreatedEvent creates a new LoanCreatedEvent
func NewLoanCreatedEvent(l *Loan) *LoanCreatedEvent {
	return &LoanCreatedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent("LoanCreated", "Loan", l.ID, l.TenantID),
		LoanID:               l.ID,
		LoanNumber:           l.LoanNumber,
		ProviderID:           l.ProviderID,
		TotalAmount:          l.TotalAmount,
		DownPayment:          l.DownPayment,
		BNPLAmount:           l.BNPLAmount,
		NumberOfInstallments: l.NumberOfInstallments,
		PurchaseDate:         l.PurchaseDate,
	}
}

// PaymentRecordedEvent is raised when a payment is allocated and committed
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	LoanID        uuid.UUID         `json:"loan_id"`
	LoanNumber    string            `json:"loan_number"`
	ReceiptNumber string            `json:"receipt_number"`
	Amount        int64             `json:"amount"`
	TargetType    PaymentTargetType `json:"target_type"`
	Sequences     []int             `json:"sequences"`
	AmountPaid    int64             `json:"amount_paid"`
	Remaining     int64             `json:"remaining"`
}

// EventType returns the event type name
func (e *PaymentRecordedEvent) EventType() string {
	return "PaymentRecorded"
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(l *Loan, record *PaymentRecord) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentRecorded", "Loan", l.ID, l.TenantID),
		LoanID:          l.ID,
		LoanNumber:      l.LoanNumber,
		ReceiptNumber:   record.ReceiptNumber,
		Amount:          record.Amount,
		TargetType:      record.TargetType,
		Sequences:       record.Sequences,
		AmountPaid:      l.AmountPaid,
		Remaining:       l.RemainingAmount(),
	}
}

// LoanCompletedEvent is raised when the financed balance is fully repaid
type LoanCompletedEvent struct {
	shared.BaseDomainEvent
	LoanID      uuid.UUID `json:"loan_id"`
	LoanNumber  string    `json:"loan_number"`
	BNPLAmount  int64     `json:"bnpl_amount"`
	CompletedAt time.Time `json:"completed_at"`
}

// EventType returns the event type name
func (e *LoanCompletedEvent) EventType() string {
	return "LoanCompleted"
}

// NewLoanCompletedEvent creates a new LoanCompletedEvent
func NewLoanCompletedEvent(l *Loan) *LoanCompletedEvent {
	completedAt := time.Now()
	if l.CompletedAt != nil {
		completedAt = *l.CompletedAt
	}
	return &LoanCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("LoanCompleted", "Loan", l.ID, l.TenantID),
		LoanID:          l.ID,
		LoanNumber:      l.LoanNumber,
		BNPLAmount:      l.BNPLAmount,
		CompletedAt:     completedAt,
	}
}

// LoanCancelledEvent is raised when an external action cancels a loan
type LoanCancelledEvent struct {
	shared.BaseDomainEvent
	LoanID     uuid.UUID `json:"loan_id"`
	LoanNumber string    `json:"loan_number"`
	AmountPaid int64     `json:"amount_paid"`
	Reason     string    `json:"reason"`
}

// EventType returns the event type name
func (e *LoanCancelledEvent) EventType() string {
	return "LoanCancelled"
}

// NewLoanCancelledEvent creates a new LoanCancelledEvent
func NewLoanCancelledEvent(l *Loan) *LoanCancelledEvent {
	return &LoanCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("LoanCancelled", "Loan", l.ID, l.TenantID),
		LoanID:          l.ID,
		LoanNumber:      l.LoanNumber,
		AmountPaid:      l.AmountPaid,
		Reason:          l.CancelReason,
	}
}

// LoanDefaultedEvent is raised when an external action defaults a loan
type LoanDefaultedEvent struct {
	shared.BaseDomainEvent
	LoanID     uuid.UUID `json:"loan_id"`
	LoanNumber string    `json:"loan_number"`
	AmountPaid int64     `json:"amount_paid"`
	Remaining  int64     `json:"remaining"`
	Reason     string    `json:"reason"`
}

// EventType returns the event type name
func (e *LoanDefaultedEvent) EventType() string {
	return "LoanDefaulted"
}

// NewLoanDefaultedEvent creates a new LoanDefaultedEvent
func NewLoanDefaultedEvent(l *Loan) *LoanDefaultedEvent {
	return &LoanDefaultedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("LoanDefaulted", "Loan", l.ID, l.TenantID),
		LoanID:          l.ID,
		LoanNumber:      l.LoanNumber,
		AmountPaid:      l.AmountPaid,
		Remaining:       l.RemainingAmount(),
		Reason:          l.DefaultReason,
	}
}

// ProviderCreatedEvent is raised when a BNPL service provider is registered
type ProviderCreatedEvent struct {
	shared.BaseDomainEvent
	ProviderID uuid.UUID `json:"provider_id"`
	Name       string    `json:"name"`
}

// EventType returns the event type name
func (e *ProviderCreatedEvent) EventType() string {
	return "ProviderCreated"
}

// NewProviderCreatedEvent creates a new ProviderCreatedEvent
func NewProviderCreatedEvent(p *Provider) *ProviderCreatedEvent {
	return &ProviderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ProviderCreated", "Provider", p.ID, p.TenantID),
		ProviderID:      p.ID,
		Name:            p.Name,
	}
}
