package lending

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/bnpl/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus represents the repayment status of a BNPL loan
type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "ACTIVE"    // Open, accepting payments
	LoanStatusCompleted LoanStatus = "COMPLETED" // Financed balance fully repaid
	LoanStatusCancelled LoanStatus = "CANCELLED" // Closed by an external cancellation
	LoanStatusDefaulted LoanStatus = "DEFAULTED" // Closed by an external default action
)

// IsValid checks if the status is a valid LoanStatus
func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanStatusActive, LoanStatusCompleted, LoanStatusCancelled, LoanStatusDefaulted:
		return true
	}
	return false
}

// String returns the string representation of LoanStatus
func (s LoanStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the loan is in a terminal state
func (s LoanStatus) IsTerminal() bool {
	return s == LoanStatusCompleted || s == LoanStatusCancelled || s == LoanStatusDefaulted
}

// CanApplyPayment returns true if payments can be applied in this status
func (s LoanStatus) CanApplyPayment() bool {
	return s == LoanStatusActive
}

// InstallmentStatus represents the status of a single installment
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "PENDING" // amount_paid < amount_expected
	InstallmentStatusPaid    InstallmentStatus = "PAID"    // amount_paid >= amount_expected
)

// IsValid checks if the status is a valid InstallmentStatus
func (s InstallmentStatus) IsValid() bool {
	return s == InstallmentStatusPending || s == InstallmentStatusPaid
}

// String returns the string representation of InstallmentStatus
func (s InstallmentStatus) String() string {
	return string(s)
}

// Installment is one scheduled obligation within a loan. Installments are
// created with the loan, never deleted, and mutated only through payment
// allocation on the owning aggregate.
type Installment struct {
	ID             uuid.UUID         `json:"id"`
	Sequence       int               `json:"sequence"` // 1..N, defines processing order
	DueDate        time.Time         `json:"due_date"`
	AmountExpected int64             `json:"amount_expected"` // Minor units
	AmountPaid     int64             `json:"amount_paid"`     // Minor units
	Currency       string            `json:"currency"`
	Status         InstallmentStatus `json:"status"`
	PaidDate       *time.Time        `json:"paid_date"` // Set once, on the first payment received
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Remaining returns the unpaid balance of the installment in minor units
func (i *Installment) Remaining() int64 {
	return i.AmountExpected - i.AmountPaid
}

// IsPaid returns true if the installment is fully settled
func (i *Installment) IsPaid() bool {
	return i.Status == InstallmentStatusPaid
}

// applyPayment transitions the installment for a payment of the given
// amount. The paid date marks the first payment received, whether or not
// it settles the installment.
func (i *Installment) applyPayment(amount int64, at time.Time) error {
	if amount <= 0 {
		return shared.NewDomainError(ErrCodeInvalidPaymentRequest, "Payment amount must be positive")
	}
	if amount > i.Remaining() {
		return NewOverpaymentError(i.Sequence, i.Remaining(), amount)
	}

	wasUnpaid := i.AmountPaid == 0
	i.AmountPaid += amount
	if wasUnpaid && i.AmountPaid > 0 && i.PaidDate == nil {
		paidAt := at
		i.PaidDate = &paidAt
	}
	if i.AmountPaid >= i.AmountExpected {
		i.Status = InstallmentStatusPaid
	}
	i.UpdatedAt = at

	return nil
}

// PaymentTargetType distinguishes the two allocation request shapes
type PaymentTargetType string

const (
	PaymentTargetSingle PaymentTargetType = "SINGLE" // One named installment
	PaymentTargetBulk   PaymentTargetType = "BULK"   // Earliest N unpaid installments
)

// PaymentRecord is an append-only record of a payment applied to the loan.
// It is a value object within the Loan aggregate, stored as JSONB.
type PaymentRecord struct {
	ID            uuid.UUID         `json:"id"`
	ReceiptNumber string            `json:"receipt_number"` // Unique within the loan
	Amount        int64             `json:"amount"`         // Minor units
	Currency      string            `json:"currency"`
	Method        string            `json:"method"`
	TargetType    PaymentTargetType `json:"target_type"`
	Sequences     []int             `json:"sequences"` // Installment sequences the payment settled against
	AppliedAt     time.Time         `json:"applied_at"`
}

// PaymentRecords is a slice of PaymentRecord that implements GORM Scanner/Valuer for JSONB storage
type PaymentRecords []PaymentRecord

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p PaymentRecords) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *PaymentRecords) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentRecords{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentRecords: unsupported type")
	}

	if len(bytes) == 0 {
		*p = PaymentRecords{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// PaymentRequest describes an incoming payment to allocate against a loan.
// Exactly one of InstallmentID (single) or InstallmentsCount (bulk) must
// be set. ReceiptNumber is optional; when empty the loan issues the next
// number in its own sequence.
type PaymentRequest struct {
	InstallmentID     *uuid.UUID
	InstallmentsCount int
	Amount            int64 // Minor units
	Method            string
	ReceiptNumber     string
}

// AllocationResult reports what a committed payment changed
type AllocationResult struct {
	ReceiptNumber string
	Record        PaymentRecord
	Installments  []*Installment // The installments the payment touched
}

// Loan is the aggregate root for a BNPL purchase: the financed balance,
// its installment schedule, and every payment recorded against it. All
// balance mutations go through AllocatePayment so the loan-level invariant
// amount_paid == sum(installment.amount_paid) holds after every commit.
type Loan struct {
	shared.TenantAggregateRoot
	LoanNumber             string          `json:"loan_number"`
	ProviderID             *uuid.UUID      `json:"provider_id"`
	ProviderName           string          `json:"provider_name"`
	DownPaymentPercentage  decimal.Decimal `json:"down_payment_percentage"`  // Provider terms snapshot
	InterestRatePercentage decimal.Decimal `json:"interest_rate_percentage"` // Snapshot; informational only
	Currency               string          `json:"currency"`
	TotalAmount            int64           `json:"total_amount"` // Sale price, minor units
	DownPayment            int64           `json:"down_payment"`
	BNPLAmount             int64           `json:"bnpl_amount"` // total_amount - down_payment
	NumberOfInstallments   int             `json:"number_of_installments"`
	PaymentIntervalDays    int             `json:"payment_interval_days"`
	InstallmentAmount      int64           `json:"installment_amount"` // Canonical base amount per installment
	AmountPaid             int64           `json:"amount_paid"`
	Status                 LoanStatus      `json:"status"`
	PurchaseDate           time.Time       `json:"purchase_date"`
	Installments           []Installment   `json:"installments"`
	Payments               PaymentRecords  `json:"payments"`
	ReceiptSeq             int64           `json:"receipt_seq"` // Monotonic per-loan receipt counter
	CompletedAt            *time.Time      `json:"completed_at"`
	CancelledAt            *time.Time      `json:"cancelled_at"`
	CancelReason           string          `json:"cancel_reason"`
	DefaultedAt            *time.Time      `json:"defaulted_at"`
	DefaultReason          string          `json:"default_reason"`
}

// NewLoan creates a loan from a purchase: validates the amounts, builds
// the installment schedule and opens the loan in ACTIVE status. provider
// may be nil; when given its terms are snapshotted onto the loan so later
// provider edits never rewrite existing loans.
func NewLoan(
	tenantID uuid.UUID,
	loanNumber string,
	totalAmount valueobject.Money,
	downPayment valueobject.Money,
	numberOfInstallments int,
	paymentIntervalDays int,
	purchaseDate time.Time,
	provider *Provider,
) (*Loan, error) {
	if loanNumber == "" {
		return nil, shared.NewDomainError("INVALID_LOAN_NUMBER", "Loan number cannot be empty")
	}
	if !totalAmount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount must be positive")
	}
	if downPayment.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Down payment cannot be negative")
	}
	bnplAmount, err := totalAmount.Subtract(downPayment)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount and down payment must use the same currency")
	}
	if bnplAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Down payment cannot exceed total amount")
	}

	installments, err := GenerateSchedule(bnplAmount.Amount(), numberOfInstallments, paymentIntervalDays, purchaseDate, totalAmount.Currency())
	if err != nil {
		return nil, err
	}

	loan := &Loan{
		TenantAggregateRoot:  shared.NewTenantAggregateRoot(tenantID),
		LoanNumber:           loanNumber,
		Currency:             totalAmount.Currency(),
		TotalAmount:          totalAmount.Amount(),
		DownPayment:          downPayment.Amount(),
		BNPLAmount:           bnplAmount.Amount(),
		NumberOfInstallments: numberOfInstallments,
		PaymentIntervalDays:  paymentIntervalDays,
		InstallmentAmount:    InstallmentBase(bnplAmount.Amount(), numberOfInstallments),
		AmountPaid:           0,
		Status:               LoanStatusActive,
		PurchaseDate:         purchaseDate,
		Installments:         installments,
		Payments:             PaymentRecords{},
	}

	if provider != nil {
		providerID := provider.ID
		loan.ProviderID = &providerID
		loan.ProviderName = provider.Name
		loan.DownPaymentPercentage = provider.DownPaymentPercentage
		loan.InterestRatePercentage = provider.InterestRatePercentage
	}

	loan.AddDomainEvent(NewLoanCreatedEvent(loan))

	return loan, nil
}

// AllocatePayment validates and applies one payment event against the
// loan. All checks run before any state changes, so a rejected payment
// leaves the aggregate untouched.
func (l *Loan) AllocatePayment(req PaymentRequest) (*AllocationResult, error) {
	if req.ReceiptNumber != "" && l.hasReceipt(req.ReceiptNumber) {
		return nil, NewDuplicateReceiptError(req.ReceiptNumber)
	}
	if !l.Status.CanApplyPayment() {
		return nil, NewLoanClosedError(l.Status)
	}
	if req.Amount <= 0 {
		return nil, shared.NewDomainError(ErrCodeInvalidPaymentRequest, "Payment amount must be positive")
	}
	if (req.InstallmentID == nil) == (req.InstallmentsCount == 0) {
		return nil, shared.NewDomainError(ErrCodeInvalidPaymentRequest, "Exactly one of installment_id or installments_count must be given")
	}

	var (
		targets    []*Installment
		targetType PaymentTargetType
		err        error
	)
	if req.InstallmentID != nil {
		targetType = PaymentTargetSingle
		targets, err = l.selectSingleTarget(*req.InstallmentID, req.Amount)
	} else {
		targetType = PaymentTargetBulk
		targets, err = l.selectBulkTargets(req.InstallmentsCount, req.Amount)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()

	// Validation passed; apply saturating each target in order.
	remaining := req.Amount
	for _, inst := range targets {
		portion := inst.Remaining()
		if portion > remaining {
			portion = remaining
		}
		if err := inst.applyPayment(portion, now); err != nil {
			return nil, err
		}
		remaining -= portion
	}

	receiptNumber := req.ReceiptNumber
	if receiptNumber == "" {
		l.ReceiptSeq++
		receiptNumber = fmt.Sprintf("%s/%d", l.ID, l.ReceiptSeq)
	}

	sequences := make([]int, len(targets))
	for i, inst := range targets {
		sequences[i] = inst.Sequence
	}

	record := PaymentRecord{
		ID:            uuid.New(),
		ReceiptNumber: receiptNumber,
		Amount:        req.Amount,
		Currency:      l.Currency,
		Method:        req.Method,
		TargetType:    targetType,
		Sequences:     sequences,
		AppliedAt:     now,
	}
	l.Payments = append(l.Payments, record)

	l.AmountPaid = l.sumInstallmentsPaid()
	l.recomputeStatus(now)
	l.UpdatedAt = now
	l.IncrementVersion()

	l.AddDomainEvent(NewPaymentRecordedEvent(l, &record))
	if l.Status == LoanStatusCompleted {
		l.AddDomainEvent(NewLoanCompletedEvent(l))
	}

	return &AllocationResult{
		ReceiptNumber: receiptNumber,
		Record:        record,
		Installments:  targets,
	}, nil
}

// selectSingleTarget resolves a single-installment payment. The amount
// may cover part or all of the named installment but never spills over.
func (l *Loan) selectSingleTarget(installmentID uuid.UUID, amount int64) ([]*Installment, error) {
	inst := l.FindInstallment(installmentID)
	if inst == nil {
		return nil, NewInstallmentNotFoundError(installmentID.String())
	}
	if inst.IsPaid() {
		return nil, shared.NewDomainError(ErrCodeInvalidPaymentRequest,
			fmt.Sprintf("Installment %d is already paid", inst.Sequence))
	}
	if amount > inst.Remaining() {
		return nil, NewOverpaymentError(inst.Sequence, inst.Remaining(), amount)
	}
	return []*Installment{inst}, nil
}

// selectBulkTargets resolves a bulk payment over the earliest count unpaid
// installments. The server derives the expected amount itself as the sum
// of the selected remaining balances; a differing client amount is
// rejected rather than reallocated.
func (l *Loan) selectBulkTargets(count int, amount int64) ([]*Installment, error) {
	if count < 1 {
		return nil, shared.NewDomainError(ErrCodeInvalidPaymentRequest, "Installment count must be at least 1")
	}

	unpaid := l.UnpaidInstallments()
	if count > len(unpaid) {
		return nil, NewInsufficientUnpaidInstallmentsError(count, len(unpaid))
	}

	targets := unpaid[:count]
	var expected int64
	for _, inst := range targets {
		expected += inst.Remaining()
	}
	if amount != expected {
		return nil, NewAmountMismatchError(expected, amount)
	}

	return targets, nil
}

// recomputeStatus derives the loan status from the repayment progress.
// Cancelled and Defaulted are sticky terminal states owned by external
// actions and are never overwritten here.
func (l *Loan) recomputeStatus(at time.Time) {
	if l.Status == LoanStatusCancelled || l.Status == LoanStatusDefaulted {
		return
	}
	if l.AmountPaid >= l.BNPLAmount {
		if l.Status != LoanStatusCompleted {
			l.Status = LoanStatusCompleted
			completedAt := at
			l.CompletedAt = &completedAt
		}
		return
	}
	l.Status = LoanStatusActive
}

// Cancel closes the loan through an external cancellation. Terminal
// states are sticky; a closed loan cannot be cancelled again.
func (l *Loan) Cancel(reason string) error {
	if l.Status.IsTerminal() {
		return NewLoanClosedError(l.Status)
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	l.Status = LoanStatusCancelled
	l.CancelledAt = &now
	l.CancelReason = reason
	l.UpdatedAt = now
	l.IncrementVersion()

	l.AddDomainEvent(NewLoanCancelledEvent(l))

	return nil
}

// MarkDefaulted closes the loan through an external default action
func (l *Loan) MarkDefaulted(reason string) error {
	if l.Status.IsTerminal() {
		return NewLoanClosedError(l.Status)
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Default reason is required")
	}

	now := time.Now()
	l.Status = LoanStatusDefaulted
	l.DefaultedAt = &now
	l.DefaultReason = reason
	l.UpdatedAt = now
	l.IncrementVersion()

	l.AddDomainEvent(NewLoanDefaultedEvent(l))

	return nil
}

// FindInstallment returns the installment with the given ID, or nil
func (l *Loan) FindInstallment(id uuid.UUID) *Installment {
	for i := range l.Installments {
		if l.Installments[i].ID == id {
			return &l.Installments[i]
		}
	}
	return nil
}

// UnpaidInstallments returns the installments with an outstanding balance
// in ascending sequence order (which is ascending due-date order)
func (l *Loan) UnpaidInstallments() []*Installment {
	unpaid := make([]*Installment, 0, len(l.Installments))
	for i := range l.Installments {
		if l.Installments[i].AmountPaid < l.Installments[i].AmountExpected {
			unpaid = append(unpaid, &l.Installments[i])
		}
	}
	return unpaid
}

// RemainingAmount returns the unpaid portion of the financed balance
func (l *Loan) RemainingAmount() int64 {
	return l.BNPLAmount - l.AmountPaid
}

// PaymentCount returns the number of payments recorded
func (l *Loan) PaymentCount() int {
	return len(l.Payments)
}

// IsActive returns true if the loan is open for payments
func (l *Loan) IsActive() bool {
	return l.Status == LoanStatusActive
}

// IsCompleted returns true if the financed balance is fully repaid
func (l *Loan) IsCompleted() bool {
	return l.Status == LoanStatusCompleted
}

// GetTotalAmountMoney returns the sale price as Money
func (l *Loan) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoney(l.TotalAmount, l.Currency)
}

// GetDownPaymentMoney returns the down payment as Money
func (l *Loan) GetDownPaymentMoney() valueobject.Money {
	return valueobject.NewMoney(l.DownPayment, l.Currency)
}

// GetBNPLAmountMoney returns the financed balance as Money
func (l *Loan) GetBNPLAmountMoney() valueobject.Money {
	return valueobject.NewMoney(l.BNPLAmount, l.Currency)
}

// GetAmountPaidMoney returns the repaid total as Money
func (l *Loan) GetAmountPaidMoney() valueobject.Money {
	return valueobject.NewMoney(l.AmountPaid, l.Currency)
}

func (l *Loan) hasReceipt(receiptNumber string) bool {
	for i := range l.Payments {
		if l.Payments[i].ReceiptNumber == receiptNumber {
			return true
		}
	}
	return false
}

func (l *Loan) sumInstallmentsPaid() int64 {
	var sum int64
	for i := range l.Installments {
		sum += l.Installments[i].AmountPaid
	}
	return sum
}
