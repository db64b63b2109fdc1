package handler

import (
	"time"

	applending "github.com/bnpl/backend/internal/application/lending"
	"github.com/bnpl/backend/internal/domain/lending"
	"github.com/bnpl/backend/internal/domain/shared/valueobject"
	"github.com/bnpl/backend/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePurchaseRequest represents a request to convert a purchase into
// an installment loan. Monetary amounts are decimal strings ("1000.00").
type CreatePurchaseRequest struct {
	ProviderID           *string `json:"provider_id" binding:"omitempty,uuid"`
	TotalAmount          string  `json:"total_amount" binding:"required,decimal"`
	DownPayment          string  `json:"down_payment" binding:"omitempty,decimal"`
	Currency             string  `json:"currency" binding:"omitempty,len=3"`
	NumberOfInstallments int     `json:"number_of_installments" binding:"required,min=1"`
	PaymentIntervalDays  int     `json:"payment_interval_days" binding:"omitempty,min=1"`
	PurchaseDate         string  `json:"purchase_date"`
}

// ToCommand converts the request into an application command, parsing the
// decimal strings into money values.
func (r *CreatePurchaseRequest) ToCommand() (applending.CreatePurchaseCommand, error) {
	var cmd applending.CreatePurchaseCommand

	totalAmount, err := valueobject.NewMoneyFromString(r.TotalAmount, r.Currency)
	if err != nil {
		return cmd, err
	}

	downPayment := valueobject.Zero(totalAmount.Currency())
	if r.DownPayment != "" {
		downPayment, err = valueobject.NewMoneyFromString(r.DownPayment, totalAmount.Currency())
		if err != nil {
			return cmd, err
		}
	}

	var purchaseDate time.Time
	if r.PurchaseDate != "" {
		purchaseDate, err = parseDate(r.PurchaseDate)
		if err != nil {
			return cmd, err
		}
	}

	intervalDays := r.PaymentIntervalDays
	if intervalDays == 0 {
		intervalDays = 30
	}

	if r.ProviderID != nil {
		providerID, err := uuid.Parse(*r.ProviderID)
		if err != nil {
			return cmd, err
		}
		cmd.ProviderID = &providerID
	}

	cmd.TotalAmount = totalAmount
	cmd.DownPayment = downPayment
	cmd.NumberOfInstallments = r.NumberOfInstallments
	cmd.PaymentIntervalDays = intervalDays
	cmd.PurchaseDate = purchaseDate
	return cmd, nil
}

// MakePaymentRequest represents one payment against a loan. Exactly one
// of installment_id (single mode) or installments_count (bulk mode) must
// be provided.
type MakePaymentRequest struct {
	InstallmentID     *string `json:"installment_id" binding:"omitempty,uuid"`
	InstallmentsCount int     `json:"installments_count" binding:"omitempty,min=1"`
	Amount            string  `json:"amount" binding:"required,decimal"`
	Currency          string  `json:"currency" binding:"omitempty,len=3"`
	Method            string  `json:"method" binding:"omitempty,max=50"`
	ReceiptNumber     string  `json:"receipt_number" binding:"omitempty,max=100"`
}

// ToCommand converts the request into an application command
func (r *MakePaymentRequest) ToCommand() (applending.MakePaymentCommand, error) {
	var cmd applending.MakePaymentCommand

	amount, err := valueobject.NewMoneyFromString(r.Amount, r.Currency)
	if err != nil {
		return cmd, err
	}

	if r.InstallmentID != nil {
		installmentID, err := uuid.Parse(*r.InstallmentID)
		if err != nil {
			return cmd, err
		}
		cmd.InstallmentID = &installmentID
	}

	cmd.InstallmentsCount = r.InstallmentsCount
	cmd.Amount = amount
	cmd.Method = r.Method
	cmd.ReceiptNumber = r.ReceiptNumber
	return cmd, nil
}

// CloseLoanRequest carries the reason for a cancel or default action
type CloseLoanRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// ListPurchasesRequest represents query parameters for listing loans
type ListPurchasesRequest struct {
	dto.ListRequest
	Status     string `form:"status" binding:"omitempty,oneof=ACTIVE COMPLETED CANCELLED DEFAULTED"`
	ProviderID string `form:"provider_id" binding:"omitempty,uuid"`
}

// ToFilter converts the request into a domain loan filter
func (r *ListPurchasesRequest) ToFilter() lending.LoanFilter {
	filter := lending.LoanFilter{}
	filter.Page = r.Page
	filter.PageSize = r.PageSize
	filter.OrderBy = r.OrderBy
	filter.OrderDir = r.OrderDir
	filter.Search = r.Search
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	if r.Status != "" {
		status := lending.LoanStatus(r.Status)
		filter.Status = &status
	}
	if r.ProviderID != "" {
		if providerID, err := uuid.Parse(r.ProviderID); err == nil {
			filter.ProviderID = &providerID
		}
	}
	return filter
}

// InstallmentResponse represents one scheduled installment
type InstallmentResponse struct {
	ID             string     `json:"id"`
	Sequence       int        `json:"sequence"`
	DueDate        string     `json:"due_date"`
	AmountExpected string     `json:"amount_expected"`
	AmountPaid     string     `json:"amount_paid"`
	Remaining      string     `json:"remaining"`
	Currency       string     `json:"currency"`
	Status         string     `json:"status"`
	PaidDate       *time.Time `json:"paid_date,omitempty"`
}

// PaymentResponse represents one recorded payment
type PaymentResponse struct {
	ID            string    `json:"id"`
	ReceiptNumber string    `json:"receipt_number"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Method        string    `json:"method,omitempty"`
	TargetType    string    `json:"target_type"`
	Sequences     []int     `json:"sequences"`
	AppliedAt     time.Time `json:"applied_at"`
}

// LoanResponse represents a loan with its installment schedule
type LoanResponse struct {
	ID                     string                `json:"id"`
	LoanNumber             string                `json:"loan_number"`
	ProviderID             *string               `json:"provider_id,omitempty"`
	ProviderName           string                `json:"provider_name,omitempty"`
	DownPaymentPercentage  decimal.Decimal       `json:"down_payment_percentage"`
	InterestRatePercentage decimal.Decimal       `json:"interest_rate_percentage"`
	Currency               string                `json:"currency"`
	TotalAmount            string                `json:"total_amount"`
	DownPayment            string                `json:"down_payment"`
	BNPLAmount             string                `json:"bnpl_amount"`
	NumberOfInstallments   int                   `json:"number_of_installments"`
	PaymentIntervalDays    int                   `json:"payment_interval_days"`
	InstallmentAmount      string                `json:"installment_amount"`
	AmountPaid             string                `json:"amount_paid"`
	RemainingAmount        string                `json:"remaining_amount"`
	Status                 string                `json:"status"`
	PurchaseDate           time.Time             `json:"purchase_date"`
	Installments           []InstallmentResponse `json:"installments,omitempty"`
	Payments               []PaymentResponse     `json:"payments,omitempty"`
	CompletedAt            *time.Time            `json:"completed_at,omitempty"`
	CancelledAt            *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason           string                `json:"cancel_reason,omitempty"`
	DefaultedAt            *time.Time            `json:"defaulted_at,omitempty"`
	DefaultReason          string                `json:"default_reason,omitempty"`
	Version                int                   `json:"version"`
	dto.TimestampResponse
}

// PaymentResultResponse represents the outcome of an accepted payment
type PaymentResultResponse struct {
	ReceiptNumber string                `json:"receipt_number"`
	Installments  []InstallmentResponse `json:"installments"`
	Loan          *LoanResponse         `json:"loan"`
}

// minorUnitsToString formats a minor-unit amount as a two-decimal string
func minorUnitsToString(minorUnits int64) string {
	return decimal.New(minorUnits, -2).StringFixed(2)
}

// ToInstallmentResponse converts a domain installment to its response DTO
func ToInstallmentResponse(inst *lending.Installment) InstallmentResponse {
	return InstallmentResponse{
		ID:             inst.ID.String(),
		Sequence:       inst.Sequence,
		DueDate:        inst.DueDate.Format("2006-01-02"),
		AmountExpected: minorUnitsToString(inst.AmountExpected),
		AmountPaid:     minorUnitsToString(inst.AmountPaid),
		Remaining:      minorUnitsToString(inst.Remaining()),
		Currency:       inst.Currency,
		Status:         inst.Status.String(),
		PaidDate:       inst.PaidDate,
	}
}

// ToLoanResponse converts a domain loan to its response DTO
func ToLoanResponse(loan *lending.Loan) *LoanResponse {
	resp := &LoanResponse{
		ID:                     loan.ID.String(),
		LoanNumber:             loan.LoanNumber,
		ProviderName:           loan.ProviderName,
		DownPaymentPercentage:  loan.DownPaymentPercentage,
		InterestRatePercentage: loan.InterestRatePercentage,
		Currency:               loan.Currency,
		TotalAmount:            minorUnitsToString(loan.TotalAmount),
		DownPayment:            minorUnitsToString(loan.DownPayment),
		BNPLAmount:             minorUnitsToString(loan.BNPLAmount),
		NumberOfInstallments:   loan.NumberOfInstallments,
		PaymentIntervalDays:    loan.PaymentIntervalDays,
		InstallmentAmount:      minorUnitsToString(loan.InstallmentAmount),
		AmountPaid:             minorUnitsToString(loan.AmountPaid),
		RemainingAmount:        minorUnitsToString(loan.RemainingAmount()),
		Status:                 loan.Status.String(),
		PurchaseDate:           loan.PurchaseDate,
		CompletedAt:            loan.CompletedAt,
		CancelledAt:            loan.CancelledAt,
		CancelReason:           loan.CancelReason,
		DefaultedAt:            loan.DefaultedAt,
		DefaultReason:          loan.DefaultReason,
		Version:                loan.Version,
		TimestampResponse: dto.TimestampResponse{
			CreatedAt: loan.CreatedAt,
			UpdatedAt: loan.UpdatedAt,
		},
	}

	if loan.ProviderID != nil {
		providerID := loan.ProviderID.String()
		resp.ProviderID = &providerID
	}

	resp.Installments = make([]InstallmentResponse, 0, len(loan.Installments))
	for i := range loan.Installments {
		resp.Installments = append(resp.Installments, ToInstallmentResponse(&loan.Installments[i]))
	}

	resp.Payments = make([]PaymentResponse, 0, len(loan.Payments))
	for _, p := range loan.Payments {
		resp.Payments = append(resp.Payments, PaymentResponse{
			ID:            p.ID.String(),
			ReceiptNumber: p.ReceiptNumber,
			Amount:        minorUnitsToString(p.Amount),
			Currency:      p.Currency,
			Method:        p.Method,
			TargetType:    string(p.TargetType),
			Sequences:     p.Sequences,
			AppliedAt:     p.AppliedAt,
		})
	}

	return resp
}

// ToLoanListResponse converts loans for list endpoints, omitting the
// per-loan schedules to keep list payloads small
func ToLoanListResponse(loans []lending.Loan) []*LoanResponse {
	responses := make([]*LoanResponse, 0, len(loans))
	for i := range loans {
		resp := ToLoanResponse(&loans[i])
		resp.Installments = nil
		resp.Payments = nil
		responses = append(responses, resp)
	}
	return responses
}

// ToPaymentResultResponse converts a payment result to its response DTO
func ToPaymentResultResponse(result *applending.MakePaymentResult) *PaymentResultResponse {
	installments := make([]InstallmentResponse, 0, len(result.Installments))
	for _, inst := range result.Installments {
		installments = append(installments, ToInstallmentResponse(inst))
	}
	return &PaymentResultResponse{
		ReceiptNumber: result.ReceiptNumber,
		Installments:  installments,
		Loan:          ToLoanResponse(result.Loan),
	}
}

// parseDate accepts RFC3339 timestamps and plain dates
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
