package lending

import (
	"fmt"

	"github.com/bnpl/backend/internal/domain/shared"
)

// Error codes surfaced by the installment ledger. All carry enough detail
// for the caller to show a corrective message; none are retried
// automatically except CONCURRENCY_CONFLICT.
const (
	ErrCodeInvalidSchedule       = "INVALID_SCHEDULE"
	ErrCodeOverpayment           = "OVERPAYMENT"
	ErrCodeLoanClosed            = "LOAN_CLOSED"
	ErrCodeInsufficientUnpaid    = "INSUFFICIENT_UNPAID_INSTALLMENTS"
	ErrCodeAmountMismatch        = "AMOUNT_MISMATCH"
	ErrCodeDuplicateReceipt      = "DUPLICATE_RECEIPT"
	ErrCodeInstallmentNotFound   = "INSTALLMENT_NOT_FOUND"
	ErrCodeConcurrencyConflict   = "CONCURRENCY_CONFLICT"
	ErrCodeInvalidPaymentRequest = "INVALID_PAYMENT_REQUEST"
	ErrCodeCurrencyMismatch      = "CURRENCY_MISMATCH"
)

// NewInvalidScheduleError reports unbuildable schedule parameters
func NewInvalidScheduleError(message string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeInvalidSchedule, message)
}

// NewOverpaymentError reports a payment exceeding an installment's remaining balance
func NewOverpaymentError(sequence int, remaining, attempted int64) *shared.DomainError {
	return shared.NewDomainError(ErrCodeOverpayment,
		fmt.Sprintf("Payment of %d exceeds remaining balance %d of installment %d", attempted, remaining, sequence))
}

// NewLoanClosedError reports a payment against a loan in a terminal status
func NewLoanClosedError(status LoanStatus) *shared.DomainError {
	return shared.NewDomainError(ErrCodeLoanClosed,
		fmt.Sprintf("Cannot apply payment to loan in %s status", status))
}

// NewInsufficientUnpaidInstallmentsError reports a bulk count exceeding the unpaid population
func NewInsufficientUnpaidInstallmentsError(requested, unpaid int) *shared.DomainError {
	return shared.NewDomainError(ErrCodeInsufficientUnpaid,
		fmt.Sprintf("Requested %d installments but only %d remain unpaid", requested, unpaid))
}

// NewAmountMismatchError reports a bulk amount differing from the server-derived expectation
func NewAmountMismatchError(expected, supplied int64) *shared.DomainError {
	return shared.NewDomainError(ErrCodeAmountMismatch,
		fmt.Sprintf("Bulk payment amount %d does not match expected amount %d", supplied, expected))
}

// NewDuplicateReceiptError reports a receipt number already recorded for the loan
func NewDuplicateReceiptError(receiptNumber string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeDuplicateReceipt,
		fmt.Sprintf("Receipt number %s has already been recorded for this loan", receiptNumber))
}

// NewCurrencyMismatchError reports a payment denominated in a currency other than the loan's
func NewCurrencyMismatchError(loanCurrency, paymentCurrency string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeCurrencyMismatch,
		fmt.Sprintf("Payment currency %s does not match loan currency %s", paymentCurrency, loanCurrency))
}

// NewInstallmentNotFoundError reports a target installment not belonging to the loan
func NewInstallmentNotFoundError(id string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeInstallmentNotFound,
		fmt.Sprintf("Installment %s does not belong to this loan", id))
}
