package dto

import "net/http"

// Error codes returned by the API. Codes are stable identifiers that
// clients can switch on; messages are human-readable and may change.
const (
	// ===== General =====
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	// ===== Request validation =====
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"

	// ===== Authentication =====
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"

	// ===== Resources =====
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	// ===== Ledger rules =====
	ErrCodeOverpayment        = "ERR_OVERPAYMENT"
	ErrCodeLoanClosed         = "ERR_LOAN_CLOSED"
	ErrCodeInsufficientUnpaid = "ERR_INSUFFICIENT_UNPAID_INSTALLMENTS"
	ErrCodeAmountMismatch     = "ERR_AMOUNT_MISMATCH"
	ErrCodeDuplicateReceipt   = "ERR_DUPLICATE_RECEIPT"
	ErrCodeCurrencyMismatch   = "ERR_CURRENCY_MISMATCH"
	ErrCodeInvalidState       = "ERR_INVALID_STATE"

	// ===== Payload limits =====
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps API error codes to HTTP status codes.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateReceipt:    http.StatusConflict,

	ErrCodeOverpayment:        http.StatusUnprocessableEntity,
	ErrCodeLoanClosed:         http.StatusUnprocessableEntity,
	ErrCodeInsufficientUnpaid: http.StatusUnprocessableEntity,
	ErrCodeAmountMismatch:     http.StatusUnprocessableEntity,
	ErrCodeCurrencyMismatch:   http.StatusUnprocessableEntity,
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,

	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting to
// 500 for unrecognized codes.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping translates domain layer error codes into the
// client-facing ERR_ taxonomy.
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,

	"INVALID_SCHEDULE":                 ErrCodeValidation,
	"INVALID_AMOUNT":                   ErrCodeValidation,
	"INVALID_LOAN_NUMBER":              ErrCodeValidation,
	"INVALID_PAYMENT_REQUEST":          ErrCodeInvalidInput,
	"INVALID_PROVIDER_NAME":            ErrCodeValidation,
	"INVALID_PROVIDER_TERMS":           ErrCodeValidation,
	"OVERPAYMENT":                      ErrCodeOverpayment,
	"LOAN_CLOSED":                      ErrCodeLoanClosed,
	"INSUFFICIENT_UNPAID_INSTALLMENTS": ErrCodeInsufficientUnpaid,
	"AMOUNT_MISMATCH":                  ErrCodeAmountMismatch,
	"CURRENCY_MISMATCH":                ErrCodeCurrencyMismatch,
	"DUPLICATE_RECEIPT":                ErrCodeDuplicateReceipt,
	"INSTALLMENT_NOT_FOUND":            ErrCodeNotFound,
	"PROVIDER_NOT_FOUND":               ErrCodeNotFound,
	"LOAN_NOT_FOUND":                   ErrCodeNotFound,
}

// NormalizeErrorCode converts a legacy domain code to its ERR_ equivalent.
// Codes already in the ERR_ taxonomy pass through unchanged; unknown codes
// map to ErrCodeUnknown.
func NormalizeErrorCode(code string) string {
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	if mapped, ok := LegacyErrorCodeMapping[code]; ok {
		return mapped
	}
	return ErrCodeUnknown
}
