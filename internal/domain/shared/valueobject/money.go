package valueobject

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency code is given
const DefaultCurrency = "USD"

// Money errors
var (
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrInvalidAmount    = errors.New("invalid monetary amount")
)

// Money is an immutable monetary amount held as an integer count of minor
// units (cents). All ledger arithmetic stays in integers; decimal strings
// appear only at the API boundary.
type Money struct {
	amount   int64
	currency string
}

// NewMoney creates a Money from an amount in minor units
func NewMoney(minorUnits int64, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{amount: minorUnits, currency: currency}
}

// Zero returns a zero amount in the given currency
func Zero(currency string) Money {
	return NewMoney(0, currency)
}

// NewMoneyFromString parses a decimal string ("123.45") into minor units.
// More than two fraction digits is rejected rather than rounded.
func NewMoneyFromString(value, currency string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return Money{}, fmt.Errorf("%w: %q has sub-cent precision", ErrInvalidAmount, value)
	}
	return NewMoney(shifted.IntPart(), currency), nil
}

// Amount returns the amount in minor units
func (m Money) Amount() int64 {
	return m.amount
}

// Currency returns the ISO currency code
func (m Money) Currency() string {
	return m.currency
}

// IsZero reports whether the amount is zero
func (m Money) IsZero() bool {
	return m.amount == 0
}

// IsPositive reports whether the amount is greater than zero
func (m Money) IsPositive() bool {
	return m.amount > 0
}

// IsNegative reports whether the amount is less than zero
func (m Money) IsNegative() bool {
	return m.amount < 0
}

// Add returns m + other
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// Subtract returns m - other
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount - other.amount, currency: m.currency}, nil
}

// MultiplyInt returns m * n
func (m Money) MultiplyInt(n int64) Money {
	return Money{amount: m.amount * n, currency: m.currency}
}

// Compare returns -1, 0 or 1 comparing m against other
func (m Money) Compare(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, ErrCurrencyMismatch
	}
	switch {
	case m.amount < other.amount:
		return -1, nil
	case m.amount > other.amount:
		return 1, nil
	default:
		return 0, nil
	}
}

// Equals reports whether two amounts are the same value and currency
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount == other.amount
}

// GreaterThan reports m > other, false on currency mismatch
func (m Money) GreaterThan(other Money) bool {
	c, err := m.Compare(other)
	return err == nil && c > 0
}

// LessThan reports m < other, false on currency mismatch
func (m Money) LessThan(other Money) bool {
	c, err := m.Compare(other)
	return err == nil && c < 0
}

// Decimal returns the amount as a decimal in major units
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.amount, -2)
}

// String formats the amount as a fixed two-decimal string
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
