package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("holds minor units", func(t *testing.T) {
		m := NewMoney(12345, "USD")
		assert.Equal(t, int64(12345), m.Amount())
		assert.Equal(t, "USD", m.Currency())
	})

	t.Run("defaults currency when empty", func(t *testing.T) {
		m := NewMoney(100, "")
		assert.Equal(t, DefaultCurrency, m.Currency())
	})
}

func TestNewMoneyFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "two decimals", input: "123.45", want: 12345},
		{name: "one decimal", input: "10.5", want: 1050},
		{name: "no decimals", input: "1000", want: 100000},
		{name: "zero", input: "0", want: 0},
		{name: "sub-cent precision rejected", input: "1.005", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoneyFromString(tt.input, "USD")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Amount())
		})
	}
}

func TestMoney_Arithmetic(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		sum, err := NewMoney(333, "USD").Add(NewMoney(334, "USD"))
		require.NoError(t, err)
		assert.Equal(t, int64(667), sum.Amount())
	})

	t.Run("subtract", func(t *testing.T) {
		diff, err := NewMoney(1000, "USD").Subtract(NewMoney(333, "USD"))
		require.NoError(t, err)
		assert.Equal(t, int64(667), diff.Amount())
	})

	t.Run("multiply", func(t *testing.T) {
		assert.Equal(t, int64(999), NewMoney(333, "USD").MultiplyInt(3).Amount())
	})

	t.Run("currency mismatch", func(t *testing.T) {
		_, err := NewMoney(1, "USD").Add(NewMoney(1, "EUR"))
		assert.ErrorIs(t, err, ErrCurrencyMismatch)

		_, err = NewMoney(1, "USD").Subtract(NewMoney(1, "EUR"))
		assert.ErrorIs(t, err, ErrCurrencyMismatch)
	})
}

func TestMoney_Comparisons(t *testing.T) {
	a := NewMoney(100, "USD")
	b := NewMoney(200, "USD")

	assert.True(t, a.LessThan(b))
	assert.True(t, b.GreaterThan(a))
	assert.True(t, a.Equals(NewMoney(100, "USD")))
	assert.False(t, a.Equals(NewMoney(100, "EUR")))
	assert.True(t, Zero("USD").IsZero())
	assert.True(t, a.IsPositive())
	assert.True(t, NewMoney(-1, "USD").IsNegative())
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "123.45", NewMoney(12345, "USD").String())
	assert.Equal(t, "0.05", NewMoney(5, "USD").String())
	assert.Equal(t, "10.00", NewMoney(1000, "USD").String())
}
