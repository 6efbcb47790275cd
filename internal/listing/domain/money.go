package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a currency-tagged non-negative amount. Amounts use decimal
// arithmetic, never float64. The core defines no cross-currency comparison
// or arithmetic; callers must not mix currencies.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// NewMoney validates and constructs a Money value. The amount must be
// non-negative and the currency non-blank. The currency format is not
// otherwise validated here.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: money amount must not be negative, got %s", ErrInvalidArgument, amount)
	}
	if strings.TrimSpace(currency) == "" {
		return Money{}, fmt.Errorf("%w: money currency must not be blank", ErrInvalidArgument)
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// NewMoneyFromFloat is a convenience constructor for callers holding float
// input (request DTOs, tests). The float is converted to decimal before
// validation.
func NewMoneyFromFloat(amount float64, currency string) (Money, error) {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

// ZeroMoney returns the zero amount in USD.
func ZeroMoney() Money {
	return Money{Amount: decimal.Zero, Currency: "USD"}
}

// Equals reports structural equality: both amount and currency must match.
// decimal.Decimal values must be compared with Equal, not ==.
func (m Money) Equals(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// LessThan compares amounts of two same-currency values.
func (m Money) LessThan(other Money) bool {
	return m.Amount.LessThan(other.Amount)
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.String(), m.Currency)
}
