package money

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point amount with two decimal places. Every arithmetic
// result is rounded half-to-even so repeated operations do not accumulate a
// directional error.
type Money struct {
	amount decimal.Decimal
}

const scale = 2

func Zero() Money {
	return Money{amount: decimal.Zero}
}

func New(amount decimal.Decimal) Money {
	return Money{amount: amount.RoundBank(scale)}
}

func NewFromString(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, fmt.Errorf("money: invalid amount %q: %w", value, err)
	}
	return New(d), nil
}

// MustFromString is for constants and tests where the literal is known valid.
func MustFromString(value string) Money {
	m, err := NewFromString(value)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount).RoundBank(scale)}
}

func (m Money) Subtract(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount).RoundBank(scale)}
}

func (m Money) Multiply(multiplier int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(multiplier))).RoundBank(scale)}
}

func (m Money) IsGreaterThanZero() bool {
	return m.amount.IsPositive()
}

func (m Money) IsGreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

func (m Money) String() string {
	return m.amount.StringFixed(scale)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("money: %w", err)
	}
	m.amount = d.RoundBank(scale)
	return nil
}

// Scan implements sql.Scanner so repositories can read numeric columns
// directly into Money.
func (m *Money) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("money: %w", err)
	}
	m.amount = d.RoundBank(scale)
	return nil
}

// Value implements driver.Valuer.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}
