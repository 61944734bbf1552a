// Package decimal wraps shopspring/decimal with the money helpers the budget
// and projection maths share.
package decimal

import (
	"github.com/shopspring/decimal"
)

var (
	half   = decimal.NewFromFloat(0.5)
	months = decimal.NewFromInt(12)
)

// Money is a monetary amount. It carries full precision; rounding happens
// only where a figure is reported.
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal wraps d.
func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d}
}

// RoundWhole rounds to whole units, halves toward positive infinity
// (2.5 -> 3, -2.5 -> -2).
func (m Money) RoundWhole() Money {
	return Money{RoundHalfUp(m.Decimal)}
}

// Monthly converts an annual amount to monthly.
func (m Money) Monthly() Money {
	return Money{m.Decimal.Div(months)}
}

func (m Money) Add(other Money) Money {
	return Money{m.Decimal.Add(other.Decimal)}
}

func (m Money) Sub(other Money) Money {
	return Money{m.Decimal.Sub(other.Decimal)}
}

// Mul multiplies by a rate or factor.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{m.Decimal.Mul(factor)}
}

// Sum adds up a set of amounts; no values sum to zero.
func Sum(values ...decimal.Decimal) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return Money{total}
}

func Zero() Money {
	return Money{decimal.Zero}
}

// RoundHalfUp rounds d to an integer, halves toward positive infinity.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}

// String renders cents.
func (m Money) String() string {
	return m.Decimal.StringFixed(2)
}
