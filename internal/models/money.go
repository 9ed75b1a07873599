package models

import (
	"github.com/shopspring/decimal"
)

// Cents is an amount in integer minor currency units.
type Cents int64

// CentsFromDecimal converts a display amount to minor units, rounding half away from zero.
func CentsFromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Shift(2).Round(0).IntPart())
}

// Decimal converts minor units to a display amount.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String renders the amount with two decimals.
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}
