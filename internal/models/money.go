package models

import "github.com/shopspring/decimal"

var serviceFeeRate = decimal.NewFromFloat(0.10)

// ServiceFee is the flat 10% checkout surcharge, rounded to cents.
func ServiceFee(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(serviceFeeRate).Round(2)
}

// ToCents converts a currency amount to its smallest unit.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
