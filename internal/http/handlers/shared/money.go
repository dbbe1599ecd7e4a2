package shared

import (
	"github.com/shopspring/decimal"
)

// MinorFromPounds converts a pounds amount from the wire into pence.
// Decimal arithmetic avoids float drift on values like 19.99.
func MinorFromPounds(pounds float64) int64 {
	return decimal.NewFromFloat(pounds).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// PoundsFromMinor converts pence into the pounds figure sent on the
// wire.
func PoundsFromMinor(minor int64) float64 {
	value, _ := decimal.NewFromInt(minor).Div(decimal.NewFromInt(100)).Float64()
	return value
}
