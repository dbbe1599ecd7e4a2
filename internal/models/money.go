package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money is the persisted amount type (2 decimal places). Engine arithmetic
// never uses it directly: amounts are carried as int64 minor units and
// converted exactly once at this boundary.
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal creates an amount from a decimal.
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(2)}
}

// MoneyFromMinor creates an amount from integer minor units (pence).
func MoneyFromMinor(minor int64) Money {
	return Money{Decimal: decimal.New(minor, -2)}
}

// MinorUnits returns the amount as integer minor units.
func (m Money) MinorUnits() int64 {
	return m.Decimal.Round(2).Shift(2).IntPart()
}

// MarshalJSON renders a fixed 2-decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Decimal.Round(2).StringFixed(2))
}

// UnmarshalJSON accepts a string or a number.
func (m *Money) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		m.Decimal = d.Round(2)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	m.Decimal = decimal.NewFromFloat(f).Round(2)
	return nil
}

// Value implements driver.Valuer for database writes.
func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(2).Value()
}

// Scan implements sql.Scanner for database reads.
func (m *Money) Scan(value interface{}) error {
	if err := m.Decimal.Scan(value); err != nil {
		return err
	}
	m.Decimal = m.Decimal.Round(2)
	return nil
}

// String returns the fixed 2-decimal form.
func (m Money) String() string {
	return m.Decimal.Round(2).StringFixed(2)
}

// Minor-unit helpers. All engine totals flow through these so rounding
// happens in exactly one place.

// MulPctMinor computes round(amount * pct / 100) with half away from zero.
func MulPctMinor(amountMinor int64, pct int64) int64 {
	product := amountMinor * pct
	quotient := product / 100
	remainder := product % 100
	if remainder < 0 {
		remainder = -remainder
	}
	if remainder*2 >= 100 {
		if product < 0 {
			return quotient - 1
		}
		return quotient + 1
	}
	return quotient
}

// SubMinorFloor0 subtracts and saturates at zero for balance math.
func SubMinorFloor0(a, b int64) int64 {
	if b >= a {
		return 0
	}
	return a - b
}

// MinMinor returns the smaller of two minor-unit amounts.
func MinMinor(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// MaxMinor returns the larger of two minor-unit amounts.
func MaxMinor(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
