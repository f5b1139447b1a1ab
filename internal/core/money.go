// Package core provides money parsing and handling utilities.
//
// Amounts are stored and summed as integer cents. Decimal strings coming
// from clients are parsed with shopspring/decimal and rounded half away
// from zero to the nearest cent.
package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var maxCents = decimal.New(math.MaxInt64/100, 0)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, signed values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.344") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	d, ok := parsePlainDecimal(s)
	if !ok {
		return 0, ErrInvalidAmount
	}
	cents := MoneyFromDecimal(d).Cents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// parsePlainDecimal accepts unsigned digits with at most one separator.
func parsePlainDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if strings.Contains(fracPart, ".") {
		return decimal.Zero, false
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return decimal.Zero, false
	}
	if intPart == "" {
		intPart = "0"
	}
	if hasDot && fracPart != "" {
		intPart += "." + fracPart
	}
	d, err := decimal.NewFromString(intPart)
	if err != nil {
		return decimal.Zero, false
	}
	if d.GreaterThan(maxCents) {
		return decimal.Zero, false
	}
	return d, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MoneyFromDecimal rounds d to cents. Negative values are folded to their
// magnitude since the sign of a transaction comes from its type.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Abs().Round(2).Shift(2).IntPart()}
}

func signedFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Round(2).Shift(2).IntPart()}
}

// Abs returns the magnitude of m.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Decimal returns the amount as a decimal with two fractional digits.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount as a float64 for display purposes only.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

// String formats the amount as "1234.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON accepts a number or a numeric string, keeping its sign.
// Missing, null or unparseable amounts decode to zero instead of failing
// the whole record.
func (m *Money) UnmarshalJSON(b []byte) error {
	*m = Money{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		neg := strings.HasPrefix(s, "-")
		s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
		if d, ok := parsePlainDecimal(s); ok {
			if neg {
				d = d.Neg()
			}
			*m = signedFromDecimal(d)
		}
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return nil
	}
	if d.Abs().GreaterThan(maxCents) {
		return nil
	}
	*m = signedFromDecimal(d)
	return nil
}
