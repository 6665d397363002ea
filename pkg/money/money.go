// Package money provides fixed-point monetary amounts stored as integer minor
// units (paise). Keeping arithmetic in int64 guarantees that the in-memory and
// relational KPI backends sum to identical values.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in minor currency units (1/100).
type Amount int64

var (
	// ErrInvalid is returned when a value cannot be parsed as a decimal amount.
	ErrInvalid = errors.New("invalid amount")
	// ErrNegative is returned for negative monetary inputs.
	ErrNegative = errors.New("negative amount")
	// ErrPrecision is returned when an input carries sub-minor-unit precision.
	ErrPrecision = errors.New("amount has more than two fractional digits")
)

// Parse converts a decimal string like "1234.50" into an Amount.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalid
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return FromDecimal(d)
}

// FromDecimal converts a decimal into an Amount, rejecting negatives and
// values finer than one minor unit.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %s", ErrNegative, d.String())
	}
	minor := d.Mul(decimal.New(100, 0))
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: %s", ErrPrecision, d.String())
	}
	return Amount(minor.IntPart()), nil
}

// FromMinor builds an Amount from a raw minor-unit count.
func FromMinor(v int64) Amount { return Amount(v) }

// Minor returns the raw minor-unit count.
func (a Amount) Minor() int64 { return int64(a) }

// Decimal returns the amount as a two-place decimal.
func (a Amount) Decimal() decimal.Decimal { return decimal.New(int64(a), -2) }

// MulQuantity returns the line total for a unit price and a quantity.
func (a Amount) MulQuantity(qty int) Amount { return Amount(int64(a) * int64(qty)) }

// Add returns a + b.
func (a Amount) Add(b Amount) Amount { return a + b }

// AbsDiff returns |a - b| in minor units.
func (a Amount) AbsDiff(b Amount) int64 {
	d := int64(a) - int64(b)
	if d < 0 {
		d = -d
	}
	return d
}

// String renders the amount with exactly two fractional digits.
func (a Amount) String() string { return a.Decimal().StringFixed(2) }

// MarshalJSON renders the amount as a plain JSON number with two places.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Value stores the amount as its minor-unit integer.
func (a Amount) Value() (driver.Value, error) { return int64(a), nil }

// Scan reads the amount back from a BIGINT column.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*a = Amount(v)
		return nil
	case nil:
		*a = 0
		return nil
	default:
		return fmt.Errorf("money.Amount: cannot scan %T", src)
	}
}
