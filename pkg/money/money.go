// Package money provides the exact-decimal monetary amount used across the
// system: at most 12 total digits with 2 fractional digits, never a float.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrTooPrecise    = errors.New("amount has more than 2 decimal places")
	ErrTooLarge      = errors.New("amount exceeds 12 digits")
)

// maxAbs is 10^10; with 2 fractional digits that caps amounts at 12 total digits.
var maxAbs = decimal.New(1, 10)

// Amount is a monetary value with exactly two fractional digits.
type Amount struct {
	d decimal.Decimal
}

// Zero is the exact zero amount.
var Zero = Amount{}

// New wraps a decimal, enforcing the 12,2 precision invariant.
func New(d decimal.Decimal) (Amount, error) {
	if d.Exponent() < -2 {
		d2 := d.Truncate(2)
		if !d2.Equal(d) {
			return Amount{}, ErrTooPrecise
		}
		d = d2
	}
	if d.Abs().GreaterThanOrEqual(maxAbs) {
		return Amount{}, ErrTooLarge
	}
	return Amount{d: d}, nil
}

// Parse reads a decimal string such as "1000.00" or "-300.5".
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	return New(d)
}

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }
func (a Amount) Neg() Amount         { return Amount{d: a.d.Neg()} }

func (a Amount) IsZero() bool        { return a.d.IsZero() }
func (a Amount) IsNegative() bool    { return a.d.IsNegative() }
func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }
func (a Amount) LessThanOrEqual(b Amount) bool {
	return a.d.LessThanOrEqual(b.d)
}

// Decimal exposes the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// String renders the amount with exactly two fractional digits.
func (a Amount) String() string { return a.d.StringFixed(2) }

// MarshalJSON serializes the amount as a decimal string, mirroring the wire
// contract: "700.00", never a binary float.
func (a Amount) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, a.String()), nil
}

// UnmarshalJSON accepts a quoted decimal string or a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	parsed, err := Parse(s)
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	*a = parsed
	return nil
}

// Scan reads a database NUMERIC value without passing through a float. The
// 12-digit cap is an input constraint on individual records; stored columns
// already satisfy it and SUM aggregates may legitimately exceed it, so Scan
// does not re-apply the cap.
func (a *Amount) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*a = Amount{d: d}
	return nil
}

// Value writes the amount as its decimal string form.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}
