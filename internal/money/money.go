// Package money represents ledger amounts as int64 minor units (two decimal
// places) and converts them to and from their decimal text forms.
package money

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when text cannot be read as a finite decimal
// amount that fits in the ledger's range.
var ErrInvalidAmount = errors.New("invalid money amount")

// Scale is the number of decimal places every stored amount carries.
const Scale = 2

// maxMajor bounds amounts so that minor units never overflow int64.
var maxMajor = decimal.New(9, 16)

// Amount is a monetary value in minor units (cents). The zero value is 0.00.
type Amount int64

// New returns the amount for a whole number of major units.
func New(major int64) Amount {
	return Amount(major * 100)
}

// FromDecimal rounds d half away from zero to two decimal places.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if d.Abs().GreaterThan(maxMajor) {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, d.String())
	}
	return Amount(d.Round(Scale).Shift(Scale).IntPart()), nil
}

// Parse reads a decimal amount such as "1500", "1500.5" or "1,500.50".
// Grouping commas and surrounding spaces are ignored.
func Parse(s string) (Amount, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants and tests; it panics on bad input.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the amount as a decimal in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// String renders the amount with exactly two decimals, a "." separator and
// no grouping, e.g. "400000.00".
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// Currency renders the amount for people, e.g. "UGX 12,345.00".
func (a Amount) Currency(code string) string {
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	out := fmt.Sprintf("%s%s.%02d", sign, humanize.Comma(v/100), v%100)
	if code == "" {
		return out
	}
	return code + " " + out
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a > 0
}

// MarshalJSON encodes the amount as its two-decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. null leaves the
// amount unchanged.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	text := string(bytes.Trim(data, `"`))
	parsed, err := Parse(text)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// UnmarshalParam lets gin bind form and query values into an Amount.
func (a *Amount) UnmarshalParam(param string) error {
	parsed, err := Parse(param)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
