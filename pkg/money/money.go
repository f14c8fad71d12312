// Package money implements fixed-point currency amounts stored as integer
// minor units (cents). Arithmetic on Money is exact; conversion from decimal
// input rounds half away from zero to two places.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by every amount.
const Scale = 2

// Money is an amount in minor units.
type Money int64

// Zero is the zero amount.
const Zero Money = 0

var (
	ErrTooPrecise = errors.New("money: more than two decimal places")
	ErrOutOfRange = errors.New("money: amount out of range")
)

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// FromCents builds an amount from minor units.
func FromCents(cents int64) Money {
	return Money(cents)
}

// FromDecimal rounds d to two places. It fails with ErrOutOfRange when the
// result does not fit in int64 cents.
func FromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Round(Scale).Shift(Scale)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, ErrOutOfRange
	}
	return Money(cents.IntPart()), nil
}

// FromDecimalExact converts d without rounding and fails when d has more
// than two significant fractional digits.
func FromDecimalExact(d decimal.Decimal) (Money, error) {
	if !d.Equal(d.Round(Scale)) {
		return 0, ErrTooPrecise
	}
	return FromDecimal(d)
}

// Parse reads a decimal string such as "14.35" and rounds it to two places.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("money: parse %q: %w", s, err)
	}
	m, err := FromDecimal(d)
	if err != nil {
		return 0, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return m, nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Cents() int64 { return int64(m) }

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -Scale)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(Scale)
}

func (m Money) Add(o Money) Money { return m + o }

func (m Money) Sub(o Money) Money { return m - o }

// Mul multiplies by an integer quantity. The result is exact and wraps on
// overflow; use CheckedMul for untrusted quantities.
func (m Money) Mul(qty int) Money { return m * Money(qty) }

// CheckedAdd is Add that fails with ErrOutOfRange instead of wrapping.
func (m Money) CheckedAdd(o Money) (Money, error) {
	if (o > 0 && m > math.MaxInt64-o) || (o < 0 && m < math.MinInt64-o) {
		return 0, ErrOutOfRange
	}
	return m + o, nil
}

// CheckedMul is Mul that fails with ErrOutOfRange instead of wrapping.
func (m Money) CheckedMul(qty int) (Money, error) {
	if m == 0 || qty == 0 {
		return 0, nil
	}
	q := int64(qty)
	if (m == -1 && q == math.MinInt64) || (q == -1 && m == math.MinInt64) {
		return 0, ErrOutOfRange
	}
	p := int64(m) * q
	if p/q != int64(m) {
		return 0, ErrOutOfRange
	}
	return Money(p), nil
}

func (m Money) IsZero() bool     { return m == 0 }
func (m Money) IsPositive() bool { return m > 0 }
func (m Money) IsNegative() bool { return m < 0 }

// Sum adds amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}

// Percent returns part/whole*100 rounded to two places, or zero when whole is zero.
func Percent(part, whole Money) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return part.Decimal().Div(whole.Decimal()).Mul(decimal.NewFromInt(100)).Round(Scale)
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("money: %w", err)
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// GormDataType stores amounts as bigint minor units.
func (Money) GormDataType() string {
	return "bigint"
}

func (m Money) Value() (driver.Value, error) {
	return int64(m), nil
}

func (m *Money) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = 0
	case int64:
		*m = Money(v)
	case float64:
		*m = Money(decimal.NewFromFloat(v).Round(0).IntPart())
	case []byte:
		return m.scanString(string(v))
	case string:
		return m.scanString(v)
	default:
		return fmt.Errorf("money: cannot scan %T", value)
	}
	return nil
}

// scanString handles drivers that return aggregates such as SUM as numeric text.
func (m *Money) scanString(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("money: scan %q: %w", s, err)
	}
	*m = Money(d.Round(0).IntPart())
	return nil
}
