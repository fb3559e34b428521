package decimal

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

// Amounts outside these bounds are rejected as not numeric. Arithmetic
// rescales operands to a common exponent, so an unbounded exponent in a
// short string ("1e2000000000") would allocate without limit.
const (
	MaxExponent = 30
	MaxDigits   = 40
)

var (
	// ErrEmpty is returned for nil, blank or missing values
	ErrEmpty = errors.New("empty value")

	// ErrNotNumeric is returned when a value cannot be read as a number
	ErrNotNumeric = errors.New("not a numeric value")

	// ErrOutOfRange is returned for numbers beyond MaxExponent or
	// MaxDigits. It wraps ErrNotNumeric.
	ErrOutOfRange = fmt.Errorf("%w: out of range", ErrNotNumeric)
)

// Amount is the outcome of normalizing a loosely typed value.
// Exactly one of Value or Err is meaningful.
type Amount struct {
	Value decimal.Decimal
	Err   error
}

// Ok reports whether the value parsed
func (a Amount) Ok() bool {
	return a.Err == nil
}

func ok(d decimal.Decimal) Amount {
	if !InRange(d) {
		return fail(ErrOutOfRange)
	}
	return Amount{Value: d}
}

// InRange reports whether d is within MaxExponent and MaxDigits
func InRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp > MaxExponent || exp < -MaxExponent {
		return false
	}
	return d.NumDigits() <= MaxDigits
}

func fail(err error) Amount {
	return Amount{Value: Zero, Err: err}
}

// Parse normalizes strings, integers, floats, json.Number and decimals
// into an exact decimal. Strings may carry a leading "$" and thousands
// separators ("$1,234.50"). Floats go through their shortest decimal
// representation so 0.1 stays 0.1.
func Parse(v any) Amount {
	switch n := v.(type) {
	case nil:
		return fail(ErrEmpty)
	case decimal.Decimal:
		return ok(n)
	case *decimal.Decimal:
		if n == nil {
			return fail(ErrEmpty)
		}
		return ok(*n)
	case string:
		return parseString(n)
	case json.Number:
		return parseString(n.String())
	case int:
		return ok(decimal.NewFromInt(int64(n)))
	case int8:
		return ok(decimal.NewFromInt(int64(n)))
	case int16:
		return ok(decimal.NewFromInt(int64(n)))
	case int32:
		return ok(decimal.NewFromInt(int64(n)))
	case int64:
		return ok(decimal.NewFromInt(n))
	case uint:
		return ok(fromUint64(uint64(n)))
	case uint8:
		return ok(fromUint64(uint64(n)))
	case uint16:
		return ok(fromUint64(uint64(n)))
	case uint32:
		return ok(fromUint64(uint64(n)))
	case uint64:
		return ok(fromUint64(n))
	case float32:
		return parseFloat(float64(n), 32)
	case float64:
		return parseFloat(n, 64)
	default:
		return fail(fmt.Errorf("%w: unsupported type %T", ErrNotNumeric, v))
	}
}

func fromUint64(n uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)
}

func parseFloat(f float64, bits int) Amount {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fail(fmt.Errorf("%w: %v", ErrNotNumeric, f))
	}
	if bits == 32 {
		return ok(decimal.NewFromFloat32(float32(f)))
	}
	return ok(decimal.NewFromFloat(f))
}

func parseString(s string) Amount {
	cleaned := CleanAmount(s)
	if cleaned == "" {
		return fail(ErrEmpty)
	}
	// sign, point, exponent marker and a short exponent on top of the digits
	if len(cleaned) > MaxDigits+8 {
		return fail(fmt.Errorf("%w: %d characters", ErrOutOfRange, len(cleaned)))
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return fail(fmt.Errorf("%w: %q", ErrNotNumeric, s))
	}
	return ok(d)
}

// CleanAmount trims whitespace, drops a leading "$" and removes
// thousands separators
func CleanAmount(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

// FromCents converts whole cents into a currency amount (1 -> 0.01)
func FromCents(cents int) decimal.Decimal {
	return decimal.New(int64(cents), -2)
}

// AbsDiff returns |a - b|
func AbsDiff(a, b decimal.Decimal) decimal.Decimal {
	return a.Sub(b).Abs()
}

// WithinTolerance reports whether |a - b| <= tolerance
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return AbsDiff(a, b).LessThanOrEqual(tolerance)
}

// Sum sums a slice of decimals
func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// IsPositive returns true if decimal is greater than zero
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(Zero)
}

// IsNonNegative returns true if decimal is >= zero
func IsNonNegative(d decimal.Decimal) bool {
	return d.GreaterThanOrEqual(Zero)
}
