package num

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Decimal is an arbitrary precision signed decimal, used for funding rates,
// cumulative funding indices and signed P&L amounts.
type Decimal = decimal.Decimal

var (
	dzero = decimal.Zero
	d1    = decimal.NewFromInt(1)
)

// MustDecimalFromString returns a Decimal from the given string,
// panicking on a malformed input. For package-level constants only.
func MustDecimalFromString(f string) Decimal {
	d, err := DecimalFromString(f)
	if err != nil {
		panic(err)
	}
	return d
}

// DecimalZero returns the zero decimal.
func DecimalZero() Decimal {
	return dzero
}

// DecimalOne returns a decimal representing 1.
func DecimalOne() Decimal {
	return d1
}

// DecimalFromUint returns a decimal with the value of the given Uint.
func DecimalFromUint(u *Uint) Decimal {
	return decimal.NewFromBigInt(u.BigInt(), 0)
}

// DecimalFromInt64 returns a decimal with the value of the given int64.
func DecimalFromInt64(i int64) Decimal {
	return decimal.NewFromInt(i)
}

// DecimalFromFloat returns a decimal with the value of the given float64.
func DecimalFromFloat(v float64) Decimal {
	return decimal.NewFromFloat(v)
}

// DecimalFromString parses a decimal from its string representation.
func DecimalFromString(s string) (Decimal, error) {
	return decimal.NewFromString(s)
}

// NewDecimalFromBigInt returns a decimal from a big.Int mantissa and an
// exponent, value*10^exp.
func NewDecimalFromBigInt(value *big.Int, exp int32) Decimal {
	return decimal.NewFromBigInt(value, exp)
}

// MaxD returns the largest of the 2 decimals.
func MaxD(a, b Decimal) Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// MinD returns the smallest of the 2 decimals.
func MinD(a, b Decimal) Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
