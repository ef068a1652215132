package types

import "github.com/inflaxprotocol/inflax/types/num"

// PrecisionScale is the fixed-point scale applied to prices, leverage and
// collateral amounts: a stored value of 1e18 represents 1.0.
const PrecisionScale uint64 = 1_000_000_000_000_000_000

// BasisPoints is the denominator for all rate parameters, 10000 bp = 100%.
const BasisPoints uint64 = 10_000

// Precision returns the fixed-point scale as a Uint.
func Precision() *num.Uint {
	return num.NewUint(PrecisionScale)
}

// PrecisionDec returns the fixed-point scale as a Decimal.
func PrecisionDec() num.Decimal {
	return num.DecimalFromUint(Precision())
}

// Scale returns v expressed in fixed-point representation, v * 1e18.
func Scale(v uint64) *num.Uint {
	return num.UintZero().Mul(num.NewUint(v), Precision())
}

// DecimalFromScaled converts a fixed-point value to its natural Decimal
// representation.
func DecimalFromScaled(u *num.Uint) num.Decimal {
	return num.DecimalFromUint(u).Div(PrecisionDec())
}

// ScaledFromDecimal converts a natural Decimal value into fixed-point
// representation, truncating below the scale.
func ScaledFromDecimal(d num.Decimal) *num.Uint {
	u, _ := num.UintFromDecimal(d.Mul(PrecisionDec()).Floor())
	return u
}
