package num

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Uint is a wrapper for a big unsigned int, used for all amounts of
// collateral, reserve balances and scaled prices.
type Uint struct {
	u uint256.Int
}

// NewUint creates a new Uint with the value of the uint64 passed as a
// parameter.
func NewUint(val uint64) *Uint {
	return &Uint{*uint256.NewInt(val)}
}

// UintZero returns a new Uint set to zero.
func UintZero() *Uint {
	return NewUint(0)
}

// Min returns the smallest of the 2 numbers.
func Min(a, b *Uint) *Uint {
	if a.LT(b) {
		return a
	}
	return b
}

// Max returns the largest of the 2 numbers.
func Max(a, b *Uint) *Uint {
	if a.GT(b) {
		return a
	}
	return b
}

// UintFromBig constructs a new Uint from a big.Int, returns true if the
// value is negative or an overflow happened.
func UintFromBig(b *big.Int) (*Uint, bool) {
	if b.Sign() < 0 {
		return NewUint(0), true
	}
	u, overflow := uint256.FromBig(b)
	if overflow {
		return NewUint(0), true
	}
	return &Uint{*u}, false
}

// UintFromDecimal returns a new Uint from a Decimal, dropping any decimal
// places, returns true if the value is negative or an overflow happened.
func UintFromDecimal(d Decimal) (*Uint, bool) {
	return UintFromBig(d.BigInt())
}

// UintFromString creates a new Uint from a string interpreted using the
// given base. A big.Int is used to read the string, so all errors related
// to big.Int parsing apply here. Returns true if an error or overflow
// happened.
func UintFromString(str string, base int) (*Uint, bool) {
	b, ok := big.NewInt(0).SetString(str, base)
	if !ok {
		return NewUint(0), true
	}
	return UintFromBig(b)
}

// Sum returns the sum of all values passed, equivalent to
// x + y + z for Sum(x, y, z).
func Sum(vals ...*Uint) *Uint {
	return NewUint(0).AddSum(vals...)
}

// ToDecimal returns the value as a Decimal.
func (z *Uint) ToDecimal() Decimal {
	return DecimalFromUint(z)
}

// Set sets z to the value of oth, equivalent to `z = oth`.
func (z *Uint) Set(oth *Uint) *Uint {
	z.u.Set(&oth.u)
	return z
}

// SetUint64 sets z to the given uint64 value.
func (z *Uint) SetUint64(val uint64) *Uint {
	z.u.SetUint64(val)
	return z
}

// Uint64 returns the value as a uint64, truncating if it does not fit.
func (z Uint) Uint64() uint64 {
	return z.u.Uint64()
}

// BigInt returns the value as a big.Int.
func (z Uint) BigInt() *big.Int {
	return z.u.ToBig()
}

// Add will add x and y then store the result into z,
// equivalent to `z = x + y`. z is returned for convenience,
// no new variable is created.
func (z *Uint) Add(x, y *Uint) *Uint {
	z.u.Add(&x.u, &y.u)
	return z
}

// AddSum adds multiple values at the same time to a given uint,
// so x.AddSum(y, z) is equivalent to x + y + z.
func (z *Uint) AddSum(vals ...*Uint) *Uint {
	for _, x := range vals {
		z.u.Add(&z.u, &x.u)
	}
	return z
}

// Sub will subtract y from x then store the result into z,
// equivalent to `z = x - y`. z is returned for convenience.
func (z *Uint) Sub(x, y *Uint) *Uint {
	z.u.Sub(&x.u, &y.u)
	return z
}

// SubOverflow will subtract y from x then store the result into z.
// True is returned if an underflow occurred.
func (z *Uint) SubOverflow(x, y *Uint) (*Uint, bool) {
	_, ok := z.u.SubOverflow(&x.u, &y.u)
	return z, ok
}

// Delta will subtract y from x and store the result, unless x-y underflowed,
// in which case the second return value is true and the result of y - x is
// stored instead.
func (z *Uint) Delta(x, y *Uint) (*Uint, bool) {
	if y.GT(x) {
		_ = z.Sub(y, x)
		return z, true
	}
	_ = z.Sub(x, y)
	return z, false
}

// Mul will multiply x and y then store the result into z,
// equivalent to `z = x * y`. z is returned for convenience.
func (z *Uint) Mul(x, y *Uint) *Uint {
	z.u.Mul(&x.u, &y.u)
	return z
}

// Div will divide x by y then store the result into z,
// equivalent to `z = x / y`. z is returned for convenience.
func (z *Uint) Div(x, y *Uint) *Uint {
	z.u.Div(&x.u, &y.u)
	return z
}

// LT checks if the value stored in z is lesser than oth,
// equivalent to `z < oth`.
func (z Uint) LT(oth *Uint) bool {
	return z.u.Lt(&oth.u)
}

// LTE checks if the value stored in z is lesser than or equal to oth,
// equivalent to `z <= oth`.
func (z Uint) LTE(oth *Uint) bool {
	return z.u.Lt(&oth.u) || z.u.Eq(&oth.u)
}

// EQ checks if the value stored in z is equal to oth,
// equivalent to `z == oth`.
func (z Uint) EQ(oth *Uint) bool {
	return z.u.Eq(&oth.u)
}

// EQUint64 checks if the value stored in z is equal to oth,
// equivalent to `z == oth`.
func (z Uint) EQUint64(oth uint64) bool {
	return z.u.Eq(uint256.NewInt(oth))
}

// NEQ checks if the value stored in z is different from oth,
// equivalent to `z != oth`.
func (z Uint) NEQ(oth *Uint) bool {
	return !z.u.Eq(&oth.u)
}

// GT checks if the value stored in z is greater than oth,
// equivalent to `z > oth`.
func (z Uint) GT(oth *Uint) bool {
	return z.u.Gt(&oth.u)
}

// GTUint64 checks if the value stored in z is greater than oth,
// equivalent to `z > oth`.
func (z Uint) GTUint64(oth uint64) bool {
	return z.u.GtUint64(oth)
}

// GTE checks if the value stored in z is greater than or equal to oth,
// equivalent to `z >= oth`.
func (z Uint) GTE(oth *Uint) bool {
	return z.u.Gt(&oth.u) || z.u.Eq(&oth.u)
}

// IsZero returns whether z == 0 or not.
func (z Uint) IsZero() bool {
	return z.u.IsZero()
}

// Copy sets z to the value of x, equivalent to `z = x`.
func (z *Uint) Copy(x *Uint) *Uint {
	z.u = x.u
	return z
}

// Clone creates a copy of this value, equivalent to `x := z`.
func (z Uint) Clone() *Uint {
	return &Uint{z.u}
}

// String returns the stored value as a string,
// internally using big.Int.String().
func (z Uint) String() string {
	return z.u.ToBig().String()
}

// Format implements fmt.Formatter.
func (z Uint) Format(s fmt.State, ch rune) {
	z.u.Format(s, ch)
}
