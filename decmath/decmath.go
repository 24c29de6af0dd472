// Package decmath provides the fixed-point decimal and checked 128-bit
// integer arithmetic used by the pricing engine. Decimals carry 18
// fractional digits and every division rounds toward zero, so pool math
// never credits more than an exact rational result.
package decmath

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var ErrArithmetic = errors.New("arithmetic error")

// fractional is the decimal scale: one unit == 1e-18.
var fractional = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Decimal is an unsigned fixed-point number, value = num / 1e18.
type Decimal struct {
	num *big.Int
}

func Zero() Decimal {
	return Decimal{num: new(big.Int)}
}

func One() Decimal {
	return Decimal{num: new(big.Int).Set(fractional)}
}

// FromRatio builds nom/denom, truncated to 18 fractional digits.
func FromRatio(nom, denom *big.Int) (Decimal, error) {
	if denom.Sign() == 0 {
		return Decimal{}, fmt.Errorf("%w: division by zero in ratio", ErrArithmetic)
	}
	n := new(big.Int).Mul(nom, fractional)
	n.Quo(n, denom)
	return Decimal{num: n}, nil
}

// FromString parses a non-negative decimal string such as "0.003".
func FromString(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("%w: %v", ErrArithmetic, err)
	}
	if d.IsNegative() {
		return Decimal{}, fmt.Errorf("%w: negative decimal %s", ErrArithmetic, s)
	}
	return Decimal{num: d.Shift(18).Truncate(0).BigInt()}, nil
}

func (d Decimal) IsZero() bool {
	return d.num == nil || d.num.Sign() == 0
}

func (d Decimal) GT(o Decimal) bool {
	return d.value().Cmp(o.value()) > 0
}

// Add returns d + o.
func (d Decimal) Add(o Decimal) Decimal {
	return Decimal{num: new(big.Int).Add(d.value(), o.value())}
}

// Sub returns d - o, failing on underflow.
func (d Decimal) Sub(o Decimal) (Decimal, error) {
	n := new(big.Int).Sub(d.value(), o.value())
	if n.Sign() < 0 {
		return Decimal{}, fmt.Errorf("%w: decimal subtraction underflow", ErrArithmetic)
	}
	return Decimal{num: n}, nil
}

// Mul returns d * o, truncated.
func (d Decimal) Mul(o Decimal) Decimal {
	n := new(big.Int).Mul(d.value(), o.value())
	n.Quo(n, fractional)
	return Decimal{num: n}
}

// Reverse returns 1/d, truncated.
func (d Decimal) Reverse() (Decimal, error) {
	if d.IsZero() {
		return Decimal{}, fmt.Errorf("%w: reverse of zero decimal", ErrArithmetic)
	}
	n := new(big.Int).Mul(fractional, fractional)
	n.Quo(n, d.value())
	return Decimal{num: n}, nil
}

// MulInt returns floor(a * d).
func (d Decimal) MulInt(a *big.Int) *big.Int {
	n := new(big.Int).Mul(a, d.value())
	return n.Quo(n, fractional)
}

func (d Decimal) String() string {
	return decimal.NewFromBigInt(d.value(), -18).String()
}

func (d Decimal) value() *big.Int {
	if d.num == nil {
		return new(big.Int)
	}
	return d.num
}

// CheckedAdd returns a+b, failing when the sum leaves the 128-bit range.
func CheckedAdd(a, b *big.Int) (*big.Int, error) {
	s := new(big.Int).Add(a, b)
	if s.Cmp(maxUint128) > 0 {
		return nil, fmt.Errorf("%w: addition overflow", ErrArithmetic)
	}
	return s, nil
}

// CheckedSub returns a-b, failing on underflow.
func CheckedSub(a, b *big.Int) (*big.Int, error) {
	if a.Cmp(b) < 0 {
		return nil, fmt.Errorf("%w: subtraction underflow", ErrArithmetic)
	}
	return new(big.Int).Sub(a, b), nil
}

// MulRatio returns floor(a * nom / denom).
func MulRatio(a, nom, denom *big.Int) (*big.Int, error) {
	if denom.Sign() == 0 {
		return nil, fmt.Errorf("%w: division by zero in ratio", ErrArithmetic)
	}
	n := new(big.Int).Mul(a, nom)
	return n.Quo(n, denom), nil
}

// Sqrt returns the integer square root of a.
func Sqrt(a *big.Int) *big.Int {
	return new(big.Int).Sqrt(a)
}

// FitsUint128 reports whether a is inside the unsigned 128-bit range.
func FitsUint128(a *big.Int) bool {
	return a.Sign() >= 0 && a.Cmp(maxUint128) <= 0
}
