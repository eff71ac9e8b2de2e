// Package safemath provides overflow-checked integer arithmetic for every
// counter and balance mutation in the ledger. Two widths are offered: native
// machine counters (uint32/uint64) and the wide 256-bit amounts used for
// token values.
package safemath

import (
	"errors"
	"math"

	"github.com/holiman/uint256"
)

var (
	ErrOverflow     = errors.New("safemath: arithmetic overflow")
	ErrUnderflow    = errors.New("safemath: arithmetic underflow")
	ErrDivideByZero = errors.New("safemath: divide by zero")
)

// AddU64 returns a+b or ErrOverflow when the true sum exceeds 64 bits.
func AddU64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// SubU64 returns a-b or ErrUnderflow when b > a.
func SubU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

// MulU64 returns a*b or ErrOverflow. Multiplication by zero short-circuits.
func MulU64(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	product := a * b
	if product/a != b {
		return 0, ErrOverflow
	}
	return product, nil
}

// DivU64 performs truncating division and fails when the divisor is zero.
func DivU64(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

// AddU32 returns a+b over 32-bit counters or ErrOverflow.
func AddU32(a, b uint32) (uint32, error) {
	if a > math.MaxUint32-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// SubU32 returns a-b over 32-bit counters or ErrUnderflow when b > a.
func SubU32(a, b uint32) (uint32, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

// Add returns a+b over 256-bit amounts or ErrOverflow.
func Add(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b over 256-bit amounts or ErrUnderflow when b > a.
func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	diff, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, ErrUnderflow
	}
	return diff, nil
}

// Mul returns a*b over 256-bit amounts or ErrOverflow. Multiplication by zero
// short-circuits to zero.
func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	if a.IsZero() || b.IsZero() {
		return uint256.NewInt(0), nil
	}
	product, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return product, nil
}

// Div performs truncating division over 256-bit amounts and fails when the
// divisor is zero.
func Div(a, b *uint256.Int) (*uint256.Int, error) {
	if b.IsZero() {
		return nil, ErrDivideByZero
	}
	return new(uint256.Int).Div(a, b), nil
}
