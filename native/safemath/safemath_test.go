package safemath

import (
	"errors"
	"math"
	"testing"

	"github.com/holiman/uint256"
)

func TestAddU64Overflow(t *testing.T) {
	if got, err := AddU64(1, 2); err != nil || got != 3 {
		t.Fatalf("add failed: got %d err %v", got, err)
	}
	if _, err := AddU64(math.MaxUint64, 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if got, err := AddU64(math.MaxUint64, 0); err != nil || got != math.MaxUint64 {
		t.Fatalf("max+0 failed: got %d err %v", got, err)
	}
}

func TestSubU64Underflow(t *testing.T) {
	if got, err := SubU64(5, 3); err != nil || got != 2 {
		t.Fatalf("sub failed: got %d err %v", got, err)
	}
	if _, err := SubU64(3, 5); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
	if got, err := SubU64(3, 3); err != nil || got != 0 {
		t.Fatalf("sub to zero failed: got %d err %v", got, err)
	}
}

func TestMulU64(t *testing.T) {
	if got, err := MulU64(0, math.MaxUint64); err != nil || got != 0 {
		t.Fatalf("mul by zero failed: got %d err %v", got, err)
	}
	if got, err := MulU64(7, 6); err != nil || got != 42 {
		t.Fatalf("mul failed: got %d err %v", got, err)
	}
	if _, err := MulU64(math.MaxUint64, 2); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestDivU64(t *testing.T) {
	if got, err := DivU64(7, 2); err != nil || got != 3 {
		t.Fatalf("div failed: got %d err %v", got, err)
	}
	if _, err := DivU64(7, 0); !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected divide-by-zero, got %v", err)
	}
}

func TestAddU32(t *testing.T) {
	if _, err := AddU32(math.MaxUint32, 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if got, err := AddU32(1, 1); err != nil || got != 2 {
		t.Fatalf("add failed: got %d err %v", got, err)
	}
}

func TestWideOps(t *testing.T) {
	max := new(uint256.Int).SetAllOne()
	if _, err := Add(max, uint256.NewInt(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected wide overflow, got %v", err)
	}
	sum, err := Add(uint256.NewInt(40), uint256.NewInt(2))
	if err != nil || sum.Uint64() != 42 {
		t.Fatalf("wide add failed: got %s err %v", sum, err)
	}
	if _, err := Sub(uint256.NewInt(1), uint256.NewInt(2)); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expected wide underflow, got %v", err)
	}
	product, err := Mul(max, uint256.NewInt(0))
	if err != nil || !product.IsZero() {
		t.Fatalf("wide mul by zero failed: got %s err %v", product, err)
	}
	if _, err := Mul(max, uint256.NewInt(2)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected wide mul overflow, got %v", err)
	}
	if _, err := Div(uint256.NewInt(1), uint256.NewInt(0)); !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected wide divide-by-zero, got %v", err)
	}
	quot, err := Div(uint256.NewInt(7), uint256.NewInt(2))
	if err != nil || quot.Uint64() != 3 {
		t.Fatalf("wide div failed: got %s err %v", quot, err)
	}
}
