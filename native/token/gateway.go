// Package token defines the fungible-balance gateway the ledger engines spend
// through, together with an in-process implementation backed by the state
// manager. The engines only ever see the Gateway interface; a deployment may
// point it at an external token service instead.
package token

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	ErrInvalidAddress        = errors.New("token: invalid address")
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
)

// Gateway is the external fungible-balance contract surface. A non-nil error
// from any mutating call aborts the caller's whole operation.
type Gateway interface {
	Transfer(from, to [20]byte, amount *uint256.Int) error
	TransferFrom(spender, from, to [20]byte, amount *uint256.Int) error
	Allowance(owner, spender [20]byte) (*uint256.Int, error)
	BalanceOf(owner [20]byte) (*uint256.Int, error)
	Decimals() uint8
}
