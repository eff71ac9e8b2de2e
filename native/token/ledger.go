package token

import (
	"fmt"

	"github.com/holiman/uint256"

	"grumblechain/core/events"
	"grumblechain/core/types"
	"grumblechain/native/safemath"
)

const (
	// EventTypeTransfer is emitted on every balance movement.
	EventTypeTransfer = "token.transferred"
	// EventTypeApproval is emitted when an allowance is set.
	EventTypeApproval = "token.approved"
)

var (
	balancePrefix   = "token/balance/"
	allowancePrefix = "token/allowance/"
)

// storage abstracts the subset of state manager functionality required by the
// token ledger.
type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

func balanceKey(addr [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", balancePrefix, addr))
}

func allowanceKey(owner, spender [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x/%x", allowancePrefix, owner, spender))
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

// Ledger is a Gateway implementation persisted through the state manager.
// Allowance decrement and transfer happen within the same staged write set,
// so a surrounding snapshot keeps the pair atomic.
type Ledger struct {
	store    storage
	emitter  events.Emitter
	decimals uint8
}

// NewLedger constructs a token ledger bound to the provided storage backend.
func NewLedger(store storage, decimals uint8) *Ledger {
	return &Ledger{
		store:    store,
		emitter:  events.NoopEmitter{},
		decimals: decimals,
	}
}

// SetEmitter configures the event emitter used by the ledger.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

func (l *Ledger) emit(evt *types.Event) {
	if l == nil || evt == nil || l.emitter == nil {
		return
	}
	l.emitter.Emit(eventEnvelope{evt: evt})
}

func (l *Ledger) balance(addr [20]byte) (*uint256.Int, error) {
	amount := new(uint256.Int)
	ok, err := l.store.KVGet(balanceKey(addr), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return uint256.NewInt(0), nil
	}
	return amount, nil
}

// Decimals reports the scaling applied to all amounts.
func (l *Ledger) Decimals() uint8 { return l.decimals }

// BalanceOf returns the balance of the address. Never-seen addresses hold zero.
func (l *Ledger) BalanceOf(owner [20]byte) (*uint256.Int, error) {
	return l.balance(owner)
}

// Allowance returns the remaining amount spender may pull from owner.
func (l *Ledger) Allowance(owner, spender [20]byte) (*uint256.Int, error) {
	amount := new(uint256.Int)
	ok, err := l.store.KVGet(allowanceKey(owner, spender), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return uint256.NewInt(0), nil
	}
	return amount, nil
}

// Approve sets the allowance from owner to spender, replacing any previous
// value.
func (l *Ledger) Approve(owner, spender [20]byte, amount *uint256.Int) error {
	if isZeroAddress(spender) {
		return ErrInvalidAddress
	}
	if err := l.store.KVPut(allowanceKey(owner, spender), amount); err != nil {
		return err
	}
	l.emit(&types.Event{Type: EventTypeApproval, Attributes: map[string]string{
		"owner":   fmt.Sprintf("%x", owner),
		"spender": fmt.Sprintf("%x", spender),
		"amount":  amount.Dec(),
	}})
	return nil
}

// Mint credits freshly issued balance to the address. Reserved for genesis
// seeding and administrative funding.
func (l *Ledger) Mint(to [20]byte, amount *uint256.Int) error {
	if isZeroAddress(to) {
		return ErrInvalidAddress
	}
	current, err := l.balance(to)
	if err != nil {
		return err
	}
	next, err := safemath.Add(current, amount)
	if err != nil {
		return err
	}
	return l.store.KVPut(balanceKey(to), next)
}

func (l *Ledger) move(from, to [20]byte, amount *uint256.Int) error {
	if isZeroAddress(to) {
		return ErrInvalidAddress
	}
	fromBalance, err := l.balance(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	newFrom, err := safemath.Sub(fromBalance, amount)
	if err != nil {
		return err
	}
	toBalance, err := l.balance(to)
	if err != nil {
		return err
	}
	newTo, err := safemath.Add(toBalance, amount)
	if err != nil {
		return err
	}
	if err := l.store.KVPut(balanceKey(from), newFrom); err != nil {
		return err
	}
	if err := l.store.KVPut(balanceKey(to), newTo); err != nil {
		return err
	}
	l.emit(&types.Event{Type: EventTypeTransfer, Attributes: map[string]string{
		"from":   fmt.Sprintf("%x", from),
		"to":     fmt.Sprintf("%x", to),
		"amount": amount.Dec(),
	}})
	return nil
}

// Transfer moves amount from one balance to another.
func (l *Ledger) Transfer(from, to [20]byte, amount *uint256.Int) error {
	return l.move(from, to, amount)
}

// TransferFrom pulls amount from the owner on behalf of spender, decrementing
// the allowance in the same write set as the transfer.
func (l *Ledger) TransferFrom(spender, from, to [20]byte, amount *uint256.Int) error {
	allowed, err := l.Allowance(from, spender)
	if err != nil {
		return err
	}
	if allowed.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	remaining, err := safemath.Sub(allowed, amount)
	if err != nil {
		return err
	}
	if err := l.store.KVPut(allowanceKey(from, spender), remaining); err != nil {
		return err
	}
	return l.move(from, to, amount)
}
