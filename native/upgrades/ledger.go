// Package upgrades holds the per-badge mutable attributes (level, nickname,
// rename voucher) and the priced transitions that mutate them. Prices are
// pulled through the external balance gateway after an explicit allowance
// check; membership means holding at least one badge, and every transition
// operates on the caller's first-indexed badge.
package upgrades

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"grumblechain/core/events"
	"grumblechain/core/types"
	"grumblechain/native/common"
	"grumblechain/native/safemath"
	"grumblechain/native/token"
)

var (
	ErrNotMember             = errors.New("upgrades: caller holds no badge")
	ErrMaxLevelReached       = errors.New("upgrades: max level reached")
	ErrInsufficientAllowance = errors.New("upgrades: insufficient allowance")
	ErrVoucherAlreadyHeld    = errors.New("upgrades: rename voucher already held")
	ErrNoVoucher             = errors.New("upgrades: no rename voucher")
	ErrInvalidTier           = errors.New("upgrades: tier must extend the cost table by one")
	ErrUnknownTier           = errors.New("upgrades: unknown tier")
	ErrGatewayNotSet         = errors.New("upgrades: gateway not configured")
)

const (
	// EventTypeLeveledUp is emitted when a badge advances a level.
	EventTypeLeveledUp = "upgrade.leveled_up"
	// EventTypeVoucherPurchased is emitted when a rename voucher is bought.
	EventTypeVoucherPurchased = "upgrade.voucher_purchased"
	// EventTypeRenamed is emitted when a badge nickname changes.
	EventTypeRenamed = "upgrade.renamed"
)

var (
	profilePrefix = "upgrades/profile/"
	costsKey      = []byte("upgrades/levelcosts")
	renameCostKey = []byte("upgrades/renamecost")
)

// Profile carries the mutable satellite attributes of a badge.
type Profile struct {
	Level       uint64 `json:"level"`
	Nickname    string `json:"nickname"`
	VoucherHeld bool   `json:"voucherHeld"`
}

// storage abstracts the subset of state manager functionality required by the
// upgrade ledger.
type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// BadgeIndex is the slice of registry functionality the ledger needs to
// resolve the caller's badge.
type BadgeIndex interface {
	BalanceOf(owner [20]byte) (uint64, error)
	TokenOfOwnerByIndex(owner [20]byte, index uint64) (uint64, error)
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

func profileKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", profilePrefix, id))
}

// Ledger wires upgrade bookkeeping with persistence, gateway spending and
// event emission.
type Ledger struct {
	store    storage
	badges   BadgeIndex
	gateway  token.Gateway
	emitter  events.Emitter
	pause    common.PauseView
	operator [20]byte
	treasury [20]byte
}

// NewLedger constructs an upgrade ledger bound to the provided backends. The
// operator address is the spend authority user allowances must name; pulled
// funds land at the treasury.
func NewLedger(store storage, badges BadgeIndex, operator, treasury [20]byte) *Ledger {
	return &Ledger{
		store:    store,
		badges:   badges,
		emitter:  events.NoopEmitter{},
		operator: operator,
		treasury: treasury,
	}
}

// SetGateway points the ledger at the balance gateway used for spending.
func (l *Ledger) SetGateway(gateway token.Gateway) { l.gateway = gateway }

// SetEmitter configures the event emitter used by the ledger.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetPauseView wires the shared pause flag.
func (l *Ledger) SetPauseView(pause common.PauseView) { l.pause = pause }

func (l *Ledger) emit(evt *types.Event) {
	if l == nil || evt == nil || l.emitter == nil {
		return
	}
	l.emitter.Emit(eventEnvelope{evt: evt})
}

// Profile returns the upgrade attributes of the badge. Unseen badges report
// the zero profile.
func (l *Ledger) Profile(id uint64) (*Profile, error) {
	profile := &Profile{}
	if _, err := l.store.KVGet(profileKey(id), profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// LevelCosts returns the configured cost table, one entry per tier.
func (l *Ledger) LevelCosts() ([]*uint256.Int, error) {
	var costs []*uint256.Int
	if _, err := l.store.KVGet(costsKey, &costs); err != nil {
		return nil, err
	}
	return costs, nil
}

// RenameCost returns the price of a rename voucher.
func (l *Ledger) RenameCost() (*uint256.Int, error) {
	cost := new(uint256.Int)
	ok, err := l.store.KVGet(renameCostKey, cost)
	if err != nil {
		return nil, err
	}
	if !ok {
		return uint256.NewInt(0), nil
	}
	return cost, nil
}

// AppendLevelCost adds a new tier. The tier number must extend the table by
// exactly one, preventing gaps.
func (l *Ledger) AppendLevelCost(tier uint64, cost *uint256.Int) error {
	costs, err := l.LevelCosts()
	if err != nil {
		return err
	}
	if tier != uint64(len(costs))+1 {
		return ErrInvalidTier
	}
	costs = append(costs, cost)
	return l.store.KVPut(costsKey, costs)
}

// SetLevelCost overwrites an existing tier's cost. Tiers are 1-based.
func (l *Ledger) SetLevelCost(tier uint64, cost *uint256.Int) error {
	costs, err := l.LevelCosts()
	if err != nil {
		return err
	}
	if tier == 0 || tier > uint64(len(costs)) {
		return ErrUnknownTier
	}
	costs[tier-1] = cost
	return l.store.KVPut(costsKey, costs)
}

// SetRenameCost overwrites the rename voucher price.
func (l *Ledger) SetRenameCost(cost *uint256.Int) error {
	return l.store.KVPut(renameCostKey, cost)
}

// firstBadge resolves the badge every priced transition operates on: the
// caller's first-indexed holding. Holding zero badges means no membership.
func (l *Ledger) firstBadge(caller [20]byte) (uint64, error) {
	count, err := l.badges.BalanceOf(caller)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, ErrNotMember
	}
	return l.badges.TokenOfOwnerByIndex(caller, 0)
}

// charge verifies the caller's allowance covers cost, then pulls the funds to
// the treasury. Callers commit their local state before invoking charge so a
// re-entrant gateway observes a consistent ledger.
func (l *Ledger) charge(caller [20]byte, cost *uint256.Int) error {
	if l.gateway == nil {
		return ErrGatewayNotSet
	}
	return l.gateway.TransferFrom(l.operator, caller, l.treasury, cost)
}

func (l *Ledger) checkAllowance(caller [20]byte, cost *uint256.Int) error {
	if l.gateway == nil {
		return ErrGatewayNotSet
	}
	allowance, err := l.gateway.Allowance(caller, l.operator)
	if err != nil {
		return err
	}
	if allowance.Cmp(cost) < 0 {
		return ErrInsufficientAllowance
	}
	return nil
}

// LevelUp advances the caller's badge one level, charging the current tier's
// cost.
func (l *Ledger) LevelUp(caller [20]byte) error {
	if err := common.Guard(l.pause); err != nil {
		return err
	}
	id, err := l.firstBadge(caller)
	if err != nil {
		return err
	}
	profile, err := l.Profile(id)
	if err != nil {
		return err
	}
	costs, err := l.LevelCosts()
	if err != nil {
		return err
	}
	if profile.Level >= uint64(len(costs)) {
		return ErrMaxLevelReached
	}
	cost := costs[profile.Level]
	if err := l.checkAllowance(caller, cost); err != nil {
		return err
	}
	newLevel, err := safemath.AddU64(profile.Level, 1)
	if err != nil {
		return err
	}
	profile.Level = newLevel
	if err := l.store.KVPut(profileKey(id), profile); err != nil {
		return err
	}
	if err := l.charge(caller, cost); err != nil {
		return err
	}
	l.emit(&types.Event{Type: EventTypeLeveledUp, Attributes: map[string]string{
		"badge": fmt.Sprintf("%d", id),
		"owner": fmt.Sprintf("0x%x", caller),
		"level": fmt.Sprintf("%d", profile.Level),
		"cost":  cost.Dec(),
	}})
	return nil
}

// PurchaseRenameVoucher sells the caller a one-shot rename permission.
func (l *Ledger) PurchaseRenameVoucher(caller [20]byte) error {
	if err := common.Guard(l.pause); err != nil {
		return err
	}
	id, err := l.firstBadge(caller)
	if err != nil {
		return err
	}
	profile, err := l.Profile(id)
	if err != nil {
		return err
	}
	if profile.VoucherHeld {
		return ErrVoucherAlreadyHeld
	}
	cost, err := l.RenameCost()
	if err != nil {
		return err
	}
	if err := l.checkAllowance(caller, cost); err != nil {
		return err
	}
	profile.VoucherHeld = true
	if err := l.store.KVPut(profileKey(id), profile); err != nil {
		return err
	}
	if err := l.charge(caller, cost); err != nil {
		return err
	}
	l.emit(&types.Event{Type: EventTypeVoucherPurchased, Attributes: map[string]string{
		"badge": fmt.Sprintf("%d", id),
		"owner": fmt.Sprintf("0x%x", caller),
		"cost":  cost.Dec(),
	}})
	return nil
}

// ApplyRename consumes the voucher and sets the badge nickname.
func (l *Ledger) ApplyRename(caller [20]byte, newName string) error {
	if err := common.Guard(l.pause); err != nil {
		return err
	}
	id, err := l.firstBadge(caller)
	if err != nil {
		return err
	}
	profile, err := l.Profile(id)
	if err != nil {
		return err
	}
	if !profile.VoucherHeld {
		return ErrNoVoucher
	}
	profile.Nickname = newName
	profile.VoucherHeld = false
	if err := l.store.KVPut(profileKey(id), profile); err != nil {
		return err
	}
	l.emit(&types.Event{Type: EventTypeRenamed, Attributes: map[string]string{
		"badge":    fmt.Sprintf("%d", id),
		"owner":    fmt.Sprintf("0x%x", caller),
		"nickname": newName,
	}})
	return nil
}
