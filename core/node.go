// Package core hosts the node orchestrator: it composes the native engines on
// top of one state manager, gates administrative entry points on the owner,
// and wraps every mutating operation in a snapshot so partial writes never
// reach the database.
package core

import (
	"errors"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"grumblechain/core/events"
	"grumblechain/core/state"
	"grumblechain/core/types"
	"grumblechain/native/badge"
	"grumblechain/native/common"
	"grumblechain/native/membership"
	"grumblechain/native/posts"
	"grumblechain/native/rewards"
	"grumblechain/native/safemath"
	"grumblechain/native/token"
	"grumblechain/native/upgrades"
)

var (
	ErrNotOwner       = errors.New("node: caller is not the owner")
	ErrAlreadyHolding = errors.New("node: caller already holds a badge")
	ErrNotRegistered  = errors.New("node: caller is not registered")
	ErrGatewayNotSet  = errors.New("node: gateway not configured")
	ErrNotLocalLedger = errors.New("node: gateway does not support approvals")
)

var (
	ownerKey        = []byte("sys/owner")
	pausedKey       = []byte("sys/paused")
	rewardCapKey    = []byte("sys/rewardcap")
	rewardAmountKey = []byte("sys/rewardamount")
)

// Params seeds the system configuration on first boot. Amounts are given in
// whole tokens and scaled by the gateway's decimals; values already persisted
// in the database win over the seed.
type Params struct {
	Owner          [20]byte
	Treasury       [20]byte
	RewardAmount   *uint256.Int
	DailyRewardCap uint32
	RenameCost     *uint256.Int
	LevelCosts     []*uint256.Int
}

// approver is the optional gateway extension exposed when the balance ledger
// is hosted locally.
type approver interface {
	Approve(owner, spender [20]byte, amount *uint256.Int) error
}

const (
	// EventTypePauseToggled is emitted when the pause flag changes.
	EventTypePauseToggled = "system.pause_toggled"
	// EventTypeOwnerChanged is emitted on ownership handover.
	EventTypeOwnerChanged = "system.owner_changed"
	// EventTypeParamUpdated is emitted for every administrative parameter change.
	EventTypeParamUpdated = "system.param_updated"
	// EventTypeGatewayChanged is emitted when the balance gateway is repointed.
	EventTypeGatewayChanged = "system.gateway_changed"
)

type sysEvent struct {
	evt *types.Event
}

func (e sysEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e sysEvent) Event() *types.Event { return e.evt }

// Node composes the native engines and owns the commit boundary. All public
// methods are safe for concurrent use.
type Node struct {
	mu    sync.Mutex
	state *state.Manager

	badges  *badge.Registry
	gateway token.Gateway
	grades  *upgrades.Ledger
	members *membership.Directory
	rewards *rewards.Engine
	content *posts.Ledger

	// emitter is the committed event log; staged buffers the in-flight
	// operation's events and only drains into emitter on a successful commit.
	emitter *events.MemoryEmitter
	staged  *events.BufferedEmitter

	owner    [20]byte
	treasury [20]byte
	paused   bool
	nowFn    func() int64
}

// scaleAmount converts a whole-token amount into base units.
func scaleAmount(amount *uint256.Int, decimals uint8) (*uint256.Int, error) {
	scaled := amount.Clone()
	ten := uint256.NewInt(10)
	for i := uint8(0); i < decimals; i++ {
		next, err := safemath.Mul(scaled, ten)
		if err != nil {
			return nil, err
		}
		scaled = next
	}
	return scaled, nil
}

// NewNode wires the engines onto the state manager and seeds the system
// parameters. The gateway's decimals are read once here; configured costs are
// scaled with it before being persisted.
func NewNode(mgr *state.Manager, gateway token.Gateway, params Params) (*Node, error) {
	if gateway == nil {
		return nil, ErrGatewayNotSet
	}
	n := &Node{
		state:   mgr,
		gateway: gateway,
		emitter: events.NewMemoryEmitter(),
		nowFn:   func() int64 { return time.Now().Unix() },
	}
	n.staged = events.NewBufferedEmitter(n.emitter)

	if err := n.loadOrSeed(params, gateway.Decimals()); err != nil {
		return nil, err
	}

	if sink, ok := gateway.(interface{ SetEmitter(events.Emitter) }); ok {
		sink.SetEmitter(n.staged)
	}

	n.badges = badge.NewRegistry(mgr)
	n.badges.SetEmitter(n.staged)
	n.badges.SetPauseView(n)

	// Spend allowances name the treasury; pulled funds land there too.
	n.grades = upgrades.NewLedger(mgr, n.badges, n.treasury, n.treasury)
	n.grades.SetGateway(gateway)
	n.grades.SetEmitter(n.staged)
	n.grades.SetPauseView(n)

	n.members = membership.NewDirectory(mgr)
	n.members.SetEmitter(n.staged)
	n.members.SetPauseView(n)

	cap, amount, err := n.rewardParams()
	if err != nil {
		return nil, err
	}
	n.rewards = rewards.NewEngine(n.treasury, cap, amount)
	n.rewards.SetGateway(gateway)
	n.rewards.SetEmitter(n.staged)

	n.content = posts.NewLedger(mgr)
	n.content.SetEmitter(n.staged)

	if err := n.seedCosts(params, gateway.Decimals()); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Node) loadOrSeed(params Params, decimals uint8) error {
	var owner [20]byte
	ok, err := n.state.KVGet(ownerKey, &owner)
	if err != nil {
		return err
	}
	if ok {
		n.owner = owner
	} else {
		n.owner = params.Owner
		if err := n.state.KVPut(ownerKey, params.Owner); err != nil {
			return err
		}
	}
	n.treasury = params.Treasury

	var paused bool
	if ok, err := n.state.KVGet(pausedKey, &paused); err != nil {
		return err
	} else if ok {
		n.paused = paused
	}

	var cap uint32
	if ok, err := n.state.KVGet(rewardCapKey, &cap); err != nil {
		return err
	} else if !ok {
		if err := n.state.KVPut(rewardCapKey, params.DailyRewardCap); err != nil {
			return err
		}
	}
	amount := new(uint256.Int)
	if ok, err := n.state.KVGet(rewardAmountKey, amount); err != nil {
		return err
	} else if !ok {
		seed := uint256.NewInt(0)
		if params.RewardAmount != nil {
			scaled, err := scaleAmount(params.RewardAmount, decimals)
			if err != nil {
				return err
			}
			seed = scaled
		}
		if err := n.state.KVPut(rewardAmountKey, seed); err != nil {
			return err
		}
	}
	return n.state.Commit()
}

func (n *Node) rewardParams() (uint32, *uint256.Int, error) {
	var cap uint32
	if _, err := n.state.KVGet(rewardCapKey, &cap); err != nil {
		return 0, nil, err
	}
	amount := new(uint256.Int)
	if ok, err := n.state.KVGet(rewardAmountKey, amount); err != nil {
		return 0, nil, err
	} else if !ok {
		amount = uint256.NewInt(0)
	}
	return cap, amount, nil
}

// seedCosts installs the configured cost tables when none are persisted yet.
func (n *Node) seedCosts(params Params, decimals uint8) error {
	costs, err := n.grades.LevelCosts()
	if err != nil {
		return err
	}
	if len(costs) == 0 {
		for i, cost := range params.LevelCosts {
			scaled, err := scaleAmount(cost, decimals)
			if err != nil {
				return err
			}
			if err := n.grades.AppendLevelCost(uint64(i)+1, scaled); err != nil {
				return err
			}
		}
	}
	if params.RenameCost != nil {
		current, err := n.grades.RenameCost()
		if err != nil {
			return err
		}
		if current.IsZero() {
			scaled, err := scaleAmount(params.RenameCost, decimals)
			if err != nil {
				return err
			}
			if err := n.grades.SetRenameCost(scaled); err != nil {
				return err
			}
		}
	}
	return n.state.Commit()
}

// SetNowFunc overrides the time source used for deterministic testing.
func (n *Node) SetNowFunc(now func() int64) {
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	n.nowFn = now
	n.members.SetNowFunc(now)
}

func (n *Node) now() uint64 {
	ts := n.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// IsPaused implements the pause view shared by the engines.
func (n *Node) IsPaused() bool { return n.paused }

// Events returns the committed event log. Events from rolled-back operations
// never appear in it.
func (n *Node) Events() []events.Event { return n.emitter.Events() }

// SetReceiverResolver configures programmable-recipient lookup for safe badge
// transfers.
func (n *Node) SetReceiverResolver(resolver badge.ReceiverResolver) {
	n.badges.SetReceiverResolver(resolver)
}

// withSnapshot runs fn against the staged state and commits on success. Any
// error rolls every staged write back and drops the events fn emitted.
func (n *Node) withSnapshot(fn func() error) error {
	return n.withSnapshotThen(fn, nil)
}

// withSnapshotThen additionally runs committed after a successful commit,
// still under the node lock. In-memory mirrors of persisted state are updated
// there so a failed commit cannot leave them diverged from the database.
func (n *Node) withSnapshotThen(fn func() error, committed func()) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	snap := n.state.Snapshot()
	if err := fn(); err != nil {
		n.staged.Discard()
		if revertErr := n.state.RevertToSnapshot(snap); revertErr != nil {
			return revertErr
		}
		return err
	}
	if err := n.state.Commit(); err != nil {
		n.staged.Discard()
		if revertErr := n.state.RevertToSnapshot(snap); revertErr != nil {
			return revertErr
		}
		return err
	}
	n.staged.Flush()
	if committed != nil {
		committed()
	}
	return nil
}

func (n *Node) requireOwner(caller [20]byte) error {
	if caller != n.owner {
		return ErrNotOwner
	}
	return nil
}

func (n *Node) guard() error {
	return common.Guard(n)
}

func (n *Node) emitSys(evtType string, attrs map[string]string) {
	n.staged.Emit(sysEvent{evt: &types.Event{Type: evtType, Attributes: attrs}})
}
