package core

import (
	"fmt"

	"github.com/holiman/uint256"

	"grumblechain/core/events"
	"grumblechain/native/membership"
	"grumblechain/native/posts"
	"grumblechain/native/token"
	"grumblechain/native/upgrades"
)

// MintBadge issues the badge id to the caller. An address may hold at most
// one badge through this entry point; the registry itself stays policy-free.
func (n *Node) MintBadge(caller [20]byte, id uint64) error {
	return n.withSnapshot(func() error {
		if err := n.guard(); err != nil {
			return err
		}
		count, err := n.badges.BalanceOf(caller)
		if err != nil {
			return err
		}
		if count != 0 {
			return ErrAlreadyHolding
		}
		return n.badges.Mint(caller, id)
	})
}

// TransferBadge moves a badge between owners.
func (n *Node) TransferBadge(caller, from, to [20]byte, id uint64) error {
	return n.withSnapshot(func() error {
		return n.badges.TransferFrom(caller, from, to, id)
	})
}

// SafeTransferBadge moves a badge and requires programmable recipients to
// acknowledge it. A rejected callback rolls the transfer back.
func (n *Node) SafeTransferBadge(caller, from, to [20]byte, id uint64, data []byte) error {
	return n.withSnapshot(func() error {
		return n.badges.SafeTransferFrom(caller, from, to, id, data)
	})
}

// ApproveBadge sets the per-badge approved spender.
func (n *Node) ApproveBadge(caller, spender [20]byte, id uint64) error {
	return n.withSnapshot(func() error {
		return n.badges.Approve(caller, spender, id)
	})
}

// SetBadgeOperator records or clears a blanket operator grant.
func (n *Node) SetBadgeOperator(caller, operator [20]byte, approved bool) error {
	return n.withSnapshot(func() error {
		return n.badges.SetApprovalForAll(caller, operator, approved)
	})
}

// ApproveSpend sets the caller's token allowance. Only available when the
// balance ledger is hosted locally.
func (n *Node) ApproveSpend(caller, spender [20]byte, amount *uint256.Int) error {
	ledger, ok := n.gateway.(approver)
	if !ok {
		return ErrNotLocalLedger
	}
	return n.withSnapshot(func() error {
		return ledger.Approve(caller, spender, amount)
	})
}

// LevelUp advances the caller's badge one level, charging the current tier.
func (n *Node) LevelUp(caller [20]byte) error {
	return n.withSnapshot(func() error {
		return n.grades.LevelUp(caller)
	})
}

// PurchaseRenameVoucher sells the caller a one-shot rename permission.
func (n *Node) PurchaseRenameVoucher(caller [20]byte) error {
	return n.withSnapshot(func() error {
		return n.grades.PurchaseRenameVoucher(caller)
	})
}

// ApplyRename consumes the caller's voucher and renames their badge.
func (n *Node) ApplyRename(caller [20]byte, newName string) error {
	return n.withSnapshot(func() error {
		return n.grades.ApplyRename(caller, newName)
	})
}

// SignUp creates the caller's membership record.
func (n *Node) SignUp(caller [20]byte) error {
	return n.withSnapshot(func() error {
		return n.members.SignUp(caller)
	})
}

// PostInconvenience appends the caller's report to the content log, links its
// id into the member record and runs the daily reward gate. The whole
// sequence is atomic: a failed payout leaves neither the post nor the link
// behind. It returns the new post id and whether a reward was paid.
func (n *Node) PostInconvenience(caller [20]byte, externalID, contents, tag string) (uint64, bool, error) {
	var (
		id   uint64
		paid bool
	)
	err := n.withSnapshot(func() error {
		if err := n.guard(); err != nil {
			return err
		}
		record, registered, err := n.members.Member(caller)
		if err != nil {
			return err
		}
		if !registered {
			return ErrNotRegistered
		}
		now := n.now()
		nextID, err := n.content.Count()
		if err != nil {
			return err
		}
		record.ContentIDs = append(record.ContentIDs, nextID)
		id, err = n.content.Post(caller, externalID, contents, tag, now)
		if err != nil {
			return err
		}
		paid, err = n.rewards.Credit(record, caller, now)
		if err != nil {
			return err
		}
		return n.members.PutRecord(caller, record)
	})
	if err != nil {
		return 0, false, err
	}
	return id, paid, nil
}

// --- owner-gated administration ---

// TransferOwnership hands the admin role to a new address.
func (n *Node) TransferOwnership(caller, newOwner [20]byte) error {
	return n.withSnapshotThen(func() error {
		if err := n.requireOwner(caller); err != nil {
			return err
		}
		if err := n.state.KVPut(ownerKey, newOwner); err != nil {
			return err
		}
		n.emitSys(EventTypeOwnerChanged, map[string]string{
			"previous": fmt.Sprintf("0x%x", n.owner),
			"new":      fmt.Sprintf("0x%x", newOwner),
		})
		return nil
	}, func() {
		n.owner = newOwner
	})
}

// SetGateway repoints the balance gateway used for spending and payouts.
// The gateway is an injected collaborator, so this is a programmatic admin
// operation rather than an RPC-reachable one.
func (n *Node) SetGateway(caller [20]byte, gateway token.Gateway) error {
	if gateway == nil {
		return ErrGatewayNotSet
	}
	return n.withSnapshot(func() error {
		if err := n.requireOwner(caller); err != nil {
			return err
		}
		n.gateway = gateway
		n.grades.SetGateway(gateway)
		n.rewards.SetGateway(gateway)
		if sink, ok := gateway.(interface{ SetEmitter(events.Emitter) }); ok {
			sink.SetEmitter(n.staged)
		}
		n.emitSys(EventTypeGatewayChanged, nil)
		return nil
	})
}

// Pause halts every state-changing user entry point.
func (n *Node) Pause(caller [20]byte) error {
	return n.setPaused(caller, true)
}

// Unpause lifts the halt.
func (n *Node) Unpause(caller [20]byte) error {
	return n.setPaused(caller, false)
}

func (n *Node) setPaused(caller [20]byte, paused bool) error {
	return n.withSnapshotThen(func() error {
		if err := n.requireOwner(caller); err != nil {
			return err
		}
		if err := n.state.KVPut(pausedKey, paused); err != nil {
			return err
		}
		n.emitSys(EventTypePauseToggled, map[string]string{
			"paused": fmt.Sprintf("%t", paused),
		})
		return nil
	}, func() {
		n.paused = paused
	})
}

// AppendLevelCost adds a new tier to the cost table. The amount is given in
// base units.
func (n *Node) AppendLevelCost(caller [20]byte, tier uint64, cost *uint256.Int) error {
	return n.withSnapshot(func() error {
		if err := n.requireOwner(caller); err != nil {
			return err
		}
		if err := n.grades.AppendLevelCost(tier, cost); err != nil {
			return err
		}
		n.emitSys(EventTypeParamUpdated, map[string]string{
			"param": "levelCost",
			"tier":  fmt.Sprintf("%d", tier),
			"cost":  cost.Dec(),
		})
		return nil
	})
}

// SetLevelCost overwrites an existing tier's cost in base units.
func (n *Node) SetLevelCost(caller [20]byte, tier uint64, cost *uint256.Int) error {
	return n.withSnapshot(func() error {
		if err := n.requireOwner(caller); err != nil {
			return err
		}
		if err := n.grades.SetLevelCost(tier, cost); err != nil {
			return err
		}
		n.emitSys(EventTypeParamUpdated, map[string]string{
			"param": "levelCost",
			"tier":  fmt.Sprintf("%d", tier),
			"cost":  cost.Dec(),
		})
		return nil
	})
}

// SetRenameCost overwrites the rename voucher price in base units.
func (n *Node) SetRenameCost(caller [20]byte, cost *uint256.Int) error {
	return n.withSnapshot(func() error {
		if err := n.requireOwner(caller); err != nil {
			return err
		}
		if err := n.grades.SetRenameCost(cost); err != nil {
			return err
		}
		n.emitSys(EventTypeParamUpdated, map[string]string{
			"param": "renameCost",
			"cost":  cost.Dec(),
		})
		return nil
	})
}

// SetDailyRewardCap changes how many posts per day are rewarded.
func (n *Node) SetDailyRewardCap(caller [20]byte, cap uint32) error {
	return n.withSnapshot(func() error {
		if err := n.requireOwner(caller); err != nil {
			return err
		}
		if err := n.state.KVPut(rewardCapKey, cap); err != nil {
			return err
		}
		n.rewards.SetCap(cap)
		n.emitSys(EventTypeParamUpdated, map[string]string{
			"param": "dailyRewardCap",
			"cap":   fmt.Sprintf("%d", cap),
		})
		return nil
	})
}

// SetRewardAmount changes the per-post payout in base units.
func (n *Node) SetRewardAmount(caller [20]byte, amount *uint256.Int) error {
	return n.withSnapshot(func() error {
		if err := n.requireOwner(caller); err != nil {
			return err
		}
		if err := n.state.KVPut(rewardAmountKey, amount); err != nil {
			return err
		}
		n.rewards.SetAmount(amount)
		n.emitSys(EventTypeParamUpdated, map[string]string{
			"param":  "rewardAmount",
			"amount": amount.Dec(),
		})
		return nil
	})
}

// BatchSignUp registers a batch of addresses, skipping ones already present.
func (n *Node) BatchSignUp(caller [20]byte, addrs [][20]byte) (int, error) {
	added := 0
	err := n.withSnapshot(func() error {
		if err := n.requireOwner(caller); err != nil {
			return err
		}
		var err error
		added, err = n.members.BatchSignUp(addrs)
		return err
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// Withdraw moves funds out of the treasury.
func (n *Node) Withdraw(caller, to [20]byte, amount *uint256.Int) error {
	return n.withSnapshot(func() error {
		if err := n.requireOwner(caller); err != nil {
			return err
		}
		return n.gateway.Transfer(n.treasury, to, amount)
	})
}

// --- queries ---

// Owner returns the current admin address.
func (n *Node) Owner() [20]byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.owner
}

// Paused reports whether user entry points are halted.
func (n *Node) Paused() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.paused
}

// BadgeOwner returns the owner of the badge id.
func (n *Node) BadgeOwner(id uint64) ([20]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.badges.OwnerOf(id)
}

// BadgeBalance returns how many badges the address holds.
func (n *Node) BadgeBalance(owner [20]byte) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.badges.BalanceOf(owner)
}

// BadgeSupply returns the number of badges minted so far.
func (n *Node) BadgeSupply() (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.badges.TotalSupply()
}

// BadgeByIndex returns the badge id at the global enumeration position.
func (n *Node) BadgeByIndex(index uint64) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.badges.TokenByIndex(index)
}

// BadgeOfOwnerByIndex returns the badge id at the owner's list position.
func (n *Node) BadgeOfOwnerByIndex(owner [20]byte, index uint64) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.badges.TokenOfOwnerByIndex(owner, index)
}

// BadgeProfile returns the upgrade attributes of the badge.
func (n *Node) BadgeProfile(id uint64) (*upgrades.Profile, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.grades.Profile(id)
}

// LevelCosts returns the configured level cost table.
func (n *Node) LevelCosts() ([]*uint256.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.grades.LevelCosts()
}

// RenameCost returns the rename voucher price.
func (n *Node) RenameCost() (*uint256.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.grades.RenameCost()
}

// Member returns the membership record for the address.
func (n *Node) Member(addr [20]byte) (*membership.Record, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.members.Member(addr)
}

// TotalUsers returns the number of registered members.
func (n *Node) TotalUsers() (uint32, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.members.TotalUsers()
}

// MemberAtIndex returns the address registered at the sequence number.
func (n *Node) MemberAtIndex(index uint32) ([20]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.members.MemberAtIndex(index)
}

// Post returns the content entry at the index.
func (n *Node) Post(index uint64) (*posts.Entry, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.content.Get(index)
}

// PostCount returns the number of content entries.
func (n *Node) PostCount() (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.content.Count()
}

// TokenBalance returns the gateway balance of the address.
func (n *Node) TokenBalance(owner [20]byte) (*uint256.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.gateway.BalanceOf(owner)
}

// RewardCap returns the daily reward cap.
func (n *Node) RewardCap() uint32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rewards.Cap()
}

// RewardAmount returns the per-post payout in base units.
func (n *Node) RewardAmount() *uint256.Int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rewards.Amount()
}

// ApprovedBadgeSpender returns the approved spender for the badge.
func (n *Node) ApprovedBadgeSpender(id uint64) ([20]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.badges.ApprovedSpender(id)
}

// IsBadgeOperator reports whether operator holds a blanket grant from owner.
func (n *Node) IsBadgeOperator(owner, operator [20]byte) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.badges.IsApprovedForAll(owner, operator)
}
