// Package badge tracks ownership of unique, integer-identified collectible
// tokens, including per-token approvals, operator grants and the enumeration
// indices used for listing by owner and by global position. Removal from an
// enumeration list swaps the last element into the vacated slot, so list
// order is not stable across transfers.
package badge

import (
	"fmt"

	"grumblechain/core/events"
	"grumblechain/core/types"
	"grumblechain/native/common"
	"grumblechain/native/safemath"
)

var (
	ownerPrefix    = "badge/owner/"
	approvalPrefix = "badge/approval/"
	operatorPrefix = "badge/operator/"
	countPrefix    = "badge/count/"
	ownedPrefix    = "badge/owned/"
	ownedPosPrefix = "badge/ownedpos/"
	allPrefix      = "badge/all/"
	allPosPrefix   = "badge/allpos/"
	supplyKey      = []byte("badge/supply")
)

// storage abstracts the subset of state manager functionality required by the
// badge registry.
type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

func ownerKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", ownerPrefix, id))
}

func approvalKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", approvalPrefix, id))
}

func operatorKey(owner, operator [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x/%x", operatorPrefix, owner, operator))
}

func countKey(owner [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", countPrefix, owner))
}

func ownedSlotKey(owner [20]byte, index uint64) []byte {
	return []byte(fmt.Sprintf("%s%x/%d", ownedPrefix, owner, index))
}

func ownedPosKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", ownedPosPrefix, id))
}

func allSlotKey(index uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", allPrefix, index))
}

func allPosKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", allPosPrefix, id))
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

// Registry wires badge ownership bookkeeping with persistence, pause gating
// and event emission.
type Registry struct {
	store      storage
	emitter    events.Emitter
	pause      common.PauseView
	receiverOf ReceiverResolver
}

// NewRegistry constructs a registry bound to the provided storage backend.
func NewRegistry(store storage) *Registry {
	return &Registry{
		store:   store,
		emitter: events.NoopEmitter{},
	}
}

// SetEmitter configures the event emitter used by the registry.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetPauseView wires the shared pause flag. Transfers and approvals are
// rejected while paused; minting and reads are not gated here.
func (r *Registry) SetPauseView(pause common.PauseView) { r.pause = pause }

// SetReceiverResolver configures the lookup used by SafeTransferFrom to find
// programmable recipients.
func (r *Registry) SetReceiverResolver(resolver ReceiverResolver) { r.receiverOf = resolver }

func (r *Registry) emit(evt *types.Event) {
	if r == nil || evt == nil || r.emitter == nil {
		return
	}
	r.emitter.Emit(WrapEvent(evt))
}

func (r *Registry) getU64(key []byte) (uint64, error) {
	var value uint64
	ok, err := r.store.KVGet(key, &value)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return value, nil
}

func (r *Registry) owner(id uint64) ([20]byte, bool, error) {
	var owner [20]byte
	ok, err := r.store.KVGet(ownerKey(id), &owner)
	if err != nil {
		return [20]byte{}, false, err
	}
	return owner, ok, nil
}

// Exists reports whether the token id has been minted.
func (r *Registry) Exists(id uint64) (bool, error) {
	_, ok, err := r.owner(id)
	return ok, err
}

// OwnerOf returns the current owner of the token.
func (r *Registry) OwnerOf(id uint64) ([20]byte, error) {
	owner, ok, err := r.owner(id)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, ErrNotFound
	}
	return owner, nil
}

// BalanceOf returns how many badges the address holds. Never-seen addresses
// hold zero.
func (r *Registry) BalanceOf(owner [20]byte) (uint64, error) {
	return r.getU64(countKey(owner))
}

// TotalSupply returns the number of badges minted so far.
func (r *Registry) TotalSupply() (uint64, error) {
	return r.getU64(supplyKey)
}

// TokenByIndex returns the id stored at the global enumeration position.
func (r *Registry) TokenByIndex(index uint64) (uint64, error) {
	supply, err := r.TotalSupply()
	if err != nil {
		return 0, err
	}
	if index >= supply {
		return 0, ErrIndexOutOfRange
	}
	return r.getU64(allSlotKey(index))
}

// TokenOfOwnerByIndex returns the id at the position of the owner's list.
func (r *Registry) TokenOfOwnerByIndex(owner [20]byte, index uint64) (uint64, error) {
	count, err := r.BalanceOf(owner)
	if err != nil {
		return 0, err
	}
	if index >= count {
		return 0, ErrIndexOutOfRange
	}
	return r.getU64(ownedSlotKey(owner, index))
}

// ApprovedSpender returns the approved spender for the token, or the zero
// address when none is set.
func (r *Registry) ApprovedSpender(id uint64) ([20]byte, error) {
	if _, err := r.OwnerOf(id); err != nil {
		return [20]byte{}, err
	}
	var spender [20]byte
	ok, err := r.store.KVGet(approvalKey(id), &spender)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, nil
	}
	return spender, nil
}

// IsApprovedForAll reports whether operator holds a blanket grant from owner.
func (r *Registry) IsApprovedForAll(owner, operator [20]byte) (bool, error) {
	var approved bool
	ok, err := r.store.KVGet(operatorKey(owner, operator), &approved)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return approved, nil
}

// appendOwned places id at the end of the owner's enumeration list. The list
// length always equals the owner's holder count, which the caller updates.
func (r *Registry) appendOwned(owner [20]byte, id uint64, index uint64) error {
	if err := r.store.KVPut(ownedSlotKey(owner, index), id); err != nil {
		return err
	}
	return r.store.KVPut(ownedPosKey(id), index)
}

// removeOwned detaches id from the owner's enumeration list via
// swap-with-last-then-shrink, fixing the moved element's reverse-map entry.
func (r *Registry) removeOwned(owner [20]byte, id uint64, lastIndex uint64) error {
	pos, err := r.getU64(ownedPosKey(id))
	if err != nil {
		return err
	}
	if pos != lastIndex {
		movedID, err := r.getU64(ownedSlotKey(owner, lastIndex))
		if err != nil {
			return err
		}
		if err := r.store.KVPut(ownedSlotKey(owner, pos), movedID); err != nil {
			return err
		}
		if err := r.store.KVPut(ownedPosKey(movedID), pos); err != nil {
			return err
		}
	}
	if err := r.store.KVDelete(ownedSlotKey(owner, lastIndex)); err != nil {
		return err
	}
	return r.store.KVDelete(ownedPosKey(id))
}

// Mint records ownership of a fresh token id and appends it to both
// enumeration indices. Caller-level policy (who may mint, which id) lives in
// the orchestrator; the registry only rejects the null owner and duplicates.
func (r *Registry) Mint(owner [20]byte, id uint64) error {
	if isZeroAddress(owner) {
		return ErrInvalidOwner
	}
	if _, ok, err := r.owner(id); err != nil {
		return err
	} else if ok {
		return ErrAlreadyExists
	}

	count, err := r.BalanceOf(owner)
	if err != nil {
		return err
	}
	newCount, err := safemath.AddU64(count, 1)
	if err != nil {
		return err
	}
	if err := r.store.KVPut(ownerKey(id), owner); err != nil {
		return err
	}
	if err := r.store.KVPut(countKey(owner), newCount); err != nil {
		return err
	}
	if err := r.appendOwned(owner, id, count); err != nil {
		return err
	}

	supply, err := r.TotalSupply()
	if err != nil {
		return err
	}
	newSupply, err := safemath.AddU64(supply, 1)
	if err != nil {
		return err
	}
	if err := r.store.KVPut(allSlotKey(supply), id); err != nil {
		return err
	}
	if err := r.store.KVPut(allPosKey(id), supply); err != nil {
		return err
	}
	if err := r.store.KVPut(supplyKey, newSupply); err != nil {
		return err
	}

	r.emit(MintedEvent(owner, id))
	return nil
}

// Approve sets the per-token spender. The caller must be the owner or an
// approved-for-all operator of the owner.
func (r *Registry) Approve(caller, spender [20]byte, id uint64) error {
	if err := common.Guard(r.pause); err != nil {
		return err
	}
	owner, err := r.OwnerOf(id)
	if err != nil {
		return err
	}
	if spender == owner {
		return ErrApprovalToOwner
	}
	if caller != owner {
		operator, err := r.IsApprovedForAll(owner, caller)
		if err != nil {
			return err
		}
		if !operator {
			return ErrNotOwnerOrAgent
		}
	}
	if err := r.store.KVPut(approvalKey(id), spender); err != nil {
		return err
	}
	r.emit(ApprovedEvent(owner, spender, id))
	return nil
}

// SetApprovalForAll records or clears a blanket operator grant.
func (r *Registry) SetApprovalForAll(caller, operator [20]byte, approved bool) error {
	if err := common.Guard(r.pause); err != nil {
		return err
	}
	if operator == caller {
		return ErrSelfOperator
	}
	if err := r.store.KVPut(operatorKey(caller, operator), approved); err != nil {
		return err
	}
	r.emit(OperatorSetEvent(caller, operator, approved))
	return nil
}

func (r *Registry) authorized(caller, owner [20]byte, id uint64) (bool, error) {
	if caller == owner {
		return true, nil
	}
	var spender [20]byte
	ok, err := r.store.KVGet(approvalKey(id), &spender)
	if err != nil {
		return false, err
	}
	if ok && spender == caller {
		return true, nil
	}
	return r.IsApprovedForAll(owner, caller)
}

// TransferFrom moves the token from one owner to another, clearing any
// per-token approval and maintaining both enumeration indices. The global
// all-tokens index is untouched by transfers.
func (r *Registry) TransferFrom(caller, from, to [20]byte, id uint64) error {
	if err := common.Guard(r.pause); err != nil {
		return err
	}
	owner, ok, err := r.owner(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	allowed, err := r.authorized(caller, owner, id)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrUnauthorized
	}
	if isZeroAddress(to) {
		return ErrInvalidOwner
	}
	if from != owner {
		return ErrOwnershipMismatch
	}

	if err := r.store.KVDelete(approvalKey(id)); err != nil {
		return err
	}

	fromCount, err := r.BalanceOf(from)
	if err != nil {
		return err
	}
	newFromCount, err := safemath.SubU64(fromCount, 1)
	if err != nil {
		return err
	}
	toCount, err := r.BalanceOf(to)
	if err != nil {
		return err
	}
	newToCount, err := safemath.AddU64(toCount, 1)
	if err != nil {
		return err
	}

	if err := r.removeOwned(from, id, newFromCount); err != nil {
		return err
	}
	if err := r.appendOwned(to, id, toCount); err != nil {
		return err
	}
	if err := r.store.KVPut(countKey(from), newFromCount); err != nil {
		return err
	}
	if err := r.store.KVPut(countKey(to), newToCount); err != nil {
		return err
	}
	if err := r.store.KVPut(ownerKey(id), to); err != nil {
		return err
	}

	r.emit(TransferredEvent(from, to, id))
	return nil
}

// SafeTransferFrom performs TransferFrom and, when the recipient is
// programmable, requires the acknowledgement callback to return AckMarker.
// All local state is committed before the callback runs; the caller's
// snapshot rolls everything back on rejection.
func (r *Registry) SafeTransferFrom(caller, from, to [20]byte, id uint64, data []byte) error {
	if err := r.TransferFrom(caller, from, to, id); err != nil {
		return err
	}
	if r.receiverOf == nil {
		return nil
	}
	receiver := r.receiverOf(to)
	if receiver == nil {
		return nil
	}
	marker, err := receiver.OnBadgeReceived(caller, from, id, data)
	if err != nil || marker != AckMarker {
		return ErrRejectedByReceiver
	}
	return nil
}
