// Package membership registers users and owns their per-address records:
// sequence number, registration time, the daily reward counter and the list
// of submitted post ids. A record exists exactly when its last-activity
// timestamp is non-zero; re-registration is rejected.
package membership

import (
	"errors"
	"fmt"
	"time"

	"grumblechain/core/events"
	"grumblechain/core/types"
	"grumblechain/native/common"
	"grumblechain/native/safemath"
)

// ErrAlreadyRegistered marks duplicate sign-up attempts.
var ErrAlreadyRegistered = errors.New("membership: already registered")

// ErrIndexOutOfRange marks member-list lookups past the registered count.
var ErrIndexOutOfRange = errors.New("membership: index out of range")

// EventTypeRegistered is emitted when an address signs up.
const EventTypeRegistered = "member.registered"

var (
	recordPrefix = "member/record/"
	listPrefix   = "member/list/"
	countKey     = []byte("member/count")
)

// Record is the per-address membership state.
type Record struct {
	SequenceNumber   uint32   `json:"sequenceNumber"`
	RegisteredAt     uint64   `json:"registeredAt"`
	RewardCountToday uint32   `json:"rewardCountToday"`
	LastActivity     uint64   `json:"lastActivity"`
	ContentIDs       []uint64 `json:"contentIds"`
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	clone.ContentIDs = append([]uint64(nil), r.ContentIDs...)
	return &clone
}

// storage abstracts the subset of state manager functionality required by the
// membership directory.
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

func recordKey(addr [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", recordPrefix, addr))
}

func listKey(index uint32) []byte {
	return []byte(fmt.Sprintf("%s%d", listPrefix, index))
}

// Directory wires membership bookkeeping with persistence and event emission.
type Directory struct {
	store   storage
	emitter events.Emitter
	pause   common.PauseView
	nowFn   func() int64
}

// NewDirectory constructs a directory bound to the provided storage backend.
func NewDirectory(store storage) *Directory {
	return &Directory{
		store:   store,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetEmitter configures the event emitter used by the directory.
func (d *Directory) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		d.emitter = events.NoopEmitter{}
		return
	}
	d.emitter = emitter
}

// SetPauseView wires the shared pause flag.
func (d *Directory) SetPauseView(pause common.PauseView) { d.pause = pause }

// SetNowFunc overrides the time source used for deterministic testing.
func (d *Directory) SetNowFunc(now func() int64) {
	if now == nil {
		d.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	d.nowFn = now
}

func (d *Directory) now() uint64 {
	ts := d.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (d *Directory) emit(evt *types.Event) {
	if d == nil || evt == nil || d.emitter == nil {
		return
	}
	d.emitter.Emit(eventEnvelope{evt: evt})
}

// Member returns the record for the address. The boolean reports whether the
// address is registered.
func (d *Directory) Member(addr [20]byte) (*Record, bool, error) {
	record := &Record{}
	ok, err := d.store.KVGet(recordKey(addr), record)
	if err != nil {
		return nil, false, err
	}
	if !ok || record.LastActivity == 0 {
		return nil, false, nil
	}
	return record, true, nil
}

// PutRecord persists an updated record for a registered address. The reward
// machinery uses it after mutating counters.
func (d *Directory) PutRecord(addr [20]byte, record *Record) error {
	return d.store.KVPut(recordKey(addr), record)
}

// TotalUsers returns the number of registered addresses.
func (d *Directory) TotalUsers() (uint32, error) {
	var count uint32
	ok, err := d.store.KVGet(countKey, &count)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return count, nil
}

// MemberAtIndex returns the address registered at the given sequence number.
func (d *Directory) MemberAtIndex(index uint32) ([20]byte, error) {
	count, err := d.TotalUsers()
	if err != nil {
		return [20]byte{}, err
	}
	if index >= count {
		return [20]byte{}, ErrIndexOutOfRange
	}
	var addr [20]byte
	if _, err := d.store.KVGet(listKey(index), &addr); err != nil {
		return [20]byte{}, err
	}
	return addr, nil
}

// AllMembers returns every registered address in registration order.
func (d *Directory) AllMembers() ([][20]byte, error) {
	count, err := d.TotalUsers()
	if err != nil {
		return nil, err
	}
	out := make([][20]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		addr, err := d.MemberAtIndex(i)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

func (d *Directory) register(addr [20]byte, now uint64) error {
	count, err := d.TotalUsers()
	if err != nil {
		return err
	}
	newCount, err := safemath.AddU32(count, 1)
	if err != nil {
		return err
	}
	record := &Record{
		SequenceNumber: count,
		RegisteredAt:   now,
		LastActivity:   now,
	}
	if err := d.store.KVPut(recordKey(addr), record); err != nil {
		return err
	}
	if err := d.store.KVPut(listKey(count), addr); err != nil {
		return err
	}
	if err := d.store.KVPut(countKey, newCount); err != nil {
		return err
	}
	d.emit(&types.Event{Type: EventTypeRegistered, Attributes: map[string]string{
		"address":  fmt.Sprintf("0x%x", addr),
		"sequence": fmt.Sprintf("%d", record.SequenceNumber),
	}})
	return nil
}

// SignUp creates the caller's membership record. A record may be created
// exactly once per address.
func (d *Directory) SignUp(caller [20]byte) error {
	if err := common.Guard(d.pause); err != nil {
		return err
	}
	if _, registered, err := d.Member(caller); err != nil {
		return err
	} else if registered {
		return ErrAlreadyRegistered
	}
	return d.register(caller, d.now())
}

// BatchSignUp registers every address in the batch, silently skipping any
// address that is already registered. It returns the number of records
// created. Owner gating lives in the orchestrator.
func (d *Directory) BatchSignUp(addrs [][20]byte) (int, error) {
	added := 0
	now := d.now()
	for _, addr := range addrs {
		if _, registered, err := d.Member(addr); err != nil {
			return added, err
		} else if registered {
			continue
		}
		if err := d.register(addr, now); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
