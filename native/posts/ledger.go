// Package posts keeps the append-only log of submitted content. Entries are
// indexed by their position in the log and are never edited or removed.
package posts

import (
	"errors"
	"fmt"

	"grumblechain/core/events"
	"grumblechain/core/types"
	"grumblechain/native/safemath"
)

// ErrIndexOutOfRange marks lookups past the end of the log.
var ErrIndexOutOfRange = errors.New("posts: index out of range")

// EventTypePosted is emitted for every appended entry.
const EventTypePosted = "post.submitted"

var (
	entryPrefix = "posts/entry/"
	countKey    = []byte("posts/count")
)

// Entry is one immutable log record.
type Entry struct {
	Submitter  [20]byte `json:"submitter"`
	ExternalID string   `json:"externalId"`
	Contents   string   `json:"contents"`
	Tag        string   `json:"tag"`
	Timestamp  uint64   `json:"timestamp"`
}

// storage abstracts the subset of state manager functionality required by the
// post ledger.
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

func entryKey(index uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", entryPrefix, index))
}

// Ledger wires the content log with persistence and event emission.
type Ledger struct {
	store   storage
	emitter events.Emitter
}

// NewLedger constructs a post ledger bound to the provided storage backend.
func NewLedger(store storage) *Ledger {
	return &Ledger{store: store, emitter: events.NoopEmitter{}}
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

// Count returns the number of log entries. The next appended entry takes this
// value as its id.
func (l *Ledger) Count() (uint64, error) {
	var count uint64
	ok, err := l.store.KVGet(countKey, &count)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return count, nil
}

// Get returns the entry at the given index.
func (l *Ledger) Get(index uint64) (*Entry, error) {
	count, err := l.Count()
	if err != nil {
		return nil, err
	}
	if index >= count {
		return nil, ErrIndexOutOfRange
	}
	entry := &Entry{}
	if _, err := l.store.KVGet(entryKey(index), entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Post appends an entry and returns its id.
func (l *Ledger) Post(submitter [20]byte, externalID, contents, tag string, now uint64) (uint64, error) {
	count, err := l.Count()
	if err != nil {
		return 0, err
	}
	newCount, err := safemath.AddU64(count, 1)
	if err != nil {
		return 0, err
	}
	entry := &Entry{
		Submitter:  submitter,
		ExternalID: externalID,
		Contents:   contents,
		Tag:        tag,
		Timestamp:  now,
	}
	if err := l.store.KVPut(entryKey(count), entry); err != nil {
		return 0, err
	}
	if err := l.store.KVPut(countKey, newCount); err != nil {
		return 0, err
	}
	l.emit(&types.Event{Type: EventTypePosted, Attributes: map[string]string{
		"id":        fmt.Sprintf("%d", count),
		"submitter": fmt.Sprintf("0x%x", submitter),
		"tag":       tag,
		"total":     fmt.Sprintf("%d", newCount),
	}})
	return count, nil
}
