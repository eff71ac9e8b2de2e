package state

import (
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"grumblechain/storage"
)

// ErrInvalidSnapshot marks revert attempts against an unknown snapshot id.
var ErrInvalidSnapshot = errors.New("state: invalid snapshot")

// Manager provides typed key-value access on top of the raw database. Writes
// land in an in-memory overlay first; Commit flushes the overlay while
// Snapshot/RevertToSnapshot give composite operations all-or-nothing
// semantics. Keys are keccak-hashed so callers can use readable prefixes
// without leaking layout into the backend.
type Manager struct {
	db      storage.Database
	overlay map[string]*overlayEntry
	journal []journalEntry
}

type overlayEntry struct {
	value   []byte
	deleted bool
}

type journalEntry struct {
	key  string
	prev *overlayEntry
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:      db,
		overlay: make(map[string]*overlayEntry),
	}
}

func kvKey(key []byte) string {
	return string(ethcrypto.Keccak256(key))
}

// KVGet decodes the value stored under key into out. The boolean reports
// whether the key was present.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	hashed := kvKey(key)
	if entry, ok := m.overlay[hashed]; ok {
		if entry.deleted {
			return false, nil
		}
		if err := rlp.DecodeBytes(entry.value, out); err != nil {
			return false, fmt.Errorf("state: decode %q: %w", key, err)
		}
		return true, nil
	}
	data, err := m.db.Get([]byte(hashed))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

// KVPut encodes the value and stages it in the overlay.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	m.stage(kvKey(key), &overlayEntry{value: encoded})
	return nil
}

// KVDelete stages a deletion of the key.
func (m *Manager) KVDelete(key []byte) error {
	m.stage(kvKey(key), &overlayEntry{deleted: true})
	return nil
}

func (m *Manager) stage(hashed string, entry *overlayEntry) {
	prev, ok := m.overlay[hashed]
	if !ok {
		prev = nil
	}
	m.journal = append(m.journal, journalEntry{key: hashed, prev: prev})
	m.overlay[hashed] = entry
}

// Snapshot marks the current overlay position. The returned id is only valid
// until the next Commit.
func (m *Manager) Snapshot() int {
	return len(m.journal)
}

// RevertToSnapshot discards every staged write made after the snapshot.
func (m *Manager) RevertToSnapshot(id int) error {
	if id < 0 || id > len(m.journal) {
		return ErrInvalidSnapshot
	}
	for i := len(m.journal) - 1; i >= id; i-- {
		entry := m.journal[i]
		if entry.prev == nil {
			delete(m.overlay, entry.key)
		} else {
			m.overlay[entry.key] = entry.prev
		}
	}
	m.journal = m.journal[:id]
	return nil
}

// Commit flushes the overlay to the database and resets the journal. A failed
// flush leaves the overlay intact so the caller can retry or abandon.
func (m *Manager) Commit() error {
	for hashed, entry := range m.overlay {
		if entry.deleted {
			if err := m.db.Delete([]byte(hashed)); err != nil {
				return err
			}
			continue
		}
		if err := m.db.Put([]byte(hashed), entry.value); err != nil {
			return err
		}
	}
	m.overlay = make(map[string]*overlayEntry)
	m.journal = nil
	return nil
}
