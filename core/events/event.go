package events

import "sync"

// Event represents a structured state change emitted by the ledger.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// MemoryEmitter accumulates emitted events in order. Safe for concurrent use.
// Primarily used by tests and by the RPC event log endpoint.
type MemoryEmitter struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryEmitter constructs an empty in-memory event log.
func NewMemoryEmitter() *MemoryEmitter {
	return &MemoryEmitter{}
}

// Emit implements the Emitter interface.
func (m *MemoryEmitter) Emit(evt Event) {
	if m == nil || evt == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

// Events returns the captured events in emission order.
func (m *MemoryEmitter) Events() []Event {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// BufferedEmitter stages events for one in-flight operation. Flush forwards
// the staged events to the sink in emission order; Discard drops them, so an
// operation that is rolled back never reaches the sink. Not safe for
// concurrent use; callers serialise operations around it.
type BufferedEmitter struct {
	sink    Emitter
	pending []Event
}

// NewBufferedEmitter constructs a buffer draining into sink.
func NewBufferedEmitter(sink Emitter) *BufferedEmitter {
	return &BufferedEmitter{sink: sink}
}

// Emit implements the Emitter interface.
func (b *BufferedEmitter) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	b.pending = append(b.pending, evt)
}

// Flush hands the staged events to the sink and empties the buffer.
func (b *BufferedEmitter) Flush() {
	if b == nil {
		return
	}
	for _, evt := range b.pending {
		if b.sink != nil {
			b.sink.Emit(evt)
		}
	}
	b.pending = nil
}

// Discard drops the staged events without forwarding them.
func (b *BufferedEmitter) Discard() {
	if b == nil {
		return
	}
	b.pending = nil
}
