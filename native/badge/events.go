package badge

import (
	"fmt"

	"grumblechain/core/events"
	"grumblechain/core/types"
)

const (
	// EventTypeMinted is emitted when a new badge is created.
	EventTypeMinted = "badge.minted"
	// EventTypeTransferred is emitted on every ownership change.
	EventTypeTransferred = "badge.transferred"
	// EventTypeApproved is emitted when a per-token spender is approved.
	EventTypeApproved = "badge.approved"
	// EventTypeOperatorSet is emitted when an approval-for-all grant changes.
	EventTypeOperatorSet = "badge.operator_set"
)

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

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func hexAddr(addr [20]byte) string {
	return fmt.Sprintf("0x%x", addr)
}

// MintedEvent returns the structured payload for badge creation.
func MintedEvent(owner [20]byte, id uint64) *types.Event {
	return &types.Event{
		Type: EventTypeMinted,
		Attributes: map[string]string{
			"owner": hexAddr(owner),
			"id":    fmt.Sprintf("%d", id),
		},
	}
}

// TransferredEvent returns the structured payload for ownership changes.
func TransferredEvent(from, to [20]byte, id uint64) *types.Event {
	return &types.Event{
		Type: EventTypeTransferred,
		Attributes: map[string]string{
			"from": hexAddr(from),
			"to":   hexAddr(to),
			"id":   fmt.Sprintf("%d", id),
		},
	}
}

// ApprovedEvent returns the structured payload for per-token approvals.
func ApprovedEvent(owner, spender [20]byte, id uint64) *types.Event {
	return &types.Event{
		Type: EventTypeApproved,
		Attributes: map[string]string{
			"owner":   hexAddr(owner),
			"spender": hexAddr(spender),
			"id":      fmt.Sprintf("%d", id),
		},
	}
}

// OperatorSetEvent returns the structured payload for approval-for-all grants.
func OperatorSetEvent(owner, operator [20]byte, approved bool) *types.Event {
	return &types.Event{
		Type: EventTypeOperatorSet,
		Attributes: map[string]string{
			"owner":    hexAddr(owner),
			"operator": hexAddr(operator),
			"approved": fmt.Sprintf("%t", approved),
		},
	}
}
