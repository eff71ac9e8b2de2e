// Package rewards decides whether a posting member may still be paid today
// and executes the payout through the balance gateway. Day boundaries are
// evaluated in a fixed UTC+9 frame.
package rewards

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"grumblechain/core/events"
	"grumblechain/core/types"
	"grumblechain/native/calendar"
	"grumblechain/native/membership"
	"grumblechain/native/safemath"
	"grumblechain/native/token"
)

// ErrGatewayNotSet marks payout attempts before the gateway is configured.
var ErrGatewayNotSet = errors.New("rewards: gateway not configured")

const (
	// EventTypePaid is emitted for every successful payout.
	EventTypePaid = "reward.paid"
	// EventTypeCapReached is emitted when the daily cap suppresses a payout.
	EventTypeCapReached = "reward.cap_reached"
)

// utcOffsetSeconds shifts timestamps into the UTC+9 frame before any
// day or month comparison.
const utcOffsetSeconds = 9 * 3600

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

// Engine evaluates the daily reward gate and pays out through the gateway.
type Engine struct {
	gateway  token.Gateway
	emitter  events.Emitter
	treasury [20]byte
	cap      uint32
	amount   *uint256.Int
}

// NewEngine constructs a reward engine paying from the treasury address.
func NewEngine(treasury [20]byte, cap uint32, amount *uint256.Int) *Engine {
	return &Engine{
		emitter:  events.NoopEmitter{},
		treasury: treasury,
		cap:      cap,
		amount:   amount.Clone(),
	}
}

// SetGateway points the engine at the balance gateway used for payouts.
func (e *Engine) SetGateway(gateway token.Gateway) { e.gateway = gateway }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetCap updates the maximum number of rewarded posts per calendar day.
func (e *Engine) SetCap(cap uint32) { e.cap = cap }

// Cap returns the configured daily reward cap.
func (e *Engine) Cap() uint32 { return e.cap }

// SetAmount updates the per-post payout.
func (e *Engine) SetAmount(amount *uint256.Int) { e.amount = amount.Clone() }

// Amount returns the configured per-post payout.
func (e *Engine) Amount() *uint256.Int { return e.amount.Clone() }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(eventEnvelope{evt: evt})
}

// boundaryCrossed compares the day-of-month numbers of the two shifted
// timestamps first and falls back to the month numbers. Matching day and
// month numbers in different years therefore alias; the comparison is kept
// exactly as the reward rules define it.
func boundaryCrossed(last, now uint64) bool {
	lastShifted := last + utcOffsetSeconds
	nowShifted := now + utcOffsetSeconds
	if calendar.DayOf(nowShifted) != calendar.DayOf(lastShifted) {
		return true
	}
	return calendar.MonthOf(nowShifted) != calendar.MonthOf(lastShifted)
}

// Credit runs the reward gate for one post: reset the counter when a day or
// month boundary was crossed since the member's last activity, pay out while
// under the cap, and stamp the activity time. A gateway failure aborts the
// call; the caller is expected to roll the whole post back.
func (e *Engine) Credit(record *membership.Record, caller [20]byte, now uint64) (bool, error) {
	if e.gateway == nil {
		return false, ErrGatewayNotSet
	}
	if boundaryCrossed(record.LastActivity, now) {
		record.RewardCountToday = 0
	}

	paid := false
	if record.RewardCountToday < e.cap {
		if err := e.gateway.Transfer(e.treasury, caller, e.amount); err != nil {
			return false, err
		}
		count, err := safemath.AddU32(record.RewardCountToday, 1)
		if err != nil {
			return false, err
		}
		record.RewardCountToday = count
		paid = true
		e.emit(&types.Event{Type: EventTypePaid, Attributes: map[string]string{
			"recipient":  fmt.Sprintf("0x%x", caller),
			"amount":     e.amount.Dec(),
			"countToday": fmt.Sprintf("%d", record.RewardCountToday),
		}})
	} else {
		e.emit(&types.Event{Type: EventTypeCapReached, Attributes: map[string]string{
			"recipient": fmt.Sprintf("0x%x", caller),
			"cap":       fmt.Sprintf("%d", e.cap),
		}})
	}

	record.LastActivity = now
	return paid, nil
}
