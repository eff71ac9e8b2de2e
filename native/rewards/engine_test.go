package rewards

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"grumblechain/native/membership"
)

type payout struct {
	from   [20]byte
	to     [20]byte
	amount *uint256.Int
}

type stubGateway struct {
	payouts []payout
	fail    error
}

func (g *stubGateway) Transfer(from, to [20]byte, amount *uint256.Int) error {
	if g.fail != nil {
		return g.fail
	}
	g.payouts = append(g.payouts, payout{from: from, to: to, amount: amount.Clone()})
	return nil
}

func (g *stubGateway) TransferFrom(spender, from, to [20]byte, amount *uint256.Int) error {
	return errors.New("unexpected pull")
}

func (g *stubGateway) Allowance(owner, spender [20]byte) (*uint256.Int, error) {
	return uint256.NewInt(0), nil
}

func (g *stubGateway) BalanceOf(owner [20]byte) (*uint256.Int, error) {
	return uint256.NewInt(0), nil
}

func (g *stubGateway) Decimals() uint8 { return 18 }

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

var treasury = addr(0xFF)

func newEngine(cap uint32, amount uint64) (*Engine, *stubGateway) {
	engine := NewEngine(treasury, cap, uint256.NewInt(amount))
	gateway := &stubGateway{}
	engine.SetGateway(gateway)
	return engine, gateway
}

func TestCreditPaysUnderCap(t *testing.T) {
	engine, gateway := newEngine(2, 10)
	caller := addr(0x01)
	record := &membership.Record{LastActivity: 1_700_000_000}

	paid, err := engine.Credit(record, caller, 1_700_000_100)
	if err != nil || !paid {
		t.Fatalf("first credit paid=%v err=%v", paid, err)
	}
	paid, err = engine.Credit(record, caller, 1_700_000_200)
	if err != nil || !paid {
		t.Fatalf("second credit paid=%v err=%v", paid, err)
	}
	if record.RewardCountToday != 2 {
		t.Fatalf("unexpected counter: %d", record.RewardCountToday)
	}
	if len(gateway.payouts) != 2 {
		t.Fatalf("expected 2 payouts, got %d", len(gateway.payouts))
	}
	for i, p := range gateway.payouts {
		if p.from != treasury || p.to != caller || p.amount.Uint64() != 10 {
			t.Fatalf("payout %d routed %x -> %x amount %s", i, p.from, p.to, p.amount)
		}
	}
}

func TestCreditCapSuppressesPayout(t *testing.T) {
	engine, gateway := newEngine(1, 10)
	caller := addr(0x01)
	record := &membership.Record{LastActivity: 1_700_000_000}

	if paid, err := engine.Credit(record, caller, 1_700_000_100); err != nil || !paid {
		t.Fatalf("first credit paid=%v err=%v", paid, err)
	}
	paid, err := engine.Credit(record, caller, 1_700_000_200)
	if err != nil {
		t.Fatalf("capped credit errored: %v", err)
	}
	if paid {
		t.Fatalf("payout over the cap")
	}
	if len(gateway.payouts) != 1 {
		t.Fatalf("expected 1 payout, got %d", len(gateway.payouts))
	}
	if record.LastActivity != 1_700_000_200 {
		t.Fatalf("activity not stamped on capped credit: %d", record.LastActivity)
	}
}

func TestCreditResetsAcrossDayBoundary(t *testing.T) {
	engine, _ := newEngine(1, 10)
	caller := addr(0x01)
	record := &membership.Record{LastActivity: 1_700_000_000}

	if paid, err := engine.Credit(record, caller, 1_700_000_000); err != nil || !paid {
		t.Fatalf("seed credit paid=%v err=%v", paid, err)
	}
	if paid, _ := engine.Credit(record, caller, 1_700_000_100); paid {
		t.Fatalf("same-day credit should be capped")
	}
	// 90000 seconds later the UTC+9 calendar day has advanced, so the
	// counter resets and the payout resumes.
	paid, err := engine.Credit(record, caller, 1_700_090_000)
	if err != nil || !paid {
		t.Fatalf("next-day credit paid=%v err=%v", paid, err)
	}
	if record.RewardCountToday != 1 {
		t.Fatalf("counter not reset: %d", record.RewardCountToday)
	}
}

func TestCreditSameDayNumberDifferentMonth(t *testing.T) {
	engine, _ := newEngine(1, 10)
	caller := addr(0x01)

	// Both timestamps fall on the 15th in the UTC+9 frame; the month
	// fallback still detects the boundary.
	oct := uint64(1_697_300_000) // 2023-10-15 UTC+9
	nov := uint64(1_699_978_400) // 2023-11-15 UTC+9
	record := &membership.Record{LastActivity: oct, RewardCountToday: 1}

	paid, err := engine.Credit(record, caller, nov)
	if err != nil || !paid {
		t.Fatalf("cross-month credit paid=%v err=%v", paid, err)
	}
}

func TestCreditGatewayFailureAborts(t *testing.T) {
	engine, gateway := newEngine(1, 10)
	gateway.fail = errors.New("gateway down")
	caller := addr(0x01)
	record := &membership.Record{LastActivity: 1_700_000_000}

	last := record.LastActivity
	if _, err := engine.Credit(record, caller, 1_700_000_100); err == nil {
		t.Fatalf("expected gateway failure to propagate")
	}
	if record.LastActivity != last {
		t.Fatalf("activity stamped on failed credit")
	}
}

func TestCreditNoGateway(t *testing.T) {
	engine := NewEngine(treasury, 1, uint256.NewInt(10))
	record := &membership.Record{LastActivity: 1_700_000_000}
	if _, err := engine.Credit(record, addr(0x01), 1_700_000_100); !errors.Is(err, ErrGatewayNotSet) {
		t.Fatalf("expected gateway-not-set, got %v", err)
	}
}
