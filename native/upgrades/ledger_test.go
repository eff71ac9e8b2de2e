package upgrades

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"grumblechain/native/common"
)

type mockStore struct {
	data map[string][]byte
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) KVGet(key []byte, out interface{}) (bool, error) {
	data, ok := m.data[string(key)]
	if !ok {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *mockStore) KVPut(key []byte, value interface{}) error {
	data, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.data[string(key)] = data
	return nil
}

type stubBadges struct {
	holdings map[[20]byte][]uint64
}

func (s *stubBadges) BalanceOf(owner [20]byte) (uint64, error) {
	return uint64(len(s.holdings[owner])), nil
}

func (s *stubBadges) TokenOfOwnerByIndex(owner [20]byte, index uint64) (uint64, error) {
	list := s.holdings[owner]
	if index >= uint64(len(list)) {
		return 0, errors.New("index out of range")
	}
	return list[index], nil
}

type pull struct {
	from   [20]byte
	to     [20]byte
	amount *uint256.Int
}

type stubGateway struct {
	allowances map[[20]byte]*uint256.Int
	pulls      []pull
	failPull   error
}

func newStubGateway() *stubGateway {
	return &stubGateway{allowances: make(map[[20]byte]*uint256.Int)}
}

func (g *stubGateway) Transfer(from, to [20]byte, amount *uint256.Int) error { return nil }

func (g *stubGateway) TransferFrom(spender, from, to [20]byte, amount *uint256.Int) error {
	if g.failPull != nil {
		return g.failPull
	}
	g.pulls = append(g.pulls, pull{from: from, to: to, amount: amount.Clone()})
	return nil
}

func (g *stubGateway) Allowance(owner, spender [20]byte) (*uint256.Int, error) {
	if amount, ok := g.allowances[owner]; ok {
		return amount.Clone(), nil
	}
	return uint256.NewInt(0), nil
}

func (g *stubGateway) BalanceOf(owner [20]byte) (*uint256.Int, error) {
	return uint256.NewInt(0), nil
}

func (g *stubGateway) Decimals() uint8 { return 18 }

type pauseFlag bool

func (p pauseFlag) IsPaused() bool { return bool(p) }

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

var (
	operator = addr(0xEE)
	treasury = addr(0xFF)
)

func newFixture(t *testing.T, holder [20]byte, costs ...uint64) (*Ledger, *stubGateway) {
	t.Helper()
	badges := &stubBadges{holdings: map[[20]byte][]uint64{holder: {42}}}
	ledger := NewLedger(newMockStore(), badges, operator, treasury)
	gateway := newStubGateway()
	ledger.SetGateway(gateway)
	for i, cost := range costs {
		if err := ledger.AppendLevelCost(uint64(i)+1, uint256.NewInt(cost)); err != nil {
			t.Fatalf("seeding tier %d failed: %v", i+1, err)
		}
	}
	return ledger, gateway
}

func TestLevelUpHappyPath(t *testing.T) {
	holder := addr(0x01)
	ledger, gateway := newFixture(t, holder, 100, 200, 300)
	gateway.allowances[holder] = uint256.NewInt(1_000)

	for want := uint64(1); want <= 3; want++ {
		if err := ledger.LevelUp(holder); err != nil {
			t.Fatalf("level up to %d failed: %v", want, err)
		}
		profile, err := ledger.Profile(42)
		if err != nil || profile.Level != want {
			t.Fatalf("unexpected level %d err %v", profile.Level, err)
		}
	}
	if len(gateway.pulls) != 3 {
		t.Fatalf("expected 3 pulls, got %d", len(gateway.pulls))
	}
	for i, want := range []uint64{100, 200, 300} {
		if gateway.pulls[i].amount.Uint64() != want {
			t.Fatalf("pull %d charged %s, want %d", i, gateway.pulls[i].amount, want)
		}
		if gateway.pulls[i].from != holder || gateway.pulls[i].to != treasury {
			t.Fatalf("pull %d routed %x -> %x", i, gateway.pulls[i].from, gateway.pulls[i].to)
		}
	}
	// Table exhausted: further attempts fail regardless of allowance.
	if err := ledger.LevelUp(holder); !errors.Is(err, ErrMaxLevelReached) {
		t.Fatalf("expected max level, got %v", err)
	}
}

func TestLevelUpAllowanceBoundary(t *testing.T) {
	holder := addr(0x01)
	ledger, gateway := newFixture(t, holder, 100)

	gateway.allowances[holder] = uint256.NewInt(99)
	if err := ledger.LevelUp(holder); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected allowance rejection, got %v", err)
	}
	gateway.allowances[holder] = uint256.NewInt(100)
	if err := ledger.LevelUp(holder); err != nil {
		t.Fatalf("exact allowance should succeed: %v", err)
	}
}

func TestLevelUpRequiresBadge(t *testing.T) {
	holder := addr(0x01)
	ledger, _ := newFixture(t, holder, 100)
	if err := ledger.LevelUp(addr(0x99)); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected membership rejection, got %v", err)
	}
}

func TestVoucherLifecycle(t *testing.T) {
	holder := addr(0x01)
	ledger, gateway := newFixture(t, holder)
	if err := ledger.SetRenameCost(uint256.NewInt(50)); err != nil {
		t.Fatalf("set rename cost failed: %v", err)
	}

	if err := ledger.ApplyRename(holder, "sprout"); !errors.Is(err, ErrNoVoucher) {
		t.Fatalf("expected no-voucher rejection, got %v", err)
	}
	gateway.allowances[holder] = uint256.NewInt(49)
	if err := ledger.PurchaseRenameVoucher(holder); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected allowance rejection, got %v", err)
	}
	gateway.allowances[holder] = uint256.NewInt(50)
	if err := ledger.PurchaseRenameVoucher(holder); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	if err := ledger.PurchaseRenameVoucher(holder); !errors.Is(err, ErrVoucherAlreadyHeld) {
		t.Fatalf("expected duplicate voucher rejection, got %v", err)
	}

	if err := ledger.ApplyRename(holder, "sprout"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	profile, err := ledger.Profile(42)
	if err != nil {
		t.Fatalf("profile query failed: %v", err)
	}
	if profile.Nickname != "sprout" {
		t.Fatalf("nickname not applied: %q", profile.Nickname)
	}
	if profile.VoucherHeld {
		t.Fatalf("voucher should be consumed by rename")
	}
	// Voucher is single-use.
	if err := ledger.ApplyRename(holder, "again"); !errors.Is(err, ErrNoVoucher) {
		t.Fatalf("expected consumed voucher rejection, got %v", err)
	}
}

func TestCostTableAdmin(t *testing.T) {
	holder := addr(0x01)
	ledger, _ := newFixture(t, holder, 100, 200)

	// Appending must extend the table by exactly one.
	if err := ledger.AppendLevelCost(4, uint256.NewInt(400)); !errors.Is(err, ErrInvalidTier) {
		t.Fatalf("expected gap rejection, got %v", err)
	}
	if err := ledger.AppendLevelCost(3, uint256.NewInt(300)); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := ledger.SetLevelCost(2, uint256.NewInt(250)); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if err := ledger.SetLevelCost(9, uint256.NewInt(1)); !errors.Is(err, ErrUnknownTier) {
		t.Fatalf("expected unknown tier, got %v", err)
	}
	costs, err := ledger.LevelCosts()
	if err != nil {
		t.Fatalf("cost query failed: %v", err)
	}
	if len(costs) != 3 || costs[1].Uint64() != 250 || costs[2].Uint64() != 300 {
		t.Fatalf("unexpected table: %v", costs)
	}
}

func TestGatewayFailureAborts(t *testing.T) {
	holder := addr(0x01)
	ledger, gateway := newFixture(t, holder, 100)
	gateway.allowances[holder] = uint256.NewInt(100)
	gateway.failPull = errors.New("gateway down")

	if err := ledger.LevelUp(holder); err == nil {
		t.Fatalf("expected gateway failure to propagate")
	}
}

func TestPausedLedger(t *testing.T) {
	holder := addr(0x01)
	ledger, gateway := newFixture(t, holder, 100)
	gateway.allowances[holder] = uint256.NewInt(100)
	ledger.SetPauseView(pauseFlag(true))

	if err := ledger.LevelUp(holder); !errors.Is(err, common.ErrSystemPaused) {
		t.Fatalf("expected pause rejection, got %v", err)
	}
	if err := ledger.PurchaseRenameVoucher(holder); !errors.Is(err, common.ErrSystemPaused) {
		t.Fatalf("expected pause rejection, got %v", err)
	}
	if err := ledger.ApplyRename(holder, "x"); !errors.Is(err, common.ErrSystemPaused) {
		t.Fatalf("expected pause rejection, got %v", err)
	}
}
