// Package config loads the node configuration from a TOML file and applies
// defaults for anything left unset.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	ErrOwnerRequired    = errors.New("config: owner address is required")
	ErrTreasuryRequired = errors.New("config: treasury address is required")
)

// Config is the on-disk node configuration. Token amounts are expressed in
// whole tokens; the node scales them by the gateway's decimals at boot.
type Config struct {
	ListenAddress   string   `toml:"ListenAddress"`
	DataDir         string   `toml:"DataDir"`
	AdminToken      string   `toml:"AdminToken"`
	OwnerAddress    string   `toml:"OwnerAddress"`
	TreasuryAddress string   `toml:"TreasuryAddress"`
	RewardAmount    uint64   `toml:"RewardAmount"`
	DailyRewardCap  uint32   `toml:"DailyRewardCap"`
	RenameCost      uint64   `toml:"RenameCost"`
	LevelCosts      []uint64 `toml:"LevelCosts"`
}

// Default returns the configuration used when a field is absent.
func Default() Config {
	return Config{
		ListenAddress:  ":8645",
		DataDir:        "./data",
		RewardAmount:   1,
		DailyRewardCap: 1,
		RenameCost:     10,
		LevelCosts:     []uint64{100, 200, 400},
	}
}

// Load reads the TOML file at path. A missing file yields the defaults; set
// fields override them.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields the node cannot boot without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OwnerAddress) == "" {
		return ErrOwnerRequired
	}
	if _, err := ParseAddress(c.OwnerAddress); err != nil {
		return err
	}
	if strings.TrimSpace(c.TreasuryAddress) == "" {
		return ErrTreasuryRequired
	}
	if _, err := ParseAddress(c.TreasuryAddress); err != nil {
		return err
	}
	return nil
}

// ParseAddress decodes a 0x-prefixed 20-byte hex address.
func ParseAddress(s string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, fmt.Errorf("config: address %q: %w", s, err)
	}
	if len(raw) != 20 {
		return out, fmt.Errorf("config: address %q: want 20 bytes, got %d", s, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
