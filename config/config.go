package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Payout names one collaborator of the split plan in the configuration file.
type Payout struct {
	Address    string `toml:"Address"`
	ShareMille uint64 `toml:"ShareMille"`
}

// Config carries the host-side parameters: where state lives, the fee
// schedule, and the defaults used when initializing a contract instance.
type Config struct {
	DataDir            string   `toml:"DataDir"`
	MinimumFee         uint64   `toml:"MinimumFee"`
	ContractAddress    string   `toml:"ContractAddress"`
	FeeSink            string   `toml:"FeeSink"`
	RoyaltyFeePerMille uint64   `toml:"RoyaltyFeePerMille"`
	WaitingRounds      uint64   `toml:"WaitingRounds"`
	Collaborators      []Payout `toml:"Collaborators"`
}

const defaultConfig = `DataDir = "./market-data"
MinimumFee = 1000
ContractAddress = "0x4d41524b45542d434f4e54524143542d41434354"
FeeSink = "0x4645452d53494e4b2d4645452d53494e4b2d4645"
RoyaltyFeePerMille = 50
WaitingRounds = 15
`

// Load reads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if _, err := toml.Decode(defaultConfig, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, cfg.Validate()
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./market-data"
	}
	if cfg.MinimumFee == 0 {
		cfg.MinimumFee = 1000
	}
	if cfg.RoyaltyFeePerMille == 0 {
		cfg.RoyaltyFeePerMille = 50
	}
	if cfg.WaitingRounds == 0 {
		cfg.WaitingRounds = 15
	}
}

// Validate rejects configurations the engine would refuse anyway.
func (c *Config) Validate() error {
	if c.RoyaltyFeePerMille < 1 || c.RoyaltyFeePerMille > 1000 {
		return fmt.Errorf("config: RoyaltyFeePerMille must be between 1 and 1000, got %d", c.RoyaltyFeePerMille)
	}
	if _, err := ParseAddress(c.ContractAddress); err != nil {
		return fmt.Errorf("config: ContractAddress: %w", err)
	}
	if _, err := ParseAddress(c.FeeSink); err != nil {
		return fmt.Errorf("config: FeeSink: %w", err)
	}
	var shareSum uint64
	for i, payout := range c.Collaborators {
		if _, err := ParseAddress(payout.Address); err != nil {
			return fmt.Errorf("config: Collaborators[%d]: %w", i, err)
		}
		shareSum += payout.ShareMille
	}
	if len(c.Collaborators) > 0 && shareSum != 1000 {
		return fmt.Errorf("config: collaborator shares must sum to 1000, got %d", shareSum)
	}
	return nil
}

// ParseAddress decodes a 0x-prefixed 20-byte hex address.
func ParseAddress(s string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("invalid hex address %q", s)
	}
	if len(raw) != len(addr) {
		return addr, fmt.Errorf("address must be 20 bytes, got %d", len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}
