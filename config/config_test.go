package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, uint64(1000), cfg.MinimumFee)
	require.Equal(t, uint64(50), cfg.RoyaltyFeePerMille)
	require.Equal(t, uint64(15), cfg.WaitingRounds)
	require.Equal(t, "./market-data", cfg.DataDir)

	// a second load reads the file it just wrote
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadAppliesDefaultsToSparseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	sparse := `ContractAddress = "0x4d41524b45542d434f4e54524143542d41434354"
FeeSink = "0x4645452d53494e4b2d4645452d53494e4b2d4645"
`
	require.NoError(t, os.WriteFile(path, []byte(sparse), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), cfg.MinimumFee)
	require.Equal(t, uint64(50), cfg.RoyaltyFeePerMille)
	require.Equal(t, uint64(15), cfg.WaitingRounds)
}

func TestLoadRejectsBadRoyalty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	bad := `ContractAddress = "0x4d41524b45542d434f4e54524143542d41434354"
FeeSink = "0x4645452d53494e4b2d4645452d53494e4b2d4645"
RoyaltyFeePerMille = 1001
`
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateCollaborators(t *testing.T) {
	base := Config{
		DataDir:            "./market-data",
		MinimumFee:         1000,
		ContractAddress:    "0x4d41524b45542d434f4e54524143542d41434354",
		FeeSink:            "0x4645452d53494e4b2d4645452d53494e4b2d4645",
		RoyaltyFeePerMille: 50,
		WaitingRounds:      15,
	}

	cfg := base
	cfg.Collaborators = []Payout{
		{Address: "0x0101010101010101010101010101010101010101", ShareMille: 600},
		{Address: "0x0202020202020202020202020202020202020202", ShareMille: 400},
	}
	require.NoError(t, cfg.Validate())

	cfg = base
	cfg.Collaborators = []Payout{
		{Address: "0x0101010101010101010101010101010101010101", ShareMille: 600},
		{Address: "0x0202020202020202020202020202020202020202", ShareMille: 300},
	}
	require.Error(t, cfg.Validate(), "shares not summing to 1000 must be rejected")

	cfg = base
	cfg.Collaborators = []Payout{{Address: "not-an-address", ShareMille: 1000}}
	require.Error(t, cfg.Validate())
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x0102030405060708090a0b0c0d0e0f1011121314")
	require.NoError(t, err)
	require.Equal(t, byte(0x01), addr[0])
	require.Equal(t, byte(0x14), addr[19])

	// the prefix is optional
	same, err := ParseAddress("0102030405060708090a0b0c0d0e0f1011121314")
	require.NoError(t, err)
	require.Equal(t, addr, same)

	_, err = ParseAddress("0x0102")
	require.Error(t, err)
	_, err = ParseAddress("0xzz02030405060708090a0b0c0d0e0f1011121314")
	require.Error(t, err)
}
