package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Wallet.Address = "0x90249ed4d69d70e709ffcd8bee2c5bd8d4d0c0be"
	cfg.CMC.APIKey = "cmc-key"
	cfg.Coinlib.APIKey = "coinlib-key"
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "yolo"
	cfg.Arbitrage.Slippage = 1.5
	cfg.Redis.Addr = ""

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "slippage")
	assert.Contains(t, err.Error(), "redis")
}

func TestValidate_PairSymbolsMustResolve(t *testing.T) {
	cfg := validConfig()
	cfg.Pairs = append(cfg.Pairs, "FOO/USDT")

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "FOO")
}

func TestValidate_RejectsDegeneratePair(t *testing.T) {
	cfg := validConfig()
	cfg.Pairs = []string{"USDT/USDT"}

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "USDT/USDT")
}

func TestValidate_WalletRequiredForSelection(t *testing.T) {
	cfg := validConfig()
	cfg.Wallet.Address = ""

	cfg.Mode = "monitor"
	assert.NoError(t, cfg.Validate())

	cfg.Mode = "select"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallet")
}

func TestLoad_MergesFileOverDefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
mode = "monitor"

[arbitrage]
slippage = 0.01
trade_horizon = "2h"

[coinmarketcap]
api_key = "from-file"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("DEXARB_CMC_API_KEY", "from-env")
	t.Setenv("DEXARB_REDIS_ADDR", "redis:6379")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "monitor", cfg.Mode)
	assert.Equal(t, 0.01, cfg.Arbitrage.Slippage)
	assert.Equal(t, "2h0m0s", cfg.Arbitrage.TradeHorizon.String())
	// Env wins over file; untouched fields keep defaults.
	assert.Equal(t, "from-env", cfg.CMC.APIKey)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 137, cfg.Chain.ChainID)
}

func TestRedactedConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Postgres.Password = "hunter2"
	cfg.Notify.TelegramToken = "tg-token"

	red := RedactedConfig(&cfg)

	assert.Equal(t, "***", red.CMC.APIKey)
	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.Notify.TelegramToken)
	// Original untouched.
	assert.Equal(t, "hunter2", cfg.Postgres.Password)

	// Mutating the copy's maps must not leak back.
	red.Tokens["USDT"] = "0xdead"
	assert.NotEqual(t, "0xdead", cfg.Tokens["USDT"])
}
