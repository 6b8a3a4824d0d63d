package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/0xfern/dexarb/internal/crypto"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, merges secrets from the optional encrypted vault, and
// applies DEXARB_* environment variable overrides (which win over both).
// The returned Config has NOT been validated; the caller should invoke
// Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	setStr(&cfg.SecretsFile, "DEXARB_SECRETS_FILE")
	if cfg.SecretsFile != "" {
		secrets, err := crypto.LoadVault(cfg.SecretsFile, os.Getenv("DEXARB_SECRETS_PASSWORD"))
		if err != nil {
			return nil, fmt.Errorf("config: loading secrets vault: %w", err)
		}
		applyVaultSecrets(&cfg, secrets)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyVaultSecrets copies well-known entries from the decrypted vault into
// the corresponding Config fields.
func applyVaultSecrets(cfg *Config, secrets map[string]string) {
	targets := map[string]*string{
		"paraswap_api_key":       &cfg.Paraswap.APIKey,
		"oneinch_api_key":        &cfg.OneInch.APIKey,
		"cmc_api_key":            &cfg.CMC.APIKey,
		"coinlib_api_key":        &cfg.Coinlib.APIKey,
		"sentiment_bearer_token": &cfg.Sentiment.BearerToken,
		"postgres_dsn":           &cfg.Postgres.DSN,
		"postgres_password":      &cfg.Postgres.Password,
		"redis_password":         &cfg.Redis.Password,
		"s3_access_key":          &cfg.S3.AccessKey,
		"s3_secret_key":          &cfg.S3.SecretKey,
		"telegram_token":         &cfg.Notify.TelegramToken,
		"discord_webhook_url":    &cfg.Notify.DiscordWebhookURL,
		"server_api_key":         &cfg.Server.APIKey,
	}

	for name, dst := range targets {
		if v, ok := secrets[name]; ok && v != "" {
			*dst = v
		}
	}
}

// applyEnvOverrides reads well-known DEXARB_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet / chain ──
	setStr(&cfg.Wallet.Address, "DEXARB_WALLET_ADDRESS")
	setStr(&cfg.Chain.RPCEndpoint, "DEXARB_CHAIN_RPC_ENDPOINT")
	setInt(&cfg.Chain.ChainID, "DEXARB_CHAIN_ID")
	setFloat64(&cfg.Chain.MaxGasPriceGwei, "DEXARB_CHAIN_MAX_GAS_PRICE_GWEI")
	setStr(&cfg.Chain.NativeSymbol, "DEXARB_CHAIN_NATIVE_SYMBOL")

	// ── Venues ──
	setStr(&cfg.Paraswap.BaseURL, "DEXARB_PARASWAP_BASE_URL")
	setStr(&cfg.Paraswap.APIKey, "DEXARB_PARASWAP_API_KEY")
	setStr(&cfg.OneInch.BaseURL, "DEXARB_ONEINCH_BASE_URL")
	setStr(&cfg.OneInch.APIKey, "DEXARB_ONEINCH_API_KEY")
	setStr(&cfg.CMC.BaseURL, "DEXARB_CMC_BASE_URL")
	setStr(&cfg.CMC.APIKey, "DEXARB_CMC_API_KEY")
	setStr(&cfg.Coinlib.BaseURL, "DEXARB_COINLIB_BASE_URL")
	setStr(&cfg.Coinlib.APIKey, "DEXARB_COINLIB_API_KEY")

	// ── Arbitrage ──
	setFloat64(&cfg.Arbitrage.Slippage, "DEXARB_ARBITRAGE_SLIPPAGE")
	setFloat64(&cfg.Arbitrage.MinProfit, "DEXARB_ARBITRAGE_MIN_PROFIT")
	setFloat64(&cfg.Arbitrage.MinProfitPercent, "DEXARB_ARBITRAGE_MIN_PROFIT_PERCENT")
	setDuration(&cfg.Arbitrage.TradeHorizon, "DEXARB_ARBITRAGE_TRADE_HORIZON")
	setDuration(&cfg.Arbitrage.PollInterval, "DEXARB_ARBITRAGE_POLL_INTERVAL")

	// ── Sentiment ──
	setBool(&cfg.Sentiment.Enabled, "DEXARB_SENTIMENT_ENABLED")
	setStr(&cfg.Sentiment.BaseURL, "DEXARB_SENTIMENT_BASE_URL")
	setStr(&cfg.Sentiment.BearerToken, "DEXARB_SENTIMENT_BEARER_TOKEN")
	setInt(&cfg.Sentiment.MaxTweetsPerTerm, "DEXARB_SENTIMENT_MAX_TWEETS_PER_TERM")
	setDuration(&cfg.Sentiment.ScrapeInterval, "DEXARB_SENTIMENT_SCRAPE_INTERVAL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "DEXARB_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "DEXARB_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "DEXARB_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "DEXARB_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "DEXARB_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "DEXARB_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "DEXARB_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "DEXARB_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "DEXARB_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "DEXARB_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "DEXARB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "DEXARB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "DEXARB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "DEXARB_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "DEXARB_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "DEXARB_REDIS_TLS_ENABLED")

	// ── S3 / archive ──
	setStr(&cfg.S3.Endpoint, "DEXARB_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "DEXARB_S3_REGION")
	setStr(&cfg.S3.Bucket, "DEXARB_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "DEXARB_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "DEXARB_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "DEXARB_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "DEXARB_S3_FORCE_PATH_STYLE")
	setBool(&cfg.Archive.Enabled, "DEXARB_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "DEXARB_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Archive.Interval, "DEXARB_ARCHIVE_INTERVAL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "DEXARB_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "DEXARB_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "DEXARB_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "DEXARB_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "DEXARB_SERVER_RATE_LIMIT_PER_MIN")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "DEXARB_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "DEXARB_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "DEXARB_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "DEXARB_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "DEXARB_MODE")
	setStr(&cfg.LogLevel, "DEXARB_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
