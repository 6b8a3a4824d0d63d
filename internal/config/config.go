// Package config defines the top-level configuration for the arbitrage
// engine and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by DEXARB_* environment variables.
type Config struct {
	Wallet    WalletConfig    `toml:"wallet"`
	Chain     ChainConfig     `toml:"chain"`
	Paraswap  VenueAPIConfig  `toml:"paraswap"`
	OneInch   VenueAPIConfig  `toml:"oneinch"`
	CMC       VenueAPIConfig  `toml:"coinmarketcap"`
	Coinlib   VenueAPIConfig  `toml:"coinlib"`
	Tokens    map[string]string `toml:"tokens"` // symbol -> contract address
	Pairs     []string        `toml:"pairs"`    // "BASE/QUOTE"
	Arbitrage ArbitrageConfig `toml:"arbitrage"`
	Sentiment SentimentConfig `toml:"sentiment"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Archive   ArchiveConfig   `toml:"archive"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`

	// SecretsFile points at an optional encrypted vault whose entries are
	// merged into the config at load time. The vault password comes from
	// DEXARB_SECRETS_PASSWORD and is never stored in TOML.
	SecretsFile string `toml:"secrets_file"`
}

// WalletConfig identifies the trading wallet whose balances gate collateral
// feasibility. The engine only reads balances; it never signs.
type WalletConfig struct {
	Address string `toml:"address"`
}

// ChainConfig holds RPC and lending-protocol parameters.
type ChainConfig struct {
	RPCEndpoint     string            `toml:"rpc_endpoint"`
	ChainID         int               `toml:"chain_id"`
	MaxGasPriceGwei float64           `toml:"max_gas_price_gwei"`
	NativeSymbol    string            `toml:"native_symbol"` // gas token symbol, e.g. "MATIC"
	LendingPools    map[string]string `toml:"lending_pools"`    // asset symbol -> pool address
	FallbackPools   map[string]string `toml:"fallback_pools"`   // tried when the primary pool is absent
	LendingRates    map[string]float64 `toml:"lending_rates"`   // asset symbol -> annual rate
}

// VenueAPIConfig holds the endpoint and credentials for one price venue.
type VenueAPIConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"` // requests per minute budget, 0 = unlimited
}

// ArbitrageConfig holds the evaluator and selector parameters.
type ArbitrageConfig struct {
	Slippage         float64  `toml:"slippage"`           // execution cost fraction in [0,1)
	MinProfit        float64  `toml:"min_profit"`         // quote-currency floor for the evaluator
	MinProfitPercent float64  `toml:"min_profit_percent"` // discovery filter, fraction
	TradeHorizon     duration `toml:"trade_horizon"`      // system-wide holding duration
	PollInterval     duration `toml:"poll_interval"`      // evaluation cycle cadence
}

// SentimentConfig holds tweet scraping and scoring parameters.
type SentimentConfig struct {
	Enabled         bool                `toml:"enabled"`
	BaseURL         string              `toml:"base_url"`
	BearerToken     string              `toml:"bearer_token"`
	SearchTerms     map[string][]string `toml:"search_terms"` // asset symbol -> terms
	MaxTweetsPerTerm int                `toml:"max_tweets_per_term"`
	ScrapeInterval  duration            `toml:"scrape_interval"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig holds cold-storage archival parameters.
type ArchiveConfig struct {
	Enabled       bool     `toml:"enabled"`
	RetentionDays int      `toml:"retention_days"`
	Interval      duration `toml:"interval"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`            // empty disables auth
	RateLimit   int      `toml:"rate_limit_per_min"` // per-client requests per minute; 0 disables
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values for the
// Polygon network. These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Chain: ChainConfig{
			RPCEndpoint:     "https://rpc-mainnet.maticvigil.com",
			ChainID:         137,
			MaxGasPriceGwei: 50,
			NativeSymbol:    "MATIC",
			LendingPools: map[string]string{
				"USDT": "0x8dff5e27ea6b7ac08ebfdf9eb090f32ee9a30fcf",
				"USDC": "0x2791bca1f2de4661ed88a30c99a7a9449aa84174",
				"DAI":  "0x8f3cf7ad23cd3cadbd9735aff958023239c6a063",
			},
			FallbackPools: map[string]string{},
			LendingRates: map[string]float64{
				"USDT": 0.05,
				"USDC": 0.03,
				"DAI":  0.01,
			},
		},
		Paraswap: VenueAPIConfig{
			BaseURL:   "https://apiv4.paraswap.io/v2",
			RateLimit: 120,
		},
		OneInch: VenueAPIConfig{
			BaseURL:   "https://api.1inch.exchange/v3.0/137",
			RateLimit: 120,
		},
		CMC: VenueAPIConfig{
			BaseURL:   "https://pro-api.coinmarketcap.com/v1",
			RateLimit: 30,
		},
		Coinlib: VenueAPIConfig{
			BaseURL:   "https://coinlib.io/api/v1",
			RateLimit: 30,
		},
		Tokens: map[string]string{
			"USDT":  "0xc2132d05d31c914a87c6611c10748aeb04b58e8f",
			"MATIC": "0x7d1afa7b718fb893db30a3abc0cfc608aacfebb0",
			"USDC":  "0x2791bca1f2de4661ed88a30c99a7a9449aa84174",
			"WETH":  "0x7ceb23fd6bc0add59e62ac25578270cff1b9f619",
			"WBTC":  "0x1bfd67037b42cf73acf2047067bd4f2c47d9bfd6",
			"DAI":   "0x8f3cf7ad23cd3cadbd9735aff958023239c6a063",
			"ETH":   "0x7ceb23fd6bc0add59e62ac25578270cff1b9f619",
		},
		Pairs: []string{
			"ETH/USDT", "ETH/USDC", "ETH/DAI",
			"MATIC/USDT", "MATIC/USDC", "MATIC/DAI",
		},
		Arbitrage: ArbitrageConfig{
			Slippage:         0.005,
			MinProfit:        10,
			MinProfitPercent: 0.005,
			TradeHorizon:     duration{time.Hour},
			PollInterval:     duration{time.Minute},
		},
		Sentiment: SentimentConfig{
			Enabled: true,
			BaseURL: "https://api.twitter.com/2",
			SearchTerms: map[string][]string{
				"ETH":   {"ethereum", "crypto"},
				"MATIC": {"polygon", "matic"},
			},
			MaxTweetsPerTerm: 100,
			ScrapeInterval:   duration{15 * time.Minute},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "dexarb",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "dexarb-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 90,
			Interval:      duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
			RateLimit:   120,
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity", "sequence_selected", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"evaluate": true,
	"select":   true,
	"monitor":  true,
	"server":   true,
	"full":     true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: evaluate, select, monitor, server, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Wallet — selection needs balances, so it needs an address.
	needsWallet := c.Mode == "select" || c.Mode == "full"
	if needsWallet && c.Wallet.Address == "" {
		errs = append(errs, "wallet: address must be set for mode "+c.Mode)
	}

	// Chain
	if c.Chain.RPCEndpoint == "" {
		errs = append(errs, "chain: rpc_endpoint must not be empty")
	}
	if c.Chain.ChainID <= 0 {
		errs = append(errs, "chain: chain_id must be positive")
	}
	if c.Chain.MaxGasPriceGwei <= 0 {
		errs = append(errs, "chain: max_gas_price_gwei must be positive")
	}
	for asset, rate := range c.Chain.LendingRates {
		if rate < 0 {
			errs = append(errs, fmt.Sprintf("chain: lending rate for %s must be non-negative, got %f", asset, rate))
		}
	}

	// Venues
	for _, v := range []struct {
		name string
		cfg  VenueAPIConfig
	}{
		{"paraswap", c.Paraswap},
		{"oneinch", c.OneInch},
		{"coinmarketcap", c.CMC},
		{"coinlib", c.Coinlib},
	} {
		if v.cfg.BaseURL == "" {
			errs = append(errs, v.name+": base_url must not be empty")
		}
	}
	if c.CMC.APIKey == "" {
		errs = append(errs, "coinmarketcap: api_key must be set")
	}
	if c.Coinlib.APIKey == "" {
		errs = append(errs, "coinlib: api_key must be set")
	}

	// Pairs — every symbol must resolve to a token contract.
	if len(c.Pairs) == 0 {
		errs = append(errs, "pairs: at least one trading pair must be configured")
	}
	for _, p := range c.Pairs {
		parts := strings.Split(p, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" || parts[0] == parts[1] {
			errs = append(errs, fmt.Sprintf("pairs: %q is not a valid BASE/QUOTE pair", p))
			continue
		}
		for _, sym := range parts {
			if c.Tokens[strings.ToUpper(sym)] == "" {
				errs = append(errs, fmt.Sprintf("pairs: %s has no token contract address configured", sym))
			}
		}
	}

	// Arbitrage
	if c.Arbitrage.Slippage < 0 || c.Arbitrage.Slippage >= 1 {
		errs = append(errs, fmt.Sprintf("arbitrage: slippage must be in [0,1), got %f", c.Arbitrage.Slippage))
	}
	if c.Arbitrage.MinProfit < 0 {
		errs = append(errs, "arbitrage: min_profit must be non-negative")
	}
	if c.Arbitrage.MinProfitPercent < 0 {
		errs = append(errs, "arbitrage: min_profit_percent must be non-negative")
	}
	if c.Arbitrage.TradeHorizon.Duration <= 0 {
		errs = append(errs, "arbitrage: trade_horizon must be positive")
	}
	if c.Arbitrage.PollInterval.Duration <= 0 {
		errs = append(errs, "arbitrage: poll_interval must be positive")
	}

	// Sentiment
	if c.Sentiment.Enabled {
		if c.Sentiment.BaseURL == "" {
			errs = append(errs, "sentiment: base_url must not be empty when enabled")
		}
		if c.Sentiment.MaxTweetsPerTerm <= 0 {
			errs = append(errs, "sentiment: max_tweets_per_term must be positive when enabled")
		}
		if c.Sentiment.ScrapeInterval.Duration <= 0 {
			errs = append(errs, "sentiment: scrape_interval must be positive when enabled")
		}
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must be between 0 and pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Archive
	if c.Archive.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archiving is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archiving is enabled")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
		if c.Archive.Interval.Duration <= 0 {
			errs = append(errs, "archive: interval must be positive")
		}
	}

	// Server
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
