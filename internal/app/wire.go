package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/0xfern/dexarb/internal/blob/s3"
	"github.com/0xfern/dexarb/internal/cache/redis"
	"github.com/0xfern/dexarb/internal/chain"
	"github.com/0xfern/dexarb/internal/config"
	"github.com/0xfern/dexarb/internal/domain"
	"github.com/0xfern/dexarb/internal/notify"
	"github.com/0xfern/dexarb/internal/server/handler"
	"github.com/0xfern/dexarb/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	DecisionStore    domain.DecisionStore
	OpportunityStore domain.OpportunityStore
	TweetStore       domain.TweetStore
	AuditStore       domain.AuditStore

	// Caches
	PriceCache  domain.PriceCache
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// Blob storage
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   *s3blob.Archiver

	// Chain access
	Chain    *chain.Client
	Network  *chain.NetworkMonitor
	Balances domain.BalanceSource
	Yields   *chain.YieldRouter

	// Notifications
	Notifier *notify.Notifier

	// Health probes for the HTTP server, keyed by component name.
	Pingers map[string]handler.Pinger
}

// needsPostgres returns true for modes that require a database connection.
func needsPostgres(mode string) bool {
	switch mode {
	case "evaluate", "select", "server", "full":
		return true
	default:
		return false
	}
}

// needsChain returns true for modes that run evaluation cycles and therefore
// read gas, balances, and lending yields over RPC.
func needsChain(mode string) bool {
	switch mode {
	case "evaluate", "select", "full":
		return true
	default:
		return false
	}
}

// needsS3 returns true for modes that touch the cold archive.
func needsS3(cfg *config.Config) bool {
	switch cfg.Mode {
	case "server":
		return cfg.Archive.Enabled
	case "evaluate", "select", "full":
		return cfg.Archive.Enabled
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Pingers: map[string]handler.Pinger{},
	}

	// Concrete stores kept for the archiver, which needs ListBefore.
	var (
		decisionStore *postgres.DecisionStore
		tweetStore    *postgres.TweetStore
	)

	// --- PostgreSQL (only for modes that need persistence) ---
	if needsPostgres(cfg.Mode) {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		decisionStore = postgres.NewDecisionStore(pool)
		tweetStore = postgres.NewTweetStore(pool)
		deps.DecisionStore = decisionStore
		deps.OpportunityStore = postgres.NewOpportunityStore(pool)
		deps.TweetStore = tweetStore
		deps.AuditStore = postgres.NewAuditStore(pool)
		deps.Pingers["postgres"] = pool
	}

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.PriceCache = redis.NewPriceCache(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)
	deps.Pingers["redis"] = redisClient

	// --- S3 blob storage ---
	if needsS3(cfg) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		if decisionStore != nil && tweetStore != nil && deps.AuditStore != nil {
			deps.Archiver = s3blob.NewArchiver(
				deps.BlobWriter,
				decisionStore,
				tweetStore,
				deps.AuditStore,
			)
		}
	}

	// --- Chain (only for modes that evaluate) ---
	if needsChain(cfg.Mode) {
		chainClient, err := chain.Dial(ctx, cfg.Chain.RPCEndpoint, int64(cfg.Chain.ChainID), logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: chain: %w", err)
		}
		deps.Chain = chainClient
		deps.Network = chain.NewNetworkMonitor(chainClient, cfg.Chain.MaxGasPriceGwei)

		balances, err := chain.NewBalanceReader(chainClient, cfg.Wallet.Address)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: balance reader: %w", err)
		}
		deps.Balances = balances

		yields, err := chain.NewYieldRouter(chainClient, cfg.Chain.LendingPools, cfg.Chain.FallbackPools, cfg.Chain.LendingRates)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: yield router: %w", err)
		}
		deps.Yields = yields
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
