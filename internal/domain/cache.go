package domain

import (
	"context"
	"time"
)

// PriceCache provides fast access to the latest captured prices.
type PriceCache interface {
	SetQuote(ctx context.Context, q PriceQuote) error
	GetQuote(ctx context.Context, venue Venue, pair TradingPair) (PriceQuote, error)
}

// RateLimiter provides distributed rate limiting for venue API budgets.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string, limit int, window time.Duration) error
}

// SignalBus provides pub/sub fan-out of engine events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// BlobWriter writes archive objects to cold storage.
type BlobWriter interface {
	Write(ctx context.Context, key string, body []byte, contentType string) error
}

// BlobInfo describes one archived object.
type BlobInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// BlobReader reads archive objects back from cold storage.
type BlobReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}

// LockManager provides distributed locks so that only one engine instance
// runs a given activity at a time.
type LockManager interface {
	// Acquire obtains the lock or returns ErrLockHeld. The returned release
	// function is safe to call more than once.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// NetworkChecker reports whether on-chain conditions (gas price, node sync
// state) are favorable enough to trade at all.
type NetworkChecker interface {
	CheckNetworkConditions(ctx context.Context) (bool, error)
}

// TradeResolver expands an opportunity into an ordered trade sequence with a
// realized profit estimate net of gas.
type TradeResolver interface {
	ResolveSequence(ctx context.Context, opp Opportunity) (TradeSequence, error)
}

// BalanceSource reads current wallet balances for the given token addresses.
type BalanceSource interface {
	Balances(ctx context.Context, tokenAddrs []string) (Balances, error)
}
