package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/0xfern/dexarb/internal/domain"
)

// quoteTTL bounds how long a cached quote can serve the route resolver. A
// quote older than this is treated as missing rather than stale-served.
const quoteTTL = 5 * time.Minute

// PriceCache implements domain.PriceCache using Redis string keys holding
// JSON-encoded quotes at "quote:{venue}:{pair}".
type PriceCache struct {
	rdb *redis.Client
}

// NewPriceCache creates a PriceCache backed by the given Client.
func NewPriceCache(c *Client) *PriceCache {
	return &PriceCache{rdb: c.Underlying()}
}

func quoteKey(venue domain.Venue, pair domain.TradingPair) string {
	return "quote:" + string(venue) + ":" + pair.String()
}

// SetQuote stores the latest quote for its venue and pair.
func (pc *PriceCache) SetQuote(ctx context.Context, q domain.PriceQuote) error {
	if err := q.Validate(); err != nil {
		return fmt.Errorf("redis: set quote: %w", err)
	}
	payload, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("redis: marshal quote: %w", err)
	}
	key := quoteKey(q.Venue, q.Pair)
	if err := pc.rdb.Set(ctx, key, payload, quoteTTL).Err(); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", key, err)
	}
	return nil
}

// GetQuote returns the cached quote for a venue and pair. An absent or
// expired key surfaces as domain.ErrMissingData so callers treat it the same
// as a quote the venue never reported.
func (pc *PriceCache) GetQuote(ctx context.Context, venue domain.Venue, pair domain.TradingPair) (domain.PriceQuote, error) {
	key := quoteKey(venue, pair)
	payload, err := pc.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PriceQuote{}, fmt.Errorf("quote %s on %s: %w", pair, venue, domain.ErrMissingData)
	}
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("redis: get quote %s: %w", key, err)
	}

	var q domain.PriceQuote
	if err := json.Unmarshal(payload, &q); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("redis: unmarshal quote %s: %w", key, err)
	}
	return q, nil
}

// Compile-time interface check.
var _ domain.PriceCache = (*PriceCache)(nil)
