package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xfern/dexarb/internal/domain"
)

type fakePriceCache struct {
	quotes map[string]domain.PriceQuote
}

func (f *fakePriceCache) SetQuote(_ context.Context, q domain.PriceQuote) error {
	if f.quotes == nil {
		f.quotes = map[string]domain.PriceQuote{}
	}
	f.quotes[string(q.Venue)+":"+q.Pair.String()] = q
	return nil
}

func (f *fakePriceCache) GetQuote(_ context.Context, venue domain.Venue, pair domain.TradingPair) (domain.PriceQuote, error) {
	q, ok := f.quotes[string(venue)+":"+pair.String()]
	if !ok {
		return domain.PriceQuote{}, fmt.Errorf("quote %s on %s: %w", pair, venue, domain.ErrMissingData)
	}
	return q, nil
}

func cacheWith(paraswapPrice, oneinchPrice float64) *fakePriceCache {
	now := time.Now().UTC()
	return &fakePriceCache{quotes: map[string]domain.PriceQuote{
		string(domain.VenueParaswap) + ":" + ethUSDT.String(): {
			Venue: domain.VenueParaswap, Pair: ethUSDT, Price: paraswapPrice, Slippage: 0.005, CapturedAt: now,
		},
		string(domain.VenueOneInch) + ":" + ethUSDT.String(): {
			Venue: domain.VenueOneInch, Pair: ethUSDT, Price: oneinchPrice, Slippage: 0.005, CapturedAt: now,
		},
	}}
}

func TestResolveSequence_BuysCheapSellsDear(t *testing.T) {
	svc := NewRouteService(cacheWith(100, 102), 0.005, testLogger())
	opp := domain.Opportunity{ID: "opp-1", Pair: ethUSDT, GasCostUSD: 0.5}

	seq, err := svc.ResolveSequence(context.Background(), opp)
	require.NoError(t, err)

	assert.Equal(t, "opp-1", seq.OpportunityID)
	require.Len(t, seq.Steps, 2)
	assert.Equal(t, domain.TradeSideBuy, seq.Steps[0].Side)
	assert.Equal(t, domain.VenueParaswap, seq.Steps[0].Venue)
	assert.Equal(t, 100.0, seq.Steps[0].Price)
	assert.Equal(t, domain.TradeSideSell, seq.Steps[1].Side)
	assert.Equal(t, domain.VenueOneInch, seq.Steps[1].Venue)
	assert.Equal(t, 102.0, seq.Steps[1].Price)

	// 102*(1-0.005) - 100*(1+0.005) - 0.5 gas
	assert.InDelta(t, 102*0.995-100*1.005-0.5, seq.RealizedProfit, 1e-9)
	assert.Equal(t, 0.5, seq.GasCostUSD)
	assert.False(t, seq.ResolvedAt.IsZero())
}

func TestResolveSequence_ReordersWhenOneInchIsCheaper(t *testing.T) {
	svc := NewRouteService(cacheWith(102, 100), 0.005, testLogger())
	opp := domain.Opportunity{ID: "opp-2", Pair: ethUSDT}

	seq, err := svc.ResolveSequence(context.Background(), opp)
	require.NoError(t, err)
	assert.Equal(t, domain.VenueOneInch, seq.Steps[0].Venue)
	assert.Equal(t, domain.VenueParaswap, seq.Steps[1].Venue)
}

func TestResolveSequence_EvaporatedEdgeGoesNegative(t *testing.T) {
	// Prices converged since discovery.
	svc := NewRouteService(cacheWith(100, 100.1), 0.005, testLogger())
	opp := domain.Opportunity{ID: "opp-3", Pair: ethUSDT, GasCostUSD: 0.5}

	seq, err := svc.ResolveSequence(context.Background(), opp)
	require.NoError(t, err)
	assert.Negative(t, seq.RealizedProfit)
}

func TestResolveSequence_MissingQuoteFails(t *testing.T) {
	svc := NewRouteService(&fakePriceCache{}, 0.005, testLogger())
	opp := domain.Opportunity{ID: "opp-4", Pair: ethUSDT}

	_, err := svc.ResolveSequence(context.Background(), opp)
	assert.ErrorIs(t, err, domain.ErrMissingData)
}
