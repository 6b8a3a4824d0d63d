package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xfern/dexarb/internal/arbitrage"
	"github.com/0xfern/dexarb/internal/domain"
)

type fakeDecisionStore struct {
	inserted []domain.Decision
}

func (f *fakeDecisionStore) Insert(_ context.Context, d domain.Decision) error {
	f.inserted = append(f.inserted, d)
	return nil
}

func (f *fakeDecisionStore) ListRecent(_ context.Context, _ int) ([]domain.Decision, error) {
	return f.inserted, nil
}

func (f *fakeDecisionStore) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func testEvaluator(t *testing.T) *arbitrage.Evaluator {
	t.Helper()
	ev, err := arbitrage.NewEvaluator(arbitrage.EvaluatorConfig{
		Slippage:     0.005,
		MinProfit:    0.5,
		TradeHorizon: time.Hour,
	}, testLogger())
	require.NoError(t, err)
	return ev
}

func divergentSnapshot(capturedAt time.Time) *domain.PriceSnapshot {
	quote := func(venue domain.Venue, price, slip float64) domain.PriceQuote {
		return domain.PriceQuote{Venue: venue, Pair: ethUSDT, Price: price, Slippage: slip, CapturedAt: capturedAt}
	}
	return domain.NewPriceSnapshot(
		map[domain.Venue]map[string]domain.PriceQuote{
			domain.VenueParaswap:      {ethUSDT.String(): quote(domain.VenueParaswap, 100, 0.005)},
			domain.VenueOneInch:       {ethUSDT.String(): quote(domain.VenueOneInch, 102, 0.005)},
			domain.VenueCoinMarketCap: {ethUSDT.String(): quote(domain.VenueCoinMarketCap, 101, 0)},
			domain.VenueCoinlib:       {ethUSDT.String(): quote(domain.VenueCoinlib, 100, 0)},
		},
		map[string]float64{"ETH": 0.4},
		nil,
		capturedAt,
	)
}

func TestEvaluateSnapshot_AcceptsAndStamps(t *testing.T) {
	capturedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeDecisionStore{}
	svc := NewDecisionService(testEvaluator(t), []domain.TradingPair{ethUSDT},
		store, nil, nil, nil, testLogger())

	decisions, err := svc.EvaluateSnapshot(context.Background(), divergentSnapshot(capturedAt))
	require.NoError(t, err)
	require.Len(t, decisions, 1)

	d := decisions[0]
	assert.True(t, d.Opportunity)
	assert.Equal(t, domain.ReasonNone, d.Reason)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, capturedAt, d.EvaluatedAt)
	assert.InDelta(t, 0.9999, d.ExpectedProfit, 0.0001)

	require.Len(t, store.inserted, 1)
	assert.Equal(t, d.ID, store.inserted[0].ID)
}

func TestEvaluateSnapshot_OrdersSwapAndReferenceQuotes(t *testing.T) {
	capturedAt := time.Now().UTC()
	quote := func(venue domain.Venue, price float64) domain.PriceQuote {
		return domain.PriceQuote{Venue: venue, Pair: ethUSDT, Price: price, Slippage: 0.005, CapturedAt: capturedAt}
	}
	// Venues swapped relative to the usual ordering: paraswap is dearer and
	// coinlib reads above coinmarketcap.
	snap := domain.NewPriceSnapshot(
		map[domain.Venue]map[string]domain.PriceQuote{
			domain.VenueParaswap:      {ethUSDT.String(): quote(domain.VenueParaswap, 102)},
			domain.VenueOneInch:       {ethUSDT.String(): quote(domain.VenueOneInch, 100)},
			domain.VenueCoinMarketCap: {ethUSDT.String(): quote(domain.VenueCoinMarketCap, 100)},
			domain.VenueCoinlib:       {ethUSDT.String(): quote(domain.VenueCoinlib, 101)},
		},
		nil, nil, capturedAt,
	)

	svc := NewDecisionService(testEvaluator(t), []domain.TradingPair{ethUSDT},
		nil, nil, nil, nil, testLogger())

	decisions, err := svc.EvaluateSnapshot(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, decisions, 1)

	d := decisions[0]
	assert.True(t, d.Opportunity)
	assert.Equal(t, domain.VenueOneInch, d.QuoteA.Venue)
	assert.Equal(t, domain.VenueParaswap, d.QuoteB.Venue)
	assert.Equal(t, domain.VenueCoinlib, d.ReferenceHigh.Venue)
	assert.Equal(t, domain.VenueCoinMarketCap, d.ReferenceLow.Venue)
}

func TestEvaluateSnapshot_SkipsPairsWithMissingQuotes(t *testing.T) {
	capturedAt := time.Now().UTC()
	pairs := []domain.TradingPair{ethUSDT, {Base: "MATIC", Quote: "USDT"}}
	svc := NewDecisionService(testEvaluator(t), pairs, nil, nil, nil, nil, testLogger())

	decisions, err := svc.EvaluateSnapshot(context.Background(), divergentSnapshot(capturedAt))
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, ethUSDT, decisions[0].Pair)
}

func TestEvaluateSnapshot_NoEvaluablePairIsAnError(t *testing.T) {
	empty := domain.NewPriceSnapshot(nil, nil, nil, time.Now().UTC())
	svc := NewDecisionService(testEvaluator(t), []domain.TradingPair{ethUSDT},
		nil, nil, nil, nil, testLogger())

	_, err := svc.EvaluateSnapshot(context.Background(), empty)
	assert.ErrorIs(t, err, domain.ErrMissingData)
}

func TestEvaluateSnapshot_MissingSentimentIsNeutral(t *testing.T) {
	capturedAt := time.Now().UTC()
	quote := func(venue domain.Venue, price, slip float64) domain.PriceQuote {
		return domain.PriceQuote{Venue: venue, Pair: ethUSDT, Price: price, Slippage: slip, CapturedAt: capturedAt}
	}
	snap := domain.NewPriceSnapshot(
		map[domain.Venue]map[string]domain.PriceQuote{
			domain.VenueParaswap:      {ethUSDT.String(): quote(domain.VenueParaswap, 100, 0.005)},
			domain.VenueOneInch:       {ethUSDT.String(): quote(domain.VenueOneInch, 102, 0.005)},
			domain.VenueCoinMarketCap: {ethUSDT.String(): quote(domain.VenueCoinMarketCap, 101, 0)},
			domain.VenueCoinlib:       {ethUSDT.String(): quote(domain.VenueCoinlib, 100, 0)},
		},
		nil, nil, capturedAt,
	)
	svc := NewDecisionService(testEvaluator(t), []domain.TradingPair{ethUSDT},
		nil, nil, nil, nil, testLogger())

	decisions, err := svc.EvaluateSnapshot(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.True(t, decisions[0].Opportunity)
	assert.Zero(t, decisions[0].Sentiment)
}
