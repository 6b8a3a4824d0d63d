package arbitrage

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xfern/dexarb/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ethUSDT(t *testing.T) domain.TradingPair {
	t.Helper()
	p, err := domain.ParsePair("ETH/USDT")
	require.NoError(t, err)
	return p
}

func quote(venue domain.Venue, pair domain.TradingPair, price, slippage float64) domain.PriceQuote {
	return domain.PriceQuote{
		Venue:      venue,
		Pair:       pair,
		Price:      price,
		Slippage:   slippage,
		CapturedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

// baseInputs builds the Scenario A fixture: quoteA=100, quoteB=102,
// slippage=0.005, refHigh=101, refLow=100. Spread and reference checks both
// pass and expected profit is ~1.0.
func baseInputs(t *testing.T) Inputs {
	pair := ethUSDT(t)
	return Inputs{
		Pair:          pair,
		QuoteA:        quote(domain.VenueParaswap, pair, 100, 0.005),
		QuoteB:        quote(domain.VenueOneInch, pair, 102, 0.005),
		ReferenceHigh: quote(domain.VenueCoinMarketCap, pair, 101, 0.005),
		ReferenceLow:  quote(domain.VenueCoinlib, pair, 100, 0.005),
	}
}

func newTestEvaluator(t *testing.T, cfg EvaluatorConfig) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(cfg, testLogger())
	require.NoError(t, err)
	return e
}

func defaultCfg() EvaluatorConfig {
	return EvaluatorConfig{Slippage: 0.005, MinProfit: 0.5, TradeHorizon: time.Hour}
}

func TestEvaluate_AcceptsGenuineDivergence(t *testing.T) {
	e := newTestEvaluator(t, defaultCfg())

	d, err := e.Evaluate(baseInputs(t))

	require.NoError(t, err)
	assert.True(t, d.Opportunity)
	assert.Equal(t, domain.ReasonNone, d.Reason)
	// profitBA = (102/100)*101*0.995 - 101*1.005 ≈ 0.9999
	assert.InDelta(t, 0.9999, d.ExpectedProfit, 0.001)
	assert.False(t, d.YieldAvailable)
}

func TestEvaluate_NegativeSentimentRejects(t *testing.T) {
	e := newTestEvaluator(t, defaultCfg())
	in := baseInputs(t)
	score := -0.2
	in.Sentiment = &score

	d, err := e.Evaluate(in)

	require.NoError(t, err)
	assert.False(t, d.Opportunity)
	assert.Equal(t, domain.ReasonNegativeSentiment, d.Reason)
	// Raw figures still carried for observability.
	assert.Equal(t, -0.2, d.Sentiment)
	assert.InDelta(t, 0.9999, d.ExpectedProfit, 0.001)
}

func TestEvaluate_ZeroSentimentAdmitted(t *testing.T) {
	e := newTestEvaluator(t, defaultCfg())
	in := baseInputs(t)
	score := 0.0
	in.Sentiment = &score

	d, err := e.Evaluate(in)

	require.NoError(t, err)
	assert.True(t, d.Opportunity)
}

func TestEvaluate_InsufficientSpread(t *testing.T) {
	e := newTestEvaluator(t, defaultCfg())
	in := baseInputs(t)
	// 100 * 1.005 = 100.5 >= 100.4: venue A not strictly cheaper after fees.
	in.QuoteB = quote(domain.VenueOneInch, in.Pair, 100.4, 0.005)

	d, err := e.Evaluate(in)

	require.NoError(t, err)
	assert.False(t, d.Opportunity)
	assert.Equal(t, domain.ReasonInsufficientSpread, d.Reason)
}

func TestEvaluate_SpreadRejectionIgnoresOtherInputs(t *testing.T) {
	// For any quoteA*(1+s) >= quoteB the evaluator must reject with
	// insufficient spread regardless of references and sentiment.
	e := newTestEvaluator(t, EvaluatorConfig{Slippage: 0.01, MinProfit: 0, TradeHorizon: time.Hour})
	in := baseInputs(t)
	in.QuoteA.Slippage = 0.01
	in.QuoteB = quote(domain.VenueOneInch, in.Pair, 100, 0.01) // equal prices
	positive := 0.9
	in.Sentiment = &positive

	d, err := e.Evaluate(in)

	require.NoError(t, err)
	assert.Equal(t, domain.ReasonInsufficientSpread, d.Reason)
}

func TestEvaluate_ReferenceMismatch(t *testing.T) {
	e := newTestEvaluator(t, defaultCfg())
	in := baseInputs(t)
	// 100 * 1.005 = 100.5 <= 101: the reference sources disagree.
	in.ReferenceHigh = quote(domain.VenueCoinMarketCap, in.Pair, 100, 0.005)
	in.ReferenceLow = quote(domain.VenueCoinlib, in.Pair, 101, 0.005)

	d, err := e.Evaluate(in)

	require.NoError(t, err)
	assert.False(t, d.Opportunity)
	assert.Equal(t, domain.ReasonReferenceMismatch, d.Reason)
}

func TestEvaluate_BelowMinimumProfit(t *testing.T) {
	cfg := defaultCfg()
	cfg.MinProfit = 10 // Scenario A yields ~1.0
	e := newTestEvaluator(t, cfg)

	d, err := e.Evaluate(baseInputs(t))

	require.NoError(t, err)
	assert.False(t, d.Opportunity)
	assert.Equal(t, domain.ReasonBelowMinimumProfit, d.Reason)
	assert.InDelta(t, 0.9999, d.ExpectedProfit, 0.001)
}

func TestEvaluate_YieldDominates(t *testing.T) {
	// Over a one-year horizon, lending 101 USDT at 5% yields 5.05, well above
	// the ~1.0 expected arbitrage profit.
	cfg := defaultCfg()
	cfg.TradeHorizon = 365 * 24 * time.Hour
	e := newTestEvaluator(t, cfg)
	in := baseInputs(t)
	in.Yield = &domain.YieldEstimate{
		Asset:              "USDT",
		AvailableLiquidity: 1_000_000,
		AnnualRate:         0.05,
		Duration:           cfg.TradeHorizon,
	}

	d, err := e.Evaluate(in)

	require.NoError(t, err)
	assert.False(t, d.Opportunity)
	assert.Equal(t, domain.ReasonYieldDominates, d.Reason)
	assert.True(t, d.YieldAvailable)
	assert.InDelta(t, 5.05, d.PotentialYield, 0.01)
}

func TestEvaluate_TinyYieldDoesNotDominate(t *testing.T) {
	// Over one hour the same lending rate earns a negligible yield; the
	// opportunity goes through.
	e := newTestEvaluator(t, defaultCfg())
	in := baseInputs(t)
	in.Yield = &domain.YieldEstimate{
		Asset:              "USDT",
		AvailableLiquidity: 1_000_000,
		AnnualRate:         0.05,
		Duration:           time.Hour,
	}

	d, err := e.Evaluate(in)

	require.NoError(t, err)
	assert.True(t, d.Opportunity)
	assert.True(t, d.YieldAvailable)
}

func TestEvaluate_UnavailableYieldSkipsCheck(t *testing.T) {
	// Zero rate or zero liquidity means "unavailable", not "zero yield": the
	// check is skipped entirely and YieldAvailable stays false.
	e := newTestEvaluator(t, defaultCfg())
	in := baseInputs(t)
	in.Yield = &domain.YieldEstimate{Asset: "USDT", AvailableLiquidity: 0, AnnualRate: 0.05}

	d, err := e.Evaluate(in)

	require.NoError(t, err)
	assert.True(t, d.Opportunity)
	assert.False(t, d.YieldAvailable)
	assert.Zero(t, d.PotentialYield)
}

func TestEvaluate_Idempotent(t *testing.T) {
	e := newTestEvaluator(t, defaultCfg())
	in := baseInputs(t)
	score := 0.3
	in.Sentiment = &score

	d1, err1 := e.Evaluate(in)
	d2, err2 := e.Evaluate(in)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, d1, d2)
}

func TestEvaluate_InvalidInputs(t *testing.T) {
	e := newTestEvaluator(t, defaultCfg())

	t.Run("non-positive price", func(t *testing.T) {
		in := baseInputs(t)
		in.QuoteA.Price = 0
		_, err := e.Evaluate(in)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})

	t.Run("slippage out of range", func(t *testing.T) {
		in := baseInputs(t)
		in.QuoteB.Slippage = 1.0
		_, err := e.Evaluate(in)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})

	t.Run("quote for wrong pair", func(t *testing.T) {
		in := baseInputs(t)
		other, err := domain.ParsePair("MATIC/USDT")
		require.NoError(t, err)
		in.ReferenceLow.Pair = other
		_, err = e.Evaluate(in)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})

	t.Run("negative yield liquidity", func(t *testing.T) {
		in := baseInputs(t)
		in.Yield = &domain.YieldEstimate{Asset: "USDT", AvailableLiquidity: -1, AnnualRate: 0.05}
		_, err := e.Evaluate(in)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})
}

func TestNewEvaluator_RejectsBadConfig(t *testing.T) {
	_, err := NewEvaluator(EvaluatorConfig{Slippage: 1.0, MinProfit: 1, TradeHorizon: time.Hour}, testLogger())
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = NewEvaluator(EvaluatorConfig{Slippage: 0.005, MinProfit: 1, TradeHorizon: 0}, testLogger())
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestAdmitSentiment(t *testing.T) {
	assert.True(t, AdmitSentiment(0))
	assert.True(t, AdmitSentiment(0.9))
	assert.False(t, AdmitSentiment(-0.0001))
}

func TestEstimateYield(t *testing.T) {
	// One full year at 5% on 1000 compounds to exactly 50.
	y, err := EstimateYield(1000, 0.05, 365*24*time.Hour)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, y, 1e-9)

	// One hour at 5% annual is roughly principal * ln(1.05)/8760.
	y, err = EstimateYield(1000, 0.05, time.Hour)
	require.NoError(t, err)
	assert.InDelta(t, 0.00557, y, 0.0001)

	_, err = EstimateYield(-1, 0.05, time.Hour)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	_, err = EstimateYield(1000, -0.05, time.Hour)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	_, err = EstimateYield(1000, 0.05, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}
