package arbitrage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xfern/dexarb/internal/domain"
)

const (
	usdtAddr = "0xc2132d05d31c914a87c6611c10748aeb04b58e8f"
	wethAddr = "0x7ceb23fd6bc0add59e62ac25578270cff1b9f619"
)

// fakeNetwork is a canned NetworkChecker.
type fakeNetwork struct {
	ok  bool
	err error
}

func (f fakeNetwork) CheckNetworkConditions(ctx context.Context) (bool, error) {
	return f.ok, f.err
}

// fakeResolver resolves each opportunity into a one-step sequence whose
// realized profit comes from the profits map (keyed by opportunity ID).
// Missing IDs resolve with an error. calls records resolution order.
type fakeResolver struct {
	profits map[string]float64
	calls   []string
}

func (f *fakeResolver) ResolveSequence(ctx context.Context, opp domain.Opportunity) (domain.TradeSequence, error) {
	f.calls = append(f.calls, opp.ID)
	profit, ok := f.profits[opp.ID]
	if !ok {
		return domain.TradeSequence{}, errors.New("no route")
	}
	return domain.TradeSequence{
		OpportunityID:  opp.ID,
		Steps:          []domain.TradeStep{{Venue: domain.VenueParaswap, Pair: opp.Pair, Side: domain.TradeSideBuy, Price: 100, Amount: 1}},
		GasCostUSD:     opp.GasCostUSD,
		RealizedProfit: profit,
		ResolvedAt:     time.Now().UTC(),
	}, nil
}

func opp(t *testing.T, id string, profitPercent float64, collateral map[string]float64) domain.Opportunity {
	t.Helper()
	pair, err := domain.ParsePair("ETH/USDT")
	require.NoError(t, err)
	return domain.Opportunity{
		ID:            id,
		Pair:          pair,
		ProfitPercent: profitPercent,
		Collateral:    collateral,
		GasCostUSD:    2,
		DetectedAt:    time.Now().UTC(),
	}
}

func TestSelectBest_PicksMostProfitableFeasible(t *testing.T) {
	resolver := &fakeResolver{profits: map[string]float64{"a": 4, "b": 9}}
	s := NewSelector(fakeNetwork{ok: true}, resolver, testLogger())

	opps := []domain.Opportunity{
		opp(t, "a", 0.01, map[string]float64{usdtAddr: 100}),
		opp(t, "b", 5.0, map[string]float64{usdtAddr: 100}),
	}
	balances := domain.Balances{usdtAddr: 500}

	seq, err := s.SelectBest(context.Background(), opps, balances)

	require.NoError(t, err)
	require.NotNil(t, seq)
	assert.Equal(t, "b", seq.OpportunityID)
	assert.Equal(t, 9.0, seq.RealizedProfit)
}

func TestSelectBest_InsufficientCollateralSkipsAll(t *testing.T) {
	// Scenario: balance of 50 USDT, both candidates need 100.
	resolver := &fakeResolver{profits: map[string]float64{"a": 4, "b": 9}}
	s := NewSelector(fakeNetwork{ok: true}, resolver, testLogger())

	opps := []domain.Opportunity{
		opp(t, "a", 0.02, map[string]float64{usdtAddr: 100}),
		opp(t, "b", 0.03, map[string]float64{usdtAddr: 100}),
	}
	balances := domain.Balances{usdtAddr: 50}

	seq, err := s.SelectBest(context.Background(), opps, balances)

	require.NoError(t, err)
	assert.Nil(t, seq)
	assert.Empty(t, resolver.calls, "infeasible candidates must not be resolved")
}

func TestSelectBest_PartialCollateralIsInfeasible(t *testing.T) {
	// One covered asset and one short asset: no partial fills.
	resolver := &fakeResolver{profits: map[string]float64{"a": 4}}
	s := NewSelector(fakeNetwork{ok: true}, resolver, testLogger())

	opps := []domain.Opportunity{
		opp(t, "a", 0.02, map[string]float64{usdtAddr: 100, wethAddr: 1}),
	}
	balances := domain.Balances{usdtAddr: 500} // no WETH at all

	seq, err := s.SelectBest(context.Background(), opps, balances)

	require.NoError(t, err)
	assert.Nil(t, seq)
}

func TestSelectBest_UnfavorableNetworkShortCircuits(t *testing.T) {
	// Even a trivially profitable candidate is never examined.
	resolver := &fakeResolver{profits: map[string]float64{"a": 1000}}
	s := NewSelector(fakeNetwork{ok: false}, resolver, testLogger())

	opps := []domain.Opportunity{
		opp(t, "a", 99.0, map[string]float64{}),
	}

	seq, err := s.SelectBest(context.Background(), opps, domain.Balances{})

	require.NoError(t, err)
	assert.Nil(t, seq)
	assert.Empty(t, resolver.calls)
}

func TestSelectBest_NetworkCheckErrorPropagates(t *testing.T) {
	boom := errors.New("rpc down")
	s := NewSelector(fakeNetwork{err: boom}, &fakeResolver{}, testLogger())

	_, err := s.SelectBest(context.Background(), nil, domain.Balances{})

	assert.ErrorIs(t, err, boom)
}

func TestSelectBest_ResolverFailureSkipsCandidate(t *testing.T) {
	// "bad" has no route; the scan continues and still picks "a".
	resolver := &fakeResolver{profits: map[string]float64{"a": 4}}
	s := NewSelector(fakeNetwork{ok: true}, resolver, testLogger())

	opps := []domain.Opportunity{
		opp(t, "bad", 9.0, map[string]float64{usdtAddr: 10}),
		opp(t, "a", 0.5, map[string]float64{usdtAddr: 10}),
	}
	balances := domain.Balances{usdtAddr: 100}

	seq, err := s.SelectBest(context.Background(), opps, balances)

	require.NoError(t, err)
	require.NotNil(t, seq)
	assert.Equal(t, "a", seq.OpportunityID)
	assert.Equal(t, []string{"bad", "a"}, resolver.calls)
}

func TestSelectBest_Monotonicity(t *testing.T) {
	// Adding a strictly more profitable feasible candidate never lowers the
	// selected profit.
	balances := domain.Balances{usdtAddr: 1000}
	base := []domain.Opportunity{
		opp(t, "a", 0.5, map[string]float64{usdtAddr: 100}),
	}

	resolver := &fakeResolver{profits: map[string]float64{"a": 3, "b": 12}}
	s := NewSelector(fakeNetwork{ok: true}, resolver, testLogger())
	before, err := s.SelectBest(context.Background(), base, balances)
	require.NoError(t, err)
	require.NotNil(t, before)

	extended := append(base, opp(t, "b", 20.0, map[string]float64{usdtAddr: 100}))
	resolver2 := &fakeResolver{profits: resolver.profits}
	s2 := NewSelector(fakeNetwork{ok: true}, resolver2, testLogger())
	after, err := s2.SelectBest(context.Background(), extended, balances)
	require.NoError(t, err)
	require.NotNil(t, after)

	assert.GreaterOrEqual(t, after.RealizedProfit, before.RealizedProfit)
	assert.Equal(t, "b", after.OpportunityID)
}

func TestSelectBest_IncumbentNotReplacedOnTie(t *testing.T) {
	// Second candidate advertises a higher percent but realizes exactly the
	// incumbent's profit: strict improvement is required, so "a" stays.
	resolver := &fakeResolver{profits: map[string]float64{"a": 5, "b": 5}}
	s := NewSelector(fakeNetwork{ok: true}, resolver, testLogger())

	opps := []domain.Opportunity{
		opp(t, "a", 6.0, map[string]float64{usdtAddr: 10}),
		opp(t, "b", 8.0, map[string]float64{usdtAddr: 10}),
	}
	balances := domain.Balances{usdtAddr: 100}

	seq, err := s.SelectBest(context.Background(), opps, balances)

	require.NoError(t, err)
	require.NotNil(t, seq)
	assert.Equal(t, "a", seq.OpportunityID)
}

func TestSelectBest_CandidatesBelowIncumbentPercentNotResolved(t *testing.T) {
	// After "a" realizes 5, candidate "c" with profitPercent 2 <= 5 is
	// skipped before feasibility or resolution.
	resolver := &fakeResolver{profits: map[string]float64{"a": 5, "c": 50}}
	s := NewSelector(fakeNetwork{ok: true}, resolver, testLogger())

	opps := []domain.Opportunity{
		opp(t, "a", 6.0, map[string]float64{usdtAddr: 10}),
		opp(t, "c", 2.0, map[string]float64{usdtAddr: 10}),
	}
	balances := domain.Balances{usdtAddr: 100}

	seq, err := s.SelectBest(context.Background(), opps, balances)

	require.NoError(t, err)
	require.NotNil(t, seq)
	assert.Equal(t, "a", seq.OpportunityID)
	assert.Equal(t, []string{"a"}, resolver.calls)
}

func TestSelectBest_NoCandidates(t *testing.T) {
	s := NewSelector(fakeNetwork{ok: true}, &fakeResolver{}, testLogger())

	seq, err := s.SelectBest(context.Background(), nil, domain.Balances{})

	require.NoError(t, err)
	assert.Nil(t, seq)
}
