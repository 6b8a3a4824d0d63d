package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xfern/dexarb/internal/domain"
)

type fakeGasGauge struct {
	gwei float64
	err  error
}

func (f *fakeGasGauge) GasPriceGwei(_ context.Context) (float64, error) {
	return f.gwei, f.err
}

type fakeOppStore struct {
	inserted []domain.Opportunity
	selected map[string]domain.TradeSequence
}

func (f *fakeOppStore) Insert(_ context.Context, opp domain.Opportunity) error {
	f.inserted = append(f.inserted, opp)
	return nil
}

func (f *fakeOppStore) MarkSelected(_ context.Context, id string, seq domain.TradeSequence) error {
	if f.selected == nil {
		f.selected = map[string]domain.TradeSequence{}
	}
	f.selected[id] = seq
	return nil
}

func (f *fakeOppStore) ListRecent(_ context.Context, _ int) ([]domain.Opportunity, error) {
	return f.inserted, nil
}

func acceptedDecision(expectedProfit, refHigh float64) domain.Decision {
	return domain.Decision{
		ID:   "d-1",
		Pair: ethUSDT,
		ReferenceHigh: domain.PriceQuote{
			Venue: domain.VenueCoinMarketCap, Pair: ethUSDT, Price: refHigh, CapturedAt: time.Now(),
		},
		ExpectedProfit: expectedProfit,
		Opportunity:    true,
	}
}

func discoveryService(store domain.OpportunityStore) *DiscoveryService {
	return NewDiscoveryService(
		testTokens,
		&fakeGasGauge{gwei: 40},
		&fakeCMC{usd: map[string]float64{"MATIC": 0.8}},
		"MATIC",
		0.005,
		store,
		testLogger(),
	)
}

func TestDiscover_PromotesAcceptedDecision(t *testing.T) {
	store := &fakeOppStore{}
	svc := discoveryService(store)

	opps, err := svc.Discover(context.Background(), []domain.Decision{
		acceptedDecision(1.0, 101),
	})
	require.NoError(t, err)
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.NotEmpty(t, opp.ID)
	assert.Equal(t, ethUSDT, opp.Pair)
	assert.InDelta(t, 1.0/101, opp.ProfitPercent, 1e-9)
	assert.InDelta(t, 101.0, opp.Collateral[usdtAddr], 1e-9)
	// 40 gwei * 700k gas * 0.8 USD/MATIC
	assert.InDelta(t, 40*1e-9*700_000*0.8, opp.GasCostUSD, 1e-9)
	assert.Len(t, store.inserted, 1)
}

func TestDiscover_DropsRejectedDecisions(t *testing.T) {
	svc := discoveryService(nil)
	rejected := acceptedDecision(1.0, 101)
	rejected.Opportunity = false
	rejected.Reason = domain.ReasonInsufficientSpread

	opps, err := svc.Discover(context.Background(), []domain.Decision{rejected})
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestDiscover_EnforcesPercentFloor(t *testing.T) {
	svc := discoveryService(nil)

	// 0.2 on 101 is under the 0.5% floor.
	opps, err := svc.Discover(context.Background(), []domain.Decision{
		acceptedDecision(0.2, 101),
	})
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestDiscover_GasGaugeFailurePropagates(t *testing.T) {
	svc := NewDiscoveryService(testTokens, &fakeGasGauge{err: assert.AnError},
		&fakeCMC{usd: map[string]float64{"MATIC": 0.8}}, "MATIC", 0.005, nil, testLogger())

	_, err := svc.Discover(context.Background(), []domain.Decision{
		acceptedDecision(1.0, 101),
	})
	assert.Error(t, err)
}

func TestDiscover_MissingNativePriceIsAnError(t *testing.T) {
	svc := NewDiscoveryService(testTokens, &fakeGasGauge{gwei: 40},
		&fakeCMC{usd: map[string]float64{}}, "MATIC", 0.005, nil, testLogger())

	_, err := svc.Discover(context.Background(), []domain.Decision{
		acceptedDecision(1.0, 101),
	})
	assert.ErrorIs(t, err, domain.ErrMissingData)
}
