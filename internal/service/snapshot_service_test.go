package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xfern/dexarb/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const (
	wethAddr = "0x7ceb23fd6bc0add59e62ac25578270cff1b9f619"
	usdtAddr = "0xc2132d05d31c914a87c6611c10748aeb04b58e8f"
)

var testTokens = domain.TokenRegistry{
	"ETH":  wethAddr,
	"USDT": usdtAddr,
}

var ethUSDT = domain.TradingPair{Base: "ETH", Quote: "USDT"}

type fakeParaswap struct {
	prices map[string]float64
	err    error
}

func (f *fakeParaswap) GetPrices(_ context.Context, _ string) (map[string]float64, error) {
	return f.prices, f.err
}

type fakeOneInch struct {
	price float64
	err   error
}

func (f *fakeOneInch) GetQuote(_ context.Context, _, _ string) (float64, error) {
	return f.price, f.err
}

type fakeCMC struct {
	usd map[string]float64
	err error
}

func (f *fakeCMC) GetQuotes(_ context.Context, _ []string) (map[string]float64, error) {
	return f.usd, f.err
}

type fakeCoinlib struct {
	usd map[string]float64
}

func (f *fakeCoinlib) GetPrice(_ context.Context, symbol string) (float64, error) {
	price, ok := f.usd[symbol]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return price, nil
}

func snapshotDeps() SnapshotDeps {
	return SnapshotDeps{
		Paraswap: &fakeParaswap{prices: map[string]float64{"USDT": 100}},
		OneInch:  &fakeOneInch{price: 102},
		CMC:      &fakeCMC{usd: map[string]float64{"ETH": 101, "USDT": 1}},
		Coinlib:  &fakeCoinlib{usd: map[string]float64{"ETH": 100, "USDT": 1}},
		Tokens:   testTokens,
		Pairs:    []domain.TradingPair{ethUSDT},
		Slippage: 0.005,
	}
}

func TestCapture_AssemblesAllVenues(t *testing.T) {
	svc := NewSnapshotService(snapshotDeps(), testLogger())

	snap, err := svc.Capture(context.Background())
	require.NoError(t, err)

	para, err := snap.Quote(domain.VenueParaswap, ethUSDT)
	require.NoError(t, err)
	assert.Equal(t, 100.0, para.Price)
	assert.Equal(t, 0.005, para.Slippage)

	one, err := snap.Quote(domain.VenueOneInch, ethUSDT)
	require.NoError(t, err)
	assert.Equal(t, 102.0, one.Price)

	cmc, err := snap.Quote(domain.VenueCoinMarketCap, ethUSDT)
	require.NoError(t, err)
	assert.Equal(t, 101.0, cmc.Price)
	assert.Zero(t, cmc.Slippage)

	cl, err := snap.Quote(domain.VenueCoinlib, ethUSDT)
	require.NoError(t, err)
	assert.Equal(t, 100.0, cl.Price)
}

func TestCapture_VenueFailureDegradesSnapshot(t *testing.T) {
	deps := snapshotDeps()
	deps.Paraswap = &fakeParaswap{err: errors.New("venue down")}
	svc := NewSnapshotService(deps, testLogger())

	snap, err := svc.Capture(context.Background())
	require.NoError(t, err)

	_, err = snap.Quote(domain.VenueParaswap, ethUSDT)
	assert.ErrorIs(t, err, domain.ErrMissingData)

	_, err = snap.Quote(domain.VenueOneInch, ethUSDT)
	assert.NoError(t, err)
}

func TestCapture_AllSwapVenuesDownIsAnError(t *testing.T) {
	deps := snapshotDeps()
	deps.Paraswap = &fakeParaswap{err: errors.New("down")}
	deps.OneInch = &fakeOneInch{err: errors.New("down")}
	svc := NewSnapshotService(deps, testLogger())

	_, err := svc.Capture(context.Background())
	assert.ErrorIs(t, err, domain.ErrMissingData)
}

func TestCapture_CrossesReferencePricesPerPair(t *testing.T) {
	deps := snapshotDeps()
	deps.CMC = &fakeCMC{usd: map[string]float64{"ETH": 2000, "USDT": 0.5}}
	svc := NewSnapshotService(deps, testLogger())

	snap, err := svc.Capture(context.Background())
	require.NoError(t, err)

	cmc, err := snap.Quote(domain.VenueCoinMarketCap, ethUSDT)
	require.NoError(t, err)
	assert.InDelta(t, 4000.0, cmc.Price, 1e-9)
}

func TestCapture_NonPositivePricesAreDropped(t *testing.T) {
	deps := snapshotDeps()
	deps.Paraswap = &fakeParaswap{prices: map[string]float64{"USDT": 0}}
	svc := NewSnapshotService(deps, testLogger())

	snap, err := svc.Capture(context.Background())
	require.NoError(t, err)

	_, err = snap.Quote(domain.VenueParaswap, ethUSDT)
	assert.ErrorIs(t, err, domain.ErrMissingData)
}
