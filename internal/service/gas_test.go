package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xfern/dexarb/internal/domain"
)

type fakeVenueGas struct {
	gwei      float64
	err       error
	gotAsset  string
	callCount int
}

func (f *fakeVenueGas) GetGasPrice(_ context.Context, tokenAddr string) (float64, error) {
	f.callCount++
	f.gotAsset = tokenAddr
	return f.gwei, f.err
}

func TestGasCascade_PrimaryWins(t *testing.T) {
	venue := &fakeVenueGas{gwei: 99}
	cascade := NewGasCascade(&fakeGasGauge{gwei: 42}, "0xabc", testLogger(), venue)

	gwei, err := cascade.GasPriceGwei(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42.0, gwei)
	assert.Zero(t, venue.callCount, "venues are not consulted while the node answers")
}

func TestGasCascade_FallsBackToVenues(t *testing.T) {
	broken := &fakeVenueGas{err: errors.New("429")}
	working := &fakeVenueGas{gwei: 55}
	cascade := NewGasCascade(&fakeGasGauge{err: errors.New("rpc down")}, "0xabc", testLogger(), broken, working)

	gwei, err := cascade.GasPriceGwei(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 55.0, gwei)
	assert.Equal(t, "0xabc", working.gotAsset)
}

func TestGasCascade_AllSourcesFail(t *testing.T) {
	venue := &fakeVenueGas{err: errors.New("down")}
	cascade := NewGasCascade(&fakeGasGauge{err: errors.New("rpc down")}, "0xabc", testLogger(), venue)

	_, err := cascade.GasPriceGwei(context.Background())
	require.ErrorIs(t, err, domain.ErrMissingData)
}
