package chain

import (
	"bytes"
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xfern/dexarb/internal/domain"
)

// fakeCaller answers balanceOf and decimals eth_calls with fixed values.
type fakeCaller struct {
	rawBalance *big.Int
	decimals   uint8
}

func (f *fakeCaller) callContract(_ context.Context, _ common.Address, data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, balanceOfSelector) {
		return common.LeftPadBytes(f.rawBalance.Bytes(), 32), nil
	}
	if bytes.HasPrefix(data, decimalsSelector) {
		return common.LeftPadBytes(big.NewInt(int64(f.decimals)).Bytes(), 32), nil
	}
	return nil, nil
}

func newTestReader(caller contractCaller) *BalanceReader {
	return &BalanceReader{
		client:   caller,
		wallet:   common.HexToAddress("0x1111111111111111111111111111111111111111"),
		decimals: make(map[common.Address]uint8),
	}
}

func TestBalancesKeyedByRequestedAddress(t *testing.T) {
	// 500 USDT at 6 decimals, requested with the lowercase address the token
	// registry carries. The checksummed form differs in casing, and collateral
	// maps are keyed with the registry string, so the result must echo it.
	const usdt = "0xc2132d05d31c914a87c6611c10748aeb04b58e8f"

	reader := newTestReader(&fakeCaller{rawBalance: big.NewInt(500_000_000), decimals: 6})

	balances, err := reader.Balances(context.Background(), []string{usdt})
	require.NoError(t, err)

	require.Contains(t, balances, usdt)
	assert.InDelta(t, 500.0, balances[usdt], 1e-9)
	assert.True(t, balances.Covers(map[string]float64{usdt: 100}),
		"collateral keyed by the same registry address must be covered")
}

func TestBalancesRejectsMalformedAddress(t *testing.T) {
	reader := newTestReader(&fakeCaller{rawBalance: big.NewInt(1), decimals: 18})

	_, err := reader.Balances(context.Background(), []string{"not-an-address"})
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestBalancesScalesByTokenDecimals(t *testing.T) {
	// 1.5 tokens at 18 decimals.
	raw, _ := new(big.Int).SetString("1500000000000000000", 10)
	reader := newTestReader(&fakeCaller{rawBalance: raw, decimals: 18})

	balances, err := reader.Balances(context.Background(), []string{"0x2222222222222222222222222222222222222222"})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, balances["0x2222222222222222222222222222222222222222"], 1e-9)
}
