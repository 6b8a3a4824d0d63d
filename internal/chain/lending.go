package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0xfern/dexarb/internal/domain"
)

var getReserveDataSelector = selector("getReserveData(address)")

// ray is the Aave fixed-point scale (1e27) used for interest rates.
var ray = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(27), nil))

// LendingReader reads reserve state from an Aave-style lending pool. It is
// the on-chain input to the yield dominance check.
type LendingReader struct {
	client *Client
	pool   common.Address

	// fallbackRates supplies a configured annual rate per asset when the
	// pool call fails or reports a zero rate.
	fallbackRates map[string]float64
}

// NewLendingReader creates a LendingReader against the given pool contract.
func NewLendingReader(client *Client, poolAddr string, fallbackRates map[string]float64) (*LendingReader, error) {
	if !common.IsHexAddress(poolAddr) {
		return nil, fmt.Errorf("chain: lending pool address %q: %w", poolAddr, domain.ErrInvalidParameter)
	}
	return &LendingReader{
		client:        client,
		pool:          common.HexToAddress(poolAddr),
		fallbackRates: fallbackRates,
	}, nil
}

// ReserveYield returns the current lending yield available for the given
// asset over the given horizon. The annual rate comes from the pool's
// currentLiquidityRate (ray-scaled); available liquidity is the asset
// balance held by the reserve's aToken contract.
func (r *LendingReader) ReserveYield(ctx context.Context, assetAddr, assetSymbol string, horizon time.Duration) (domain.YieldEstimate, error) {
	if !common.IsHexAddress(assetAddr) {
		return domain.YieldEstimate{}, fmt.Errorf("chain: asset address %q: %w", assetAddr, domain.ErrInvalidParameter)
	}
	asset := common.HexToAddress(assetAddr)

	data := append(append([]byte{}, getReserveDataSelector...), common.LeftPadBytes(asset.Bytes(), 32)...)
	ret, err := r.client.callContract(ctx, r.pool, data)
	if err != nil {
		return r.fallbackYield(assetSymbol, horizon, err)
	}

	// ReserveData layout: word 3 is currentLiquidityRate, word 7 the
	// aToken address.
	rateRay, err := word(ret, 3)
	if err != nil {
		return domain.YieldEstimate{}, err
	}
	aTokenWord, err := word(ret, 7)
	if err != nil {
		return domain.YieldEstimate{}, err
	}
	aToken := common.BigToAddress(aTokenWord)

	annualRate, _ := new(big.Float).Quo(new(big.Float).SetInt(rateRay), ray).Float64()
	if annualRate <= 0 {
		if fb, ok := r.fallbackRates[assetSymbol]; ok {
			annualRate = fb
		}
	}

	liquidity, err := r.reserveLiquidity(ctx, asset, aToken)
	if err != nil {
		return domain.YieldEstimate{}, err
	}

	return domain.YieldEstimate{
		Asset:              assetSymbol,
		AvailableLiquidity: liquidity,
		AnnualRate:         annualRate,
		Duration:           horizon,
	}, nil
}

// reserveLiquidity returns the un-borrowed asset amount sitting in the
// aToken contract, in whole token units.
func (r *LendingReader) reserveLiquidity(ctx context.Context, asset, aToken common.Address) (float64, error) {
	data := append(append([]byte{}, balanceOfSelector...), common.LeftPadBytes(aToken.Bytes(), 32)...)
	ret, err := r.client.callContract(ctx, asset, data)
	if err != nil {
		return 0, fmt.Errorf("chain: reserve liquidity %s: %w", asset.Hex(), err)
	}
	raw, err := word(ret, 0)
	if err != nil {
		return 0, err
	}

	decData, err := r.client.callContract(ctx, asset, decimalsSelector)
	if err != nil {
		return 0, fmt.Errorf("chain: decimals %s: %w", asset.Hex(), err)
	}
	decWord, err := word(decData, 0)
	if err != nil {
		return 0, err
	}
	return scaleDown(raw, uint8(decWord.Uint64())), nil
}

// fallbackYield answers from configured rates when the pool is unreachable.
// Liquidity is reported as zero, which downstream treats as unavailable.
func (r *LendingReader) fallbackYield(assetSymbol string, horizon time.Duration, cause error) (domain.YieldEstimate, error) {
	fb, ok := r.fallbackRates[assetSymbol]
	if !ok {
		return domain.YieldEstimate{}, fmt.Errorf("chain: reserve data for %s: %w", assetSymbol, cause)
	}
	r.client.logger.Warn("lending pool unreachable, using fallback rate",
		"asset", assetSymbol, "rate", fb, "error", cause)
	return domain.YieldEstimate{
		Asset:      assetSymbol,
		AnnualRate: fb,
		Duration:   horizon,
	}, nil
}
