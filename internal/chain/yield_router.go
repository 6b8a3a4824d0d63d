package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/0xfern/dexarb/internal/domain"
)

// YieldRouter routes yield lookups to the lending pool configured for each
// asset, trying the fallback pool when the asset has no primary entry.
type YieldRouter struct {
	primary  map[string]*LendingReader
	fallback map[string]*LendingReader
}

// NewYieldRouter builds one LendingReader per configured pool address. pools
// and fallbackPools map asset symbols to pool contract addresses;
// fallbackRates is shared by every reader.
func NewYieldRouter(client *Client, pools, fallbackPools map[string]string, fallbackRates map[string]float64) (*YieldRouter, error) {
	build := func(m map[string]string) (map[string]*LendingReader, error) {
		out := make(map[string]*LendingReader, len(m))
		// Pool addresses repeat across assets; share readers per address.
		byAddr := make(map[string]*LendingReader, len(m))
		for sym, addr := range m {
			r, ok := byAddr[addr]
			if !ok {
				var err error
				r, err = NewLendingReader(client, addr, fallbackRates)
				if err != nil {
					return nil, fmt.Errorf("chain: pool for %s: %w", sym, err)
				}
				byAddr[addr] = r
			}
			out[sym] = r
		}
		return out, nil
	}

	primary, err := build(pools)
	if err != nil {
		return nil, err
	}
	fallback, err := build(fallbackPools)
	if err != nil {
		return nil, err
	}

	return &YieldRouter{primary: primary, fallback: fallback}, nil
}

// ReserveYield answers from the asset's primary pool, then its fallback pool.
// Assets with no configured pool return ErrNotFound.
func (y *YieldRouter) ReserveYield(ctx context.Context, assetAddr, assetSymbol string, horizon time.Duration) (domain.YieldEstimate, error) {
	if r, ok := y.primary[assetSymbol]; ok {
		est, err := r.ReserveYield(ctx, assetAddr, assetSymbol, horizon)
		if err == nil {
			return est, nil
		}
		if fb, ok := y.fallback[assetSymbol]; ok {
			return fb.ReserveYield(ctx, assetAddr, assetSymbol, horizon)
		}
		return domain.YieldEstimate{}, err
	}
	if r, ok := y.fallback[assetSymbol]; ok {
		return r.ReserveYield(ctx, assetAddr, assetSymbol, horizon)
	}
	return domain.YieldEstimate{}, fmt.Errorf("chain: no lending pool for %s: %w", assetSymbol, domain.ErrNotFound)
}
