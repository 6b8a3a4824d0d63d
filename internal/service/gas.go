package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/0xfern/dexarb/internal/domain"
)

// VenueGasSource reads an aggregator's fast-tier gas estimate, in gwei, for a
// reference asset.
type VenueGasSource interface {
	GetGasPrice(ctx context.Context, tokenAddr string) (float64, error)
}

// GasCascade serves gas prices from the chain node first and falls back to
// the venue aggregators when the node read fails, so a flaky RPC endpoint
// does not stall discovery. It satisfies GasGauge.
type GasCascade struct {
	primary  GasGauge
	venues   []VenueGasSource
	gasAsset string // token address venues quote gas against
	logger   *slog.Logger
}

// NewGasCascade creates a GasCascade. venues are tried in order after the
// primary gauge fails.
func NewGasCascade(primary GasGauge, gasAsset string, logger *slog.Logger, venues ...VenueGasSource) *GasCascade {
	return &GasCascade{
		primary:  primary,
		venues:   venues,
		gasAsset: gasAsset,
		logger:   logger.With(slog.String("component", "gas_cascade")),
	}
}

// GasPriceGwei returns the first gas price any source yields.
func (g *GasCascade) GasPriceGwei(ctx context.Context) (float64, error) {
	gwei, err := g.primary.GasPriceGwei(ctx)
	if err == nil {
		return gwei, nil
	}
	g.logger.Warn("node gas price failed, trying venues", "error", err)

	for _, venue := range g.venues {
		gwei, verr := venue.GetGasPrice(ctx, g.gasAsset)
		if verr != nil {
			g.logger.Warn("venue gas price failed", "error", verr)
			err = verr
			continue
		}
		if gwei > 0 {
			return gwei, nil
		}
	}
	return 0, fmt.Errorf("gas_cascade: all sources failed: %w (last: %w)", domain.ErrMissingData, err)
}
