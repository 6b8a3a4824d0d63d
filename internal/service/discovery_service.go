package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/0xfern/dexarb/internal/domain"
)

// GasGauge reads the current network gas price in gwei.
type GasGauge interface {
	GasPriceGwei(ctx context.Context) (float64, error)
}

// swapGasUnits approximates the gas consumed by one aggregator swap. Two
// swaps make a full round trip.
const swapGasUnits = 350_000

// DiscoveryService promotes accepted decisions into opportunities for the
// selector: it converts expected profit into a percentage, attaches the
// collateral requirement and a gas cost estimate, and persists the result.
type DiscoveryService struct {
	tokens           domain.TokenRegistry
	gas              GasGauge
	refs             ReferencePricer
	nativeSymbol     string
	minProfitPercent float64
	opportunities    domain.OpportunityStore
	logger           *slog.Logger
}

// NewDiscoveryService creates a DiscoveryService. nativeSymbol names the
// chain's gas token (e.g. "MATIC") for gas cost conversion; opportunities may
// be nil when persistence is disabled.
func NewDiscoveryService(
	tokens domain.TokenRegistry,
	gas GasGauge,
	refs ReferencePricer,
	nativeSymbol string,
	minProfitPercent float64,
	opportunities domain.OpportunityStore,
	logger *slog.Logger,
) *DiscoveryService {
	return &DiscoveryService{
		tokens:           tokens,
		gas:              gas,
		refs:             refs,
		nativeSymbol:     nativeSymbol,
		minProfitPercent: minProfitPercent,
		opportunities:    opportunities,
		logger:           logger.With(slog.String("component", "discovery_service")),
	}
}

// Discover filters the cycle's decisions down to opportunities worth
// selecting. Rejected decisions and accepted ones below the profit-percent
// floor are dropped; survivors get an ID, collateral, and a shared gas cost
// estimate.
func (s *DiscoveryService) Discover(ctx context.Context, decisions []domain.Decision) ([]domain.Opportunity, error) {
	gasCostUSD, err := s.roundTripGasCostUSD(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovery_service: gas cost: %w", err)
	}

	var out []domain.Opportunity
	for _, d := range decisions {
		if !d.Opportunity {
			continue
		}
		if d.ReferenceHigh.Price <= 0 {
			continue
		}
		profitPercent := d.ExpectedProfit / d.ReferenceHigh.Price
		if profitPercent < s.minProfitPercent {
			s.logger.Debug("opportunity below percent floor",
				"pair", d.Pair.String(), "profit_percent", profitPercent)
			continue
		}

		quoteAddr, err := s.tokens.Resolve(d.Pair.Quote)
		if err != nil {
			s.logger.Warn("unresolvable quote token", "pair", d.Pair.String(), "error", err)
			continue
		}

		opp := domain.Opportunity{
			ID:            uuid.NewString(),
			Pair:          d.Pair,
			ProfitPercent: profitPercent,
			// The round trip is funded in the quote asset at the reference
			// notional for one unit of base.
			Collateral: map[string]float64{quoteAddr: d.ReferenceHigh.Price},
			GasCostUSD: gasCostUSD,
			DetectedAt: time.Now().UTC(),
		}
		out = append(out, opp)

		if s.opportunities != nil {
			if err := s.opportunities.Insert(ctx, opp); err != nil {
				s.logger.Error("persist opportunity failed", "pair", d.Pair.String(), "error", err)
			}
		}
	}

	s.logger.Info("discovery complete",
		slog.Int("decisions", len(decisions)),
		slog.Int("opportunities", len(out)),
		slog.Float64("gas_cost_usd", gasCostUSD),
	)
	return out, nil
}

// roundTripGasCostUSD prices two swaps' worth of gas in USD using the
// current gas price and the native token's reference price.
func (s *DiscoveryService) roundTripGasCostUSD(ctx context.Context) (float64, error) {
	gasGwei, err := s.gas.GasPriceGwei(ctx)
	if err != nil {
		return 0, err
	}
	usd, err := s.refs.GetQuotes(ctx, []string{s.nativeSymbol})
	if err != nil {
		return 0, err
	}
	nativeUSD, ok := usd[s.nativeSymbol]
	if !ok || nativeUSD <= 0 {
		return 0, fmt.Errorf("no reference price for %s: %w", s.nativeSymbol, domain.ErrMissingData)
	}
	nativeSpent := gasGwei * 1e-9 * swapGasUnits * 2
	return nativeSpent * nativeUSD, nil
}
