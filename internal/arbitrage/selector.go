package arbitrage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/0xfern/dexarb/internal/domain"
)

// Selector scans candidate opportunities, enforces collateral feasibility,
// and picks the single most profitable feasible trade sequence. It holds no
// state between runs; balances are captured once per run by the caller.
type Selector struct {
	network  domain.NetworkChecker
	resolver domain.TradeResolver
	logger   *slog.Logger
}

// NewSelector creates a Selector with its external collaborators.
func NewSelector(network domain.NetworkChecker, resolver domain.TradeResolver, logger *slog.Logger) *Selector {
	return &Selector{
		network:  network,
		resolver: resolver,
		logger:   logger.With(slog.String("component", "selector")),
	}
}

// SelectBest returns the resolved trade sequence of the most profitable
// feasible opportunity, or nil when nothing qualifies.
//
// Unfavorable network conditions are a hard precondition: the scan is skipped
// entirely. Within the scan, a candidate must strictly beat the incumbent's
// profit (ties keep the first-seen candidate, in the discovery order given),
// must be fully collateralized for every required asset (no partial fills),
// and its resolved sequence must realize strictly more profit net of gas than
// the incumbent's. Resolver failures skip the candidate, never the run.
func (s *Selector) SelectBest(ctx context.Context, opps []domain.Opportunity, balances domain.Balances) (*domain.TradeSequence, error) {
	ok, err := s.network.CheckNetworkConditions(ctx)
	if err != nil {
		return nil, fmt.Errorf("selector: network conditions: %w", err)
	}
	if !ok {
		s.logger.InfoContext(ctx, "network conditions unfavorable, skipping selection",
			slog.Int("candidates", len(opps)),
		)
		return nil, nil
	}

	var best *domain.TradeSequence
	bestProfit := 0.0

	for _, opp := range opps {
		if opp.ProfitPercent <= bestProfit {
			continue
		}
		if !balances.Covers(opp.Collateral) {
			s.logger.DebugContext(ctx, "insufficient collateral, skipping",
				slog.String("opp_id", opp.ID),
				slog.String("pair", opp.Pair.String()),
			)
			continue
		}

		seq, err := s.resolver.ResolveSequence(ctx, opp)
		if err != nil {
			s.logger.WarnContext(ctx, "sequence resolution failed, skipping",
				slog.String("opp_id", opp.ID),
				slog.String("error", err.Error()),
			)
			continue
		}

		if seq.RealizedProfit > bestProfit {
			best = &seq
			bestProfit = seq.RealizedProfit
			s.logger.DebugContext(ctx, "new incumbent",
				slog.String("opp_id", opp.ID),
				slog.Float64("realized_profit", bestProfit),
			)
		}
	}

	if best == nil {
		s.logger.InfoContext(ctx, "no feasible opportunity selected",
			slog.Int("candidates", len(opps)),
		)
		return nil, nil
	}

	s.logger.InfoContext(ctx, "opportunity selected",
		slog.String("opp_id", best.OpportunityID),
		slog.Int("steps", len(best.Steps)),
		slog.Float64("realized_profit", best.RealizedProfit),
	)
	return best, nil
}
