package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/0xfern/dexarb/internal/arbitrage"
	"github.com/0xfern/dexarb/internal/domain"
)

// SelectionService runs the sequence selector over a cycle's opportunities:
// it refreshes wallet balances, delegates the ranking to the selector, and
// records whichever sequence wins.
type SelectionService struct {
	selector      *arbitrage.Selector
	balances      domain.BalanceSource
	tokens        domain.TokenRegistry
	opportunities domain.OpportunityStore
	bus           domain.SignalBus
	notifier      Notifier
	logger        *slog.Logger
}

// NewSelectionService creates a SelectionService. opportunities, bus, and
// notifier may be nil when the corresponding sink is disabled.
func NewSelectionService(
	selector *arbitrage.Selector,
	balances domain.BalanceSource,
	tokens domain.TokenRegistry,
	opportunities domain.OpportunityStore,
	bus domain.SignalBus,
	notifier Notifier,
	logger *slog.Logger,
) *SelectionService {
	return &SelectionService{
		selector:      selector,
		balances:      balances,
		tokens:        tokens,
		opportunities: opportunities,
		bus:           bus,
		notifier:      notifier,
		logger:        logger.With(slog.String("component", "selection_service")),
	}
}

// SelectBest refreshes balances once, picks the best feasible sequence, and
// records the outcome. A nil sequence with nil error means the cycle ends
// with nothing selected, which is the common case.
func (s *SelectionService) SelectBest(ctx context.Context, opps []domain.Opportunity) (*domain.TradeSequence, error) {
	if len(opps) == 0 {
		return nil, nil
	}

	balances, err := s.balances.Balances(ctx, s.collateralTokens(opps))
	if err != nil {
		return nil, fmt.Errorf("selection_service: balances: %w", err)
	}

	seq, err := s.selector.SelectBest(ctx, opps, balances)
	if err != nil {
		return nil, fmt.Errorf("selection_service: %w", err)
	}
	if seq == nil {
		s.logger.Info("no sequence selected", slog.Int("candidates", len(opps)))
		return nil, nil
	}

	s.recordSelection(ctx, *seq)
	return seq, nil
}

// collateralTokens collects every token address any candidate needs, so a
// single balance refresh covers the whole selector run.
func (s *SelectionService) collateralTokens(opps []domain.Opportunity) []string {
	seen := map[string]bool{}
	var out []string
	for _, opp := range opps {
		for addr := range opp.Collateral {
			if !seen[addr] {
				seen[addr] = true
				out = append(out, addr)
			}
		}
	}
	return out
}

func (s *SelectionService) recordSelection(ctx context.Context, seq domain.TradeSequence) {
	if s.opportunities != nil {
		if err := s.opportunities.MarkSelected(ctx, seq.OpportunityID, seq); err != nil {
			s.logger.Error("mark selected failed", "opportunity_id", seq.OpportunityID, "error", err)
		}
	}

	if s.bus != nil {
		evt, _ := json.Marshal(map[string]any{
			"event":           "sequence_selected",
			"opportunity_id":  seq.OpportunityID,
			"steps":           len(seq.Steps),
			"realized_profit": seq.RealizedProfit,
			"gas_cost_usd":    seq.GasCostUSD,
			"resolved_at":     seq.ResolvedAt.Format(time.RFC3339Nano),
		})
		if err := s.bus.Publish(ctx, "selections", evt); err != nil {
			s.logger.Warn("publish selection failed", "opportunity_id", seq.OpportunityID, "error", err)
		}
	}

	if s.notifier != nil {
		var pair string
		if len(seq.Steps) > 0 {
			pair = seq.Steps[0].Pair.String()
		}
		title := fmt.Sprintf("Trade sequence selected: %s", pair)
		msg := fmt.Sprintf("realized profit %.4f net of %.4f USD gas across %d steps",
			seq.RealizedProfit, seq.GasCostUSD, len(seq.Steps))
		if err := s.notifier.Notify(ctx, "sequence_selected", title, msg); err != nil {
			s.logger.Warn("notify failed", "opportunity_id", seq.OpportunityID, "error", err)
		}
	}
}
