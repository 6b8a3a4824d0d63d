package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/0xfern/dexarb/internal/arbitrage"
	"github.com/0xfern/dexarb/internal/domain"
)

// Notifier delivers operator alerts for a given event type.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// DecisionService runs the evaluator over every configured pair for one
// snapshot, stamps and persists the resulting decisions, and publishes them
// on the signal bus.
type DecisionService struct {
	evaluator *arbitrage.Evaluator
	pairs     []domain.TradingPair
	decisions domain.DecisionStore
	audit     domain.AuditStore
	bus       domain.SignalBus
	notifier  Notifier
	logger    *slog.Logger
}

// NewDecisionService creates a DecisionService. decisions, audit, bus, and
// notifier may be nil when the corresponding sink is disabled.
func NewDecisionService(
	evaluator *arbitrage.Evaluator,
	pairs []domain.TradingPair,
	decisions domain.DecisionStore,
	audit domain.AuditStore,
	bus domain.SignalBus,
	notifier Notifier,
	logger *slog.Logger,
) *DecisionService {
	return &DecisionService{
		evaluator: evaluator,
		pairs:     pairs,
		decisions: decisions,
		audit:     audit,
		bus:       bus,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "decision_service")),
	}
}

// EvaluateSnapshot evaluates every configured pair against the snapshot and
// returns the stamped decisions. A pair whose inputs are incomplete this
// cycle is skipped, not failed: missing market data is an expected condition,
// and the remaining pairs still deserve their verdicts.
func (s *DecisionService) EvaluateSnapshot(ctx context.Context, snap *domain.PriceSnapshot) ([]domain.Decision, error) {
	out := make([]domain.Decision, 0, len(s.pairs))

	for _, pair := range s.pairs {
		in, err := s.assembleInputs(snap, pair)
		if err != nil {
			s.logger.Warn("pair skipped", "pair", pair.String(), "error", err)
			continue
		}

		d, err := s.evaluator.Evaluate(in)
		if err != nil {
			s.logger.Error("evaluation failed", "pair", pair.String(), "error", err)
			continue
		}

		d.ID = uuid.NewString()
		d.EvaluatedAt = snap.CapturedAt()
		out = append(out, d)

		s.record(ctx, d)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("decision_service: no pair could be evaluated: %w", domain.ErrMissingData)
	}
	return out, nil
}

// assembleInputs gathers one pair's inputs from the snapshot. The cheaper
// swap quote goes in slot A so the spread check sees the profitable
// direction; the reference with the higher cross price goes in the high slot.
func (s *DecisionService) assembleInputs(snap *domain.PriceSnapshot, pair domain.TradingPair) (arbitrage.Inputs, error) {
	qA, err := snap.Quote(domain.VenueParaswap, pair)
	if err != nil {
		return arbitrage.Inputs{}, err
	}
	qB, err := snap.Quote(domain.VenueOneInch, pair)
	if err != nil {
		return arbitrage.Inputs{}, err
	}
	if qA.Price > qB.Price {
		qA, qB = qB, qA
	}

	refHigh, err := snap.Quote(domain.VenueCoinMarketCap, pair)
	if err != nil {
		return arbitrage.Inputs{}, err
	}
	refLow, err := snap.Quote(domain.VenueCoinlib, pair)
	if err != nil {
		return arbitrage.Inputs{}, err
	}
	if refLow.Price > refHigh.Price {
		refHigh, refLow = refLow, refHigh
	}

	in := arbitrage.Inputs{
		Pair:          pair,
		QuoteA:        qA,
		QuoteB:        qB,
		ReferenceHigh: refHigh,
		ReferenceLow:  refLow,
	}
	if score, ok := snap.Sentiment(pair.Base); ok {
		in.Sentiment = &score
	}
	if y, ok := snap.Yield(pair.Quote); ok {
		in.Yield = &y
	}
	return in, nil
}

// record persists, publishes, and alerts for a single decision, best-effort.
func (s *DecisionService) record(ctx context.Context, d domain.Decision) {
	if s.decisions != nil {
		if err := s.decisions.Insert(ctx, d); err != nil {
			s.logger.Error("persist decision failed", "pair", d.Pair.String(), "error", err)
		}
	}

	if s.bus != nil {
		evt, _ := json.Marshal(map[string]any{
			"event":           "decision",
			"id":              d.ID,
			"pair":            d.Pair.String(),
			"opportunity":     d.Opportunity,
			"reason":          string(d.Reason),
			"expected_profit": d.ExpectedProfit,
			"evaluated_at":    d.EvaluatedAt.Format(time.RFC3339Nano),
		})
		if err := s.bus.Publish(ctx, "decisions", evt); err != nil {
			s.logger.Warn("publish decision failed", "pair", d.Pair.String(), "error", err)
		}
	}

	if d.Opportunity {
		if s.audit != nil {
			if err := s.audit.Log(ctx, "opportunity_accepted", map[string]any{
				"decision_id":     d.ID,
				"pair":            d.Pair.String(),
				"expected_profit": d.ExpectedProfit,
			}); err != nil {
				s.logger.Warn("audit log failed", "pair", d.Pair.String(), "error", err)
			}
		}
		if s.notifier != nil {
			title := fmt.Sprintf("Arbitrage opportunity: %s", d.Pair)
			msg := fmt.Sprintf("expected profit %.4f %s (A %.6f on %s, B %.6f on %s)",
				d.ExpectedProfit, d.Pair.Quote,
				d.QuoteA.Price, d.QuoteA.Venue,
				d.QuoteB.Price, d.QuoteB.Venue)
			if err := s.notifier.Notify(ctx, "opportunity", title, msg); err != nil {
				s.logger.Warn("notify failed", "pair", d.Pair.String(), "error", err)
			}
		}
	}
}
