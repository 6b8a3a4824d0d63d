// Package arbitrage holds the decision core of the engine: the opportunity
// evaluator that classifies a single pair from one price snapshot, and the
// sequence selector that picks the best feasible trade chain from many
// candidates. Everything here is pure, synchronous computation over
// already-fetched data; fetching, retries, and execution live elsewhere.
package arbitrage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/0xfern/dexarb/internal/domain"
)

// EvaluatorConfig holds the tunable parameters of the opportunity evaluator.
type EvaluatorConfig struct {
	// Slippage is the assumed execution cost fraction applied symmetrically
	// to buy and sell legs, in [0,1).
	Slippage float64
	// MinProfit is the minimum expected profit, in the common quote
	// currency, required to accept an opportunity.
	MinProfit float64
	// TradeHorizon is the system-wide holding duration used both as the
	// trade duration and as the lending term in the yield comparison.
	TradeHorizon time.Duration
}

// Validate checks the config invariants.
func (c EvaluatorConfig) Validate() error {
	if c.Slippage < 0 || c.Slippage >= 1 {
		return fmt.Errorf("%w: slippage %f must be in [0,1)", domain.ErrInvalidParameter, c.Slippage)
	}
	if c.MinProfit < 0 {
		return fmt.Errorf("%w: min profit %f must be non-negative", domain.ErrInvalidParameter, c.MinProfit)
	}
	if c.TradeHorizon <= 0 {
		return fmt.Errorf("%w: trade horizon %s must be positive", domain.ErrInvalidParameter, c.TradeHorizon)
	}
	return nil
}

// Inputs bundles everything the evaluator needs for one pair: the two swap
// venue quotes, the two market-reference quotes, and the optional sentiment
// and yield readings. Nil Sentiment means no score was captured this cycle
// (treated as neutral); nil Yield means the quote asset is not lendable
// (the yield check is skipped, not computed with zero).
type Inputs struct {
	Pair          domain.TradingPair
	QuoteA        domain.PriceQuote // swap venue expected to be cheaper
	QuoteB        domain.PriceQuote // swap venue expected to be dearer
	ReferenceHigh domain.PriceQuote
	ReferenceLow  domain.PriceQuote
	Sentiment     *float64
	Yield         *domain.YieldEstimate
}

// Evaluator classifies a single trading pair as arbitrable or not from one
// immutable snapshot's figures. It is stateless apart from its config;
// identical inputs always produce identical decisions.
type Evaluator struct {
	cfg    EvaluatorConfig
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator, validating the config.
func NewEvaluator(cfg EvaluatorConfig, logger *slog.Logger) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("evaluator config: %w", err)
	}
	return &Evaluator{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "evaluator")),
	}, nil
}

// Evaluate runs the ordered checks for one pair and returns a Decision. A
// rejection is a successful, fully-populated negative Decision; errors are
// reserved for malformed or missing inputs, for which no Decision is
// produced.
//
// Check order: yield dominance, sentiment, cross-venue spread, reference
// consistency, minimum profit. Expected profit is computed once and shared
// by the yield comparison and the profit floor.
func (e *Evaluator) Evaluate(in Inputs) (domain.Decision, error) {
	if err := e.validateInputs(in); err != nil {
		return domain.Decision{}, err
	}

	s := e.cfg.Slippage
	qA := in.QuoteA.Price
	qB := in.QuoteB.Price
	refHigh := in.ReferenceHigh.Price
	refLow := in.ReferenceLow.Price

	// Expected profit, computed once for both the yield comparison and the
	// minimum-profit floor.
	profitAB := (qA/qB)*refHigh*(1-s) - refHigh*(1+s)
	profitBA := (qB/qA)*refHigh*(1-s) - refHigh*(1+s)
	expectedProfit := profitAB
	if profitBA > expectedProfit {
		expectedProfit = profitBA
	}

	sentiment := 0.0
	if in.Sentiment != nil {
		sentiment = *in.Sentiment
	}

	// ID and EvaluatedAt are assigned by the recording layer; leaving them
	// zero keeps Evaluate deterministic for identical inputs.
	d := domain.Decision{
		Pair:           in.Pair,
		QuoteA:         in.QuoteA,
		QuoteB:         in.QuoteB,
		ReferenceHigh:  in.ReferenceHigh,
		ReferenceLow:   in.ReferenceLow,
		Sentiment:      sentiment,
		ExpectedProfit: expectedProfit,
	}

	// 1. Yield dominance. Pool liquidity and rate gate availability; the
	// lending principal is the reference notional so both sides of the
	// comparison are in the quote currency per unit of base asset.
	if in.Yield != nil && in.Yield.AnnualRate > 0 && in.Yield.AvailableLiquidity > 0 {
		potentialYield, err := EstimateYield(refHigh, in.Yield.AnnualRate, e.cfg.TradeHorizon)
		if err != nil {
			return domain.Decision{}, fmt.Errorf("evaluate %s: yield: %w", in.Pair, err)
		}
		d.YieldAvailable = true
		d.PotentialYield = potentialYield
		if potentialYield > expectedProfit {
			return e.reject(d, domain.ReasonYieldDominates), nil
		}
	}

	// 2. Sentiment gate on the base asset.
	if !AdmitSentiment(sentiment) {
		return e.reject(d, domain.ReasonNegativeSentiment), nil
	}

	// 3. Cross-venue spread: A must be strictly cheaper than B after A's own
	// fee margin. Directional; the reverse ordering is a separate evaluation.
	if qA*(1+in.QuoteA.Slippage) >= qB {
		return e.reject(d, domain.ReasonInsufficientSpread), nil
	}

	// 4. Reference-price consistency: the independent reference sources must
	// agree the move is genuine divergence, not a feed glitch.
	if refHigh*(1+s) <= refLow {
		return e.reject(d, domain.ReasonReferenceMismatch), nil
	}

	// 5. Minimum profit floor.
	if expectedProfit < e.cfg.MinProfit {
		return e.reject(d, domain.ReasonBelowMinimumProfit), nil
	}

	d.Opportunity = true
	d.Reason = domain.ReasonNone
	e.logger.Debug("opportunity accepted",
		slog.String("pair", in.Pair.String()),
		slog.Float64("expected_profit", expectedProfit),
	)
	return d, nil
}

func (e *Evaluator) reject(d domain.Decision, reason domain.RejectReason) domain.Decision {
	d.Opportunity = false
	d.Reason = reason
	e.logger.Debug("pair rejected",
		slog.String("pair", d.Pair.String()),
		slog.String("reason", string(reason)),
		slog.Float64("expected_profit", d.ExpectedProfit),
	)
	return d
}

// validateInputs enforces the evaluator's preconditions: a valid pair, four
// valid quotes that all refer to that pair, and sane yield inputs when
// present. Missing quotes never default; they surface as errors upstream
// before Inputs is even assembled.
func (e *Evaluator) validateInputs(in Inputs) error {
	if err := in.Pair.Validate(); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	for _, q := range []domain.PriceQuote{in.QuoteA, in.QuoteB, in.ReferenceHigh, in.ReferenceLow} {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("evaluate %s: %w", in.Pair, err)
		}
		if q.Pair != in.Pair {
			return fmt.Errorf("%w: quote %s is for %s, evaluating %s",
				domain.ErrInvalidParameter, q.Venue, q.Pair, in.Pair)
		}
	}
	if in.Yield != nil {
		if in.Yield.AvailableLiquidity < 0 {
			return fmt.Errorf("%w: yield liquidity %f must be non-negative",
				domain.ErrInvalidParameter, in.Yield.AvailableLiquidity)
		}
		if in.Yield.AnnualRate < 0 {
			return fmt.Errorf("%w: yield annual rate %f must be non-negative",
				domain.ErrInvalidParameter, in.Yield.AnnualRate)
		}
	}
	return nil
}
