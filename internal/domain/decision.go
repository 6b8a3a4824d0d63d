package domain

import "time"

// RejectReason explains why the evaluator declined a pair. Rejections are
// valid negative decisions, not errors; the decision still carries every raw
// figure for observability.
type RejectReason string

const (
	// ReasonNone marks an accepted decision.
	ReasonNone RejectReason = ""
	// ReasonYieldDominates: lending the quote asset over the trade horizon
	// beats the expected arbitrage profit.
	ReasonYieldDominates RejectReason = "yield_dominates"
	// ReasonNegativeSentiment: the base asset's sentiment score is negative.
	ReasonNegativeSentiment RejectReason = "negative_sentiment"
	// ReasonInsufficientSpread: venue A is not strictly cheaper than venue B
	// after A's own fee margin.
	ReasonInsufficientSpread RejectReason = "insufficient_spread"
	// ReasonReferenceMismatch: the two market-reference sources disagree on
	// the direction of the move, suggesting a feed glitch.
	ReasonReferenceMismatch RejectReason = "reference_mismatch"
	// ReasonBelowMinimumProfit: expected profit is under the configured floor.
	ReasonBelowMinimumProfit RejectReason = "below_minimum_profit"
)

// Decision is the evaluator's verdict for one pair in one cycle, carrying all
// inputs it was based on. Immutable once produced.
type Decision struct {
	ID             string
	Pair           TradingPair
	QuoteA         PriceQuote // swap venue A (buy side candidate)
	QuoteB         PriceQuote // swap venue B (sell side candidate)
	ReferenceHigh  PriceQuote // market-reference source expected high
	ReferenceLow   PriceQuote // market-reference source expected low
	Sentiment      float64    // score used, 0 when none was captured
	PotentialYield float64    // normalized yield figure, 0 when unavailable
	YieldAvailable bool
	ExpectedProfit float64
	Opportunity    bool
	Reason         RejectReason
	EvaluatedAt    time.Time
}
