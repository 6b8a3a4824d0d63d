package domain

import (
	"fmt"
	"time"
)

// PriceSnapshot is the read-only view of everything one evaluation cycle
// needs: per-venue quotes, per-asset sentiment scores, and per-asset yield
// estimates, all captured at approximately the same instant. A fresh snapshot
// is built every cycle; nothing mutates it afterwards, so evaluations stay
// pure and cross-cycle staleness cannot leak in.
type PriceSnapshot struct {
	quotes     map[Venue]map[string]PriceQuote
	sentiment  map[string]float64
	yields     map[string]YieldEstimate
	capturedAt time.Time
}

// NewPriceSnapshot copies the given maps into an immutable snapshot.
func NewPriceSnapshot(
	quotes map[Venue]map[string]PriceQuote,
	sentiment map[string]float64,
	yields map[string]YieldEstimate,
	capturedAt time.Time,
) *PriceSnapshot {
	qs := make(map[Venue]map[string]PriceQuote, len(quotes))
	for venue, byPair := range quotes {
		m := make(map[string]PriceQuote, len(byPair))
		for k, v := range byPair {
			m[k] = v
		}
		qs[venue] = m
	}
	sn := make(map[string]float64, len(sentiment))
	for k, v := range sentiment {
		sn[k] = v
	}
	ys := make(map[string]YieldEstimate, len(yields))
	for k, v := range yields {
		ys[k] = v
	}
	return &PriceSnapshot{quotes: qs, sentiment: sn, yields: ys, capturedAt: capturedAt}
}

// Quote returns the captured quote for a pair on a venue. It returns
// ErrMissingData when the venue reported nothing for that pair this cycle.
func (s *PriceSnapshot) Quote(venue Venue, pair TradingPair) (PriceQuote, error) {
	byPair, ok := s.quotes[venue]
	if !ok {
		return PriceQuote{}, fmt.Errorf("venue %s: %w", venue, ErrMissingData)
	}
	q, ok := byPair[pair.String()]
	if !ok {
		return PriceQuote{}, fmt.Errorf("quote %s on %s: %w", pair, venue, ErrMissingData)
	}
	return q, nil
}

// Sentiment returns the sentiment score for an asset and whether one was
// captured. Callers decide the missing-score policy (the evaluator treats
// missing as neutral).
func (s *PriceSnapshot) Sentiment(asset string) (float64, bool) {
	v, ok := s.sentiment[asset]
	return v, ok
}

// Yield returns the yield estimate for an asset and whether one was captured.
// Missing means the asset is not lendable this cycle, not that yield is zero.
func (s *PriceSnapshot) Yield(asset string) (YieldEstimate, bool) {
	y, ok := s.yields[asset]
	return y, ok
}

// CapturedAt returns the snapshot capture time.
func (s *PriceSnapshot) CapturedAt() time.Time {
	return s.capturedAt
}

// Pairs returns every pair for which the given venue captured a quote.
func (s *PriceSnapshot) Pairs(venue Venue) []string {
	byPair := s.quotes[venue]
	out := make([]string, 0, len(byPair))
	for k := range byPair {
		out = append(out, k)
	}
	return out
}
