// Package pipeline wires the engine's periodic work: the evaluation cycle,
// sentiment refreshing, and cold-storage archival.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/0xfern/dexarb/internal/domain"
)

// scoreSource is the scraping backend the tracker refreshes from.
type scoreSource interface {
	Score(ctx context.Context, asset string, terms []string) (domain.SentimentScore, error)
}

// SentimentTracker keeps the latest sentiment score per asset in memory,
// refreshing on its own cadence so snapshot capture never waits on the
// scraping API. It serves the snapshot service as its score source.
type SentimentTracker struct {
	source   scoreSource
	tweets   domain.TweetStore
	terms    map[string][]string
	interval time.Duration
	logger   *slog.Logger

	mu     sync.RWMutex
	scores map[string]domain.SentimentScore
}

// NewSentimentTracker creates a SentimentTracker for the configured search
// terms. tweets may be nil; when set, scores are seeded from the last
// persisted interval on startup.
func NewSentimentTracker(source scoreSource, tweets domain.TweetStore, terms map[string][]string, interval time.Duration, logger *slog.Logger) *SentimentTracker {
	return &SentimentTracker{
		source:   source,
		tweets:   tweets,
		terms:    terms,
		interval: interval,
		logger:   logger.With(slog.String("component", "sentiment_tracker")),
		scores:   make(map[string]domain.SentimentScore),
	}
}

// Run seeds scores from storage, refreshes every tracked asset immediately,
// and then refreshes on the configured interval until the context ends.
func (t *SentimentTracker) Run(ctx context.Context) error {
	t.seed(ctx)
	t.refreshAll(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.refreshAll(ctx)
		}
	}
}

// seed rebuilds per-asset scores from tweets persisted within the last
// refresh interval, so a restart keeps serving the previous sample until the
// first live scrape lands instead of rejecting every snapshot with missing
// sentiment.
func (t *SentimentTracker) seed(ctx context.Context) {
	if t.tweets == nil {
		return
	}

	since := time.Now().UTC().Add(-t.interval)
	stored, err := t.tweets.ListSince(ctx, since)
	if err != nil {
		t.logger.Warn("sentiment seed failed", "error", err)
		return
	}
	if len(stored) == 0 {
		return
	}

	byTerm := make(map[string][]domain.Tweet)
	for _, tw := range stored {
		byTerm[tw.Term] = append(byTerm[tw.Term], tw)
	}

	for asset, terms := range t.terms {
		var sum float64
		var n int
		var latest time.Time
		for _, term := range terms {
			for _, tw := range byTerm[term] {
				sum += tw.Compound
				n++
				if tw.ScrapedAt.After(latest) {
					latest = tw.ScrapedAt
				}
			}
		}
		if n == 0 {
			continue
		}
		t.mu.Lock()
		t.scores[asset] = domain.SentimentScore{
			Asset:      asset,
			Score:      sum / float64(n),
			SampleSize: n,
			ScoredAt:   latest,
		}
		t.mu.Unlock()
		t.logger.Info("sentiment seeded from storage",
			slog.String("asset", asset), slog.Int("sample_size", n))
	}
}

func (t *SentimentTracker) refreshAll(ctx context.Context) {
	for asset, terms := range t.terms {
		score, err := t.source.Score(ctx, asset, terms)
		if err != nil {
			// Keep serving the previous score; a degraded scrape should not
			// flip the gate.
			t.logger.Warn("sentiment refresh failed", "asset", asset, "error", err)
			continue
		}
		t.mu.Lock()
		t.scores[asset] = score
		t.mu.Unlock()
		t.logger.Debug("sentiment refreshed",
			slog.String("asset", asset),
			slog.Float64("score", score.Score),
			slog.Int("sample_size", score.SampleSize),
		)
	}
}

// Score returns the cached score for the asset. It satisfies the snapshot
// service's scorer interface; the terms argument is ignored because the
// tracker refreshes from its own configuration.
func (t *SentimentTracker) Score(_ context.Context, asset string, _ []string) (domain.SentimentScore, error) {
	t.mu.RLock()
	score, ok := t.scores[asset]
	t.mu.RUnlock()
	if !ok {
		return domain.SentimentScore{}, fmt.Errorf("pipeline: no sentiment for %s yet: %w", asset, domain.ErrMissingData)
	}
	return score, nil
}
