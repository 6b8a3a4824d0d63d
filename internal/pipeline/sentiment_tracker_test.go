package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xfern/dexarb/internal/domain"
)

type fakeScoreSource struct {
	scores map[string]float64
	err    error
	calls  int
}

func (f *fakeScoreSource) Score(_ context.Context, asset string, _ []string) (domain.SentimentScore, error) {
	f.calls++
	if f.err != nil {
		return domain.SentimentScore{}, f.err
	}
	return domain.SentimentScore{Asset: asset, Score: f.scores[asset], SampleSize: 10, ScoredAt: time.Now()}, nil
}

func trackerLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTracker_ScoreBeforeRefreshIsMissing(t *testing.T) {
	tr := NewSentimentTracker(&fakeScoreSource{}, nil, map[string][]string{"ETH": {"ethereum"}}, time.Minute, trackerLogger())

	_, err := tr.Score(context.Background(), "ETH", nil)
	assert.ErrorIs(t, err, domain.ErrMissingData)
}

func TestTracker_RefreshServesCachedScores(t *testing.T) {
	src := &fakeScoreSource{scores: map[string]float64{"ETH": 0.4, "MATIC": -0.2}}
	tr := NewSentimentTracker(src, nil, map[string][]string{
		"ETH":   {"ethereum"},
		"MATIC": {"polygon"},
	}, time.Minute, trackerLogger())

	tr.refreshAll(context.Background())

	eth, err := tr.Score(context.Background(), "ETH", nil)
	require.NoError(t, err)
	assert.Equal(t, 0.4, eth.Score)

	matic, err := tr.Score(context.Background(), "MATIC", nil)
	require.NoError(t, err)
	assert.Equal(t, -0.2, matic.Score)
}

type fakeTweetStore struct {
	tweets    []domain.Tweet
	err       error
	lastSince time.Time
}

func (f *fakeTweetStore) Insert(context.Context, []domain.Tweet) error { return nil }

func (f *fakeTweetStore) ListSince(_ context.Context, since time.Time) ([]domain.Tweet, error) {
	f.lastSince = since
	return f.tweets, f.err
}

func (f *fakeTweetStore) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func TestTracker_SeedFromStoredTweets(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeTweetStore{tweets: []domain.Tweet{
		{ID: "1", Term: "ethereum", Compound: 0.6, ScrapedAt: now},
		{ID: "2", Term: "ethereum", Compound: 0.2, ScrapedAt: now.Add(-time.Minute)},
		{ID: "3", Term: "polygon", Compound: -0.5, ScrapedAt: now},
	}}
	tr := NewSentimentTracker(&fakeScoreSource{}, store, map[string][]string{
		"ETH":   {"ethereum"},
		"MATIC": {"polygon"},
	}, 10*time.Minute, trackerLogger())

	tr.seed(context.Background())

	eth, err := tr.Score(context.Background(), "ETH", nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, eth.Score, 1e-9)
	assert.Equal(t, 2, eth.SampleSize)

	matic, err := tr.Score(context.Background(), "MATIC", nil)
	require.NoError(t, err)
	assert.InDelta(t, -0.5, matic.Score, 1e-9)

	assert.WithinDuration(t, now.Add(-10*time.Minute), store.lastSince, 5*time.Second,
		"seed window matches the refresh interval")
}

func TestTracker_SeedFailureLeavesScoresMissing(t *testing.T) {
	store := &fakeTweetStore{err: errors.New("db down")}
	tr := NewSentimentTracker(&fakeScoreSource{}, store, map[string][]string{"ETH": {"ethereum"}}, time.Minute, trackerLogger())

	tr.seed(context.Background())

	_, err := tr.Score(context.Background(), "ETH", nil)
	assert.ErrorIs(t, err, domain.ErrMissingData)
}

func TestTracker_FailedRefreshKeepsPreviousScore(t *testing.T) {
	src := &fakeScoreSource{scores: map[string]float64{"ETH": 0.4}}
	tr := NewSentimentTracker(src, nil, map[string][]string{"ETH": {"ethereum"}}, time.Minute, trackerLogger())

	tr.refreshAll(context.Background())
	src.err = errors.New("api down")
	tr.refreshAll(context.Background())

	score, err := tr.Score(context.Background(), "ETH", nil)
	require.NoError(t, err)
	assert.Equal(t, 0.4, score.Score)
}
