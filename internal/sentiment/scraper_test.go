package sentiment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xfern/dexarb/internal/domain"
)

type fakeLimiter struct {
	waitCalls int
	waitErr   error
}

func (f *fakeLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return true, nil
}

func (f *fakeLimiter) Wait(context.Context, string, int, time.Duration) error {
	f.waitCalls++
	return f.waitErr
}

func scraperLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScore_WaitsOnSearchBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data": [
			{"id": "1", "text": "ethereum looking great", "created_at": "2026-08-30T10:00:00Z"},
			{"id": "2", "text": "ethereum is terrible", "created_at": "2026-08-30T10:01:00Z"}
		], "meta": {"result_count": 2}}`))
	}))
	defer srv.Close()

	limiter := &fakeLimiter{}
	s := NewScraper(srv.URL, "tok", 10, nil, limiter, scraperLogger())

	score, err := s.Score(context.Background(), "ETH", []string{"ethereum", "eth price"})
	require.NoError(t, err)

	assert.Equal(t, 2, limiter.waitCalls, "each term waits for the shared search budget")
	assert.Equal(t, 4, score.SampleSize)
	assert.Equal(t, "ETH", score.Asset)
}

func TestScore_LimiterErrorDegradesTerm(t *testing.T) {
	limiter := &fakeLimiter{waitErr: errors.New("context canceled")}
	s := NewScraper("http://unused", "tok", 10, nil, limiter, scraperLogger())

	_, err := s.Score(context.Background(), "ETH", []string{"ethereum"})
	require.ErrorIs(t, err, domain.ErrMissingData, "no terms sampled means no score")
}
