package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/0xfern/dexarb/internal/domain"
)

// Scraper pulls recent posts for the configured search terms, scores them,
// and persists the scored tweets.
type Scraper struct {
	baseURL     string
	bearerToken string
	maxPerTerm  int
	httpClient  *http.Client
	analyzer    *Analyzer
	tweets      domain.TweetStore
	limiter     domain.RateLimiter
	logger      *slog.Logger
}

// NewScraper creates a Scraper. tweets may be nil when persistence is
// disabled; limiter may be nil to skip client-side rate limiting.
func NewScraper(baseURL, bearerToken string, maxPerTerm int, tweets domain.TweetStore, limiter domain.RateLimiter, logger *slog.Logger) *Scraper {
	return &Scraper{
		baseURL:     baseURL,
		bearerToken: bearerToken,
		maxPerTerm:  maxPerTerm,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		analyzer: NewAnalyzer(),
		tweets:   tweets,
		limiter:  limiter,
		logger:   logger.With(slog.String("component", "sentiment")),
	}
}

// apiSearch is the wire shape of the recent-search response.
type apiSearch struct {
	Data []struct {
		ID        string    `json:"id"`
		Text      string    `json:"text"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"data"`
	Meta struct {
		ResultCount int `json:"result_count"`
	} `json:"meta"`
}

// Score scrapes every search term for the asset, scores each post, persists
// the batch, and returns the mean compound score.
func (s *Scraper) Score(ctx context.Context, asset string, terms []string) (domain.SentimentScore, error) {
	now := time.Now().UTC()
	var batch []domain.Tweet

	for _, term := range terms {
		posts, err := s.search(ctx, term)
		if err != nil {
			// A single failing term degrades the sample, it does not
			// abort the score.
			s.logger.Warn("search term failed", "term", term, "error", err)
			continue
		}
		for _, p := range posts {
			batch = append(batch, domain.Tweet{
				ID:        p.ID,
				Term:      term,
				Text:      p.Text,
				Compound:  s.analyzer.Compound(p.Text),
				CreatedAt: p.CreatedAt,
				ScrapedAt: now,
			})
		}
	}

	if len(batch) == 0 {
		return domain.SentimentScore{}, fmt.Errorf("sentiment: no posts for %s: %w", asset, domain.ErrMissingData)
	}

	if s.tweets != nil {
		if err := s.tweets.Insert(ctx, batch); err != nil {
			s.logger.Warn("persisting tweets failed", "asset", asset, "error", err)
		}
	}

	var sum float64
	for _, t := range batch {
		sum += t.Compound
	}
	return domain.SentimentScore{
		Asset:      asset,
		Score:      sum / float64(len(batch)),
		SampleSize: len(batch),
		ScoredAt:   now,
	}, nil
}

type post struct {
	ID        string
	Text      string
	CreatedAt time.Time
}

func (s *Scraper) search(ctx context.Context, term string) ([]post, error) {
	if s.limiter != nil {
		// The scraper runs on its own cadence, so blocking for the search
		// budget beats dropping a term's sample.
		if err := s.limiter.Wait(ctx, "sentiment:search", 450, 15*time.Minute); err != nil {
			return nil, fmt.Errorf("sentiment: rate limiter: %w", err)
		}
	}

	params := url.Values{}
	params.Set("query", term+" -is:retweet lang:en")
	params.Set("max_results", strconv.Itoa(s.maxPerTerm))
	params.Set("tweet.fields", "created_at")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"/tweets/search/recent?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("sentiment: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.bearerToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sentiment: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sentiment: read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("sentiment: %w: %s", domain.ErrRateLimited, body)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sentiment: HTTP %d: %s", resp.StatusCode, body)
	}

	var api apiSearch
	if err := json.Unmarshal(body, &api); err != nil {
		return nil, fmt.Errorf("sentiment: decode search: %w", err)
	}

	out := make([]post, 0, len(api.Data))
	for _, d := range api.Data {
		if strings.TrimSpace(d.Text) == "" {
			continue
		}
		out = append(out, post{ID: d.ID, Text: d.Text, CreatedAt: d.CreatedAt})
	}
	return out, nil
}
