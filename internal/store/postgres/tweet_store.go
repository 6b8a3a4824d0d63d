package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/0xfern/dexarb/internal/domain"
)

// TweetStore implements domain.TweetStore using PostgreSQL.
type TweetStore struct {
	pool *pgxpool.Pool
}

// NewTweetStore creates a TweetStore backed by the given pool.
func NewTweetStore(pool *pgxpool.Pool) *TweetStore {
	return &TweetStore{pool: pool}
}

// Insert persists a batch of scored tweets in one round trip. Posts already
// seen in an earlier scrape are skipped, so overlapping search windows are
// harmless.
func (s *TweetStore) Insert(ctx context.Context, tweets []domain.Tweet) error {
	if len(tweets) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO tweets (id, term, text, compound, created_at, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`
	for _, t := range tweets {
		batch.Queue(query, t.ID, t.Term, t.Text, t.Compound, t.CreatedAt, t.ScrapedAt)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range tweets {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: insert tweets: %w", err)
		}
	}
	return nil
}

// ListSince returns tweets scraped at or after the given time, oldest first.
func (s *TweetStore) ListSince(ctx context.Context, since time.Time) ([]domain.Tweet, error) {
	const query = `
		SELECT id, term, text, compound, created_at, scraped_at
		FROM tweets
		WHERE scraped_at >= $1
		ORDER BY scraped_at ASC`
	return s.queryTweets(ctx, query, since)
}

// ListBefore returns tweets scraped strictly before cutoff, oldest first.
func (s *TweetStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Tweet, error) {
	const query = `
		SELECT id, term, text, compound, created_at, scraped_at
		FROM tweets
		WHERE scraped_at < $1
		ORDER BY scraped_at ASC`
	return s.queryTweets(ctx, query, before)
}

func (s *TweetStore) queryTweets(ctx context.Context, query string, args ...any) ([]domain.Tweet, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tweets: %w", err)
	}
	defer rows.Close()

	var out []domain.Tweet
	for rows.Next() {
		var t domain.Tweet
		if err := rows.Scan(&t.ID, &t.Term, &t.Text, &t.Compound, &t.CreatedAt, &t.ScrapedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan tweet: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list tweets rows: %w", err)
	}
	return out, nil
}

// DeleteOlderThan removes tweets scraped before cutoff and returns how many
// were deleted.
func (s *TweetStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM tweets WHERE scraped_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete old tweets: %w", err)
	}
	return tag.RowsAffected(), nil
}
