package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/0xfern/dexarb/internal/domain"
)

// DecisionStore implements domain.DecisionStore using PostgreSQL.
type DecisionStore struct {
	pool *pgxpool.Pool
}

// NewDecisionStore creates a DecisionStore backed by the given pool.
func NewDecisionStore(pool *pgxpool.Pool) *DecisionStore {
	return &DecisionStore{pool: pool}
}

// Insert persists one evaluator decision. Quotes are stored as JSONB so the
// full pricing context of every verdict survives for audit.
func (s *DecisionStore) Insert(ctx context.Context, d domain.Decision) error {
	quoteA, err := json.Marshal(d.QuoteA)
	if err != nil {
		return fmt.Errorf("postgres: marshal quote A: %w", err)
	}
	quoteB, err := json.Marshal(d.QuoteB)
	if err != nil {
		return fmt.Errorf("postgres: marshal quote B: %w", err)
	}
	refHigh, err := json.Marshal(d.ReferenceHigh)
	if err != nil {
		return fmt.Errorf("postgres: marshal reference high: %w", err)
	}
	refLow, err := json.Marshal(d.ReferenceLow)
	if err != nil {
		return fmt.Errorf("postgres: marshal reference low: %w", err)
	}

	const query = `
		INSERT INTO decisions (
			id, pair, quote_a, quote_b, reference_high, reference_low,
			sentiment, potential_yield, yield_available,
			expected_profit, opportunity, reason, evaluated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = s.pool.Exec(ctx, query,
		d.ID, d.Pair.String(), quoteA, quoteB, refHigh, refLow,
		d.Sentiment, d.PotentialYield, d.YieldAvailable,
		d.ExpectedProfit, d.Opportunity, string(d.Reason), d.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert decision %s: %w", d.ID, err)
	}
	return nil
}

// ListRecent returns the newest decisions first, up to limit.
func (s *DecisionStore) ListRecent(ctx context.Context, limit int) ([]domain.Decision, error) {
	const query = `
		SELECT id, pair, quote_a, quote_b, reference_high, reference_low,
		       sentiment, potential_yield, yield_available,
		       expected_profit, opportunity, reason, evaluated_at
		FROM decisions
		ORDER BY evaluated_at DESC
		LIMIT $1`
	return s.queryDecisions(ctx, query, limit)
}

// ListBefore returns all decisions evaluated strictly before cutoff, oldest
// first. The archiver uses this for cold-storage export.
func (s *DecisionStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Decision, error) {
	const query = `
		SELECT id, pair, quote_a, quote_b, reference_high, reference_low,
		       sentiment, potential_yield, yield_available,
		       expected_profit, opportunity, reason, evaluated_at
		FROM decisions
		WHERE evaluated_at < $1
		ORDER BY evaluated_at ASC`
	return s.queryDecisions(ctx, query, before)
}

func (s *DecisionStore) queryDecisions(ctx context.Context, query string, args ...any) ([]domain.Decision, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list decisions: %w", err)
	}
	defer rows.Close()

	var out []domain.Decision
	for rows.Next() {
		var (
			d                               domain.Decision
			pair, reason                    string
			quoteA, quoteB, refHigh, refLow []byte
		)
		if err := rows.Scan(
			&d.ID, &pair, &quoteA, &quoteB, &refHigh, &refLow,
			&d.Sentiment, &d.PotentialYield, &d.YieldAvailable,
			&d.ExpectedProfit, &d.Opportunity, &reason, &d.EvaluatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan decision: %w", err)
		}

		d.Pair, err = domain.ParsePair(pair)
		if err != nil {
			return nil, fmt.Errorf("postgres: decision %s: %w", d.ID, err)
		}
		d.Reason = domain.RejectReason(reason)

		for _, col := range []struct {
			raw  []byte
			dest *domain.PriceQuote
		}{
			{quoteA, &d.QuoteA}, {quoteB, &d.QuoteB},
			{refHigh, &d.ReferenceHigh}, {refLow, &d.ReferenceLow},
		} {
			if err := json.Unmarshal(col.raw, col.dest); err != nil {
				return nil, fmt.Errorf("postgres: decision %s: unmarshal quote: %w", d.ID, err)
			}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list decisions rows: %w", err)
	}
	return out, nil
}

// DeleteOlderThan removes decisions evaluated before cutoff and returns how
// many were deleted. The archiver calls this after a successful upload.
func (s *DecisionStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM decisions WHERE evaluated_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete old decisions: %w", err)
	}
	return tag.RowsAffected(), nil
}
