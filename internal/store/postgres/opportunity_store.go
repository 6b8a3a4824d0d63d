package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/0xfern/dexarb/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates an OpportunityStore backed by the given pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

// Insert persists a discovered opportunity.
func (s *OpportunityStore) Insert(ctx context.Context, opp domain.Opportunity) error {
	collateral, err := json.Marshal(opp.Collateral)
	if err != nil {
		return fmt.Errorf("postgres: marshal collateral: %w", err)
	}

	const query = `
		INSERT INTO opportunities (id, pair, profit_percent, collateral, gas_cost_usd, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = s.pool.Exec(ctx, query,
		opp.ID, opp.Pair.String(), opp.ProfitPercent, collateral, opp.GasCostUSD, opp.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// MarkSelected records the resolved sequence against its opportunity. It is
// an error to select an opportunity that was never inserted.
func (s *OpportunityStore) MarkSelected(ctx context.Context, id string, seq domain.TradeSequence) error {
	seqJSON, err := json.Marshal(seq)
	if err != nil {
		return fmt.Errorf("postgres: marshal sequence: %w", err)
	}

	const query = `
		UPDATE opportunities
		SET selected = TRUE, sequence = $2, selected_at = $3
		WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id, seqJSON, seq.ResolvedAt)
	if err != nil {
		return fmt.Errorf("postgres: mark opportunity %s selected: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: opportunity %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListRecent returns the newest opportunities first, up to limit.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	const query = `
		SELECT id, pair, profit_percent, collateral, gas_cost_usd, detected_at
		FROM opportunities
		ORDER BY detected_at DESC
		LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities: %w", err)
	}
	defer rows.Close()

	var out []domain.Opportunity
	for rows.Next() {
		var (
			opp        domain.Opportunity
			pair       string
			collateral []byte
		)
		if err := rows.Scan(&opp.ID, &pair, &opp.ProfitPercent, &collateral, &opp.GasCostUSD, &opp.DetectedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		opp.Pair, err = domain.ParsePair(pair)
		if err != nil {
			return nil, fmt.Errorf("postgres: opportunity %s: %w", opp.ID, err)
		}
		if err := json.Unmarshal(collateral, &opp.Collateral); err != nil {
			return nil, fmt.Errorf("postgres: opportunity %s: unmarshal collateral: %w", opp.ID, err)
		}
		out = append(out, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list opportunities rows: %w", err)
	}
	return out, nil
}
