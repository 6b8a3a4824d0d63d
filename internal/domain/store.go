package domain

import (
	"context"
	"time"
)

// DecisionStore persists evaluator decisions for reporting and audit.
type DecisionStore interface {
	Insert(ctx context.Context, d Decision) error
	ListRecent(ctx context.Context, limit int) ([]Decision, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// OpportunityStore persists discovered opportunities and the sequences chosen
// for them.
type OpportunityStore interface {
	Insert(ctx context.Context, opp Opportunity) error
	MarkSelected(ctx context.Context, id string, seq TradeSequence) error
	ListRecent(ctx context.Context, limit int) ([]Opportunity, error)
}

// TweetStore persists scraped tweets and their polarity scores.
type TweetStore interface {
	Insert(ctx context.Context, tweets []Tweet) error
	ListSince(ctx context.Context, since time.Time) ([]Tweet, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditStore records structured audit events.
type AuditStore interface {
	Log(ctx context.Context, event string, payload map[string]any) error
}
