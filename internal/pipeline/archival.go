package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// coldArchiver uploads old records to cold storage and reports the counts.
type coldArchiver interface {
	ArchiveDecisions(ctx context.Context, before time.Time) (int64, error)
	ArchiveTweets(ctx context.Context, before time.Time) (int64, error)
}

// pruner deletes rows older than a cutoff, returning the deleted count.
type pruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ArchivalJob moves expired decisions and tweets to cold storage and then
// prunes them from the primary store. Pruning only runs after a successful
// upload, so a failed archive never loses data.
type ArchivalJob struct {
	archiver      coldArchiver
	decisions     pruner
	tweets        pruner
	retentionDays int
	interval      time.Duration
	logger        *slog.Logger
}

// NewArchivalJob creates an ArchivalJob. tweets may be nil when sentiment
// persistence is disabled.
func NewArchivalJob(archiver coldArchiver, decisions, tweets pruner, retentionDays int, interval time.Duration, logger *slog.Logger) *ArchivalJob {
	return &ArchivalJob{
		archiver:      archiver,
		decisions:     decisions,
		tweets:        tweets,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        logger.With(slog.String("component", "archival")),
	}
}

// Run executes archive passes on the configured interval until the context
// ends. The first pass runs one interval after start, not immediately, so a
// crash-looping process does not hammer cold storage.
func (j *ArchivalJob) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Error("archive pass failed", "error", err)
			}
		}
	}
}

// RunOnce archives and prunes everything older than the retention window.
func (j *ArchivalJob) RunOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-time.Duration(j.retentionDays) * 24 * time.Hour)
	j.logger.Info("archive pass starting",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", j.retentionDays),
	)

	archived, err := j.archiver.ArchiveDecisions(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("pipeline: archive decisions: %w", err)
	}
	if archived > 0 {
		pruned, err := j.decisions.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("pipeline: prune decisions: %w", err)
		}
		j.logger.Info("decisions archived", slog.Int64("archived", archived), slog.Int64("pruned", pruned))
	}

	if j.tweets != nil {
		archived, err := j.archiver.ArchiveTweets(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("pipeline: archive tweets: %w", err)
		}
		if archived > 0 {
			pruned, err := j.tweets.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				return fmt.Errorf("pipeline: prune tweets: %w", err)
			}
			j.logger.Info("tweets archived", slog.Int64("archived", archived), slog.Int64("pruned", pruned))
		}
	}

	return nil
}
