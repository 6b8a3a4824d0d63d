package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/0xfern/dexarb/internal/domain"
	"github.com/0xfern/dexarb/internal/service"
)

// cycleLockKey guards the evaluation cycle across engine replicas.
const cycleLockKey = "evaluation_cycle"

// Orchestrator runs the engine's loops: the evaluation cycle (capture,
// evaluate, discover, select), the sentiment tracker, and the archival job.
type Orchestrator struct {
	snapshots *service.SnapshotService
	decisions *service.DecisionService
	discovery *service.DiscoveryService
	selection *service.SelectionService
	tracker   *SentimentTracker
	archival  *ArchivalJob
	locks     domain.LockManager

	pollInterval time.Duration
	logger       *slog.Logger
}

// OrchestratorDeps bundles the orchestrator's collaborators. selection,
// tracker, archival, and locks may be nil; the corresponding loop or guard
// is skipped.
type OrchestratorDeps struct {
	Snapshots    *service.SnapshotService
	Decisions    *service.DecisionService
	Discovery    *service.DiscoveryService
	Selection    *service.SelectionService
	Tracker      *SentimentTracker
	Archival     *ArchivalJob
	Locks        domain.LockManager
	PollInterval time.Duration
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(deps OrchestratorDeps, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		snapshots:    deps.Snapshots,
		decisions:    deps.Decisions,
		discovery:    deps.Discovery,
		selection:    deps.Selection,
		tracker:      deps.Tracker,
		archival:     deps.Archival,
		locks:        deps.Locks,
		pollInterval: deps.PollInterval,
		logger:       logger.With(slog.String("component", "orchestrator")),
	}
}

// Run starts every configured loop in an errgroup. A loop failing with a
// non-context error cancels the others and Run returns that error; context
// cancellation is a clean shutdown.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("orchestrator starting",
		slog.Duration("poll_interval", o.pollInterval),
		slog.Bool("selection", o.selection != nil),
		slog.Bool("sentiment", o.tracker != nil),
		slog.Bool("archival", o.archival != nil),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := o.runEvaluationLoop(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("evaluation loop: %w", err)
	})

	if o.tracker != nil {
		g.Go(func() error {
			err := o.tracker.Run(ctx)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("sentiment tracker: %w", err)
		})
	}

	if o.archival != nil {
		g.Go(func() error {
			err := o.archival.Run(ctx)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("archival job: %w", err)
		})
	}

	if err := g.Wait(); err != nil {
		o.logger.Error("orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}
	o.logger.Info("orchestrator stopped cleanly")
	return nil
}

// runEvaluationLoop executes one cycle immediately and then on every tick.
// Cycle errors are logged, not fatal: a venue outage this minute says
// nothing about the next.
func (o *Orchestrator) runEvaluationLoop(ctx context.Context) error {
	o.runCycle(ctx)

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			o.runCycle(ctx)
		}
	}
}

// runCycle performs one full evaluation cycle under the replica lock.
func (o *Orchestrator) runCycle(ctx context.Context) {
	if o.locks != nil {
		release, err := o.locks.Acquire(ctx, cycleLockKey, o.pollInterval)
		if errors.Is(err, domain.ErrLockHeld) {
			o.logger.Debug("cycle lock held by another replica, skipping")
			return
		}
		if err != nil {
			o.logger.Error("cycle lock acquire failed", "error", err)
			return
		}
		defer release()
	}

	started := time.Now()

	snap, err := o.snapshots.Capture(ctx)
	if err != nil {
		o.logger.Error("snapshot capture failed", "error", err)
		return
	}

	decisions, err := o.decisions.EvaluateSnapshot(ctx, snap)
	if err != nil {
		o.logger.Error("evaluation failed", "error", err)
		return
	}

	opportunities, err := o.discovery.Discover(ctx, decisions)
	if err != nil {
		o.logger.Error("discovery failed", "error", err)
		return
	}

	var selected bool
	if o.selection != nil && len(opportunities) > 0 {
		seq, err := o.selection.SelectBest(ctx, opportunities)
		if err != nil {
			o.logger.Error("selection failed", "error", err)
			return
		}
		selected = seq != nil
	}

	o.logger.Info("cycle complete",
		slog.Int("decisions", len(decisions)),
		slog.Int("opportunities", len(opportunities)),
		slog.Bool("sequence_selected", selected),
		slog.Duration("elapsed", time.Since(started)),
	)
}
