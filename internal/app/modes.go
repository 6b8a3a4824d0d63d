package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/0xfern/dexarb/internal/arbitrage"
	"github.com/0xfern/dexarb/internal/domain"
	"github.com/0xfern/dexarb/internal/pipeline"
	"github.com/0xfern/dexarb/internal/platform/coinlib"
	"github.com/0xfern/dexarb/internal/platform/coinmarketcap"
	"github.com/0xfern/dexarb/internal/platform/oneinch"
	"github.com/0xfern/dexarb/internal/platform/paraswap"
	"github.com/0xfern/dexarb/internal/sentiment"
	"github.com/0xfern/dexarb/internal/server"
	"github.com/0xfern/dexarb/internal/server/handler"
	"github.com/0xfern/dexarb/internal/server/ws"
	"github.com/0xfern/dexarb/internal/service"
)

// EvaluateMode runs the evaluation cycle (snapshot, decisions, discovery)
// without sequence selection. Useful for dry observation of the market.
func (a *App) EvaluateMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting evaluate mode")

	g, ctx := errgroup.WithContext(ctx)

	orch, err := a.buildOrchestrator(deps, false)
	if err != nil {
		return fmt.Errorf("evaluate mode: %w", err)
	}
	g.Go(func() error {
		return orch.Run(ctx)
	})

	return g.Wait()
}

// SelectMode runs the full decision cycle including trade sequence selection.
func (a *App) SelectMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting select mode")

	g, ctx := errgroup.WithContext(ctx)

	orch, err := a.buildOrchestrator(deps, true)
	if err != nil {
		return fmt.Errorf("select mode: %w", err)
	}
	g.Go(func() error {
		return orch.Run(ctx)
	})

	return g.Wait()
}

// MonitorMode follows the signal bus and logs every decision and selection
// event. It runs no evaluation cycles of its own, so it can observe a live
// deployment from a separate process.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	g, ctx := errgroup.WithContext(ctx)

	for _, channel := range []string{"decisions", "selections"} {
		g.Go(func() error {
			ch, err := deps.SignalBus.Subscribe(ctx, channel)
			if err != nil {
				return fmt.Errorf("monitor mode: subscribe %s: %w", channel, err)
			}
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case data, ok := <-ch:
					if !ok {
						return nil
					}
					a.logger.InfoContext(ctx, "bus event",
						slog.String("channel", channel),
						slog.String("payload", string(data)),
					)
				}
			}
		})
	}

	return g.Wait()
}

// ServerMode serves the HTTP + WebSocket API over the persisted decision and
// opportunity history without running any evaluation cycles.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startHTTPServer(ctx, g, deps)

	return g.Wait()
}

// FullMode runs the complete engine: evaluation with selection, sentiment
// tracking, archival, and the HTTP server.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	orch, err := a.buildOrchestrator(deps, true)
	if err != nil {
		return fmt.Errorf("full mode: %w", err)
	}
	g.Go(func() error {
		return orch.Run(ctx)
	})

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	return g.Wait()
}

// buildOrchestrator assembles the venue clients, services, and background
// jobs for one evaluation pipeline. withSelection controls whether the
// sequence selection stage runs after discovery.
func (a *App) buildOrchestrator(deps *Dependencies, withSelection bool) (*pipeline.Orchestrator, error) {
	pairs, err := a.watchedPairs()
	if err != nil {
		return nil, err
	}
	tokens := domain.TokenRegistry(a.cfg.Tokens)

	// Venue clients.
	paraswapClient := paraswap.NewClient(a.cfg.Paraswap.BaseURL, a.cfg.Paraswap.APIKey)
	oneinchClient := oneinch.NewClient(a.cfg.OneInch.BaseURL, a.cfg.OneInch.APIKey)
	cmcClient := coinmarketcap.NewClient(a.cfg.CMC.BaseURL, a.cfg.CMC.APIKey)
	coinlibClient := coinlib.NewClient(a.cfg.Coinlib.BaseURL, a.cfg.Coinlib.APIKey)

	// Sentiment: the tracker refreshes scores on its own cadence so snapshot
	// capture reads from memory instead of hitting the tweets API every cycle.
	var tracker *pipeline.SentimentTracker
	var scorer service.SentimentScorer
	if a.cfg.Sentiment.Enabled && a.cfg.Sentiment.BearerToken != "" && deps.TweetStore != nil {
		scraper := sentiment.NewScraper(
			a.cfg.Sentiment.BaseURL,
			a.cfg.Sentiment.BearerToken,
			a.cfg.Sentiment.MaxTweetsPerTerm,
			deps.TweetStore,
			deps.RateLimiter,
			a.logger,
		)
		tracker = pipeline.NewSentimentTracker(
			scraper,
			deps.TweetStore,
			a.cfg.Sentiment.SearchTerms,
			a.cfg.Sentiment.ScrapeInterval.Duration,
			a.logger,
		)
		scorer = tracker
	}

	snapshots := service.NewSnapshotService(service.SnapshotDeps{
		Paraswap:    paraswapClient,
		OneInch:     oneinchClient,
		CMC:         cmcClient,
		Coinlib:     coinlibClient,
		Yields:      deps.Yields,
		Sentiment:   scorer,
		Tokens:      tokens,
		Pairs:       pairs,
		Slippage:    a.cfg.Arbitrage.Slippage,
		Horizon:     a.cfg.Arbitrage.TradeHorizon.Duration,
		SearchTerms: a.cfg.Sentiment.SearchTerms,
		PriceCache:  deps.PriceCache,
	}, a.logger)

	evaluator, err := arbitrage.NewEvaluator(arbitrage.EvaluatorConfig{
		Slippage:     a.cfg.Arbitrage.Slippage,
		MinProfit:    a.cfg.Arbitrage.MinProfit,
		TradeHorizon: a.cfg.Arbitrage.TradeHorizon.Duration,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("build evaluator: %w", err)
	}

	decisions := service.NewDecisionService(
		evaluator, pairs, deps.DecisionStore, deps.AuditStore,
		deps.SignalBus, deps.Notifier, a.logger,
	)

	// Gas falls back to the aggregators' estimates when the node read fails;
	// they quote against the native token's contract address.
	var gas service.GasGauge = deps.Network
	if gasAsset, err := tokens.Resolve(a.cfg.Chain.NativeSymbol); err == nil {
		gas = service.NewGasCascade(deps.Network, gasAsset, a.logger, paraswapClient, oneinchClient)
	}

	discovery := service.NewDiscoveryService(
		tokens, gas, cmcClient, a.cfg.Chain.NativeSymbol,
		a.cfg.Arbitrage.MinProfitPercent, deps.OpportunityStore, a.logger,
	)

	var selection *service.SelectionService
	if withSelection {
		routes := service.NewRouteService(deps.PriceCache, a.cfg.Arbitrage.Slippage, a.logger)
		selector := arbitrage.NewSelector(deps.Network, routes, a.logger)
		selection = service.NewSelectionService(
			selector, deps.Balances, tokens, deps.OpportunityStore,
			deps.SignalBus, deps.Notifier, a.logger,
		)
	}

	var archival *pipeline.ArchivalJob
	if a.cfg.Archive.Enabled && deps.Archiver != nil {
		archival = pipeline.NewArchivalJob(
			deps.Archiver,
			deps.DecisionStore,
			deps.TweetStore,
			a.cfg.Archive.RetentionDays,
			a.cfg.Archive.Interval.Duration,
			a.logger,
		)
	}

	return pipeline.NewOrchestrator(pipeline.OrchestratorDeps{
		Snapshots:    snapshots,
		Decisions:    decisions,
		Discovery:    discovery,
		Selection:    selection,
		Tracker:      tracker,
		Archival:     archival,
		Locks:        deps.LockManager,
		PollInterval: a.cfg.Arbitrage.PollInterval.Duration,
	}, a.logger), nil
}

// watchedPairs parses the configured pair strings.
func (a *App) watchedPairs() ([]domain.TradingPair, error) {
	pairs := make([]domain.TradingPair, 0, len(a.cfg.Pairs))
	for _, s := range a.cfg.Pairs {
		p, err := domain.ParsePair(s)
		if err != nil {
			return nil, fmt.Errorf("parse pair %q: %w", s, err)
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// startHTTPServer registers the API handlers that have their backing
// dependencies wired and runs the server plus the WebSocket hub on g.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	handlers := server.Handlers{
		Health: handler.NewHealthHandler(deps.Pingers, a.logger),
		Status: handler.NewStatusHandler(
			a.cfg.Mode, a.cfg.Pairs, a.cfg.Arbitrage.PollInterval.Duration, a.startedAt,
		),
	}
	if deps.DecisionStore != nil {
		handlers.Decisions = handler.NewDecisionHandler(deps.DecisionStore, a.logger)
	}
	if deps.OpportunityStore != nil {
		handlers.Opportunities = handler.NewOpportunityHandler(deps.OpportunityStore, a.logger)
	}
	if deps.BlobReader != nil {
		handlers.Archives = handler.NewArchiveHandler(deps.BlobReader, a.logger)
	}

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: a.startedAt,
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("server shutdown error", slog.String("error", err.Error()))
		}
		return ctx.Err()
	})
}
