// Package service implements the application services that orchestrate the
// decision core: capturing price snapshots, evaluating pairs, discovering
// opportunities, resolving trade sequences, and selecting the best one.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/0xfern/dexarb/internal/domain"
)

// SwapPricer returns all quote prices for a base token on a swap venue, keyed
// by quote symbol.
type SwapPricer interface {
	GetPrices(ctx context.Context, baseTokenAddr string) (map[string]float64, error)
}

// SwapQuoter returns the exchange rate between two tokens on a swap venue.
type SwapQuoter interface {
	GetQuote(ctx context.Context, fromTokenAddr, toTokenAddr string) (float64, error)
}

// ReferencePricer returns USD prices for a batch of symbols from a market
// data aggregator.
type ReferencePricer interface {
	GetQuotes(ctx context.Context, symbols []string) (map[string]float64, error)
}

// CoinPricer returns the USD price of a single symbol.
type CoinPricer interface {
	GetPrice(ctx context.Context, symbol string) (float64, error)
}

// YieldSource reads the lending yield currently available for an asset.
type YieldSource interface {
	ReserveYield(ctx context.Context, assetAddr, assetSymbol string, horizon time.Duration) (domain.YieldEstimate, error)
}

// SentimentScorer produces an aggregate sentiment score for an asset.
type SentimentScorer interface {
	Score(ctx context.Context, asset string, terms []string) (domain.SentimentScore, error)
}

// SnapshotService captures one immutable price snapshot per evaluation cycle
// by querying all venues, the lending pool, and the sentiment scorer
// concurrently. Individual fetch failures degrade the snapshot (the affected
// quote is simply absent); only a snapshot with no swap quotes at all is an
// error.
type SnapshotService struct {
	paraswap  SwapPricer
	oneinch   SwapQuoter
	cmc       ReferencePricer
	coinlib   CoinPricer
	yields    YieldSource
	sentiment SentimentScorer

	tokens      domain.TokenRegistry
	pairs       []domain.TradingPair
	slippage    float64
	horizon     time.Duration
	searchTerms map[string][]string

	priceCache domain.PriceCache
	logger     *slog.Logger
}

// SnapshotDeps bundles the collaborators of a SnapshotService. yields,
// sentiment, and priceCache may be nil when the corresponding feature is
// disabled.
type SnapshotDeps struct {
	Paraswap    SwapPricer
	OneInch     SwapQuoter
	CMC         ReferencePricer
	Coinlib     CoinPricer
	Yields      YieldSource
	Sentiment   SentimentScorer
	Tokens      domain.TokenRegistry
	Pairs       []domain.TradingPair
	Slippage    float64
	Horizon     time.Duration
	SearchTerms map[string][]string
	PriceCache  domain.PriceCache
}

// NewSnapshotService creates a SnapshotService.
func NewSnapshotService(deps SnapshotDeps, logger *slog.Logger) *SnapshotService {
	return &SnapshotService{
		paraswap:    deps.Paraswap,
		oneinch:     deps.OneInch,
		cmc:         deps.CMC,
		coinlib:     deps.Coinlib,
		yields:      deps.Yields,
		sentiment:   deps.Sentiment,
		tokens:      deps.Tokens,
		pairs:       deps.Pairs,
		slippage:    deps.Slippage,
		horizon:     deps.Horizon,
		searchTerms: deps.SearchTerms,
		priceCache:  deps.PriceCache,
		logger:      logger.With(slog.String("component", "snapshot_service")),
	}
}

// Capture queries every data source concurrently and assembles the results
// into an immutable snapshot stamped with a single capture time.
func (s *SnapshotService) Capture(ctx context.Context) (*domain.PriceSnapshot, error) {
	capturedAt := time.Now().UTC()

	var mu sync.Mutex
	quotes := map[domain.Venue]map[string]domain.PriceQuote{
		domain.VenueParaswap:      {},
		domain.VenueOneInch:       {},
		domain.VenueCoinMarketCap: {},
		domain.VenueCoinlib:       {},
	}
	sentiment := map[string]float64{}
	yields := map[string]domain.YieldEstimate{}

	setQuote := func(venue domain.Venue, pair domain.TradingPair, price, slippage float64) {
		q := domain.PriceQuote{
			Venue:      venue,
			Pair:       pair,
			Price:      price,
			Slippage:   slippage,
			CapturedAt: capturedAt,
		}
		mu.Lock()
		quotes[venue][pair.String()] = q
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	// Paraswap: one call per distinct base token covers all its quotes.
	for _, base := range s.baseSymbols() {
		g.Go(func() error {
			addr, err := s.tokens.Resolve(base)
			if err != nil {
				return err
			}
			prices, err := s.paraswap.GetPrices(gctx, addr)
			if err != nil {
				s.logger.Warn("paraswap fetch failed", "base", base, "error", err)
				return nil
			}
			for _, p := range s.pairsWithBase(base) {
				if price, ok := prices[p.Quote]; ok && price > 0 {
					setQuote(domain.VenueParaswap, p, price, s.slippage)
				}
			}
			return nil
		})
	}

	// 1inch: one call per pair.
	for _, p := range s.pairs {
		g.Go(func() error {
			baseAddr, err := s.tokens.Resolve(p.Base)
			if err != nil {
				return err
			}
			quoteAddr, err := s.tokens.Resolve(p.Quote)
			if err != nil {
				return err
			}
			price, err := s.oneinch.GetQuote(gctx, baseAddr, quoteAddr)
			if err != nil {
				s.logger.Warn("1inch fetch failed", "pair", p.String(), "error", err)
				return nil
			}
			if price > 0 {
				setQuote(domain.VenueOneInch, p, price, s.slippage)
			}
			return nil
		})
	}

	// CoinMarketCap: one batched call for every symbol, crossed into pair
	// prices afterwards.
	g.Go(func() error {
		usd, err := s.cmc.GetQuotes(gctx, s.allSymbols())
		if err != nil {
			s.logger.Warn("coinmarketcap fetch failed", "error", err)
			return nil
		}
		for _, p := range s.pairs {
			baseUSD, quoteUSD := usd[p.Base], usd[p.Quote]
			if baseUSD > 0 && quoteUSD > 0 {
				setQuote(domain.VenueCoinMarketCap, p, baseUSD/quoteUSD, 0)
			}
		}
		return nil
	})

	// Coinlib: one call per symbol.
	g.Go(func() error {
		usd := make(map[string]float64)
		for _, sym := range s.allSymbols() {
			price, err := s.coinlib.GetPrice(gctx, sym)
			if err != nil {
				s.logger.Warn("coinlib fetch failed", "symbol", sym, "error", err)
				continue
			}
			usd[sym] = price
		}
		for _, p := range s.pairs {
			baseUSD, quoteUSD := usd[p.Base], usd[p.Quote]
			if baseUSD > 0 && quoteUSD > 0 {
				setQuote(domain.VenueCoinlib, p, baseUSD/quoteUSD, 0)
			}
		}
		return nil
	})

	// Lending yield per distinct quote asset.
	if s.yields != nil {
		for _, quote := range s.quoteSymbols() {
			g.Go(func() error {
				addr, err := s.tokens.Resolve(quote)
				if err != nil {
					return err
				}
				y, err := s.yields.ReserveYield(gctx, addr, quote, s.horizon)
				if err != nil {
					s.logger.Warn("yield fetch failed", "asset", quote, "error", err)
					return nil
				}
				mu.Lock()
				yields[quote] = y
				mu.Unlock()
				return nil
			})
		}
	}

	// Sentiment per base asset with configured search terms.
	if s.sentiment != nil {
		for _, base := range s.baseSymbols() {
			terms := s.searchTerms[base]
			if len(terms) == 0 {
				continue
			}
			g.Go(func() error {
				score, err := s.sentiment.Score(gctx, base, terms)
				if err != nil {
					s.logger.Warn("sentiment fetch failed", "asset", base, "error", err)
					return nil
				}
				mu.Lock()
				sentiment[base] = score.Score
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("snapshot_service: capture: %w", err)
	}

	if len(quotes[domain.VenueParaswap]) == 0 && len(quotes[domain.VenueOneInch]) == 0 {
		return nil, fmt.Errorf("snapshot_service: no swap quotes captured: %w", domain.ErrMissingData)
	}

	snap := domain.NewPriceSnapshot(quotes, sentiment, yields, capturedAt)
	s.cacheQuotes(ctx, quotes)

	s.logger.Info("snapshot captured",
		slog.Int("paraswap_quotes", len(quotes[domain.VenueParaswap])),
		slog.Int("oneinch_quotes", len(quotes[domain.VenueOneInch])),
		slog.Int("sentiment_scores", len(sentiment)),
		slog.Int("yield_estimates", len(yields)),
	)
	return snap, nil
}

// cacheQuotes writes every captured quote to the fast cache, best-effort.
func (s *SnapshotService) cacheQuotes(ctx context.Context, quotes map[domain.Venue]map[string]domain.PriceQuote) {
	if s.priceCache == nil {
		return
	}
	for _, byPair := range quotes {
		for _, q := range byPair {
			if err := s.priceCache.SetQuote(ctx, q); err != nil {
				s.logger.Warn("price cache write failed",
					"venue", string(q.Venue), "pair", q.Pair.String(), "error", err)
			}
		}
	}
}

func (s *SnapshotService) baseSymbols() []string {
	return distinct(s.pairs, func(p domain.TradingPair) string { return p.Base })
}

func (s *SnapshotService) quoteSymbols() []string {
	return distinct(s.pairs, func(p domain.TradingPair) string { return p.Quote })
}

func (s *SnapshotService) allSymbols() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range s.pairs {
		for _, sym := range []string{p.Base, p.Quote} {
			u := strings.ToUpper(sym)
			if !seen[u] {
				seen[u] = true
				out = append(out, u)
			}
		}
	}
	return out
}

func (s *SnapshotService) pairsWithBase(base string) []domain.TradingPair {
	var out []domain.TradingPair
	for _, p := range s.pairs {
		if p.Base == base {
			out = append(out, p)
		}
	}
	return out
}

func distinct(pairs []domain.TradingPair, key func(domain.TradingPair) string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range pairs {
		k := key(p)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
