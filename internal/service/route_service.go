package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/0xfern/dexarb/internal/domain"
)

// RouteService expands an opportunity into a concrete buy/sell sequence
// using the freshest cached quotes, re-pricing the profit net of gas at
// selection time. It satisfies domain.TradeResolver.
type RouteService struct {
	priceCache domain.PriceCache
	slippage   float64
	logger     *slog.Logger
}

// NewRouteService creates a RouteService.
func NewRouteService(priceCache domain.PriceCache, slippage float64, logger *slog.Logger) *RouteService {
	return &RouteService{
		priceCache: priceCache,
		slippage:   slippage,
		logger:     logger.With(slog.String("component", "route_service")),
	}
}

// ResolveSequence builds the two-leg route for one opportunity: buy the base
// asset on the cheaper swap venue, sell it on the dearer one. Prices come
// from the cache, not from the opportunity, so a quote that moved since
// discovery is repriced here and an evaporated edge shows up as negative
// realized profit.
func (s *RouteService) ResolveSequence(ctx context.Context, opp domain.Opportunity) (domain.TradeSequence, error) {
	pQuote, err := s.priceCache.GetQuote(ctx, domain.VenueParaswap, opp.Pair)
	if err != nil {
		return domain.TradeSequence{}, fmt.Errorf("route_service: %s quote: %w", domain.VenueParaswap, err)
	}
	oQuote, err := s.priceCache.GetQuote(ctx, domain.VenueOneInch, opp.Pair)
	if err != nil {
		return domain.TradeSequence{}, fmt.Errorf("route_service: %s quote: %w", domain.VenueOneInch, err)
	}

	buy, sell := pQuote, oQuote
	if buy.Price > sell.Price {
		buy, sell = sell, buy
	}

	// One unit of base per round trip, matching the collateral sizing.
	const amount = 1.0
	gross := (sell.Price*(1-s.slippage) - buy.Price*(1+s.slippage)) * amount
	realized := gross - opp.GasCostUSD

	seq := domain.TradeSequence{
		OpportunityID: opp.ID,
		Steps: []domain.TradeStep{
			{Venue: buy.Venue, Pair: opp.Pair, Side: domain.TradeSideBuy, Price: buy.Price, Amount: amount},
			{Venue: sell.Venue, Pair: opp.Pair, Side: domain.TradeSideSell, Price: sell.Price, Amount: amount},
		},
		GasCostUSD:     opp.GasCostUSD,
		RealizedProfit: realized,
		ResolvedAt:     time.Now().UTC(),
	}

	s.logger.Debug("sequence resolved",
		slog.String("pair", opp.Pair.String()),
		slog.String("buy_venue", string(buy.Venue)),
		slog.String("sell_venue", string(sell.Venue)),
		slog.Float64("realized_profit", realized),
	)
	return seq, nil
}
