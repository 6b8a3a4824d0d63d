package domain

import (
	"fmt"
	"time"
)

// Venue identifies a price source: a swap aggregator or a market-data
// provider.
type Venue string

const (
	VenueParaswap      Venue = "paraswap"
	VenueOneInch       Venue = "1inch"
	VenueCoinMarketCap Venue = "coinmarketcap"
	VenueCoinlib       Venue = "coinlib"
)

// SwapVenues are the venues trades would actually execute on.
var SwapVenues = []Venue{VenueParaswap, VenueOneInch}

// ReferenceVenues are the independent market-data sources used for the
// reference-price consistency check.
var ReferenceVenues = []Venue{VenueCoinMarketCap, VenueCoinlib}

// PriceQuote is a point-in-time price observation for a pair on one venue.
// It is immutable once captured; it is a snapshot, not a live feed.
type PriceQuote struct {
	Venue      Venue
	Pair       TradingPair
	Price      float64 // positive, denominated in the quote asset
	Slippage   float64 // assumed execution cost fraction, in [0,1)
	CapturedAt time.Time
}

// Validate checks the quote invariants.
func (q PriceQuote) Validate() error {
	if err := q.Pair.Validate(); err != nil {
		return err
	}
	if q.Price <= 0 {
		return fmt.Errorf("%w: quote %s/%s price %f must be positive", ErrInvalidParameter, q.Venue, q.Pair, q.Price)
	}
	if q.Slippage < 0 || q.Slippage >= 1 {
		return fmt.Errorf("%w: quote %s/%s slippage %f must be in [0,1)", ErrInvalidParameter, q.Venue, q.Pair, q.Slippage)
	}
	return nil
}
