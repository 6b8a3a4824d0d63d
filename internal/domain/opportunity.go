package domain

import "time"

// Opportunity is a candidate arbitrage discovered upstream. The selector only
// ranks and filters these; it never creates them.
type Opportunity struct {
	ID            string
	Pair          TradingPair
	ProfitPercent float64            // gross profit estimate as a fraction, e.g. 0.012
	Collateral    map[string]float64 // token address -> required amount
	GasCostUSD    float64
	DetectedAt    time.Time
}

// TradeSide is the direction of a single trade step.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// TradeStep is one leg of a resolved arbitrage sequence.
type TradeStep struct {
	Venue  Venue
	Pair   TradingPair
	Side   TradeSide
	Price  float64
	Amount float64 // base asset amount
}

// TradeSequence is an ordered chain of trade steps resolved for one
// opportunity, with its realized profit estimate net of gas.
type TradeSequence struct {
	OpportunityID  string
	Steps          []TradeStep
	GasCostUSD     float64
	RealizedProfit float64 // net of gas, in the common quote currency
	ResolvedAt     time.Time
}

// Balances maps token contract addresses to held amounts. It is refreshed
// once per selector run and read-only within the run.
type Balances map[string]float64

// Covers reports whether every required collateral amount is fully available.
// Partial fills are never considered.
func (b Balances) Covers(collateral map[string]float64) bool {
	for addr, required := range collateral {
		if b[addr] < required {
			return false
		}
	}
	return true
}
