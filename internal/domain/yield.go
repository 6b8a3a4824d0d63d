package domain

import "time"

// YieldEstimate holds the lending-market inputs used to price the opportunity
// cost of lending the quote asset instead of trading. The holding duration is
// fixed system-wide (one configured trade horizon), not per pair.
type YieldEstimate struct {
	Asset              string
	AvailableLiquidity float64 // non-negative, in units of the asset
	AnnualRate         float64 // annualized lending rate, >= 0
	Duration           time.Duration
}

// SentimentScore is a signed per-asset sentiment reading, typically in
// [-1, 1], produced by the sentiment scraper.
type SentimentScore struct {
	Asset      string
	Score      float64
	SampleSize int // number of tweets behind the score
	ScoredAt   time.Time
}

// Tweet is a scraped post with its polarity score, persisted for audit.
type Tweet struct {
	ID        string
	Term      string // search term that matched
	Text      string
	Compound  float64 // polarity in [-1, 1]
	CreatedAt time.Time
	ScrapedAt time.Time
}
