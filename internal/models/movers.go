package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample is a single observed spot price for a symbol. Samples are
// immutable once recorded.
type PriceSample struct {
	Timestamp time.Time       `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
}

// IntervalChange describes the percentage move of one symbol over a measured
// window. ElapsedMinutes is the true distance to the reference sample, which
// may exceed the nominal window when sampling is sparse.
type IntervalChange struct {
	Symbol         string          `json:"symbol"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
	PctChange      decimal.Decimal `json:"pct_change"`
	ElapsedMinutes float64         `json:"actual_interval_minutes"`
}

// DayMover is a 24-hour banner record built from the exchange's daily stats.
// The 1-hour figures are a linear estimate derived from the 24h move, not a
// measured sample.
type DayMover struct {
	Symbol         string          `json:"symbol"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	Open24h        decimal.Decimal `json:"initial_price_24h"`
	Price1hEst     decimal.Decimal `json:"initial_price_1h"`
	PctChange24h   decimal.Decimal `json:"price_change_24h"`
	PctChange1hEst decimal.Decimal `json:"price_change_1h"`
	Volume24h      decimal.Decimal `json:"volume_24h"`
}

// AggregateResult is one consistent snapshot of ranked movers produced by a
// single pipeline pass. It is replaced as a whole on every recompute and
// never mutated in place.
type AggregateResult struct {
	Gainers    []IntervalChange `json:"gainers"`
	Losers     []IntervalChange `json:"losers"`
	TopMovers  []IntervalChange `json:"top_movers"`
	Banner     []DayMover       `json:"banner"`
	ComputedAt time.Time        `json:"computed_at"`
}

// ChartPoint is one close-price observation for the chart endpoint.
type ChartPoint struct {
	Timestamp int64           `json:"timestamp"`
	Datetime  string          `json:"datetime"`
	Price     decimal.Decimal `json:"price"`
	Volume    decimal.Decimal `json:"volume"`
}

// CoinAnalysis is a heuristic momentum score for a chart series.
type CoinAnalysis struct {
	Score           int      `json:"score"`
	Signals         []string `json:"signals"`
	TrendPercentage float64  `json:"trend_percentage"`
	VolumeChange    float64  `json:"volume_change"`
}
