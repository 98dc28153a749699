package fetcher

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"market-movers-api/internal/exchange"
)

// PriceSource is the slice of the upstream exchange the orchestrator needs.
type PriceSource interface {
	ListProducts(ctx context.Context) ([]exchange.Product, error)
	GetTicker(ctx context.Context, productID string) (decimal.Decimal, error)
	GetStats(ctx context.Context, productID string) (*exchange.Stats24h, error)
}

// DayStats pairs a product's current price with its 24h statistics. Both
// fetches must succeed for the symbol to be reported.
type DayStats struct {
	Price  decimal.Decimal
	Open   decimal.Decimal
	Volume decimal.Decimal
}

// Config represents orchestrator timeouts
type Config struct {
	TickerTimeout time.Duration `json:"ticker_timeout"`
	StatsTimeout  time.Duration `json:"stats_timeout"`
}

// Orchestrator issues bounded-parallelism fetches against the upstream
// exchange and collects partial-success result maps. A failed or timed out
// single-symbol call is logged and dropped; it never aborts the batch.
type Orchestrator struct {
	source PriceSource
	config *Config
	log    *logrus.Entry
}

// NewOrchestrator creates a new fetch orchestrator
func NewOrchestrator(source PriceSource, config *Config, log *logrus.Logger) *Orchestrator {
	if config == nil {
		config = &Config{}
	}
	if config.TickerTimeout == 0 {
		config.TickerTimeout = 1500 * time.Millisecond
	}
	if config.StatsTimeout == 0 {
		config.StatsTimeout = 3 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Orchestrator{
		source: source,
		config: config,
		log:    log.WithField("component", "fetcher"),
	}
}

// FetchPrices fetches the current spot price for every symbol, with at most
// width calls outstanding at once. The returned map contains only the
// symbols that succeeded; completion order is not reflected in it.
func (o *Orchestrator) FetchPrices(ctx context.Context, symbols []string, width int) map[string]decimal.Decimal {
	if width <= 0 {
		width = 10
	}

	prices := make(map[string]decimal.Decimal, len(symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, width)

	for _, symbol := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			callCtx, cancel := context.WithTimeout(ctx, o.config.TickerTimeout)
			defer cancel()

			price, err := o.source.GetTicker(callCtx, sym)
			if err != nil {
				o.log.WithField("symbol", sym).WithError(err).Warn("ticker fetch dropped")
				return
			}
			if !price.IsPositive() {
				return
			}

			mu.Lock()
			prices[sym] = price
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()

	o.log.WithFields(logrus.Fields{
		"requested": len(symbols),
		"fetched":   len(prices),
	}).Info("price fan-out complete")

	return prices
}

// FetchDayStats fetches 24h stats plus the current price for every symbol as
// one unit per symbol, with at most width symbols in flight at once. A
// symbol is included only when both calls succeed.
func (o *Orchestrator) FetchDayStats(ctx context.Context, symbols []string, width int) map[string]DayStats {
	if width <= 0 {
		width = 10
	}

	results := make(map[string]DayStats, len(symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, width)

	for _, symbol := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			statsCtx, cancelStats := context.WithTimeout(ctx, o.config.StatsTimeout)
			stats, err := o.source.GetStats(statsCtx, sym)
			cancelStats()
			if err != nil {
				o.log.WithField("symbol", sym).WithError(err).Warn("stats fetch dropped")
				return
			}

			tickerCtx, cancelTicker := context.WithTimeout(ctx, o.config.TickerTimeout)
			price, err := o.source.GetTicker(tickerCtx, sym)
			cancelTicker()
			if err != nil {
				o.log.WithField("symbol", sym).WithError(err).Warn("ticker fetch dropped")
				return
			}
			if !price.IsPositive() || !stats.Open.IsPositive() {
				return
			}

			mu.Lock()
			results[sym] = DayStats{
				Price:  price,
				Open:   stats.Open,
				Volume: stats.Volume,
			}
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()

	o.log.WithFields(logrus.Fields{
		"requested": len(symbols),
		"fetched":   len(results),
	}).Info("stats fan-out complete")

	return results
}

// ActiveSymbols lists the exchange's online USD products, priority symbols
// first, truncated to limit.
func (o *Orchestrator) ActiveSymbols(ctx context.Context, priority []string, limit int) ([]string, error) {
	products, err := o.source.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return exchange.Prioritize(exchange.FilterActiveUSD(products), priority, limit), nil
}
