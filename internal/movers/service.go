package movers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"market-movers-api/internal/config"
	"market-movers-api/internal/exchange"
	"market-movers-api/internal/fetcher"
	"market-movers-api/internal/history"
	"market-movers-api/internal/models"
)

// ErrNoData is returned when a full pipeline pass yields zero usable
// records, for example when the upstream is unreachable. It is distinct from
// a valid result with no movers, and it never overwrites previously cached
// data.
var ErrNoData = errors.New("no market data available")

// hourEstimateFraction derives an hour-ago price from the 24h move by linear
// extrapolation. It is an estimate, not a measured sample; tracked history
// is far shorter than an hour.
const hourEstimateFraction = 0.04

const minuteWindow = time.Minute

// Service runs the fetch-history-calculate-cache pipeline and exposes the
// engine's boundary operations. The background refresher and request-time
// recomputes share the same stores and cache; concurrent recomputes are
// coalesced through a single-flight group.
type Service struct {
	orchestrator *fetcher.Orchestrator
	settings     *config.Runtime

	// Separate history families: the 3-minute tables and the 1-minute
	// tables never need to agree in real time.
	hist3m *history.Store
	hist1m *history.Store

	cache   *ResultCache
	group   singleflight.Group
	metrics *Metrics
	log     *logrus.Entry
}

// NewService creates the pipeline service with empty history and cache.
func NewService(orchestrator *fetcher.Orchestrator, settings *config.Runtime, metrics *Metrics, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	cfg := settings.Snapshot()

	return &Service{
		orchestrator: orchestrator,
		settings:     settings,
		hist3m:       history.NewStore(cfg.MaxHistoryLength),
		hist1m:       history.NewStore(cfg.MaxHistoryLength),
		cache:        NewResultCache(cfg.CacheTTL),
		metrics:      metrics,
		log:          log.WithField("component", "movers"),
	}
}

// Snapshot returns the current aggregate, honoring the result cache. On a
// miss the full pipeline runs synchronously; simultaneous misses share one
// recompute.
func (s *Service) Snapshot(ctx context.Context) (*models.AggregateResult, error) {
	if result, ok := s.cache.Get(time.Now()); ok {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		return result, nil
	}
	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}

	return s.Refresh(ctx)
}

// Refresh runs the pipeline unconditionally (not gated on cache freshness)
// and caches the result. Concurrent callers are coalesced.
func (s *Service) Refresh(ctx context.Context) (*models.AggregateResult, error) {
	v, err, _ := s.group.Do("aggregate", func() (interface{}, error) {
		return s.recompute(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.AggregateResult), nil
}

// recompute performs one full pass: fetch prices, append history, compute
// windowed changes, rank, fetch the 24h banner, and atomically replace the
// cache entry. A pass that yields nothing returns ErrNoData and leaves the
// prior cache entry untouched.
func (s *Service) recompute(ctx context.Context) (*models.AggregateResult, error) {
	start := time.Now()
	cfg := s.settings.Snapshot()
	if s.metrics != nil {
		s.metrics.RefreshTotal.Inc()
	}

	// Apply any pending capacity change before results are served.
	s.hist3m.Resize(cfg.MaxHistoryLength)
	s.hist1m.Resize(cfg.MaxHistoryLength)

	symbols, err := s.orchestrator.ActiveSymbols(ctx, exchange.MajorProducts, cfg.MaxSymbols)
	if err != nil {
		s.failPass()
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}

	prices := s.orchestrator.FetchPrices(ctx, symbols, cfg.FetchFanoutWidth)
	if len(prices) == 0 {
		s.failPass()
		return nil, ErrNoData
	}

	now := time.Now()
	window := time.Duration(cfg.IntervalMinutes) * time.Minute

	changes := recordAndEvaluate(s.hist3m, prices, now, window)
	recordOnly(s.hist1m, prices, now)

	if s.metrics != nil {
		s.metrics.SymbolsTracked.Set(float64(s.hist3m.Symbols()))
		s.metrics.RecordsEmitted.Set(float64(len(changes)))
	}

	if len(changes) == 0 {
		// First pass over a cold history is the normal cause here.
		s.log.WithFields(logrus.Fields{
			"prices":  len(prices),
			"symbols": s.hist3m.Symbols(),
		}).Warn("no interval records produced")
		s.failPass()
		return nil, ErrNoData
	}

	gainers, losers := SplitGainersLosers(changes)

	// The bar interleaves the top of both tables. Build it in a fresh slice;
	// appending to a reslice of gainers would overwrite gainers[8:] in place.
	topMovers := make([]models.IntervalChange, 0, 16)
	topMovers = append(topMovers, topN(gainers, 8)...)
	topMovers = append(topMovers, topN(losers, 8)...)
	topMovers = topN(topMovers, cfg.MaxCoinsPerGroup)

	// Banner degradation is non-fatal; the tables are the primary product.
	banner := s.fetchBanner(ctx, symbols, cfg)

	result := &models.AggregateResult{
		Gainers:    topN(gainers, cfg.MaxCoinsPerGroup),
		Losers:     topN(losers, cfg.MaxCoinsPerGroup),
		TopMovers:  topMovers,
		Banner:     banner,
		ComputedAt: now,
	}

	s.cache.Put(result, now)

	if s.metrics != nil {
		s.metrics.PassDuration.Observe(time.Since(start).Seconds())
	}
	s.log.WithFields(logrus.Fields{
		"gainers": len(result.Gainers),
		"losers":  len(result.Losers),
		"banner":  len(result.Banner),
		"elapsed": time.Since(start),
	}).Info("aggregate pass complete")

	return result, nil
}

// MinuteMovers computes the 1-minute gainers and losers from a fresh fetch.
// The result is intentionally uncached; minute tables go stale faster than
// any sensible TTL.
func (s *Service) MinuteMovers(ctx context.Context) (gainers, losers []models.IntervalChange, err error) {
	cfg := s.settings.Snapshot()
	s.hist1m.Resize(cfg.MaxHistoryLength)

	symbols, err := s.orchestrator.ActiveSymbols(ctx, exchange.MajorProducts, cfg.MaxSymbols)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}

	prices := s.orchestrator.FetchPrices(ctx, symbols, cfg.FetchFanoutWidth)
	if len(prices) == 0 {
		return nil, nil, ErrNoData
	}

	changes := recordAndEvaluate(s.hist1m, prices, time.Now(), minuteWindow)
	if len(changes) == 0 {
		return nil, nil, ErrNoData
	}

	gainers, losers = SplitGainersLosers(changes)
	return topN(gainers, cfg.MaxCoinsPerGroup), topN(losers, cfg.MaxCoinsPerGroup), nil
}

// EvaluateWindow records the given prices and evaluates changes over an
// ad-hoc window, independent of the result cache. Windows of a minute or
// less use the 1-minute history family, longer ones the 3-minute family.
func (s *Service) EvaluateWindow(prices map[string]decimal.Decimal, now time.Time, window time.Duration) []models.IntervalChange {
	store := s.hist3m
	if window <= minuteWindow {
		store = s.hist1m
	}
	return recordAndEvaluate(store, prices, now, window)
}

// ClearState wipes the result cache and all history buffers. A concurrent
// in-flight recompute may repopulate the cache afterwards; last writer wins.
func (s *Service) ClearState() {
	s.cache.Clear()
	s.hist3m.Clear()
	s.hist1m.Clear()
	s.log.Info("cache and price history cleared")
}

// Reconfigure atomically publishes new runtime settings and applies the
// parts owned by long-lived components.
func (s *Service) Reconfigure(opts config.Options) *config.Settings {
	next := s.settings.Apply(opts)
	s.cache.SetTTL(next.CacheTTL)
	s.hist3m.Resize(next.MaxHistoryLength)
	s.hist1m.Resize(next.MaxHistoryLength)

	s.log.WithFields(logrus.Fields{
		"cache_ttl":       next.CacheTTL,
		"max_history":     next.MaxHistoryLength,
		"fanout_width":    next.FetchFanoutWidth,
		"update_interval": next.UpdateInterval,
	}).Info("runtime settings updated")

	return next
}

// Settings returns the current runtime settings snapshot.
func (s *Service) Settings() *config.Settings {
	return s.settings.Snapshot()
}

// Status describes the engine state for health and config endpoints.
type Status struct {
	HasData        bool          `json:"has_data"`
	CacheAge       time.Duration `json:"cache_age_seconds"`
	CacheTTL       time.Duration `json:"cache_ttl_seconds"`
	SymbolsTracked int           `json:"symbols_tracked"`
	MaxHistory     int           `json:"max_history_per_symbol"`
}

// Status reports the cache and history state.
func (s *Service) Status() Status {
	result, computedAt := s.cache.Peek()

	var age time.Duration
	if result != nil {
		age = time.Since(computedAt)
	}

	return Status{
		HasData:        result != nil,
		CacheAge:       age,
		CacheTTL:       s.cache.TTL(),
		SymbolsTracked: s.hist3m.Symbols(),
		MaxHistory:     s.hist3m.MaxLen(),
	}
}

func (s *Service) failPass() {
	if s.metrics != nil {
		s.metrics.RefreshFailures.Inc()
	}
}

// fetchBanner builds the 24h mover banner from paired stats+ticker fetches.
func (s *Service) fetchBanner(ctx context.Context, symbols []string, cfg *config.Settings) []models.DayMover {
	statsSymbols := symbols
	if cfg.MaxStatsSymbols > 0 && len(statsSymbols) > cfg.MaxStatsSymbols {
		statsSymbols = statsSymbols[:cfg.MaxStatsSymbols]
	}

	dayStats := s.orchestrator.FetchDayStats(ctx, statsSymbols, cfg.StatsFanoutWidth)
	return BuildBanner(dayStats, cfg.MinChangeThreshold, cfg.MinVolumeThreshold)
}

// BuildBanner converts daily stats into a ranked banner: significant movers
// only, largest absolute 24h change first, gainers and losers interleaved.
func BuildBanner(stats map[string]fetcher.DayStats, minChangePct, minVolume float64) []models.DayMover {
	minChange := decimal.NewFromFloat(minChangePct)
	minVol := decimal.NewFromFloat(minVolume)
	estFraction := decimal.NewFromFloat(hourEstimateFraction)

	all := make([]models.DayMover, 0, len(stats))
	for symbol, ds := range stats {
		if !ds.Price.IsPositive() || !ds.Open.IsPositive() {
			continue
		}

		move := ds.Price.Sub(ds.Open)
		pct24 := move.Div(ds.Open).Mul(oneHundred)
		if pct24.Abs().LessThan(minChange) || !ds.Volume.GreaterThan(minVol) {
			continue
		}

		est1h := ds.Price.Sub(move.Mul(estFraction))
		var pct1h decimal.Decimal
		if est1h.IsPositive() {
			pct1h = ds.Price.Sub(est1h).Div(est1h).Mul(oneHundred)
		}

		all = append(all, models.DayMover{
			Symbol:         symbol,
			CurrentPrice:   ds.Price,
			Open24h:        ds.Open,
			Price1hEst:     est1h,
			PctChange24h:   pct24,
			PctChange1hEst: pct1h,
			Volume24h:      ds.Volume,
		})
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].PctChange24h.Abs().GreaterThan(all[j].PctChange24h.Abs())
	})

	var gainers, losers []models.DayMover
	for _, m := range all {
		if m.PctChange24h.IsPositive() {
			gainers = append(gainers, m)
		} else {
			losers = append(losers, m)
		}
	}
	if len(gainers) > 10 {
		gainers = gainers[:10]
	}
	if len(losers) > 10 {
		losers = losers[:10]
	}

	banner := make([]models.DayMover, 0, len(gainers)+len(losers))
	for i := 0; i < len(gainers) || i < len(losers); i++ {
		if i < len(gainers) {
			banner = append(banner, gainers[i])
		}
		if i < len(losers) {
			banner = append(banner, losers[i])
		}
	}
	if len(banner) > 20 {
		banner = banner[:20]
	}
	return banner
}

// recordAndEvaluate appends the fetched prices to the store, then computes
// the windowed change for every fetched symbol with enough history.
func recordAndEvaluate(store *history.Store, prices map[string]decimal.Decimal, now time.Time, window time.Duration) []models.IntervalChange {
	for symbol, price := range prices {
		store.Record(symbol, price, now)
	}

	changes := make([]models.IntervalChange, 0, len(prices))
	for symbol, price := range prices {
		if change, ok := ChangeOverWindow(symbol, store.Snapshot(symbol), price, window, now); ok {
			changes = append(changes, change)
		}
	}
	return changes
}

// recordOnly appends prices to a store without evaluating, keeping a family
// warm for later reads.
func recordOnly(store *history.Store, prices map[string]decimal.Decimal, now time.Time) {
	for symbol, price := range prices {
		store.Record(symbol, price, now)
	}
}
