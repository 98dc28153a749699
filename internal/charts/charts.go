package charts

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"market-movers-api/internal/exchange"
	"market-movers-api/internal/models"
)

// CandleSource fetches historical candles from the upstream exchange.
type CandleSource interface {
	GetCandles(ctx context.Context, productID string, from, to time.Time, granularity int) ([]exchange.Candle, error)
}

// Service retrieves chart series and scores a coin's momentum. This is a
// stateless fetch; no history is kept.
type Service struct {
	source CandleSource
	log    *logrus.Entry
}

// NewService creates a chart service
func NewService(source CandleSource, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		source: source,
		log:    log.WithField("component", "charts"),
	}
}

// GetChartData fetches the close-price series for a symbol over the given
// number of days, oldest point first.
func (s *Service) GetChartData(ctx context.Context, symbol string, days int) ([]models.ChartPoint, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	// Granularity choices match the exchange's supported candle sizes.
	granularity := 86400
	switch {
	case days <= 1:
		granularity = 60
	case days <= 7:
		granularity = 3600
	}

	candles, err := s.source.GetCandles(ctx, symbol, start, end, granularity)
	if err != nil {
		return nil, fmt.Errorf("chart data for %s: %w", symbol, err)
	}

	points := make([]models.ChartPoint, 0, len(candles))
	for _, candle := range candles {
		points = append(points, models.ChartPoint{
			Timestamp: candle.Timestamp.UnixMilli(),
			Datetime:  candle.Timestamp.Format(time.RFC3339),
			Price:     candle.Close.Round(6),
			Volume:    candle.Volume.Round(2),
		})
	}

	s.log.WithFields(logrus.Fields{
		"symbol": symbol,
		"points": len(points),
	}).Info("chart data fetched")

	return points, nil
}

// Analyze scores a coin's momentum from its chart series. Needs at least 24
// points; sparser series score zero.
func Analyze(points []models.ChartPoint) models.CoinAnalysis {
	if len(points) < 24 {
		return models.CoinAnalysis{Signals: []string{}}
	}

	prices := make([]float64, len(points))
	volumes := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price.InexactFloat64()
		volumes[i] = p.Volume.InexactFloat64()
	}

	var signals []string
	score := 50

	// Recent trend
	recent := prices[len(prices)-12:]
	trend := 0.0
	if recent[0] != 0 {
		trend = (recent[len(recent)-1] - recent[0]) / recent[0] * 100
	}
	switch {
	case trend > 5:
		signals = append(signals, "Strong upward trend (+5%)")
		score += 15
	case trend > 1:
		signals = append(signals, "Positive trend (+1%)")
		score += 8
	case trend < -5:
		signals = append(signals, "Sharp decline (-5%)")
		score -= 15
	case trend < -1:
		signals = append(signals, "Negative trend (-1%)")
		score -= 8
	}

	// Volume shift
	recentVolume := mean(volumes[len(volumes)-6:])
	olderVolume := mean(volumes[len(volumes)-24 : len(volumes)-6])
	volumeChange := 0.0
	if olderVolume > 0 {
		volumeChange = (recentVolume - olderVolume) / olderVolume * 100
		if recentVolume > olderVolume*1.5 {
			signals = append(signals, "High volume spike")
			score += 10
		} else if recentVolume > olderVolume*1.2 {
			signals = append(signals, "Increased volume")
			score += 5
		}
	}

	// Volatility
	var changes []float64
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			changes = append(changes, abs(prices[i]-prices[i-1])/prices[i-1]*100)
		}
	}
	avgVolatility := mean(changes)
	if avgVolatility > 5 {
		signals = append(signals, "High volatility (>5%)")
		score += 5
	} else if avgVolatility < 1 {
		signals = append(signals, "Low volatility (<1%)")
		score -= 5
	}

	// Support and resistance over the last 24 points
	window := prices[len(prices)-24:]
	maxPrice, minPrice := window[0], window[0]
	for _, p := range window {
		if p > maxPrice {
			maxPrice = p
		}
		if p < minPrice {
			minPrice = p
		}
	}
	current := prices[len(prices)-1]
	if current > maxPrice*0.95 {
		signals = append(signals, "Near resistance level")
	} else if current < minPrice*1.05 {
		signals = append(signals, "Near support level")
		score += 5
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	if len(signals) > 5 {
		signals = signals[:5]
	}
	if signals == nil {
		signals = []string{}
	}

	return models.CoinAnalysis{
		Score:           score,
		Signals:         signals,
		TrendPercentage: round2(trend),
		VolumeChange:    round2(volumeChange),
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func round2(v float64) float64 {
	d := decimal.NewFromFloat(v).Round(2)
	f, _ := d.Float64()
	return f
}
