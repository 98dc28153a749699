package charts

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"market-movers-api/internal/exchange"
	"market-movers-api/internal/models"
)

// Mock CandleSource
type MockCandleSource struct {
	mock.Mock
}

func (m *MockCandleSource) GetCandles(ctx context.Context, productID string, from, to time.Time, granularity int) ([]exchange.Candle, error) {
	args := m.Called(ctx, productID, from, to, granularity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]exchange.Candle), args.Error(1)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func flatPoints(n int, price, volume float64) []models.ChartPoint {
	points := make([]models.ChartPoint, n)
	base := time.Now().Add(-time.Duration(n) * time.Hour)
	for i := range points {
		ts := base.Add(time.Duration(i) * time.Hour)
		points[i] = models.ChartPoint{
			Timestamp: ts.UnixMilli(),
			Datetime:  ts.Format(time.RFC3339),
			Price:     decimal.NewFromFloat(price),
			Volume:    decimal.NewFromFloat(volume),
		}
	}
	return points
}

// Test GetChartData
func TestService_GetChartData(t *testing.T) {
	ctx := context.Background()

	t.Run("converts candles to chart points", func(t *testing.T) {
		source := new(MockCandleSource)
		ts := time.Now().Truncate(time.Hour)
		candles := []exchange.Candle{
			{Timestamp: ts, Close: decimal.NewFromFloat(100.1234567), Volume: decimal.NewFromFloat(12.345)},
			{Timestamp: ts.Add(time.Hour), Close: decimal.NewFromInt(101), Volume: decimal.NewFromInt(15)},
		}
		source.On("GetCandles", ctx, "BTC-USD", mock.Anything, mock.Anything, 3600).Return(candles, nil)

		service := NewService(source, testLogger())
		points, err := service.GetChartData(ctx, "BTC-USD", 7)

		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.Equal(t, ts.UnixMilli(), points[0].Timestamp)
		assert.True(t, points[0].Price.Equal(decimal.NewFromFloat(100.123457)))
		assert.True(t, points[0].Volume.Equal(decimal.NewFromFloat(12.35)))
		source.AssertExpectations(t)
	})

	t.Run("selects granularity from the day span", func(t *testing.T) {
		for days, granularity := range map[int]int{1: 60, 7: 3600, 30: 86400} {
			source := new(MockCandleSource)
			source.On("GetCandles", ctx, "ETH-USD", mock.Anything, mock.Anything, granularity).Return([]exchange.Candle{}, nil)

			service := NewService(source, testLogger())
			_, err := service.GetChartData(ctx, "ETH-USD", days)

			require.NoError(t, err)
			source.AssertExpectations(t)
		}
	})

	t.Run("wraps upstream errors", func(t *testing.T) {
		source := new(MockCandleSource)
		source.On("GetCandles", ctx, "BTC-USD", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("unreachable"))

		service := NewService(source, testLogger())
		_, err := service.GetChartData(ctx, "BTC-USD", 7)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "BTC-USD")
	})
}

// Test Analyze
func TestAnalyze(t *testing.T) {
	t.Run("sparse series scores zero", func(t *testing.T) {
		analysis := Analyze(flatPoints(10, 100, 50))

		assert.Equal(t, 0, analysis.Score)
		assert.Empty(t, analysis.Signals)
		assert.NotNil(t, analysis.Signals)
	})

	t.Run("flat series sits near the neutral score", func(t *testing.T) {
		analysis := Analyze(flatPoints(48, 100, 50))

		// No trend, no volume shift, low volatility.
		assert.Equal(t, 45, analysis.Score)
		assert.Contains(t, analysis.Signals, "Low volatility (<1%)")
		assert.Equal(t, 0.0, analysis.TrendPercentage)
	})

	t.Run("uptrend with volume spike scores above neutral", func(t *testing.T) {
		points := flatPoints(48, 100, 50)
		// Last 12 points climb 10 percent and double their volume.
		for i := 36; i < 48; i++ {
			factor := 1.0 + 0.10*float64(i-36)/11.0
			points[i].Price = decimal.NewFromFloat(100 * factor)
			points[i].Volume = decimal.NewFromFloat(120)
		}

		analysis := Analyze(points)

		assert.Greater(t, analysis.Score, 50)
		assert.Contains(t, analysis.Signals, "Strong upward trend (+5%)")
		assert.Contains(t, analysis.Signals, "High volume spike")
		assert.Greater(t, analysis.TrendPercentage, 5.0)
	})

	t.Run("sharp decline scores below neutral", func(t *testing.T) {
		points := flatPoints(48, 100, 50)
		for i := 36; i < 48; i++ {
			factor := 1.0 - 0.10*float64(i-36)/11.0
			points[i].Price = decimal.NewFromFloat(100 * factor)
		}

		analysis := Analyze(points)

		assert.Less(t, analysis.Score, 50)
		assert.Contains(t, analysis.Signals, "Sharp decline (-5%)")
		assert.Less(t, analysis.TrendPercentage, -5.0)
	})

	t.Run("score is clamped to the 0-100 range", func(t *testing.T) {
		points := flatPoints(48, 100, 50)
		for i := 36; i < 48; i++ {
			points[i].Price = decimal.NewFromFloat(100 - 8*float64(i-35))
		}

		analysis := Analyze(points)

		assert.GreaterOrEqual(t, analysis.Score, 0)
		assert.LessOrEqual(t, analysis.Score, 100)
		assert.LessOrEqual(t, len(analysis.Signals), 5)
	})
}
