package movers

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-movers-api/internal/models"
)

func sampleAt(base time.Time, offset time.Duration, price float64) models.PriceSample {
	return models.PriceSample{Timestamp: base.Add(offset), Price: decimal.NewFromFloat(price)}
}

// Test ChangeOverWindow
func TestChangeOverWindow(t *testing.T) {
	base := time.Now()
	window := 3 * time.Minute

	t.Run("computes change against the window reference", func(t *testing.T) {
		now := base.Add(3 * time.Minute)
		samples := []models.PriceSample{
			sampleAt(base, 0, 100),
			sampleAt(base, time.Minute, 104),
			sampleAt(base, 2*time.Minute, 108),
		}

		change, ok := ChangeOverWindow("BTC-USD", samples, decimal.NewFromInt(110), window, now)

		require.True(t, ok)
		assert.Equal(t, "BTC-USD", change.Symbol)
		assert.True(t, change.ReferencePrice.Equal(decimal.NewFromInt(100)))
		assert.True(t, change.PctChange.Equal(decimal.NewFromInt(10)))
		assert.InDelta(t, 3.0, change.ElapsedMinutes, 0.01)
	})

	t.Run("picks the earliest sample at least window old", func(t *testing.T) {
		now := base.Add(5 * time.Minute)
		samples := []models.PriceSample{
			sampleAt(base, 0, 100),
			sampleAt(base, time.Minute, 200),
			sampleAt(base, 4*time.Minute, 300),
		}

		change, ok := ChangeOverWindow("ETH-USD", samples, decimal.NewFromInt(220), window, now)

		require.True(t, ok)
		assert.True(t, change.ReferencePrice.Equal(decimal.NewFromInt(100)))
		assert.InDelta(t, 5.0, change.ElapsedMinutes, 0.01)
	})

	t.Run("falls back to the oldest sample when history is short", func(t *testing.T) {
		now := base.Add(2 * time.Minute)
		samples := []models.PriceSample{
			sampleAt(base, 0, 100),
			sampleAt(base, time.Minute, 101),
		}

		change, ok := ChangeOverWindow("SOL-USD", samples, decimal.NewFromInt(105), window, now)

		require.True(t, ok)
		assert.True(t, change.ReferencePrice.Equal(decimal.NewFromInt(100)))
		assert.True(t, change.PctChange.Equal(decimal.NewFromInt(5)))
		assert.InDelta(t, 2.0, change.ElapsedMinutes, 0.01)
	})

	t.Run("requires at least two samples", func(t *testing.T) {
		now := base.Add(5 * time.Minute)
		samples := []models.PriceSample{sampleAt(base, 0, 100)}

		_, ok := ChangeOverWindow("BTC-USD", samples, decimal.NewFromInt(110), window, now)
		assert.False(t, ok)

		_, ok = ChangeOverWindow("BTC-USD", nil, decimal.NewFromInt(110), window, now)
		assert.False(t, ok)
	})

	t.Run("drops changes below the significance floor", func(t *testing.T) {
		now := base.Add(3 * time.Minute)
		samples := []models.PriceSample{
			sampleAt(base, 0, 10000),
			sampleAt(base, time.Minute, 10000),
		}

		// 0.5 over 10000 is 0.005 percent, below the 0.01 floor.
		_, ok := ChangeOverWindow("BTC-USD", samples, decimal.NewFromFloat(10000.5), window, now)
		assert.False(t, ok)

		// 2 over 10000 is 0.02 percent, above the floor.
		change, ok := ChangeOverWindow("BTC-USD", samples, decimal.NewFromInt(10002), window, now)
		require.True(t, ok)
		assert.True(t, change.PctChange.Equal(decimal.NewFromFloat(0.02)))
	})

	t.Run("negative changes pass the floor symmetrically", func(t *testing.T) {
		now := base.Add(3 * time.Minute)
		samples := []models.PriceSample{
			sampleAt(base, 0, 100),
			sampleAt(base, time.Minute, 99),
		}

		change, ok := ChangeOverWindow("ETH-USD", samples, decimal.NewFromInt(95), window, now)

		require.True(t, ok)
		assert.True(t, change.PctChange.Equal(decimal.NewFromInt(-5)))
	})

	t.Run("rejects non-positive current price", func(t *testing.T) {
		now := base.Add(3 * time.Minute)
		samples := []models.PriceSample{
			sampleAt(base, 0, 100),
			sampleAt(base, time.Minute, 101),
		}

		_, ok := ChangeOverWindow("BTC-USD", samples, decimal.Zero, window, now)
		assert.False(t, ok)
	})
}

// Test SplitGainersLosers
func TestSplitGainersLosers(t *testing.T) {
	changes := []models.IntervalChange{
		{Symbol: "A-USD", PctChange: decimal.NewFromFloat(1.5)},
		{Symbol: "B-USD", PctChange: decimal.NewFromFloat(-2.0)},
		{Symbol: "C-USD", PctChange: decimal.NewFromFloat(4.0)},
		{Symbol: "D-USD", PctChange: decimal.NewFromFloat(-0.5)},
		{Symbol: "E-USD", PctChange: decimal.NewFromFloat(2.5)},
	}

	gainers, losers := SplitGainersLosers(changes)

	require.Len(t, gainers, 3)
	require.Len(t, losers, 2)

	assert.Equal(t, "C-USD", gainers[0].Symbol)
	assert.Equal(t, "E-USD", gainers[1].Symbol)
	assert.Equal(t, "A-USD", gainers[2].Symbol)

	assert.Equal(t, "B-USD", losers[0].Symbol)
	assert.Equal(t, "D-USD", losers[1].Symbol)
}

// Test topN
func TestTopN(t *testing.T) {
	changes := []models.IntervalChange{
		{Symbol: "A-USD"},
		{Symbol: "B-USD"},
		{Symbol: "C-USD"},
	}

	assert.Len(t, topN(changes, 2), 2)
	assert.Len(t, topN(changes, 5), 3)
	assert.Len(t, topN(changes, 0), 3)
	assert.Empty(t, topN(nil, 2))
}
