package movers

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"market-movers-api/internal/models"
)

// minSignificantPct is the smallest absolute percentage move worth
// reporting; anything below it is noise at quote precision.
var minSignificantPct = decimal.NewFromFloat(0.01)

var oneHundred = decimal.NewFromInt(100)

// ChangeOverWindow computes the percentage change of currentPrice against a
// reference sample from the buffer.
//
// The reference is the earliest sample whose age is at least window; when the
// buffer does not yet span the window, the oldest sample is used instead.
// This avoids extrapolating beyond available history and avoids reporting
// near-instant degenerate changes when sampling is sparse. The returned
// record carries the true elapsed minutes to the chosen reference, which may
// exceed the nominal window.
//
// Returns false when the buffer has fewer than two samples, the reference is
// not positive, or the move is below the significance floor.
func ChangeOverWindow(symbol string, samples []models.PriceSample, currentPrice decimal.Decimal, window time.Duration, now time.Time) (models.IntervalChange, bool) {
	if len(samples) < 2 || !currentPrice.IsPositive() {
		return models.IntervalChange{}, false
	}

	var reference *models.PriceSample
	for i := range samples {
		if now.Sub(samples[i].Timestamp) >= window {
			reference = &samples[i]
			break
		}
	}
	if reference == nil {
		reference = &samples[0]
	}

	if !reference.Price.IsPositive() {
		return models.IntervalChange{}, false
	}

	pctChange := currentPrice.Sub(reference.Price).Div(reference.Price).Mul(oneHundred)
	if pctChange.Abs().LessThan(minSignificantPct) {
		return models.IntervalChange{}, false
	}

	return models.IntervalChange{
		Symbol:         symbol,
		CurrentPrice:   currentPrice,
		ReferencePrice: reference.Price,
		PctChange:      pctChange,
		ElapsedMinutes: now.Sub(reference.Timestamp).Minutes(),
	}, true
}

// SplitGainersLosers partitions changes into gainers sorted best-first and
// losers sorted worst-first.
func SplitGainersLosers(changes []models.IntervalChange) (gainers, losers []models.IntervalChange) {
	for _, c := range changes {
		if c.PctChange.IsPositive() {
			gainers = append(gainers, c)
		} else {
			losers = append(losers, c)
		}
	}

	sort.Slice(gainers, func(i, j int) bool {
		return gainers[i].PctChange.GreaterThan(gainers[j].PctChange)
	})
	sort.Slice(losers, func(i, j int) bool {
		return losers[i].PctChange.LessThan(losers[j].PctChange)
	})

	return gainers, losers
}

func topN(changes []models.IntervalChange, n int) []models.IntervalChange {
	if n > 0 && len(changes) > n {
		changes = changes[:n]
	}
	return changes
}
