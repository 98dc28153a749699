package dto

import (
	"github.com/shopspring/decimal"

	"market-movers-api/internal/models"
)

// TableRow is one ranked row of the gainers/losers tables.
type TableRow struct {
	Rank            int             `json:"rank"`
	Symbol          string          `json:"symbol"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	InitialPrice    decimal.Decimal `json:"initial_price"`
	PctChange       decimal.Decimal `json:"price_change_percentage"`
	IntervalMinutes float64         `json:"actual_interval_minutes"`
	Momentum        string          `json:"momentum"`
	AlertLevel      string          `json:"alert_level"`
}

// MoverBarItem is one item of the horizontal top-movers bar.
type MoverBarItem struct {
	Symbol          string          `json:"symbol"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	PctChange       decimal.Decimal `json:"price_change"`
	InitialPrice    decimal.Decimal `json:"initial_price"`
	IntervalMinutes float64         `json:"interval_minutes"`
	BarColor        string          `json:"bar_color"`
	Momentum        string          `json:"momentum"`
}

// BannerItem is one scrolling banner entry built from 24h stats.
type BannerItem struct {
	Symbol       string          `json:"symbol"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	PctChange24h decimal.Decimal `json:"price_change_24h"`
	PctChange1h  decimal.Decimal `json:"price_change_1h"`
	Volume24h    decimal.Decimal `json:"volume_24h"`
}

var five = decimal.NewFromInt(5)
var ten = decimal.NewFromInt(10)

// TableRows formats interval changes as ranked table rows.
func TableRows(changes []models.IntervalChange) []TableRow {
	rows := make([]TableRow, 0, len(changes))
	for i, c := range changes {
		momentum := "moderate"
		if c.PctChange.Abs().GreaterThan(five) {
			momentum = "strong"
		}
		alertLevel := "normal"
		if c.PctChange.Abs().GreaterThan(ten) {
			alertLevel = "high"
		}

		rows = append(rows, TableRow{
			Rank:            i + 1,
			Symbol:          c.Symbol,
			CurrentPrice:    c.CurrentPrice,
			InitialPrice:    c.ReferencePrice,
			PctChange:       c.PctChange,
			IntervalMinutes: roundMinutes(c.ElapsedMinutes),
			Momentum:        momentum,
			AlertLevel:      alertLevel,
		})
	}
	return rows
}

// MoverBar formats interval changes for the horizontal scroll bar.
func MoverBar(changes []models.IntervalChange) []MoverBarItem {
	items := make([]MoverBarItem, 0, len(changes))
	for _, c := range changes {
		barColor := "red"
		if c.PctChange.IsPositive() {
			barColor = "green"
		}
		momentum := "moderate"
		if c.PctChange.Abs().GreaterThan(five) {
			momentum = "strong"
		}

		items = append(items, MoverBarItem{
			Symbol:          c.Symbol,
			CurrentPrice:    c.CurrentPrice,
			PctChange:       c.PctChange,
			InitialPrice:    c.ReferencePrice,
			IntervalMinutes: roundMinutes(c.ElapsedMinutes),
			BarColor:        barColor,
			Momentum:        momentum,
		})
	}
	return items
}

// Banner formats day movers for the scrolling banners.
func Banner(movers []models.DayMover) []BannerItem {
	items := make([]BannerItem, 0, len(movers))
	for _, m := range movers {
		items = append(items, BannerItem{
			Symbol:       m.Symbol,
			CurrentPrice: m.CurrentPrice,
			PctChange24h: m.PctChange24h,
			PctChange1h:  m.PctChange1hEst,
			Volume24h:    m.Volume24h,
		})
	}
	return items
}

func roundMinutes(minutes float64) float64 {
	d := decimal.NewFromFloat(minutes).Round(1)
	f, _ := d.Float64()
	return f
}
