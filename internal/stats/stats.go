// Package stats summarizes resale listings into price indicators.
package stats

import (
	"math"
	"sort"
	"time"

	"sjsage522/legodealworker/internal/models"
)

// Summary holds the price indicators for one product. Percentiles use the
// nearest-rank order statistic at index floor(f*N), without interpolation.
type Summary struct {
	Count int     `json:"count"`
	P5    float64 `json:"p5"`
	P25   float64 `json:"p25"`
	P50   float64 `json:"p50"`
	Mean  float64 `json:"mean"`
	// LifetimeDays is nil when fewer than two sales have a usable date
	LifetimeDays *int `json:"lifetimeDays"`
}

// Summarize computes every indicator from one private copy of sales
func Summarize(sales []models.Sale) Summary {
	snapshot := make([]models.Sale, len(sales))
	copy(snapshot, sales)

	summary := Summary{Count: len(snapshot)}

	prices := validPrices(snapshot)
	if len(prices) > 0 {
		summary.P5 = Percentile(prices, 0.05)
		summary.P25 = Percentile(prices, 0.25)
		summary.P50 = Percentile(prices, 0.5)
		summary.Mean = mean(prices)
	}
	summary.LifetimeDays = lifetimeDays(snapshot)
	return summary
}

// Percentile returns sorted[floor(f*N)]. sorted must be ascending; an empty
// slice yields 0.
func Percentile(sorted []float64, f float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(f * float64(n)))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

func validPrices(sales []models.Sale) []float64 {
	prices := make([]float64, 0, len(sales))
	for _, s := range sales {
		if v, ok := s.Price.Float(); ok {
			prices = append(prices, v)
		}
	}
	sort.Float64s(prices)
	return prices
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func lifetimeDays(sales []models.Sale) *int {
	var first, last time.Time
	valid := 0
	for _, s := range sales {
		t, ok := s.Published()
		if !ok {
			continue
		}
		if valid == 0 || t.Before(first) {
			first = t
		}
		if valid == 0 || t.After(last) {
			last = t
		}
		valid++
	}
	if valid < 2 {
		return nil
	}
	days := int(math.Round(last.Sub(first).Hours() / 24))
	return &days
}
