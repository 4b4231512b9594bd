package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/legodealworker/internal/models"
)

func salesWithPrices(prices ...models.Amount) []models.Sale {
	sales := make([]models.Sale, 0, len(prices))
	for _, p := range prices {
		sales = append(sales, models.Sale{ProductID: "75367", Price: p})
	}
	return sales
}

func TestSummarizePercentiles(t *testing.T) {
	summary := Summarize(salesWithPrices("50", "10", "40", "20", "30"))

	assert.Equal(t, 5, summary.Count)
	assert.Equal(t, 10.0, summary.P5)
	assert.Equal(t, 20.0, summary.P25)
	assert.Equal(t, 30.0, summary.P50)
	assert.Equal(t, 30.0, summary.Mean)
	assert.Nil(t, summary.LifetimeDays)
}

func TestSummarizeSkipsInvalidPrices(t *testing.T) {
	summary := Summarize(salesWithPrices("12,50 €", "abc", "", "-4", "7.5", "NaN"))

	assert.Equal(t, 6, summary.Count)
	assert.Equal(t, 7.5, summary.P5)
	assert.Equal(t, 12.5, summary.P50)
	assert.Equal(t, 10.0, summary.Mean)
}

func TestSummarizeNoData(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, Summary{}, summary)

	summary = Summarize(salesWithPrices("n/a"))
	assert.Equal(t, 1, summary.Count)
	assert.Zero(t, summary.P50)
	assert.Zero(t, summary.Mean)
}

func TestSummarizeLifetime(t *testing.T) {
	sales := []models.Sale{
		{Price: "10", PublishedAt: "2024-01-11"},
		{Price: "20", PublishedAt: "2024-01-01"},
		{Price: "30", PublishedAt: "not a date"},
	}
	summary := Summarize(sales)
	require.NotNil(t, summary.LifetimeDays)
	assert.Equal(t, 10, *summary.LifetimeDays)

	summary = Summarize(sales[:1])
	assert.Nil(t, summary.LifetimeDays)
}

func TestSummarizeLifetimeRoundsToNearestDay(t *testing.T) {
	sales := []models.Sale{
		{Price: "10", PublishedAt: "2024-01-01T00:00:00Z"},
		{Price: "10", PublishedAt: "2024-01-03 14:00:00"},
		{Price: "10", PublishedAt: "1704067200"},
	}
	summary := Summarize(sales)
	require.NotNil(t, summary.LifetimeDays)
	assert.Equal(t, 3, *summary.LifetimeDays)
}

func TestSummarizeLeavesInputUntouched(t *testing.T) {
	sales := salesWithPrices("30", "10", "20")
	Summarize(sales)
	assert.Equal(t, models.Amount("30"), sales[0].Price)
}

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}
	assert.Equal(t, 10.0, Percentile(sorted, 0.05))
	assert.Equal(t, 30.0, Percentile(sorted, 0.5))
	assert.Equal(t, 50.0, Percentile(sorted, 1))
	assert.Equal(t, 0.0, Percentile(nil, 0.5))
}
