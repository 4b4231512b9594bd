package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestSalePriceAcceptsNumberOrString(t *testing.T) {
	var sales []Sale
	payload := `[
		{"title":"a","price":12.5,"url":"u","publishedAt":"2024-01-01"},
		{"title":"b","price":"30,00","url":"u","publishedAt":"1704067200"},
		{"title":"c","price":"sur demande","url":"u","publishedAt":"hier"},
		{"title":"d","price":null,"url":"u","publishedAt":""}
	]`
	require.NoError(t, json.Unmarshal([]byte(payload), &sales))
	require.Len(t, sales, 4)

	v, ok := sales[0].Price.Float()
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	v, ok = sales[1].Price.Float()
	assert.True(t, ok)
	assert.Equal(t, 30.0, v)

	_, ok = sales[2].Price.Float()
	assert.False(t, ok)
	_, ok = sales[3].Price.Float()
	assert.False(t, ok)

	published, ok := sales[1].Published()
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), published)

	_, ok = sales[2].Published()
	assert.False(t, ok)
}

func TestAmountMarshalKeepsInvalidText(t *testing.T) {
	data, err := json.Marshal([]Amount{"12.50", "sur demande", "-3"})
	require.NoError(t, err)
	assert.Equal(t, `[12.5,"sur demande","-3"]`, string(data))
}

func TestDealHelpers(t *testing.T) {
	d := Deal{ID: "42115", Image: "/img/42115.jpg"}
	assert.Equal(t, "https://www.avenuedelabrique.com/img/42115.jpg", d.ImageURL("https://www.avenuedelabrique.com/"))
	assert.Equal(t, "Lego #42115", d.DisplayTitle())
	assert.Equal(t, 0, d.DiscountOrZero())

	discount := 35
	d.Discount = &discount
	d.Image = "https://cdn.example.com/a.jpg"
	assert.Equal(t, 35, d.DiscountOrZero())
	assert.Equal(t, "https://cdn.example.com/a.jpg", d.ImageURL("https://www.avenuedelabrique.com"))
}

func TestSalePublishedAtAcceptsNumber(t *testing.T) {
	var sale Sale
	require.NoError(t, json.Unmarshal([]byte(`{"title":"a","price":10,"publishedAt":1704067200}`), &sale))
	assert.Equal(t, Timestamp("1704067200"), sale.PublishedAt)

	published, ok := sale.Published()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), published)

	require.NoError(t, json.Unmarshal([]byte(`{"publishedAt":null}`), &sale))
	_, ok = sale.Published()
	assert.False(t, ok)
}

func TestTimestampShortDigitsAreNotEpoch(t *testing.T) {
	_, ok := Timestamp("2024").Time()
	assert.False(t, ok)
	_, ok = Timestamp("75367").Time()
	assert.False(t, ok)

	ts, ok := Timestamp("2024-01-02").Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), ts)

	ts, ok = Timestamp("1704067200.5").Time()
	require.True(t, ok)
	assert.Equal(t, int64(1704067200), ts.Unix())
}

func TestSaleDecodesForeignBSONTypes(t *testing.T) {
	published := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		doc   bson.M
		price float64
		when  time.Time
		dated bool
	}{
		{
			name:  "date and double",
			doc:   bson.M{"title": "a", "price": 12.5, "publishedAt": published},
			price: 12.5, when: published, dated: true,
		},
		{
			name:  "int64 epoch and int32 price",
			doc:   bson.M{"title": "b", "price": int32(40), "publishedAt": int64(1704067200)},
			price: 40, when: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), dated: true,
		},
		{
			name:  "strings",
			doc:   bson.M{"title": "c", "price": "30,00", "publishedAt": "2024-01-01"},
			price: 30, when: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), dated: true,
		},
		{
			name:  "unreadable date",
			doc:   bson.M{"title": "d", "price": "5", "publishedAt": true},
			price: 5,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := bson.Marshal(tc.doc)
			require.NoError(t, err)

			var sale Sale
			require.NoError(t, bson.Unmarshal(data, &sale))

			price, ok := sale.Price.Float()
			require.True(t, ok)
			assert.Equal(t, tc.price, price)

			when, ok := sale.Published()
			assert.Equal(t, tc.dated, ok)
			if tc.dated {
				assert.True(t, tc.when.Equal(when))
			}
		})
	}
}

func TestSortByRecent(t *testing.T) {
	sales := []Sale{
		{Title: "undated", PublishedAt: "hier"},
		{Title: "old", PublishedAt: "2024-01-01"},
		{Title: "new", PublishedAt: "1717200000"},
		{Title: "mid", PublishedAt: "2024-03-01T10:00:00Z"},
		{Title: "also undated"},
	}
	SortByRecent(sales)

	titles := make([]string, len(sales))
	for i, s := range sales {
		titles[i] = s.Title
	}
	assert.Equal(t, []string{"new", "mid", "old", "undated", "also undated"}, titles)
}
