package models

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"sjsage522/legodealworker/helpers"
)

// Amount is a price as published by the resale marketplace. The wire value
// may be a JSON number or a string; the raw text is kept so an invalid value
// can still be displayed.
type Amount string

// UnmarshalJSON accepts a number, a string or null
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
	case len(data) > 0 && data[0] == '"':
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("invalid amount %s: %w", data, err)
		}
		*a = Amount(s)
	default:
		*a = Amount(data)
	}
	return nil
}

// MarshalJSON writes a number when the amount is valid and the raw string otherwise
func (a Amount) MarshalJSON() ([]byte, error) {
	if v, ok := a.Float(); ok {
		return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
	}
	return []byte(strconv.Quote(string(a))), nil
}

// Float parses the amount. Only finite, non-negative values are valid.
func (a Amount) Float() (float64, bool) {
	v, ok := helpers.ParseAmount(string(a))
	if !ok || v < 0 {
		return 0, false
	}
	return v, true
}

// UnmarshalBSONValue accepts a string, any numeric type or null
func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	*a = Amount(bsonText(bson.RawValue{Type: t, Value: data}))
	return nil
}

// Timestamp is a publication time as received: epoch seconds, RFC3339 or a
// plain date. It is kept as text so a value that cannot be read only affects
// its own record.
type Timestamp string

var (
	timestampLayouts = []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}

	// epoch seconds from 1973 on; shorter digit runs are years or ids
	epochSeconds = regexp.MustCompile(`^\d{9,}(\.\d+)?$`)
)

// UnmarshalJSON accepts a number, a string or null
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*ts = ""
	case len(data) > 0 && data[0] == '"':
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("invalid timestamp %s: %w", data, err)
		}
		*ts = Timestamp(s)
	default:
		*ts = Timestamp(data)
	}
	return nil
}

// UnmarshalBSONValue accepts a string, any numeric type, a BSON date or null
func (ts *Timestamp) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	if t == bsontype.DateTime {
		*ts = Timestamp(raw.Time().UTC().Format(time.RFC3339))
		return nil
	}
	*ts = Timestamp(bsonText(raw))
	return nil
}

// Time parses the timestamp. Date layouts are tried before epoch seconds.
func (ts Timestamp) Time() (time.Time, bool) {
	raw := strings.TrimSpace(string(ts))
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	if epochSeconds.MatchString(raw) {
		if secs, err := strconv.ParseFloat(raw, 64); err == nil {
			whole, frac := math.Modf(secs)
			return time.Unix(int64(whole), int64(frac*1e9)).UTC(), true
		}
	}
	return time.Time{}, false
}

// bsonText renders scalar BSON values as text; other types read as ""
func bsonText(raw bson.RawValue) string {
	switch raw.Type {
	case bsontype.String:
		return raw.StringValue()
	case bsontype.Int32:
		return strconv.FormatInt(int64(raw.Int32()), 10)
	case bsontype.Int64:
		return strconv.FormatInt(raw.Int64(), 10)
	case bsontype.Double:
		return strconv.FormatFloat(raw.Double(), 'f', -1, 64)
	case bsontype.Decimal128:
		return raw.Decimal128().String()
	default:
		return ""
	}
}

// Sale is one resale-marketplace listing tied to a product id
type Sale struct {
	ProductID   string    `json:"productId" bson:"productId"`
	Title       string    `json:"title" bson:"title"`
	Price       Amount    `json:"price" bson:"price"`
	URL         string    `json:"url" bson:"url"`
	PublishedAt Timestamp `json:"publishedAt" bson:"publishedAt"`
}

// Published parses PublishedAt
func (s Sale) Published() (time.Time, bool) {
	return s.PublishedAt.Time()
}

// SortByRecent orders sales most recently published first. Sales without a
// readable date keep their relative order at the end.
func SortByRecent(sales []Sale) {
	sort.SliceStable(sales, func(i, j int) bool {
		ti, okI := sales[i].Published()
		tj, okJ := sales[j].Published()
		if okI != okJ {
			return okI
		}
		return okI && ti.After(tj)
	})
}
