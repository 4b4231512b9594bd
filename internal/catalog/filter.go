package catalog

import (
	"sort"
	"strings"
	"time"

	"sjsage522/legodealworker/internal/models"
)

// Thresholds used by the toggleable filters
const (
	BestDiscountMin   = 50
	MostCommentedOver = 15
	HotOver           = 100
)

// Filter names accepted on the query string
const (
	FilterBestDiscount  = "best-discount"
	FilterMostCommented = "most-commented"
	FilterHot           = "hot"
	FilterFavorites     = "favorites"
)

// SortMode selects a single ordering
type SortMode string

const (
	SortNone      SortMode = ""
	SortPriceAsc  SortMode = "price-asc"
	SortPriceDesc SortMode = "price-desc"
	// SortDateAsc lists the most recently published deals first
	SortDateAsc SortMode = "date-asc"
	// SortDateDesc lists the oldest deals first
	SortDateDesc SortMode = "date-desc"
)

// ParseSortMode returns the mode for s, or SortNone when s is unknown
func ParseSortMode(s string) SortMode {
	switch mode := SortMode(strings.TrimSpace(strings.ToLower(s))); mode {
	case SortPriceAsc, SortPriceDesc, SortDateAsc, SortDateDesc:
		return mode
	default:
		return SortNone
	}
}

// Query holds the active predicates and ordering. Predicates combine with AND.
type Query struct {
	Search        string
	BestDiscount  bool
	MostCommented bool
	Hot           bool
	FavoritesOnly bool
	// MaxPrice, when set, keeps deals priced at or below it
	MaxPrice *float64
	// Since, when set, keeps deals published at or after it
	Since time.Time
	Sort  SortMode
}

// WithFilters returns a copy of q with the named filters enabled. Unknown
// names are ignored.
func (q Query) WithFilters(names ...string) Query {
	for _, name := range names {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case FilterBestDiscount:
			q.BestDiscount = true
		case FilterMostCommented:
			q.MostCommented = true
		case FilterHot:
			q.Hot = true
		case FilterFavorites:
			q.FavoritesOnly = true
		}
	}
	return q
}

// Matches reports whether deal passes every enabled predicate
func (q Query) Matches(deal models.Deal, favorites map[string]struct{}) bool {
	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		if !strings.Contains(strings.ToLower(deal.ID), term) {
			return false
		}
	}
	if q.BestDiscount && deal.DiscountOrZero() < BestDiscountMin {
		return false
	}
	if q.MostCommented && deal.CommentsCount <= MostCommentedOver {
		return false
	}
	if q.Hot && deal.Temperature <= HotOver {
		return false
	}
	if q.MaxPrice != nil && deal.Price > *q.MaxPrice {
		return false
	}
	if !q.Since.IsZero() && deal.PublishedAt.Before(q.Since) {
		return false
	}
	if q.FavoritesOnly {
		if _, ok := favorites[deal.UUID]; !ok {
			return false
		}
	}
	return true
}

// Apply returns the deals matching q in the order q selects. The input slice
// is never modified.
func Apply(deals []models.Deal, q Query, favorites []models.Deal) []models.Deal {
	favSet := make(map[string]struct{}, len(favorites))
	for _, f := range favorites {
		favSet[f.UUID] = struct{}{}
	}

	out := make([]models.Deal, 0, len(deals))
	for _, deal := range deals {
		if q.Matches(deal, favSet) {
			out = append(out, deal)
		}
	}

	if less := lessFor(q.Sort, out); less != nil {
		sort.SliceStable(out, less)
	}
	return out
}

func lessFor(mode SortMode, deals []models.Deal) func(i, j int) bool {
	switch mode {
	case SortPriceAsc:
		return func(i, j int) bool { return deals[i].Price < deals[j].Price }
	case SortPriceDesc:
		return func(i, j int) bool { return deals[i].Price > deals[j].Price }
	case SortDateAsc:
		return func(i, j int) bool { return deals[i].PublishedAt.After(deals[j].PublishedAt) }
	case SortDateDesc:
		return func(i, j int) bool { return deals[i].PublishedAt.Before(deals[j].PublishedAt) }
	default:
		return nil
	}
}
