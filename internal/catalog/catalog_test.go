package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/legodealworker/internal/models"
)

func intPtr(v int) *int { return &v }

func deal(id string, price float64) models.Deal {
	return models.Deal{ID: id, UUID: "uuid-" + id, Title: "Set " + id, Price: price}
}

func ids(deals []models.Deal) []string {
	out := make([]string, 0, len(deals))
	for _, d := range deals {
		out = append(out, d.ID)
	}
	return out
}

func TestApplyStableSort(t *testing.T) {
	a := models.Deal{ID: "a", UUID: "ua", Price: 5}
	b := models.Deal{ID: "b", UUID: "ub", Price: 5}

	out := Apply([]models.Deal{a, b}, Query{Sort: SortPriceAsc}, nil)
	assert.Equal(t, []string{"a", "b"}, ids(out))

	out = Apply([]models.Deal{a, b}, Query{Sort: SortPriceDesc}, nil)
	assert.Equal(t, []string{"a", "b"}, ids(out))
}

func TestApplySortModes(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	deals := []models.Deal{
		{ID: "10001", Price: 30, PublishedAt: base.Add(48 * time.Hour)},
		{ID: "10002", Price: 10, PublishedAt: base},
		{ID: "10003", Price: 20, PublishedAt: base.Add(24 * time.Hour)},
	}

	assert.Equal(t, []string{"10001", "10002", "10003"}, ids(Apply(deals, Query{}, nil)))
	assert.Equal(t, []string{"10002", "10003", "10001"}, ids(Apply(deals, Query{Sort: SortPriceAsc}, nil)))
	assert.Equal(t, []string{"10001", "10003", "10002"}, ids(Apply(deals, Query{Sort: SortPriceDesc}, nil)))
	assert.Equal(t, []string{"10001", "10003", "10002"}, ids(Apply(deals, Query{Sort: SortDateAsc}, nil)))
	assert.Equal(t, []string{"10002", "10003", "10001"}, ids(Apply(deals, Query{Sort: SortDateDesc}, nil)))

	// input untouched
	assert.Equal(t, "10001", deals[0].ID)
}

func TestApplyFiltersAreConjunctive(t *testing.T) {
	d1 := deal("75367", 100)
	d1.Discount = intPtr(60)
	d2 := deal("42115", 100)
	d2.Discount = intPtr(70)
	d3 := deal("10497", 100)
	d3.Discount = intPtr(10)

	favorites := []models.Deal{d1, d3}
	deals := []models.Deal{d1, d2, d3}

	assert.Equal(t, []string{"75367", "42115"}, ids(Apply(deals, Query{BestDiscount: true}, favorites)))
	assert.Equal(t, []string{"75367", "10497"}, ids(Apply(deals, Query{FavoritesOnly: true}, favorites)))
	assert.Equal(t, []string{"75367"}, ids(Apply(deals, Query{BestDiscount: true, FavoritesOnly: true}, favorites)))
}

func TestApplyThresholds(t *testing.T) {
	atLimit := deal("11111", 1)
	atLimit.Discount = intPtr(50)
	atLimit.CommentsCount = 15
	atLimit.Temperature = 100

	above := deal("22222", 1)
	above.Discount = intPtr(49)
	above.CommentsCount = 16
	above.Temperature = 101

	noDiscount := deal("33333", 1)

	deals := []models.Deal{atLimit, above, noDiscount}
	assert.Equal(t, []string{"11111"}, ids(Apply(deals, Query{BestDiscount: true}, nil)))
	assert.Equal(t, []string{"22222"}, ids(Apply(deals, Query{MostCommented: true}, nil)))
	assert.Equal(t, []string{"22222"}, ids(Apply(deals, Query{Hot: true}, nil)))
}

func TestApplySearch(t *testing.T) {
	deals := []models.Deal{deal("75367", 1), deal("75192", 1), deal("42115", 1)}

	assert.Equal(t, []string{"75367", "75192"}, ids(Apply(deals, Query{Search: " 75 "}, nil)))
	assert.Equal(t, []string{"42115"}, ids(Apply(deals, Query{Search: "2115"}, nil)))
	assert.Len(t, Apply(deals, Query{Search: "   "}, nil), 3)
	assert.Empty(t, Apply(deals, Query{Search: "99999"}, nil))
}

func TestApplyPriceAndDateBounds(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	deals := []models.Deal{
		{ID: "10001", Price: 30, PublishedAt: base},
		{ID: "10002", Price: 50, PublishedAt: base.Add(48 * time.Hour)},
		{ID: "10003", Price: 80, PublishedAt: base.Add(72 * time.Hour)},
		{ID: "10004", Price: 20, PublishedAt: base.Add(96 * time.Hour), CommentsCount: 40},
	}
	maxPrice := 50.0

	assert.Equal(t, []string{"10001", "10002", "10004"}, ids(Apply(deals, Query{MaxPrice: &maxPrice}, nil)))
	assert.Equal(t, []string{"10002", "10003", "10004"}, ids(Apply(deals, Query{Since: base.Add(48 * time.Hour)}, nil)))
	assert.Equal(t, []string{"10002", "10004"}, ids(Apply(deals, Query{MaxPrice: &maxPrice, Since: base.Add(24 * time.Hour)}, nil)))

	q := Query{MaxPrice: &maxPrice, Since: base.Add(24 * time.Hour)}.WithFilters(FilterMostCommented)
	assert.Equal(t, []string{"10004"}, ids(Apply(deals, q, nil)))
}

func TestQueryWithFilters(t *testing.T) {
	q := Query{}.WithFilters("best-discount", " HOT ", "unknown", "favorites")
	assert.True(t, q.BestDiscount)
	assert.True(t, q.Hot)
	assert.True(t, q.FavoritesOnly)
	assert.False(t, q.MostCommented)
}

func TestParseSortMode(t *testing.T) {
	assert.Equal(t, SortPriceAsc, ParseSortMode("price-asc"))
	assert.Equal(t, SortDateAsc, ParseSortMode("DATE-ASC"))
	assert.Equal(t, SortNone, ParseSortMode("random"))
	assert.Equal(t, SortNone, ParseSortMode(""))
}

func thirteenDeals() []models.Deal {
	deals := make([]models.Deal, 13)
	for i := range deals {
		deals[i] = deal(fmt.Sprintf("%05d", 10000+i), float64(i))
	}
	return deals
}

func TestPaginationBoundary(t *testing.T) {
	deals := thirteenDeals()

	assert.Equal(t, 3, PageCount(13, 6))
	assert.Len(t, Paginate(deals, 1, 6), 6)
	assert.Len(t, Paginate(deals, 2, 6), 6)
	last := Paginate(deals, 3, 6)
	require.Len(t, last, 1)
	assert.Equal(t, "10012", last[0].ID)

	assert.Empty(t, Paginate(deals, 4, 6))
	assert.Empty(t, Paginate(deals, 0, 6))
	assert.Empty(t, Paginate(deals, 1, 0))
	assert.Equal(t, 0, PageCount(0, 6))
	assert.Equal(t, 0, PageCount(13, 0))
}

func TestPaginationHugeIndices(t *testing.T) {
	deals := thirteenDeals()[:3]

	assert.NotPanics(t, func() {
		assert.Empty(t, Paginate(deals, 1<<62, 4))
		assert.Empty(t, Paginate(deals, math.MaxInt, math.MaxInt))
	})
	assert.Len(t, Paginate(deals, 1, math.MaxInt), 3)
	assert.Equal(t, 1, PageCount(13, math.MaxInt))
	assert.Equal(t, math.MaxInt, PageCount(math.MaxInt, 1))

	loader := NewLoader(&mockSource{deals: deals}, nil)
	snap := loader.Search(context.Background(), Query{}, 1<<62, 4)
	assert.Empty(t, snap.Items)
	assert.Equal(t, 1, snap.Meta.PageCount)
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 3))
	assert.Equal(t, 2, ClampPage(2, 3))
	assert.Equal(t, 3, ClampPage(9, 3))
	assert.Equal(t, 1, ClampPage(5, 0))
}

func TestStateCommands(t *testing.T) {
	deals := thirteenDeals()
	deals[12].Discount = intPtr(80)
	deals[3].Discount = intPtr(55)

	s := NewState(6)
	s = OnSnapshotLoaded(s, models.Snapshot{Items: deals})
	s = OnPageChanged(s, 3)

	view := s.View()
	assert.Equal(t, 3, view.Meta.CurrentPage)
	assert.Equal(t, 3, view.Meta.PageCount)
	assert.Equal(t, 13, view.Meta.TotalCount)
	assert.Len(t, view.Items, 1)

	s = OnSortChanged(s, SortPriceDesc)
	assert.Equal(t, 3, s.Page)

	filtered := OnFilterChanged(s, Query{BestDiscount: true})
	assert.Equal(t, 1, filtered.Page)
	assert.Equal(t, SortPriceDesc, filtered.Query.Sort)
	assert.Equal(t, []string{"10012", "10003"}, ids(filtered.View().Items))

	// the previous state is unchanged
	assert.Equal(t, 3, s.Page)
	assert.False(t, s.Query.BestDiscount)

	resized := OnPageSizeChanged(OnPageChanged(s, 2), 4)
	assert.Equal(t, 1, resized.Page)
	assert.Equal(t, 4, resized.View().Meta.PageCount)
	assert.Equal(t, resized, OnPageSizeChanged(resized, 0))

	beyond := OnPageChanged(s, 9).View()
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 3, beyond.Meta.PageCount)
}

func TestOnSnapshotLoadedCopies(t *testing.T) {
	items := []models.Deal{deal("75367", 1)}
	s := OnSnapshotLoaded(NewState(6), models.Snapshot{Items: items})
	items[0].ID = "00000"
	assert.Equal(t, "75367", s.Snapshot.Items[0].ID)
}

func TestFavoritesOnlyFollowsFavorites(t *testing.T) {
	d := deal("75367", 1)
	s := OnFavoritesLoaded(OnSnapshotLoaded(NewState(6), models.Snapshot{Items: []models.Deal{d}}), []models.Deal{d})
	s = OnFilterChanged(s, Query{FavoritesOnly: true})
	assert.Len(t, s.View().Items, 1)

	s = OnFavoritesLoaded(s, nil)
	assert.Empty(t, s.View().Items)
}

type mockSource struct {
	deals []models.Deal
	err   error
}

func (m *mockSource) FindDeals(ctx context.Context, page, pageSize int) (models.Snapshot, error) {
	if m.err != nil {
		return models.Snapshot{}, m.err
	}
	return models.Snapshot{
		Items: Paginate(m.deals, page, pageSize),
		Meta: models.PageMeta{
			CurrentPage: page,
			PageCount:   PageCount(len(m.deals), pageSize),
			TotalCount:  len(m.deals),
			PageSize:    pageSize,
		},
	}, nil
}

func (m *mockSource) AllDeals(ctx context.Context) ([]models.Deal, error) {
	return m.deals, m.err
}

func (m *mockSource) FindDealByID(ctx context.Context, id string) (*models.Deal, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, d := range m.deals {
		if d.ID == id {
			found := d
			return &found, nil
		}
	}
	return nil, nil
}

type mockFavorites struct {
	deals []models.Deal
	err   error
}

func (m *mockFavorites) List(ctx context.Context) ([]models.Deal, error) {
	return m.deals, m.err
}

func TestLoaderPage(t *testing.T) {
	loader := NewLoader(&mockSource{deals: thirteenDeals()}, nil)

	snap := loader.Page(context.Background(), 3, 6)
	assert.Len(t, snap.Items, 1)
	assert.Equal(t, 3, snap.Meta.PageCount)

	snap = loader.Page(context.Background(), 0, 6)
	assert.Empty(t, snap.Items)
	assert.NotNil(t, snap.Items)
}

func TestLoaderDegradesFaults(t *testing.T) {
	loader := NewLoader(&mockSource{err: errors.New("connection refused")}, &mockFavorites{err: errors.New("down")})
	ctx := context.Background()

	snap := loader.Page(ctx, 1, 6)
	assert.Empty(t, snap.Items)
	assert.Equal(t, 1, snap.Meta.CurrentPage)
	assert.Equal(t, 6, snap.Meta.PageSize)

	assert.Empty(t, loader.Search(ctx, Query{}, 1, 6).Items)
	assert.Empty(t, loader.Favorites(ctx))

	_, ok := loader.Deal(ctx, "75367")
	assert.False(t, ok)
}

func TestLoaderSearch(t *testing.T) {
	deals := thirteenDeals()
	loader := NewLoader(&mockSource{deals: deals}, &mockFavorites{deals: []models.Deal{deals[2], deals[7]}})

	snap := loader.Search(context.Background(), Query{FavoritesOnly: true, Sort: SortPriceDesc}, 1, 6)
	assert.Equal(t, []string{"10007", "10002"}, ids(snap.Items))
	assert.Equal(t, 2, snap.Meta.TotalCount)
	assert.Equal(t, 1, snap.Meta.PageCount)
}

func TestLoaderDeal(t *testing.T) {
	loader := NewLoader(&mockSource{deals: thirteenDeals()}, nil)

	d, ok := loader.Deal(context.Background(), "10004")
	require.True(t, ok)
	assert.Equal(t, 4.0, d.Price)

	_, ok = loader.Deal(context.Background(), "75367")
	assert.False(t, ok)
}
