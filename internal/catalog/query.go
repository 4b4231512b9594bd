package catalog

import (
	"context"

	"sjsage522/legodealworker/internal/models"
	"sjsage522/legodealworker/logger"
)

// Source is the document store as seen by the query path
type Source interface {
	FindDeals(ctx context.Context, page, pageSize int) (models.Snapshot, error)
	AllDeals(ctx context.Context) ([]models.Deal, error)
	// FindDealByID returns nil without error when no deal has id
	FindDealByID(ctx context.Context, id string) (*models.Deal, error)
}

// FavoritesSource lists the persisted favorites
type FavoritesSource interface {
	List(ctx context.Context) ([]models.Deal, error)
}

// Loader answers catalog queries. Storage faults are logged and degrade to
// empty results, never to errors.
type Loader struct {
	source    Source
	favorites FavoritesSource
	log       *logger.Logger
}

// NewLoader creates a loader; favorites may be nil
func NewLoader(source Source, favorites FavoritesSource) *Loader {
	return &Loader{
		source:    source,
		favorites: favorites,
		log:       logger.ForComponent("catalog"),
	}
}

// Page returns one store-level page of deals
func (l *Loader) Page(ctx context.Context, page, pageSize int) models.Snapshot {
	if page < 1 || pageSize < 1 {
		return models.EmptySnapshot(page, pageSize)
	}
	snapshot, err := l.source.FindDeals(ctx, page, pageSize)
	if err != nil {
		l.log.Error().Err(err).Int("page", page).Int("pageSize", pageSize).Msg("Failed to load deals")
		return models.EmptySnapshot(page, pageSize)
	}
	if snapshot.Items == nil {
		snapshot.Items = []models.Deal{}
	}
	return snapshot
}

// Search runs the filter/sort engine over the whole deals collection and
// returns the requested window
func (l *Loader) Search(ctx context.Context, q Query, page, pageSize int) models.Snapshot {
	if page < 1 || pageSize < 1 {
		return models.EmptySnapshot(page, pageSize)
	}
	deals, err := l.source.AllDeals(ctx)
	if err != nil {
		l.log.Error().Err(err).Msg("Failed to load deals for search")
		return models.EmptySnapshot(page, pageSize)
	}

	state := NewState(pageSize)
	state = OnSnapshotLoaded(state, models.Snapshot{Items: deals})
	state = OnFavoritesLoaded(state, l.Favorites(ctx))
	state = OnFilterChanged(state, q)
	state = OnSortChanged(state, q.Sort)
	state = OnPageChanged(state, page)
	return state.View()
}

// Deal returns the deal with the given set id
func (l *Loader) Deal(ctx context.Context, id string) (models.Deal, bool) {
	deal, err := l.source.FindDealByID(ctx, id)
	if err != nil {
		l.log.Error().Err(err).Str("id", id).Msg("Failed to load deal")
		return models.Deal{}, false
	}
	if deal == nil {
		return models.Deal{}, false
	}
	return *deal, true
}

// Favorites lists the favorites, or none when they cannot be read
func (l *Loader) Favorites(ctx context.Context) []models.Deal {
	if l.favorites == nil {
		return []models.Deal{}
	}
	favs, err := l.favorites.List(ctx)
	if err != nil {
		l.log.Warn().Err(err).Msg("Failed to load favorites")
		return []models.Deal{}
	}
	return favs
}
