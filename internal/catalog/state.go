package catalog

import "sjsage522/legodealworker/internal/models"

// State is the single owned view state of the catalog: the loaded snapshot,
// the active query and the requested window. Commands return a new State and
// never modify the receiver's slices.
type State struct {
	Snapshot  models.Snapshot
	Favorites []models.Deal
	Query     Query
	Page      int
	PageSize  int
}

// NewState returns an empty state showing the first page
func NewState(pageSize int) State {
	if pageSize < 1 {
		pageSize = 1
	}
	return State{
		Snapshot: models.EmptySnapshot(1, pageSize),
		Page:     1,
		PageSize: pageSize,
	}
}

// OnSnapshotLoaded replaces the snapshot wholesale
func OnSnapshotLoaded(s State, snapshot models.Snapshot) State {
	items := make([]models.Deal, len(snapshot.Items))
	copy(items, snapshot.Items)
	snapshot.Items = items
	s.Snapshot = snapshot
	return s
}

// OnFavoritesLoaded replaces the favorites set wholesale
func OnFavoritesLoaded(s State, favorites []models.Deal) State {
	fav := make([]models.Deal, len(favorites))
	copy(fav, favorites)
	s.Favorites = fav
	return s
}

// OnFilterChanged installs new predicates and returns to the first page.
// The ordering is owned by OnSortChanged and carried over.
func OnFilterChanged(s State, q Query) State {
	q.Sort = s.Query.Sort
	s.Query = q
	s.Page = 1
	return s
}

// OnSortChanged switches the ordering and keeps the current page
func OnSortChanged(s State, mode SortMode) State {
	s.Query.Sort = mode
	return s
}

// OnPageChanged moves to page. The page is not clamped here; View returns an
// empty window for a page out of range.
func OnPageChanged(s State, page int) State {
	s.Page = page
	return s
}

// OnPageSizeChanged changes the window size and returns to the first page
func OnPageSizeChanged(s State, pageSize int) State {
	if pageSize < 1 {
		return s
	}
	s.PageSize = pageSize
	s.Page = 1
	return s
}

// View projects the state into the snapshot to render
func (s State) View() models.Snapshot {
	return View(s.Snapshot.Items, s.Query, s.Favorites, s.Page, s.PageSize)
}
