package catalog

import "sjsage522/legodealworker/internal/models"

// PageCount returns ceil(total/pageSize), or 0 for a non-positive page size
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	count := total / pageSize
	if total%pageSize != 0 {
		count++
	}
	return count
}

// Paginate returns the window [(page-1)*pageSize, page*pageSize) of deals.
// A page outside [1, PageCount] yields an empty window; callers that want
// clamping use ClampPage first.
func Paginate(deals []models.Deal, page, pageSize int) []models.Deal {
	if page < 1 || pageSize < 1 {
		return []models.Deal{}
	}
	// compare page numbers, not offsets, so huge inputs cannot overflow
	if page > PageCount(len(deals), pageSize) {
		return []models.Deal{}
	}
	start := (page - 1) * pageSize
	end := len(deals)
	if len(deals)-start > pageSize {
		end = start + pageSize
	}
	window := make([]models.Deal, end-start)
	copy(window, deals[start:end])
	return window
}

// ClampPage moves page into [1, pageCount]. With no pages it returns 1.
func ClampPage(page, pageCount int) int {
	if pageCount < 1 || page < 1 {
		return 1
	}
	if page > pageCount {
		return pageCount
	}
	return page
}

// View filters, sorts and paginates deals into a new snapshot
func View(deals []models.Deal, q Query, favorites []models.Deal, page, pageSize int) models.Snapshot {
	matched := Apply(deals, q, favorites)
	return models.Snapshot{
		Items: Paginate(matched, page, pageSize),
		Meta: models.PageMeta{
			CurrentPage: page,
			PageCount:   PageCount(len(matched), pageSize),
			TotalCount:  len(matched),
			PageSize:    pageSize,
		},
	}
}
