package models

// PageMeta describes where a snapshot sits in the full result set
type PageMeta struct {
	CurrentPage int `json:"currentPage"`
	PageCount   int `json:"pageCount"`
	TotalCount  int `json:"totalCount"`
	PageSize    int `json:"pageSize"`
}

// Snapshot is a page of deals fetched at one point in time. It is replaced
// wholesale on every fetch; holders must not modify Items.
type Snapshot struct {
	Items []Deal   `json:"items"`
	Meta  PageMeta `json:"meta"`
}

// EmptySnapshot returns a snapshot with no items for the requested window
func EmptySnapshot(page, pageSize int) Snapshot {
	return Snapshot{
		Items: []Deal{},
		Meta:  PageMeta{CurrentPage: page, PageSize: pageSize},
	}
}
