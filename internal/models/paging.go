package models

// Paging bounds accepted from callers.
const (
	MinLimit     = 1
	MaxLimit     = 1000
	DefaultLimit = 1000
	MaxOffset    = 99999
)

// SortRule orders by a storage column.
type SortRule struct {
	Column string
	Desc   bool
}

type Page struct {
	Limit  int
	Offset int
	Sort   []SortRule
}

// DefaultPage returns the first page, ordered by id ascending.
func DefaultPage() Page {
	return Page{Limit: DefaultLimit, Sort: []SortRule{{Column: "id"}}}
}

// All is a page without a practical limit, for internal fan-outs.
func All() Page {
	return Page{Limit: 0, Sort: []SortRule{{Column: "id"}}}
}

type PagedData[T any] struct {
	Items      []T   `json:"items"`
	PrevOffset *int  `json:"prev_offset"`
	NextOffset *int  `json:"next_offset"`
	TotalCount int64 `json:"total_count"`
}

// NewPagedData computes the neighbouring offsets of page given total matches.
func NewPagedData[T any](items []T, page Page, total int64) PagedData[T] {
	if items == nil {
		items = []T{}
	}
	out := PagedData[T]{Items: items, TotalCount: total}
	if len(items) == 0 {
		return out
	}
	if page.Offset > 0 {
		prev := max(page.Offset-page.Limit, 0)
		out.PrevOffset = &prev
	}
	if next := page.Offset + len(items); int64(next) < total {
		out.NextOffset = &next
	}
	return out
}
