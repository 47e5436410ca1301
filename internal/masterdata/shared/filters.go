// Package shared holds listing helpers common to masterdata entities.
package shared

// ListFilters captures pagination, search and ordering for list endpoints.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string
}

// Offset returns the row offset implied by the filters.
func (f ListFilters) Offset() int {
	off := (f.Page - 1) * f.Limit
	if off < 0 {
		return 0
	}
	return off
}
