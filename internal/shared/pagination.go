package shared

import (
	"math"
	"net/http"
	"strconv"
)

// Pagination defaults for list endpoints.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a requested window of a listing.
type Page struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip. It saturates instead of
// overflowing for very large pages.
func (p Page) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt / p.Limit * p.Limit
	}
	return (p.Page - 1) * p.Limit
}

// ParsePage reads page and limit query parameters. Missing or malformed
// values fall back to the defaults, limit is capped at MaxLimit and page is
// clamped so its offset fits in an int.
func ParsePage(r *http.Request) Page {
	q := r.URL.Query()
	p := Page{Page: DefaultPage, Limit: DefaultLimit}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = min(v, MaxLimit)
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = min(v, math.MaxInt/p.Limit)
	}
	return p
}

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page Page, total int) Pagination {
	if page.Limit <= 0 {
		page.Limit = DefaultLimit
	}
	if page.Page <= 0 {
		page.Page = DefaultPage
	}
	totalPages := int(math.Ceil(float64(total) / float64(page.Limit)))
	return Pagination{Page: page.Page, Limit: page.Limit, Total: total, TotalPages: totalPages}
}
