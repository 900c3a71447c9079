package shared

import "math"

// DefaultPageSize is the number of records per list page.
const DefaultPageSize = 10

// Pagination contains metadata for paginated listings.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
	PerPage     int `json:"-"`
}

// NewPagination computes pagination metadata for a one-based page number.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages < 1 {
		totalPages = 1
	}
	return Pagination{CurrentPage: page, PerPage: perPage, TotalItems: total, TotalPages: totalPages}
}

// Offset returns the record offset for the current page.
func (p Pagination) Offset() int {
	return (p.CurrentPage - 1) * p.PerPage
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool {
	return p.CurrentPage > 1
}

// HasNext reports whether a further page exists.
func (p Pagination) HasNext() bool {
	return p.CurrentPage < p.TotalPages
}
