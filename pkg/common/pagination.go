package common

import (
	"net/http"
	"strconv"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginationParams are the paging knobs accepted by list endpoints
type PaginationParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Order    string `json:"order,omitempty"`
}

// DefaultPaginationParams returns the paging defaults for list endpoints
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{Page: defaultPage, PageSize: defaultPageSize, Order: "desc"}
}

// ExtractPaginationParams reads page, page_size and order from the query
// string. Unparseable or out-of-range values fall back to the defaults
// and the page size is capped.
func ExtractPaginationParams(r *http.Request) PaginationParams {
	params := DefaultPaginationParams()
	query := r.URL.Query()

	if p, err := strconv.Atoi(query.Get("page")); err == nil && p > 0 {
		params.Page = p
	}
	if ps, err := strconv.Atoi(query.Get("page_size")); err == nil && ps > 0 {
		if ps > maxPageSize {
			ps = maxPageSize
		}
		params.PageSize = ps
	}
	switch query.Get("order") {
	case "asc", "desc":
		params.Order = query.Get("order")
	}

	return params
}

// CalculateOffset converts the page number into a row offset
func (p PaginationParams) CalculateOffset() int {
	return (p.Page - 1) * p.PageSize
}

// CalculateTotalPages returns the page count for a total item count
func CalculateTotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := total / pageSize
	if total%pageSize > 0 {
		pages++
	}
	return pages
}

// BuildPaginationMeta assembles the pagination block of a list response
func BuildPaginationMeta(page, pageSize, total int) *PaginationInfo {
	totalPages := CalculateTotalPages(total, pageSize)
	return &PaginationInfo{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
