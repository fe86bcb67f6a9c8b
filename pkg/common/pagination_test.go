package common

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPaginationParams_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/invoices", nil)

	params := ExtractPaginationParams(r)

	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 20, params.PageSize)
	assert.Equal(t, "desc", params.Order)
}

func TestExtractPaginationParams_FromQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/invoices?page=3&page_size=50&order=asc", nil)

	params := ExtractPaginationParams(r)

	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 50, params.PageSize)
	assert.Equal(t, "asc", params.Order)
}

func TestExtractPaginationParams_InvalidValuesIgnored(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/invoices?page=-1&page_size=abc&order=sideways", nil)

	params := ExtractPaginationParams(r)

	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 20, params.PageSize)
	assert.Equal(t, "desc", params.Order)
}

func TestExtractPaginationParams_PageSizeCapped(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/invoices?page_size=5000", nil)

	params := ExtractPaginationParams(r)

	assert.Equal(t, 100, params.PageSize)
}

func TestCalculateOffset(t *testing.T) {
	params := PaginationParams{Page: 3, PageSize: 25}

	assert.Equal(t, 50, params.CalculateOffset())
}

func TestCalculateTotalPages(t *testing.T) {
	assert.Equal(t, 0, CalculateTotalPages(100, 0))
	assert.Equal(t, 4, CalculateTotalPages(100, 25))
	assert.Equal(t, 5, CalculateTotalPages(101, 25))
	assert.Equal(t, 0, CalculateTotalPages(0, 25))
}

func TestBuildPaginationMeta(t *testing.T) {
	meta := BuildPaginationMeta(2, 20, 45)

	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 20, meta.PageSize)
	assert.Equal(t, 45, meta.Total)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)
}

func TestBuildPaginationMeta_LastPage(t *testing.T) {
	meta := BuildPaginationMeta(3, 20, 45)

	assert.False(t, meta.HasNext)
	assert.True(t, meta.HasPrev)
}
