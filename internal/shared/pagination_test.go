package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		perPage    int
		total      int
		wantPage   int
		wantPages  int
		wantOffset int
	}{
		{name: "first page", page: 1, perPage: 10, total: 35, wantPage: 1, wantPages: 4, wantOffset: 0},
		{name: "middle page", page: 2, perPage: 10, total: 35, wantPage: 2, wantPages: 4, wantOffset: 10},
		{name: "zero page coerced", page: 0, perPage: 10, total: 35, wantPage: 1, wantPages: 4, wantOffset: 0},
		{name: "empty result still one page", page: 1, perPage: 10, total: 0, wantPage: 1, wantPages: 1, wantOffset: 0},
		{name: "default per page", page: 3, perPage: 0, total: 25, wantPage: 3, wantPages: 3, wantOffset: 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.perPage, tt.total)
			assert.Equal(t, tt.wantPage, p.CurrentPage)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.total, p.TotalItems)
			assert.Equal(t, tt.wantOffset, p.Offset())
		})
	}
}

func TestPaginationControls(t *testing.T) {
	first := NewPagination(1, 10, 30)
	assert.False(t, first.HasPrev())
	assert.True(t, first.HasNext())

	last := NewPagination(3, 10, 30)
	assert.True(t, last.HasPrev())
	assert.False(t, last.HasNext())

	only := NewPagination(1, 10, 5)
	assert.False(t, only.HasPrev())
	assert.False(t, only.HasNext())
}
