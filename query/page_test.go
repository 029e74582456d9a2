package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		page      int
		size      int
		wantPage  int
		wantItems []int
		wantPages int
		wantOff   int
	}{
		{"first page", 25, 1, 10, 1, seq(10), 3, 0},
		{"last partial page", 25, 3, 10, 3, []int{21, 22, 23, 24, 25}, 3, 20},
		{"page zero clamps to first", 25, 0, 10, 1, seq(10), 3, 0},
		{"negative clamps to first", 25, -4, 10, 1, seq(10), 3, 0},
		{"past end clamps to last", 25, 99, 10, 3, []int{21, 22, 23, 24, 25}, 3, 20},
		{"exact multiple", 20, 2, 10, 2, []int{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}, 2, 10},
		{"empty", 0, 5, 10, 1, []int{}, 1, 0},
		{"zero size treated as one", 3, 2, 0, 2, []int{2}, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(seq(tt.n), tt.page, tt.size)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantItems, p.Items)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.n, p.Total)
			assert.Equal(t, tt.wantOff, p.Offset)
		})
	}
}

func TestPaginateDoesNotAlias(t *testing.T) {
	items := seq(5)
	p := Paginate(items, 1, 5)
	p.Items[0] = 100
	assert.Equal(t, 1, items[0])
}

func TestNavigation(t *testing.T) {
	p := Paginate(seq(30), 2, 10)
	assert.True(t, p.HasPrev())
	assert.True(t, p.HasNext())

	p = Paginate(seq(30), 3, 10)
	assert.False(t, p.HasNext())

	p = Paginate([]int{}, 1, 10)
	assert.False(t, p.HasPrev())
	assert.False(t, p.HasNext())
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 0, 20))
	assert.Equal(t, 1, ClampPage(7, 0, 20))
	assert.Equal(t, 2, ClampPage(7, 21, 20))
	assert.Equal(t, 2, TotalPages(40, 20))
	assert.Equal(t, 3, TotalPages(41, 20))
}
