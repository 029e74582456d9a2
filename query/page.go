// Package query implements the 1-based, clamped pagination shared by the
// leaderboard and the transaction log views.
package query

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
	// Offset is the zero-based index of Items[0] in the full result set.
	Offset int `json:"offset"`
}

// HasNext reports whether a later page exists.
func (p *Page[T]) HasNext() bool { return p.Page < p.TotalPages }

// HasPrev reports whether an earlier page exists.
func (p *Page[T]) HasPrev() bool { return p.Page > 1 }

// TotalPages returns ceil(total/size), never less than 1.
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// ClampPage forces page into [1, TotalPages(total, size)].
func ClampPage(page, total, size int) int {
	if page < 1 {
		return 1
	}
	if last := TotalPages(total, size); page > last {
		return last
	}
	return page
}

// Paginate returns the requested page of items. Out-of-range pages are
// clamped rather than rejected; an empty input yields an empty first page.
// A non-positive size is treated as 1.
func Paginate[T any](items []T, page, size int) *Page[T] {
	if size <= 0 {
		size = 1
	}
	total := len(items)
	page = ClampPage(page, total, size)

	start := (page - 1) * size
	end := min(start+size, total)

	out := make([]T, 0, end-start)
	out = append(out, items[start:end]...)

	return &Page[T]{
		Items:      out,
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: TotalPages(total, size),
		Offset:     start,
	}
}
