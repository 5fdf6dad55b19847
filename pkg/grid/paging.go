package grid

// DefaultPageSize is used when a controller is configured without a page size.
const DefaultPageSize = 10

// Pagination holds a page size and the zero-based current page.
//
// The current page is kept valid for a known total by Clamp: whenever
// total > 0, currentPage*pageSize < total; when total == 0 the page is 0.
type Pagination struct {
	pageSize    int
	currentPage int
}

// Window is one page of a sequence together with the sequence length.
type Window[R any] struct {
	Rows  []R
	Total int
}

// NewPagination creates a Pagination on page 0.
func NewPagination(pageSize int) (Pagination, error) {
	if pageSize <= 0 {
		return Pagination{}, ErrInvalidPageSize
	}
	return Pagination{pageSize: pageSize}, nil
}

// PageSize returns the number of rows per page.
func (p Pagination) PageSize() int { return p.pageSize }

// CurrentPage returns the zero-based current page.
func (p Pagination) CurrentPage() int { return p.currentPage }

// SetPageSize changes the page size and returns to the first page.
// A non-positive size is rejected and leaves the state unchanged.
func (p *Pagination) SetPageSize(n int) error {
	if n <= 0 {
		return ErrInvalidPageSize
	}
	p.pageSize = n
	p.currentPage = 0
	return nil
}

// PageCount returns the number of pages needed for total rows.
func (p Pagination) PageCount(total int) int {
	if total <= 0 || p.pageSize <= 0 {
		return 0
	}
	return (total + p.pageSize - 1) / p.pageSize
}

// SetPage moves to page, clamped into the valid range for total, and
// returns the resulting page.
func (p *Pagination) SetPage(page, total int) int {
	p.currentPage = page
	p.Clamp(total)
	return p.currentPage
}

// Clamp pulls the current page back into range after total changed.
func (p *Pagination) Clamp(total int) {
	last := p.PageCount(total) - 1
	if p.currentPage > last {
		p.currentPage = last
	}
	if p.currentPage < 0 {
		p.currentPage = 0
	}
}

// Derive returns the current page of seq. It does not clamp: a page beyond
// the end of seq yields no rows.
func Derive[R any](p Pagination, seq []R) Window[R] {
	total := len(seq)
	start := p.currentPage * p.pageSize
	if p.pageSize <= 0 || start < 0 || start >= total {
		return Window[R]{Rows: []R{}, Total: total}
	}
	end := min(start+p.pageSize, total)
	rows := make([]R, end-start)
	copy(rows, seq[start:end])
	return Window[R]{Rows: rows, Total: total}
}
