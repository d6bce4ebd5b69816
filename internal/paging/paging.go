// Package paging implements the page-size and page-count rules shared by
// every listing in the back office.
package paging

import (
	"net/url"
	"strconv"
)

// All is the page-size sentinel meaning "one page containing every row".
const All = -1

// DefaultPageSize is used when the caller supplies no usable page size.
const DefaultPageSize = 5

// SizeChoices are the page sizes offered by the listing pages.
var SizeChoices = []int{5, 10, 20, 50, All}

// Params is a requested page.
type Params struct {
	Page     int
	PageSize int
}

// FromQuery reads "page" and "pageSize" from a query string.
func FromQuery(q url.Values) Params {
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("pageSize"))
	return Params{Page: page, PageSize: size}
}

// Normalize clamps Page to at least 1 and replaces unusable page sizes with
// DefaultPageSize. The All sentinel is kept.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 && p.PageSize != All {
		p.PageSize = DefaultPageSize
	}
	return p
}

// Limit returns the SQL LIMIT and OFFSET for the page. ok is false for the
// All sentinel, in which case no LIMIT should be applied.
func (p Params) Limit() (limit, offset uint, ok bool) {
	p = p.Normalize()
	if p.PageSize == All {
		return 0, 0, false
	}
	return uint(p.PageSize), uint((p.Page - 1) * p.PageSize), true
}

// Page is one page of a listing plus the metadata the templates need.
type Page[T any] struct {
	Items      []T
	Page       int
	PageSize   int // as requested, so the size selector keeps the sentinel
	Total      int
	TotalPages int
}

// New builds a Page from the rows of the requested page and the total number
// of matching rows.
func New[T any](items []T, p Params, total int) Page[T] {
	p = p.Normalize()
	return Page[T]{
		Items:      items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: TotalPages(total, p.PageSize),
	}
}

// TotalPages returns ceil(total/size). The All sentinel always yields one
// page, and an empty result is reported as a single empty page.
func TotalPages(total, size int) int {
	if size == All || total == 0 {
		return 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	return (total + size - 1) / size
}

// HasPrev reports whether a previous page exists.
func (pg Page[T]) HasPrev() bool { return pg.Page > 1 }

// HasNext reports whether a following page exists.
func (pg Page[T]) HasNext() bool { return pg.Page < pg.TotalPages }

// Pages lists the page numbers for the pager.
func (pg Page[T]) Pages() []int {
	out := make([]int, pg.TotalPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Slice pages an in-memory slice with the same rules as the SQL listings.
func Slice[T any](all []T, p Params) Page[T] {
	p = p.Normalize()
	limit, offset, ok := p.Limit()
	items := all
	if ok {
		start := min(int(offset), len(all))
		end := min(start+int(limit), len(all))
		items = all[start:end]
	}
	return New(items, p, len(all))
}
