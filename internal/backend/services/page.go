package services

import (
	"strconv"

	"easybake/internal/domain"
)

// Paging is a normalized page request.
type Paging struct {
	Page    int
	PerPage int
}

func NewPaging(page, perPage, def, max int) Paging {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = def
	}
	if perPage > max {
		perPage = max
	}
	return Paging{Page: page, PerPage: perPage}
}

func (p Paging) Offset() int { return (p.Page - 1) * p.PerPage }

// paginate wraps one page of results in the list envelope. path is the
// listing's own path, used for the links.
func paginate[T any](items []T, total int, p Paging, path string) domain.Page[T] {
	if items == nil {
		items = []T{}
	}
	last := (total + p.PerPage - 1) / p.PerPage
	if last < 1 {
		last = 1
	}
	link := func(n int) string { return path + "?page=" + strconv.Itoa(n) }
	out := domain.Page[T]{
		Success: true,
		Data:    items,
		Meta:    domain.PageMeta{CurrentPage: p.Page, LastPage: last, PerPage: p.PerPage, Total: total},
		Links:   domain.PageLinks{First: link(1), Last: link(last)},
	}
	if p.Page > 1 {
		out.Links.Prev = link(p.Page - 1)
	}
	if p.Page < last {
		out.Links.Next = link(p.Page + 1)
	}
	return out
}
