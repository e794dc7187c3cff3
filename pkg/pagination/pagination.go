// Package pagination slices in-memory listings into pages addressed by
// "limit" and "offset" query parameters.
package pagination

import (
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

type Params struct {
	Limit  int
	Offset int
}

// FromContext reads limit and offset, clamping them to sane values.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}
	return Params{Limit: limit, Offset: offset}
}

// Page is one window of a listing plus the links around it. Next and Prev
// are empty when there is no such page.
type Page[T any] struct {
	Items []T
	Total int
	Next  string
	Prev  string
}

// Slice cuts items down to the window p describes. basePath is used to build
// the neighbouring page links.
func Slice[T any](items []T, p Params, basePath string) Page[T] {
	total := len(items)
	start := min(p.Offset, total)
	end := min(start+p.Limit, total)

	page := Page[T]{Items: items[start:end], Total: total}
	if end < total {
		page.Next = link(basePath, end, p.Limit)
	}
	switch {
	case p.Offset >= total && total > 0:
		// Past the end: point back at the last page that has items.
		page.Prev = link(basePath, (total-1)/p.Limit*p.Limit, p.Limit)
	case start > 0:
		page.Prev = link(basePath, max(start-p.Limit, 0), p.Limit)
	}
	return page
}

func link(basePath string, offset, limit int) string {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	return basePath + "?" + q.Encode()
}
