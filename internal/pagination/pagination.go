// Package pagination parses skip/limit query parameters for catalog and
// admin listings and derives the prev/next links a page renders.
package pagination

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const (
	// DefaultLimit defines the fallback page size when the client omits limit.
	DefaultLimit = 20
	// MaxLimit caps the supported page size to prevent unbounded queries.
	MaxLimit = 100
)

// Params holds the parsed window into a listing.
type Params struct {
	Skip  int
	Limit int
}

// FromRequest parses skip and limit from the query string. Missing or
// malformed values fall back to defaults; out-of-range values are clamped.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	p := Params{Limit: DefaultLimit}
	if v, err := strconv.Atoi(q.Get("skip")); err == nil && v > 0 {
		p.Skip = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = v
		if p.Limit > MaxLimit {
			p.Limit = MaxLimit
		}
	}
	return p
}

// Page describes the navigation state for a rendered listing page.
type Page struct {
	Params   Params
	PrevURL  string
	NextURL  string
	HasPrev  bool
	HasNext  bool
	PageSize int
}

// PageFor derives prev/next navigation from the number of items the current
// window returned. A full window means another page may exist; total counts
// are never fetched.
func (p Params) PageFor(path string, returned int) Page {
	page := Page{Params: p, PageSize: p.Limit}
	if p.Skip > 0 {
		page.HasPrev = true
		prev := p.Skip - p.Limit
		if prev < 0 {
			prev = 0
		}
		page.PrevURL = pageURL(path, prev, p.Limit)
	}
	if returned == p.Limit {
		page.HasNext = true
		page.NextURL = pageURL(path, p.Skip+p.Limit, p.Limit)
	}
	return page
}

func pageURL(path string, skip, limit int) string {
	v := url.Values{}
	if skip > 0 {
		v.Set("skip", strconv.Itoa(skip))
	}
	v.Set("limit", strconv.Itoa(limit))
	return fmt.Sprintf("%s?%s", path, v.Encode())
}
