// Package handlers carries the shared view models the page templates render.
package handlers

import (
	"gostore.dev/web/internal/middleware"
	"gostore.dev/web/internal/nav"
	"gostore.dev/web/internal/seo"
)

// PageData is the generic view model for pages using the shared layout.
type PageData struct {
	Title     string
	SiteName  string
	SEO       seo.Meta
	Analytics Analytics

	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb
	User        *middleware.User
	CartCount   int
	CSRFToken   string

	// Flash carries a one-line notice rendered above the page body.
	Flash string

	// Per-page view model payload
	View any
}

// SignedIn reports whether a visitor is authenticated.
func (p PageData) SignedIn() bool { return p.User != nil }
