package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gostore.dev/web/internal/content"
	"gostore.dev/web/internal/pagination"
	"gostore.dev/web/internal/seo"
)

// HomeView is the landing page model.
type HomeView struct {
	Site     content.Site
	Featured []ShopProduct
}

func (a *app) homeHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	view := HomeView{Site: a.site}

	// a catalog hiccup should not take down the landing page
	if products, err := v.api.Catalog(r.Context(), 0, 4); err == nil {
		view.Featured = buildShopView(products, pagination.Page{}).Products
	}

	pd := a.pageData(r, a.site.Name, a.site.Description)
	pd.SEO.Title = a.site.Name + " | " + a.site.Tagline
	pd.SEO.JSONLD = append(pd.SEO.JSONLD, seo.JSON(seo.Organization(a.site.Name, absoluteURL(r), "")))
	pd.View = view
	a.renderPage(w, r, "home", pd)
}

// contentPageHandler serves the markdown-backed static pages.
func (a *app) contentPageHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	page, err := a.pages.Get(slug)
	if errors.Is(err, content.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	description := page.Summary
	if page.SEO.Description != "" {
		description = page.SEO.Description
	}
	pd := a.pageData(r, page.Title, description)
	if page.SEO.Title != "" {
		pd.SEO.Title = page.SEO.Title
	}
	pd.View = page
	a.renderPage(w, r, "content", pd)
}
