package main

import (
	"net/http"

	"gostore.dev/web/internal/api"
	"gostore.dev/web/internal/pagination"
)

// ShopView is the catalog listing page model.
type ShopView struct {
	Products []ShopProduct
	Page     pagination.Page
}

// ShopProduct is one catalog card.
type ShopProduct struct {
	Slug       string
	Name       string
	ImageURL   string
	PriceRange string
}

func buildShopView(products []api.Product, page pagination.Page) ShopView {
	view := ShopView{Page: page}
	for _, p := range products {
		card := ShopProduct{
			Slug: p.Slug,
			Name: p.Name,
		}
		if len(p.Images) > 0 {
			card.ImageURL = p.Images[0].Height600
		}
		if pr := p.PriceRange; pr != nil {
			card.PriceRange = priceRangeLabel(pr.Min, pr.Max)
		}
		view.Products = append(view.Products, card)
	}
	return view
}

func (a *app) shopHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	params := pagination.FromRequest(r)

	products, err := v.api.Catalog(r.Context(), params.Skip, params.Limit)
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	pd := a.pageData(r, "Shop", a.site.Tagline)
	pd.View = buildShopView(products, params.PageFor("/shop", len(products)))
	a.renderPage(w, r, "shop", pd)
}
