package main

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gostore.dev/web/internal/api"
	"gostore.dev/web/internal/format"
	"gostore.dev/web/internal/seo"
)

// ProductView is the product detail page model.
type ProductView struct {
	Product   api.Product
	Price     string
	Variant   *VariantView
	Options   []ProductOptionView
	CSRFToken string
}

// VariantView is the resolved variant once every option has a choice.
type VariantView struct {
	ID    int
	Price string
}

// ProductOptionView is one option group with its selected value, if any.
type ProductOptionView struct {
	ID       int
	Name     string
	Values   []api.OptionValue
	Selected int
}

func buildProductView(p api.Product, variant *api.Variant, selected map[int]int) ProductView {
	view := ProductView{Product: p}
	if pr := p.PriceRange; pr != nil {
		view.Price = priceRangeLabel(pr.Min, pr.Max)
	}
	if variant != nil {
		view.Variant = &VariantView{ID: variant.ID, Price: format.Cents(variant.Price)}
		view.Price = format.Cents(variant.Price)
	}
	for _, opt := range p.Options {
		view.Options = append(view.Options, ProductOptionView{
			ID:       opt.ID,
			Name:     opt.Name,
			Values:   opt.Values,
			Selected: selected[opt.ID],
		})
	}
	return view
}

func priceRangeLabel(min, max int) string {
	return format.CentsRange(min, max)
}

func (a *app) productHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	slug := chi.URLParam(r, "slug")

	product, err := v.api.ProductBySlug(r.Context(), slug)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	if product == nil {
		http.NotFound(w, r)
		return
	}

	pd := a.pageData(r, product.Name, product.Description)
	image := ""
	if len(product.Images) > 0 {
		image = product.Images[0].Height600
	}
	price := 0
	if product.PriceRange != nil {
		price = product.PriceRange.Min
	}
	pd.SEO.JSONLD = append(pd.SEO.JSONLD, seo.JSON(seo.Product(
		product.Name, product.Description, absoluteURL(r), image, price,
	)))
	view := buildProductView(*product, nil, nil)
	view.CSRFToken = v.session.CSRFToken
	pd.View = view
	a.renderPage(w, r, "product", pd)
}

// productVariantFrag resolves the variant for the posted option choices and
// re-renders the purchase panel. Until every option group has a choice the
// panel stays on the price range with the add button disabled.
func (a *app) productVariantFrag(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	slug := chi.URLParam(r, "slug")

	product, err := v.api.ProductBySlug(r.Context(), slug)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	if product == nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	selected := map[int]int{}
	var optionValues []int
	complete := true
	for _, opt := range product.Options {
		raw := r.FormValue("option_" + strconv.Itoa(opt.ID))
		valueID, err := strconv.Atoi(raw)
		if err != nil || valueID == 0 {
			complete = false
			continue
		}
		selected[opt.ID] = valueID
		optionValues = append(optionValues, valueID)
	}

	var variant *api.Variant
	if complete && len(optionValues) == len(product.Options) {
		variant, err = v.api.VariantBySelectedOptions(r.Context(), product.ID, optionValues)
		if err != nil {
			a.renderError(w, r, err)
			return
		}
	}

	view := buildProductView(*product, variant, selected)
	view.CSRFToken = v.session.CSRFToken
	a.renderTemplate(w, r, "frag_product_purchase", view)
}
