package main

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gostore.dev/web/internal/api"
	"gostore.dev/web/internal/format"
	"gostore.dev/web/internal/forms"
	"gostore.dev/web/internal/pagination"
)

// AdminProductsView lists all products, published or not.
type AdminProductsView struct {
	Products []AdminProductRow
	Page     pagination.Page
}

type AdminProductRow struct {
	ID         int
	Slug       string
	Name       string
	Published  bool
	PriceRange string
}

// AdminProductView backs the product edit page. The form is rendered from
// the mutation input type's introspection, so new fields show up without a
// template change.
type AdminProductView struct {
	Product   api.Product
	FormHTML  template.HTML
	Errors    []string
	Saved     bool
	CSRFToken string
}

// AdminTransactionsView lists captured orders.
type AdminTransactionsView struct {
	Transactions []AdminTransactionRow
	Page         pagination.Page
}

type AdminTransactionRow struct {
	ID       int
	Subtotal string
	Taxes    string
	Shipping string
	Total    string
}

func (a *app) adminHomeHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

func (a *app) adminProductsHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	params := pagination.FromRequest(r)

	products, err := v.api.AdminProducts(r.Context(), params.Skip, params.Limit)
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	view := AdminProductsView{Page: params.PageFor("/admin/products", len(products))}
	for _, p := range products {
		row := AdminProductRow{ID: p.ID, Slug: p.Slug, Name: p.Name, Published: p.Published}
		if pr := p.PriceRange; pr != nil {
			row.PriceRange = priceRangeLabel(pr.Min, pr.Max)
		}
		view.Products = append(view.Products, row)
	}

	pd := a.pageData(r, "Products", "")
	pd.View = view
	a.renderPage(w, r, "admin_products", pd)
}

func (a *app) adminProductHandler(w http.ResponseWriter, r *http.Request) {
	a.renderAdminProduct(w, r, nil, false)
}

// adminProductUpdateHandler parses the posted values against the introspected
// form and runs the update mutation.
func (a *app) adminProductUpdateHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	_, inputType, err := v.api.AdminProduct(r.Context(), id)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	form, err := forms.Parse(inputType, nil)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	values, err := form.ParseValues(r.PostForm)
	if err != nil {
		a.renderAdminProduct(w, r, []string{err.Error()}, false)
		return
	}
	if _, err := v.api.UpdateProduct(r.Context(), id, values); err != nil {
		messages := []string{"Something went wrong :("}
		if apiErr, ok := err.(*api.Error); ok {
			messages = apiErr.UserMessages()
		}
		a.renderAdminProduct(w, r, messages, false)
		return
	}
	a.renderAdminProduct(w, r, nil, true)
}

func (a *app) renderAdminProduct(w http.ResponseWriter, r *http.Request, errs []string, saved bool) {
	v := a.visitor(r)
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	product, inputType, err := v.api.AdminProduct(r.Context(), id)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	if product == nil {
		http.NotFound(w, r)
		return
	}
	form, err := forms.Parse(inputType, nil)
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	view := AdminProductView{
		Product:   *product,
		FormHTML:  form.Render(productFormValues(*product)),
		Errors:    errs,
		Saved:     saved,
		CSRFToken: v.session.CSRFToken,
	}
	pd := a.pageData(r, product.Name, "")
	pd.View = view
	a.renderPage(w, r, "admin_product", pd)
}

// productFormValues seeds the introspected form with the product's current
// field values, keyed by dotted path.
func productFormValues(p api.Product) map[string]string {
	values := map[string]string{
		"name":        p.Name,
		"slug":        p.Slug,
		"description": p.Description,
		"details":     p.Details,
		"published":   strconv.FormatBool(p.Published),
	}
	return values
}

func (a *app) adminTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	params := pagination.FromRequest(r)

	transactions, err := v.api.Transactions(r.Context(), params.Skip, params.Limit)
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	view := AdminTransactionsView{Page: params.PageFor("/admin/transactions", len(transactions))}
	for _, t := range transactions {
		view.Transactions = append(view.Transactions, AdminTransactionRow{
			ID:       t.ID,
			Subtotal: format.Cents(t.Subtotal),
			Taxes:    format.Cents(t.Taxes),
			Shipping: format.Cents(t.Shipping),
			Total:    format.Cents(t.Total),
		})
	}

	pd := a.pageData(r, "Transactions", "")
	pd.View = view
	a.renderPage(w, r, "admin_transactions", pd)
}

func (a *app) adminTransactionHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	receipt, err := v.api.TransactionByID(r.Context(), id)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	if receipt == nil {
		http.NotFound(w, r)
		return
	}

	pd := a.pageData(r, "Order detail", "")
	pd.View = buildReceiptView(*receipt)
	a.renderPage(w, r, "admin_transaction", pd)
}
