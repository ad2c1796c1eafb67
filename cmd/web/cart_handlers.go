package main

import (
	"net/http"
	"strconv"

	"gostore.dev/web/internal/localstate"
	mw "gostore.dev/web/internal/middleware"
)

func (a *app) loadCartView(r *http.Request, v *visitor) (CartView, error) {
	lines := v.cart.Lines()
	if len(lines) == 0 {
		return buildCartView(nil, nil, 0, v.session.CSRFToken), nil
	}
	variants, err := v.api.VariantsByIDs(r.Context(), variantIDs(lines))
	if err != nil {
		return CartView{}, err
	}
	subtotal, err := v.api.Subtotal(r.Context(), cartInputs(lines))
	if err != nil {
		return CartView{}, err
	}
	return buildCartView(lines, variants, subtotal, v.session.CSRFToken), nil
}

// cartHandler renders the cart page.
func (a *app) cartHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	view, err := a.loadCartView(r, v)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	pd := a.pageData(r, "Cart", "Review your cart before checkout.")
	pd.View = view
	a.renderPage(w, r, "cart", pd)
}

// cartAddHandler adds a variant from the product page.
func (a *app) cartAddHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	variantID, quantity, ok := parseCartForm(r)
	if !ok {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	v.cart.ChangeQuantity(variantID, quantity)
	a.cartChanged(w, r, v)
}

// cartQuantityHandler applies a +1/-1 step from the cart table. A step that
// would take the line below one leaves it at one.
func (a *app) cartQuantityHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	variantID, delta, ok := parseCartForm(r)
	if !ok {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if has := hasLine(v.cart, variantID); !has {
		http.Error(w, "unknown line", http.StatusBadRequest)
		return
	}
	v.cart.ChangeQuantity(variantID, delta)
	a.cartChanged(w, r, v)
}

// cartRemoveHandler drops a line entirely.
func (a *app) cartRemoveHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	variantID, _, ok := parseCartForm(r)
	if !ok {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	v.cart.Remove(variantID)
	a.cartChanged(w, r, v)
}

// cartChanged re-renders the table fragment for htmx requests and redirects
// plain form posts back to the cart.
func (a *app) cartChanged(w http.ResponseWriter, r *http.Request, v *visitor) {
	a.refreshCheckoutCart(v)
	if !mw.IsFragment(r.Context()) {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	view, err := a.loadCartView(r, v)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	a.renderTemplate(w, r, "frag_cart_table", view)
}

// refreshCheckoutCart pushes cart edits into a checkout already in progress.
func (a *app) refreshCheckoutCart(v *visitor) {
	if engine := a.checkouts.peek(v.session.ID, v); engine != nil {
		engine.SetCart(cartInputs(v.cart.Lines()))
	}
}

func parseCartForm(r *http.Request) (variantID, amount int, ok bool) {
	if err := r.ParseForm(); err != nil {
		return 0, 0, false
	}
	variantID, err := strconv.Atoi(r.FormValue("variantId"))
	if err != nil || variantID == 0 {
		return 0, 0, false
	}
	amount, err = strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		amount = 1
	}
	return variantID, amount, true
}

func hasLine(cart *localstate.CartStore, variantID int) bool {
	for _, line := range cart.Lines() {
		if line.VariantID == variantID {
			return true
		}
	}
	return false
}
