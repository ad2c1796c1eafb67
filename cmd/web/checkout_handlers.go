package main

import (
	"errors"
	"net/http"
	"strconv"

	"gostore.dev/web/internal/api"
	"gostore.dev/web/internal/checkout"
	mw "gostore.dev/web/internal/middleware"
	"gostore.dev/web/internal/payment"
)

// syncCheckout feeds the engine everything the current request knows: cart
// lines, server-priced subtotal, and the signed-in user's saved addresses.
func (a *app) syncCheckout(r *http.Request, v *visitor) (*checkout.Engine, error) {
	engine := a.checkouts.engineFor(v.session.ID, v)
	lines := cartInputs(v.cart.Lines())
	engine.SetCart(lines)

	if len(lines) > 0 {
		subtotal, err := v.api.Subtotal(r.Context(), lines)
		if err != nil {
			return nil, err
		}
		engine.SetSubtotal(subtotal)
	}

	if mw.UserFromContext(r.Context()) != nil {
		me, err := v.api.Me(r.Context())
		switch {
		case api.IsNotAuthenticated(err):
			// token lapsed mid-flow; continue as guest
		case err != nil:
			return nil, err
		case me != nil:
			engine.SetSavedAddresses(me.Addresses)
		}
	}
	return engine, nil
}

// checkoutHandler renders the checkout page.
func (a *app) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	if v.cart.IsEmpty() {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	engine, err := a.syncCheckout(r, v)
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	clientToken, err := v.api.ClientToken(r.Context())
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	snap := engine.Snapshot()
	view := CheckoutView{
		Saved:       engine.SavedAddresses(),
		Shipping:    sectionView("shipping", engine.ShippingSelection(), false),
		Billing:     sectionView("billing", engine.BillingSelection(), true),
		Summary:     buildSummaryView(snap, v.session.CSRFToken, nil),
		ClientToken: clientToken,
		CSRFToken:   v.session.CSRFToken,
	}

	pd := a.pageData(r, "Checkout", "Shipping, billing, and payment.")
	pd.View = view
	a.renderPage(w, r, "checkout", pd)
}

// checkoutAddressHandler applies the posted address selections. Each change
// re-arms the debounced quote fetches; the returned summary shows pending
// totals until the quotes settle.
func (a *app) checkoutAddressHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	engine, err := a.syncCheckout(r, v)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	engine.SetShippingSelection(parseSelection(r.PostForm, "shipping"))
	engine.SetBillingSelection(parseSelection(r.PostForm, "billing"))
	a.renderSummary(w, r, v, engine, nil)
}

// checkoutSummaryFrag is the polling target while quotes are pending.
func (a *app) checkoutSummaryFrag(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	engine := a.checkouts.peek(v.session.ID, v)
	if engine == nil {
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	}
	a.renderSummary(w, r, v, engine, nil)
}

// checkoutRateHandler picks a quoted shipping option.
func (a *app) checkoutRateHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	engine := a.checkouts.peek(v.session.ID, v)
	if engine == nil {
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	}
	index, err := strconv.Atoi(r.FormValue("rate"))
	if err != nil || index < 0 {
		http.Error(w, "invalid rate", http.StatusBadRequest)
		return
	}
	engine.SelectShippingRate(index)
	a.renderSummary(w, r, v, engine, nil)
}

// checkoutReadyHandler records the payment widget's readiness signal.
func (a *app) checkoutReadyHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	engine := a.checkouts.peek(v.session.ID, v)
	if engine == nil {
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	}
	engine.SetPaymentRequestable(r.FormValue("requestable") == "true")
	a.renderSummary(w, r, v, engine, nil)
}

// checkoutSubmitHandler runs the order: payment capture, order creation, cart
// clear. Payment failures keep all checkout state so the visitor can retry.
func (a *app) checkoutSubmitHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	engine := a.checkouts.peek(v.session.ID, v)
	if engine == nil {
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	}

	provider := payment.FromForm(r.FormValue("payment_nonce"))
	_, err := engine.Submit(r.Context(), provider)
	switch {
	case err == nil:
		if mw.IsFragment(r.Context()) {
			w.Header().Set("HX-Redirect", "/checkout/receipt")
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, "/checkout/receipt", http.StatusSeeOther)
	case errors.Is(err, checkout.ErrSubmitInFlight), errors.Is(err, checkout.ErrNotReady):
		a.renderSummary(w, r, v, engine, []string{"Checkout is not ready to submit."})
	default:
		messages := []string{"Something went wrong :("}
		if apiErr, ok := err.(*api.Error); ok {
			messages = apiErr.UserMessages()
		}
		a.renderSummary(w, r, v, engine, messages)
	}
}

// checkoutReceiptHandler renders the order confirmation and ends the flow.
func (a *app) checkoutReceiptHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	engine := a.checkouts.peek(v.session.ID, v)
	if engine == nil {
		http.Redirect(w, r, "/shop", http.StatusSeeOther)
		return
	}
	snap := engine.Snapshot()
	if snap.Receipt == nil {
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	}
	a.checkouts.drop(v.session.ID)

	pd := a.pageData(r, "Order confirmed", "")
	pd.View = buildReceiptView(*snap.Receipt)
	a.renderPage(w, r, "receipt", pd)
}

func (a *app) renderSummary(w http.ResponseWriter, r *http.Request, v *visitor, engine *checkout.Engine, errs []string) {
	view := buildSummaryView(engine.Snapshot(), v.session.CSRFToken, errs)
	if !mw.IsFragment(r.Context()) {
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	}
	a.renderTemplate(w, r, "frag_checkout_summary", view)
}
