package main

import (
	"net/http"
	"strconv"

	"gostore.dev/web/internal/api"
	"gostore.dev/web/internal/checkout"
	"gostore.dev/web/internal/format"
	mw "gostore.dev/web/internal/middleware"
)

// ProfileView is the account page model.
type ProfileView struct {
	Email     string
	Addresses []api.Address
	Orders    []ProfileOrderView
	Errors    []string
	CSRFToken string
}

// ProfileOrderView is one past order row.
type ProfileOrderView struct {
	ID    int
	Total string
	Items int
}

func (a *app) profileHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	if mw.UserFromContext(r.Context()) == nil {
		http.Redirect(w, r, "/signin?next=/profile", http.StatusSeeOther)
		return
	}

	me, err := v.api.Me(r.Context())
	if api.IsNotAuthenticated(err) || (err == nil && me == nil) {
		http.Redirect(w, r, "/signin?next=/profile", http.StatusSeeOther)
		return
	}
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	view := ProfileView{
		Email:     me.Email,
		Addresses: me.Addresses,
		CSRFToken: v.session.CSRFToken,
	}
	for _, receipt := range me.Receipts {
		items := 0
		for _, line := range receipt.LineItems {
			items += line.Quantity
		}
		view.Orders = append(view.Orders, ProfileOrderView{
			ID:    receipt.ID,
			Total: format.Cents(receipt.Total),
			Items: items,
		})
	}

	pd := a.pageData(r, "Profile", "")
	if r.URL.Query().Get("flash") == "address" {
		pd.Flash = "Please fill in all required address fields."
	}
	pd.View = view
	a.renderPage(w, r, "profile", pd)
}

// profileAddressCreateHandler saves a new address on the account.
func (a *app) profileAddressCreateHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sel := parseSelection(r.PostForm, "address")
	if len(checkout.MissingDraftFields(sel.Draft)) > 0 {
		http.Redirect(w, r, "/profile?flash=address", http.StatusSeeOther)
		return
	}
	addr, _ := checkout.Resolve(sel, nil, nil)
	if addr == nil {
		http.Error(w, "invalid address", http.StatusBadRequest)
		return
	}
	if _, err := v.api.CreateAddress(r.Context(), *addr); err != nil {
		a.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// profileAddressDeleteHandler removes a saved address.
func (a *app) profileAddressDeleteHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	id, err := strconv.Atoi(r.FormValue("addressId"))
	if err != nil || id == 0 {
		http.Error(w, "invalid address id", http.StatusBadRequest)
		return
	}
	if err := v.api.DeleteAddress(r.Context(), id); err != nil {
		a.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}
