package main

import (
	"net/http"
	"strings"

	"gostore.dev/web/internal/api"
)

// AuthFormView renders the sign-in and sign-up forms.
type AuthFormView struct {
	Email     string
	Stay      bool
	Errors    []string
	Next      string
	CSRFToken string
}

func (a *app) signInPageHandler(w http.ResponseWriter, r *http.Request) {
	pd := a.pageData(r, "Sign in", "")
	pd.View = AuthFormView{
		Next:      safeNext(r.URL.Query().Get("next")),
		CSRFToken: pd.CSRFToken,
	}
	a.renderPage(w, r, "signin", pd)
}

func (a *app) signInHandler(w http.ResponseWriter, r *http.Request) {
	a.handleCredentials(w, r, "signin", func(v *visitor, email, password, _ string) (*api.TokenPair, error) {
		return v.api.SignIn(r.Context(), email, password)
	})
}

func (a *app) signUpPageHandler(w http.ResponseWriter, r *http.Request) {
	pd := a.pageData(r, "Create account", "")
	pd.View = AuthFormView{
		Next:      safeNext(r.URL.Query().Get("next")),
		CSRFToken: pd.CSRFToken,
	}
	a.renderPage(w, r, "signup", pd)
}

func (a *app) signUpHandler(w http.ResponseWriter, r *http.Request) {
	a.handleCredentials(w, r, "signup", func(v *visitor, email, password, confirm string) (*api.TokenPair, error) {
		return v.api.SignUp(r.Context(), email, password, confirm)
	})
}

// handleCredentials runs either credentials mutation, stores the returned
// token pair per the stay-signed-in choice, and rotates the session id.
func (a *app) handleCredentials(w http.ResponseWriter, r *http.Request, page string, exchange func(*visitor, string, string, string) (*api.TokenPair, error)) {
	v := a.visitor(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")
	stay := r.FormValue("stay") != ""
	next := safeNext(r.FormValue("next"))

	retry := func(messages []string) {
		pd := a.pageData(r, pageTitleFor(page), "")
		pd.View = AuthFormView{
			Email:     email,
			Stay:      stay,
			Errors:    messages,
			Next:      next,
			CSRFToken: pd.CSRFToken,
		}
		a.renderPage(w, r, page, pd)
	}

	if email == "" || password == "" {
		retry([]string{"Email and password are required."})
		return
	}
	if page == "signup" && password != confirm {
		retry([]string{"Passwords do not match."})
		return
	}

	tokens, err := exchange(v, email, password, confirm)
	if err != nil {
		messages := []string{"Something went wrong :("}
		if apiErr, ok := err.(*api.Error); ok {
			messages = apiErr.UserMessages()
		}
		retry(messages)
		return
	}
	if tokens == nil || tokens.Token == "" {
		retry([]string{"Something went wrong :("})
		return
	}

	v.session.RegenerateID()
	v.session.Persist = stay
	v.auth.SetTokens(tokens.Token, tokens.RefreshToken, stay)
	if next == "" {
		next = "/shop"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (a *app) signOutHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visitor(r)
	a.checkouts.drop(v.session.ID)
	v.auth.Logout()
	v.session.Persist = false
	v.session.RegenerateID()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func pageTitleFor(page string) string {
	if page == "signup" {
		return "Create account"
	}
	return "Sign in"
}

// safeNext only allows same-site relative redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}
