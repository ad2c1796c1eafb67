package main

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"gostore.dev/web/internal/api"
	"gostore.dev/web/internal/content"
	handlersPkg "gostore.dev/web/internal/handlers"
	"gostore.dev/web/internal/localstate"
	mw "gostore.dev/web/internal/middleware"
	"gostore.dev/web/internal/nav"
	"gostore.dev/web/internal/seo"
)

// app wires the storefront's collaborators together. Handlers hang off it so
// tests can point the whole stack at a fake backend.
type app struct {
	logger      *zap.Logger
	apiEndpoint string
	sessions    *mw.Sessions
	site        content.Site
	pages       *content.Store
	analytics   handlersPkg.Analytics
	checkouts   *checkoutRegistry
	devMode     bool
}

type appConfig struct {
	APIEndpoint      string
	SessionKey       []byte
	SecureCookies    bool
	ContentDir       string
	SitePath         string
	CheckoutDebounce time.Duration
	DevMode          bool
}

func newApp(cfg appConfig, logger *zap.Logger) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	site, err := content.LoadSite(cfg.SitePath)
	if err != nil {
		return nil, err
	}
	debounce := cfg.CheckoutDebounce
	if debounce <= 0 {
		debounce = time.Second
	}
	a := &app{
		logger:      logger,
		apiEndpoint: cfg.APIEndpoint,
		sessions:    mw.NewSessions(cfg.SessionKey, cfg.SecureCookies),
		site:        site,
		pages:       content.NewStore(cfg.ContentDir),
		analytics:   handlersPkg.LoadAnalyticsFromEnv(),
		devMode:     cfg.DevMode,
	}
	a.checkouts = newCheckoutRegistry(a, debounce)
	return a, nil
}

// visitor bundles the per-request stores and API client.
type visitor struct {
	session *mw.SessionData
	auth    *localstate.AuthStore
	cart    *localstate.CartStore
	api     *api.Client
}

func (a *app) visitor(r *http.Request) *visitor {
	session := mw.GetSession(r)
	auth := localstate.NewAuthStore(session)
	return &visitor{
		session: session,
		auth:    auth,
		cart:    localstate.NewCartStore(session),
		api:     api.NewClient(a.apiEndpoint, auth, a.logger),
	}
}

func (a *app) router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Fragments)
	r.Use(a.sessions.Middleware)
	r.Use(mw.Auth)
	r.Use(mw.CSRF)
	r.Use(mw.Logger(a.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/assets/*", mw.NewStatic("/assets", filepath.Join(publicDir, "assets")))

	r.Get("/", a.homeHandler)
	r.Get("/pages/{slug}", a.contentPageHandler)

	r.Get("/shop", a.shopHandler)
	r.Get("/shop/{slug}", a.productHandler)
	r.Post("/shop/{slug}/variant", a.productVariantFrag)

	r.Get("/cart", a.cartHandler)
	r.Post("/cart/add", a.cartAddHandler)
	r.Post("/cart/quantity", a.cartQuantityHandler)
	r.Post("/cart/remove", a.cartRemoveHandler)

	r.Get("/checkout", a.checkoutHandler)
	r.Post("/checkout/address", a.checkoutAddressHandler)
	r.Get("/checkout/summary", a.checkoutSummaryFrag)
	r.Post("/checkout/rate", a.checkoutRateHandler)
	r.Post("/checkout/ready", a.checkoutReadyHandler)
	r.Post("/checkout/submit", a.checkoutSubmitHandler)
	r.Get("/checkout/receipt", a.checkoutReceiptHandler)

	r.Get("/signin", a.signInPageHandler)
	r.Post("/signin", a.signInHandler)
	r.Get("/signup", a.signUpPageHandler)
	r.Post("/signup", a.signUpHandler)
	r.Post("/signout", a.signOutHandler)

	r.Get("/profile", a.profileHandler)
	r.Post("/profile/addresses", a.profileAddressCreateHandler)
	r.Post("/profile/addresses/delete", a.profileAddressDeleteHandler)

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAdmin)
		r.Get("/", a.adminHomeHandler)
		r.Get("/products", a.adminProductsHandler)
		r.Get("/products/{id}", a.adminProductHandler)
		r.Post("/products/{id}", a.adminProductUpdateHandler)
		r.Get("/transactions", a.adminTransactionsHandler)
		r.Get("/transactions/{id}", a.adminTransactionHandler)
	})

	return r
}

// requireAdmin gates the admin console on the token's admin claim. The API
// re-checks the role on every call; this only controls page visibility.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := mw.UserFromContext(r.Context())
		if u == nil {
			http.Redirect(w, r, "/signin?next="+r.URL.Path, http.StatusSeeOther)
			return
		}
		if !u.Admin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// pageData fills the layout fields every page shares.
func (a *app) pageData(r *http.Request, title, description string) handlersPkg.PageData {
	u := mw.UserFromContext(r.Context())
	viewer := nav.Viewer{SignedIn: u != nil, Admin: u != nil && u.Admin}
	cart := localstate.NewCartStore(mw.GetSession(r))
	count := 0
	for _, line := range cart.Lines() {
		count += line.Quantity
	}
	pd := handlersPkg.PageData{
		Title:       title,
		SiteName:    a.site.Name,
		SEO:         seo.ForPage(title+" | "+a.site.Name, description),
		Analytics:   a.analytics,
		Path:        r.URL.Path,
		Nav:         nav.Build(r.URL.Path, viewer),
		Breadcrumbs: nav.Breadcrumbs(r.URL.Path),
		User:        u,
		CartCount:   count,
		CSRFToken:   mw.GetSession(r).CSRFToken,
	}
	pd.SEO.Canonical = absoluteURL(r)
	pd.SEO.OG.Type = "website"
	return pd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
