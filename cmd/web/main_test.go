package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// fakeAPI is a GraphQL backend stub that dispatches on operation name. It
// serves a one-product catalog rich enough to drive the full storefront.
func fakeAPI(t *testing.T) http.Handler {
	t.Helper()

	product := map[string]any{
		"id":          7,
		"slug":        "canvas-tote",
		"name":        "Canvas Tote",
		"description": "A sturdy everyday tote.",
		"details":     "",
		"published":   true,
		"images":      []any{},
		"priceRange":  map[string]any{"min": 2800, "max": 3400},
		"options": []any{
			map[string]any{
				"id":   1,
				"name": "Color",
				"values": []any{
					map[string]any{"id": 11, "value": "Natural"},
					map[string]any{"id": 12, "value": "Olive"},
				},
			},
		},
	}
	variant := map[string]any{
		"id":    70,
		"name":  "Canvas Tote",
		"price": 2800,
		"images": []any{},
		"selectedOptions": []any{
			map[string]any{"id": 11, "value": "Natural"},
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode graphql request: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		data := map[string]any{}
		switch {
		case strings.Contains(req.Query, "query Shop"):
			data["catalog"] = []any{product}
		case strings.Contains(req.Query, "query Product("):
			data["product"] = product
		case strings.Contains(req.Query, "query VariantByOptions"):
			data["variant"] = map[string]any{"id": 70, "price": 2800}
		case strings.Contains(req.Query, "query CartVariants"):
			data["variants"] = []any{variant}
		case strings.Contains(req.Query, "query Subtotal"):
			data["subtotal"] = 2800
		case strings.Contains(req.Query, "query CheckoutTaxes"):
			data["taxes"] = map[string]any{"totalRate": 0.0725}
		case strings.Contains(req.Query, "query CheckoutShipping"):
			data["shippingEstimations"] = []any{
				map[string]any{"id": "usps-1", "carrier": "USPS", "service": "Priority", "price": 800, "durationTerms": "2-3 days"},
			}
		case strings.Contains(req.Query, "query ClientToken"):
			data["braintreeClientToken"] = "test-client-token"
		case strings.Contains(req.Query, "query Me"):
			data["me"] = map[string]any{
				"id": 1, "email": "admin@example.com",
				"addresses": []any{}, "receipts": []any{},
			}
		case strings.Contains(req.Query, "mutation SignIn"):
			data["signIn"] = map[string]any{
				"token":        testToken(t, true),
				"refreshToken": testToken(t, true),
			}
		case strings.Contains(req.Query, "query AdminProducts"):
			data["products"] = []any{product}
		case strings.Contains(req.Query, "query AdminTransactions"):
			data["transactions"] = []any{}
		default:
			t.Errorf("unexpected graphql operation: %.80s", req.Query)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	})
}

// testToken mints an unexpired access token; claims are read unverified so
// the signing key does not matter.
func testToken(t *testing.T, admin bool) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "1",
		"email": "admin@example.com",
		"admin": admin,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// newTestApp builds the full router against the fake backend, with template
// reparsing enabled and paths adjusted for the test working directory.
func newTestApp(t *testing.T) http.Handler {
	t.Helper()
	templatesDir = "../../templates"
	publicDir = "../../public"
	backend := httptest.NewServer(fakeAPI(t))
	t.Cleanup(backend.Close)

	a, err := newApp(appConfig{
		APIEndpoint:      backend.URL,
		SessionKey:       []byte("test-signing-key"),
		ContentDir:       "../../content",
		SitePath:         "../../site.yaml",
		CheckoutDebounce: 10 * time.Millisecond,
		DevMode:          true,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	return a.router()
}

var csrfPattern = regexp.MustCompile(`name="csrf-token" content="([^"]+)"`)

// browser carries cookies and the CSRF token across requests.
type browser struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]string
	csrf    string
}

func newBrowser(t *testing.T, h http.Handler) *browser {
	return &browser{t: t, h: h, cookies: map[string]string{}}
}

func (b *browser) do(method, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	b.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
		req.Header.Set("X-CSRF-Token", b.csrf)
	}
	for name, value := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	rec := httptest.NewRecorder()
	b.h.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c.Value
	}
	if m := csrfPattern.FindStringSubmatch(rec.Body.String()); m != nil {
		b.csrf = m[1]
	}
	return rec
}

func (b *browser) withCSRF(form url.Values) url.Values {
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", b.csrf)
	return form
}

func TestHealthzOK(t *testing.T) {
	srv := newTestApp(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "ok" {
		t.Fatalf("expected body 'ok', got %q", got)
	}
}

func TestShopPageRenders(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	rec := b.do(http.MethodGet, "/shop", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Canvas Tote") {
		t.Fatalf("expected product name in body; body=%s", body)
	}
	if !strings.Contains(body, "$28.00") {
		t.Fatalf("expected formatted price range in body; body=%s", body)
	}
}

func TestProductPageRendersOptions(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	rec := b.do(http.MethodGet, "/shop/canvas-tote", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `name="option_1"`) {
		t.Fatalf("expected option select in body; body=%s", body)
	}
	if !strings.Contains(body, "Select options") {
		t.Fatalf("expected disabled purchase button before all options chosen; body=%s", body)
	}
	if !strings.Contains(body, `"application/ld+json"`) {
		t.Fatalf("expected product schema script; body=%s", body)
	}
}

func TestVariantFragmentResolvesPrice(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	if rec := b.do(http.MethodGet, "/shop/canvas-tote", nil, false); rec.Code != http.StatusOK {
		t.Fatalf("prime request failed: %d", rec.Code)
	}
	form := b.withCSRF(url.Values{"option_1": {"11"}})
	rec := b.do(http.MethodPost, "/shop/canvas-tote/variant", form, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "$28.00") {
		t.Fatalf("expected resolved variant price; body=%s", body)
	}
	if !strings.Contains(body, "Add to cart") {
		t.Fatalf("expected enabled add button once variant resolved; body=%s", body)
	}
}

func TestCartAddAndQuantityFlow(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	if rec := b.do(http.MethodGet, "/shop", nil, false); rec.Code != http.StatusOK {
		t.Fatalf("prime request failed: %d", rec.Code)
	}

	rec := b.do(http.MethodPost, "/cart/add", b.withCSRF(url.Values{"variantId": {"70"}, "quantity": {"2"}}), false)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after add, got %d; body=%s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/cart" {
		t.Fatalf("expected redirect to /cart, got %q", loc)
	}

	rec = b.do(http.MethodGet, "/cart", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Canvas Tote") {
		t.Fatalf("expected cart line in body; body=%s", body)
	}
	if !strings.Contains(body, `class="count">2<`) {
		t.Fatalf("expected quantity 2 in body; body=%s", body)
	}
	if !strings.Contains(body, "$56.00") {
		t.Fatalf("expected line total in body; body=%s", body)
	}

	// htmx decrement returns the table fragment with the stepped quantity
	rec = b.do(http.MethodPost, "/cart/quantity", b.withCSRF(url.Values{"variantId": {"70"}, "quantity": {"-1"}}), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fragment, got %d; body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `class="count">1<`) {
		t.Fatalf("expected stepped quantity in fragment; body=%s", rec.Body.String())
	}

	rec = b.do(http.MethodPost, "/cart/remove", b.withCSRF(url.Values{"variantId": {"70"}}), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fragment, got %d; body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Your cart is empty") {
		t.Fatalf("expected empty cart state; body=%s", rec.Body.String())
	}
}

func TestCheckoutRequiresCart(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	rec := b.do(http.MethodGet, "/checkout", nil, false)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect for empty cart, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/cart" {
		t.Fatalf("expected redirect to /cart, got %q", loc)
	}
}

func TestCheckoutAddressTriggersQuotes(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	if rec := b.do(http.MethodGet, "/shop", nil, false); rec.Code != http.StatusOK {
		t.Fatalf("prime request failed: %d", rec.Code)
	}
	if rec := b.do(http.MethodPost, "/cart/add", b.withCSRF(url.Values{"variantId": {"70"}, "quantity": {"1"}}), false); rec.Code != http.StatusSeeOther {
		t.Fatalf("cart add failed: %d", rec.Code)
	}

	rec := b.do(http.MethodGet, "/checkout", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "test-client-token") {
		t.Fatalf("expected payment client token in body; body=%s", body)
	}
	if !strings.Contains(body, "Order summary") {
		t.Fatalf("expected summary panel in body; body=%s", body)
	}

	form := b.withCSRF(url.Values{
		"shipping_mode":    {"new"},
		"shipping_name":    {"Jo Doe"},
		"shipping_line1":   {"1 Main St"},
		"shipping_city":    {"Springfield"},
		"shipping_region":  {"CA"},
		"shipping_postal":  {"90210"},
		"shipping_country": {"US"},
		"billing_mode":     {"same"},
	})
	rec = b.do(http.MethodPost, "/checkout/address", form, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 summary fragment, got %d; body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Calculating") {
		t.Fatalf("expected pending quotes right after address change; body=%s", rec.Body.String())
	}

	// both debounced quotes settle well within this window
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec = b.do(http.MethodGet, "/checkout/summary", nil, true)
		if rec.Code != http.StatusOK {
			t.Fatalf("summary poll failed: %d; body=%s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "Calculating") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("quotes never settled; body=%s", rec.Body.String())
		}
		time.Sleep(20 * time.Millisecond)
	}

	body = rec.Body.String()
	if !strings.Contains(body, "$2.03") {
		t.Fatalf("expected rounded taxes on 7.25%% of $28.00; body=%s", body)
	}
	if !strings.Contains(body, "USPS Priority") {
		t.Fatalf("expected quoted shipping rate; body=%s", body)
	}
	if !strings.Contains(body, "$8.00") {
		t.Fatalf("expected shipping price; body=%s", body)
	}
}

func TestAdminGate(t *testing.T) {
	b := newBrowser(t, newTestApp(t))

	rec := b.do(http.MethodGet, "/admin/products", nil, false)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect for guest, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/signin?next=/admin/products" {
		t.Fatalf("expected signin redirect with next, got %q", loc)
	}

	if rec := b.do(http.MethodGet, "/signin", nil, false); rec.Code != http.StatusOK {
		t.Fatalf("signin page failed: %d", rec.Code)
	}
	rec = b.do(http.MethodPost, "/signin", b.withCSRF(url.Values{
		"email":    {"admin@example.com"},
		"password": {"hunter2"},
	}), false)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after signin, got %d; body=%s", rec.Code, rec.Body.String())
	}

	rec = b.do(http.MethodGet, "/admin/products", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d; body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Canvas Tote") {
		t.Fatalf("expected product listing in admin; body=%s", rec.Body.String())
	}
}

func TestContentPageRenders(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	rec := b.do(http.MethodGet, "/pages/shipping-policy", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Shipping policy") {
		t.Fatalf("expected page title in body; body=%s", body)
	}
	if !strings.Contains(body, "<ul>") {
		t.Fatalf("expected rendered markdown list; body=%s", body)
	}

	rec = b.do(http.MethodGet, "/pages/no-such-page", nil, false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown slug, got %d", rec.Code)
	}
}

func TestSignOutClearsUser(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	if rec := b.do(http.MethodGet, "/signin", nil, false); rec.Code != http.StatusOK {
		t.Fatalf("signin page failed: %d", rec.Code)
	}
	if rec := b.do(http.MethodPost, "/signin", b.withCSRF(url.Values{
		"email":    {"admin@example.com"},
		"password": {"hunter2"},
	}), false); rec.Code != http.StatusSeeOther {
		t.Fatalf("signin failed: %d", rec.Code)
	}

	rec := b.do(http.MethodGet, "/shop", nil, false)
	if !strings.Contains(rec.Body.String(), "Sign out") {
		t.Fatalf("expected signed-in header; body=%s", rec.Body.String())
	}

	if rec := b.do(http.MethodPost, "/signout", b.withCSRF(nil), false); rec.Code != http.StatusSeeOther {
		t.Fatalf("signout failed: %d", rec.Code)
	}
	rec = b.do(http.MethodGet, "/shop", nil, false)
	if strings.Contains(rec.Body.String(), "Sign out") {
		t.Fatalf("expected signed-out header after signout; body=%s", rec.Body.String())
	}
}
