package checkout

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"gostore.dev/web/internal/api"
)

const quoteTimeout = 10 * time.Second

// Quoter fetches tax and shipping quotes. *api.Client satisfies it.
type Quoter interface {
	Taxes(ctx context.Context, address api.Address) (*api.TaxRates, error)
	ShippingEstimations(ctx context.Context, address api.Address, lines []api.CartInput) ([]api.ShippingRate, error)
}

// OrderSubmitter captures payment and creates the order. *api.Client
// satisfies it.
type OrderSubmitter interface {
	SubmitTransaction(ctx context.Context, in api.SubmitTransactionInput) (*api.Receipt, error)
}

// PaymentProvider is the external payment capture collaborator: it hands out
// a single-use payment method nonce, or rejects.
type PaymentProvider interface {
	RequestPaymentMethod(ctx context.Context) (string, error)
}

// CartClearer empties the cart after a successful order.
type CartClearer interface {
	Clear()
}

// ErrSubmitInFlight guards against concurrent double submission.
var ErrSubmitInFlight = errors.New("checkout: submission already in flight")

// ErrNotReady is returned when Submit is called while the readiness gate is
// closed.
var ErrNotReady = errors.New("checkout: not ready for submission")

// quote is one slot (tax or shipping) tied to the address snapshot that
// produced it. A response whose generation or originating address no longer
// matches is discarded.
type quote struct {
	addr     api.Address
	hasAddr  bool
	gen      uint64
	inflight bool
	err      error
}

// Engine holds the checkout derived state for one visitor session. All reads
// go through Snapshot; all inputs go through the setters, which re-resolve
// addresses, re-arm the debouncers, and schedule quote fetches.
type Engine struct {
	mu     sync.Mutex
	quoter Quoter
	orders OrderSubmitter
	cart   CartClearer
	logger *zap.Logger

	lines       []api.CartInput
	subtotal    int
	hasSubtotal bool
	saved       []api.Address

	shippingSel Selection
	billingSel  Selection

	shipDeb *Debouncer[api.Address]
	billDeb *Debouncer[api.Address]

	taxQuote  quote
	taxRates  *api.TaxRates
	shipQuote quote
	shipRates []api.ShippingRate

	// selectedRate is 1-based into shipRates; 0 means none chosen.
	selectedRate       int
	paymentRequestable bool
	submitting         bool
	receipt            *api.Receipt
}

// NewEngine builds an engine with the given debounce interval.
func NewEngine(quoter Quoter, orders OrderSubmitter, cart CartClearer, interval time.Duration, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		quoter: quoter,
		orders: orders,
		cart:   cart,
		logger: logger,
	}
	e.shipDeb = NewDebouncer[api.Address](interval, e.fetchShipping)
	e.billDeb = NewDebouncer[api.Address](interval, e.fetchTaxes)
	return e
}

// SetCart replaces the line items feeding subtotal/shipping computation.
func (e *Engine) SetCart(lines []api.CartInput) {
	e.mu.Lock()
	e.lines = append([]api.CartInput(nil), lines...)
	e.mu.Unlock()
	e.reresolve()
}

// SetSubtotal records the server-priced subtotal in minor units.
func (e *Engine) SetSubtotal(subtotal int) {
	e.mu.Lock()
	e.subtotal = subtotal
	e.hasSubtotal = true
	e.mu.Unlock()
}

// SetSavedAddresses replaces the signed-in user's saved addresses.
func (e *Engine) SetSavedAddresses(addrs []api.Address) {
	e.mu.Lock()
	e.saved = append([]api.Address(nil), addrs...)
	e.mu.Unlock()
	e.reresolve()
}

// SetShippingSelection applies the shipping address choice.
func (e *Engine) SetShippingSelection(sel Selection) {
	e.mu.Lock()
	e.shippingSel = sel
	e.mu.Unlock()
	e.reresolve()
}

// SetBillingSelection applies the billing address choice.
func (e *Engine) SetBillingSelection(sel Selection) {
	e.mu.Lock()
	e.billingSel = sel
	e.mu.Unlock()
	e.reresolve()
}

// ShippingSelection returns the current shipping address choice.
func (e *Engine) ShippingSelection() Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shippingSel
}

// BillingSelection returns the current billing address choice.
func (e *Engine) BillingSelection() Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.billingSel
}

// SavedAddresses returns the addresses available to the existing-address mode.
func (e *Engine) SavedAddresses() []api.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]api.Address(nil), e.saved...)
}

// SelectShippingRate picks the 1-based option index; 0 clears the choice.
func (e *Engine) SelectShippingRate(index int) {
	e.mu.Lock()
	e.selectedRate = index
	e.mu.Unlock()
}

// SetPaymentRequestable records the payment widget's readiness signal.
func (e *Engine) SetPaymentRequestable(ok bool) {
	e.mu.Lock()
	e.paymentRequestable = ok
	e.mu.Unlock()
}

// resolvedLocked computes both resolved addresses under the lock.
func (e *Engine) resolvedLocked() (shipping, billing *api.Address, saveShipping, saveBilling bool) {
	shipping, saveShipping = Resolve(e.shippingSel, e.saved, nil)
	billing, saveBilling = Resolve(e.billingSel, e.saved, shipping)
	return
}

// reresolve feeds the debouncers from the current selections. An unresolved
// address clears its debouncer, which drops any pending timer and leaves the
// corresponding quote stale.
func (e *Engine) reresolve() {
	e.mu.Lock()
	shipping, billing, _, _ := e.resolvedLocked()
	e.mu.Unlock()

	if shipping != nil {
		e.shipDeb.Set(*shipping)
	} else {
		e.shipDeb.Clear()
	}
	if billing != nil {
		e.billDeb.Set(*billing)
	} else {
		e.billDeb.Clear()
	}
}

// fetchTaxes runs when the billing address settles. The response is applied
// only if its generation is still current and the settled address has not
// moved on; superseded responses are ignored, not cancelled.
func (e *Engine) fetchTaxes(addr api.Address) {
	e.mu.Lock()
	e.taxQuote.gen++
	gen := e.taxQuote.gen
	e.taxQuote.inflight = true
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), quoteTimeout)
	defer cancel()
	rates, err := e.quoter.Taxes(ctx, addr)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.taxQuote.gen {
		return
	}
	e.taxQuote = quote{addr: addr, hasAddr: true, gen: gen, err: err}
	e.taxRates = rates
	if err != nil {
		e.logger.Debug("tax quote failed", zap.Error(err))
	}
}

func (e *Engine) fetchShipping(addr api.Address) {
	e.mu.Lock()
	e.shipQuote.gen++
	gen := e.shipQuote.gen
	e.shipQuote.inflight = true
	lines := append([]api.CartInput(nil), e.lines...)
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), quoteTimeout)
	defer cancel()
	rates, err := e.quoter.ShippingEstimations(ctx, addr, lines)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.shipQuote.gen {
		return
	}
	e.shipQuote = quote{addr: addr, hasAddr: true, gen: gen, err: err}
	e.shipRates = rates
	if err != nil {
		e.logger.Debug("shipping quote failed", zap.Error(err))
	}
}

// taxDoneLocked reports whether a tax response, success or failure, has
// landed for exactly the live billing address. Everything short of that,
// including the instant between the debouncer emitting and the fetch taking
// the lock, counts as still pending.
func (e *Engine) taxDoneLocked(billing *api.Address) bool {
	return billing != nil &&
		e.taxQuote.hasAddr && !e.taxQuote.inflight && e.taxQuote.addr == *billing
}

func (e *Engine) shipDoneLocked(shipping *api.Address) bool {
	return shipping != nil &&
		e.shipQuote.hasAddr && !e.shipQuote.inflight && e.shipQuote.addr == *shipping
}

// taxUsableLocked reports whether the tax quote matches the live billing
// address. A mismatch means the quote is stale and must render as unknown.
func (e *Engine) taxUsableLocked(billing *api.Address) bool {
	return e.taxDoneLocked(billing) && e.taxQuote.err == nil && e.taxRates != nil
}

func (e *Engine) shippingUsableLocked(shipping *api.Address) bool {
	return e.shipDoneLocked(shipping) && e.shipQuote.err == nil
}

func (e *Engine) selectedRateLocked(shipping *api.Address) *api.ShippingRate {
	if !e.shippingUsableLocked(shipping) {
		return nil
	}
	if e.selectedRate < 1 || e.selectedRate > len(e.shipRates) {
		return nil
	}
	rate := e.shipRates[e.selectedRate-1]
	return &rate
}

// taxesLocked derives the tax amount: round(subtotal * totalRate), half away
// from zero.
func (e *Engine) taxesLocked(billing *api.Address) (int, bool) {
	if !e.hasSubtotal || !e.taxUsableLocked(billing) {
		return 0, false
	}
	return int(math.Round(float64(e.subtotal) * e.taxRates.TotalRate)), true
}

// Snapshot is the deterministic view of the engine for rendering.
type Snapshot struct {
	Subtotal    int
	HasSubtotal bool

	ShippingResolved bool
	BillingResolved  bool

	Taxes        int
	TaxesKnown   bool
	TaxesPending bool
	TaxError     error

	ShippingRates   []api.ShippingRate
	ShippingPending bool
	ShippingError   error
	SelectedRate    *api.ShippingRate
	SelectedIndex   int

	Total      int
	TotalKnown bool

	PaymentRequestable bool
	Submitting         bool
	Ready              bool
	Receipt            *api.Receipt
	CartEmpty          bool
}

// Snapshot computes the current derived view. A quote renders as pending
// from the moment its address resolves until a response for that exact
// address lands; stale quotes render as unknown, never as their old values.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	shipping, billing, _, _ := e.resolvedLocked()

	snap := Snapshot{
		Subtotal:           e.subtotal,
		HasSubtotal:        e.hasSubtotal,
		ShippingResolved:   shipping != nil,
		BillingResolved:    billing != nil,
		PaymentRequestable: e.paymentRequestable,
		Submitting:         e.submitting,
		Receipt:            e.receipt,
		CartEmpty:          len(e.lines) == 0,
		SelectedIndex:      e.selectedRate,
	}

	snap.TaxesPending = billing != nil && !e.taxDoneLocked(billing)
	if e.taxDoneLocked(billing) {
		snap.TaxError = e.taxQuote.err
	}
	snap.Taxes, snap.TaxesKnown = e.taxesLocked(billing)

	snap.ShippingPending = shipping != nil && !e.shipDoneLocked(shipping)
	if e.shipDoneLocked(shipping) {
		snap.ShippingError = e.shipQuote.err
	}
	if e.shippingUsableLocked(shipping) {
		snap.ShippingRates = append([]api.ShippingRate(nil), e.shipRates...)
	}
	snap.SelectedRate = e.selectedRateLocked(shipping)

	if rate := snap.SelectedRate; rate != nil && snap.TaxesKnown && snap.HasSubtotal {
		snap.Total = snap.Subtotal + snap.Taxes + rate.Price
		snap.TotalKnown = true
	}

	snap.Ready = !e.submitting &&
		shipping != nil &&
		billing != nil &&
		snap.TaxesKnown &&
		snap.SelectedRate != nil &&
		e.paymentRequestable &&
		len(e.lines) > 0

	return snap
}

// Submit runs the order flow once: request a payment nonce, then create the
// order, then clear the cart. The submitting latch rejects a second call
// while one is in flight. A payment-provider failure aborts before the order
// mutation and preserves cart and form state for a retry.
func (e *Engine) Submit(ctx context.Context, provider PaymentProvider) (*api.Receipt, error) {
	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	shipping, billing, saveShipping, saveBilling := e.resolvedLocked()
	taxes, taxesKnown := e.taxesLocked(billing)
	rate := e.selectedRateLocked(shipping)
	ready := shipping != nil && billing != nil && taxesKnown && rate != nil &&
		e.paymentRequestable && len(e.lines) > 0
	if !ready {
		e.mu.Unlock()
		return nil, ErrNotReady
	}
	total := e.subtotal + taxes + rate.Price
	lines := append([]api.CartInput(nil), e.lines...)
	e.submitting = true
	e.paymentRequestable = false
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.submitting = false
		e.mu.Unlock()
	}()

	nonce, err := provider.RequestPaymentMethod(ctx)
	if err != nil {
		return nil, api.NewPaymentError(err.Error())
	}

	receipt, err := e.orders.SubmitTransaction(ctx, api.SubmitTransactionInput{
		Nonce:               nonce,
		LineItems:           lines,
		ShippingRateID:      rate.ID,
		Total:               total,
		ShippingAddress:     *shipping,
		SaveShippingAddress: saveShipping,
		BillingAddress:      *billing,
		SaveBillingAddress:  saveBilling,
	})
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.receipt = receipt
	e.mu.Unlock()
	if e.cart != nil {
		e.cart.Clear()
	}
	return receipt, nil
}
