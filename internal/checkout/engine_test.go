package checkout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gostore.dev/web/internal/api"
)

const testInterval = 10 * time.Millisecond

type fakeQuoter struct {
	mu        sync.Mutex
	taxRate   float64
	taxErr    error
	rates     []api.ShippingRate
	ratesErr  error
	taxCalls  atomic.Int32
	rateCalls atomic.Int32
}

func (q *fakeQuoter) Taxes(ctx context.Context, address api.Address) (*api.TaxRates, error) {
	q.taxCalls.Add(1)
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.taxErr != nil {
		return nil, q.taxErr
	}
	return &api.TaxRates{TotalRate: q.taxRate}, nil
}

func (q *fakeQuoter) ShippingEstimations(ctx context.Context, address api.Address, lines []api.CartInput) ([]api.ShippingRate, error) {
	q.rateCalls.Add(1)
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ratesErr != nil {
		return nil, q.ratesErr
	}
	return q.rates, nil
}

type fakeOrders struct {
	mu    sync.Mutex
	calls int
	last  api.SubmitTransactionInput
	err   error
}

func (o *fakeOrders) SubmitTransaction(ctx context.Context, in api.SubmitTransactionInput) (*api.Receipt, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	o.last = in
	if o.err != nil {
		return nil, o.err
	}
	return &api.Receipt{ID: 42, Total: in.Total}, nil
}

type fakeCart struct{ cleared atomic.Bool }

func (c *fakeCart) Clear() { c.cleared.Store(true) }

type nonceProvider struct {
	nonce string
	err   error
	block chan struct{}
}

func (p *nonceProvider) RequestPaymentMethod(ctx context.Context) (string, error) {
	if p.block != nil {
		<-p.block
	}
	if p.err != nil {
		return "", p.err
	}
	return p.nonce, nil
}

func newTestEngine(q *fakeQuoter, orders *fakeOrders, cart *fakeCart) *Engine {
	return NewEngine(q, orders, cart, testInterval, nil)
}

func homeDraft() Draft {
	return Draft{Name: "Jamie", Line1: "5 Elm St", City: "Eugene", Region: "OR", PostalCode: "97401", Country: "US"}
}

// driveToReady walks the engine into a fully quoted, submittable state.
func driveToReady(t *testing.T, e *Engine) {
	t.Helper()
	e.SetCart([]api.CartInput{{VariantID: 1, Quantity: 2}})
	e.SetSubtotal(10000)
	e.SetShippingSelection(Selection{Mode: ModeNew, Draft: homeDraft()})
	e.SetBillingSelection(Selection{Mode: ModeSameAsShipping})
	e.SelectShippingRate(1)
	e.SetPaymentRequestable(true)

	require.Eventually(t, func() bool {
		snap := e.Snapshot()
		return snap.TaxesKnown && snap.SelectedRate != nil
	}, 2*time.Second, 5*time.Millisecond)
}

func TestTotalsComputation(t *testing.T) {
	q := &fakeQuoter{taxRate: 0.07, rates: []api.ShippingRate{{ID: "rate-1", Carrier: "USPS", Service: "Priority", Price: 500}}}
	e := newTestEngine(q, &fakeOrders{}, &fakeCart{})
	driveToReady(t, e)

	snap := e.Snapshot()
	require.Equal(t, 10000, snap.Subtotal)
	require.Equal(t, 700, snap.Taxes)
	require.True(t, snap.TotalKnown)
	require.Equal(t, 11200, snap.Total)
	require.True(t, snap.Ready)
}

func TestReadinessFalseWithEmptyCart(t *testing.T) {
	q := &fakeQuoter{taxRate: 0.07, rates: []api.ShippingRate{{ID: "rate-1", Price: 500}}}
	e := newTestEngine(q, &fakeOrders{}, &fakeCart{})
	driveToReady(t, e)

	e.SetCart(nil)
	snap := e.Snapshot()
	require.True(t, snap.CartEmpty)
	require.False(t, snap.Ready)
}

func TestStaleTaxQuoteRendersUnknown(t *testing.T) {
	q := &fakeQuoter{taxRate: 0.07, rates: []api.ShippingRate{{ID: "rate-1", Price: 500}}}
	// long window so the re-quote cannot fire before the assertion below
	e := NewEngine(q, &fakeOrders{}, &fakeCart{}, 500*time.Millisecond, nil)
	driveToReady(t, e)

	// Move the billing address; before the new debounce window fires the old
	// quote no longer matches the live address and must not be used.
	draft := homeDraft()
	draft.PostalCode = "97330"
	e.SetBillingSelection(Selection{Mode: ModeNew, Draft: draft})

	snap := e.Snapshot()
	require.False(t, snap.TaxesKnown)
	require.False(t, snap.TotalKnown)
	require.False(t, snap.Ready)
}

func TestQuoteStaysPendingUntilResponseLands(t *testing.T) {
	q := &fakeQuoter{taxRate: 0.07, rates: []api.ShippingRate{{ID: "rate-1", Price: 500}}}
	e := newTestEngine(q, &fakeOrders{}, &fakeCart{})
	// detach the tax fetch so the debouncer settles with no quote arriving,
	// standing in for the moment between emission and the fetch starting
	e.billDeb = NewDebouncer[api.Address](testInterval, nil)

	e.SetCart([]api.CartInput{{VariantID: 1, Quantity: 1}})
	e.SetSubtotal(10000)
	e.SetShippingSelection(Selection{Mode: ModeNew, Draft: homeDraft()})
	e.SetBillingSelection(Selection{Mode: ModeSameAsShipping})

	require.Eventually(t, func() bool {
		return e.billDeb.Settled()
	}, time.Second, time.Millisecond)

	// settled address with no response yet must keep reporting pending, or
	// the summary stops polling and never picks up the quote
	snap := e.Snapshot()
	require.False(t, snap.TaxesKnown)
	require.True(t, snap.TaxesPending)
}

func TestIdenticalAddressDoesNotDuplicateQuoteRequests(t *testing.T) {
	q := &fakeQuoter{taxRate: 0.07, rates: []api.ShippingRate{{ID: "rate-1", Price: 500}}}
	e := newTestEngine(q, &fakeOrders{}, &fakeCart{})
	driveToReady(t, e)

	taxCalls := q.taxCalls.Load()
	// re-applying a content-equal selection must not re-trigger quoting
	e.SetBillingSelection(Selection{Mode: ModeSameAsShipping})
	e.SetShippingSelection(Selection{Mode: ModeNew, Draft: homeDraft()})
	time.Sleep(5 * testInterval)
	require.Equal(t, taxCalls, q.taxCalls.Load())
}

func TestQuoteFailureDegradesToUnknown(t *testing.T) {
	q := &fakeQuoter{taxErr: errors.New("tax service unavailable"), rates: []api.ShippingRate{{ID: "rate-1", Price: 500}}}
	e := newTestEngine(q, &fakeOrders{}, &fakeCart{})
	e.SetCart([]api.CartInput{{VariantID: 1, Quantity: 1}})
	e.SetSubtotal(10000)
	e.SetShippingSelection(Selection{Mode: ModeNew, Draft: homeDraft()})
	e.SetBillingSelection(Selection{Mode: ModeSameAsShipping})

	require.Eventually(t, func() bool {
		return e.Snapshot().TaxError != nil
	}, time.Second, 5*time.Millisecond)

	snap := e.Snapshot()
	require.False(t, snap.TaxesKnown)
	require.False(t, snap.TotalKnown)
	// shipping options still arrived; the rest of the page is not blocked
	require.NotEmpty(t, snap.ShippingRates)
}

func TestSubmitHappyPathClearsCart(t *testing.T) {
	q := &fakeQuoter{taxRate: 0.07, rates: []api.ShippingRate{{ID: "rate-1", Price: 500}}}
	orders := &fakeOrders{}
	cart := &fakeCart{}
	e := newTestEngine(q, orders, cart)
	driveToReady(t, e)

	receipt, err := e.Submit(context.Background(), &nonceProvider{nonce: "fake-nonce"})
	require.NoError(t, err)
	require.Equal(t, 42, receipt.ID)
	require.True(t, cart.cleared.Load())

	require.Equal(t, "fake-nonce", orders.last.Nonce)
	require.Equal(t, "rate-1", orders.last.ShippingRateID)
	require.Equal(t, 11200, orders.last.Total)
	require.Zero(t, orders.last.ShippingAddress.ID, "draft address goes inline")
}

func TestSubmitPaymentFailureAbortsBeforeOrder(t *testing.T) {
	q := &fakeQuoter{taxRate: 0.07, rates: []api.ShippingRate{{ID: "rate-1", Price: 500}}}
	orders := &fakeOrders{}
	cart := &fakeCart{}
	e := newTestEngine(q, orders, cart)
	driveToReady(t, e)

	_, err := e.Submit(context.Background(), &nonceProvider{err: errors.New("card declined")})
	require.Error(t, err)
	apiErr, ok := err.(*api.Error)
	require.True(t, ok)
	require.Equal(t, api.KindPayment, apiErr.Kind)
	require.Zero(t, orders.calls, "order mutation must not run")
	require.False(t, cart.cleared.Load(), "cart preserved for retry")
}

func TestSubmitLatchRejectsConcurrentSubmission(t *testing.T) {
	q := &fakeQuoter{taxRate: 0.07, rates: []api.ShippingRate{{ID: "rate-1", Price: 500}}}
	e := newTestEngine(q, &fakeOrders{}, &fakeCart{})
	driveToReady(t, e)

	block := make(chan struct{})
	first := make(chan error, 1)
	go func() {
		_, err := e.Submit(context.Background(), &nonceProvider{nonce: "n", block: block})
		first <- err
	}()

	require.Eventually(t, func() bool {
		return e.Snapshot().Submitting
	}, time.Second, time.Millisecond)

	_, err := e.Submit(context.Background(), &nonceProvider{nonce: "n2"})
	require.ErrorIs(t, err, ErrSubmitInFlight)

	close(block)
	require.NoError(t, <-first)
}
