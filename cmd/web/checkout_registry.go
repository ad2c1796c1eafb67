package main

import (
	"context"
	"sync"
	"time"

	"gostore.dev/web/internal/api"
	"gostore.dev/web/internal/checkout"
	"gostore.dev/web/internal/localstate"
)

const checkoutIdleTTL = time.Hour

// sessionBackend adapts the engine's collaborators to whichever request is
// current. Engines outlive individual requests, but API credentials and the
// cart belong to the request's session, so every checkout request rebinds
// before touching the engine.
type sessionBackend struct {
	mu   sync.Mutex
	api  *api.Client
	cart *localstate.CartStore
}

func (b *sessionBackend) rebind(v *visitor) {
	b.mu.Lock()
	b.api = v.api
	b.cart = v.cart
	b.mu.Unlock()
}

func (b *sessionBackend) current() (*api.Client, *localstate.CartStore) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.api, b.cart
}

func (b *sessionBackend) Taxes(ctx context.Context, address api.Address) (*api.TaxRates, error) {
	c, _ := b.current()
	return c.Taxes(ctx, address)
}

func (b *sessionBackend) ShippingEstimations(ctx context.Context, address api.Address, lines []api.CartInput) ([]api.ShippingRate, error) {
	c, _ := b.current()
	return c.ShippingEstimations(ctx, address, lines)
}

func (b *sessionBackend) SubmitTransaction(ctx context.Context, in api.SubmitTransactionInput) (*api.Receipt, error) {
	c, _ := b.current()
	return c.SubmitTransaction(ctx, in)
}

func (b *sessionBackend) Clear() {
	_, cart := b.current()
	cart.Clear()
}

// checkoutRegistry keeps one checkout engine per session for the duration of
// the flow. Engines hold debounce timers and in-flight quote state between
// requests; idle entries are evicted on access.
type checkoutRegistry struct {
	app      *app
	debounce time.Duration

	mu      sync.Mutex
	entries map[string]*checkoutEntry
}

type checkoutEntry struct {
	engine   *checkout.Engine
	backend  *sessionBackend
	lastSeen time.Time
}

func newCheckoutRegistry(a *app, debounce time.Duration) *checkoutRegistry {
	return &checkoutRegistry{
		app:      a,
		debounce: debounce,
		entries:  map[string]*checkoutEntry{},
	}
}

// engineFor returns the session's engine bound to the current request's
// visitor, creating it on first use.
func (cr *checkoutRegistry) engineFor(sessionID string, v *visitor) *checkout.Engine {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	now := time.Now()
	for id, entry := range cr.entries {
		if now.Sub(entry.lastSeen) > checkoutIdleTTL {
			delete(cr.entries, id)
		}
	}

	if entry, ok := cr.entries[sessionID]; ok {
		entry.lastSeen = now
		entry.backend.rebind(v)
		return entry.engine
	}
	backend := &sessionBackend{}
	backend.rebind(v)
	engine := checkout.NewEngine(backend, backend, backend, cr.debounce, cr.app.logger)
	cr.entries[sessionID] = &checkoutEntry{engine: engine, backend: backend, lastSeen: now}
	return engine
}

// peek returns the session's engine only if a checkout is already in
// progress, rebinding it to the current visitor.
func (cr *checkoutRegistry) peek(sessionID string, v *visitor) *checkout.Engine {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	entry, ok := cr.entries[sessionID]
	if !ok {
		return nil
	}
	entry.lastSeen = time.Now()
	entry.backend.rebind(v)
	return entry.engine
}

// drop discards the session's engine, ending the flow.
func (cr *checkoutRegistry) drop(sessionID string) {
	cr.mu.Lock()
	delete(cr.entries, sessionID)
	cr.mu.Unlock()
}
