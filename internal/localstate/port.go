// Package localstate holds the per-visitor persisted state: the cart line
// items and the auth token pair. State lives behind a small key/value Port so
// the same stores work against the signed session cookie in production and an
// in-memory map in tests.
package localstate

import "sync"

// Port is the persistence surface the stores write through. Values are
// JSON-encoded strings; a missing key decodes to the empty default.
type Port interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// Storage keys. Both payloads are JSON documents.
const (
	CartKey = "cart"
	AuthKey = "auth"
)

// MemoryPort is a Port backed by a map. It is the test double and also the
// session-scoped fallback when no cookie state is available yet.
type MemoryPort struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemoryPort returns an empty in-memory port.
func NewMemoryPort() *MemoryPort {
	return &MemoryPort{m: map[string]string{}}
}

func (p *MemoryPort) Get(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.m[key]
	return v, ok
}

func (p *MemoryPort) Set(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[key] = value
}

func (p *MemoryPort) Delete(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, key)
}
