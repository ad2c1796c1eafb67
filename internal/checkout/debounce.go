package checkout

import (
	"sync"
	"time"
)

// Debouncer emits the latest value only once it has stayed unchanged for the
// configured interval. Every distinct new value restarts the window; setting
// the same value again does not. Clearing drops both the pending timer and
// the emitted value.
//
// Values are compared by content, so identical consecutive addresses never
// restart the window or re-emit.
type Debouncer[T comparable] struct {
	mu       sync.Mutex
	interval time.Duration
	onEmit   func(T)

	live    T
	hasLive bool

	emitted    T
	hasEmitted bool

	timer *time.Timer
	gen   uint64
}

// NewDebouncer builds a debouncer with the given stability window. onEmit,
// when non-nil, fires outside the lock after each emission.
func NewDebouncer[T comparable](interval time.Duration, onEmit func(T)) *Debouncer[T] {
	if interval <= 0 {
		interval = time.Second
	}
	return &Debouncer[T]{interval: interval, onEmit: onEmit}
}

// Set feeds a new live value and (re)arms the window. A pending timer for a
// superseded value is invalidated by the generation counter and never emits.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	if d.hasLive && d.live == v {
		d.mu.Unlock()
		return
	}
	d.live = v
	d.hasLive = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() { d.fire(gen) })
	d.mu.Unlock()
}

// Clear resets to the unresolved state: no live value, no emission, any
// pending timer invalidated.
func (d *Debouncer[T]) Clear() {
	d.mu.Lock()
	var zero T
	d.live = zero
	d.hasLive = false
	d.emitted = zero
	d.hasEmitted = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.hasLive {
		d.mu.Unlock()
		return
	}
	d.emitted = d.live
	d.hasEmitted = true
	v := d.emitted
	emit := d.onEmit
	d.mu.Unlock()
	if emit != nil {
		emit(v)
	}
}

// Live returns the most recent input value.
func (d *Debouncer[T]) Live() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live, d.hasLive
}

// Value returns the settled (debounced) value, if any has emitted.
func (d *Debouncer[T]) Value() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.emitted, d.hasEmitted
}

// Settled reports whether the live value has emitted, i.e. live and
// debounced agree and no timer is pending.
func (d *Debouncer[T]) Settled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hasLive && d.hasEmitted && d.live == d.emitted
}
