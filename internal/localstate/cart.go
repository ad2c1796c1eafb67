package localstate

import (
	"encoding/json"
	"sort"
)

// Line is a single cart entry keyed by variant.
type Line struct {
	VariantID int `json:"variantId"`
	Quantity  int `json:"quantity"`
}

type cartPayload struct {
	Variants []Line `json:"variants"`
}

// CartStore reads and mutates the persisted cart. Mutations are synchronous
// and last-write-wins; the store has a single writer per session so no
// conflict resolution is needed.
type CartStore struct {
	port Port
}

// NewCartStore wraps the provided persistence port.
func NewCartStore(port Port) *CartStore {
	return &CartStore{port: port}
}

// Lines returns the persisted cart lines sorted by variant id. A missing or
// unreadable payload yields an empty cart.
func (s *CartStore) Lines() []Line {
	raw, ok := s.port.Get(CartKey)
	if !ok || raw == "" {
		return nil
	}
	var payload cartPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	sort.Slice(payload.Variants, func(i, j int) bool {
		return payload.Variants[i].VariantID < payload.Variants[j].VariantID
	})
	return payload.Variants
}

// ChangeQuantity adjusts a line's quantity by delta. A line that would drop
// below 1 is clamped to 1 rather than removed; explicit removal goes through
// Remove. A missing line is created with quantity max(delta, 1).
func (s *CartStore) ChangeQuantity(variantID, delta int) {
	lines := s.Lines()
	found := false
	for i := range lines {
		if lines[i].VariantID != variantID {
			continue
		}
		found = true
		q := lines[i].Quantity + delta
		if q < 1 {
			q = 1
		}
		lines[i].Quantity = q
	}
	if !found {
		q := delta
		if q < 1 {
			q = 1
		}
		lines = append(lines, Line{VariantID: variantID, Quantity: q})
	}
	s.write(lines)
}

// Remove deletes the line outright regardless of quantity.
func (s *CartStore) Remove(variantID int) {
	lines := s.Lines()
	kept := lines[:0]
	for _, l := range lines {
		if l.VariantID != variantID {
			kept = append(kept, l)
		}
	}
	s.write(kept)
}

// Clear empties the cart. Called after a successful order.
func (s *CartStore) Clear() {
	s.write(nil)
}

// IsEmpty reports whether the cart holds no lines.
func (s *CartStore) IsEmpty() bool {
	return len(s.Lines()) == 0
}

func (s *CartStore) write(lines []Line) {
	if lines == nil {
		lines = []Line{}
	}
	b, err := json.Marshal(cartPayload{Variants: lines})
	if err != nil {
		return
	}
	s.port.Set(CartKey, string(b))
}
