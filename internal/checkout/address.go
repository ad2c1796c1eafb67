// Package checkout implements the derived-state computation behind the
// checkout page: address selection and resolution, debounced tax/shipping
// quoting with stale-response discard, total computation, and the readiness
// gate for order submission.
package checkout

import (
	"strings"

	"gostore.dev/web/internal/api"
)

// Mode picks how an address is supplied for one role.
type Mode int

const (
	// ModeExisting references a previously saved address by id.
	ModeExisting Mode = iota
	// ModeNew builds the address from the inline draft fields.
	ModeNew
	// ModeSameAsShipping mirrors the resolved shipping address. Billing only.
	ModeSameAsShipping
)

// Draft carries the inline address fields plus the save-after-order flag.
type Draft struct {
	Name       string
	Line1      string
	Line2      string
	Line3      string
	City       string
	Region     string
	PostalCode string
	Country    string
	Save       bool
}

// Selection is the tagged address choice for one role. Exactly one mode is
// active at a time.
type Selection struct {
	Mode       Mode
	ExistingID int
	Draft      Draft
}

// Resolve turns a selection into a concrete address, or nil when the
// selection is incomplete. The second return is the save flag, meaningful
// only for new drafts.
//
// otherResolved is the resolved shipping address, consulted only for
// ModeSameAsShipping.
func Resolve(sel Selection, saved []api.Address, otherResolved *api.Address) (*api.Address, bool) {
	switch sel.Mode {
	case ModeExisting:
		for i := range saved {
			if saved[i].ID == sel.ExistingID {
				addr := saved[i]
				return &addr, false
			}
		}
		return nil, false
	case ModeSameAsShipping:
		if otherResolved == nil {
			return nil, false
		}
		addr := *otherResolved
		return &addr, false
	default:
		if !draftComplete(sel.Draft) {
			return nil, sel.Draft.Save
		}
		return &api.Address{
			Name:       sel.Draft.Name,
			Line1:      sel.Draft.Line1,
			Line2:      sel.Draft.Line2,
			Line3:      sel.Draft.Line3,
			City:       sel.Draft.City,
			Region:     sel.Draft.Region,
			PostalCode: sel.Draft.PostalCode,
			Country:    sel.Draft.Country,
		}, sel.Draft.Save
	}
}

// draftComplete checks the required fields; line2/line3 are optional.
func draftComplete(d Draft) bool {
	for _, field := range []string{d.Name, d.Line1, d.City, d.Region, d.PostalCode, d.Country} {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}

// MissingDraftFields names the required draft fields that are still empty,
// for client-side validation messages.
func MissingDraftFields(d Draft) []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", d.Name},
		{"line1", d.Line1},
		{"city", d.City},
		{"region", d.Region},
		{"postalCode", d.PostalCode},
		{"country", d.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
