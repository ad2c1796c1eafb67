package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gostore.dev/web/internal/api"
	"gostore.dev/web/internal/checkout"
	"gostore.dev/web/internal/format"
)

// CheckoutView is the checkout page model.
type CheckoutView struct {
	Saved       []api.Address
	Shipping    AddressSectionView
	Billing     AddressSectionView
	Summary     CheckoutSummaryView
	ClientToken string
	CSRFToken   string
}

// AddressSectionView renders one address role's selector and inline form.
type AddressSectionView struct {
	Role          string
	Mode          string
	ExistingID    int
	Draft         checkout.Draft
	AllowSameAs   bool
	MissingFields []string
}

// CheckoutSummaryView is the totals panel, re-rendered as quotes settle.
type CheckoutSummaryView struct {
	CartEmpty bool

	Subtotal string

	TaxesKnown   bool
	TaxesPending bool
	Taxes        string

	Rates           []RateView
	ShippingPending bool
	SelectedIndex   int

	TotalKnown bool
	Total      string

	Ready      bool
	Submitting bool
	Errors     []string
	CSRFToken  string

	// Pending drives the htmx polling loop: the fragment keeps refreshing
	// until every requested quote has settled.
	Pending bool
}

// RateView is one quoted shipping option.
type RateView struct {
	Index    int
	Carrier  string
	Service  string
	Price    string
	Duration string
	Selected bool
}

func buildSummaryView(snap checkout.Snapshot, csrfToken string, errs []string) CheckoutSummaryView {
	view := CheckoutSummaryView{
		CartEmpty:       snap.CartEmpty,
		TaxesKnown:      snap.TaxesKnown,
		TaxesPending:    snap.TaxesPending,
		ShippingPending: snap.ShippingPending,
		SelectedIndex:   snap.SelectedIndex,
		TotalKnown:      snap.TotalKnown,
		Ready:           snap.Ready,
		Submitting:      snap.Submitting,
		Errors:          errs,
		CSRFToken:       csrfToken,
		Pending:         snap.TaxesPending || snap.ShippingPending,
	}
	if snap.HasSubtotal {
		view.Subtotal = format.Cents(snap.Subtotal)
	}
	if snap.TaxesKnown {
		view.Taxes = format.Cents(snap.Taxes)
	}
	if snap.TotalKnown {
		view.Total = format.Cents(snap.Total)
	}
	for i, rate := range snap.ShippingRates {
		view.Rates = append(view.Rates, RateView{
			Index:    i + 1,
			Carrier:  rate.Carrier,
			Service:  rate.Service,
			Price:    format.Cents(rate.Price),
			Duration: rate.DurationTerms,
			Selected: snap.SelectedRate != nil && snap.SelectedIndex == i+1,
		})
	}
	if snap.TaxError != nil {
		view.Errors = append(view.Errors, "Tax quote failed, adjust the billing address to retry.")
	}
	if snap.ShippingError != nil {
		view.Errors = append(view.Errors, "Shipping quote failed, adjust the shipping address to retry.")
	}
	return view
}

func sectionView(role string, sel checkout.Selection, allowSameAs bool) AddressSectionView {
	view := AddressSectionView{
		Role:        role,
		ExistingID:  sel.ExistingID,
		Draft:       sel.Draft,
		AllowSameAs: allowSameAs,
	}
	switch sel.Mode {
	case checkout.ModeExisting:
		view.Mode = "existing"
	case checkout.ModeSameAsShipping:
		view.Mode = "same"
	default:
		view.Mode = "new"
		view.MissingFields = checkout.MissingDraftFields(sel.Draft)
	}
	return view
}

// ReceiptView is the order confirmation page model.
type ReceiptView struct {
	OrderID  int
	Subtotal string
	Taxes    string
	Shipping string
	Total    string
	Items    []ReceiptItemView
}

// ReceiptItemView is one purchased line on the confirmation page.
type ReceiptItemView struct {
	Name     string
	Options  string
	Quantity int
	Price    string
}

func buildReceiptView(receipt api.Receipt) ReceiptView {
	view := ReceiptView{
		OrderID:  receipt.ID,
		Subtotal: format.Cents(receipt.Subtotal),
		Taxes:    format.Cents(receipt.Taxes),
		Shipping: format.Cents(receipt.Shipping),
		Total:    format.Cents(receipt.Total),
	}
	for _, item := range receipt.LineItems {
		line := ReceiptItemView{
			Quantity: item.Quantity,
			Price:    format.Cents(item.Price),
		}
		if item.Variant != nil {
			line.Name = item.Variant.Name
			line.Options = optionSummary(item.Variant.SelectedOptions)
		}
		view.Items = append(view.Items, line)
	}
	return view
}

// parseSelection reads one address role's posted fields: <role>_mode plus
// either the existing-address id or the inline draft.
func parseSelection(form url.Values, role string) checkout.Selection {
	field := func(name string) string {
		return strings.TrimSpace(form.Get(fmt.Sprintf("%s_%s", role, name)))
	}
	switch field("mode") {
	case "existing":
		id, _ := strconv.Atoi(field("existing"))
		return checkout.Selection{Mode: checkout.ModeExisting, ExistingID: id}
	case "same":
		return checkout.Selection{Mode: checkout.ModeSameAsShipping}
	default:
		return checkout.Selection{
			Mode: checkout.ModeNew,
			Draft: checkout.Draft{
				Name:       field("name"),
				Line1:      field("line1"),
				Line2:      field("line2"),
				Line3:      field("line3"),
				City:       field("city"),
				Region:     field("region"),
				PostalCode: field("postal"),
				Country:    field("country"),
				Save:       field("save") != "",
			},
		}
	}
}
