package main

import (
	"strings"

	"gostore.dev/web/internal/api"
	"gostore.dev/web/internal/format"
	"gostore.dev/web/internal/localstate"
)

// CartView aggregates the cart page and its table fragment.
type CartView struct {
	Items     []CartItem
	Empty     bool
	Subtotal  string
	Count     int
	CSRFToken string
}

// CartItem is one rendered cart line.
type CartItem struct {
	VariantID int
	Name      string
	Options   string
	ImageURL  string
	Quantity  int
	UnitPrice string
	LineTotal string
}

// buildCartView joins the persisted lines with their variant records. Lines
// whose variant no longer exists render without details rather than breaking
// the page.
func buildCartView(lines []localstate.Line, variants []api.Variant, subtotal int, csrfToken string) CartView {
	byID := make(map[int]api.Variant, len(variants))
	for _, variant := range variants {
		byID[variant.ID] = variant
	}

	view := CartView{
		Empty:     len(lines) == 0,
		Subtotal:  format.Cents(subtotal),
		CSRFToken: csrfToken,
	}
	for _, line := range lines {
		item := CartItem{
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
		}
		if variant, ok := byID[line.VariantID]; ok {
			item.Name = variant.Name
			item.Options = optionSummary(variant.SelectedOptions)
			item.UnitPrice = format.Cents(variant.Price)
			item.LineTotal = format.Cents(variant.Price * line.Quantity)
			if len(variant.Images) > 0 {
				item.ImageURL = variant.Images[0].Height600
			}
		}
		view.Items = append(view.Items, item)
		view.Count += line.Quantity
	}
	return view
}

func optionSummary(options []api.OptionValue) string {
	values := make([]string, 0, len(options))
	for _, opt := range options {
		values = append(values, opt.Value)
	}
	return strings.Join(values, " / ")
}

func cartInputs(lines []localstate.Line) []api.CartInput {
	inputs := make([]api.CartInput, 0, len(lines))
	for _, line := range lines {
		inputs = append(inputs, api.CartInput{VariantID: line.VariantID, Quantity: line.Quantity})
	}
	return inputs
}

func variantIDs(lines []localstate.Line) []int {
	ids := make([]int, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.VariantID)
	}
	return ids
}
