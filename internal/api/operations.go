package api

import (
	"context"
)

// Domain records returned by the API. These pass through to views unchanged.

type Image struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Height600 string `json:"height600"`
}

type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type OptionValue struct {
	ID    int    `json:"id"`
	Value string `json:"value"`
}

type ProductOption struct {
	ID     int           `json:"id"`
	Name   string        `json:"name"`
	Values []OptionValue `json:"values"`
}

type Product struct {
	ID          int             `json:"id"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Details     string          `json:"details"`
	Published   bool            `json:"published"`
	Images      []Image         `json:"images"`
	PriceRange  *PriceRange     `json:"priceRange"`
	Options     []ProductOption `json:"options"`
}

type Variant struct {
	ID              int           `json:"id"`
	Name            string        `json:"name"`
	Price           int           `json:"price"`
	Images          []Image       `json:"images"`
	SelectedOptions []OptionValue `json:"selectedOptions"`
}

// Address mirrors the API's Address type. ID is zero for inline drafts.
type Address struct {
	ID         int    `json:"id,omitempty"`
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	Line3      string `json:"line3,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Input returns the AddressInput shape: the same fields minus the id.
func (a Address) Input() map[string]any {
	in := map[string]any{
		"name":       a.Name,
		"line1":      a.Line1,
		"city":       a.City,
		"region":     a.Region,
		"postalCode": a.PostalCode,
		"country":    a.Country,
	}
	if a.Line2 != "" {
		in["line2"] = a.Line2
	}
	if a.Line3 != "" {
		in["line3"] = a.Line3
	}
	return in
}

type TaxRates struct {
	TotalRate float64 `json:"totalRate"`
}

type ShippingRate struct {
	ID            string `json:"id"`
	Carrier       string `json:"carrier"`
	Service       string `json:"service"`
	Price         int    `json:"price"`
	DurationTerms string `json:"durationTerms"`
}

type ReceiptLineItem struct {
	Price    int      `json:"price"`
	Quantity int      `json:"quantity"`
	Variant  *Variant `json:"variant"`
}

type Receipt struct {
	ID        int               `json:"id"`
	Subtotal  int               `json:"subtotal"`
	Taxes     int               `json:"taxes"`
	Shipping  int               `json:"shipping"`
	Total     int               `json:"total"`
	LineItems []ReceiptLineItem `json:"lineItems"`
}

type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Addresses []Address `json:"addresses"`
	Receipts  []Receipt `json:"receipts"`
}

type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// CartInput is the {variantId, quantity} wire shape shared by subtotal,
// shipping estimation, and order submission.
type CartInput struct {
	VariantID int `json:"variantId"`
	Quantity  int `json:"quantity"`
}

const refreshTokenMutation = `
mutation RefreshToken {
  refreshToken {
    token
    refreshToken
  }
}`

// Catalog fetches one page of the public product catalog.
func (c *Client) Catalog(ctx context.Context, skip, limit int) ([]Product, error) {
	var out struct {
		Catalog []Product `json:"catalog"`
	}
	err := c.Do(ctx, `
query Shop($skip: Int, $limit: Int) {
  catalog(skip: $skip, limit: $limit) {
    id
    slug
    name
    description
    images { id name height600 }
    priceRange { min max }
  }
}`, map[string]any{"skip": skip, "limit": limit}, &out)
	return out.Catalog, err
}

// ProductBySlug fetches one product detail page.
func (c *Client) ProductBySlug(ctx context.Context, slug string) (*Product, error) {
	var out struct {
		Product *Product `json:"product"`
	}
	err := c.Do(ctx, `
query Product($slug: String!) {
  product: productBySlug(slug: $slug) {
    id
    slug
    name
    description
    details
    images { id name height600 }
    priceRange { min max }
    options {
      id
      name
      values { id value }
    }
  }
}`, map[string]any{"slug": slug}, &out)
	return out.Product, err
}

// VariantBySelectedOptions resolves the variant (and price) for a full
// option combination.
func (c *Client) VariantBySelectedOptions(ctx context.Context, productID int, selectedOptions []int) (*Variant, error) {
	var out struct {
		Variant *Variant `json:"variant"`
	}
	err := c.Do(ctx, `
query VariantByOptions($productId: Int!, $selectedOptions: [Int!]!) {
  variant: productVariantBySelectedOptions(
    productId: $productId
    selectedOptions: $selectedOptions
  ) {
    id
    price
  }
}`, map[string]any{"productId": productID, "selectedOptions": selectedOptions}, &out)
	return out.Variant, err
}

// VariantsByIDs loads the variants referenced by the cart.
func (c *Client) VariantsByIDs(ctx context.Context, variantIDs []int) ([]Variant, error) {
	var out struct {
		Variants []Variant `json:"variants"`
	}
	err := c.Do(ctx, `
query CartVariants($variantIds: [Int!]!) {
  variants: productVariantsByIds(variantIds: $variantIds) {
    id
    name
    price
    images { id name height600 }
    selectedOptions { id value }
  }
}`, map[string]any{"variantIds": variantIDs}, &out)
	return out.Variants, err
}

// Me returns the signed-in user with saved addresses and receipts, or a
// NotAuthenticated error for guests.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		Me *User `json:"me"`
	}
	err := c.Do(ctx, `
query Me {
  me {
    id
    email
    addresses { id name line1 line2 line3 city region postalCode country }
    receipts {
      id
      subtotal
      taxes
      shipping
      total
      lineItems {
        price
        quantity
        variant { id name selectedOptions { value } }
      }
    }
  }
}`, nil, &out)
	return out.Me, err
}

// Subtotal prices the cart server-side in minor currency units.
func (c *Client) Subtotal(ctx context.Context, lines []CartInput) (int, error) {
	var out struct {
		Subtotal int `json:"subtotal"`
	}
	err := c.Do(ctx, `
query Subtotal($variants: [CartInput!]!) {
  subtotal(variants: $variants)
}`, map[string]any{"variants": lines}, &out)
	return out.Subtotal, err
}

// Taxes quotes the combined tax rate for a billing address.
func (c *Client) Taxes(ctx context.Context, address Address) (*TaxRates, error) {
	var out struct {
		Taxes *TaxRates `json:"taxes"`
	}
	err := c.Do(ctx, `
query CheckoutTaxes($address: AddressInput!) {
  taxes(address: $address) {
    totalRate
  }
}`, map[string]any{"address": address.Input()}, &out)
	return out.Taxes, err
}

// ShippingEstimations quotes shipping rate options for an address and the
// current line items.
func (c *Client) ShippingEstimations(ctx context.Context, address Address, lines []CartInput) ([]ShippingRate, error) {
	var out struct {
		Estimations []ShippingRate `json:"shippingEstimations"`
	}
	err := c.Do(ctx, `
query CheckoutShipping($address: AddressInput!, $variants: [CartInput!]!) {
  shippingEstimations(address: $address, variants: $variants) {
    id
    carrier
    service
    price
    durationTerms
  }
}`, map[string]any{"address": address.Input(), "variants": lines}, &out)
	return out.Estimations, err
}

// ClientToken obtains the payment widget authorization token.
func (c *Client) ClientToken(ctx context.Context) (string, error) {
	var out struct {
		Token string `json:"braintreeClientToken"`
	}
	err := c.Do(ctx, `
query ClientToken {
  braintreeClientToken
}`, nil, &out)
	return out.Token, err
}

// SubmitTransactionInput carries everything the order mutation needs.
// Addresses go by id when saved, or inline with their save flag.
type SubmitTransactionInput struct {
	Nonce               string
	LineItems           []CartInput
	ShippingRateID      string
	Total               int
	ShippingAddress     Address
	SaveShippingAddress bool
	BillingAddress      Address
	SaveBillingAddress  bool
}

// SubmitTransaction captures payment and creates the order.
func (c *Client) SubmitTransaction(ctx context.Context, in SubmitTransactionInput) (*Receipt, error) {
	vars := map[string]any{
		"braintreeNonce": in.Nonce,
		"lineItems":      in.LineItems,
		"shippingRateId": in.ShippingRateID,
		"total":          in.Total,
	}
	if in.ShippingAddress.ID != 0 {
		vars["shippingAddressId"] = in.ShippingAddress.ID
	} else {
		vars["shippingAddress"] = in.ShippingAddress.Input()
		vars["saveShippingAddress"] = in.SaveShippingAddress
	}
	if in.BillingAddress.ID != 0 {
		vars["billingAddressId"] = in.BillingAddress.ID
	} else {
		vars["billingAddress"] = in.BillingAddress.Input()
		vars["saveBillingAddress"] = in.SaveBillingAddress
	}

	var out struct {
		Receipt *Receipt `json:"receipt"`
	}
	err := c.Do(ctx, `
mutation Checkout(
  $braintreeNonce: String!
  $shippingAddressId: Int
  $shippingAddress: AddressInput
  $saveShippingAddress: Boolean
  $billingAddressId: Int
  $billingAddress: AddressInput
  $saveBillingAddress: Boolean
  $lineItems: [CartInput!]!
  $shippingRateId: String!
  $total: Int!
) {
  receipt: submitBraintreeTransaction(
    braintreeNonce: $braintreeNonce
    variants: $lineItems
    shippingRateId: $shippingRateId
    total: $total
    shippingAddressId: $shippingAddressId
    shippingAddress: $shippingAddress
    saveShippingAddress: $saveShippingAddress
    billingAddressId: $billingAddressId
    billingAddress: $billingAddress
    saveBillingAddress: $saveBillingAddress
  ) {
    id
    subtotal
    taxes
    shipping
    total
    lineItems {
      price
      quantity
      variant { id name selectedOptions { value } }
    }
  }
}`, vars, &out)
	return out.Receipt, err
}

// SignIn exchanges credentials for a token pair.
func (c *Client) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	var out struct {
		SignIn *TokenPair `json:"signIn"`
	}
	err := c.Do(ctx, `
mutation SignIn($email: String!, $password: String!) {
  signIn(email: $email, password: $password) {
    token
    refreshToken
  }
}`, map[string]any{"email": email, "password": password}, &out)
	return out.SignIn, err
}

// SignUp registers a new account and returns its token pair.
func (c *Client) SignUp(ctx context.Context, email, password, confirmPassword string) (*TokenPair, error) {
	var out struct {
		SignUp *TokenPair `json:"signUp"`
	}
	err := c.Do(ctx, `
mutation SignUp($email: String!, $password: String!, $confirmPassword: String!) {
  signUp(email: $email, password: $password, confirmPassword: $confirmPassword) {
    token
    refreshToken
  }
}`, map[string]any{"email": email, "password": password, "confirmPassword": confirmPassword}, &out)
	return out.SignUp, err
}

// CreateAddress saves a new address on the signed-in account.
func (c *Client) CreateAddress(ctx context.Context, address Address) (*Address, error) {
	var out struct {
		Address *Address `json:"createAddress"`
	}
	err := c.Do(ctx, `
mutation CreateAddress($address: AddressInput!) {
  createAddress(address: $address) {
    id
    name
    line1
    line2
    line3
    city
    region
    postalCode
    country
  }
}`, map[string]any{"address": address.Input()}, &out)
	return out.Address, err
}

// DeleteAddress removes a saved address by id.
func (c *Client) DeleteAddress(ctx context.Context, addressID int) error {
	return c.Do(ctx, `
mutation DeleteAddress($addressId: Int!) {
  deleteAddress(addressId: $addressId) {
    id
  }
}`, map[string]any{"addressId": addressID}, nil)
}
