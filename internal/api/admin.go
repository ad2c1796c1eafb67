package api

import (
	"context"
)

// Admin operations. All of these require an ADMIN role token; guests get a
// NotAuthenticated error from the API.

type Transaction struct {
	ID       int  `json:"id"`
	Subtotal int  `json:"subtotal"`
	Taxes    int  `json:"taxes"`
	Shipping int  `json:"shipping"`
	Total    int  `json:"total"`
	User     User `json:"user"`
}

// AdminProducts pages through all products, published or not.
func (c *Client) AdminProducts(ctx context.Context, skip, limit int) ([]Product, error) {
	var out struct {
		Products []Product `json:"products"`
	}
	err := c.Do(ctx, `
query AdminProducts($skip: Int, $limit: Int) {
  products(skip: $skip, limit: $limit) {
    id
    slug
    name
    published
    priceRange { min max }
  }
}`, map[string]any{"skip": skip, "limit": limit}, &out)
	return out.Products, err
}

// AdminProduct loads one product by id together with the introspected input
// type that drives the edit form.
func (c *Client) AdminProduct(ctx context.Context, id int) (*Product, *IntrospectedType, error) {
	var out struct {
		Product *Product          `json:"product"`
		Input   *IntrospectedType `json:"UpdateProductInput"`
	}
	err := c.Do(ctx, `
query AdminProduct($id: Int!) {
  product(id: $id) {
    id
    slug
    name
    description
    details
    published
    images { id name height600 }
    options {
      id
      name
      values { id value }
    }
  }
  UpdateProductInput: __type(name: "UpdateProductInput") {
    name
    kind
    inputFields {
      name
      type { ...TypeRef }
    }
  }
}
fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType { kind name }
    }
  }
}`, map[string]any{"id": id}, &out)
	return out.Product, out.Input, err
}

// UpdateProduct applies an admin edit. The product document mirrors the
// introspected UpdateProductInput fields.
func (c *Client) UpdateProduct(ctx context.Context, id int, product map[string]any) (*Product, error) {
	var out struct {
		Product *Product `json:"updateProduct"`
	}
	err := c.Do(ctx, `
mutation AdminUpdateProduct($id: Int!, $product: UpdateProductInput!) {
  updateProduct(id: $id, product: $product) {
    id
    name
    description
    details
    published
  }
}`, map[string]any{"id": id, "product": product}, &out)
	return out.Product, err
}

// Transactions pages through captured orders.
func (c *Client) Transactions(ctx context.Context, skip, limit int) ([]Transaction, error) {
	var out struct {
		Transactions []Transaction `json:"transactions"`
	}
	err := c.Do(ctx, `
query AdminTransactions($skip: Int, $limit: Int) {
  transactions(skip: $skip, limit: $limit) {
    id
    subtotal
    taxes
    shipping
    total
  }
}`, map[string]any{"skip": skip, "limit": limit}, &out)
	return out.Transactions, err
}

// TransactionByID loads one order with its line items.
func (c *Client) TransactionByID(ctx context.Context, id int) (*Receipt, error) {
	var out struct {
		Transaction *Receipt `json:"transaction"`
	}
	err := c.Do(ctx, `
query AdminTransaction($id: Int!) {
  transaction(id: $id) {
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
}`, map[string]any{"id": id}, &out)
	return out.Transaction, err
}

// IntrospectedType is the subset of GraphQL introspection the admin form
// renderer consumes.
type IntrospectedType struct {
	Kind        string                   `json:"kind"`
	Name        string                   `json:"name"`
	OfType      *IntrospectedType        `json:"ofType"`
	InputFields []IntrospectedInputField `json:"inputFields"`
}

// IntrospectedInputField is one named field of an input object type.
type IntrospectedInputField struct {
	Name string            `json:"name"`
	Type *IntrospectedType `json:"type"`
}
