// Package payment adapts the hosted payment widget to the checkout engine.
// The widget runs in the browser against a client token and form-posts the
// payment-method nonce it produced; the server side only carries that nonce
// into the order submission.
package payment

import (
	"context"
	"errors"
	"strings"
)

// ErrNoNonce is returned when submission runs without a tokenized payment
// method.
var ErrNoNonce = errors.New("payment: no payment method nonce")

// PostedNonce wraps a form-posted widget nonce as a payment provider.
type PostedNonce struct {
	nonce string
}

// FromForm builds a provider from the posted nonce value.
func FromForm(nonce string) *PostedNonce {
	return &PostedNonce{nonce: strings.TrimSpace(nonce)}
}

// RequestPaymentMethod returns the tokenized payment method.
func (p *PostedNonce) RequestPaymentMethod(ctx context.Context) (string, error) {
	if p.nonce == "" {
		return "", ErrNoNonce
	}
	return p.nonce, nil
}
