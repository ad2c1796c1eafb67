package api

import "strings"

// ErrorKind buckets failures for presentation: client-side validation,
// missing authentication, remote API errors, and payment capture failures.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindNotAuthenticated
	KindRemote
	KindPayment
)

const genericMessage = "Something went wrong :("

// notAuthenticatedCode is the extensions.code the API attaches to guest
// access of authenticated fields.
const notAuthenticatedCode = "NOT_AUTHENTICATED"

// Error is the surfaced form of any failed operation. Remote errors keep one
// message per reported GraphQL error so pages can render them as a list.
type Error struct {
	Kind     ErrorKind
	Messages []string
}

func (e *Error) Error() string {
	if e == nil || len(e.Messages) == 0 {
		return genericMessage
	}
	return strings.Join(e.Messages, "; ")
}

// UserMessages returns the user-facing messages, falling back to a generic
// one when the API supplied none.
func (e *Error) UserMessages() []string {
	if e == nil || len(e.Messages) == 0 {
		return []string{genericMessage}
	}
	return e.Messages
}

// IsNotAuthenticated reports whether err is the dedicated auth error kind.
// Pages that tolerate guests (checkout, shop) suppress these.
func IsNotAuthenticated(err error) bool {
	apiErr, ok := err.(*Error)
	return ok && apiErr.Kind == KindNotAuthenticated
}

// NewValidationError wraps client-side required-field failures; no network
// call was made.
func NewValidationError(messages ...string) *Error {
	return &Error{Kind: KindValidation, Messages: messages}
}

// NewPaymentError wraps a payment-provider failure message.
func NewPaymentError(message string) *Error {
	return &Error{Kind: KindPayment, Messages: []string{message}}
}

func fromGraphQLErrors(errs []graphQLError) *Error {
	out := &Error{Kind: KindRemote}
	authOnly := len(errs) > 0
	for _, ge := range errs {
		msg := strings.TrimSpace(ge.Message)
		if msg == "" {
			msg = genericMessage
		}
		out.Messages = append(out.Messages, msg)
		if ge.Extensions.Code != notAuthenticatedCode {
			authOnly = false
		}
	}
	if authOnly {
		out.Kind = KindNotAuthenticated
	}
	return out
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}
