// Package payment defines the boundary to the external payment processor.
// The storefront performs no payment logic itself: it creates an intent for
// the cart total, hands the intent ID to the client, and accepts it back as
// a passthrough field on the order.
package payment

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrIntentNotFound is returned when a payment intent ID is unknown.
var ErrIntentNotFound = errors.New("payment intent not found")

// Intent statuses mirror the external processor's lifecycle.
const (
	IntentStatusRequiresPayment = "requires_payment"
	IntentStatusSucceeded       = "succeeded"
	IntentStatusRefunded        = "refunded"
)

// Intent is a payment intent held by the external processor.
type Intent struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
}

// Provider is the contract the storefront consumes from the payment
// processor: create an intent for an amount, and look one up by ID.
type Provider interface {
	CreateIntent(amount decimal.Decimal, currency string) (*Intent, error)
	GetIntent(id string) (*Intent, error)
}
