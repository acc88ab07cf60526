// Package payment talks to the card payment provider. Only the intent lifecycle the API
// relies on is modelled: create an intent, then read back its status.
package payment

import (
	"context"
	"errors"
	"math"
)

// Intent statuses reported by the provider.
const (
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusRequiresConfirmation  = "requires_confirmation"
	StatusProcessing            = "processing"
	StatusSucceeded             = "succeeded"
	StatusCanceled              = "canceled"
	StatusFailed                = "failed"
)

// ErrIntentNotFound is returned when the provider does not know an intent id.
var ErrIntentNotFound = errors.New("payment intent not found")

// IntentRequest describes a charge in the currency's minor unit.
type IntentRequest struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

// Intent is the provider's view of a charge.
type Intent struct {
	ID            string
	ClientSecret  string
	Amount        int64
	Currency      string
	Status        string
	PaymentMethod string
}

// Provider creates and inspects payment intents.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	Retrieve(ctx context.Context, id string) (Intent, error)
}

// ToMinorUnits converts a decimal price to cents.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// IsTerminalFailure reports whether the intent can no longer succeed.
func IsTerminalFailure(status string) bool {
	return status == StatusCanceled || status == StatusFailed
}
