// Package payments wraps the external payment processor behind a small
// request/response contract so the rest of the app never sees its SDK.
package payments

import (
	"context"
	"errors"
)

// Intent is the processor's record of an in-progress payment.
type Intent struct {
	ID           string
	ClientSecret string
	// Amount is in the currency's smallest unit (cents).
	Amount int64
}

// ErrIntentNotFound means the processor no longer knows the reference
// (expired or invalid); callers treat it as "create a fresh one".
var ErrIntentNotFound = errors.New("payment intent not found")

type Client interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
	AttachMetadata(ctx context.Context, id string, metadata map[string]string) error
	// BillingEmail looks up the billing email of a charge; the webhook
	// payload only carries the charge reference.
	BillingEmail(ctx context.Context, chargeID string) (string, error)
}
