package payments

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/charge"
	"github.com/stripe/stripe-go/v80/paymentintent"
)

// StripeClient implements Client on Stripe payment intents.
type StripeClient struct{}

// NewStripeClient configures the global Stripe client. Calls are bounded
// by the HTTP timeout; failures surface to the caller, never retried here.
func NewStripeClient(secretKey string, timeout time.Duration) *StripeClient {
	stripe.Key = secretKey
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	stripe.SetHTTPClient(&http.Client{Timeout: timeout})
	return &StripeClient{}
}

func (s *StripeClient) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, wrap(err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Amount: pi.Amount}, nil
}

func (s *StripeClient) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, wrap(err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Amount: pi.Amount}, nil
}

func (s *StripeClient) AttachMetadata(ctx context.Context, id string, metadata map[string]string) error {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	_, err := paymentintent.Update(id, params)
	return wrap(err)
}

func (s *StripeClient) BillingEmail(ctx context.Context, chargeID string) (string, error) {
	params := &stripe.ChargeParams{}
	params.Context = ctx
	ch, err := charge.Get(chargeID, params)
	if err != nil {
		return "", wrap(err)
	}
	if ch.BillingDetails == nil {
		return "", nil
	}
	return ch.BillingDetails.Email, nil
}

// wrap maps Stripe's "no such resource" onto ErrIntentNotFound and leaves
// everything else (auth, network, rate limit) as a hard failure.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	var se *stripe.Error
	if errors.As(err, &se) && se.Code == stripe.ErrorCodeResourceMissing {
		return ErrIntentNotFound
	}
	return err
}
