package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"coffeehub/internal/domain"
	"coffeehub/internal/payments"
	"coffeehub/internal/repos"
)

// CheckoutService keeps at most one live payment intent per session and
// keeps its amount in sync with the cart total.
type CheckoutService struct {
	Payments payments.Client
	Sessions *repos.SessionRepo
	Currency string
}

func NewCheckoutService(pc payments.Client, sessions *repos.SessionRepo, currency string) *CheckoutService {
	return &CheckoutService{Payments: pc, Sessions: sessions, Currency: currency}
}

type CheckoutPage struct {
	IntentID     string
	ClientSecret string
	AmountCents  int64
}

// Prepare returns the intent backing the checkout page. A stored intent
// is reused only while its amount still matches the freshly computed
// total; a stale or vanished intent is replaced. Processor failures
// other than not-found surface as hard errors with no retry.
func (s *CheckoutService) Prepare(ctx context.Context, id domain.Identity, view CartView, saveInfo bool) (*CheckoutPage, error) {
	if len(view.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}
	amount := totalCents(view)
	md := intentMetadata(id, view, saveInfo)

	cs, err := s.Sessions.CheckoutSession(id.SID)
	if err != nil {
		return nil, err
	}
	if cs != nil {
		intent, err := s.Payments.RetrieveIntent(ctx, cs.IntentID)
		switch {
		case errors.Is(err, payments.ErrIntentNotFound):
			// Expired upstream; fall through and create a fresh one.
		case err != nil:
			return nil, err
		case intent.Amount == amount:
			// Keep the metadata current even on reuse so a webhook
			// always sees the latest cart snapshot.
			if err := s.Payments.AttachMetadata(ctx, cs.IntentID, md); err != nil {
				return nil, err
			}
			return &CheckoutPage{IntentID: cs.IntentID, ClientSecret: cs.ClientSecret, AmountCents: amount}, nil
		}
	}

	intent, err := s.Payments.CreateIntent(ctx, amount, s.Currency, md)
	if err != nil {
		return nil, err
	}
	err = s.Sessions.SaveCheckoutSession(repos.CheckoutSession{
		SessionID:    id.SID,
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountCents:  amount,
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutPage{IntentID: intent.ID, ClientSecret: intent.ClientSecret, AmountCents: amount}, nil
}

// CacheCheckoutData re-attaches the final cart snapshot and save-info
// flag just before the client confirms the payment, so the asynchronous
// webhook can commit without the session.
func (s *CheckoutService) CacheCheckoutData(ctx context.Context, id domain.Identity, view CartView, saveInfo bool) error {
	cs, err := s.Sessions.CheckoutSession(id.SID)
	if err != nil {
		return err
	}
	if cs == nil {
		return payments.ErrIntentNotFound
	}
	return s.Payments.AttachMetadata(ctx, cs.IntentID, intentMetadata(id, view, saveInfo))
}

// metaLine is the wire shape of one cart line inside intent metadata.
type metaLine struct {
	ID       string `json:"id"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

func intentMetadata(id domain.Identity, view CartView, saveInfo bool) map[string]string {
	lines := make([]metaLine, 0, len(view.Lines))
	for _, l := range view.Lines {
		lines = append(lines, metaLine{
			ID:       l.ProductID,
			Size:     l.Size,
			Quantity: l.Quantity,
			Price:    l.UnitPrice.StringFixed(2),
		})
	}
	b, _ := json.Marshal(lines)
	return map[string]string{
		"cart":      string(b),
		"save_info": strconv.FormatBool(saveInfo),
		"sid":       id.SID,
		"user_id":   id.UserID,
	}
}

func totalCents(view CartView) int64 {
	return view.Total.Shift(2).Round(0).IntPart()
}
