package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"coffeehub/internal/domain"
	"coffeehub/internal/notify"
	"coffeehub/internal/repos"
)

// OrderService is the one place a cart becomes a durable order. Commit
// is safe to invoke twice for the same payment reference: the first
// invocation creates the order and performs the side effects, every
// later one observes the existing order and does nothing destructive.
type OrderService struct {
	Orders   *repos.OrderRepo
	Products *repos.ProductRepo
	Variants *repos.VariantRepo
	Users    *repos.UserRepo
	Sessions *repos.SessionRepo
	Cart     *CartService
	Notifier notify.Notifier

	// Webhook existence-check retry knobs; the unique payment_ref index
	// is the actual correctness mechanism, this only smooths latency.
	WebhookRetries    int
	WebhookRetryDelay time.Duration
}

func NewOrderService(orders *repos.OrderRepo, products *repos.ProductRepo, variants *repos.VariantRepo,
	users *repos.UserRepo, sessions *repos.SessionRepo, cart *CartService, notifier notify.Notifier) *OrderService {
	return &OrderService{
		Orders:            orders,
		Products:          products,
		Variants:          variants,
		Users:             users,
		Sessions:          sessions,
		Cart:              cart,
		Notifier:          notifier,
		WebhookRetries:    5,
		WebhookRetryDelay: 200 * time.Millisecond,
	}
}

type CommitLine struct {
	ProductID string
	Size      string
	Quantity  int
	UnitPrice decimal.Decimal
}

type CommitRequest struct {
	PaymentRef string
	Identity   domain.Identity
	Contact    domain.ShippingContact
	Lines      []CommitLine
	SaveInfo   bool
}

// Commit materializes the committed cart into an order. The second
// return reports whether this call created the order (false when an
// order for the payment reference already existed).
func (s *OrderService) Commit(req CommitRequest) (*domain.Order, bool, error) {
	if req.PaymentRef == "" {
		return nil, false, domain.Invalid("missing payment reference")
	}

	if existing, err := s.Orders.ByPaymentRef(req.PaymentRef); err == nil {
		// Already committed. Clearing the cart again is harmless; stock
		// and the confirmation stay untouched.
		s.consume(req.Identity)
		return existing, false, nil
	} else if !errors.Is(err, domain.ErrOrderNotFound) {
		return nil, false, err
	}

	if len(req.Lines) == 0 {
		return nil, false, domain.ErrEmptyCart
	}

	order := &domain.Order{
		ID:          uuid.NewString(),
		OrderNumber: newOrderNumber(),
		UserID:      req.Identity.UserID,
		SessionID:   req.Identity.SID,
		Status:      domain.OrderStatusPaid,
		FullName:    req.Contact.FullName,
		Email:       req.Contact.Email,
		PhoneNumber: req.Contact.PhoneNumber,
		Country:     req.Contact.Country,
		Postcode:    req.Contact.Postcode,
		TownOrCity:  req.Contact.TownOrCity,
		Street1:     req.Contact.StreetAddress1,
		Street2:     req.Contact.StreetAddress2,
		County:      req.Contact.County,
		Total:       decimal.Zero,
		PaymentRef:  req.PaymentRef,
	}

	err := s.Orders.CreateHeader(order)
	if errors.Is(err, domain.ErrDuplicatePaymentRef) {
		// Lost the race against a concurrent commit for the same
		// reference; the winner did the side effects.
		existing, err := s.Orders.ByPaymentRef(req.PaymentRef)
		if err != nil {
			return nil, false, err
		}
		s.consume(req.Identity)
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	for _, line := range req.Lines {
		p, err := s.Products.Get(line.ProductID)
		if err != nil {
			// Compensating rollback: drop the half-built order and leave
			// the cart alone so the shopper can retry.
			_ = s.Orders.Delete(order.ID)
			return nil, false, fmt.Errorf("build order line %s/%s: %w", line.ProductID, line.Size, err)
		}
		ol := domain.OrderLine{
			OrderID:     order.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Size:        line.Size,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
		}
		if err := s.Orders.InsertLine(ol); err != nil {
			_ = s.Orders.Delete(order.ID)
			return nil, false, err
		}
	}
	if err := s.Orders.RecomputeTotal(order.ID); err != nil {
		// No side effects have run yet; drop the order so a retry
		// rebuilds it from scratch.
		_ = s.Orders.Delete(order.ID)
		return nil, false, err
	}

	// Once-only side effects, tied to the first commit of this reference.
	// The order is durable from here on: failures are logged, not
	// surfaced, since an error would route the redelivery down the
	// already-committed path with the remaining effects undone.
	for _, line := range req.Lines {
		if err := s.Variants.Decrement(line.ProductID, line.Size, line.Quantity); err != nil {
			log.Printf("stock decrement failed for %s/%s: %v", line.ProductID, line.Size, err)
		}
	}
	s.consume(req.Identity)
	if req.SaveInfo && req.Identity.Authenticated() {
		if err := s.Users.SaveProfileDefaults(req.Identity.UserID, req.Contact); err != nil {
			log.Printf("profile defaults save failed for %s: %v", req.Identity.UserID, err)
		}
	}

	committed, err := s.Orders.ByPaymentRef(req.PaymentRef)
	if err != nil {
		return nil, false, err
	}
	if nerr := s.Notifier.OrderConfirmation(committed); nerr != nil {
		// The order is durable; a failed confirmation must not unwind it.
		log.Printf("order confirmation failed for %s: %v", committed.OrderNumber, nerr)
	}
	return committed, true, nil
}

// CommitFromWebhook waits briefly for a racing synchronous commit to
// become visible before creating the order itself. Bounded, best effort.
func (s *OrderService) CommitFromWebhook(req CommitRequest) (*domain.Order, bool, error) {
	for attempt := 0; attempt < s.WebhookRetries; attempt++ {
		if existing, err := s.Orders.ByPaymentRef(req.PaymentRef); err == nil {
			s.consume(req.Identity)
			return existing, false, nil
		} else if !errors.Is(err, domain.ErrOrderNotFound) {
			return nil, false, err
		}
		time.Sleep(s.WebhookRetryDelay)
	}
	return s.Commit(req)
}

// consume clears the committing identity's cart and spends its checkout
// session record. Both are idempotent.
func (s *OrderService) consume(id domain.Identity) {
	_ = s.Cart.Clear(id)
	if id.SID != "" {
		_ = s.Cart.Session.Clear(id.SID)
		_ = s.Sessions.DeleteCheckoutSession(id.SID)
	}
}

// ParseCommittedCart decodes the cart snapshot a webhook extracts from
// intent metadata.
func ParseCommittedCart(cartJSON string) ([]CommitLine, error) {
	var raw []metaLine
	if err := json.Unmarshal([]byte(cartJSON), &raw); err != nil {
		return nil, fmt.Errorf("decode cart metadata: %w", err)
	}
	lines := make([]CommitLine, 0, len(raw))
	for _, l := range raw {
		price, err := decimal.NewFromString(l.Price)
		if err != nil {
			return nil, fmt.Errorf("decode cart metadata price %q: %w", l.Price, err)
		}
		lines = append(lines, CommitLine{
			ProductID: l.ID,
			Size:      l.Size,
			Quantity:  l.Quantity,
			UnitPrice: price,
		})
	}
	return lines, nil
}

// Order numbers are 32 uppercase hex chars, generated once, never
// regenerated.
func newOrderNumber() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// CommitLinesFromView converts a live cart view into commit lines for
// the synchronous (form submit) trigger.
func CommitLinesFromView(view CartView) []CommitLine {
	lines := make([]CommitLine, 0, len(view.Lines))
	for _, l := range view.Lines {
		lines = append(lines, CommitLine{
			ProductID: l.ProductID,
			Size:      l.Size,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return lines
}
