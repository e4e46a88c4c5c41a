// Package notify sends the post-purchase confirmation. The commit
// pipeline guarantees at most one call per order.
package notify

import (
	"encoding/json"
	"log"

	"coffeehub/internal/domain"
)

type Notifier interface {
	OrderConfirmation(o *domain.Order) error
}

// LogNotifier writes the confirmation to the application log. Swap in an
// SMTP-backed implementation behind the same interface for real mail.
type LogNotifier struct{}

func (LogNotifier) OrderConfirmation(o *domain.Order) error {
	b, _ := json.Marshal(map[string]any{
		"action":       "notify.order_confirmation",
		"order_number": o.OrderNumber,
		"email":        o.Email,
		"total":        o.Total.StringFixed(2),
	})
	log.Println(string(b))
	return nil
}
