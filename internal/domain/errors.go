package domain

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("product variant not found")
	ErrLineNotFound    = errors.New("item not found in cart")
	ErrOrderNotFound   = errors.New("order not found")
	ErrEmptyCart       = errors.New("cart is empty")

	// ErrDuplicatePaymentRef maps the unique constraint on
	// orders.payment_ref; callers treat it as "already committed".
	ErrDuplicatePaymentRef = errors.New("order already exists for payment reference")
)

// ValidationError carries a human-readable rejection for user input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func Invalid(reason string) error { return &ValidationError{Reason: reason} }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
