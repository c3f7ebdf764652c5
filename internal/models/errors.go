package models

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map these to HTTP status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrPayment      = errors.New("payment error")
)

var (
	ErrEventNotFound    = fmt.Errorf("event %w", ErrNotFound)
	ErrTicketNotFound   = fmt.Errorf("ticket %w", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)
	ErrCartNotFound     = fmt.Errorf("cart %w", ErrNotFound)
	ErrCartItemNotFound = fmt.Errorf("item %w in cart", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)

	ErrInvalidQuantity         = fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	ErrMaxPerPurchaseExceeded  = fmt.Errorf("%w: quantity exceeds the per-purchase limit", ErrValidation)
	ErrTicketNotOnSale         = fmt.Errorf("%w: ticket is not on sale", ErrValidation)
	ErrEmptyOrder              = fmt.Errorf("%w: no items to purchase", ErrValidation)
	ErrInvalidStatusTransition = fmt.Errorf("%w: order status transition not allowed", ErrValidation)

	ErrInsufficientInventory   = fmt.Errorf("%w: not enough tickets available", ErrConflict)
	ErrPaymentAlreadyProcessed = fmt.Errorf("%w: payment already processed", ErrConflict)
	ErrDuplicateEntry          = fmt.Errorf("%w: duplicate entry", ErrConflict)
	ErrEmailTaken              = fmt.Errorf("%w: user already exists", ErrConflict)

	ErrPaymentIntentNotFound = fmt.Errorf("payment intent %w", ErrNotFound)
	ErrPaymentNotCompleted   = fmt.Errorf("%w: payment not completed", ErrPayment)
	ErrPaymentAmountMismatch = fmt.Errorf("%w: payment amount does not cover the order total", ErrPayment)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", ErrUnauthorized)
)

// NewValidationError wraps msg so errors.Is(err, ErrValidation) holds.
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
