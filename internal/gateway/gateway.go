package gateway

import (
	"context"
	"errors"

	"github.com/farellandr/ticketmart/internal/models"
)

var ErrIntentNotFound = errors.New("payment intent not found")

// PaymentGateway is the card processor the checkout flow talks to.
type PaymentGateway interface {
	// CreatePaymentIntent registers an amount to collect and returns the
	// client secret the browser uses to submit card details.
	CreatePaymentIntent(ctx context.Context, req *IntentRequest) (*models.PaymentIntent, error)

	// RetrievePaymentIntent returns the processor's current view of an intent.
	RetrievePaymentIntent(ctx context.Context, id string) (*models.PaymentIntent, error)

	Name() string
}

type IntentRequest struct {
	AmountCents int64
	Currency    string
	Description string
	Metadata    map[string]string
}

type GatewayConfig struct {
	SecretKey   string
	Environment string
	// MockPending keeps mock intents in requires_payment_method until
	// SetStatus is called.
	MockPending bool
}
