package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/farellandr/ticketmart/internal/models"
	"github.com/stripe/stripe-go/v82"
)

type StripeGateway struct {
	config *StripeGatewayConfig
	client *stripe.Client
}

type StripeGatewayConfig struct {
	SecretKey   string
	Environment string // "test" or "live"
	// Backends overrides the Stripe API endpoints, mainly for tests.
	Backends *stripe.Backends
}

func NewStripeGateway(config *StripeGatewayConfig) (*StripeGateway, error) {
	if config == nil {
		return nil, fmt.Errorf("stripe config is required")
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}

	var opts []stripe.ClientOption
	if config.Backends != nil {
		opts = append(opts, stripe.WithBackends(config.Backends))
	}
	return &StripeGateway{config: config, client: stripe.NewClient(config.SecretKey, opts...)}, nil
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req *IntentRequest) (*models.PaymentIntent, error) {
	if req == nil {
		return nil, fmt.Errorf("intent request is required")
	}
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: make(map[string]string, len(req.Metadata)),
	}
	for k, v := range req.Metadata {
		params.Metadata[k] = v
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}

	pi, err := g.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) RetrievePaymentIntent(ctx context.Context, id string) (*models.PaymentIntent, error) {
	if id == "" {
		return nil, fmt.Errorf("payment intent ID is required")
	}

	pi, err := g.client.V1PaymentIntents.Retrieve(ctx, id, &stripe.PaymentIntentRetrieveParams{})
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return nil, ErrIntentNotFound
		}
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) Name() string {
	return "stripe"
}

func toIntent(pi *stripe.PaymentIntent) *models.PaymentIntent {
	return &models.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}
}
