package gateway

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	"github.com/farellandr/ticketmart/internal/models"
)

const alphanumericChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomAlphanumeric(length int) string {
	b := make([]byte, length)
	max := big.NewInt(int64(len(alphanumericChars)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = alphanumericChars[n.Int64()]
	}
	return string(b)
}

// MockGateway keeps intents in memory. It stands in for Stripe in local
// development and tests.
type MockGateway struct {
	config  *MockGatewayConfig
	mu      sync.RWMutex
	intents map[string]*models.PaymentIntent
}

type MockGatewayConfig struct {
	// AutoSucceed marks new intents as succeeded immediately, as if the
	// customer had already confirmed the card.
	AutoSucceed bool
}

func DefaultMockGatewayConfig() *MockGatewayConfig {
	return &MockGatewayConfig{AutoSucceed: true}
}

func NewMockGateway(config *MockGatewayConfig) *MockGateway {
	if config == nil {
		config = DefaultMockGatewayConfig()
	}
	return &MockGateway{
		config:  config,
		intents: make(map[string]*models.PaymentIntent),
	}
}

func (g *MockGateway) CreatePaymentIntent(ctx context.Context, req *IntentRequest) (*models.PaymentIntent, error) {
	if req == nil {
		return nil, fmt.Errorf("intent request is required")
	}
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	id := "pi_" + randomAlphanumeric(24)
	status := "requires_payment_method"
	if g.config.AutoSucceed {
		status = models.PaymentIntentSucceeded
	}
	metadata := make(map[string]string, len(req.Metadata))
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	intent := &models.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret_" + randomAlphanumeric(24),
		AmountCents:  req.AmountCents,
		Currency:     req.Currency,
		Status:       status,
		Metadata:     metadata,
	}

	g.mu.Lock()
	g.intents[id] = intent
	g.mu.Unlock()

	out := *intent
	return &out, nil
}

func (g *MockGateway) RetrievePaymentIntent(ctx context.Context, id string) (*models.PaymentIntent, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	intent, ok := g.intents[id]
	if !ok {
		return nil, ErrIntentNotFound
	}
	out := *intent
	return &out, nil
}

// SetStatus overrides the stored status of an intent.
func (g *MockGateway) SetStatus(id, status string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[id]
	if !ok {
		return ErrIntentNotFound
	}
	intent.Status = status
	return nil
}

// Put stores an intent as-is, replacing any intent with the same ID.
func (g *MockGateway) Put(intent models.PaymentIntent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[intent.ID] = &intent
}

func (g *MockGateway) Name() string {
	return "mock"
}
