package service

import (
	"context"
	"fmt"

	"github.com/farellandr/ticketmart/internal/helpers"
	"github.com/farellandr/ticketmart/internal/models"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const passImageSize = 256

var (
	ErrInvalidPass      = models.NewValidationError("invalid pass code")
	ErrInvalidSignature = fmt.Errorf("%w: pass signature does not match", models.ErrForbidden)
)

// PassVerification is the result of checking a scanned pass at the door.
type PassVerification struct {
	Order *models.Order `json:"order"`
	Valid bool          `json:"valid"`
}

// PassService issues signed QR passes for completed orders and verifies
// them for event organizers. It never changes an order.
type PassService struct {
	orders OrderStore
	events EventStore
	signer *helpers.PassSigner
}

func NewPassService(orders OrderStore, events EventStore, signer *helpers.PassSigner) *PassService {
	return &PassService{orders: orders, events: events, signer: signer}
}

// Payload returns the signed pass text for an order owned by the actor.
func (s *PassService) Payload(ctx context.Context, actor Actor, orderID uuid.UUID) (string, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order.UserID != actor.UserID {
		return "", models.ErrForbidden
	}
	if order.Status != models.OrderStatusCompleted {
		return "", models.NewValidationError("passes are only issued for completed orders")
	}
	return s.signer.Sign(helpers.PassClaims{
		OrderID:   order.ID,
		UserID:    order.UserID,
		PaymentID: order.PaymentInfo.ID,
	}), nil
}

// QRCode renders the order's pass as a PNG.
func (s *PassService) QRCode(ctx context.Context, actor Actor, orderID uuid.UUID) ([]byte, error) {
	payload, err := s.Payload(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, passImageSize)
	if err != nil {
		return nil, fmt.Errorf("encode pass qr: %w", err)
	}
	return png, nil
}

// Verify checks a scanned pass. The actor must organize at least one event
// on the order, unless they are an admin.
func (s *PassService) Verify(ctx context.Context, actor Actor, data string) (*PassVerification, error) {
	claims, signature, err := s.signer.Parse(data)
	if err != nil {
		return nil, ErrInvalidPass
	}

	order, err := s.orders.GetByID(ctx, claims.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != claims.UserID || order.PaymentInfo.ID != claims.PaymentID || !s.signer.Valid(claims, signature) {
		return nil, ErrInvalidSignature
	}

	if !actor.IsAdmin() {
		eventIDs, err := s.events.IDsByOrganizer(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		if !organizesAny(order, eventIDs) {
			return nil, models.ErrForbidden
		}
	}

	return &PassVerification{
		Order: order,
		Valid: order.Status == models.OrderStatusCompleted,
	}, nil
}

func organizesAny(order *models.Order, eventIDs []uuid.UUID) bool {
	for _, id := range eventIDs {
		if order.HasEvent(id) {
			return true
		}
	}
	return false
}
