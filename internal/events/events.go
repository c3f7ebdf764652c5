package events

import (
	"context"
	"time"

	"github.com/farellandr/ticketmart/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TopicOrders = "ticketmart.orders"

	OrderCompleted     = "order.completed"
	OrderStatusChanged = "order.status_changed"
)

type OrderEventItem struct {
	TicketID uuid.UUID `json:"ticket_id"`
	EventID  uuid.UUID `json:"event_id"`
	Quantity int       `json:"quantity"`
}

type OrderEvent struct {
	Type        string             `json:"type"`
	OrderID     uuid.UUID          `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	UserID      uuid.UUID          `json:"user_id"`
	Status      models.OrderStatus `json:"status"`
	PaymentID   string             `json:"payment_id"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Items       []OrderEventItem   `json:"items"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

func NewOrderEvent(eventType string, order *models.Order, at time.Time) *OrderEvent {
	items := make([]OrderEventItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderEventItem{
			TicketID: item.TicketID,
			EventID:  item.EventID,
			Quantity: item.Quantity,
		})
	}
	return &OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Status:      order.Status,
		PaymentID:   order.PaymentInfo.ID,
		TotalAmount: order.TotalAmount,
		Items:       items,
		OccurredAt:  at,
	}
}

// Publisher announces order lifecycle changes to downstream consumers
// (mailers, attendee lists, analytics).
type Publisher interface {
	PublishOrderEvent(ctx context.Context, event *OrderEvent) error
	Close()
}

type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(context.Context, *OrderEvent) error { return nil }

func (NopPublisher) Close() {}
