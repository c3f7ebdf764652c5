package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted:  {OrderStatusCancelled, OrderStatusRefunded},
}

// ReleasesInventory reports whether moving into s gives the sold seats back.
func (s OrderStatus) ReleasesInventory() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

type Order struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber string          `gorm:"size:32;uniqueIndex;not null" json:"orderNumber"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	PaymentInfo PaymentInfo     `gorm:"embedded;embeddedPrefix:payment_" json:"paymentInfo"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	TaxAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"taxAmount"`
	ServiceFee  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"serviceFee"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalAmount"`
	Status      OrderStatus     `gorm:"size:16;not null;index" json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"-"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	TicketID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"ticket"`
	EventID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"event"`
	TicketType TicketType      `gorm:"size:32" json:"ticketType,omitempty"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	Price      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Subtotal   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`

	TicketDetails *TicketDetails `gorm:"-" json:"ticketDetails,omitempty"`
	EventDetails  *EventDetails  `gorm:"-" json:"eventDetails,omitempty"`
}

func (order *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return
}

func (order *Order) CanTransition(to OrderStatus) bool {
	for _, next := range orderTransitions[order.Status] {
		if next == to {
			return true
		}
	}
	return false
}

// HasEvent reports whether any line of the order is for eventID.
func (order *Order) HasEvent(eventID uuid.UUID) bool {
	for _, item := range order.Items {
		if item.EventID == eventID {
			return true
		}
	}
	return false
}

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderNumber returns TM-<unix ms>-<6 random base36 chars>.
func NewOrderNumber(now time.Time) string {
	suffix := make([]byte, 6)
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand: %v", err))
		}
		suffix[i] = orderNumberAlphabet[n.Int64()]
	}
	return fmt.Sprintf("TM-%d-%s", now.UnixMilli(), suffix)
}
