package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const CartTTL = 24 * time.Hour

type Cart struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"user"`
	Items       []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalAmount"`
	ExpiresAt   time.Time       `gorm:"not null;index" json:"expiresAt"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type CartItem struct {
	ID       uint            `gorm:"primaryKey" json:"-"`
	CartID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Position int             `gorm:"not null" json:"-"`
	TicketID uuid.UUID       `gorm:"type:uuid;not null" json:"ticket"`
	EventID  uuid.UUID       `gorm:"type:uuid;not null" json:"event"`
	Quantity int             `gorm:"not null" json:"quantity"`
	Price    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Subtotal decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`

	TicketDetails *TicketDetails `gorm:"-" json:"ticketDetails,omitempty"`
	EventDetails  *EventDetails  `gorm:"-" json:"eventDetails,omitempty"`
}

func NewCart(userID uuid.UUID, now time.Time) *Cart {
	return &Cart{
		ID:          uuid.New(),
		UserID:      userID,
		Items:       []CartItem{},
		TotalAmount: decimal.Zero,
		ExpiresAt:   now.Add(CartTTL),
	}
}

func (cart *Cart) BeforeCreate(tx *gorm.DB) (err error) {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	return
}

// AddItem puts a line for ticketID in the cart. A repeated add replaces the
// existing line's quantity and price; it never accumulates.
func (cart *Cart) AddItem(ticketID, eventID uuid.UUID, quantity int, price decimal.Decimal) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	subtotal := price.Mul(decimal.NewFromInt(int64(quantity)))

	if i := cart.indexOf(ticketID); i >= 0 {
		cart.Items[i].EventID = eventID
		cart.Items[i].Quantity = quantity
		cart.Items[i].Price = price
		cart.Items[i].Subtotal = subtotal
	} else {
		cart.Items = append(cart.Items, CartItem{
			TicketID: ticketID,
			EventID:  eventID,
			Quantity: quantity,
			Price:    price,
			Subtotal: subtotal,
		})
	}
	cart.recalculate()
	return nil
}

// RemoveItem drops the line for ticketID. Removing an absent line is a no-op.
func (cart *Cart) RemoveItem(ticketID uuid.UUID) bool {
	i := cart.indexOf(ticketID)
	if i < 0 {
		return false
	}
	cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
	cart.recalculate()
	return true
}

func (cart *Cart) UpdateQuantity(ticketID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	i := cart.indexOf(ticketID)
	if i < 0 {
		return ErrCartItemNotFound
	}
	cart.Items[i].Quantity = quantity
	cart.Items[i].Subtotal = cart.Items[i].Price.Mul(decimal.NewFromInt(int64(quantity)))
	cart.recalculate()
	return nil
}

func (cart *Cart) Clear() {
	cart.Items = []CartItem{}
	cart.TotalAmount = decimal.Zero
}

func (cart *Cart) Expired(now time.Time) bool {
	return !cart.ExpiresAt.IsZero() && !now.Before(cart.ExpiresAt)
}

// Renew empties the cart and starts a fresh expiry window.
func (cart *Cart) Renew(now time.Time) {
	cart.Clear()
	cart.ExpiresAt = now.Add(CartTTL)
}

func (cart *Cart) Item(ticketID uuid.UUID) (CartItem, bool) {
	if i := cart.indexOf(ticketID); i >= 0 {
		return cart.Items[i], true
	}
	return CartItem{}, false
}

func (cart *Cart) indexOf(ticketID uuid.UUID) int {
	for i := range cart.Items {
		if cart.Items[i].TicketID == ticketID {
			return i
		}
	}
	return -1
}

func (cart *Cart) recalculate() {
	total := decimal.Zero
	for i := range cart.Items {
		cart.Items[i].Position = i
		total = total.Add(cart.Items[i].Subtotal)
	}
	cart.TotalAmount = total
}
