package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TicketType string

const (
	TicketTypeGeneral   TicketType = "General"
	TicketTypeVIP       TicketType = "VIP"
	TicketTypePremium   TicketType = "Premium"
	TicketTypeEarlyBird TicketType = "Early Bird"
	TicketTypeGroup     TicketType = "Group"
	TicketTypeStudent   TicketType = "Student"
)

func (t TicketType) Valid() bool {
	switch t {
	case TicketTypeGeneral, TicketTypeVIP, TicketTypePremium, TicketTypeEarlyBird, TicketTypeGroup, TicketTypeStudent:
		return true
	}
	return false
}

const DefaultMaxPerPurchase = 10

type Ticket struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	EventID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"event"`
	Type           TicketType      `gorm:"size:32;not null" json:"type"`
	Price          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	QuantitySold   int             `gorm:"not null" json:"quantitySold"`
	Description    string          `gorm:"type:text" json:"description,omitempty"`
	SaleStartDate  *time.Time      `json:"saleStartDate,omitempty"`
	SaleEndDate    *time.Time      `json:"saleEndDate,omitempty"`
	MaxPerPurchase int             `gorm:"not null" json:"maxPerPurchase"`
	Active         bool            `gorm:"not null" json:"active"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`

	EventDetails *EventDetails `gorm:"-" json:"eventDetails,omitempty"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	if ticket.MaxPerPurchase == 0 {
		ticket.MaxPerPurchase = DefaultMaxPerPurchase
	}
	return
}

func (ticket *Ticket) Available() int {
	if ticket.QuantitySold >= ticket.Quantity {
		return 0
	}
	return ticket.Quantity - ticket.QuantitySold
}

func (ticket *Ticket) SoldOut() bool {
	return ticket.QuantitySold >= ticket.Quantity
}

// MarshalJSON adds the derived available and soldOut fields.
func (ticket Ticket) MarshalJSON() ([]byte, error) {
	type plain Ticket
	return json.Marshal(struct {
		plain
		Available int  `json:"available"`
		SoldOut   bool `json:"soldOut"`
	}{plain(ticket), ticket.Available(), ticket.SoldOut()})
}

// OnSale reports whether now falls inside the optional sale window.
func (ticket *Ticket) OnSale(now time.Time) bool {
	if ticket.SaleStartDate != nil && now.Before(*ticket.SaleStartDate) {
		return false
	}
	if ticket.SaleEndDate != nil && now.After(*ticket.SaleEndDate) {
		return false
	}
	return true
}
