package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketDetails and EventDetails are read-only views attached to cart lines,
// order lines and ticket lookups. They are never persisted.
type TicketDetails struct {
	Type        TicketType      `json:"type"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
}

type EventDetails struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	Time      string    `json:"time"`
	Venue     Venue     `json:"venue"`
	MainImage string    `json:"mainImage,omitempty"`
}

func (ticket *Ticket) Details() *TicketDetails {
	return &TicketDetails{Type: ticket.Type, Price: ticket.Price, Description: ticket.Description}
}

func (event *Event) Details() *EventDetails {
	return &EventDetails{
		ID:        event.ID,
		Title:     event.Title,
		Date:      event.Date,
		Time:      event.Time,
		Venue:     event.Venue,
		MainImage: event.MainImage,
	}
}
