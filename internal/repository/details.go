package repository

import (
	"fmt"

	"github.com/farellandr/ticketmart/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// lineDetails loads ticket and event summaries for the given ids with one
// query each. Rows that no longer exist are absent from the maps.
func lineDetails(db *gorm.DB, ticketIDs, eventIDs []uuid.UUID) (map[uuid.UUID]*models.TicketDetails, map[uuid.UUID]*models.EventDetails, error) {
	tickets := map[uuid.UUID]*models.TicketDetails{}
	if ids := distinct(ticketIDs); len(ids) > 0 {
		var rows []models.Ticket
		if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, nil, fmt.Errorf("load ticket details: %w", err)
		}
		for i := range rows {
			tickets[rows[i].ID] = rows[i].Details()
		}
	}
	events, err := eventDetails(db, eventIDs)
	if err != nil {
		return nil, nil, err
	}
	return tickets, events, nil
}

func eventDetails(db *gorm.DB, eventIDs []uuid.UUID) (map[uuid.UUID]*models.EventDetails, error) {
	events := map[uuid.UUID]*models.EventDetails{}
	ids := distinct(eventIDs)
	if len(ids) == 0 {
		return events, nil
	}
	var rows []models.Event
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load event details: %w", err)
	}
	for i := range rows {
		events[rows[i].ID] = rows[i].Details()
	}
	return events, nil
}

func attachCartDetails(db *gorm.DB, cart *models.Cart) error {
	var ticketIDs, eventIDs []uuid.UUID
	for _, item := range cart.Items {
		ticketIDs = append(ticketIDs, item.TicketID)
		eventIDs = append(eventIDs, item.EventID)
	}
	tickets, events, err := lineDetails(db, ticketIDs, eventIDs)
	if err != nil {
		return err
	}
	for i := range cart.Items {
		cart.Items[i].TicketDetails = tickets[cart.Items[i].TicketID]
		cart.Items[i].EventDetails = events[cart.Items[i].EventID]
	}
	return nil
}

func attachOrderDetails(db *gorm.DB, orders []models.Order) error {
	var ticketIDs, eventIDs []uuid.UUID
	for _, order := range orders {
		for _, item := range order.Items {
			ticketIDs = append(ticketIDs, item.TicketID)
			eventIDs = append(eventIDs, item.EventID)
		}
	}
	tickets, events, err := lineDetails(db, ticketIDs, eventIDs)
	if err != nil {
		return err
	}
	for i := range orders {
		for j := range orders[i].Items {
			item := &orders[i].Items[j]
			item.TicketDetails = tickets[item.TicketID]
			item.EventDetails = events[item.EventID]
		}
	}
	return nil
}

func attachTicketEvents(db *gorm.DB, tickets []models.Ticket) error {
	eventIDs := make([]uuid.UUID, 0, len(tickets))
	for _, ticket := range tickets {
		eventIDs = append(eventIDs, ticket.EventID)
	}
	events, err := eventDetails(db, eventIDs)
	if err != nil {
		return err
	}
	for i := range tickets {
		tickets[i].EventDetails = events[tickets[i].EventID]
	}
	return nil
}

func distinct(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
