package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/farellandr/ticketmart/internal/models"
	"github.com/farellandr/ticketmart/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type TicketInput struct {
	Type           models.TicketType
	Price          decimal.Decimal
	Quantity       int
	Description    string
	SaleStartDate  *time.Time
	SaleEndDate    *time.Time
	MaxPerPurchase int
	Active         *bool
}

type EventInput struct {
	Title          string
	Description    string
	Category       models.Category
	SubCategory    string
	Venue          models.Venue
	Date           time.Time
	EndDate        *time.Time
	Time           string
	Duration       int
	Images         []string
	MainImage      string
	Featured       bool
	Status         models.EventStatus
	Tags           []string
	AgeRestriction models.AgeRestriction
	Tickets        []TicketInput
}

// EventPatch carries the fields of a partial event update. Nil fields are
// left untouched.
type EventPatch struct {
	Title          *string
	Description    *string
	Category       *models.Category
	SubCategory    *string
	Venue          *models.Venue
	Date           *time.Time
	EndDate        *time.Time
	Time           *string
	Duration       *int
	Images         []string
	MainImage      *string
	Featured       *bool
	Status         *models.EventStatus
	Tags           []string
	AgeRestriction *models.AgeRestriction
}

type TicketPatch struct {
	Type           *models.TicketType
	Price          *decimal.Decimal
	Quantity       *int
	Description    *string
	SaleStartDate  *time.Time
	SaleEndDate    *time.Time
	MaxPerPurchase *int
	Active         *bool
}

type CatalogService struct {
	tx      Transactor
	events  EventStore
	tickets TicketStore
	log     *zap.Logger
}

func NewCatalogService(tx Transactor, events EventStore, tickets TicketStore, log *zap.Logger) *CatalogService {
	return &CatalogService{tx: tx, events: events, tickets: tickets, log: log}
}

func (s *CatalogService) CreateEvent(ctx context.Context, actor Actor, in EventInput) (*models.Event, error) {
	if !actor.Role.CanOrganize() {
		return nil, models.ErrForbidden
	}
	if err := validateEventInput(in); err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Category:       in.Category,
		SubCategory:    in.SubCategory,
		Venue:          in.Venue,
		Date:           in.Date,
		EndDate:        in.EndDate,
		Time:           in.Time,
		Duration:       in.Duration,
		Images:         models.StringList(in.Images),
		MainImage:      in.MainImage,
		OrganizerID:    actor.UserID,
		Featured:       in.Featured,
		Status:         in.Status,
		Tags:           models.StringList(in.Tags),
		AgeRestriction: in.AgeRestriction,
	}
	for i, t := range in.Tickets {
		if err := validateTicketInput(t); err != nil {
			return nil, fmt.Errorf("tickets[%d]: %w", i, err)
		}
		event.Tickets = append(event.Tickets, newTicket(uuid.Nil, t))
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	s.log.Info("event created",
		zap.String("event_id", event.ID.String()),
		zap.String("organizer_id", actor.UserID.String()),
		zap.Int("ticket_tiers", len(event.Tickets)),
	)
	return event, nil
}

// GetEvent returns the event with its ticket tiers, cheapest first.
func (s *CatalogService) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return s.events.GetWithTickets(ctx, id)
}

func (s *CatalogService) UpdateEvent(ctx context.Context, actor Actor, id uuid.UUID, patch EventPatch) (*models.Event, error) {
	var updated *models.Event
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.events.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !actor.owns(event.OrganizerID) {
			return models.ErrForbidden
		}
		if err := applyEventPatch(event, patch); err != nil {
			return err
		}
		if err := s.events.Update(ctx, event); err != nil {
			return err
		}
		updated = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteEvent removes the event and every ticket tier under it.
func (s *CatalogService) DeleteEvent(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.events.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !actor.owns(event.OrganizerID) {
			return models.ErrForbidden
		}
		if err := s.events.Delete(ctx, id); err != nil {
			return err
		}
		s.log.Info("event deleted", zap.String("event_id", id.String()))
		return nil
	})
}

func (s *CatalogService) ListEvents(ctx context.Context, q repository.EventQuery) ([]models.Event, int64, error) {
	return s.events.List(ctx, q)
}

func (s *CatalogService) SearchEvents(ctx context.Context, keyword string, q repository.EventQuery) ([]models.Event, int64, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, 0, models.NewValidationError("please provide a search keyword")
	}
	q.Keyword = keyword
	return s.events.List(ctx, q)
}

func (s *CatalogService) EventsByCategory(ctx context.Context, category models.Category, q repository.EventQuery) ([]models.Event, int64, error) {
	if !category.Valid() {
		return nil, 0, models.NewValidationError("unknown category %q", category)
	}
	q.Categories = []models.Category{category}
	return s.events.List(ctx, q)
}

func (s *CatalogService) OrganizerEvents(ctx context.Context, actor Actor) ([]models.Event, error) {
	if !actor.Role.CanOrganize() {
		return nil, models.ErrForbidden
	}
	return s.events.ListByOrganizer(ctx, actor.UserID)
}

// SetEventImage records an uploaded image as the event's main image and adds
// it to the gallery.
func (s *CatalogService) SetEventImage(ctx context.Context, actor Actor, id uuid.UUID, filename string) (*models.Event, error) {
	var updated *models.Event
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.events.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !actor.owns(event.OrganizerID) {
			return models.ErrForbidden
		}
		event.MainImage = filename
		event.Images = append(event.Images, filename)
		if err := s.events.Update(ctx, event); err != nil {
			return err
		}
		updated = event
		return nil
	})
	return updated, err
}

func (s *CatalogService) CreateTicket(ctx context.Context, actor Actor, eventID uuid.UUID, in TicketInput) (*models.Ticket, error) {
	if err := validateTicketInput(in); err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !actor.owns(event.OrganizerID) {
		return nil, models.ErrForbidden
	}

	ticket := newTicket(eventID, in)
	if err := s.tickets.Create(ctx, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (s *CatalogService) GetTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	return s.tickets.GetWithEvent(ctx, id)
}

func (s *CatalogService) ListTickets(ctx context.Context, actor Actor) ([]models.Ticket, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	return s.tickets.ListAll(ctx)
}

// TicketsByEvent lists the active tiers of an event, cheapest first. An
// unknown event yields an empty list.
func (s *CatalogService) TicketsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Ticket, error) {
	return s.tickets.ListByEvent(ctx, eventID, true)
}

func (s *CatalogService) UpdateTicket(ctx context.Context, actor Actor, id uuid.UUID, patch TicketPatch) (*models.Ticket, error) {
	var updated *models.Ticket
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		ticket, err := s.ownedTicket(ctx, actor, id)
		if err != nil {
			return err
		}
		if err := applyTicketPatch(ticket, patch); err != nil {
			return err
		}
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return err
		}
		updated = ticket
		return nil
	})
	return updated, err
}

func (s *CatalogService) DeleteTicket(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.ownedTicket(ctx, actor, id); err != nil {
			return err
		}
		return s.tickets.Delete(ctx, id)
	})
}

func (s *CatalogService) ownedTicket(ctx context.Context, actor Actor, id uuid.UUID) (*models.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, ticket.EventID)
	if err != nil {
		return nil, err
	}
	if !actor.owns(event.OrganizerID) {
		return nil, models.ErrForbidden
	}
	return ticket, nil
}

func newTicket(eventID uuid.UUID, in TicketInput) models.Ticket {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return models.Ticket{
		EventID:        eventID,
		Type:           in.Type,
		Price:          in.Price.Round(2),
		Quantity:       in.Quantity,
		Description:    in.Description,
		SaleStartDate:  in.SaleStartDate,
		SaleEndDate:    in.SaleEndDate,
		MaxPerPurchase: in.MaxPerPurchase,
		Active:         active,
	}
}

func validateEventInput(in EventInput) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return models.NewValidationError("please add a title")
	case len(in.Title) > 100:
		return models.NewValidationError("title cannot be more than 100 characters")
	case strings.TrimSpace(in.Description) == "":
		return models.NewValidationError("please add a description")
	case !in.Category.Valid():
		return models.NewValidationError("please select a valid category")
	case strings.TrimSpace(in.Venue.Name) == "":
		return models.NewValidationError("please add a venue name")
	case strings.TrimSpace(in.Venue.Address.City) == "":
		return models.NewValidationError("please add a city")
	case strings.TrimSpace(in.Venue.Address.Country) == "":
		return models.NewValidationError("please add a country")
	case in.Date.IsZero():
		return models.NewValidationError("please add an event date")
	case strings.TrimSpace(in.Time) == "":
		return models.NewValidationError("please add an event time")
	case in.Status != "" && !in.Status.Valid():
		return models.NewValidationError("invalid status %q", in.Status)
	case in.AgeRestriction != "" && !in.AgeRestriction.Valid():
		return models.NewValidationError("invalid age restriction %q", in.AgeRestriction)
	}
	return nil
}

func validateTicketInput(in TicketInput) error {
	switch {
	case !in.Type.Valid():
		return models.NewValidationError("please select a valid ticket type")
	case in.Price.IsNegative():
		return models.NewValidationError("price cannot be negative")
	case in.Quantity < 1:
		return models.NewValidationError("quantity must be at least 1")
	case in.MaxPerPurchase < 0:
		return models.NewValidationError("max per purchase cannot be negative")
	case in.SaleStartDate != nil && in.SaleEndDate != nil && in.SaleEndDate.Before(*in.SaleStartDate):
		return models.NewValidationError("sale end date is before sale start date")
	}
	return nil
}

func applyEventPatch(event *models.Event, p EventPatch) error {
	if p.Title != nil {
		event.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		event.Description = *p.Description
	}
	if p.Category != nil {
		event.Category = *p.Category
	}
	if p.SubCategory != nil {
		event.SubCategory = *p.SubCategory
	}
	if p.Venue != nil {
		event.Venue = *p.Venue
	}
	if p.Date != nil {
		event.Date = *p.Date
	}
	if p.EndDate != nil {
		event.EndDate = p.EndDate
	}
	if p.Time != nil {
		event.Time = *p.Time
	}
	if p.Duration != nil {
		event.Duration = *p.Duration
	}
	if p.Images != nil {
		event.Images = models.StringList(p.Images)
	}
	if p.MainImage != nil {
		event.MainImage = *p.MainImage
	}
	if p.Featured != nil {
		event.Featured = *p.Featured
	}
	if p.Status != nil {
		event.Status = *p.Status
	}
	if p.Tags != nil {
		event.Tags = models.StringList(p.Tags)
	}
	if p.AgeRestriction != nil {
		event.AgeRestriction = *p.AgeRestriction
	}

	return validateEventInput(EventInput{
		Title:          event.Title,
		Description:    event.Description,
		Category:       event.Category,
		Venue:          event.Venue,
		Date:           event.Date,
		Time:           event.Time,
		Status:         event.Status,
		AgeRestriction: event.AgeRestriction,
	})
}

func applyTicketPatch(ticket *models.Ticket, p TicketPatch) error {
	if p.Type != nil {
		ticket.Type = *p.Type
	}
	if p.Price != nil {
		ticket.Price = p.Price.Round(2)
	}
	if p.Quantity != nil {
		ticket.Quantity = *p.Quantity
	}
	if p.Description != nil {
		ticket.Description = *p.Description
	}
	if p.SaleStartDate != nil {
		ticket.SaleStartDate = p.SaleStartDate
	}
	if p.SaleEndDate != nil {
		ticket.SaleEndDate = p.SaleEndDate
	}
	if p.MaxPerPurchase != nil {
		ticket.MaxPerPurchase = *p.MaxPerPurchase
	}
	if p.Active != nil {
		ticket.Active = *p.Active
	}

	if err := validateTicketInput(TicketInput{
		Type:           ticket.Type,
		Price:          ticket.Price,
		Quantity:       ticket.Quantity,
		SaleStartDate:  ticket.SaleStartDate,
		SaleEndDate:    ticket.SaleEndDate,
		MaxPerPurchase: ticket.MaxPerPurchase,
	}); err != nil {
		return err
	}
	if ticket.Quantity < ticket.QuantitySold {
		return models.NewValidationError("quantity cannot be lower than the %d tickets already sold", ticket.QuantitySold)
	}
	return nil
}
