package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/farellandr/ticketmart/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	if err := conn(ctx, r.db).Create(ticket).Error; err != nil {
		return fmt.Errorf("create ticket: %w", err)
	}
	return nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := conn(ctx, r.db).Where("id = ?", id).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrTicketNotFound
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return &ticket, nil
}

// GetWithEvent is GetByID plus a summary of the owning event.
func (r *TicketRepository) GetWithEvent(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	ticket, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	found := []models.Ticket{*ticket}
	if err := attachTicketEvents(conn(ctx, r.db), found); err != nil {
		return nil, err
	}
	return &found[0], nil
}

// Update writes every mutable column except the sold counter, which only
// Reserve and Release may touch. The write only lands while the new quantity
// still covers the stored sold counter.
func (r *TicketRepository) Update(ctx context.Context, ticket *models.Ticket) error {
	res := conn(ctx, r.db).
		Model(ticket).
		Where("quantity_sold <= ?", ticket.Quantity).
		Select("*").
		Omit(clause.Associations, "ID", "EventID", "QuantitySold", "CreatedAt").
		Updates(ticket)
	if res.Error != nil {
		return fmt.Errorf("update ticket: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, ticket.ID); err != nil {
			return err
		}
		return models.NewValidationError("quantity cannot be lower than tickets already sold")
	}
	return nil
}

func (r *TicketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := conn(ctx, r.db).Where("id = ?", id).Delete(&models.Ticket{})
	if res.Error != nil {
		return fmt.Errorf("delete ticket: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrTicketNotFound
	}
	return nil
}

// ListAll returns every tier, newest first, with a summary of its event.
func (r *TicketRepository) ListAll(ctx context.Context) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	db := conn(ctx, r.db)
	if err := db.Order("created_at DESC").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	if err := attachTicketEvents(db, tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// ListByEvent returns the event's tiers ordered by price. A missing event
// yields an empty slice.
func (r *TicketRepository) ListByEvent(ctx context.Context, eventID uuid.UUID, activeOnly bool) ([]models.Ticket, error) {
	db := conn(ctx, r.db).Where("event_id = ?", eventID)
	if activeOnly {
		db = db.Where("active = ?", true)
	}
	tickets := []models.Ticket{}
	if err := db.Order("price ASC").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("list event tickets: %w", err)
	}
	return tickets, nil
}

func (r *TicketRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	if len(ids) == 0 {
		return tickets, nil
	}
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("list tickets by id: %w", err)
	}
	return tickets, nil
}

// Reserve adds qty to the sold counter only if the result stays within the
// tier's quantity. The check and the write are a single statement.
func (r *TicketRepository) Reserve(ctx context.Context, id uuid.UUID, qty int) error {
	if qty < 1 {
		return models.ErrInvalidQuantity
	}
	res := conn(ctx, r.db).
		Model(&models.Ticket{}).
		Where("id = ? AND quantity_sold + ? <= quantity", id, qty).
		Update("quantity_sold", gorm.Expr("quantity_sold + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("reserve ticket: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return models.ErrInsufficientInventory
}

// Release gives qty back, never taking the counter below zero.
func (r *TicketRepository) Release(ctx context.Context, id uuid.UUID, qty int) error {
	if qty < 1 {
		return models.ErrInvalidQuantity
	}
	res := conn(ctx, r.db).
		Model(&models.Ticket{}).
		Where("id = ? AND quantity_sold >= ?", id, qty).
		Update("quantity_sold", gorm.Expr("quantity_sold - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("release ticket: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return models.NewValidationError("cannot release more tickets than were sold")
	}
	return nil
}
