package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/farellandr/ticketmart/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := conn(ctx, r.db).Create(order).Error; err != nil {
		if isUniqueViolation(err) {
			if violatesColumn(err, "payment_id") {
				return models.ErrPaymentAlreadyProcessed
			}
			return models.ErrDuplicateEntry
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	db := conn(ctx, r.db)
	err := db.Preload("Items").Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	found := []models.Order{order}
	if err := attachOrderDetails(db, found); err != nil {
		return nil, err
	}
	return &found[0], nil
}

// GetByPaymentID returns nil, nil when no order was recorded for the payment.
func (r *OrderRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	var order models.Order
	db := conn(ctx, r.db)
	err := db.Preload("Items").Where("payment_id = ?", paymentID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order by payment: %w", err)
	}
	found := []models.Order{order}
	if err := attachOrderDetails(db, found); err != nil {
		return nil, err
	}
	return &found[0], nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders := []models.Order{}
	db := conn(ctx, r.db)
	err := db.
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	if err := attachOrderDetails(db, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListByEvents returns orders containing at least one line for any of eventIDs.
func (r *OrderRepository) ListByEvents(ctx context.Context, eventIDs []uuid.UUID) ([]models.Order, error) {
	orders := []models.Order{}
	if len(eventIDs) == 0 {
		return orders, nil
	}
	db := conn(ctx, r.db)
	sub := db.Model(&models.OrderItem{}).Select("order_id").Where("event_id IN ?", eventIDs)
	err := db.
		Preload("Items").
		Where("id IN (?)", sub).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list event orders: %w", err)
	}
	if err := attachOrderDetails(db, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	res := conn(ctx, r.db).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrOrderNotFound
	}
	return nil
}
