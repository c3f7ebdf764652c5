package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farellandr/ticketmart/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// GetByUser returns the user's cart with ticket and event details on each line.
func (r *CartRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	db := conn(ctx, r.db)
	err := db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrCartNotFound
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	if err := attachCartDetails(db, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// CreateIfAbsent inserts cart unless the user already has one, then returns
// whichever cart is stored. Concurrent first uses converge on a single row.
func (r *CartRepository) CreateIfAbsent(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	err := conn(ctx, r.db).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(cart).Error
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return r.GetByUser(ctx, cart.UserID)
}

// Save upserts the cart header and replaces its lines, then refreshes the
// line details.
func (r *CartRepository) Save(ctx context.Context, cart *models.Cart) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		db := conn(ctx, r.db)
		err := db.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"total_amount", "expires_at", "updated_at"}),
			}).
			Create(cart).Error
		if err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		if err := db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("clear cart items: %w", err)
		}
		if len(cart.Items) == 0 {
			return nil
		}
		for i := range cart.Items {
			cart.Items[i].ID = 0
			cart.Items[i].CartID = cart.ID
			cart.Items[i].Position = i
		}
		if err := db.Create(&cart.Items).Error; err != nil {
			return fmt.Errorf("save cart items: %w", err)
		}
		return attachCartDetails(db, cart)
	})
}

func (r *CartRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		db := conn(ctx, r.db)
		sub := db.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)
		if err := db.Where("cart_id IN (?)", sub).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("delete cart items: %w", err)
		}
		if err := db.Where("user_id = ?", userID).Delete(&models.Cart{}).Error; err != nil {
			return fmt.Errorf("delete cart: %w", err)
		}
		return nil
	})
}

// DeleteExpired removes carts whose expiry is at or before cutoff and
// returns how many were removed.
func (r *CartRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := withTx(ctx, r.db, func(ctx context.Context) error {
		db := conn(ctx, r.db)
		sub := db.Model(&models.Cart{}).Select("id").Where("expires_at <= ?", cutoff)
		if err := db.Where("cart_id IN (?)", sub).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("delete expired cart items: %w", err)
		}
		res := db.Where("expires_at <= ?", cutoff).Delete(&models.Cart{})
		if res.Error != nil {
			return fmt.Errorf("delete expired carts: %w", res.Error)
		}
		removed = res.RowsAffected
		return nil
	})
	return removed, err
}
