package service

import (
	"context"
	"errors"

	"github.com/farellandr/ticketmart/internal/clock"
	"github.com/farellandr/ticketmart/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CartService struct {
	tx      Transactor
	carts   CartStore
	tickets TicketStore
	clock   clock.Clock
	log     *zap.Logger
}

func NewCartService(tx Transactor, carts CartStore, tickets TicketStore, clk clock.Clock, log *zap.Logger) *CartService {
	return &CartService{tx: tx, carts: carts, tickets: tickets, clock: clk, log: log}
}

// Get returns the user's cart, creating an empty one on first use. A cart
// past its expiry comes back empty with a fresh window.
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart *models.Cart
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		cart, err = s.current(ctx, userID)
		return err
	})
	return cart, err
}

// AddItem sets the line for ticketID to quantity at the ticket's current
// price. Adding a ticket already in the cart replaces its quantity.
func (s *CartService) AddItem(ctx context.Context, userID, ticketID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, models.ErrInvalidQuantity
	}
	var cart *models.Cart
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		ticket, err := s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := s.checkPurchasable(ticket, quantity); err != nil {
			return err
		}

		cart, err = s.current(ctx, userID)
		if err != nil {
			return err
		}
		if err := cart.AddItem(ticket.ID, ticket.EventID, quantity, ticket.Price); err != nil {
			return err
		}
		return s.carts.Save(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, ticketID uuid.UUID) (*models.Cart, error) {
	var cart *models.Cart
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		cart, err = s.existing(ctx, userID)
		if err != nil {
			return err
		}
		if !cart.RemoveItem(ticketID) {
			return nil
		}
		return s.carts.Save(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, ticketID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, models.ErrInvalidQuantity
	}
	var cart *models.Cart
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		cart, err = s.existing(ctx, userID)
		if err != nil {
			return err
		}
		if _, ok := cart.Item(ticketID); !ok {
			return models.ErrCartItemNotFound
		}
		ticket, err := s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := s.checkPurchasable(ticket, quantity); err != nil {
			return err
		}
		if err := cart.UpdateQuantity(ticketID, quantity); err != nil {
			return err
		}
		return s.carts.Save(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart *models.Cart
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		cart, err = s.existing(ctx, userID)
		if err != nil {
			return err
		}
		cart.Clear()
		return s.carts.Save(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) checkPurchasable(ticket *models.Ticket, quantity int) error {
	if !ticket.Active || !ticket.OnSale(s.clock.Now()) {
		return models.ErrTicketNotOnSale
	}
	if quantity > ticket.MaxPerPurchase {
		return models.NewValidationError("you can only purchase up to %d tickets of this type", ticket.MaxPerPurchase)
	}
	if quantity > ticket.Available() {
		return models.ErrInsufficientInventory
	}
	return nil
}

func (s *CartService) current(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	now := s.clock.Now()
	cart, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, models.ErrCartNotFound) {
		return s.carts.CreateIfAbsent(ctx, models.NewCart(userID, now))
	}
	if err != nil {
		return nil, err
	}
	if cart.Expired(now) {
		s.log.Debug("cart expired, starting over",
			zap.String("user_id", userID.String()),
			zap.Int("dropped_items", len(cart.Items)),
		)
		cart.Renew(now)
		if err := s.carts.Save(ctx, cart); err != nil {
			return nil, err
		}
	}
	return cart, nil
}

// existing is current without the implicit create: mutations other than add
// require a cart to already exist.
func (s *CartService) existing(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if now := s.clock.Now(); cart.Expired(now) {
		cart.Renew(now)
		if err := s.carts.Save(ctx, cart); err != nil {
			return nil, err
		}
	}
	return cart, nil
}
