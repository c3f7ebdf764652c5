package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/farellandr/ticketmart/internal/clock"
	"github.com/farellandr/ticketmart/internal/events"
	"github.com/farellandr/ticketmart/internal/gateway"
	"github.com/farellandr/ticketmart/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const metadataUserID = "user_id"

// CheckoutItem is one requested line. Prices always come from the catalog.
type CheckoutItem struct {
	TicketID uuid.UUID
	Quantity int
}

type Quote struct {
	Subtotal    decimal.Decimal
	ServiceFee  decimal.Decimal
	TotalAmount decimal.Decimal
}

type PaymentIntentResult struct {
	Intent *models.PaymentIntent
	Quote  Quote
}

// PurchasedTicket is one order line seen from the buyer's side.
type PurchasedTicket struct {
	OrderID     uuid.UUID          `json:"order"`
	OrderNumber string             `json:"orderNumber"`
	TicketID    uuid.UUID          `json:"ticket"`
	EventID     uuid.UUID          `json:"event"`
	TicketType  models.TicketType  `json:"ticketType,omitempty"`
	Quantity    int                `json:"quantity"`
	Price       decimal.Decimal    `json:"price"`
	Status      models.OrderStatus `json:"status"`
	PurchasedAt time.Time          `json:"purchasedAt"`
}

type CheckoutConfig struct {
	Currency string
}

type CheckoutService struct {
	tx        Transactor
	tickets   TicketStore
	events    EventStore
	carts     CartStore
	orders    OrderStore
	gateway   gateway.PaymentGateway
	publisher events.Publisher
	clock     clock.Clock
	log       *zap.Logger
	currency  string
}

func NewCheckoutService(
	tx Transactor,
	tickets TicketStore,
	eventStore EventStore,
	carts CartStore,
	orders OrderStore,
	gw gateway.PaymentGateway,
	publisher events.Publisher,
	clk clock.Clock,
	log *zap.Logger,
	cfg CheckoutConfig,
) *CheckoutService {
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "usd"
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CheckoutService{
		tx:        tx,
		tickets:   tickets,
		events:    eventStore,
		carts:     carts,
		orders:    orders,
		gateway:   gw,
		publisher: publisher,
		clock:     clk,
		log:       log,
		currency:  currency,
	}
}

// CreatePaymentIntent prices the requested lines (or the user's cart when
// none are given) and opens an intent for subtotal plus service fee.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, userID uuid.UUID, items []CheckoutItem) (*PaymentIntentResult, error) {
	items, err := s.resolveItems(ctx, userID, items)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, models.ErrInvalidQuantity
		}
		ticket, err := s.tickets.GetByID(ctx, item.TicketID)
		if err != nil {
			return nil, err
		}
		if err := sellable(ticket, item.Quantity, s.clock.Now()); err != nil {
			return nil, err
		}
		subtotal = subtotal.Add(ticket.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	quote := newQuote(subtotal)

	intent, err := s.gateway.CreatePaymentIntent(ctx, &gateway.IntentRequest{
		AmountCents: models.ToCents(quote.TotalAmount),
		Currency:    s.currency,
		Description: "ticketmart order",
		Metadata:    map[string]string{metadataUserID: userID.String()},
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("payment intent created",
		zap.String("user_id", userID.String()),
		zap.String("payment_intent_id", intent.ID),
		zap.Int64("amount_cents", intent.AmountCents),
		zap.String("gateway", s.gateway.Name()),
	)
	return &PaymentIntentResult{Intent: intent, Quote: quote}, nil
}

// ProcessPayment turns a succeeded payment intent into a completed order.
// Inventory reservation, order creation and cart removal commit together or
// not at all. Processing the same intent again returns the existing order
// with created set to false.
func (s *CheckoutService) ProcessPayment(ctx context.Context, userID uuid.UUID, paymentIntentID string, items []CheckoutItem) (order *models.Order, created bool, err error) {
	if strings.TrimSpace(paymentIntentID) == "" {
		return nil, false, models.NewValidationError("payment intent id is required")
	}

	intent, err := s.gateway.RetrievePaymentIntent(ctx, paymentIntentID)
	if errors.Is(err, gateway.ErrIntentNotFound) {
		return nil, false, models.ErrPaymentIntentNotFound
	}
	if err != nil {
		return nil, false, err
	}
	if !intent.Succeeded() {
		return nil, false, models.ErrPaymentNotCompleted
	}
	if owner, ok := intent.Metadata[metadataUserID]; ok && owner != userID.String() {
		return nil, false, models.ErrForbidden
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		existing, err := s.orders.GetByPaymentID(ctx, intent.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.UserID != userID {
				return models.ErrPaymentAlreadyProcessed
			}
			order = existing
			return nil
		}

		lines, err := s.resolveItems(ctx, userID, items)
		if err != nil {
			return err
		}
		order, err = s.reconcile(ctx, userID, intent, lines)
		if err != nil {
			return err
		}
		created = true
		return s.carts.DeleteByUser(ctx, userID)
	})
	if errors.Is(err, models.ErrPaymentAlreadyProcessed) {
		// A concurrent request for the same intent committed first.
		if existing, lookupErr := s.orders.GetByPaymentID(ctx, intent.ID); lookupErr == nil && existing != nil && existing.UserID == userID {
			return existing, false, nil
		}
	}
	if err != nil {
		s.log.Warn("payment processing failed",
			zap.String("user_id", userID.String()),
			zap.String("payment_intent_id", paymentIntentID),
			zap.Error(err),
		)
		return nil, false, err
	}

	if created {
		s.log.Info("order completed",
			zap.String("order_id", order.ID.String()),
			zap.String("order_number", order.OrderNumber),
			zap.String("user_id", userID.String()),
			zap.String("total", order.TotalAmount.StringFixed(2)),
		)
		s.publish(ctx, events.OrderCompleted, order)
	}
	return order, created, nil
}

func (s *CheckoutService) reconcile(ctx context.Context, userID uuid.UUID, intent *models.PaymentIntent, items []CheckoutItem) (*models.Order, error) {
	now := s.clock.Now()
	order := &models.Order{
		OrderNumber: models.NewOrderNumber(now),
		UserID:      userID,
		Status:      models.OrderStatusCompleted,
		PaymentInfo: models.PaymentInfo{
			ID:     intent.ID,
			Status: intent.Status,
			Method: models.PaymentMethodCard,
		},
		TaxAmount: decimal.Zero,
	}

	subtotal := decimal.Zero
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, models.ErrInvalidQuantity
		}
		ticket, err := s.tickets.GetByID(ctx, item.TicketID)
		if err != nil {
			return nil, err
		}
		if _, err := s.events.GetByID(ctx, ticket.EventID); err != nil {
			return nil, err
		}
		if err := sellable(ticket, item.Quantity, now); err != nil {
			return nil, err
		}
		if err := s.tickets.Reserve(ctx, ticket.ID, item.Quantity); err != nil {
			return nil, err
		}

		lineTotal := ticket.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		order.Items = append(order.Items, models.OrderItem{
			TicketID:   ticket.ID,
			EventID:    ticket.EventID,
			TicketType: ticket.Type,
			Quantity:   item.Quantity,
			Price:      ticket.Price,
			Subtotal:   lineTotal,
		})
	}

	quote := newQuote(subtotal)
	if intent.AmountCents < models.ToCents(quote.TotalAmount) {
		return nil, models.ErrPaymentAmountMismatch
	}
	order.Subtotal = quote.Subtotal
	order.ServiceFee = quote.ServiceFee
	order.TotalAmount = quote.TotalAmount

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// sellable checks the tier is active, inside its sale window and within the
// per-purchase limit. Inventory is left to Reserve.
func sellable(ticket *models.Ticket, quantity int, now time.Time) error {
	if !ticket.Active || !ticket.OnSale(now) {
		return models.ErrTicketNotOnSale
	}
	if quantity > ticket.MaxPerPurchase {
		return models.ErrMaxPerPurchaseExceeded
	}
	return nil
}

// resolveItems falls back to the user's cart when the request names no lines.
func (s *CheckoutService) resolveItems(ctx context.Context, userID uuid.UUID, items []CheckoutItem) ([]CheckoutItem, error) {
	if len(items) > 0 {
		return items, nil
	}
	cart, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, models.ErrCartNotFound) {
		return nil, models.ErrEmptyOrder
	}
	if err != nil {
		return nil, err
	}
	if cart.Expired(s.clock.Now()) || len(cart.Items) == 0 {
		return nil, models.ErrEmptyOrder
	}
	out := make([]CheckoutItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		out = append(out, CheckoutItem{TicketID: item.TicketID, Quantity: item.Quantity})
	}
	return out, nil
}

// GetOrder returns an order to its buyer or to an admin.
func (s *CheckoutService) GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.owns(order.UserID) {
		return nil, models.ErrForbidden
	}
	return order, nil
}

func (s *CheckoutService) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// ListOrganizerOrders returns every order containing at least one ticket
// for an event the actor organizes.
func (s *CheckoutService) ListOrganizerOrders(ctx context.Context, actor Actor) ([]models.Order, error) {
	if !actor.Role.CanOrganize() {
		return nil, models.ErrForbidden
	}
	eventIDs, err := s.events.IDsByOrganizer(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(eventIDs) == 0 {
		return []models.Order{}, nil
	}
	return s.orders.ListByEvents(ctx, eventIDs)
}

// PurchasedTickets flattens the user's completed orders into their lines.
func (s *CheckoutService) PurchasedTickets(ctx context.Context, userID uuid.UUID) ([]PurchasedTicket, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := []PurchasedTicket{}
	for _, order := range orders {
		if order.Status != models.OrderStatusCompleted {
			continue
		}
		for _, item := range order.Items {
			out = append(out, PurchasedTicket{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				TicketID:    item.TicketID,
				EventID:     item.EventID,
				TicketType:  item.TicketType,
				Quantity:    item.Quantity,
				Price:       item.Price,
				Status:      order.Status,
				PurchasedAt: order.CreatedAt,
			})
		}
	}
	return out, nil
}

// UpdateOrderStatus moves an order along its lifecycle. Cancelling or
// refunding gives the seats back in the same transaction.
func (s *CheckoutService) UpdateOrderStatus(ctx context.Context, actor Actor, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	if !status.Valid() {
		return nil, models.NewValidationError("unknown order status %q", status)
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !order.CanTransition(status) {
			return models.NewValidationError("cannot move order from %s to %s", order.Status, status)
		}
		if status.ReleasesInventory() && !order.Status.ReleasesInventory() {
			for _, item := range order.Items {
				if err := s.tickets.Release(ctx, item.TicketID, item.Quantity); err != nil && !models.IsNotFound(err) {
					return err
				}
			}
		}
		if err := s.orders.UpdateStatus(ctx, order.ID, status); err != nil {
			return err
		}
		order.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order status changed",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(status)),
		zap.String("by", actor.UserID.String()),
	)
	s.publish(ctx, events.OrderStatusChanged, order)
	return order, nil
}

func (s *CheckoutService) publish(ctx context.Context, eventType string, order *models.Order) {
	if err := s.publisher.PublishOrderEvent(ctx, events.NewOrderEvent(eventType, order, s.clock.Now())); err != nil {
		s.log.Error("failed to publish order event",
			zap.String("type", eventType),
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}

func newQuote(subtotal decimal.Decimal) Quote {
	subtotal = subtotal.Round(2)
	fee := models.ServiceFee(subtotal)
	return Quote{
		Subtotal:    subtotal,
		ServiceFee:  fee,
		TotalAmount: subtotal.Add(fee),
	}
}
