package handlers

import (
	"net/http"

	"github.com/farellandr/ticketmart/internal/helpers"
	"github.com/farellandr/ticketmart/internal/models"
	"github.com/farellandr/ticketmart/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CheckoutItemRequest struct {
	TicketID uuid.UUID `json:"ticketId" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

// PaymentIntentRequest prices the given items, or the caller's cart when
// items is empty.
type PaymentIntentRequest struct {
	Items []CheckoutItemRequest `json:"items" binding:"omitempty,dive"`
}

type ProcessPaymentRequest struct {
	PaymentIntentID string                `json:"paymentIntentId" binding:"required"`
	Items           []CheckoutItemRequest `json:"items" binding:"omitempty,dive"`
}

type OrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending processing completed cancelled refunded"`
}

type PaymentIntentResponse struct {
	ClientSecret    string          `json:"clientSecret"`
	PaymentIntentID string          `json:"paymentIntentId"`
	Amount          decimal.Decimal `json:"amount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ServiceFee      decimal.Decimal `json:"serviceFee"`
	Currency        string          `json:"currency"`
}

type PaymentHandler struct {
	checkout *service.CheckoutService
}

func NewPaymentHandler(checkout *service.CheckoutService) *PaymentHandler {
	return &PaymentHandler{checkout: checkout}
}

func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req PaymentIntentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
			return
		}
	}

	result, err := h.checkout.CreatePaymentIntent(c.Request.Context(), actor.UserID, checkoutItems(req.Items))
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, PaymentIntentResponse{
		ClientSecret:    result.Intent.ClientSecret,
		PaymentIntentID: result.Intent.ID,
		Amount:          result.Quote.TotalAmount,
		Subtotal:        result.Quote.Subtotal,
		ServiceFee:      result.Quote.ServiceFee,
		Currency:        result.Intent.Currency,
	})
}

// ProcessPayment answers 201 with the new order, or 200 with the existing
// one when the intent was already turned into an order.
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	order, created, err := h.checkout.ProcessPayment(c.Request.Context(), actor.UserID, req.PaymentIntentID, checkoutItems(req.Items))
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	helpers.RespondWithData(c, status, order)
}

func (h *PaymentHandler) GetOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.checkout.GetOrder(c.Request.Context(), actor, id)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, order)
}

func (h *PaymentHandler) UserOrders(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	orders, err := h.checkout.ListUserOrders(c.Request.Context(), actor.UserID)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithList(c, orders, len(orders), nil)
}

func (h *PaymentHandler) OrganizerOrders(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	orders, err := h.checkout.ListOrganizerOrders(c.Request.Context(), actor)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithList(c, orders, len(orders), nil)
}

func (h *PaymentHandler) UpdateOrderStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "order")
	if !ok {
		return
	}

	var req OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	order, err := h.checkout.UpdateOrderStatus(c.Request.Context(), actor, id, models.OrderStatus(req.Status))
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, order)
}

func checkoutItems(reqs []CheckoutItemRequest) []service.CheckoutItem {
	items := make([]service.CheckoutItem, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, service.CheckoutItem{
			TicketID: r.TicketID,
			Quantity: r.Quantity,
		})
	}
	return items
}
