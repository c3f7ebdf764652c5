package handlers

import (
	"net/http"

	"github.com/farellandr/ticketmart/internal/helpers"
	"github.com/farellandr/ticketmart/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CartItemRequest struct {
	TicketID uuid.UUID `json:"ticketId" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

type CartQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type CartHandler struct {
	carts *service.CartService
}

func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	cart, err := h.carts.Get(c.Request.Context(), actor.UserID)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, cart)
}

// AddItem sets the quantity of a ticket in the cart, replacing any earlier
// quantity for the same ticket.
func (h *CartHandler) AddItem(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	cart, err := h.carts.AddItem(c.Request.Context(), actor.UserID, req.TicketID, req.Quantity)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, cart)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	ticketID, ok := paramID(c, "ticketId", "ticket")
	if !ok {
		return
	}

	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	cart, err := h.carts.UpdateQuantity(c.Request.Context(), actor.UserID, ticketID, req.Quantity)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	ticketID, ok := paramID(c, "ticketId", "ticket")
	if !ok {
		return
	}

	cart, err := h.carts.RemoveItem(c.Request.Context(), actor.UserID, ticketID)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	cart, err := h.carts.Clear(c.Request.Context(), actor.UserID)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, cart)
}
