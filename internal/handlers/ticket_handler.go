package handlers

import (
	"net/http"
	"time"

	"github.com/farellandr/ticketmart/internal/helpers"
	"github.com/farellandr/ticketmart/internal/models"
	"github.com/farellandr/ticketmart/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateTicketRequest struct {
	EventID uuid.UUID `json:"event" binding:"required"`
	TicketRequest
}

type TicketUpdateRequest struct {
	Type           *string          `json:"type"`
	Price          *decimal.Decimal `json:"price"`
	Quantity       *int             `json:"quantity" binding:"omitempty,min=1"`
	Description    *string          `json:"description"`
	SaleStartDate  *time.Time       `json:"saleStartDate"`
	SaleEndDate    *time.Time       `json:"saleEndDate"`
	MaxPerPurchase *int             `json:"maxPerPurchase" binding:"omitempty,min=1"`
	Active         *bool            `json:"active"`
}

func (r TicketUpdateRequest) patch() service.TicketPatch {
	p := service.TicketPatch{
		Price:          r.Price,
		Quantity:       r.Quantity,
		Description:    r.Description,
		SaleStartDate:  r.SaleStartDate,
		SaleEndDate:    r.SaleEndDate,
		MaxPerPurchase: r.MaxPerPurchase,
		Active:         r.Active,
	}
	if r.Type != nil {
		t := models.TicketType(*r.Type)
		p.Type = &t
	}
	return p
}

type TicketHandler struct {
	catalog  *service.CatalogService
	checkout *service.CheckoutService
}

func NewTicketHandler(catalog *service.CatalogService, checkout *service.CheckoutService) *TicketHandler {
	return &TicketHandler{catalog: catalog, checkout: checkout}
}

func (h *TicketHandler) CreateTicket(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	ticket, err := h.catalog.CreateTicket(c.Request.Context(), actor, req.EventID, req.TicketRequest.input())
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusCreated, ticket)
}

func (h *TicketHandler) ListTickets(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	tickets, err := h.catalog.ListTickets(c.Request.Context(), actor)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithList(c, tickets, len(tickets), nil)
}

func (h *TicketHandler) TicketsByEvent(c *gin.Context) {
	eventID, ok := paramID(c, "eventId", "event")
	if !ok {
		return
	}

	tickets, err := h.catalog.TicketsByEvent(c.Request.Context(), eventID)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithList(c, tickets, len(tickets), nil)
}

// UserTickets lists every ticket line the caller has bought.
func (h *TicketHandler) UserTickets(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	purchased, err := h.checkout.PurchasedTickets(c.Request.Context(), actor.UserID)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithList(c, purchased, len(purchased), nil)
}

func (h *TicketHandler) GetTicket(c *gin.Context) {
	id, ok := paramID(c, "id", "ticket")
	if !ok {
		return
	}

	ticket, err := h.catalog.GetTicket(c.Request.Context(), id)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, ticket)
}

func (h *TicketHandler) UpdateTicket(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "ticket")
	if !ok {
		return
	}

	var req TicketUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	ticket, err := h.catalog.UpdateTicket(c.Request.Context(), actor, id, req.patch())
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, ticket)
}

func (h *TicketHandler) DeleteTicket(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "ticket")
	if !ok {
		return
	}

	if err := h.catalog.DeleteTicket(c.Request.Context(), actor, id); err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithMessage(c, http.StatusOK, "Ticket deleted successfully.")
}
