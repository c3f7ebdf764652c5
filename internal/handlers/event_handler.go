package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/farellandr/ticketmart/internal/helpers"
	"github.com/farellandr/ticketmart/internal/models"
	"github.com/farellandr/ticketmart/internal/repository"
	"github.com/farellandr/ticketmart/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AddressRequest struct {
	Street  string `json:"street"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country" binding:"required"`
}

type VenueRequest struct {
	Name     string          `json:"name" binding:"required"`
	Address  AddressRequest  `json:"address" binding:"required"`
	Location models.GeoPoint `json:"location"`
}

func (v VenueRequest) venue() models.Venue {
	return models.Venue{
		Name: v.Name,
		Address: models.Address{
			Street:  v.Address.Street,
			City:    v.Address.City,
			State:   v.Address.State,
			ZipCode: v.Address.ZipCode,
			Country: v.Address.Country,
		},
		Location: v.Location,
	}
}

type TicketRequest struct {
	Type           string          `json:"type" binding:"required"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity" binding:"required,min=1"`
	Description    string          `json:"description"`
	SaleStartDate  *time.Time      `json:"saleStartDate"`
	SaleEndDate    *time.Time      `json:"saleEndDate"`
	MaxPerPurchase int             `json:"maxPerPurchase" binding:"omitempty,min=1"`
	Active         *bool           `json:"active"`
}

func (t TicketRequest) input() service.TicketInput {
	return service.TicketInput{
		Type:           models.TicketType(t.Type),
		Price:          t.Price,
		Quantity:       t.Quantity,
		Description:    t.Description,
		SaleStartDate:  t.SaleStartDate,
		SaleEndDate:    t.SaleEndDate,
		MaxPerPurchase: t.MaxPerPurchase,
		Active:         t.Active,
	}
}

type EventRequest struct {
	Title          string          `json:"title" binding:"required,max=100"`
	Description    string          `json:"description" binding:"required"`
	Category       string          `json:"category" binding:"required"`
	SubCategory    string          `json:"subCategory"`
	Venue          VenueRequest    `json:"venue" binding:"required"`
	Date           time.Time       `json:"date" binding:"required"`
	EndDate        *time.Time      `json:"endDate"`
	Time           string          `json:"time" binding:"required"`
	Duration       int             `json:"duration" binding:"omitempty,min=0"`
	Images         []string        `json:"images"`
	MainImage      string          `json:"mainImage"`
	Featured       bool            `json:"featured"`
	Status         string          `json:"status"`
	Tags           []string        `json:"tags"`
	AgeRestriction string          `json:"ageRestriction"`
	Tickets        []TicketRequest `json:"tickets" binding:"dive"`
}

// EventUpdateRequest carries only the fields the caller sent.
type EventUpdateRequest struct {
	Title          *string       `json:"title" binding:"omitempty,max=100"`
	Description    *string       `json:"description"`
	Category       *string       `json:"category"`
	SubCategory    *string       `json:"subCategory"`
	Venue          *VenueRequest `json:"venue"`
	Date           *time.Time    `json:"date"`
	EndDate        *time.Time    `json:"endDate"`
	Time           *string       `json:"time"`
	Duration       *int          `json:"duration" binding:"omitempty,min=0"`
	Images         []string      `json:"images"`
	MainImage      *string       `json:"mainImage"`
	Featured       *bool         `json:"featured"`
	Status         *string       `json:"status"`
	Tags           []string      `json:"tags"`
	AgeRestriction *string       `json:"ageRestriction"`
}

func (r EventUpdateRequest) patch() service.EventPatch {
	p := service.EventPatch{
		Title:       r.Title,
		Description: r.Description,
		SubCategory: r.SubCategory,
		Date:        r.Date,
		EndDate:     r.EndDate,
		Time:        r.Time,
		Duration:    r.Duration,
		Images:      r.Images,
		MainImage:   r.MainImage,
		Featured:    r.Featured,
		Tags:        r.Tags,
	}
	if r.Category != nil {
		category := models.Category(*r.Category)
		p.Category = &category
	}
	if r.Venue != nil {
		venue := r.Venue.venue()
		p.Venue = &venue
	}
	if r.Status != nil {
		status := models.EventStatus(*r.Status)
		p.Status = &status
	}
	if r.AgeRestriction != nil {
		age := models.AgeRestriction(*r.AgeRestriction)
		p.AgeRestriction = &age
	}
	return p
}

type EventHandler struct {
	catalog *service.CatalogService
	upload  helpers.UploadConfig
}

func NewEventHandler(catalog *service.CatalogService, upload helpers.UploadConfig) *EventHandler {
	return &EventHandler{catalog: catalog, upload: upload}
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	in := service.EventInput{
		Title:          req.Title,
		Description:    req.Description,
		Category:       models.Category(req.Category),
		SubCategory:    req.SubCategory,
		Venue:          req.Venue.venue(),
		Date:           req.Date,
		EndDate:        req.EndDate,
		Time:           req.Time,
		Duration:       req.Duration,
		Images:         req.Images,
		MainImage:      req.MainImage,
		Featured:       req.Featured,
		Status:         models.EventStatus(req.Status),
		Tags:           req.Tags,
		AgeRestriction: models.AgeRestriction(req.AgeRestriction),
	}
	for _, t := range req.Tickets {
		in.Tickets = append(in.Tickets, t.input())
	}

	event, err := h.catalog.CreateEvent(c.Request.Context(), actor, in)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusCreated, event)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	id, ok := paramID(c, "id", "event")
	if !ok {
		return
	}

	event, err := h.catalog.GetEvent(c.Request.Context(), id)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, event)
}

// ListEvents supports category, status, city, country, featured and
// date[gt|gte|lt|lte] filters along with sort, select, page and limit.
func (h *EventHandler) ListEvents(c *gin.Context) {
	q, ok := eventQuery(c)
	if !ok {
		return
	}

	events, total, err := h.catalog.ListEvents(c.Request.Context(), q)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	respondWithEvents(c, events, total, q)
}

func (h *EventHandler) SearchEvents(c *gin.Context) {
	q, ok := eventQuery(c)
	if !ok {
		return
	}

	events, total, err := h.catalog.SearchEvents(c.Request.Context(), c.Query("keyword"), q)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	respondWithEvents(c, events, total, q)
}

func (h *EventHandler) EventsByCategory(c *gin.Context) {
	q, ok := eventQuery(c)
	if !ok {
		return
	}

	category := models.Category(c.Param("category"))
	events, total, err := h.catalog.EventsByCategory(c.Request.Context(), category, q)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	respondWithEvents(c, events, total, q)
}

func (h *EventHandler) OrganizerEvents(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	events, err := h.catalog.OrganizerEvents(c.Request.Context(), actor)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithList(c, events, len(events), nil)
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "event")
	if !ok {
		return
	}

	var req EventUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	event, err := h.catalog.UpdateEvent(c.Request.Context(), actor, id, req.patch())
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, event)
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "event")
	if !ok {
		return
	}

	if err := h.catalog.DeleteEvent(c.Request.Context(), actor, id); err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithMessage(c, http.StatusOK, "Event deleted successfully.")
}

// UploadImage stores the multipart "file" field and makes it the event's
// main image.
func (h *EventHandler) UploadImage(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "event")
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Please upload a file.")
		return
	}

	if _, err := h.catalog.GetEvent(c.Request.Context(), id); err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	path, err := helpers.UploadFile(c, file, "events", h.upload)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	event, err := h.catalog.SetEventImage(c.Request.Context(), actor, id, path)
	if err != nil {
		_ = helpers.DeleteFile(h.upload.UploadBasePath, path)
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, event)
}

func eventQuery(c *gin.Context) (repository.EventQuery, bool) {
	page, limit := helpers.ParsePage(c)
	q := repository.EventQuery{
		Status:  models.EventStatus(c.Query("status")),
		City:    c.Query("city"),
		Country: c.Query("country"),
		Sort:    helpers.ParseSort(c.Query("sort")),
		Page:    page,
		Limit:   limit,
	}
	for _, name := range helpers.ParseSelect(c.Query("category")) {
		q.Categories = append(q.Categories, models.Category(name))
	}
	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid featured flag.")
			return q, false
		}
		q.Featured = &featured
	}
	dates, ok := helpers.ParseDateFilters(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid date filter.")
		return q, false
	}
	q.Dates = dates
	return q, true
}

func respondWithEvents(c *gin.Context, events []models.Event, total int64, q repository.EventQuery) {
	pagination := helpers.NewPagination(q.Page, q.Limit, total)
	fields := helpers.ParseSelect(c.Query("select"))
	if len(fields) == 0 {
		helpers.RespondWithList(c, events, len(events), pagination)
		return
	}

	projected, err := selectFields(events, fields)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}
	helpers.RespondWithList(c, projected, len(projected), pagination)
}

// selectFields keeps only the requested JSON keys of each event. The id is
// always kept.
func selectFields(events []models.Event, fields []string) ([]map[string]any, error) {
	keep := map[string]bool{"id": true}
	for _, f := range fields {
		keep[strings.TrimSpace(f)] = true
	}

	out := make([]map[string]any, 0, len(events))
	for i := range events {
		raw, err := json.Marshal(&events[i])
		if err != nil {
			return nil, err
		}
		var full map[string]json.RawMessage
		if err := json.Unmarshal(raw, &full); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(keep))
		for key, value := range full {
			if keep[key] {
				row[key] = value
			}
		}
		out = append(out, row)
	}
	return out, nil
}
