package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/farellandr/ticketmart/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DateOp string

const (
	DateGT  DateOp = "gt"
	DateGTE DateOp = "gte"
	DateLT  DateOp = "lt"
	DateLTE DateOp = "lte"
)

var dateOpSQL = map[DateOp]string{
	DateGT:  ">",
	DateGTE: ">=",
	DateLT:  "<",
	DateLTE: "<=",
}

type DateFilter struct {
	Op    DateOp
	Value time.Time
}

type SortField struct {
	Field string
	Desc  bool
}

// sortable maps API field names to columns.
var sortable = map[string]string{
	"date":      "date",
	"title":     "title",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"featured":  "featured",
	"category":  "category",
	"status":    "status",
}

func IsSortable(field string) bool {
	_, ok := sortable[field]
	return ok
}

type EventQuery struct {
	Keyword     string
	Categories  []models.Category
	Status      models.EventStatus
	City        string
	Country     string
	Featured    *bool
	OrganizerID *uuid.UUID
	Dates       []DateFilter
	Sort        []SortField
	Page        int
	Limit       int
}

func (q EventQuery) offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts the event together with any ticket tiers attached to it.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		if err := conn(ctx, r.db).Omit("Tickets").Create(event).Error; err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		for i := range event.Tickets {
			event.Tickets[i].EventID = event.ID
			if err := conn(ctx, r.db).Create(&event.Tickets[i]).Error; err != nil {
				return fmt.Errorf("create ticket tier %d: %w", i, err)
			}
		}
		return nil
	})
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := conn(ctx, r.db).Where("id = ?", id).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}

func (r *EventRepository) GetWithTickets(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := conn(ctx, r.db).
		Preload("Tickets", func(db *gorm.DB) *gorm.DB { return db.Order("price ASC") }).
		Where("id = ?", id).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}

func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	res := conn(ctx, r.db).
		Model(event).
		Select("*").
		Omit(clause.Associations, "ID", "OrganizerID", "CreatedAt").
		Updates(event)
	if res.Error != nil {
		return fmt.Errorf("update event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrEventNotFound
	}
	return nil
}

// Delete removes the event and every ticket tier it owns.
func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		db := conn(ctx, r.db)
		if err := db.Where("event_id = ?", id).Delete(&models.Ticket{}).Error; err != nil {
			return fmt.Errorf("delete event tickets: %w", err)
		}
		res := db.Where("id = ?", id).Delete(&models.Event{})
		if res.Error != nil {
			return fmt.Errorf("delete event: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return models.ErrEventNotFound
		}
		return nil
	})
}

// List returns one page of events matching q and the total match count.
func (r *EventRepository) List(ctx context.Context, q EventQuery) ([]models.Event, int64, error) {
	var total int64
	if err := r.filter(conn(ctx, r.db).Model(&models.Event{}), q).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	db := applySort(r.filter(conn(ctx, r.db), q), q.Sort)
	if q.Limit > 0 {
		db = db.Offset(q.offset()).Limit(q.Limit)
	}

	var events []models.Event
	if err := db.Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	return events, total, nil
}

func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Event, error) {
	var events []models.Event
	err := conn(ctx, r.db).
		Where("organizer_id = ?", organizerID).
		Order("date ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list organizer events: %w", err)
	}
	return events, nil
}

func (r *EventRepository) IDsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := conn(ctx, r.db).
		Model(&models.Event{}).
		Where("organizer_id = ?", organizerID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list organizer event ids: %w", err)
	}
	return ids, nil
}

func (r *EventRepository) filter(db *gorm.DB, q EventQuery) *gorm.DB {
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		pattern := "%" + strings.ToLower(kw) + "%"
		db = db.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(venue_name) LIKE ? OR LOWER(venue_city) LIKE ? OR LOWER(venue_country) LIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		)
	}
	if len(q.Categories) == 1 {
		db = db.Where("category = ?", q.Categories[0])
	} else if len(q.Categories) > 1 {
		db = db.Where("category IN ?", q.Categories)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.City != "" {
		db = db.Where("LOWER(venue_city) = ?", strings.ToLower(q.City))
	}
	if q.Country != "" {
		db = db.Where("LOWER(venue_country) = ?", strings.ToLower(q.Country))
	}
	if q.Featured != nil {
		db = db.Where("featured = ?", *q.Featured)
	}
	if q.OrganizerID != nil {
		db = db.Where("organizer_id = ?", *q.OrganizerID)
	}
	for _, f := range q.Dates {
		if op, ok := dateOpSQL[f.Op]; ok {
			db = db.Where("date "+op+" ?", f.Value)
		}
	}
	return db
}

func applySort(db *gorm.DB, fields []SortField) *gorm.DB {
	if len(fields) == 0 {
		return db.Order("created_at DESC")
	}
	for _, f := range fields {
		col, ok := sortable[f.Field]
		if !ok {
			continue
		}
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: f.Desc})
	}
	return db
}
