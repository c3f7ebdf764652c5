package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusUpcoming, EventStatusOngoing, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

type AgeRestriction string

const (
	AgeRestrictionAll AgeRestriction = "All Ages"
	AgeRestriction18  AgeRestriction = "18+"
	AgeRestriction21  AgeRestriction = "21+"
)

func (a AgeRestriction) Valid() bool {
	switch a {
	case AgeRestrictionAll, AgeRestriction18, AgeRestriction21:
		return true
	}
	return false
}

type Address struct {
	Street  string `gorm:"size:255" json:"street,omitempty"`
	City    string `gorm:"size:100;not null" json:"city"`
	State   string `gorm:"size:100" json:"state,omitempty"`
	ZipCode string `gorm:"size:20" json:"zipCode,omitempty"`
	Country string `gorm:"size:100;not null" json:"country"`
}

type GeoPoint struct {
	Lng *float64 `json:"lng,omitempty"`
	Lat *float64 `json:"lat,omitempty"`
}

type Venue struct {
	Name     string   `gorm:"size:255;not null" json:"name"`
	Address  Address  `gorm:"embedded" json:"address"`
	Location GeoPoint `gorm:"embedded;embeddedPrefix:location_" json:"location"`
}

type Event struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string         `gorm:"size:100;not null" json:"title"`
	Description    string         `gorm:"type:text;not null" json:"description"`
	Category       Category       `gorm:"size:32;not null;index" json:"category"`
	SubCategory    string         `gorm:"size:100" json:"subCategory,omitempty"`
	Venue          Venue          `gorm:"embedded;embeddedPrefix:venue_" json:"venue"`
	Date           time.Time      `gorm:"not null;index" json:"date"`
	EndDate        *time.Time     `json:"endDate,omitempty"`
	Time           string         `gorm:"size:32;not null" json:"time"`
	Duration       int            `json:"duration,omitempty"`
	Images         StringList     `gorm:"type:text" json:"images"`
	MainImage      string         `gorm:"size:255" json:"mainImage"`
	OrganizerID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"organizer"`
	Featured       bool           `gorm:"not null" json:"featured"`
	Status         EventStatus    `gorm:"size:16;not null;index" json:"status"`
	Tags           StringList     `gorm:"type:text" json:"tags"`
	AgeRestriction AgeRestriction `gorm:"size:16;not null" json:"ageRestriction"`
	Tickets        []Ticket       `gorm:"constraint:OnDelete:CASCADE" json:"tickets,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

const DefaultEventImage = "default-event.jpg"

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Status == "" {
		event.Status = EventStatusUpcoming
	}
	if event.AgeRestriction == "" {
		event.AgeRestriction = AgeRestrictionAll
	}
	if event.MainImage == "" {
		event.MainImage = DefaultEventImage
	}
	return
}

// OwnedBy reports whether userID organizes the event.
func (event *Event) OwnedBy(userID uuid.UUID) bool {
	return event.OrganizerID == userID
}

// StringList is a []string persisted as a JSON array in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(l))
}
