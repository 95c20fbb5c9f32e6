package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Event statuses.
const (
	EventUpcoming  = "upcoming"
	EventOngoing   = "ongoing"
	EventPast      = "past"
	EventCancelled = "cancelled"
)

// Event is a public programme (camp, seminar, rally) announced on the website.
type Event struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"size:64;index" json:"category"`
	Location    string         `gorm:"size:255;not null" json:"location"`
	StartTime   time.Time      `gorm:"not null;index" json:"start_time"`
	EndTime     *time.Time     `json:"end_time"`
	Capacity    int64          `gorm:"not null;default:0" json:"capacity"`
	ImagePath   string         `gorm:"size:255" json:"image_path"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags"`
	Status      string         `gorm:"size:32;not null;index;default:upcoming" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BeforeCreate generates a UUID for the event if the ID is not set yet.
func (e *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return
}

// EventRegistration is a visitor's sign-up for an event.
// An email address can register for a given event only once.
type EventRegistration struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	EventID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_event_registration_email" json:"event_id"`
	Event     *Event    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	Email     string    `gorm:"size:254;not null;uniqueIndex:idx_event_registration_email" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate generates a UUID for the registration if the ID is not set yet.
func (r *EventRegistration) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}
