package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Member statuses.
const (
	MemberPending  = "pending"
	MemberActive   = "active"
	MemberApproved = "approved"
	MemberRejected = "rejected"
	MemberInactive = "inactive"
)

// Member is a registered supporter of the organisation.
type Member struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name           string    `gorm:"size:150;not null" json:"name"`
	Email          string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	Phone          string    `gorm:"size:20;not null" json:"phone"`
	DateOfBirth    Date      `json:"date_of_birth"`
	Gender         string    `gorm:"size:16" json:"gender"`
	Address        string    `gorm:"size:500" json:"address"`
	City           string    `gorm:"size:100;index" json:"city"`
	State          string    `gorm:"size:100" json:"state"`
	PinCode        string    `gorm:"size:6" json:"pin_code"`
	Occupation     string    `gorm:"size:100" json:"occupation"`
	MembershipType string    `gorm:"size:32;not null;default:general" json:"membership_type"`
	Status         string    `gorm:"size:32;not null;index;default:pending" json:"status"`
	PhotoPath      string    `gorm:"size:255" json:"photo_path"`
	Notes          string    `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID for the member if the ID is not set yet.
func (m *Member) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}
