package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Newsletter statuses.
const (
	SubscriberActive       = "active"
	SubscriberUnsubscribed = "unsubscribed"

	CampaignDraft = "draft"
	CampaignSent  = "sent"
)

// NewsletterSubscriber is an email address receiving newsletter campaigns.
type NewsletterSubscriber struct {
	ID               string     `gorm:"primaryKey;type:uuid" json:"id"`
	Email            string     `gorm:"size:254;not null;uniqueIndex" json:"email"`
	Name             string     `gorm:"size:150" json:"name"`
	Status           string     `gorm:"size:32;not null;index;default:active" json:"status"`
	UnsubscribeToken string     `gorm:"size:64;not null;uniqueIndex" json:"-"`
	SubscribedAt     time.Time  `json:"subscribed_at"`
	UnsubscribedAt   *time.Time `json:"unsubscribed_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// BeforeCreate fills the ID, the unsubscribe token and the subscription time.
func (s *NewsletterSubscriber) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.UnsubscribeToken == "" {
		s.UnsubscribeToken = uuid.New().String()
	}
	if s.SubscribedAt.IsZero() {
		s.SubscribedAt = time.Now()
	}
	return
}

// NewsletterCampaign is a newsletter issue written in Markdown.
type NewsletterCampaign struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	Subject        string     `gorm:"size:200;not null" json:"subject"`
	Body           string     `gorm:"type:text;not null" json:"body"`
	BodyHTML       string     `gorm:"type:text" json:"body_html"`
	Status         string     `gorm:"size:32;not null;index;default:draft" json:"status"`
	RecipientCount int64      `gorm:"not null;default:0" json:"recipient_count"`
	SentAt         *time.Time `json:"sent_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BeforeCreate generates a UUID for the campaign if the ID is not set yet.
func (c *NewsletterCampaign) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}
