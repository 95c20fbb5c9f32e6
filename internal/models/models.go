// Package models contains the gorm models persisted by the backend.
package models

// All lists every model for schema migration, parents before children.
func All() []any {
	return []any{
		&AdminUser{},
		&Complaint{},
		&Member{},
		&Event{},
		&EventRegistration{},
		&Donation{},
		&GalleryItem{},
		&NewsletterSubscriber{},
		&NewsletterCampaign{},
	}
}
