package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Gallery item statuses and media types.
const (
	GalleryPublished = "published"
	GalleryDraft     = "draft"

	MediaImage = "image"
	MediaVideo = "video"
)

// GalleryItem is a photo or video shown in the public gallery.
type GalleryItem struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"size:64;index" json:"category"`
	MediaType   string         `gorm:"size:16;not null" json:"media_type"`
	FilePath    string         `gorm:"size:255;not null" json:"file_path"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags"`
	Status      string         `gorm:"size:32;not null;index;default:published" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BeforeCreate generates a UUID for the item if the ID is not set yet.
func (g *GalleryItem) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	return
}
