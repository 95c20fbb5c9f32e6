// Package gallery manages the photos and videos of the public gallery.
package gallery

import (
	"bhrc/backend/internal/apperrors"
	"bhrc/backend/internal/crud"
	"bhrc/backend/internal/logging"
	"bhrc/backend/internal/models"
	"bhrc/backend/internal/storage"
	"bhrc/backend/internal/uploads"
	"context"
	"log/slog"
	"mime/multipart"
	"strings"
)

// Bucket is the upload bucket for gallery media.
const Bucket = "gallery"

// PublicScope limits anonymous visitors to published items.
var PublicScope = map[string]any{"status": models.GalleryPublished}

// FileStore keeps uploaded media.
type FileStore interface {
	Save(bucket string, fh *multipart.FileHeader) (uploads.File, error)
	Remove(paths ...string) error
}

// Schema describes gallery items for the generic CRUD service. The media
// type and file path come from the upload and cannot be edited.
var Schema = crud.Schema[models.GalleryItem]{
	Name: "gallery item",
	Fields: []crud.Field{
		{Name: "title", Rules: "required,min=2,max=200"},
		{Name: "description"},
		{Name: "category", Rules: "max=64"},
		{Name: "tags", Kind: crud.List, Rules: "max=20,dive,max=50"},
		{Name: "status"},
	},
	Filters:       []string{"status", "category", "media_type"},
	SearchColumns: []string{"title", "description"},
	Statuses:      []string{models.GalleryPublished, models.GalleryDraft},
	DefaultStatus: models.GalleryPublished,
	DefaultOrder:  "created_at DESC",
}

// Service adds media handling to gallery CRUD.
type Service struct {
	*crud.Service[models.GalleryItem]
	Files FileStore
}

// NewService creates a new gallery service.
func NewService(repo storage.Repository[models.GalleryItem], files FileStore) *Service {
	return &Service{Service: crud.NewService(repo, Schema), Files: files}
}

// Upload stores file and creates the gallery item describing it.
func (s *Service) Upload(ctx context.Context, input map[string]any, file *multipart.FileHeader) (*models.GalleryItem, error) {
	if file == nil {
		return nil, apperrors.NewValidation("file", "File is required")
	}
	item, err := s.Build(input)
	if err != nil {
		return nil, err
	}

	f, err := s.Files.Save(Bucket, file)
	if err != nil {
		return nil, err
	}
	item.FilePath = f.Path
	item.MediaType = MediaType(f.MimeType)

	if err := s.Insert(ctx, item); err != nil {
		if rmErr := s.Files.Remove(f.Path); rmErr != nil {
			slog.ErrorContext(ctx, "failed to remove unsaved gallery file", "error", rmErr)
		}
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("gallery_item_id", item.ID))
	slog.InfoContext(ctx, "gallery item uploaded", "media_type", item.MediaType, "size", f.Size)
	return item, nil
}

// Delete removes the item and then its file.
func (s *Service) Delete(ctx context.Context, id string) error {
	item, err := s.Get(ctx, id, nil)
	if err != nil {
		return err
	}
	if err := s.Service.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.Files.Remove(item.FilePath); err != nil {
		slog.ErrorContext(ctx, "failed to remove gallery file", "error", err, "path", item.FilePath)
	}
	return nil
}

// MediaType classifies a sniffed MIME type as image or video.
func MediaType(mime string) string {
	if strings.HasPrefix(mime, "video/") {
		return models.MediaVideo
	}
	return models.MediaImage
}
