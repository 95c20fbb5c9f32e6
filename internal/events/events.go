// Package events manages public programmes and visitor registrations.
package events

import (
	"bhrc/backend/internal/apperrors"
	"bhrc/backend/internal/crud"
	"bhrc/backend/internal/logging"
	"bhrc/backend/internal/models"
	"bhrc/backend/internal/storage"
	"bhrc/backend/internal/uploads"
	"bhrc/backend/internal/validation"
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"
)

// Bucket is the upload bucket for event images.
const Bucket = "events"

// FileStore keeps uploaded images.
type FileStore interface {
	Save(bucket string, fh *multipart.FileHeader) (uploads.File, error)
	Remove(paths ...string) error
}

// RegistrationInput is a visitor's sign-up for an event.
type RegistrationInput struct {
	Name  string `json:"name" form:"name" validate:"required,min=2,max=150"`
	Email string `json:"email" form:"email" validate:"required,email,max=254"`
	Phone string `json:"phone" form:"phone" validate:"omitempty,phone_in"`
}

// Schema describes events for the generic CRUD service.
var Schema = crud.Schema[models.Event]{
	Name: "event",
	Fields: []crud.Field{
		{Name: "title", Rules: "required,min=3,max=200"},
		{Name: "description"},
		{Name: "category", Rules: "max=64"},
		{Name: "location", Rules: "required,max=255"},
		{Name: "start_time", Kind: crud.DateTime, Rules: "required"},
		{Name: "end_time", Kind: crud.DateTime},
		{Name: "capacity", Kind: crud.Int, Rules: "gte=0"},
		{Name: "image_path", Rules: "max=255"},
		{Name: "tags", Kind: crud.List, Rules: "max=20,dive,max=50"},
		{Name: "status"},
	},
	Filters:          []string{"status", "category"},
	SearchColumns:    []string{"title", "location", "description"},
	Statuses:         []string{models.EventUpcoming, models.EventOngoing, models.EventPast, models.EventCancelled},
	DefaultStatus:    models.EventUpcoming,
	SoftDeleteStatus: models.EventCancelled,
	DefaultOrder:     "start_time ASC",
	Prepare: func(e *models.Event) error {
		if e.EndTime != nil && e.EndTime.Before(e.StartTime) {
			return apperrors.NewValidation("end_time", "End time must be after the start time")
		}
		return nil
	},
}

// Service adds registrations and images to event CRUD.
type Service struct {
	*crud.Service[models.Event]
	Registrations storage.Repository[models.EventRegistration]
	Files         FileStore
	Now           func() time.Time
}

// NewService creates a new event service.
func NewService(repo storage.Repository[models.Event], registrations storage.Repository[models.EventRegistration], files FileStore) *Service {
	return &Service{
		Service:       crud.NewService(repo, Schema),
		Registrations: registrations,
		Files:         files,
		Now:           time.Now,
	}
}

// Register signs a visitor up for an upcoming event. Each email address may
// register once per event, and events with a capacity accept no more
// registrations than that.
func (s *Service) Register(ctx context.Context, eventID string, in RegistrationInput) (*models.EventRegistration, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = validation.NormalizePhone(in.Phone)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	ev, err := s.Get(ctx, eventID, nil)
	if err != nil {
		return nil, err
	}
	if ev.Status != models.EventUpcoming || !ev.StartTime.After(s.Now()) {
		return nil, apperrors.NewConflict("registration is closed for this event")
	}

	taken, err := s.Registrations.Count(ctx, map[string]any{"event_id": ev.ID, "email": in.Email})
	if err != nil {
		return nil, apperrors.NewUnexpected("failed to check registrations", err)
	}
	if taken > 0 {
		return nil, apperrors.NewConflict("this email address is already registered for the event")
	}
	if ev.Capacity > 0 {
		n, err := s.Registrations.Count(ctx, map[string]any{"event_id": ev.ID})
		if err != nil {
			return nil, apperrors.NewUnexpected("failed to check registrations", err)
		}
		if n >= ev.Capacity {
			return nil, apperrors.NewConflict("this event is full")
		}
	}

	reg := &models.EventRegistration{EventID: ev.ID, Name: in.Name, Email: in.Email, Phone: in.Phone}
	if err := s.Registrations.Create(ctx, reg); err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicate):
			return nil, apperrors.NewConflict("this email address is already registered for the event")
		case errors.Is(err, storage.ErrInvalidReference):
			return nil, apperrors.NewNotFound("event not found")
		}
		return nil, apperrors.NewUnexpected("failed to save registration", err)
	}

	ctx = logging.AppendCtx(ctx, slog.String("event_id", ev.ID))
	slog.InfoContext(ctx, "event registration", "registration_id", reg.ID)
	return reg, nil
}

// ListRegistrations returns the registrations of an event, oldest first.
func (s *Service) ListRegistrations(ctx context.Context, eventID string) ([]models.EventRegistration, error) {
	ev, err := s.Get(ctx, eventID, nil)
	if err != nil {
		return nil, err
	}
	regs, err := s.Registrations.FindAll(ctx, map[string]any{"event_id": ev.ID}, "created_at ASC")
	if err != nil {
		return nil, apperrors.NewUnexpected("failed to list registrations", err)
	}
	return regs, nil
}

// SetImage stores an uploaded image for the event, replacing any previous one.
func (s *Service) SetImage(ctx context.Context, eventID string, image *multipart.FileHeader) (*models.Event, error) {
	if image == nil {
		return nil, apperrors.NewValidation("image", "Image is required")
	}
	ev, err := s.Get(ctx, eventID, nil)
	if err != nil {
		return nil, err
	}
	f, err := s.Files.Save(Bucket, image)
	if err != nil {
		return nil, err
	}

	previous := ev.ImagePath
	ev.ImagePath = f.Path
	if err := s.Repo.Update(ctx, ev, "image_path"); err != nil {
		if rmErr := s.Files.Remove(f.Path); rmErr != nil {
			slog.ErrorContext(ctx, "failed to remove unused event image", "error", rmErr)
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewNotFound("event not found")
		}
		return nil, apperrors.NewUnexpected("failed to update event", err)
	}
	if previous != "" {
		if err := s.Files.Remove(previous); err != nil {
			slog.ErrorContext(ctx, "failed to remove replaced event image", "error", err)
		}
	}
	return ev, nil
}
