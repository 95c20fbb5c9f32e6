// Package members handles membership applications and their review.
package members

import (
	"bhrc/backend/internal/apperrors"
	"bhrc/backend/internal/config"
	"bhrc/backend/internal/crud"
	"bhrc/backend/internal/logging"
	"bhrc/backend/internal/models"
	"bhrc/backend/internal/storage"
	"bhrc/backend/internal/uploads"
	"bhrc/backend/internal/validation"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"mime/multipart"
	"strings"
	"time"
)

// Bucket is the upload bucket for member photos.
const Bucket = "members"

// MembershipTypes are the accepted membership plans; the first is the default.
var MembershipTypes = []string{"general", "life", "volunteer", "student"}

// Notifier sends the membership emails.
type Notifier interface {
	MemberWelcome(ctx context.Context, m *models.Member) error
	MemberApproved(ctx context.Context, m *models.Member) error
}

// FileStore keeps uploaded photos.
type FileStore interface {
	Save(bucket string, fh *multipart.FileHeader) (uploads.File, error)
	Remove(paths ...string) error
}

// Schema describes members for the generic CRUD service.
func Schema(now func() time.Time) crud.Schema[models.Member] {
	return crud.Schema[models.Member]{
		Name: "member",
		Fields: []crud.Field{
			{Name: "name", Rules: "required,min=2,max=150"},
			{Name: "email", Kind: crud.Email, Rules: "required,email,max=254"},
			{Name: "phone", Kind: crud.Phone, Rules: "required,phone_in"},
			{Name: "date_of_birth", Kind: crud.Date},
			{Name: "gender", Rules: "oneof=male female other"},
			{Name: "address", Rules: "max=500"},
			{Name: "city", Rules: "max=100"},
			{Name: "state", Rules: "max=100"},
			{Name: "pin_code", Rules: "pincode"},
			{Name: "occupation", Rules: "max=100"},
			{Name: "membership_type", Rules: "oneof=" + strings.Join(MembershipTypes, " ")},
			{Name: "photo_path", Rules: "max=255"},
			{Name: "notes"},
			{Name: "status"},
		},
		Filters:          []string{"status", "membership_type", "city", "state"},
		SearchColumns:    []string{"name", "email", "phone", "city"},
		Statuses:         []string{models.MemberPending, models.MemberActive, models.MemberApproved, models.MemberRejected, models.MemberInactive},
		DefaultStatus:    models.MemberPending,
		SoftDeleteStatus: models.MemberInactive,
		DefaultOrder:     "created_at DESC",
		ConflictMessage:  "this email address is already registered",
		Prepare: func(m *models.Member) error {
			if m.MembershipType == "" {
				m.MembershipType = MembershipTypes[0]
			}
			if !m.DateOfBirth.IsZero() && validation.Age(m.DateOfBirth.Time, now()) < config.MinComplainantAge {
				return apperrors.NewValidation("date_of_birth", fmt.Sprintf("Members must be at least %d years old", config.MinComplainantAge))
			}
			return nil
		},
	}
}

// Service adds public registration and approval to member CRUD.
type Service struct {
	*crud.Service[models.Member]
	Files    FileStore
	Notifier Notifier
}

// NewService creates a new member service.
func NewService(repo storage.Repository[models.Member], files FileStore, notifier Notifier) *Service {
	return &Service{
		Service:  crud.NewService(repo, Schema(time.Now)),
		Files:    files,
		Notifier: notifier,
	}
}

// Register records a public membership application with status pending.
// Review fields in input are ignored. photo is optional.
func (s *Service) Register(ctx context.Context, input map[string]any, photo *multipart.FileHeader) (*models.Member, error) {
	clean := maps.Clone(input)
	for _, k := range []string{"status", "notes", "photo_path"} {
		delete(clean, k)
	}

	m, err := s.Build(clean)
	if err != nil {
		return nil, err
	}
	if photo != nil {
		f, err := s.Files.Save(Bucket, photo)
		if err != nil {
			return nil, err
		}
		m.PhotoPath = f.Path
	}

	if err := s.Insert(ctx, m); err != nil {
		if m.PhotoPath != "" {
			if rmErr := s.Files.Remove(m.PhotoPath); rmErr != nil {
				slog.ErrorContext(ctx, "failed to remove photo of unsaved member", "error", rmErr)
			}
		}
		return nil, err
	}

	ctx = logging.AppendCtx(ctx, slog.String("member_id", m.ID))
	slog.InfoContext(ctx, "membership application received", "membership_type", m.MembershipType)
	if err := s.Notifier.MemberWelcome(ctx, m); err != nil {
		slog.ErrorContext(ctx, "member welcome email failed", "error", err)
	}
	return m, nil
}

// Approve marks a member approved and tells them so.
func (s *Service) Approve(ctx context.Context, id string) (*models.Member, error) {
	m, err := s.Get(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	if m.Status == models.MemberApproved {
		return m, nil
	}
	if m, err = s.SetStatus(ctx, id, models.MemberApproved); err != nil {
		return nil, err
	}

	ctx = logging.AppendCtx(ctx, slog.String("member_id", m.ID))
	slog.InfoContext(ctx, "member approved")
	if err := s.Notifier.MemberApproved(ctx, m); err != nil {
		slog.ErrorContext(ctx, "member approval email failed", "error", err)
	}
	return m, nil
}
