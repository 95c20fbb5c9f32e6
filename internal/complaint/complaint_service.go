// Package complaint manages the complaint lifecycle: public submission,
// identifier allocation, tracking, status changes by administrators and removal.
package complaint

import (
	"bhrc/backend/internal/analysis"
	"bhrc/backend/internal/apperrors"
	"bhrc/backend/internal/auth"
	"bhrc/backend/internal/config"
	"bhrc/backend/internal/crud"
	"bhrc/backend/internal/logging"
	"bhrc/backend/internal/models"
	"bhrc/backend/internal/storage"
	"bhrc/backend/internal/uploads"
	"bhrc/backend/internal/validation"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"mime/multipart"
	"slices"
	"strings"
	"time"
)

// Bucket is the upload bucket for complaint documents.
const Bucket = "complaints"

// Notifier sends the complaint emails and staff alerts.
type Notifier interface {
	ComplaintReceived(ctx context.Context, c *models.Complaint) error
	ComplaintStatusChanged(ctx context.Context, c *models.Complaint) error
}

// FileStore keeps uploaded documents.
type FileStore interface {
	Save(bucket string, fh *multipart.FileHeader) (uploads.File, error)
	Remove(paths ...string) error
}

// RateLimiter throttles submissions per client.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// TrackingStatus is what the public tracking page shows for a complaint.
type TrackingStatus struct {
	ComplaintID string    `json:"complaint_id"`
	Status      string    `json:"status"`
	Category    string    `json:"category"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Service handles the business logic for complaints.
type Service struct {
	Repo     storage.Repository[models.Complaint]
	Files    FileStore
	Notifier Notifier
	Limiter  RateLimiter
	Policy   *auth.Policy

	SubmitLimit  int
	SubmitWindow time.Duration

	Now    func() time.Time
	Suffix func() int

	admin *crud.Service[models.Complaint]
}

// NewService creates a new complaint service.
func NewService(repo storage.Repository[models.Complaint], files FileStore, notifier Notifier, limiter RateLimiter, policy *auth.Policy) *Service {
	return &Service{
		Repo:         repo,
		Files:        files,
		Notifier:     notifier,
		Limiter:      limiter,
		Policy:       policy,
		SubmitLimit:  config.DefaultSubmitLimit,
		SubmitWindow: config.DefaultSubmitWindow,
		Now:          time.Now,
		Suffix: func() int {
			return config.ComplaintIDSuffixMin + rand.IntN(config.ComplaintIDSuffixMax-config.ComplaintIDSuffixMin+1)
		},
		admin: crud.NewService(repo, crud.Schema[models.Complaint]{
			Name:          "complaint",
			Key:           "complaint_id",
			Filters:       []string{"status", "category", "priority"},
			SearchColumns: []string{"complaint_id", "full_name", "subject", "email", "phone"},
			Statuses:      models.ComplaintStatuses,
			DefaultOrder:  "created_at DESC",
		}),
	}
}

// NewID formats a complaint identifier for the given day and suffix.
func NewID(day time.Time, suffix int) string {
	return fmt.Sprintf("%s%s%04d", config.ComplaintIDPrefix, day.Format(config.ComplaintIDDateLayout), suffix)
}

// Submit validates a public submission, stores its documents and persists it
// with status submitted. clientKey identifies the submitter for throttling.
func (s *Service) Submit(ctx context.Context, clientKey string, in Input, files []*multipart.FileHeader) (*models.Complaint, error) {
	if err := s.throttle(ctx, clientKey); err != nil {
		return nil, err
	}

	in.normalize()
	dob, incident, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	if len(files) > config.MaxComplaintDocuments {
		return nil, apperrors.NewValidation("documents", fmt.Sprintf("At most %d documents can be attached", config.MaxComplaintDocuments))
	}

	docs, err := s.saveDocuments(files)
	if err != nil {
		return nil, err
	}

	c := &models.Complaint{
		FullName:         in.FullName,
		Email:            in.Email,
		Phone:            in.Phone,
		DateOfBirth:      dob,
		Gender:           in.Gender,
		Address:          in.Address,
		City:             in.City,
		State:            in.State,
		PinCode:          in.PinCode,
		Category:         in.Category,
		Priority:         analysis.Priority(in.Category),
		Subject:          in.Subject,
		Description:      in.Description,
		IncidentDate:     incident,
		IncidentLocation: in.IncidentLocation,
		AccusedDetails:   in.AccusedDetails,
		WitnessDetails:   in.WitnessDetails,
		Status:           models.ComplaintSubmitted,
		Documents:        docs,
	}

	if err := s.insert(ctx, c); err != nil {
		if rmErr := s.Files.Remove(c.DocumentPaths()...); rmErr != nil {
			slog.ErrorContext(ctx, "failed to remove documents of unsaved complaint", "error", rmErr)
		}
		return nil, err
	}

	ctx = logging.AppendCtx(ctx, slog.String("complaint_id", c.ComplaintID))
	attrs := []any{"category", c.Category, "priority", c.Priority, "documents", len(docs)}
	if analysis.IsUrgent(c.Priority) {
		attrs = append(attrs, logging.PriorityCritical())
	}
	slog.InfoContext(ctx, "complaint submitted", attrs...)

	if err := s.Notifier.ComplaintReceived(ctx, c); err != nil {
		slog.ErrorContext(ctx, "complaint notification failed", "error", err)
	}
	return c, nil
}

// throttle fails open: a limiter outage must not block submissions.
func (s *Service) throttle(ctx context.Context, clientKey string) error {
	if s.Limiter == nil || clientKey == "" || s.SubmitLimit <= 0 {
		return nil
	}
	ok, err := s.Limiter.Allow(ctx, "complaints:"+clientKey, s.SubmitLimit, s.SubmitWindow)
	if err != nil {
		slog.WarnContext(ctx, "submission rate limiter unavailable", "error", err)
		return nil
	}
	if !ok {
		return apperrors.NewTooManyRequests("too many submissions, please try again later")
	}
	return nil
}

func (s *Service) validate(in Input) (dob, incident models.Date, err error) {
	if err = validation.Struct(in); err != nil {
		return
	}
	if _, ok := config.ComplaintCategories[in.Category]; !ok {
		err = apperrors.NewValidation("category", "Category must be one of: "+strings.Join(Categories(), ", "))
		return
	}

	today := models.NewDate(s.Now())
	// Both dates passed the datetime rule above.
	incident, _ = models.ParseDate(in.IncidentDate)
	dob, _ = models.ParseDate(in.DateOfBirth)

	if incident.After(today.Time) {
		err = apperrors.NewValidation("incident_date", "Incident date cannot be in the future")
		return
	}
	if validation.Age(dob.Time, today.Time) < config.MinComplainantAge {
		err = apperrors.NewValidation("date_of_birth", fmt.Sprintf("Complainant must be at least %d years old", config.MinComplainantAge))
		return
	}
	return
}

func (s *Service) saveDocuments(files []*multipart.FileHeader) ([]models.ComplaintDocument, error) {
	docs := make([]models.ComplaintDocument, 0, len(files))
	for _, fh := range files {
		f, err := s.Files.Save(Bucket, fh)
		if err != nil {
			saved := make([]string, 0, len(docs))
			for _, d := range docs {
				saved = append(saved, d.Path)
			}
			if rmErr := s.Files.Remove(saved...); rmErr != nil {
				slog.Error("failed to remove partially uploaded documents", "error", rmErr)
			}
			return nil, err
		}
		docs = append(docs, models.ComplaintDocument{
			FileName:     f.FileName,
			OriginalName: f.OriginalName,
			Path:         f.Path,
			MimeType:     f.MimeType,
			Size:         f.Size,
		})
	}
	return docs, nil
}

// insert allocates an identifier by generate-and-insert, retrying while the
// database reports the identifier as taken.
func (s *Service) insert(ctx context.Context, c *models.Complaint) error {
	day := s.Now()
	var err error
	for range config.ComplaintIDAttempts {
		c.ComplaintID = NewID(day, s.Suffix())
		err = s.Repo.Create(ctx, c)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrDuplicate) {
			return apperrors.NewUnexpected("failed to save complaint", err)
		}
		slog.WarnContext(ctx, "complaint id collision, retrying", "complaint_id", c.ComplaintID)
	}
	return apperrors.NewUnexpected("could not allocate a complaint id", err)
}

// GetStatus returns the public tracking view of a complaint.
func (s *Service) GetStatus(ctx context.Context, id string) (*TrackingStatus, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return nil, apperrors.NewValidation("complaint_id", "Complaint ID is required")
	}
	c, err := s.admin.Get(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	return &TrackingStatus{
		ComplaintID: c.ComplaintID,
		Status:      c.Status,
		Category:    c.Category,
		SubmittedAt: c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}, nil
}

// List returns a page of complaints for administrators.
func (s *Service) List(ctx context.Context, p auth.Principal, q crud.Query) (*crud.Page[models.Complaint], error) {
	if err := s.Policy.Check(p, auth.ActionList, auth.ResourceComplaints); err != nil {
		return nil, err
	}
	return s.admin.List(ctx, q)
}

// Get returns the full complaint record for administrators.
func (s *Service) Get(ctx context.Context, p auth.Principal, id string) (*models.Complaint, error) {
	if err := s.Policy.Check(p, auth.ActionRead, auth.ResourceComplaints); err != nil {
		return nil, err
	}
	return s.admin.Get(ctx, strings.ToUpper(strings.TrimSpace(id)), nil)
}

// UpdateStatus moves a complaint to status. Any status may replace any other.
// Non-empty notes are appended to the admin notes with a timestamp and the actor.
func (s *Service) UpdateStatus(ctx context.Context, p auth.Principal, id, status, notes string) (*models.Complaint, error) {
	if err := s.Policy.Check(p, auth.ActionUpdateStatus, auth.ResourceComplaints); err != nil {
		return nil, err
	}
	status = strings.TrimSpace(status)
	if !models.IsComplaintStatus(status) {
		return nil, apperrors.NewValidation("status", "Status must be one of: "+strings.Join(models.ComplaintStatuses, ", "))
	}

	c, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	previous := c.Status
	c.Status = status
	c.UpdatedBy = p.Actor()
	if notes = strings.TrimSpace(notes); notes != "" {
		entry := fmt.Sprintf("[%s] %s: %s", s.Now().Format("2006-01-02 15:04"), c.UpdatedBy, notes)
		if c.AdminNotes == "" {
			c.AdminNotes = entry
		} else {
			c.AdminNotes += "\n" + entry
		}
	}

	if err := s.Repo.Update(ctx, c, "status", "admin_notes", "updated_by"); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewNotFound("complaint not found")
		}
		return nil, apperrors.NewUnexpected("failed to update complaint", err)
	}

	ctx = logging.AppendCtx(ctx, slog.String("complaint_id", c.ComplaintID))
	slog.InfoContext(ctx, "complaint status changed", "from", previous, "to", status, "by", c.UpdatedBy)

	if err := s.Notifier.ComplaintStatusChanged(ctx, c); err != nil {
		slog.ErrorContext(ctx, "status notification failed", "error", err)
	}
	return c, nil
}

// Delete removes a complaint and then its documents. It cannot be undone.
func (s *Service) Delete(ctx context.Context, p auth.Principal, id string) error {
	if err := s.Policy.Check(p, auth.ActionDelete, auth.ResourceComplaints); err != nil {
		return err
	}
	c, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.admin.Delete(ctx, c.ComplaintID); err != nil {
		return err
	}

	ctx = logging.AppendCtx(ctx, slog.String("complaint_id", c.ComplaintID))
	if err := s.Files.Remove(c.DocumentPaths()...); err != nil {
		slog.ErrorContext(ctx, "failed to remove complaint documents", "error", err)
	}
	slog.InfoContext(ctx, "complaint deleted", "by", p.Actor())
	return nil
}

// Categories returns the accepted complaint categories in sorted order.
func Categories() []string {
	out := make([]string, 0, len(config.ComplaintCategories))
	for c := range config.ComplaintCategories {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
