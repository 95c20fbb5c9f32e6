package complaint_test

import (
	"bhrc/backend/internal/apperrors"
	"bhrc/backend/internal/auth"
	"bhrc/backend/internal/complaint"
	"bhrc/backend/internal/crud"
	"bhrc/backend/internal/mocks"
	"bhrc/backend/internal/models"
	"bhrc/backend/internal/storage"
	"bhrc/backend/internal/uploads"
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	now   = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	admin = auth.Principal{UserID: "u1", Email: "admin@bhrc.org", Role: auth.RoleAdmin}
)

type fixture struct {
	svc      *complaint.Service
	repo     *mocks.Repository[models.Complaint]
	files    *mocks.FileStore
	notifier *mocks.Notifier
	limiter  *mocks.RateLimiter
}

func newFixture(suffixes ...int) *fixture {
	f := &fixture{
		repo:     new(mocks.Repository[models.Complaint]),
		files:    new(mocks.FileStore),
		notifier: new(mocks.Notifier),
		limiter:  new(mocks.RateLimiter),
	}
	f.svc = complaint.NewService(f.repo, f.files, f.notifier, f.limiter, auth.NewPolicy(auth.DefaultRules))
	f.svc.Now = func() time.Time { return now }
	if len(suffixes) == 0 {
		suffixes = []int{1234}
	}
	i := 0
	f.svc.Suffix = func() int {
		s := suffixes[min(i, len(suffixes)-1)]
		i++
		return s
	}
	return f
}

func validInput() complaint.Input {
	return complaint.Input{
		FullName:         " Sita Devi ",
		Email:            "Sita@Example.org",
		Phone:            "+91 98765 43210",
		DateOfBirth:      "1990-05-01",
		PinCode:          "800001",
		Category:         "police_excess",
		Subject:          "Detained without charge",
		Description:      strings.Repeat("x", 60),
		IncidentDate:     "2026-10-01",
		IncidentLocation: "Patna",
	}
}

func TestSubmit_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.limiter.On("Allow", ctx, "complaints:10.0.0.1", 5, time.Hour).Return(true, nil)
	f.repo.On("Create", ctx, mock.AnythingOfType("*models.Complaint")).Return(nil)
	f.notifier.On("ComplaintReceived", mock.Anything, mock.AnythingOfType("*models.Complaint")).Return(nil)

	c, err := f.svc.Submit(ctx, "10.0.0.1", validInput(), nil)
	require.NoError(t, err)

	assert.Equal(t, "BHRC202610191234", c.ComplaintID)
	assert.Equal(t, models.ComplaintSubmitted, c.Status)
	assert.Equal(t, "high", c.Priority)
	assert.Equal(t, "Sita Devi", c.FullName)
	assert.Equal(t, "sita@example.org", c.Email)
	assert.Equal(t, "9876543210", c.Phone)
	assert.Equal(t, "2026-10-01", c.IncidentDate.String())
	assert.Empty(t, c.Documents)
	f.repo.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestSubmit_RetriesOnIDCollision(t *testing.T) {
	f := newFixture(1111, 2222)
	f.svc.Limiter = nil
	f.repo.On("Create", mock.Anything, mock.Anything).Return(storage.ErrDuplicate).Once()
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.notifier.On("ComplaintReceived", mock.Anything, mock.Anything).Return(nil)

	c, err := f.svc.Submit(context.Background(), "", validInput(), nil)
	require.NoError(t, err)
	assert.Equal(t, "BHRC202610192222", c.ComplaintID)
	f.repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestSubmit_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture()
	f.svc.Limiter = nil
	f.repo.On("Create", mock.Anything, mock.Anything).Return(storage.ErrDuplicate)
	f.files.On("Remove", []string{}).Return(nil)

	_, err := f.svc.Submit(context.Background(), "", validInput(), nil)

	var unexpected apperrors.Unexpected
	require.ErrorAs(t, err, &unexpected)
	f.repo.AssertNumberOfCalls(t, "Create", 8)
	f.notifier.AssertNotCalled(t, "ComplaintReceived", mock.Anything, mock.Anything)
}

func TestSubmit_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*complaint.Input)
		field  string
	}{
		{"missing name", func(in *complaint.Input) { in.FullName = "  " }, "full_name"},
		{"bad phone", func(in *complaint.Input) { in.Phone = "12345" }, "phone"},
		{"bad email", func(in *complaint.Input) { in.Email = "not-an-email" }, "email"},
		{"bad pin", func(in *complaint.Input) { in.PinCode = "012345" }, "pin_code"},
		{"short description", func(in *complaint.Input) { in.Description = strings.Repeat("x", 49) }, "description"},
		{"padded short description", func(in *complaint.Input) { in.Description = "  " + strings.Repeat("x", 49) + "  " }, "description"},
		{"unknown category", func(in *complaint.Input) { in.Category = "parking" }, "category"},
		{"malformed incident date", func(in *complaint.Input) { in.IncidentDate = "01/10/2026" }, "incident_date"},
		{"future incident date", func(in *complaint.Input) { in.IncidentDate = "2026-10-20" }, "incident_date"},
		{"under 18", func(in *complaint.Input) { in.DateOfBirth = "2008-10-20" }, "date_of_birth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.svc.Limiter = nil
			in := validInput()
			tt.mutate(&in)

			_, err := f.svc.Submit(context.Background(), "", in, nil)

			var verr apperrors.Validation
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmit_AcceptsIncidentTodayAndExactly18(t *testing.T) {
	f := newFixture()
	f.svc.Limiter = nil
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("ComplaintReceived", mock.Anything, mock.Anything).Return(nil)

	in := validInput()
	in.IncidentDate = "2026-10-19"
	in.DateOfBirth = "2008-10-19"
	_, err := f.svc.Submit(context.Background(), "", in, nil)
	assert.NoError(t, err)
}

func TestSubmit_RateLimited(t *testing.T) {
	f := newFixture()
	f.limiter.On("Allow", mock.Anything, "complaints:10.0.0.1", 5, time.Hour).Return(false, nil)

	_, err := f.svc.Submit(context.Background(), "10.0.0.1", validInput(), nil)

	var tooMany apperrors.TooManyRequests
	assert.ErrorAs(t, err, &tooMany)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmit_LimiterOutageFailsOpen(t *testing.T) {
	f := newFixture()
	f.limiter.On("Allow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("ComplaintReceived", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Submit(context.Background(), "10.0.0.1", validInput(), nil)
	assert.NoError(t, err)
}

func TestSubmit_NotificationFailureKeepsComplaint(t *testing.T) {
	f := newFixture()
	f.svc.Limiter = nil
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("ComplaintReceived", mock.Anything, mock.Anything).Return(apperrors.NewServiceUnavailable("mail down"))

	c, err := f.svc.Submit(context.Background(), "", validInput(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, c.ComplaintID)
}

func TestSubmit_StoresDocuments(t *testing.T) {
	f := newFixture()
	f.svc.Limiter = nil
	fh := &multipart.FileHeader{Filename: "fir.pdf"}
	f.files.On("Save", complaint.Bucket, fh).Return(uploads.File{
		FileName: "abc.pdf", OriginalName: "fir.pdf", Path: "complaints/abc.pdf", MimeType: "application/pdf", Size: 42,
	}, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("ComplaintReceived", mock.Anything, mock.Anything).Return(nil)

	c, err := f.svc.Submit(context.Background(), "", validInput(), []*multipart.FileHeader{fh})
	require.NoError(t, err)

	require.Len(t, c.Documents, 1)
	assert.Equal(t, "complaints/abc.pdf", c.Documents[0].Path)
	assert.Equal(t, "fir.pdf", c.Documents[0].OriginalName)
}

func TestSubmit_TooManyDocuments(t *testing.T) {
	f := newFixture()
	f.svc.Limiter = nil
	files := make([]*multipart.FileHeader, 6)
	for i := range files {
		files[i] = &multipart.FileHeader{Filename: "doc.pdf"}
	}

	_, err := f.svc.Submit(context.Background(), "", validInput(), files)

	var verr apperrors.Validation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "documents", verr.Field)
	f.files.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSubmit_RejectedUploadRemovesEarlierFiles(t *testing.T) {
	f := newFixture()
	f.svc.Limiter = nil
	good := &multipart.FileHeader{Filename: "fir.pdf"}
	bad := &multipart.FileHeader{Filename: "virus.exe"}
	f.files.On("Save", complaint.Bucket, good).Return(uploads.File{Path: "complaints/abc.pdf"}, nil)
	f.files.On("Save", complaint.Bucket, bad).Return(uploads.File{}, apperrors.NewValidation("file", "File type is not allowed"))
	f.files.On("Remove", []string{"complaints/abc.pdf"}).Return(nil)

	_, err := f.svc.Submit(context.Background(), "", validInput(), []*multipart.FileHeader{good, bad})

	assert.True(t, apperrors.IsValidation(err))
	f.files.AssertExpectations(t)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmit_PersistenceFailureRemovesFiles(t *testing.T) {
	f := newFixture()
	f.svc.Limiter = nil
	fh := &multipart.FileHeader{Filename: "fir.pdf"}
	f.files.On("Save", complaint.Bucket, fh).Return(uploads.File{Path: "complaints/abc.pdf"}, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	f.files.On("Remove", []string{"complaints/abc.pdf"}).Return(nil)

	_, err := f.svc.Submit(context.Background(), "", validInput(), []*multipart.FileHeader{fh})

	var unexpected apperrors.Unexpected
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, "failed to save complaint", unexpected.Message())
	f.files.AssertExpectations(t)
}

func TestNewID(t *testing.T) {
	assert.Equal(t, "BHRC202601020042", complaint.NewID(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), 42))
}

func TestGetStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created := now.Add(-48 * time.Hour)
	f.repo.On("GetByID", ctx, "BHRC202610191234").Return(&models.Complaint{
		ComplaintID: "BHRC202610191234",
		Status:      models.ComplaintInvestigating,
		Category:    "police_excess",
		CreatedAt:   created,
		UpdatedAt:   now,
	}, nil)
	f.repo.On("GetByID", ctx, "BHRC000000000000").Return(nil, storage.ErrNotFound)

	st, err := f.svc.GetStatus(ctx, " bhrc202610191234 ")
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintInvestigating, st.Status)
	assert.Equal(t, created, st.SubmittedAt)
	assert.Equal(t, now, st.UpdatedAt)

	_, err = f.svc.GetStatus(ctx, "BHRC000000000000")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.svc.GetStatus(ctx, "  ")
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	stored := &models.Complaint{ComplaintID: "BHRC202610191234", Status: models.ComplaintSubmitted, AdminNotes: "[2026-10-18 09:00] desk@bhrc.org: called back"}
	f.repo.On("GetByID", ctx, "BHRC202610191234").Return(stored, nil)
	f.repo.On("Update", ctx, stored, []string{"status", "admin_notes", "updated_by"}).Return(nil)
	f.notifier.On("ComplaintStatusChanged", mock.Anything, stored).Return(errors.New("mail down"))

	c, err := f.svc.UpdateStatus(ctx, admin, "BHRC202610191234", "under_review", " FIR copy verified ")
	require.NoError(t, err)

	assert.Equal(t, models.ComplaintUnderReview, c.Status)
	assert.Equal(t, "admin@bhrc.org", c.UpdatedBy)
	assert.Equal(t, "[2026-10-18 09:00] desk@bhrc.org: called back\n[2026-10-19 12:00] admin@bhrc.org: FIR copy verified", c.AdminNotes)
	f.repo.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestUpdateStatus_AnyStatusMayFollowAny(t *testing.T) {
	f := newFixture()
	stored := &models.Complaint{ComplaintID: "BHRC202610191234", Status: models.ComplaintClosed}
	f.repo.On("GetByID", mock.Anything, mock.Anything).Return(stored, nil)
	f.repo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("ComplaintStatusChanged", mock.Anything, mock.Anything).Return(nil)

	c, err := f.svc.UpdateStatus(context.Background(), admin, "BHRC202610191234", models.ComplaintSubmitted, "")
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintSubmitted, c.Status)
	assert.Empty(t, c.AdminNotes)
}

func TestUpdateStatus_Rejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, auth.Principal{}, "BHRC202610191234", "resolved", "")
	var unauthorized apperrors.Unauthorized
	assert.ErrorAs(t, err, &unauthorized)

	editor := auth.Principal{UserID: "u2", Role: auth.RoleEditor}
	_, err = f.svc.UpdateStatus(ctx, editor, "BHRC202610191234", "resolved", "")
	var forbidden apperrors.Forbidden
	assert.ErrorAs(t, err, &forbidden)

	_, err = f.svc.UpdateStatus(ctx, admin, "BHRC202610191234", "archived", "")
	assert.True(t, apperrors.IsValidation(err))

	f.repo.On("GetByID", ctx, "BHRC000000000000").Return(nil, storage.ErrNotFound)
	_, err = f.svc.UpdateStatus(ctx, admin, "BHRC000000000000", "resolved", "")
	assert.True(t, apperrors.IsNotFound(err))

	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_RemovesRecordThenFiles(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	stored := &models.Complaint{
		ComplaintID: "BHRC202610191234",
		Documents:   []models.ComplaintDocument{{Path: "complaints/a.pdf"}, {Path: "complaints/b.png"}},
	}
	f.repo.On("GetByID", ctx, "BHRC202610191234").Return(stored, nil)
	f.repo.On("Delete", ctx, "BHRC202610191234").Return(nil)
	f.files.On("Remove", []string{"complaints/a.pdf", "complaints/b.png"}).Return(nil)

	require.NoError(t, f.svc.Delete(ctx, admin, "BHRC202610191234"))
	f.repo.AssertExpectations(t)
	f.files.AssertExpectations(t)
}

func TestDelete_KeepsFilesWhenRecordRemains(t *testing.T) {
	f := newFixture()
	stored := &models.Complaint{ComplaintID: "BHRC202610191234", Documents: []models.ComplaintDocument{{Path: "complaints/a.pdf"}}}
	f.repo.On("GetByID", mock.Anything, mock.Anything).Return(stored, nil)
	f.repo.On("Delete", mock.Anything, mock.Anything).Return(errors.New("deadlock"))

	err := f.svc.Delete(context.Background(), admin, "BHRC202610191234")

	var unexpected apperrors.Unexpected
	assert.ErrorAs(t, err, &unexpected)
	f.files.AssertNotCalled(t, "Remove", mock.Anything)
}

func TestList_RequiresAdmin(t *testing.T) {
	f := newFixture()
	_, err := f.svc.List(context.Background(), auth.Principal{UserID: "u2", Role: auth.RoleEditor}, crud.Query{})
	var forbidden apperrors.Forbidden
	assert.ErrorAs(t, err, &forbidden)

	f.repo.On("List", mock.Anything, mock.MatchedBy(func(q storage.ListQuery) bool {
		return q.Where["status"] == "resolved" && q.Order == "created_at DESC"
	})).Return([]models.Complaint{{ComplaintID: "BHRC202610191234"}}, int64(1), nil)

	page, err := f.svc.List(context.Background(), admin, crud.Query{Filters: map[string]string{"status": "resolved"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}
