package crud_test

import (
	"bhrc/backend/internal/apperrors"
	"bhrc/backend/internal/crud"
	"bhrc/backend/internal/mocks"
	"bhrc/backend/internal/models"
	"bhrc/backend/internal/storage"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type notice struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Contact string      `json:"contact"`
	Email   string      `json:"email"`
	Seats   int64       `json:"seats"`
	Day     models.Date `json:"day"`
	Starts  time.Time   `json:"starts"`
	Tags    []string    `json:"tags"`
	Status  string      `json:"status"`
	Slug    string      `json:"slug"`
	Code    string      `json:"code"`
}

func noticeSchema(soft bool) crud.Schema[notice] {
	s := crud.Schema[notice]{
		Name: "notice",
		Fields: []crud.Field{
			{Name: "title", Rules: "required,min=3,max=50"},
			{Name: "contact", Kind: crud.Phone, Rules: "phone_in"},
			{Name: "email", Kind: crud.Email, Rules: "email"},
			{Name: "seats", Kind: crud.Int, Rules: "gte=0"},
			{Name: "day", Kind: crud.Date},
			{Name: "starts", Kind: crud.DateTime},
			{Name: "tags", Kind: crud.List},
			{Name: "status"},
			{Name: "code", Immutable: true},
		},
		Filters:       []string{"status", "code"},
		SearchColumns: []string{"title"},
		Statuses:      []string{"open", "closed"},
		DefaultStatus: "open",
		DefaultOrder:  "day DESC",
		Prepare: func(n *notice) error {
			n.Slug = strings.ToLower(strings.ReplaceAll(n.Title, " ", "-"))
			return nil
		},
		Derived: []string{"slug"},
	}
	if soft {
		s.SoftDeleteStatus = "closed"
	}
	return s
}

func newService(soft bool) (*crud.Service[notice], *mocks.Repository[notice]) {
	repo := new(mocks.Repository[notice])
	return crud.NewService[notice](repo, noticeSchema(soft)), repo
}

func TestCreate_NormalizesAndDefaults(t *testing.T) {
	svc, repo := newService(false)
	ctx := context.Background()
	repo.On("Create", ctx, mock.AnythingOfType("*crud_test.notice")).Return(nil)

	n, err := svc.Create(ctx, map[string]any{
		"id":      "ignored",
		"title":   "  Legal Aid Camp ",
		"contact": "+91 98765-43210",
		"email":   " Desk@BHRC.org ",
		"seats":   "40",
		"day":     "2026-11-02",
		"starts":  "2026-11-02T10:30",
		"tags":    "legal, , camp",
		"code":    "LAC",
	})
	require.NoError(t, err)

	assert.Empty(t, n.ID)
	assert.Equal(t, "Legal Aid Camp", n.Title)
	assert.Equal(t, "9876543210", n.Contact)
	assert.Equal(t, "desk@bhrc.org", n.Email)
	assert.Equal(t, int64(40), n.Seats)
	assert.Equal(t, "2026-11-02", n.Day.String())
	assert.Equal(t, 10, n.Starts.Hour())
	assert.Equal(t, []string{"legal", "camp"}, n.Tags)
	assert.Equal(t, "open", n.Status)
	assert.Equal(t, "legal-aid-camp", n.Slug)
	assert.Equal(t, "LAC", n.Code)
	repo.AssertExpectations(t)
}

func TestCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		field string
	}{
		{"missing title", map[string]any{}, "title"},
		{"blank title", map[string]any{"title": "   "}, "title"},
		{"short title", map[string]any{"title": "ab"}, "title"},
		{"bad phone", map[string]any{"title": "Camp", "contact": "12345"}, "contact"},
		{"bad email", map[string]any{"title": "Camp", "email": "nope"}, "email"},
		{"fractional seats", map[string]any{"title": "Camp", "seats": 2.5}, "seats"},
		{"negative seats", map[string]any{"title": "Camp", "seats": float64(-1)}, "seats"},
		{"bad date", map[string]any{"title": "Camp", "day": "02/11/2026"}, "day"},
		{"bad time", map[string]any{"title": "Camp", "starts": "tomorrow"}, "starts"},
		{"bad status", map[string]any{"title": "Camp", "status": "archived"}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newService(false)
			_, err := svc.Create(context.Background(), tt.input)

			var verr apperrors.Validation
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreate_MapsStorageErrors(t *testing.T) {
	tests := []struct {
		err    error
		target any
	}{
		{storage.ErrDuplicate, &apperrors.Conflict{}},
		{storage.ErrInvalidReference, &apperrors.Validation{}},
		{errors.New("connection reset"), &apperrors.Unexpected{}},
	}
	for _, tt := range tests {
		svc, repo := newService(false)
		repo.On("Create", mock.Anything, mock.Anything).Return(tt.err)

		_, err := svc.Create(context.Background(), map[string]any{"title": "Camp"})
		assert.ErrorAs(t, err, tt.target)
	}
}

func TestUpdate_MergesOverStoredRecord(t *testing.T) {
	svc, repo := newService(false)
	ctx := context.Background()
	stored := &notice{ID: "n1", Title: "Old title", Seats: 10, Code: "OLD", Status: "open"}
	repo.On("GetByID", ctx, "n1").Return(stored, nil)
	repo.On("Update", ctx, stored, []string{"seats", "title", "slug"}).Return(nil)

	n, err := svc.Update(ctx, "n1", map[string]any{"title": "New Title", "seats": 25, "code": "NEW", "unknown": 1})
	require.NoError(t, err)

	assert.Equal(t, "New Title", n.Title)
	assert.Equal(t, int64(25), n.Seats)
	assert.Equal(t, "OLD", n.Code)
	assert.Equal(t, "new-title", n.Slug)
	assert.Equal(t, "open", n.Status)
	repo.AssertExpectations(t)
}

func TestUpdate_ValidatesOnlySuppliedFields(t *testing.T) {
	svc, repo := newService(false)
	ctx := context.Background()

	_, err := svc.Update(ctx, "n1", map[string]any{"title": ""})
	var verr apperrors.Validation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	_, err = svc.Update(ctx, "n1", map[string]any{"status": "gone"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Field)

	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, repo := newService(false)
	repo.On("GetByID", mock.Anything, "missing").Return(nil, storage.ErrNotFound)

	_, err := svc.Update(context.Background(), "missing", map[string]any{"title": "Camp"})
	assert.True(t, apperrors.IsNotFound(err))
	assert.EqualError(t, err, "notice not found")
}

func TestDelete(t *testing.T) {
	t.Run("soft", func(t *testing.T) {
		svc, repo := newService(true)
		repo.On("UpdateColumns", mock.Anything, "n1", map[string]any{"status": "closed"}).Return(nil)
		require.NoError(t, svc.Delete(context.Background(), "n1"))
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("hard", func(t *testing.T) {
		svc, repo := newService(false)
		repo.On("Delete", mock.Anything, "n1").Return(nil)
		require.NoError(t, svc.Delete(context.Background(), "n1"))
	})

	t.Run("not found", func(t *testing.T) {
		svc, repo := newService(true)
		repo.On("UpdateColumns", mock.Anything, "nope", mock.Anything).Return(storage.ErrNotFound)
		assert.True(t, apperrors.IsNotFound(svc.Delete(context.Background(), "nope")))
	})
}

func TestList_BuildsQuery(t *testing.T) {
	svc, repo := newService(false)
	ctx := context.Background()
	want := storage.ListQuery{
		Offset:        200,
		Limit:         100,
		Where:         map[string]any{"status": "open", "code": "X"},
		Search:        "camp",
		SearchColumns: []string{"title"},
		Order:         "day DESC",
	}
	repo.On("List", ctx, want).Return([]notice{{ID: "n1"}}, int64(201), nil)

	page, err := svc.List(ctx, crud.Query{
		Page:     3,
		PageSize: 500,
		Filters:  map[string]string{"status": "open", "title": "ignored", "code": "X"},
		Search:   "camp",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 100, page.PageSize)
	assert.Equal(t, int64(201), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 1)
}

func TestList_ScopeOverridesFilters(t *testing.T) {
	svc, repo := newService(false)
	ctx := context.Background()
	repo.On("List", ctx, mock.MatchedBy(func(q storage.ListQuery) bool {
		return q.Offset == 0 && q.Limit == 20 && q.Where["status"] == "open"
	})).Return([]notice{}, int64(0), nil)

	page, err := svc.List(ctx, crud.Query{
		Filters: map[string]string{"status": "closed"},
		Scope:   map[string]any{"status": "open"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalPages)
	repo.AssertExpectations(t)
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	svc, _ := newService(false)
	_, err := svc.List(context.Background(), crud.Query{Filters: map[string]string{"status": "archived"}})
	assert.True(t, apperrors.IsValidation(err))
}

func TestGet(t *testing.T) {
	svc, repo := newService(false)
	ctx := context.Background()
	repo.On("FindOne", ctx, map[string]any{"id": "n1", "status": "open"}).Return(&notice{ID: "n1"}, nil)
	repo.On("GetByID", ctx, "n2").Return(nil, storage.ErrNotFound)

	n, err := svc.Get(ctx, "n1", map[string]any{"status": "open"})
	require.NoError(t, err)
	assert.Equal(t, "n1", n.ID)

	_, err = svc.Get(ctx, "n2", nil)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSetStatus(t *testing.T) {
	svc, repo := newService(false)
	ctx := context.Background()
	repo.On("UpdateColumns", ctx, "n1", map[string]any{"status": "closed"}).Return(nil)
	repo.On("GetByID", ctx, "n1").Return(&notice{ID: "n1", Status: "closed"}, nil)

	n, err := svc.SetStatus(ctx, "n1", "closed")
	require.NoError(t, err)
	assert.Equal(t, "closed", n.Status)

	_, err = svc.SetStatus(ctx, "n1", "deleted")
	assert.True(t, apperrors.IsValidation(err))
}
