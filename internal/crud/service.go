package crud

import (
	"bhrc/backend/internal/apperrors"
	"bhrc/backend/internal/config"
	"bhrc/backend/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"strings"
)

// Query is a listing request.
type Query struct {
	Page     int
	PageSize int
	// Filters are raw equality filters; only the schema's Filters are honoured.
	Filters map[string]string
	Search  string
	// Scope adds conditions the caller cannot override, such as
	// restricting anonymous visitors to published rows.
	Scope map[string]any
}

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// Service implements the CRUD operations of one entity.
type Service[T any] struct {
	Repo   storage.Repository[T]
	Schema Schema[T]
}

// NewService creates a Service for schema over repo.
func NewService[T any](repo storage.Repository[T], schema Schema[T]) *Service[T] {
	return &Service[T]{Repo: repo, Schema: schema}
}

// List returns a page of records matching q.
func (s *Service[T]) List(ctx context.Context, q Query) (*Page[T], error) {
	page := max(q.Page, 1)
	size := q.PageSize
	if size <= 0 {
		size = config.DefaultPageSize
	}
	size = min(size, config.MaxPageSize)

	where := make(map[string]any)
	for _, col := range s.Schema.Filters {
		v := strings.TrimSpace(q.Filters[col])
		if v == "" {
			continue
		}
		if col == "status" && len(s.Schema.Statuses) > 0 && !s.Schema.validStatus(v) {
			return nil, s.Schema.statusError()
		}
		where[col] = v
	}
	maps.Copy(where, q.Scope)

	items, total, err := s.Repo.List(ctx, storage.ListQuery{
		Offset:        (page - 1) * size,
		Limit:         size,
		Where:         where,
		Search:        q.Search,
		SearchColumns: s.Schema.SearchColumns,
		Order:         s.Schema.DefaultOrder,
	})
	if err != nil {
		return nil, apperrors.NewUnexpected("failed to list "+s.Schema.Name+"s", err)
	}
	return &Page[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

// Get returns one record. scope adds conditions the record must also meet.
func (s *Service[T]) Get(ctx context.Context, id string, scope map[string]any) (*T, error) {
	var (
		entity *T
		err    error
	)
	if len(scope) == 0 {
		entity, err = s.Repo.GetByID(ctx, id)
	} else {
		conds := maps.Clone(scope)
		conds[s.Schema.key()] = id
		entity, err = s.Repo.FindOne(ctx, conds)
	}
	if err != nil {
		return nil, s.notFoundOr(err, "failed to load "+s.Schema.Name)
	}
	return entity, nil
}

// Create validates input and inserts the resulting record.
func (s *Service[T]) Create(ctx context.Context, input map[string]any) (*T, error) {
	entity, err := s.Build(input)
	if err != nil {
		return nil, err
	}
	if err := s.Insert(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// Build validates input and returns the entity Create would insert, so callers
// can attach files or computed values first.
func (s *Service[T]) Build(input map[string]any) (*T, error) {
	values, err := s.Schema.normalize(input, false)
	if err != nil {
		return nil, err
	}
	if err := s.Schema.check(values, false); err != nil {
		return nil, err
	}

	entity := new(T)
	if err := decode(values, entity); err != nil {
		return nil, err
	}
	if err := s.prepare(entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// Insert writes an already validated entity.
func (s *Service[T]) Insert(ctx context.Context, entity *T) error {
	if err := s.Repo.Create(ctx, entity); err != nil {
		return s.writeError(err, "failed to create "+s.Schema.Name)
	}
	return nil
}

// Update merges input over the stored record and writes the changed columns.
// Fields absent from input keep their stored values.
func (s *Service[T]) Update(ctx context.Context, id string, input map[string]any) (*T, error) {
	values, err := s.Schema.normalize(input, true)
	if err != nil {
		return nil, err
	}
	if err := s.Schema.check(values, true); err != nil {
		return nil, err
	}

	entity, err := s.Get(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return entity, nil
	}
	if err := decode(values, entity); err != nil {
		return nil, err
	}
	if err := s.prepare(entity); err != nil {
		return nil, err
	}

	columns := slices.Sorted(maps.Keys(values))
	for _, d := range s.Schema.Derived {
		if !slices.Contains(columns, d) {
			columns = append(columns, d)
		}
	}
	if err := s.Repo.Update(ctx, entity, columns...); err != nil {
		return nil, s.writeError(err, "failed to update "+s.Schema.Name)
	}
	return entity, nil
}

// SetStatus changes only the status column and returns the updated record.
func (s *Service[T]) SetStatus(ctx context.Context, id, status string) (*T, error) {
	if !s.Schema.validStatus(status) {
		return nil, s.Schema.statusError()
	}
	if err := s.Repo.UpdateColumns(ctx, id, map[string]any{"status": status}); err != nil {
		return nil, s.notFoundOr(err, "failed to update "+s.Schema.Name)
	}
	return s.Get(ctx, id, nil)
}

// Delete removes the record, or marks it with the soft-delete status.
func (s *Service[T]) Delete(ctx context.Context, id string) error {
	var err error
	if s.Schema.SoftDeleteStatus != "" {
		err = s.Repo.UpdateColumns(ctx, id, map[string]any{"status": s.Schema.SoftDeleteStatus})
	} else {
		err = s.Repo.Delete(ctx, id)
	}
	if err != nil {
		return s.notFoundOr(err, "failed to delete "+s.Schema.Name)
	}
	return nil
}

func (s *Service[T]) prepare(entity *T) error {
	if s.Schema.Prepare == nil {
		return nil
	}
	return s.Schema.Prepare(entity)
}

func (s *Service[T]) notFoundOr(err error, message string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.NewNotFound(s.Schema.Name + " not found")
	}
	return apperrors.NewUnexpected(message, err)
}

func (s *Service[T]) writeError(err error, message string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NewNotFound(s.Schema.Name + " not found")
	case errors.Is(err, storage.ErrDuplicate):
		if s.Schema.ConflictMessage != "" {
			return apperrors.NewConflict(s.Schema.ConflictMessage)
		}
		return apperrors.NewConflict("a " + s.Schema.Name + " with these details already exists")
	case errors.Is(err, storage.ErrInvalidReference):
		return apperrors.NewValidation("", "a referenced record does not exist")
	default:
		return apperrors.NewUnexpected(message, err)
	}
}

// decode merges values into entity through their JSON names.
func decode[T any](values map[string]any, entity *T) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return apperrors.NewValidation("", "invalid input", err)
	}
	if err := json.Unmarshal(raw, entity); err != nil {
		return apperrors.NewValidation("", "invalid input", err)
	}
	return nil
}
