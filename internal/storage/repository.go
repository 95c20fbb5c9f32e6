package storage

import (
	"context"
	"maps"
	"slices"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListQuery narrows a paginated listing.
type ListQuery struct {
	Offset int
	Limit  int
	// Where holds column = value equality filters.
	Where map[string]any
	// Search is matched case-insensitively as a substring of any SearchColumns.
	Search        string
	SearchColumns []string
	Order         string
}

// Repository is the data access contract shared by every entity.
type Repository[T any] interface {
	List(ctx context.Context, q ListQuery) ([]T, int64, error)
	GetByID(ctx context.Context, id string) (*T, error)
	FindOne(ctx context.Context, conds map[string]any) (*T, error)
	FindAll(ctx context.Context, conds map[string]any, order string) ([]T, error)
	Count(ctx context.Context, conds map[string]any) (int64, error)
	Create(ctx context.Context, entity *T) error
	// Update writes the given columns of entity, or all of them when none are named.
	Update(ctx context.Context, entity *T, columns ...string) error
	UpdateColumns(ctx context.Context, id string, values map[string]any) error
	Delete(ctx context.Context, id string) error
}

// GormRepository implements Repository for a gorm model.
type GormRepository[T any] struct {
	db *gorm.DB
	pk string
}

// NewRepository creates a repository for T whose primary key column is pk ("id" when empty).
func NewRepository[T any](db *gorm.DB, pk string) *GormRepository[T] {
	if pk == "" {
		pk = "id"
	}
	return &GormRepository[T]{db: db, pk: pk}
}

func (r *GormRepository[T]) List(ctx context.Context, q ListQuery) ([]T, int64, error) {
	base := r.filter(r.db.WithContext(ctx).Model(new(T)), q).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := make([]T, 0)
	if total == 0 {
		return items, 0, nil
	}
	if err := r.page(base, q).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *GormRepository[T]) filter(tx *gorm.DB, q ListQuery) *gorm.DB {
	tx = where(tx, q.Where)
	if s := strings.TrimSpace(q.Search); s != "" && len(q.SearchColumns) > 0 {
		pattern := "%" + escapeLike(s) + "%"
		exprs := make([]clause.Expression, 0, len(q.SearchColumns))
		for _, col := range q.SearchColumns {
			exprs = append(exprs, clause.Expr{
				SQL:  "? ILIKE ?",
				Vars: []any{clause.Column{Name: col}, pattern},
			})
		}
		tx = tx.Where(clause.Or(exprs...))
	}
	return tx
}

func (r *GormRepository[T]) page(tx *gorm.DB, q ListQuery) *gorm.DB {
	if q.Order != "" {
		tx = tx.Order(q.Order)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	return tx
}

func (r *GormRepository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	return r.FindOne(ctx, map[string]any{r.pk: id})
}

func (r *GormRepository[T]) FindOne(ctx context.Context, conds map[string]any) (*T, error) {
	var entity T
	if err := where(r.db.WithContext(ctx), conds).First(&entity).Error; err != nil {
		return nil, translate(err)
	}
	return &entity, nil
}

func (r *GormRepository[T]) FindAll(ctx context.Context, conds map[string]any, order string) ([]T, error) {
	tx := where(r.db.WithContext(ctx), conds)
	if order != "" {
		tx = tx.Order(order)
	}
	items := make([]T, 0)
	if err := tx.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepository[T]) Count(ctx context.Context, conds map[string]any) (int64, error) {
	var n int64
	err := where(r.db.WithContext(ctx).Model(new(T)), conds).Count(&n).Error
	return n, err
}

func (r *GormRepository[T]) Create(ctx context.Context, entity *T) error {
	return translate(r.db.WithContext(ctx).Create(entity).Error)
}

func (r *GormRepository[T]) Update(ctx context.Context, entity *T, columns ...string) error {
	tx := r.db.WithContext(ctx).Model(entity)
	if len(columns) > 0 {
		// Only the named columns are written, plus updated_at.
		if !slices.Contains(columns, "updated_at") {
			columns = append(slices.Clone(columns), "updated_at")
		}
		tx = tx.Select(columns)
	}
	res := tx.Updates(entity)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository[T]) UpdateColumns(ctx context.Context, id string, values map[string]any) error {
	res := r.db.WithContext(ctx).Model(new(T)).
		Where(clause.Eq{Column: clause.Column{Name: r.pk}, Value: id}).
		Updates(values)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository[T]) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: r.pk}, Value: id}).
		Delete(new(T))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// where adds equality conditions in column order so the generated SQL is stable.
func where(tx *gorm.DB, conds map[string]any) *gorm.DB {
	for _, col := range slices.Sorted(maps.Keys(conds)) {
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: col}, Value: conds[col]})
	}
	return tx
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
