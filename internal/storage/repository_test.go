package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type widget struct {
	ID     string `gorm:"primaryKey"`
	Title  string
	Status string
}

// dryRunDB returns a gorm handle that renders SQL without a live server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=bhrc dbname=bhrc sslmode=disable",
	}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestListQuerySQL(t *testing.T) {
	db := dryRunDB(t)
	repo := NewRepository[widget](db, "")

	q := ListQuery{
		Offset:        40,
		Limit:         20,
		Where:         map[string]any{"status": "published"},
		Search:        "legal_aid",
		SearchColumns: []string{"title", "status"},
		Order:         "created_at DESC",
	}
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []widget
		return repo.page(repo.filter(tx.Model(&widget{}), q), q).Find(&out)
	})

	assert.Contains(t, sql, `"status" = 'published'`)
	assert.Contains(t, sql, `"title" ILIKE '%legal\_aid%'`)
	assert.Contains(t, sql, ` OR "status" ILIKE`)
	assert.Contains(t, sql, "ORDER BY created_at DESC")
	assert.Contains(t, sql, "LIMIT 20 OFFSET 40")
}

func TestListQueryWithoutSearchColumnsIgnoresSearch(t *testing.T) {
	db := dryRunDB(t)
	repo := NewRepository[widget](db, "")

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []widget
		return repo.filter(tx.Model(&widget{}), ListQuery{Search: "x"}).Find(&out)
	})
	assert.NotContains(t, sql, "ILIKE")
}

func TestWhereOrdersColumns(t *testing.T) {
	db := dryRunDB(t)
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []widget
		return where(tx, map[string]any{"status": "a", "id": "b", "title": "c"}).Find(&out)
	})
	assert.Contains(t, sql, `"id" = 'b' AND "status" = 'a' AND "title" = 'c'`)
}

type note struct {
	ID        string `gorm:"primaryKey"`
	Title     string
	Status    string
	UpdatedAt time.Time
}

func TestUpdateColumnsStillTouchesUpdatedAt(t *testing.T) {
	db := dryRunDB(t).Session(&gorm.Session{DryRun: true, SkipDefaultTransaction: true})
	var sql string
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:capture", func(tx *gorm.DB) {
		sql = tx.Statement.SQL.String()
	}))
	repo := NewRepository[note](db, "id")

	err := repo.Update(context.Background(), &note{ID: "n1", Title: "New", Status: "draft"}, "title")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, sql, `"title"=`)
	assert.Contains(t, sql, `"updated_at"=`)
	assert.NotContains(t, sql, `"status"`)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\path`, escapeLike(`c:\path`))
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)

	dup := translate(gorm.ErrDuplicatedKey)
	assert.ErrorIs(t, dup, ErrDuplicate)
	assert.ErrorIs(t, dup, gorm.ErrDuplicatedKey)

	assert.ErrorIs(t, translate(gorm.ErrForeignKeyViolated), ErrInvalidReference)

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other))
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "session:abc", sessionKey("abc"))
}
