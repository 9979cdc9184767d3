// Package testutil provides shared test databases and fixtures.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"folio/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewSQLiteDB opens a private in-memory SQLite database with the users and
// posts tables migrated. The pool is pinned to one connection so every query
// sees the same in-memory database.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}))
	return db
}

// CreateUser inserts a user with a unique email derived from name.
func CreateUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%d@example.com", strings.ToLower(name), dbSeq.Add(1)),
		Password: "not-a-real-hash",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// PostFixture describes a post to insert directly, bypassing the service.
type PostFixture struct {
	Title       string
	IsDraft     bool
	PublishedAt *time.Time
	CreatedAt   time.Time
}

// CreatePost inserts a post owned by author.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, f PostFixture) *models.Post {
	t.Helper()
	title := f.Title
	if title == "" {
		title = "Fixture post"
	}
	p := &models.Post{
		Title:       title,
		Content:     "Fixture content for " + title,
		IsDraft:     f.IsDraft,
		PublishedAt: f.PublishedAt,
		AuthorID:    author.ID,
		CreatedAt:   f.CreatedAt,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// TimePtr returns a pointer to t truncated to seconds in UTC.
func TimePtr(t time.Time) *time.Time {
	v := t.UTC().Truncate(time.Second)
	return &v
}
