package database

import (
	"context"
	"testing"
	"testing/fstest"

	"folio/internal/config"
	"folio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "folio.db?_foreign_keys=on", sqliteDSN(""))
	assert.Equal(t, "blog.db?_foreign_keys=on", sqliteDSN("blog.db"))
	assert.Equal(t, "file::memory:?cache=shared", sqliteDSN("file::memory:?cache=shared"))
}

func TestPgDSN_DefaultsSSLMode(t *testing.T) {
	dsn := pgDSN("db", "5432", "u", "p", "folio", "")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.Contains(t, dsn, "host=db")
	assert.Contains(t, dsn, "dbname=folio")
}

func TestOpen_ConfiguresPoolAndCallbacks(t *testing.T) {
	cfg := &config.Config{
		DBMaxOpenConns:           1,
		DBMaxIdleConns:           1,
		DBConnMaxLifetimeMinutes: 15,
	}

	db, err := Open(cfg, sqlite.Open("file:open_test?mode=memory&cache=shared&_foreign_keys=on"))
	require.NoError(t, err)
	defer func() { _ = Close(db) }()

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, db.AutoMigrate(PersistentModels()...))
	u := models.User{Name: "Ada", Email: "ada@example.com", Password: "x"}
	require.NoError(t, db.Create(&u).Error)

	var found models.User
	require.NoError(t, db.First(&found, u.ID).Error)
	assert.Equal(t, "Ada", found.Name)
	assert.Equal(t, "UTC", found.CreatedAt.Location().String())
}

func TestEffectiveSchemaMode(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.Config
		expect string
	}{
		{"development default", config.Config{Env: "development", DBDriver: "postgres"}, SchemaModeAuto},
		{"production default", config.Config{Env: "production", DBDriver: "postgres"}, SchemaModeSQL},
		{"explicit none", config.Config{Env: "production", DBDriver: "postgres", DBSchemaMode: "none"}, SchemaModeNone},
		{"sqlite forces auto", config.Config{Env: "development", DBDriver: "sqlite", DBSchemaMode: "sql"}, SchemaModeAuto},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, EffectiveSchemaMode(&tt.cfg))
		})
	}
}

func TestApplySchema_AutoAndNone(t *testing.T) {
	cfg := &config.Config{Env: "test", DBDriver: "sqlite", DBSchemaMode: "none"}
	db, err := Open(cfg, sqlite.Open("file:schema_test?mode=memory&cache=shared&_foreign_keys=on"))
	require.NoError(t, err)
	defer func() { _ = Close(db) }()

	ctx := context.Background()
	require.NoError(t, ApplySchema(ctx, db, cfg))
	assert.False(t, db.Migrator().HasTable(&models.Post{}))

	cfg.DBSchemaMode = "auto"
	require.NoError(t, ApplySchema(ctx, db, cfg))
	assert.True(t, db.Migrator().HasTable(&models.User{}))
	assert.True(t, db.Migrator().HasTable(&models.Post{}))

	status, err := GetSchemaStatus(ctx, db, cfg)
	require.NoError(t, err)
	assert.Equal(t, SchemaModeAuto, status.Mode)
	assert.Empty(t, status.PendingMigrations)
}

func TestGetMigrations_EmbeddedScriptsAreOrdered(t *testing.T) {
	migrations, err := GetMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "000001_create_users", migrations[0].String())
	assert.Equal(t, "000002_create_posts", migrations[1].String())
	assert.Contains(t, migrations[1].UpScript, "REFERENCES users")
	assert.Contains(t, migrations[1].DownScript, "DROP TABLE")
}

func TestLoadMigrations_Errors(t *testing.T) {
	t.Run("missing down script", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/000001_a.up.sql": {Data: []byte("SELECT 1;")},
		}
		_, err := LoadMigrations(fsys, "m")
		assert.ErrorContains(t, err, "down migration")
	})

	t.Run("bad version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/abc_a.up.sql":   {Data: []byte("SELECT 1;")},
			"m/abc_a.down.sql": {Data: []byte("SELECT 1;")},
		}
		_, err := LoadMigrations(fsys, "m")
		assert.ErrorContains(t, err, "invalid version")
	})

	t.Run("duplicate version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/000001_a.up.sql":   {Data: []byte("SELECT 1;")},
			"m/000001_a.down.sql": {Data: []byte("SELECT 1;")},
			"m/1_b.up.sql":        {Data: []byte("SELECT 1;")},
			"m/1_b.down.sql":      {Data: []byte("SELECT 1;")},
		}
		_, err := LoadMigrations(fsys, "m")
		assert.ErrorContains(t, err, "used by both")
	})
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1, Name: "a"}, {Version: 2, Name: "b"}}
	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))

	err := validateAppliedVersions([]int{1, 7, 3}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000003, 000007")
}
