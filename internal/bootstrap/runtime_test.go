package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"folio/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:             "test",
		Port:            "0",
		JWTSecret:       "test-secret-that-is-long-enough-123",
		JWTTTLHours:     1,
		DBDriver:        "sqlite",
		DBName:          filepath.Join(t.TempDir(), "folio.db"),
		DBMaxOpenConns:  1,
		TracingExporter: "stdout",
	}
}

func TestInitRuntime_SQLiteWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := sqliteConfig(t)
	cfg.RedisURL = mr.Addr()
	ctx := context.Background()

	rt, err := InitRuntime(ctx, cfg, Options{ApplySchema: true, Redis: true, Tracing: true})
	require.NoError(t, err)

	require.NotNil(t, rt.Redis)
	assert.NoError(t, rt.Redis.Ping(ctx).Err())
	assert.True(t, rt.DB.Migrator().HasTable("posts"))
	assert.True(t, rt.DB.Migrator().HasTable("users"))

	require.NoError(t, rt.Close(ctx))
	assert.Nil(t, rt.DB)
	assert.Nil(t, rt.Redis)
}

func TestInitRuntime_RedisIsOptional(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := sqliteConfig(t)
	cfg.RedisURL = addr
	rt, err := InitRuntime(ctx, cfg, Options{Redis: true})
	require.NoError(t, err)
	assert.Nil(t, rt.Redis)
	require.NoError(t, rt.Close(ctx))

	cfg = sqliteConfig(t)
	rt, err = InitRuntime(ctx, cfg, Options{Redis: true})
	require.NoError(t, err)
	assert.Nil(t, rt.Redis)
	require.NoError(t, rt.Close(ctx))
}

func TestInitRuntime_SchemaNone(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.DBSchemaMode = "none"
	ctx := context.Background()

	rt, err := InitRuntime(ctx, cfg, Options{ApplySchema: true})
	require.NoError(t, err)
	defer func() { _ = rt.Close(ctx) }()
	assert.False(t, rt.DB.Migrator().HasTable("posts"))
}
