package database

import (
	"context"
	"fmt"
	"log/slog"

	"folio/internal/config"
	"folio/internal/middleware"
	"folio/internal/models"

	"gorm.io/gorm"
)

const (
	SchemaModeAuto = "auto"
	SchemaModeSQL  = "sql"
	SchemaModeNone = "none"
)

// SchemaStatus describes what ApplySchema would do and which SQL migrations are pending.
type SchemaStatus struct {
	Mode              string
	Environment       string
	AppliedVersions   []int
	PendingMigrations []Migration
}

// PersistentModels returns the schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
	}
}

// EffectiveSchemaMode resolves DB_SCHEMA_MODE. An empty mode means auto outside
// production and sql in production. SQLite always uses auto, since the
// embedded scripts are written for PostgreSQL.
func EffectiveSchemaMode(cfg *config.Config) string {
	mode := cfg.DBSchemaMode
	if mode == "" {
		mode = SchemaModeAuto
		if cfg.IsProduction() {
			mode = SchemaModeSQL
		}
	}
	if mode == SchemaModeSQL && cfg.DBDriver == "sqlite" {
		return SchemaModeAuto
	}
	return mode
}

// ApplySchema brings the database schema up to date according to the schema mode.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	mode := EffectiveSchemaMode(cfg)
	switch mode {
	case SchemaModeNone:
		middleware.Logger.InfoContext(ctx, "Schema management disabled")
		return nil
	case SchemaModeSQL:
		migrations, err := GetMigrations()
		if err != nil {
			return err
		}
		if err := RunMigrations(ctx, db, migrations); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
		return nil
	case SchemaModeAuto:
		middleware.Logger.InfoContext(ctx, "Running GORM AutoMigrate", slog.String("env", cfg.Env))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
}

// GetSchemaStatus reports applied and pending SQL migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	status := &SchemaStatus{
		Mode:        EffectiveSchemaMode(cfg),
		Environment: cfg.Env,
	}
	if status.Mode != SchemaModeSQL {
		return status, nil
	}

	migrations, err := GetMigrations()
	if err != nil {
		return nil, err
	}
	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied

	appliedSet := make(map[int]bool, len(applied))
	for _, version := range applied {
		appliedSet[version] = true
	}
	for _, m := range migrations {
		if !appliedSet[m.Version] {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
