// Package bootstrap wires the process-level dependencies shared by the
// server and the operator CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"folio/internal/cache"
	"folio/internal/config"
	"folio/internal/database"
	"folio/internal/middleware"
	"folio/internal/observability"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ServiceVersion is reported in traces.
var ServiceVersion = "dev"

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs the configured schema mode after connecting.
	ApplySchema bool
	// Redis connects to REDIS_URL. A failed connection is logged and the
	// runtime continues without Redis.
	Redis bool
	// Tracing installs the OpenTelemetry provider from config.
	Tracing bool
}

// Runtime holds the connections a process needs.
type Runtime struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client

	shutdownTracing func(context.Context) error
}

// InitRuntime connects to the database and, when asked, Redis and the tracer.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{
		Config:          cfg,
		shutdownTracing: func(context.Context) error { return nil },
	}

	if opts.Tracing {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    "folio-api",
			ServiceVersion: ServiceVersion,
			Environment:    cfg.Env,
			Enabled:        cfg.TracingEnabled,
			Exporter:       cfg.TracingExporter,
			OTLPEndpoint:   cfg.OTLPEndpoint,
			SamplerRatio:   cfg.TracingSampleRatio,
		})
		if err != nil {
			return nil, fmt.Errorf("tracing init failed: %w", err)
		}
		rt.shutdownTracing = shutdown
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: opts.ApplySchema})
	if err != nil {
		_ = rt.shutdownTracing(ctx)
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rt.DB = db

	if opts.Redis && strings.TrimSpace(cfg.RedisURL) != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			middleware.Logger.Warn("Redis unavailable, continuing without it", slog.String("error", err.Error()))
		} else {
			rt.Redis = client
		}
	}

	return rt, nil
}

// ShutdownTracing flushes pending spans.
func (rt *Runtime) ShutdownTracing(ctx context.Context) error {
	return rt.shutdownTracing(ctx)
}

// Close releases every connection and flushes tracing.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
		rt.Redis = nil
	}
	if rt.DB != nil {
		if err := database.Close(rt.DB); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		rt.DB = nil
	}
	if err := rt.shutdownTracing(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
	}
	return errors.Join(errs...)
}
