package observability

import (
	"context"
	"log/slog"
)

// GlobalLogger is the logger handed to repository loggers. The HTTP layer
// replaces it with its context-aware logger at startup; nil means slog.Default.
var GlobalLogger *slog.Logger

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	tableName string
	logger    *slog.Logger
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(tableName string) *RepoLogger {
	logger := GlobalLogger
	if logger == nil {
		logger = slog.Default()
	}
	return &RepoLogger{
		tableName: tableName,
		logger:    logger,
	}
}

// Log records a successful repository operation at debug level.
func (l *RepoLogger) Log(ctx context.Context, operation string, attrs ...any) {
	l.logger.DebugContext(ctx, "repository "+operation, append([]any{
		slog.String("table", l.tableName),
		slog.String("operation", operation),
	}, attrs...)...)
}

// LogError logs a repository error.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	l.logger.ErrorContext(ctx, "repository error",
		slog.String("table", l.tableName),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
