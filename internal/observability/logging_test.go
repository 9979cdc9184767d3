package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRepoLogger_UsesGlobalLogger(t *testing.T) {
	prev := GlobalLogger
	t.Cleanup(func() { GlobalLogger = prev })

	var buf bytes.Buffer
	GlobalLogger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	l := NewRepoLogger("posts")
	l.Log(context.Background(), "create", slog.Int("id", 7))
	l.LogError(context.Background(), errors.New("boom"), "delete")

	out := buf.String()
	assert.Contains(t, out, "table=posts")
	assert.Contains(t, out, "operation=create")
	assert.Contains(t, out, "id=7")
	assert.Contains(t, out, "error=boom")
}

func TestNewRepoLogger_FallsBackToDefault(t *testing.T) {
	prev := GlobalLogger
	t.Cleanup(func() { GlobalLogger = prev })
	GlobalLogger = nil

	l := NewRepoLogger("users")
	assert.Same(t, slog.Default(), l.logger)
}
