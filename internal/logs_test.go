package internal

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetLoggerFromString(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	debug := GetLoggerFromString("debug")
	req.True(debug.Enabled(ctx, slog.LevelDebug))

	warn := GetLoggerFromString(" WARN ")
	req.False(warn.Enabled(ctx, slog.LevelInfo))
	req.True(warn.Enabled(ctx, slog.LevelWarn))

	// Unknown levels fall back to INFO instead of failing startup.
	fallback := GetLoggerFromString("verbose")
	req.False(fallback.Enabled(ctx, slog.LevelDebug))
	req.True(fallback.Enabled(ctx, slog.LevelInfo))
}
