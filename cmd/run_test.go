package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/inliner/internal/config"
	"github.com/conneroisu/inliner/internal/logging"
)

func TestWatchAndRerunUsesProvidedLogger(t *testing.T) {
	cfg := &config.Config{
		Output: t.TempDir(),
		Watch:  config.WatchConfig{Enabled: true, Debounce: 10 * time.Millisecond},
	}

	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LevelInfo,
		Format: "text",
		Output: &buf,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, watchAndRerun(ctx, cfg, logger))
	assert.Contains(t, buf.String(), "watching output tree")
}
