package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"toomuchleft/internal/config"
	"toomuchleft/internal/logging"
)

func TestSettingsProtectsRoots(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Workers = 4
	cfg.Protected = []string{"/srv"}

	settings := Settings(cfg, "/data", "")
	assert.Equal(t, 4, settings.Workers)
	assert.True(t, settings.SafeMode)
	assert.Equal(t, []string{"/srv", "/data"}, settings.Protected)
	assert.Equal(t, []string{"/srv"}, cfg.Protected)
}

func TestLoggingOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Log.Output = logging.OutputBoth

	assert.Equal(t, logging.OutputBoth, LoggingOptions(cfg, false).Output)
	interactive := LoggingOptions(cfg, true)
	assert.Equal(t, logging.OutputFile, interactive.Output)
	assert.Equal(t, cfg.Log.Dir, interactive.Dir)
	assert.Equal(t, cfg.Log.Level, interactive.Level)
}
