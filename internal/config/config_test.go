package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fieldset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_File(t *testing.T) {
	schemaDir := t.TempDir()
	path := writeConfig(t, "log_level: debug\nformat: json\nhistory_limit: 5\nschema_dir: "+schemaDir+"\nmetrics: true\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 5, cfg.HistoryLimit)
	assert.Equal(t, schemaDir, cfg.SchemaDir)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_DiscoversWorkingDirectoryFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fieldset.yaml"), []byte("format: json\n"), 0o644))
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "log_level: debug\nhistory_limit: 5\n")
	t.Setenv("FIELDSET_LOG_LEVEL", "error")
	t.Setenv("FIELDSET_HISTORY_LIMIT", "9")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, 9, cfg.HistoryLimit)
	assert.Equal(t, slog.LevelError, cfg.SlogLevel())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, "log_level: loud\nformat: xml\nhistory_limit: -1\nschema_dir: /definitely/not/here\n")

	_, err := Load(path)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 4)
	assert.Contains(t, err.Error(), `log_level must be one of [debug info warn error], got "loud"`)
	assert.Contains(t, err.Error(), "format must be one of")
	assert.Contains(t, err.Error(), "history_limit must be gte 0")
	assert.Contains(t, err.Error(), "schema_dir")
}

func TestSlogLevel(t *testing.T) {
	for level, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	} {
		cfg := Config{LogLevel: level}
		assert.Equal(t, want, cfg.SlogLevel(), level)
	}
}
