package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-edge/publish-engine/internal/adapter/config"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "publish-engine", cfg.Service.Name)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.False(t, cfg.Diagnostics.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := []byte("http:\n  port: 9090\nservice:\n  name: custom-engine\n")
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "custom-engine", cfg.Service.Name)
}

func TestLoad_MissingFileIsNotFatal(t *testing.T) {
	cfg, err := config.Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}

func TestLoad_RejectsInvalidPort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  port: 99999\n"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_DiagnosticsRequiresBrokerURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("diagnostics:\n  enabled: true\n  broker_url: \"\"\n"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}
