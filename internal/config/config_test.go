package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, "auto", cfg.Display.Theme)
	assert.Equal(t, "analyst", cfg.Display.DefaultView)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: http://backend:9000
  timeout: 10s
display:
  theme: dark
  default_view: developer
  refresh_interval: 15s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000", cfg.API.BaseURL)
	assert.Equal(t, "dark", cfg.Display.Theme)
	assert.Equal(t, 10*time.Second, cfg.APITimeout())
	assert.Equal(t, 15*time.Second, cfg.RefreshInterval())
}

func TestEnvOverridesWin(t *testing.T) {
	t.Setenv("CARF_API_URL", "http://env:7000")
	t.Setenv("CARF_THEME", "light")
	t.Setenv("CARF_DB", "/tmp/env.db")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://file:8000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env:7000", cfg.API.BaseURL)
	assert.Equal(t, "light", cfg.Display.Theme)
	assert.Equal(t, "/tmp/env.db", cfg.State.DBPath)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Display.Theme = "neon"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Display.DefaultView = "manager"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.API.Timeout = "soon"
	require.Error(t, cfg.Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.API.BaseURL = "http://roundtrip:8000"
	cfg.Display.Theme = "dark"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://roundtrip:8000", loaded.API.BaseURL)
	assert.Equal(t, "dark", loaded.Display.Theme)
}

func TestWatcherDeliversReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, DefaultConfig().Save(path))

	w, err := Watch(path)
	require.NoError(t, err)
	defer w.Close()

	cfg := DefaultConfig()
	cfg.Display.Theme = "light"
	require.NoError(t, cfg.Save(path))

	select {
	case got := <-w.Updates():
		assert.Equal(t, "light", got.Display.Theme)
	case <-time.After(3 * time.Second):
		t.Fatal("no config update delivered")
	}
}
