package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	dir := isolateEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultHealthURL, cfg.Backend.HealthURL)
	assert.Equal(t, DefaultAPIURL, cfg.Backend.APIURL)
	assert.Equal(t, 8000, cfg.Local.Port)
	assert.Equal(t, "/api/v1", cfg.Local.Path)
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.False(t, cfg.Backend.InsecureSkipVerify)
	assert.Equal(t, filepath.Join(dir, "state", "phonedeploy", "history.db"), cfg.History.Path)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigExplicitMissing(t *testing.T) {
	isolateEnv(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfigYAMLAndEnv(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`app_name: Demo
backend:
  health_url: https://api.example.com/health
  api_url: https://api.example.com/v1
  timeout_seconds: 2
local:
  port: 9000
toolchain:
  project: /src/app
  device: emulator-5554
history:
  enabled: false
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deploy.env"), []byte("# overrides\nPHONEDEPLOY_LOCAL_PORT=8080\nPHONEDEPLOY_FLUTTER=\"/opt/flutter/bin/flutter\"\n"), 0o600))
	t.Setenv("PHONEDEPLOY_API_URL", "https://override.example.com/api/v1")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Demo", cfg.AppName)
	assert.Equal(t, "https://api.example.com/health", cfg.Backend.HealthURL)
	assert.Equal(t, "https://override.example.com/api/v1", cfg.Backend.APIURL)
	assert.Equal(t, 2*time.Second, cfg.Timeout())
	assert.Equal(t, 8080, cfg.Local.Port)
	assert.Equal(t, "/api/v1", cfg.Local.Path)
	assert.Equal(t, "/opt/flutter/bin/flutter", cfg.Toolchain.Binary)
	assert.Equal(t, "/src/app", cfg.Toolchain.Project)
	assert.Equal(t, "emulator-5554", cfg.Toolchain.Device)
	assert.Equal(t, "API_BASE_URL", cfg.Toolchain.Define)
	assert.False(t, cfg.History.Enabled)
}

func TestLoadConfigBadPortEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("PHONEDEPLOY_LOCAL_PORT", "eighty")
	_, err := LoadConfig("")
	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "PHONEDEPLOY_LOCAL_PORT", verr.Field)
}

func TestLoadConfigParseError(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0o600))
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		field  string
		mutate func(*Config)
	}{
		{"backend.api_url", func(c *Config) { c.Backend.APIURL = "not a url" }},
		{"backend.health_url", func(c *Config) { c.Backend.HealthURL = "ftp://example.com/health" }},
		{"backend.timeout_seconds", func(c *Config) { c.Backend.TimeoutSeconds = 0 }},
		{"local.port", func(c *Config) { c.Local.Port = 70000 }},
		{"toolchain.define", func(c *Config) { c.Toolchain.Define = "" }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		err := cfg.Validate()
		var verr ValidationError
		require.True(t, errors.As(err, &verr), tc.field)
		assert.Equal(t, tc.field, verr.Field)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy.env")
	require.NoError(t, os.WriteFile(path, []byte("# comment\n\nA=1\n B = two \nC='three'\nnoequals\n"), 0o600))
	env, err := LoadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "two", "C": "three"}, env)

	env, err = LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Empty(t, env)
}
