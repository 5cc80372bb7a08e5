package core

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHealthURL = "https://birth-journal-backend-production.up.railway.app/api/v1/health"
	DefaultAPIURL    = "https://birth-journal-backend-production.up.railway.app/api/v1"
)

// Config is the read-only YAML configuration.
type Config struct {
	AppName string `yaml:"app_name"`
	Backend struct {
		HealthURL          string `yaml:"health_url"`
		APIURL             string `yaml:"api_url"`
		TimeoutSeconds     int    `yaml:"timeout_seconds"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"backend"`
	Local struct {
		Port      int    `yaml:"port"`
		Path      string `yaml:"path"`
		ProbeAddr string `yaml:"probe_addr"`
	} `yaml:"local"`
	Toolchain struct {
		Name    string `yaml:"name"`
		Binary  string `yaml:"binary"`
		Project string `yaml:"project"`
		Define  string `yaml:"define"`
		Device  string `yaml:"device"`
	} `yaml:"toolchain"`
	History struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"history"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	var cfg Config
	cfg.AppName = "Polozne Patient App"
	cfg.Backend.HealthURL = DefaultHealthURL
	cfg.Backend.APIURL = DefaultAPIURL
	cfg.Backend.TimeoutSeconds = 5
	cfg.Local.Port = 8000
	cfg.Local.Path = "/api/v1"
	cfg.Local.ProbeAddr = "8.8.8.8:80"
	cfg.Toolchain.Name = "flutter"
	cfg.Toolchain.Binary = "flutter"
	cfg.Toolchain.Define = "API_BASE_URL"
	cfg.History.Enabled = true
	return cfg
}

// ConfigDir resolves $XDG_CONFIG_HOME/phonedeploy or ~/.config/phonedeploy.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "phonedeploy")
}

// DefaultHistoryPath resolves $XDG_STATE_HOME/phonedeploy/history.db or
// ~/.local/state/phonedeploy/history.db.
func DefaultHistoryPath() string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "phonedeploy", "history.db")
}

// LoadConfig reads YAML configuration from path on top of DefaultConfig. If
// path is empty, ConfigDir()/config.yaml is used and may be absent. The
// deploy.env file next to the config and PHONEDEPLOY_* variables are applied
// last.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		path = filepath.Join(ConfigDir(), "config.yaml")
	}
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return cfg, fmt.Errorf("open config: %w", err)
	}

	env, _ := LoadEnvFile(filepath.Join(filepath.Dir(path), "deploy.env"))
	for _, key := range envKeys {
		if v := os.Getenv(key); v != "" {
			env[key] = v
		}
	}
	if err := applyEnv(&cfg, env); err != nil {
		return cfg, err
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath()
	}
	return cfg, nil
}

var envKeys = []string{
	"PHONEDEPLOY_API_URL",
	"PHONEDEPLOY_HEALTH_URL",
	"PHONEDEPLOY_LOCAL_PORT",
	"PHONEDEPLOY_FLUTTER",
}

func applyEnv(cfg *Config, env map[string]string) error {
	if v := env["PHONEDEPLOY_API_URL"]; v != "" {
		cfg.Backend.APIURL = v
	}
	if v := env["PHONEDEPLOY_HEALTH_URL"]; v != "" {
		cfg.Backend.HealthURL = v
	}
	if v := env["PHONEDEPLOY_LOCAL_PORT"]; v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return ValidationError{Field: "PHONEDEPLOY_LOCAL_PORT", Value: v, Message: "must be a number"}
		}
		cfg.Local.Port = port
	}
	if v := env["PHONEDEPLOY_FLUTTER"]; v != "" {
		cfg.Toolchain.Binary = v
	}
	return nil
}

// Timeout is the health check timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// ValidationError represents an invalid configuration value
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s=%s: %s", e.Field, e.Value, e.Message)
}

// Validate checks the values the deploy flow depends on.
func (c Config) Validate() error {
	for field, raw := range map[string]string{"backend.health_url": c.Backend.HealthURL, "backend.api_url": c.Backend.APIURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ValidationError{Field: field, Value: raw, Message: "must be an absolute http(s) URL"}
		}
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return ValidationError{Field: "backend.timeout_seconds", Value: strconv.Itoa(c.Backend.TimeoutSeconds), Message: "must be positive"}
	}
	if c.Local.Port <= 0 || c.Local.Port > 65535 {
		return ValidationError{Field: "local.port", Value: strconv.Itoa(c.Local.Port), Message: "must be between 1 and 65535"}
	}
	if c.Toolchain.Define == "" {
		return ValidationError{Field: "toolchain.define", Value: "", Message: "define name is required"}
	}
	return nil
}
