// Package config persists aad's user settings and resolves the effective
// settings for a run.
//
// The file lives at os.UserConfigDir()/aad/config.json. Values set there are
// the lowest-precedence source; see Resolve.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	appDir   = "aad"
	fileName = "config.json"
)

var pathOverride string

// SetPath points Load and Save at p instead of the default location.
// Tests use it together with ResetPath.
func SetPath(p string) { pathOverride = p }

// ResetPath restores the default location.
func ResetPath() { pathOverride = "" }

// Config is the on-disk settings file. Empty fields are omitted.
type Config struct {
	ModelServiceURL  string `json:"model_service_url,omitempty"`
	ModelServiceUser string `json:"model_service_user,omitempty"`
	LogLevel         string `json:"log_level,omitempty"`
	LogFormat        string `json:"log_format,omitempty"`
	LogFile          string `json:"log_file,omitempty"`
}

// Dir returns the directory holding aad's local state.
func Dir() (string, error) {
	if pathOverride != "" {
		return filepath.Dir(pathOverride), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir), nil
}

// Path returns the config file location.
func Path() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the config file. A missing file yields an empty Config.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config file at path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes c to the default location.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes c to path, creating parent directories as needed. The file
// is written with owner-only permissions.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config: failed to create directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}
