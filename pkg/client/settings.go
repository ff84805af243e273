package client

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings stores user preferences persisted as YAML next to the binary.
type Settings struct {
	APIURL       string        `yaml:"api_url"`
	MockFallback bool          `yaml:"mock_fallback"`
	DBPath       string        `yaml:"db_path"`
	Timeout      time.Duration `yaml:"timeout"`
}

// DefaultSettings returns default settings.
func DefaultSettings() *Settings {
	return &Settings{
		APIURL:       DefaultBaseURL,
		MockFallback: true,
		DBPath:       defaultPath("pixndrive.db"),
		Timeout:      30 * time.Second,
	}
}

func defaultPath(name string) string {
	exe, err := os.Executable()
	if err != nil {
		return name
	}
	return filepath.Join(filepath.Dir(exe), name)
}

// DefaultSettingsPath is settings.yaml next to the executable.
func DefaultSettingsPath() string {
	return defaultPath("settings.yaml")
}

// LoadSettings loads settings from YAML or returns defaults. A missing file
// is not an error; a malformed one is logged and ignored.
func LoadSettings(path string) *Settings {
	s := DefaultSettings()
	data, err := os.ReadFile(path) //nolint:gosec // path from CLI config
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("read settings", "path", path, "err", err)
		}
		return s
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		slog.Error("parse settings", "path", path, "err", err)
		return DefaultSettings()
	}
	return s
}

// Save writes settings to YAML.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("client: marshal settings: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Config converts settings into a client Config.
func (s *Settings) Config() Config {
	cfg := DefaultConfig()
	if s.APIURL != "" {
		cfg.BaseURL = s.APIURL
	}
	cfg.MockFallback = s.MockFallback
	if s.Timeout > 0 {
		cfg.Timeout = s.Timeout
	}
	return cfg
}
