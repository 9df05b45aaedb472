// Package settings manages persistent user settings for the xact CLI.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Settings holds persistent user preferences
type Settings struct {
	// DefaultCfgPath is the config path to use when --cfg-path is not specified
	DefaultCfgPath string `json:"default_cfg_path,omitempty"`

	// AddrDelim overrides the default config address delimiter
	AddrDelim string `json:"addr_delim,omitempty"`

	// LogLevel is the default log level for system runs
	LogLevel string `json:"log_level,omitempty"`

	// DirpathLog overrides where process logs are written
	DirpathLog string `json:"dirpath_log,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "xact_settings.json"
	}
	return filepath.Join(home, ".xact", "settings.json")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetAddrDelim returns the config address delimiter (with fallback)
func (s *Settings) GetAddrDelim() string {
	if s.AddrDelim != "" {
		return s.AddrDelim
	}
	return "."
}

// GetLogLevel returns the log level (with fallback)
func (s *Settings) GetLogLevel() string {
	if s.LogLevel != "" {
		return s.LogLevel
	}
	return "info"
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}
