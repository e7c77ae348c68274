// Package config handles the configuration directory and persisted settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// AppName is the application directory name.
	AppName = "sheetq"

	// SettingsFile is the persisted settings filename.
	SettingsFile = "settings.json"

	// CredentialsFile is the default service-account credentials filename.
	CredentialsFile = "service_account.json"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// Credentials points at the Google service-account key. The pipeline never
// looks inside it; it is handed to the board backend as-is.
type Credentials struct {
	ServiceAccountFile string `json:"service_account_file,omitempty"`
}

// SheetProperties mirrors the config block on the board. Sheet values
// overwrite these on every run.
type SheetProperties struct {
	Prefix    string `json:"prefix"`
	Command   string `json:"command"`
	AutoClose bool   `json:"auto_close"`
}

// Defaults holds fallback values for optional CLI arguments.
type Defaults struct {
	Board string `json:"board"`
}

// Settings is the persisted settings file shape.
type Settings struct {
	Credentials     Credentials     `json:"credentials"`
	SheetProperties SheetProperties `json:"sheet_properties"`
	Defaults        Defaults        `json:"defaults"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses SHEETQ_CONFIG_DIR, then XDG_CONFIG_HOME/sheetq,
// then $HOME/.config/sheetq.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{Dir: dir}, nil
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	if dir := os.Getenv("SHEETQ_CONFIG_DIR"); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SettingsPath returns the path to the settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// CredentialsPath returns the default path for the service-account file.
func (c *Config) CredentialsPath() string {
	return filepath.Join(c.Dir, CredentialsFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// LoadSettings reads the persisted settings. A missing file is not an error:
// it returns zero-value settings with AutoClose defaulted to true.
func (c *Config) LoadSettings() (*Settings, error) {
	data, err := os.ReadFile(c.SettingsPath())
	if os.IsNotExist(err) {
		return &Settings{SheetProperties: SheetProperties{AutoClose: true}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}
	return &s, nil
}

// SaveSettings writes the settings file with mode 0600.
func (c *Config) SaveSettings(s *Settings) error {
	if err := c.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if err := os.WriteFile(c.SettingsPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", SettingsFile, err)
	}
	return nil
}

// HasCredentials checks whether a usable service-account file is configured.
func (c *Config) HasCredentials() bool {
	s, err := c.LoadSettings()
	if err != nil {
		return false
	}
	_, err = os.Stat(c.ResolveCredentials(s))
	return err == nil
}

// ResolveCredentials returns the service-account file path from settings,
// falling back to the default location in the config directory.
func (c *Config) ResolveCredentials(s *Settings) string {
	if s != nil && s.Credentials.ServiceAccountFile != "" {
		return s.Credentials.ServiceAccountFile
	}
	return c.CredentialsPath()
}

// ParseBool parses a boolean config token. Accepted values (case-insensitive):
// true/1/yes/on and false/0/no/off. The second return reports whether the
// token was recognized.
func ParseBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	default:
		return false, false
	}
}
