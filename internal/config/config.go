package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/livefir/iteria/internal/format"
)

const (
	// ConfigFileName is the name of the config file
	ConfigFileName = "config.yaml"

	// DefaultConfigDir is the default directory for iteria configuration
	// This will be ~/.config/iteria/ on Unix systems
	DefaultConfigDir = ".config/iteria"

	// ProjectConfigFileName overrides the user config for one project
	ProjectConfigFileName = ".iteria.yaml"
)

// Defaults applied to missing fields
const (
	DefaultAddr     = "127.0.0.1:7437"
	DefaultTheme    = "dark"
	DefaultPagesDir = "src/pages"
	DefaultPageFile = "index.svelte"
	DefaultDebounce = 100 * time.Millisecond
	DefaultVersion  = "1.0"
)

// Config represents the iteria configuration
type Config struct {
	// Addr is where the tree editor page is served
	Addr string `yaml:"addr,omitempty" validate:"required"`

	// Theme is the editor theme kind used when the host cannot report one
	Theme string `yaml:"theme,omitempty" validate:"required,oneof=light dark high-contrast"`

	// PagesDir and PageFile control where add-page writes new pages
	PagesDir string `yaml:"pages_dir,omitempty" validate:"required"`
	PageFile string `yaml:"page_file,omitempty" validate:"required"`

	// JournalPath is the sqlite database recording applied edits. Empty disables it.
	JournalPath string `yaml:"journal_path,omitempty"`

	// Debounce coalesces bursts of file system writes into one save event
	Debounce time.Duration `yaml:"debounce,omitempty" validate:"min=0"`

	Format FormatConfig `yaml:"format,omitempty"`

	// Version tracks the config file version for future migrations
	Version string `yaml:"version,omitempty"`
}

// FormatConfig mirrors format.Options for the fields that can be configured
type FormatConfig struct {
	Ordering       string `yaml:"ordering,omitempty" validate:"omitempty,oneof=scripts-styles-markup scripts-markup-styles styles-scripts-markup styles-markup-scripts markup-scripts-styles markup-styles-scripts"`
	StrictMode     bool   `yaml:"strict_mode"`
	BracketNewline bool   `yaml:"bracket_newline"`
	AllowShorthand bool   `yaml:"allow_shorthand"`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Addr:     DefaultAddr,
		Theme:    DefaultTheme,
		PagesDir: DefaultPagesDir,
		PageFile: DefaultPageFile,
		Debounce: DefaultDebounce,
		Format: FormatConfig{
			Ordering:       string(format.ScriptsStylesMarkup),
			AllowShorthand: true,
		},
		Version: DefaultVersion,
	}
}

// GetConfigDir returns the directory containing the config file
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, DefaultConfigDir), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// LoadConfig loads the user configuration.
// If the file doesn't exist, returns a default config.
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

// LoadProject loads the user configuration and applies the project file found in
// projectDir on top of it.
func LoadProject(projectDir string) (*Config, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	projectPath := filepath.Join(projectDir, ProjectConfigFileName)
	if err := overlay(config, projectPath); err != nil {
		return nil, err
	}
	return config, config.Validate()
}

// LoadFile loads configuration from path, filling defaults for missing fields.
// A missing file yields the default config.
func LoadFile(path string) (*Config, error) {
	config := DefaultConfig()
	if err := overlay(config, path); err != nil {
		return nil, err
	}
	return config, nil
}

func overlay(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	config.fillDefaults()
	return nil
}

// fillDefaults restores defaults for fields a file set to their zero value
func (c *Config) fillDefaults() {
	defaults := DefaultConfig()
	if c.Addr == "" {
		c.Addr = defaults.Addr
	}
	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
	if c.PagesDir == "" {
		c.PagesDir = defaults.PagesDir
	}
	if c.PageFile == "" {
		c.PageFile = defaults.PageFile
	}
	if c.Format.Ordering == "" {
		c.Format.Ordering = defaults.Format.Ordering
	}
	if c.Version == "" {
		c.Version = defaults.Version
	}
}

// SaveConfig saves the configuration to the user config file
func SaveConfig(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(configPath, config)
}

// SaveFile writes config to path, creating its directory
func SaveFile(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FormatOptions converts the format section into printer options
func (c *Config) FormatOptions() format.Options {
	return format.Options{
		Ordering:       format.Ordering(c.Format.Ordering),
		StrictMode:     c.Format.StrictMode,
		BracketNewline: c.Format.BracketNewline,
		AllowShorthand: c.Format.AllowShorthand,
	}
}

var validate = validator.New()

// Validate validates the configuration
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", e.Namespace()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", e.Namespace(), e.Param(), e.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", e.Namespace()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
