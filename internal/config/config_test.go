package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/livefir/iteria/internal/format"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("Expected non-nil config")
	}

	if config.PagesDir != "src/pages" {
		t.Errorf("Expected pages dir 'src/pages', got '%s'", config.PagesDir)
	}

	if config.PageFile != "index.svelte" {
		t.Errorf("Expected page file 'index.svelte', got '%s'", config.PageFile)
	}

	if config.Debounce != 100*time.Millisecond {
		t.Errorf("Expected 100ms debounce, got %v", config.Debounce)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoadFile_NonExistent(t *testing.T) {
	config, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Expected no error for missing file, got %v", err)
	}

	if diff := cmp.Diff(DefaultConfig(), config); diff != "" {
		t.Errorf("Expected default config (-want +got):\n%s", diff)
	}
}

func TestLoadFile_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	data := "addr: 0.0.0.0:9000\ndebounce: 250ms\nformat:\n  ordering: markup-styles-scripts\n  strict_mode: true\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if config.Addr != "0.0.0.0:9000" {
		t.Errorf("Expected addr from file, got '%s'", config.Addr)
	}
	if config.Debounce != 250*time.Millisecond {
		t.Errorf("Expected 250ms debounce, got %v", config.Debounce)
	}
	if config.PagesDir != DefaultPagesDir || config.Theme != DefaultTheme {
		t.Errorf("Expected defaults for missing fields, got %+v", config)
	}

	opts := config.FormatOptions()
	if opts.Ordering != format.MarkupStylesScripts || !opts.StrictMode {
		t.Errorf("Unexpected format options: %+v", opts)
	}
	if !opts.AllowShorthand {
		t.Error("Expected allow_shorthand default to survive a partial format section")
	}
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("addr: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	config := DefaultConfig()
	config.Theme = "light"
	config.JournalPath = "/tmp/iteria.db"
	config.Format.AllowShorthand = false

	if err := SaveFile(path, config); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if diff := cmp.Diff(config, loaded); diff != "" {
		t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadProject(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	userConfig := DefaultConfig()
	userConfig.Addr = "127.0.0.1:8000"
	if err := SaveConfig(userConfig); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	project := t.TempDir()
	data := "pages_dir: routes\n"
	if err := os.WriteFile(filepath.Join(project, ProjectConfigFileName), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadProject(project)
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}

	if config.Addr != "127.0.0.1:8000" {
		t.Errorf("Expected user addr, got '%s'", config.Addr)
	}
	if config.PagesDir != "routes" {
		t.Errorf("Expected project pages dir, got '%s'", config.PagesDir)
	}
}

func TestConfigPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir failed: %v", err)
	}
	if dir != filepath.Join(home, ".config", "iteria") {
		t.Errorf("Unexpected config dir: %s", dir)
	}

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath failed: %v", err)
	}
	if filepath.Base(path) != ConfigFileName {
		t.Errorf("Unexpected config path: %s", path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad theme", func(c *Config) { c.Theme = "solarized" }, "Config.Theme must be one of"},
		{"bad ordering", func(c *Config) { c.Format.Ordering = "markup-only" }, "Config.Format.Ordering must be one of"},
		{"missing pages dir", func(c *Config) { c.PagesDir = "" }, "Config.PagesDir is required"},
		{"negative debounce", func(c *Config) { c.Debounce = -time.Second }, "Config.Debounce is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
