package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/livefir/iteria/internal/config"
)

// Config handles configuration management commands
func Config(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("command required: get, set, list, path")
	}

	switch args[0] {
	case "get":
		return configGet(args[1:])
	case "set":
		return configSet(args[1:])
	case "list":
		return configList()
	case "path":
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, path)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

const configKeys = "addr, theme, pages_dir, page_file, journal_path, debounce, format.ordering, format.strict_mode, format.bracket_newline, format.allow_shorthand"

func configValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "addr":
		return cfg.Addr, nil
	case "theme":
		return cfg.Theme, nil
	case "pages_dir":
		return cfg.PagesDir, nil
	case "page_file":
		return cfg.PageFile, nil
	case "journal_path":
		return cfg.JournalPath, nil
	case "debounce":
		return cfg.Debounce.String(), nil
	case "format.ordering":
		return cfg.Format.Ordering, nil
	case "format.strict_mode":
		return strconv.FormatBool(cfg.Format.StrictMode), nil
	case "format.bracket_newline":
		return strconv.FormatBool(cfg.Format.BracketNewline), nil
	case "format.allow_shorthand":
		return strconv.FormatBool(cfg.Format.AllowShorthand), nil
	default:
		return "", fmt.Errorf("unknown key: %s (expected: %s)", key, configKeys)
	}
}

func setConfigValue(cfg *config.Config, key, value string) error {
	parseBool := func(dst *bool) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %q", key, value)
		}
		*dst = b
		return nil
	}

	switch key {
	case "addr":
		cfg.Addr = value
	case "theme":
		cfg.Theme = value
	case "pages_dir":
		cfg.PagesDir = value
	case "page_file":
		cfg.PageFile = value
	case "journal_path":
		cfg.JournalPath = value
	case "debounce":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		cfg.Debounce = d
	case "format.ordering":
		cfg.Format.Ordering = value
	case "format.strict_mode":
		return parseBool(&cfg.Format.StrictMode)
	case "format.bracket_newline":
		return parseBool(&cfg.Format.BracketNewline)
	case "format.allow_shorthand":
		return parseBool(&cfg.Format.AllowShorthand)
	default:
		return fmt.Errorf("unknown key: %s (expected: %s)", key, configKeys)
	}
	return nil
}

// configGet retrieves a configuration value
func configGet(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("key required: iteria config get <key>")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	value, err := configValue(cfg, args[0])
	if err != nil {
		return err
	}
	if value == "" {
		value = "(none)"
	}
	fmt.Fprintln(stdout, value)
	return nil
}

// configSet sets a configuration value in the user config file
func configSet(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("key and value required: iteria config set <key> <value>")
	}

	key := args[0]
	value := strings.Join(args[1:], " ")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := setConfigValue(cfg, key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(stdout, "✅ Set %s to: %s\n", key, value)
	return nil
}

// configList lists all configuration values
func configList() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Fprintln(stdout, "Configuration:")
	for _, key := range strings.Split(configKeys, ", ") {
		value, _ := configValue(cfg, key)
		if value == "" {
			value = "(none)"
		}
		fmt.Fprintf(stdout, "  %-24s %s\n", key, value)
	}

	configPath, _ := config.GetConfigPath()
	fmt.Fprintf(stdout, "\nConfig file: %s\n", configPath)
	return nil
}
