package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/livefir/iteria/internal/config"
)

// stdout is where command output goes; tests replace it
var stdout io.Writer = os.Stdout

// parsedArgs holds positional arguments and --flags. Flags listed as taking
// a value consume the next argument, all others are booleans.
type parsedArgs struct {
	positional []string
	flags      map[string]string
}

func parseArgs(args []string, valueFlags ...string) (parsedArgs, error) {
	takesValue := make(map[string]bool, len(valueFlags))
	for _, f := range valueFlags {
		takesValue[f] = true
	}

	p := parsedArgs{flags: make(map[string]string)}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			p.positional = append(p.positional, arg)
			continue
		}

		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		switch {
		case hasValue:
			p.flags[name] = value
		case takesValue[name]:
			if i+1 >= len(args) {
				return parsedArgs{}, fmt.Errorf("flag --%s requires a value", name)
			}
			i++
			p.flags[name] = args[i]
		default:
			p.flags[name] = "true"
		}
	}
	return p, nil
}

func (p parsedArgs) has(name string) bool {
	_, ok := p.flags[name]
	return ok
}

func (p parsedArgs) get(name, fallback string) string {
	if v, ok := p.flags[name]; ok {
		return v
	}
	return fallback
}

func (p parsedArgs) getInt(name string, fallback int) (int, error) {
	v, ok := p.flags[name]
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s value %q: %w", name, v, err)
	}
	return n, nil
}

// loadConfig loads the user and project config and applies flag overrides
func loadConfig(p parsedArgs) (*config.Config, error) {
	cfg, err := config.LoadProject(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Addr = p.get("addr", cfg.Addr)
	cfg.Theme = p.get("theme", cfg.Theme)
	cfg.JournalPath = p.get("journal", cfg.JournalPath)
	cfg.Format.Ordering = p.get("order", cfg.Format.Ordering)
	if p.has("strict") {
		cfg.Format.StrictMode = true
	}
	if v, ok := p.flags["debounce"]; ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid --debounce value %q: %w", v, err)
		}
		cfg.Debounce = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
