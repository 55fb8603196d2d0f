package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/livefir/iteria"
	"github.com/livefir/iteria/internal/format"
	"github.com/livefir/iteria/internal/workspace"
)

// Format prints a component with its blocks reordered, or rewrites it with --write
func Format(args []string) error {
	p, err := parseArgs(args, "order")
	if err != nil {
		return err
	}
	if len(p.positional) < 1 {
		return fmt.Errorf("document required: iteria format <file> [--write] [--order scripts-styles-markup] [--strict]")
	}
	path := p.positional[0]

	cfg, err := loadConfig(p)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	text, err := iteria.FormatText(string(data), format.NewBlockPrinter(), cfg.FormatOptions())
	if err != nil {
		return err
	}

	if !p.has("write") {
		fmt.Fprint(stdout, text)
		return nil
	}
	if text == string(data) {
		fmt.Fprintf(stdout, "%s already formatted\n", path)
		return nil
	}

	ws, err := workspace.New(context.Background())
	if err != nil {
		return err
	}
	defer ws.Close()

	doc := iteria.Document{URI: workspace.URI(path), Text: string(data)}
	if err := ws.ReplaceFullText(context.Background(), doc, text); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "✅ Formatted %s\n", path)
	return nil
}
