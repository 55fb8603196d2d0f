package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/livefir/iteria/internal/scaffold"
)

// AddPage creates a page from the page template. Without a name it prompts for one.
func AddPage(args []string) error {
	p, err := parseArgs(args, "root")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(p)
	if err != nil {
		return err
	}

	name := strings.Join(p.positional, " ")
	if name == "" {
		if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
			return fmt.Errorf("page name required: iteria add-page <name>")
		}
		name, err = scaffold.PromptName(os.Stdin, os.Stdout, cfg.PagesDir)
		if errors.Is(err, scaffold.ErrCancelled) {
			fmt.Fprintln(stdout, "Cancelled")
			return nil
		}
		if err != nil {
			return err
		}
	}

	opts := []scaffold.Option{
		scaffold.WithPagesDir(filepath.FromSlash(cfg.PagesDir)),
		scaffold.WithPageFile(cfg.PageFile),
	}
	if p.has("force") {
		opts = append(opts, scaffold.WithOverwrite())
	}

	page, err := scaffold.AddPage(p.get("root", "."), name, opts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "✅ Created %s (%s)\n", page.File, page.Title)
	return nil
}
