package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/livefir/iteria"
	"github.com/livefir/iteria/internal/config"
	"github.com/livefir/iteria/internal/journal"
	"github.com/livefir/iteria/internal/workspace"
)

var errNoJournal = errors.New("journal disabled: set journal_path in the config or pass --journal <path>")

func openJournal(ctx context.Context, cfg *config.Config) (*journal.Journal, error) {
	if cfg.JournalPath == "" {
		return nil, errNoJournal
	}
	return journal.Open(ctx, cfg.JournalPath)
}

// History lists edits applied to a document from the tree editor, newest first
func History(args []string) error {
	p, err := parseArgs(args, "journal", "limit")
	if err != nil {
		return err
	}
	if len(p.positional) < 1 {
		return fmt.Errorf("document required: iteria history <file> [--limit n]")
	}
	limit, err := p.getInt("limit", 20)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(p)
	if err != nil {
		return err
	}

	ctx := context.Background()
	j, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer j.Close()

	abs, err := filepath.Abs(p.positional[0])
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", p.positional[0], err)
	}

	revs, err := j.List(ctx, workspace.URI(abs), limit)
	if err != nil {
		return err
	}
	if len(revs) == 0 {
		fmt.Fprintln(stdout, "No recorded edits")
		return nil
	}

	for _, rev := range revs {
		fmt.Fprintf(stdout, "%s  %s  %+d bytes\n",
			rev.ID, rev.AppliedAt.Local().Format("2006-01-02 15:04:05"), len(rev.After)-len(rev.Before))
	}
	return nil
}

// Revert restores the text a document had before a recorded edit
func Revert(args []string) error {
	p, err := parseArgs(args, "journal")
	if err != nil {
		return err
	}
	if len(p.positional) < 1 {
		return fmt.Errorf("revision required: iteria revert <revision-id>")
	}

	cfg, err := loadConfig(p)
	if err != nil {
		return err
	}

	ctx := context.Background()
	j, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer j.Close()

	rev, err := j.Get(ctx, strings.TrimSpace(p.positional[0]))
	if err != nil {
		return err
	}

	ws, err := workspace.New(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	path := workspace.Path(rev.DocumentURI)
	if err := ws.Open(path); err != nil {
		return err
	}
	current, ok := ws.ActiveDocument()
	if !ok {
		return fmt.Errorf("failed to read %s", path)
	}

	if err := ws.ReplaceFullText(ctx, current, rev.Before); err != nil {
		return err
	}
	if _, err := j.Record(ctx, iteria.Revision{
		DocumentURI: rev.DocumentURI,
		Before:      current.Text,
		After:       rev.Before,
	}); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "✅ Reverted %s to before %s\n", path, rev.ID)
	return nil
}
