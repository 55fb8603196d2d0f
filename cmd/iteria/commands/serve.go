package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/livefir/iteria"
	"github.com/livefir/iteria/internal/journal"
	"github.com/livefir/iteria/internal/metrics"
	"github.com/livefir/iteria/internal/webview"
	"github.com/livefir/iteria/internal/workspace"
)

// Serve opens a document in the tree editor and keeps both in sync until
// interrupted or the page is closed.
func Serve(args []string) error {
	p, err := parseArgs(args, "addr", "theme", "journal", "debounce", "order")
	if err != nil {
		return err
	}
	if len(p.positional) < 1 {
		return fmt.Errorf("document required: iteria serve <file> [--addr host:port] [--theme light|dark|high-contrast]")
	}

	cfg, err := loadConfig(p)
	if err != nil {
		return err
	}
	theme, ok := iteria.ParseThemeKind(cfg.Theme)
	if !ok {
		return fmt.Errorf("unknown theme: %s", cfg.Theme)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws, err := workspace.New(ctx,
		workspace.WithDebounce(cfg.Debounce),
		workspace.WithTheme(theme),
	)
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := ws.Open(p.positional[0]); err != nil {
		return err
	}

	collector := metrics.NewCollector()
	opts := []iteria.Option{
		iteria.WithMetrics(collector),
		iteria.WithFormatOptions(cfg.FormatOptions()),
	}

	if cfg.JournalPath != "" {
		j, err := journal.Open(ctx, cfg.JournalPath)
		if err != nil {
			return err
		}
		defer j.Close()
		opts = append(opts, iteria.WithJournal(j))
	}

	var ctrl *iteria.Controller
	factory := func(ctx context.Context, pageTheme string) (iteria.Webview, error) {
		hub, err := webview.Serve(ctx, cfg.Addr, pageTheme,
			webview.WithTitle("iteria: "+filepath.Base(p.positional[0])),
			webview.WithMetrics(metricsSource(collector)),
		)
		if err != nil {
			return nil, err
		}

		// format requests are panel independent, the controller only
		// subscribes to edits and disposal
		hub.Subscribe(iteria.EventFormatRequested, func(ev iteria.Event) {
			if err := ctrl.Dispatch(ctx, ev); err != nil && !errors.Is(err, iteria.ErrClosed) {
				log.Printf("Dropped format request: %v", err)
			}
		})
		hub.Subscribe(iteria.EventPanelDisposed, func(iteria.Event) { stop() })

		fmt.Fprintf(stdout, "Tree editor: %s\n", hub.URL())
		return hub, nil
	}

	ctrl = iteria.New(ws, factory, opts...)
	if _, err := ctrl.RevealOrCreate(ctx); err != nil {
		return err
	}

	err = ctrl.Run(ctx)
	ctrl.Drain(context.Background())
	ctrl.Close()

	m := collector.GetMetrics()
	log.Printf("Session: %d pulls, %d edits applied, %d decode errors, %d io failures",
		m.Pulls, m.EditsApplied, m.DecodeErrors, m.IOFailures)

	if errors.Is(err, context.Canceled) || errors.Is(err, iteria.ErrClosed) {
		return nil
	}
	return err
}

// metricsSource reports the collector's full snapshot on the hub's /metrics endpoint
func metricsSource(collector *metrics.Collector) func() any {
	return func() any { return collector.Snapshot() }
}
