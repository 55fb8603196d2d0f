package iteria

import (
	"context"
	"time"

	"github.com/livefir/iteria/internal/format"
	"github.com/livefir/iteria/internal/metrics"
)

// Revision is one webview edit written back to a document
type Revision struct {
	ID          string
	DocumentURI string
	Before      string
	After       string
	AppliedAt   time.Time
}

// Journal records applied revisions
type Journal interface {
	Record(ctx context.Context, rev Revision) (Revision, error)
}

// Config holds controller settings
type Config struct {
	Metrics       *metrics.Collector
	Journal       Journal
	Printer       format.Printer
	FormatOptions format.Options
	QueueSize     int
}

// Option is a functional option for configuring a Controller
type Option func(*Config)

// WithMetrics sets the collector sync activity is recorded on
func WithMetrics(c *metrics.Collector) Option {
	return func(cfg *Config) {
		cfg.Metrics = c
	}
}

// WithJournal records every applied webview edit
func WithJournal(j Journal) Option {
	return func(cfg *Config) {
		cfg.Journal = j
	}
}

// WithFormatter overrides the default block printer
func WithFormatter(p format.Printer) Option {
	return func(cfg *Config) {
		cfg.Printer = p
	}
}

// WithFormatOptions sets the options passed to the printer.
// SourceText and the locators are filled per run.
func WithFormatOptions(opts format.Options) Option {
	return func(cfg *Config) {
		cfg.FormatOptions = opts
	}
}

// WithQueueSize sets the event queue capacity
func WithQueueSize(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.QueueSize = n
		}
	}
}

func defaultConfig() Config {
	return Config{
		Printer:       format.NewBlockPrinter(),
		FormatOptions: format.DefaultOptions(),
		QueueSize:     64,
	}
}
