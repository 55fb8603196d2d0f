// Package iteria keeps a structured tree editor panel in sync with the markup of the
// active editor document.
//
// A Controller owns at most one Panel. Host and webview callbacks only enqueue events;
// every state change happens on the goroutine running Run or Drain.
package iteria

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/livefir/iteria/internal/format"
	"github.com/livefir/iteria/internal/fragment"
	"github.com/livefir/iteria/internal/metrics"
	"github.com/livefir/iteria/internal/vault"
)

// Controller synchronizes the active document with the tree editor panel
type Controller struct {
	host    Host
	factory WebviewFactory
	config  Config
	metrics *metrics.Collector

	current *Panel
	nextID  int

	queue  chan Event
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a controller for host that opens panels through factory
func New(host Host, factory WebviewFactory, opts ...Option) *Controller {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NewCollector()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		host:    host,
		factory: factory,
		config:  config,
		metrics: config.Metrics,
		queue:   make(chan Event, config.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Panel returns the live panel, or nil
func (c *Controller) Panel() *Panel {
	return c.current
}

// Metrics returns the collector sync activity is recorded on
func (c *Controller) Metrics() *metrics.Collector {
	return c.metrics
}

// Dispatch queues ev. It does not block while the queue has room; otherwise it
// waits for room, ctx, or Close. Safe for concurrent use.
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	select {
	case <-c.ctx.Done():
		return ErrClosed
	default:
	}

	select {
	case c.queue <- ev:
		return nil
	default:
	}

	select {
	case c.queue <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return ErrClosed
	}
}

// Run handles queued events until ctx is done or the controller is closed
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-c.queue:
			c.handle(ctx, ev)
		case <-ctx.Done():
			return ctx.Err()
		case <-c.ctx.Done():
			return ErrClosed
		}
	}
}

// Drain handles every event already queued and returns how many it handled
func (c *Controller) Drain(ctx context.Context) int {
	n := 0
	for {
		select {
		case ev := <-c.queue:
			c.handle(ctx, ev)
			n++
		default:
			return n
		}
	}
}

// Close disposes the live panel and stops Run. Call it from the goroutine that
// drives the controller, or after Run has returned.
func (c *Controller) Close() {
	if c.current != nil {
		c.current.Dispose()
	}
	c.cancel()
}

// RevealOrCreate brings the live panel to front, or creates one bound to the
// focused document and performs the initial pull.
func (c *Controller) RevealOrCreate(ctx context.Context) (*Panel, error) {
	if p := c.current; p != nil {
		p.webview.Reveal()
		c.metrics.IncrementPanelRevealed()
		return p, nil
	}

	theme := c.host.ColorTheme().PageTheme()
	wv, err := c.factory(ctx, theme)
	if err != nil {
		return nil, c.ioFailure("create webview", err)
	}

	c.nextID++
	p := &Panel{
		id:      c.nextID,
		owner:   c,
		webview: wv,
		theme:   theme,
		state:   StateIdle,
		vault:   vault.New(),
	}
	c.current = p
	c.metrics.IncrementPanelCreated()

	forward := c.forwarder(p)
	for _, kind := range []EventKind{EventActiveEditorChanged, EventDocumentSaved, EventThemeChanged} {
		p.track(c.host.Subscribe(kind, forward))
	}
	for _, kind := range []EventKind{EventPanelDisposed, EventWebviewMessage} {
		p.track(wv.Subscribe(kind, forward))
	}

	if err := c.pull(ctx, p); err != nil {
		log.Printf("Initial pull failed: %v", err)
	}
	return p, nil
}

// forwarder returns the callback registered with the host and webview for p
func (c *Controller) forwarder(p *Panel) func(Event) {
	return func(ev Event) {
		ev.panel = p
		if err := c.Dispatch(c.ctx, ev); err != nil && !errors.Is(err, ErrClosed) {
			log.Printf("Dropped %s event: %v", ev.Kind, err)
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev Event) {
	if ev.Kind == EventFormatRequested {
		if err := c.Format(ctx); err != nil {
			log.Printf("Format failed: %v", err)
		}
		return
	}

	p := ev.panel
	if p == nil {
		p = c.current
	}
	if p == nil || p != c.current || p.state == StateDisposed {
		c.metrics.IncrementCustomCounter("dropped_events")
		return
	}

	var err error
	switch ev.Kind {
	case EventActiveEditorChanged:
		err = c.pull(ctx, p)
	case EventDocumentSaved:
		if c.isStale(ev) {
			c.metrics.IncrementCustomCounter("stale_events")
			return
		}
		err = c.pull(ctx, p)
	case EventThemeChanged:
		p.onThemeChanged(c.host.ColorTheme())
	case EventPanelDisposed:
		p.Dispose()
	case EventWebviewMessage:
		err = c.applyEdit(ctx, p, ev.Message)
	default:
		err = fmt.Errorf("unknown event kind %d", ev.Kind)
	}
	if err != nil {
		log.Printf("Handling %s event failed: %v", ev.Kind, err)
	}
}

// isStale reports whether a save names a document other than the active one
func (c *Controller) isStale(ev Event) bool {
	if ev.Document.URI == "" {
		return false
	}
	active, ok := c.host.ActiveDocument()
	return ok && active.URI != ev.Document.URI
}

// pull parses the active document and posts its sanitized tree to p. The
// binding and script vault change only once the webview accepted the tree.
func (c *Controller) pull(ctx context.Context, p *Panel) error {
	doc, ok := c.host.ActiveDocument()
	if !ok {
		c.metrics.IncrementPullSkipped()
		return nil
	}

	tree, err := fragment.Parse(doc.Text)
	if err != nil {
		c.metrics.IncrementParseError()
		c.host.ShowError(fmt.Sprintf("Failed to parse %s: %v", doc.URI, err))
		return err
	}

	capture := fragment.Sanitize(tree)
	data, err := fragment.Encode(tree)
	if err != nil {
		return fmt.Errorf("failed to encode tree: %w", err)
	}

	if err := p.webview.PostMessage(ctx, Message{JSON: string(data)}); err != nil {
		return c.ioFailure("post message", err)
	}
	c.metrics.IncrementMessagePosted()

	v := vault.New()
	v.Capture(capture)
	p.bind(doc, v)
	c.metrics.IncrementPull(len(capture))
	return nil
}

// applyEdit writes a tree edited in the webview back to p's document
func (c *Controller) applyEdit(ctx context.Context, p *Panel, msg Message) error {
	if p.state != StateBound {
		return nil
	}
	c.metrics.IncrementEditReceived()

	if err := validateMessage(msg); err != nil {
		c.metrics.IncrementDecodeError()
		return &fragment.DecodeError{Reason: "invalid message", Err: err}
	}

	tree, err := fragment.Decode([]byte(msg.JSON))
	if err != nil {
		c.metrics.IncrementDecodeError()
		return err
	}

	markup, err := fragment.Reconstruct(tree)
	if err != nil {
		c.metrics.IncrementDecodeError()
		return fmt.Errorf("failed to reconstruct markup: %w", err)
	}
	text := p.vault.Splice(markup)

	before := p.doc
	// the tree posted back unchanged, up to whitespace
	if fragment.Normalize(text) == fragment.Normalize(before.Text) {
		c.metrics.IncrementCustomCounter("unchanged_edits")
		return nil
	}
	if err := c.host.ReplaceFullText(ctx, before, text); err != nil {
		return c.ioFailure("replace document", err)
	}
	p.doc.Text = text
	p.doc.Version++
	c.metrics.IncrementEditApplied()

	if c.config.Journal == nil {
		return nil
	}
	_, err = c.config.Journal.Record(ctx, Revision{
		DocumentURI: before.URI,
		Before:      before.Text,
		After:       text,
		AppliedAt:   time.Now(),
	})
	if err != nil {
		return c.ioFailure("record revision", err)
	}
	return nil
}

// Format reprints the active document with the configured printer and replaces
// its text. Printer failures are returned as *format.FormatError and leave the
// document untouched.
func (c *Controller) Format(ctx context.Context) error {
	doc, ok := c.host.ActiveDocument()
	if !ok {
		return ErrNoDocument
	}

	c.metrics.IncrementFormatRun()
	text, err := FormatText(doc.Text, c.config.Printer, c.config.FormatOptions)
	if err != nil {
		c.metrics.IncrementFormatError()
		return err
	}
	if text == doc.Text {
		return nil
	}

	if err := c.host.ReplaceFullText(ctx, doc, text); err != nil {
		return c.ioFailure("replace document", err)
	}
	return nil
}

// FormatText parses src, locates its script and style blocks and prints it with p
func FormatText(src string, p format.Printer, opts format.Options) (string, error) {
	tree, err := fragment.Parse(src)
	if err != nil {
		return "", &format.FormatError{Err: err}
	}
	opts = format.NewLocator(src, tree).Apply(src, opts)
	fragment.Strip(tree)
	return format.Print(p, tree, opts)
}

func (c *Controller) ioFailure(op string, err error) error {
	c.metrics.IncrementIOFailure()
	failure := &IOFailure{Op: op, Err: err}
	c.host.ShowError(failure.Error())
	return failure
}
