package iteria

import (
	"log"

	"github.com/livefir/iteria/internal/vault"
)

// PanelState is the lifecycle state of a Panel
type PanelState int

const (
	// StateIdle means the panel has no bound document yet
	StateIdle PanelState = iota
	// StateBound means the panel displays the tree of one document
	StateBound
	// StateDisposed means the panel was closed and its subscriptions released
	StateDisposed
)

func (s PanelState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBound:
		return "bound"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Panel is the single live tree editor and the document bound to it.
// A Panel is owned by the goroutine driving its Controller.
type Panel struct {
	id      int
	owner   *Controller
	webview Webview
	theme   string
	state   PanelState

	doc   Document
	vault *vault.Vault
	subs  []Disposable
}

// ID returns the panel's sequence number within its controller
func (p *Panel) ID() int { return p.id }

// State returns the lifecycle state
func (p *Panel) State() PanelState { return p.state }

// Theme returns the page theme captured when the panel was created
func (p *Panel) Theme() string { return p.theme }

// Document returns the bound document
func (p *Panel) Document() (Document, bool) {
	return p.doc, p.state == StateBound
}

// Scripts returns the script bodies captured by the last successful pull
func (p *Panel) Scripts() []string {
	return p.vault.Entries()
}

// bind replaces the bound document and its script vault
func (p *Panel) bind(doc Document, v *vault.Vault) {
	p.doc = doc
	p.vault = v
	p.state = StateBound
}

func (p *Panel) track(d Disposable) {
	p.subs = append(p.subs, Once(d))
}

func (p *Panel) onThemeChanged(kind ThemeKind) bool {
	if kind.PageTheme() == p.theme {
		return false
	}
	p.owner.host.ShowInformation(ThemeChangeNotice)
	p.owner.metrics.IncrementCustomCounter("theme_notices")
	return true
}

// Dispose clears the controller's reference to the panel, releases every
// subscription in reverse order and then the webview. Calling it again does
// nothing. Events queued for the panel afterwards are dropped.
func (p *Panel) Dispose() {
	if p.state == StateDisposed {
		return
	}
	p.state = StateDisposed

	if p.owner.current == p {
		p.owner.current = nil
	}

	for len(p.subs) > 0 {
		last := len(p.subs) - 1
		d := p.subs[last]
		p.subs = p.subs[:last]
		d.Dispose()
	}

	if err := p.webview.Dispose(); err != nil {
		log.Printf("Failed to dispose webview: %v", err)
	}
	p.vault = vault.New()
	p.owner.metrics.IncrementPanelDisposed()
}
