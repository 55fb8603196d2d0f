package iteria

import (
	"context"
	"sync"
)

// Document is a snapshot of an editor document
type Document struct {
	URI     string
	Text    string
	Version int
}

// Disposable releases a subscription or resource
type Disposable interface {
	Dispose()
}

// DisposableFunc adapts a function to Disposable
type DisposableFunc func()

func (f DisposableFunc) Dispose() { f() }

// Once wraps d so that only the first Dispose call reaches it
func Once(d Disposable) Disposable {
	var once sync.Once
	return DisposableFunc(func() {
		once.Do(d.Dispose)
	})
}

// Host is the editor surface the controller synchronizes with
type Host interface {
	// ActiveDocument returns the focused document, if any
	ActiveDocument() (Document, bool)
	// ReplaceFullText replaces the whole text of doc in one transaction
	ReplaceFullText(ctx context.Context, doc Document, text string) error
	ColorTheme() ThemeKind
	ShowInformation(msg string)
	ShowError(msg string)
	// Subscribe registers fn for events of the given kind. Only editor, save
	// and theme events are delivered by a host.
	Subscribe(kind EventKind, fn func(Event)) Disposable
}

// Message is the envelope exchanged with the tree editor page
type Message struct {
	JSON string `json:"json" validate:"required"`
}

// Webview is a live tree editor panel
type Webview interface {
	PostMessage(ctx context.Context, msg Message) error
	// Reveal brings the panel to front
	Reveal()
	// Subscribe registers fn for EventWebviewMessage and EventPanelDisposed
	Subscribe(kind EventKind, fn func(Event)) Disposable
	Dispose() error
}

// WebviewFactory creates a webview styled for the given page theme
type WebviewFactory func(ctx context.Context, theme string) (Webview, error)
