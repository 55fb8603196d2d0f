package iteria

// EventKind identifies an event class
type EventKind int

const (
	EventActiveEditorChanged EventKind = iota + 1
	EventDocumentSaved
	EventThemeChanged
	EventPanelDisposed
	EventWebviewMessage
	EventFormatRequested
)

func (k EventKind) String() string {
	switch k {
	case EventActiveEditorChanged:
		return "active-editor-changed"
	case EventDocumentSaved:
		return "document-saved"
	case EventThemeChanged:
		return "theme-changed"
	case EventPanelDisposed:
		return "panel-disposed"
	case EventWebviewMessage:
		return "webview-message"
	case EventFormatRequested:
		return "format-requested"
	default:
		return "unknown"
	}
}

// Event is delivered by a Host or Webview and queued on the Controller.
// Document and Theme are hints only; the controller re-reads the host.
type Event struct {
	Kind     EventKind
	Document Document
	Theme    ThemeKind
	Message  Message

	// panel is the panel the subscription was registered for, nil for
	// events dispatched directly.
	panel *Panel
}
