// Package workspace implements iteria.Host on top of the file system: the active
// document is a file, and a write to it on disk counts as a save.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/livefir/iteria"
)

const tempPrefix = ".iteria-"

// Config configures a Workspace
type Config struct {
	// Debounce is how long to wait for more writes before reporting a save
	Debounce time.Duration
	Theme    iteria.ThemeKind
	// Notify receives ShowInformation and ShowError messages
	Notify func(level, msg string)
}

// Option is a functional option for configuring a Workspace
type Option func(*Config)

// WithDebounce sets the save debounce window
func WithDebounce(d time.Duration) Option {
	return func(c *Config) {
		c.Debounce = d
	}
}

// WithTheme sets the initial color theme
func WithTheme(kind iteria.ThemeKind) Option {
	return func(c *Config) {
		c.Theme = kind
	}
}

// WithNotifier routes user notices to fn instead of the log
func WithNotifier(fn func(level, msg string)) Option {
	return func(c *Config) {
		c.Notify = fn
	}
}

// Workspace is a file backed iteria.Host
type Workspace struct {
	config  Config
	watcher *fsnotify.Watcher

	mu       sync.Mutex
	active   string
	theme    iteria.ThemeKind
	versions map[string]int
	watched  map[string]bool
	subs     map[iteria.EventKind]map[int]func(iteria.Event)
	nextSub  int

	changes   chan string
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a workspace and starts watching for saves until Close or ctx is done
func New(ctx context.Context, opts ...Option) (*Workspace, error) {
	config := Config{
		Debounce: 100 * time.Millisecond,
		Theme:    iteria.ThemeDark,
		Notify: func(level, msg string) {
			log.Printf("%s: %s", level, msg)
		},
	}
	for _, opt := range opts {
		opt(&config)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Workspace{
		config:   config,
		watcher:  watcher,
		theme:    config.Theme,
		versions: make(map[string]int),
		watched:  make(map[string]bool),
		subs:     make(map[iteria.EventKind]map[int]func(iteria.Event)),
		changes:  make(chan string, 100),
		done:     make(chan struct{}),
	}

	w.wg.Add(2)
	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return w, nil
}

// URI returns the document URI of a file path
func URI(path string) string {
	return "file://" + filepath.ToSlash(path)
}

// Path returns the file path of a document URI
func Path(uri string) string {
	return filepath.FromSlash(strings.TrimPrefix(uri, "file://"))
}

// Open makes path the active document and reports the editor change
func (w *Workspace) Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("failed to open document: %s is a directory", abs)
	}

	dir := filepath.Dir(abs)
	w.mu.Lock()
	if !w.watched[dir] {
		if err := w.watcher.Add(dir); err != nil {
			w.mu.Unlock()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.watched[dir] = true
	}
	w.active = abs
	w.mu.Unlock()

	doc, _ := w.ActiveDocument()
	w.emit(iteria.Event{Kind: iteria.EventActiveEditorChanged, Document: doc})
	return nil
}

// CloseDocument makes no document active
func (w *Workspace) CloseDocument() {
	w.mu.Lock()
	w.active = ""
	w.mu.Unlock()
	w.emit(iteria.Event{Kind: iteria.EventActiveEditorChanged})
}

// ActiveDocument reads the active file from disk
func (w *Workspace) ActiveDocument() (iteria.Document, bool) {
	w.mu.Lock()
	path := w.active
	version := w.versions[path]
	w.mu.Unlock()

	if path == "" {
		return iteria.Document{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Failed to read %s: %v", path, err)
		return iteria.Document{}, false
	}
	return iteria.Document{URI: URI(path), Text: string(data), Version: version}, true
}

// ReplaceFullText writes text to the document's file through a temporary file
// and a rename, so readers never see a partial document.
func (w *Workspace) ReplaceFullText(ctx context.Context, doc iteria.Document, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := Path(doc.URI)
	if path == "" {
		return errors.New("document has no path")
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), tempPrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// ColorTheme returns the current theme kind
func (w *Workspace) ColorTheme() iteria.ThemeKind {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.theme
}

// SetTheme changes the theme kind and reports the change
func (w *Workspace) SetTheme(kind iteria.ThemeKind) {
	w.mu.Lock()
	changed := w.theme != kind
	w.theme = kind
	w.mu.Unlock()

	if changed {
		w.emit(iteria.Event{Kind: iteria.EventThemeChanged, Theme: kind})
	}
}

func (w *Workspace) ShowInformation(msg string) { w.config.Notify("Info", msg) }

func (w *Workspace) ShowError(msg string) { w.config.Notify("Error", msg) }

// Subscribe registers fn for editor, save and theme events
func (w *Workspace) Subscribe(kind iteria.EventKind, fn func(iteria.Event)) iteria.Disposable {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextSub
	w.nextSub++
	if w.subs[kind] == nil {
		w.subs[kind] = make(map[int]func(iteria.Event))
	}
	w.subs[kind][id] = fn

	return iteria.Once(iteria.DisposableFunc(func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs[kind], id)
	}))
}

// Close stops watching. Pending saves are flushed first.
func (w *Workspace) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
		err = w.watcher.Close()
	})
	return err
}

func (w *Workspace) emit(ev iteria.Event) {
	w.mu.Lock()
	fns := make([]func(iteria.Event), 0, len(w.subs[ev.Kind]))
	for _, fn := range w.subs[ev.Kind] {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (w *Workspace) shouldIgnore(path string) bool {
	return strings.HasPrefix(filepath.Base(path), tempPrefix)
}

// processEvents forwards writes of regular files to the debouncer
func (w *Workspace) processEvents(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if w.shouldIgnore(event.Name) {
				continue
			}

			select {
			case w.changes <- filepath.Clean(event.Name):
			default:
				// the debouncer is behind; a queued change for the
				// same path will report the save
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

// debounceLoop reports one save per path once no write arrived for the
// debounce window.
func (w *Workspace) debounceLoop(ctx context.Context) {
	defer w.wg.Done()

	pending := make(map[string]bool)
	var order []string
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		for _, path := range order {
			w.save(path)
		}
		clear(pending)
		order = order[:0]
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-w.done:
			flush()
			return
		case path := <-w.changes:
			if !pending[path] {
				pending[path] = true
				order = append(order, path)
			}
			if timer == nil {
				timer = time.NewTimer(w.config.Debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.config.Debounce)
			}
		case <-timerC:
			flush()
		}
	}
}

func (w *Workspace) save(path string) {
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}

	w.mu.Lock()
	w.versions[path]++
	version := w.versions[path]
	w.mu.Unlock()

	w.emit(iteria.Event{
		Kind:     iteria.EventDocumentSaved,
		Document: iteria.Document{URI: URI(path), Version: version},
	})
}
