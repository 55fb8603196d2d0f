package iteria

import (
	"context"
	"errors"
)

type fakeSub struct {
	fn       func(Event)
	disposed int
}

func (s *fakeSub) Dispose() { s.disposed++ }

type subscriptions map[EventKind][]*fakeSub

func (s subscriptions) add(kind EventKind, fn func(Event)) Disposable {
	sub := &fakeSub{fn: fn}
	s[kind] = append(s[kind], sub)
	return sub
}

func (s subscriptions) fire(ev Event) {
	for _, sub := range s[ev.Kind] {
		if sub.disposed == 0 {
			sub.fn(ev)
		}
	}
}

func (s subscriptions) all() []*fakeSub {
	var out []*fakeSub
	for _, subs := range s {
		out = append(out, subs...)
	}
	return out
}

type fakeHost struct {
	doc        Document
	hasDoc     bool
	theme      ThemeKind
	replaced   []string
	replaceErr error
	infos      []string
	errs       []string
	subs       subscriptions
}

func newFakeHost(uri, text string) *fakeHost {
	h := &fakeHost{theme: ThemeDark, subs: subscriptions{}}
	if uri != "" {
		h.open(uri, text)
	}
	return h
}

func (h *fakeHost) open(uri, text string) {
	h.doc = Document{URI: uri, Text: text, Version: 1}
	h.hasDoc = true
}

func (h *fakeHost) ActiveDocument() (Document, bool) { return h.doc, h.hasDoc }

func (h *fakeHost) ReplaceFullText(_ context.Context, doc Document, text string) error {
	if h.replaceErr != nil {
		return h.replaceErr
	}
	h.replaced = append(h.replaced, text)
	if h.hasDoc && h.doc.URI == doc.URI {
		h.doc.Text = text
		h.doc.Version++
	}
	return nil
}

func (h *fakeHost) ColorTheme() ThemeKind { return h.theme }
func (h *fakeHost) ShowInformation(msg string) { h.infos = append(h.infos, msg) }
func (h *fakeHost) ShowError(msg string) { h.errs = append(h.errs, msg) }
func (h *fakeHost) fire(ev Event) { h.subs.fire(ev) }
func (h *fakeHost) Subscribe(kind EventKind, fn func(Event)) Disposable {
	return h.subs.add(kind, fn)
}

type fakeWebview struct {
	theme    string
	posted   []Message
	postErr  error
	reveals  int
	disposed int
	subs     subscriptions
}

func (w *fakeWebview) PostMessage(_ context.Context, msg Message) error {
	if w.postErr != nil {
		return w.postErr
	}
	w.posted = append(w.posted, msg)
	return nil
}

func (w *fakeWebview) Reveal() { w.reveals++ }
func (w *fakeWebview) fire(ev Event) { w.subs.fire(ev) }
func (w *fakeWebview) Subscribe(kind EventKind, fn func(Event)) Disposable {
	return w.subs.add(kind, fn)
}

func (w *fakeWebview) Dispose() error {
	w.disposed++
	return nil
}

func (w *fakeWebview) last() Message {
	if len(w.posted) == 0 {
		return Message{}
	}
	return w.posted[len(w.posted)-1]
}

type fakeFactory struct {
	created []*fakeWebview
	err     error
}

func (f *fakeFactory) create(_ context.Context, theme string) (Webview, error) {
	if f.err != nil {
		return nil, f.err
	}
	wv := &fakeWebview{theme: theme, subs: subscriptions{}}
	f.created = append(f.created, wv)
	return wv, nil
}

type fakeJournal struct {
	revisions []Revision
	err       error
}

func (j *fakeJournal) Record(_ context.Context, rev Revision) (Revision, error) {
	if j.err != nil {
		return Revision{}, j.err
	}
	rev.ID = "rev-" + string(rune('a'+len(j.revisions)))
	j.revisions = append(j.revisions, rev)
	return rev, nil
}

var errDiskFull = errors.New("disk full")
