// Package webview serves the JSON tree editor page and relays messages between the
// page and an iteria.Controller over a websocket.
package webview

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/livefir/iteria"
)

// ErrDisposed is returned by PostMessage after Dispose
var ErrDisposed = errors.New("webview disposed")

// TokenHeader carries the page token on control requests
const TokenHeader = "X-Iteria-Token"

// Config configures a Hub
type Config struct {
	Title    string
	Upgrader *websocket.Upgrader
	// Metrics, when set, is served as JSON at /metrics
	Metrics func() any
	// WriteTimeout bounds a single websocket write
	WriteTimeout time.Duration
	// Token must accompany every page, websocket and control request.
	// New generates one when empty.
	Token string
}

// Option is a functional option for configuring a Hub
type Option func(*Config)

// WithTitle sets the page title
func WithTitle(title string) Option {
	return func(c *Config) {
		c.Title = title
	}
}

// WithUpgrader sets a custom WebSocket upgrader
func WithUpgrader(upgrader *websocket.Upgrader) Option {
	return func(c *Config) {
		c.Upgrader = upgrader
	}
}

// WithToken fixes the page token instead of generating one
func WithToken(token string) Option {
	return func(c *Config) {
		c.Token = token
	}
}

// WithMetrics serves the snapshot returned by fn at /metrics
func WithMetrics(fn func() any) Option {
	return func(c *Config) {
		c.Metrics = fn
	}
}

// client is one connected page. gorilla connections allow a single writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub is an iteria.Webview backed by every browser tab connected to it. The last
// posted message is replayed to tabs that connect later.
type Hub struct {
	config Config
	theme  string

	mu       sync.Mutex
	clients  map[*client]struct{}
	last     []byte
	subs     map[iteria.EventKind]map[int]func(iteria.Event)
	nextSub  int
	disposed bool

	server *http.Server
	url    string
}

// New creates a hub rendering the page with the given theme ("light" or "dark")
func New(theme string, opts ...Option) *Hub {
	config := Config{
		Title:        "JSON Tree Editor",
		Upgrader:     &websocket.Upgrader{},
		WriteTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Token == "" {
		config.Token = uuid.NewString()
	}

	return &Hub{
		config:  config,
		theme:   theme,
		clients: make(map[*client]struct{}),
		subs:    make(map[iteria.EventKind]map[int]func(iteria.Event)),
	}
}

// Serve creates a hub and serves it on addr until the hub is disposed
func Serve(ctx context.Context, addr, theme string, opts ...Option) (*Hub, error) {
	h := New(theme, opts...)

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	h.server = &http.Server{Handler: h.Handler()}
	h.url = fmt.Sprintf("http://%s/?token=%s", ln.Addr(), url.QueryEscape(h.config.Token))

	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server error: %v", err)
		}
	}()
	return h, nil
}

// URL returns the page address when the hub was started with Serve
func (h *Hub) URL() string {
	return h.url
}

// Token returns the token page requests must carry
func (h *Hub) Token() string {
	return h.config.Token
}

// Theme returns the page theme
func (h *Hub) Theme() string {
	return h.theme
}

// Handler returns the HTTP routes of the hub
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.guard(h.handlePage))
	mux.Handle("GET /static/", http.FileServer(http.FS(staticFS)))
	mux.HandleFunc("GET /ws", h.guard(h.handleWebSocket))
	mux.HandleFunc("POST /close", h.guard(h.handleEvent(iteria.EventPanelDisposed)))
	mux.HandleFunc("POST /format", h.guard(h.handleEvent(iteria.EventFormatRequested)))
	mux.HandleFunc("GET /metrics", h.handleMetrics)
	return mux
}

// guard rejects cross-origin requests and requests without the page token
func (h *Hub) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !sameOrigin(r) {
			log.Printf("Rejected %s %s from origin %q", r.Method, r.URL.Path, r.Header.Get("Origin"))
			http.Error(w, "cross-origin request refused", http.StatusForbidden)
			return
		}
		if subtle.ConstantTimeCompare([]byte(requestToken(r)), []byte(h.config.Token)) != 1 {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// sameOrigin accepts requests without an Origin header and requests whose
// Origin host matches the Host they were sent to
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func requestToken(r *http.Request) string {
	if token := r.Header.Get(TokenHeader); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

// Clients returns the number of connected tabs
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// PostMessage sends msg to every connected tab and keeps it for later ones.
// Tabs that fail to receive it are dropped.
func (h *Hub) PostMessage(ctx context.Context, msg iteria.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return ErrDisposed
	}
	h.last = data
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.write(data, h.config.WriteTimeout); err != nil {
			log.Printf("WebSocket write failed: %v", err)
			h.drop(c)
		}
	}
	return nil
}

// Reveal logs where the page is served; a browser tab is the panel.
func (h *Hub) Reveal() {
	if h.url != "" {
		log.Printf("Tree editor at %s", h.url)
	}
}

// Subscribe registers fn for events raised by the page
func (h *Hub) Subscribe(kind iteria.EventKind, fn func(iteria.Event)) iteria.Disposable {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSub
	h.nextSub++
	if h.subs[kind] == nil {
		h.subs[kind] = make(map[int]func(iteria.Event))
	}
	h.subs[kind][id] = fn

	return iteria.Once(iteria.DisposableFunc(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[kind], id)
	}))
}

// Dispose closes every tab connection and stops the server. It is idempotent.
func (h *Hub) Dispose() error {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return nil
	}
	h.disposed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.mu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "panel disposed"),
			time.Now().Add(time.Second))
		c.mu.Unlock()
		c.conn.Close()
	}

	if h.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func (h *Hub) emit(ev iteria.Event) {
	h.mu.Lock()
	fns := make([]func(iteria.Event), 0, len(h.subs[ev.Kind]))
	for _, fn := range h.subs[ev.Kind] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.conn.Close()
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.config.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn}

	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	last := h.last
	h.mu.Unlock()
	defer h.drop(c)

	log.Printf("Client connected from %s", conn.RemoteAddr())

	if last != nil {
		if err := c.write(last, h.config.WriteTimeout); err != nil {
			log.Printf("Failed to send initial tree: %v", err)
			return
		}
	}

	// message loop
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg iteria.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Failed to parse message: %v", err)
			continue
		}
		h.emit(iteria.Event{Kind: iteria.EventWebviewMessage, Message: msg})
	}

	log.Printf("Client disconnected")
}

func (h *Hub) handleEvent(kind iteria.EventKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.emit(iteria.Event{Kind: kind})
		w.WriteHeader(http.StatusAccepted)
	}
}

func (h *Hub) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.config.Metrics == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.config.Metrics()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
