package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"markestedt/clipkeep/bus"
)

//go:embed static/*
var staticFiles embed.FS

const shutdownTimeout = 2 * time.Second

// Server renders the history as a local web page. Commands from the page
// are published on the bus; the controller answers with Render and
// SetStatus, which are pushed to every open page over a websocket.
type Server struct {
	pub       bus.Publisher
	port      int
	exportDir string
	hub       *Hub

	upgrader websocket.Upgrader

	// openBrowser is replaced in tests
	openBrowser func(url string) error

	mu     sync.RWMutex
	view   View
	status string
	hidden bool

	httpSrv *http.Server
	ln      net.Listener
	done    chan struct{}
}

// NewServer creates a new web server bound to the loopback interface.
// Exports requested from the page are written under exportDir.
func NewServer(pub bus.Publisher, port int, exportDir string) *Server {
	s := &Server{
		pub:         pub,
		port:        port,
		exportDir:   exportDir,
		hub:         NewHub(),
		openBrowser: OpenBrowser,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler returns the HTTP routes
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("POST /api/select", s.handleSelect)
	mux.HandleFunc("POST /api/copy", s.handleText(bus.Copy))
	mux.HandleFunc("POST /api/pin", s.handleText(bus.TogglePin))
	mux.HandleFunc("POST /api/remove", s.handleText(bus.Remove))
	mux.HandleFunc("POST /api/clear", s.handleClear)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/hotkey", s.handleHotkey)
	mux.HandleFunc("POST /api/monitoring", s.handleFlag(bus.SetMonitoring, "paused"))
	mux.HandleFunc("POST /api/autostart", s.handleFlag(bus.SetAutostart, "enabled"))
	mux.HandleFunc("POST /api/export", s.handleExport)
	mux.HandleFunc("/ws", s.handleWebSocket)

	// Static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to load static files: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	return s.guard(mux), nil
}

// Start binds the port and serves in the background
func (s *Server) Start() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to start web server: %w", err)
	}
	s.ln = ln
	s.httpSrv = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.done = make(chan struct{})

	go s.hub.Run()
	go func() {
		defer close(s.done)
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("Web server stopped", "error", err)
		}
	}()

	slog.Info("Starting web server", "url", s.URL())
	return nil
}

// URL returns the page address
func (s *Server) URL() string {
	if s.ln != nil {
		return "http://" + s.ln.Addr().String()
	}
	return fmt.Sprintf("http://127.0.0.1:%d", s.port)
}

// Close disconnects pages and stops the HTTP server
func (s *Server) Close() error {
	s.hub.Stop()
	if s.httpSrv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.httpSrv.Shutdown(ctx)
	<-s.done
	return err
}

// Render replaces the view and pushes it to every page
func (s *Server) Render(v View) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()

	s.hub.BroadcastMessage(Message{Type: MessageTypeView, Data: v})
}

// SetStatus pushes a status line the page clears after clearAfter
func (s *Server) SetStatus(text string, clearAfter time.Duration) {
	s.mu.Lock()
	s.status = text
	s.mu.Unlock()

	s.hub.BroadcastMessage(Message{
		Type: MessageTypeStatus,
		Data: StatusMessage{Text: text, ClearMS: int(clearAfter.Milliseconds())},
	})
}

// Show brings the page forward. With no page open a browser is launched.
func (s *Server) Show() {
	s.setHidden(false)
	if s.hub.Count() > 0 {
		s.hub.BroadcastMessage(Message{Type: MessageTypeShow})
		return
	}
	if err := s.openBrowser(s.URL()); err != nil {
		slog.Warn("Failed to open web UI", "error", err)
	}
}

// Hide asks open pages to get out of the way
func (s *Server) Hide() {
	s.setHidden(true)
	s.hub.BroadcastMessage(Message{Type: MessageTypeHide})
}

// Visible reports whether a page is open and not hidden. A closed tab
// counts as hidden.
func (s *Server) Visible() bool {
	s.mu.RLock()
	hidden := s.hidden
	s.mu.RUnlock()
	return !hidden && s.hub.Count() > 0
}

func (s *Server) setHidden(hidden bool) {
	s.mu.Lock()
	s.hidden = hidden
	s.mu.Unlock()
}

func (s *Server) snapshot() (View, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view, s.status
}

// checkOrigin only accepts the page served by this process
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return origin == "http://"+r.Host
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "error", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	select {
	case client.hub.register <- client:
	case <-s.hub.stop:
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}
