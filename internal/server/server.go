// Package server exposes the relay's local surface endpoint: a WebSocket
// channel for registered UI surfaces plus a small JSON API for cached
// state and submission history.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dkazakov/browser-relay/internal/config"
	"github.com/dkazakov/browser-relay/internal/event"
	"github.com/dkazakov/browser-relay/internal/store"
	"github.com/dkazakov/browser-relay/internal/surface"
	"github.com/dkazakov/browser-relay/internal/version"
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// Submitter forwards task requests to the backend.
type Submitter interface {
	Submit(ctx context.Context, req event.TaskRequest) error
}

// Reader serves cached state and history to the JSON API.
type Reader interface {
	BrowserState() ([]byte, error)
	RecentTasks(limit int) ([]store.TaskRecord, error)
}

// Server is the local HTTP and WebSocket endpoint for UI surfaces.
type Server struct {
	cfg       config.ServerConfig
	logger    *slog.Logger
	registry  *surface.Registry
	submitter Submitter
	reader    Reader
	upgrader  websocket.Upgrader

	backendState func() string

	baseCtx context.Context
	httpSrv *http.Server
}

// Option configures optional server behavior.
type Option func(*Server)

// WithBackendState wires the backend connection state into /healthz.
func WithBackendState(fn func() string) Option {
	return func(s *Server) {
		s.backendState = fn
	}
}

// New creates a surface server. Start must be called before it accepts
// connections.
func New(cfg config.ServerConfig, registry *surface.Registry, submitter Submitter, reader Reader, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		submitter: submitter,
		reader:    reader,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Surfaces are local browser pages; the port is loopback-bound
			// and auth (when enabled) gates the upgrade.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the route table. Exposed for tests.
func (srv *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", srv.handleWS)
	mux.HandleFunc("GET /api/state", srv.handleState)
	mux.HandleFunc("GET /api/history", srv.handleHistory)
	mux.HandleFunc("GET /healthz", srv.handleHealth)

	if srv.cfg.AuthSecret != "" {
		return authMiddleware(srv.cfg.AuthSecret, []string{"/healthz"}, mux)
	}
	return mux
}

// Start begins serving in the background.
func (srv *Server) Start(ctx context.Context) error {
	srv.baseCtx = ctx

	addr := fmt.Sprintf("%s:%d", srv.cfg.Host, srv.cfg.Port)
	srv.httpSrv = &http.Server{
		Addr:    addr,
		Handler: srv.Handler(),
	}

	go func() {
		srv.logger.Info("surface server listening", "addr", addr)
		if err := srv.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srv.logger.Error("surface server failed", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down, draining in-flight requests until ctx expires.
func (srv *Server) Stop(ctx context.Context) error {
	if srv.httpSrv == nil {
		return nil
	}
	if err := srv.httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown surface server: %w", err)
	}
	srv.logger.Info("surface server stopped")
	return nil
}

// handleWS upgrades the connection and registers it as a surface. The
// registry immediately tells the new surface the current backend status.
func (srv *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := srv.upgrader.Upgrade(w, r, nil)
	if err != nil {
		srv.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sfc := newWSSurface(conn, r.URL.Query().Get("name"), defaultWriteTimeout)
	srv.logger.Info("surface connected", "surface", sfc.Name(), "id", sfc.ID())

	srv.registry.Register(sfc)
	go srv.readLoop(sfc)
}

type stateResponse struct {
	State json.RawMessage `json:"state"`
}

func (srv *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := srv.reader.BrowserState()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stateResponse{State: state})
}

type historyResponse struct {
	Tasks []store.TaskRecord `json:"tasks"`
}

func (srv *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > maxHistoryLimit {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	tasks, err := srv.reader.RecentTasks(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []store.TaskRecord{}
	}
	writeJSON(w, historyResponse{Tasks: tasks})
}

func (srv *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	backendState := "unknown"
	if srv.backendState != nil {
		backendState = srv.backendState()
	}
	writeJSON(w, map[string]any{
		"status":   "ok",
		"version":  version.Version,
		"surfaces": srv.registry.Len(),
		"backend":  backendState,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
