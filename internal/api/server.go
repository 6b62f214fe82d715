// Package api exposes the workflow engine, feature catalog, and module saver
// over HTTP for the visual builder.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/kingrea/flowbench/internal/composite"
	"github.com/kingrea/flowbench/internal/engine"
	"github.com/kingrea/flowbench/internal/storage"
)

// Logger is the Printf-style logger used for request failures.
type Logger interface {
	Printf(format string, args ...any)
}

// Server wraps the HTTP listener and handlers backing the builder API.
type Server struct {
	settings Settings
	engine   *engine.Engine
	storage  *storage.Manager
	saver    *composite.Saver
	logger   Logger

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	startTime time.Time
}

// Option customizes server construction.
type Option func(*Server)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSaver enables POST /builder/save-module.
func WithSaver(saver *composite.Saver) Option {
	return func(s *Server) {
		if saver != nil {
			s.saver = saver
		}
	}
}

// NewServer prepares an API server over the engine and upload storage.
func NewServer(settings Settings, eng *engine.Engine, store *storage.Manager, opts ...Option) (*Server, error) {
	if eng == nil {
		return nil, fmt.Errorf("api: engine is required")
	}
	if store == nil {
		return nil, fmt.Errorf("api: storage is required")
	}
	settings.normalize()
	s := &Server{
		settings: settings,
		engine:   eng,
		storage:  store,
		logger:   nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /features", s.handleFeatures)
	mux.HandleFunc("POST /workflow/run", s.handleRun)
	mux.HandleFunc("POST /workflow/resume", s.handleResume)
	mux.HandleFunc("GET /workflow/sessions", s.handleSessions)
	mux.HandleFunc("DELETE /workflow/session/{id}", s.handleCancel)
	mux.HandleFunc("POST /builder/save-module", s.handleSaveModule)
	return mux
}

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("api: server already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("api: listen %s: %w", addr, err)
	}
	s.listener = listener
	s.startTime = time.Now()
	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = server
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("api: serve error: %v", err)
		}
	}()
	s.logger.Printf("api: listening on %s", listener.Addr().String())
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.server == nil {
		return nil
	}
	deadline := ctx
	if deadline == nil {
		var cancel context.CancelFunc
		deadline, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(deadline); err != nil {
		return err
	}
	s.listener = nil
	s.server = nil
	return nil
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return s.settings.URL()
	}
	return "http://" + addr
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return int64(time.Since(s.startTime).Seconds())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
