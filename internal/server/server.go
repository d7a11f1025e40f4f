// Package server exposes a Session over HTTP/JSON and streams its events
// over a websocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/abhisek/mathsheet/internal/problemgen"
	"github.com/abhisek/mathsheet/internal/session"
)

// Keyring saves the backend credential and builds generators from it.
type Keyring interface {
	Save(ctx context.Context, key string) (*problemgen.Generator, error)
	Clear(ctx context.Context) error
	Generator(ctx context.Context) (*problemgen.Generator, error)
}

// Options configures the HTTP server.
type Options struct {
	Bind            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
	AllowedOrigins  []string

	// Title and Footer are the export defaults.
	Title  string
	Footer string

	Logger *slog.Logger
}

// Server serves one session.
type Server struct {
	sess   *session.Session
	keys   Keyring
	hub    *Hub
	opts   Options
	logger *slog.Logger

	unsubscribe func()
}

// New creates a Server.
func New(sess *session.Session, keys Keyring, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		sess:   sess,
		keys:   keys,
		hub:    NewHub(logger),
		opts:   opts,
		logger: logger,
	}
	s.unsubscribe = sess.Subscribe(s.hub.Publish)
	return s
}

// Close stops forwarding session events and disconnects websocket clients.
func (s *Server) Close() {
	s.unsubscribe()
	s.hub.Close()
}

// Handler returns the HTTP handler with every route.
func (s *Server) Handler() http.Handler {
	return s.newRouter()
}

// Run listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Bind)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Bind, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run with a caller-provided listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.Close()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.logger.Info("api shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
