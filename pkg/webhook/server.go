// Package webhook implements a development stand-in for the PixNDrive
// webhook backend: /login, /files and /upload with the same JSON shapes the
// session client expects. Uploaded bytes are counted and discarded; only
// metadata is kept, in memory.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config holds stub server configuration.
type Config struct {
	Addr           string // HTTP bind address (e.g. ":9700")
	PublicURL      string // base used in returned file URLs (empty = derived from request)
	AccountsFile   string // YAML accounts file; empty means open mode
	Open           bool   // accept any well-formed credentials even with an accounts file
	MaxUploadBytes int64  // largest accepted multipart body
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:           ":9700",
		MaxUploadBytes: 64 << 20,
	}
}

// Server is the stub backend.
type Server struct {
	cfg      Config
	state    *state
	registry *prometheus.Registry
	metrics  *metrics
	handler  http.Handler
	now      func() time.Time

	httpSrv *http.Server
}

// New creates a Server. accounts may be nil for open mode, but not when
// cfg.AccountsFile is set: an empty accounts file is an error.
func New(cfg Config, accounts []Account) (*Server, error) {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}
	if cfg.AccountsFile != "" && len(accounts) == 0 {
		return nil, fmt.Errorf("webhook: accounts file %s defines no accounts", cfg.AccountsFile)
	}
	st, err := newState(accounts)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		cfg.Open = true
	}

	reg := prometheus.NewRegistry()
	s := &Server{
		cfg:      cfg,
		state:    st,
		registry: reg,
		metrics:  newMetrics(reg, st),
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("webhook: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpSrv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("webhook stub listening",
			"addr", ln.Addr().String(),
			"open", s.cfg.Open,
			"accounts", s.state.accountCount(),
		)
		errCh <- s.httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("webhook: serve: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("webhook: shutdown: %w", err)
	}
	return nil
}

// fileURL builds the URL returned for an uploaded file.
func (s *Server) fileURL(r *http.Request, id string) string {
	base := strings.TrimSuffix(s.cfg.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/files/" + id
}
