package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	verrors "github.com/vango-dev/vtree/internal/errors"
)

// Route paths served by Handler.
const (
	PathPage     = "/"
	PathSocket   = "/ws"
	PathSnapshot = "/snapshot"
	PathMetrics  = "/metrics"
	PathAdvance  = "/advance"
)

// AdvanceFunc moves a session to its next tree. It is called for
// POST /advance.
type AdvanceFunc func(ctx context.Context) error

// Server serves one session over HTTP.
type Server struct {
	session  *Session
	gatherer prometheus.Gatherer
	advance  AdvanceFunc
	logger   *slog.Logger

	// ShutdownTimeout bounds graceful shutdown in ListenAndServe.
	ShutdownTimeout time.Duration
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithGatherer serves the metrics of g at /metrics.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithAdvance enables POST /advance.
func WithAdvance(fn AdvanceFunc) ServerOption {
	return func(s *Server) {
		s.advance = fn
	}
}

// NewServer creates a server for session.
func NewServer(session *Session, opts ...ServerOption) *Server {
	s := &Server{
		session:         session,
		logger:          session.logger,
		ShutdownTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes of the server:
//
//	GET  /          the current tree as an HTML page
//	GET  /ws        websocket stream of snapshot and patches frames
//	GET  /snapshot  the current snapshot frame
//	GET  /metrics   prometheus metrics, when a gatherer is set
//	POST /advance   move to the next tree, when an advance function is set
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(PathPage, s.handlePage)
	r.Get(PathSocket, s.session.ServeWS)
	r.Get(PathSnapshot, s.handleSnapshot)
	if s.gatherer != nil {
		r.Method(http.MethodGet, PathMetrics, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.advance != nil {
		r.Post(PathAdvance, s.handleAdvance)
	}
	return r
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.session.RenderPage(w, PathSocket); err != nil {
		s.logger.Warn("page render failed", verrors.Attr(err))
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := s.session.Snapshot()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	if err := s.advance(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%d\n", s.session.Cycle())
}

// writeError answers with the registry code of err when it has one.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, ErrSessionClosed) {
		status = http.StatusServiceUnavailable
	} else if verrors.Is(err, "E202") {
		status = http.StatusUnprocessableEntity
	}
	s.logger.Warn("request failed", "status", status, verrors.Attr(err))
	http.Error(w, err.Error(), status)
}

// ListenAndServe serves Handler on addr until ctx is done, then shuts down
// gracefully and closes the session.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	s.session.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
