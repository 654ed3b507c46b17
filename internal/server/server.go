// Package server exposes a finished corpus directory over plain HTTP.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/juju/errors"
)

const shutdownTimeout = 5 * time.Second

// Server serves the files of one directory read-only.
type Server struct {
	dir    string
	logger *slog.Logger
	mux    *http.ServeMux
}

// New returns a server for dir, which must be an existing directory.
func New(dir string, logger *slog.Logger) (*Server, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Annotatef(err, "corpus dir %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.NotValidf("corpus dir %s (not a directory)", dir)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{dir: dir, logger: logger, mux: http.NewServeMux()}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	files := http.FileServer(http.Dir(s.dir))
	s.mux.Handle("GET /", files)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// Handler returns the request handler. Only GET and HEAD reach the files.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.mux.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote", r.RemoteAddr,
			"took", time.Since(start).Round(time.Microsecond),
		)
	})
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()
	s.logger.Info("serving corpus", "dir", s.dir, "addr", l.Addr().String())

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Trace(err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Annotate(err, "shutting down")
		}
		s.logger.Info("server stopped")
		return nil
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Annotatef(err, "listening on %s", addr)
	}
	return s.Serve(ctx, l)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
