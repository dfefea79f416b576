// Package server exposes a Session over HTTP and serves the annotator page.
package server

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	imageannotator "github.com/menta2k/image-annotator"
	"github.com/menta2k/image-annotator/internal/config"
	"github.com/menta2k/image-annotator/pkg/types"
)

//go:embed web
var webFS embed.FS

// Server serves the annotator page and its JSON API
type Server struct {
	session *imageannotator.Session
	cfg     *config.Config
	logger  *slog.Logger
	mux     *http.ServeMux

	uploadMu  sync.Mutex
	uploadDir string // directory holding the active folder's files
}

// New creates a server for session
func New(session *imageannotator.Session, cfg *config.Config, logger *slog.Logger) *Server {
	s := &Server{
		session: session,
		cfg:     cfg,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	static, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	s.mux.Handle("GET /", http.FileServer(http.FS(static)))

	s.mux.HandleFunc("GET /api/config", s.handleConfig)
	s.mux.HandleFunc("GET /api/example", s.handleExample)
	s.mux.HandleFunc("POST /api/folder", s.handleFolder)
	s.mux.HandleFunc("GET /api/images", s.handleChoices)
	s.mux.HandleFunc("GET /api/images/{name}", s.handleImage)
	s.mux.HandleFunc("POST /api/crop", s.handleCrop)
	s.mux.HandleFunc("POST /api/crops", s.handleCropAll)
	s.mux.HandleFunc("POST /api/boxes", s.handleBoxes)
	s.mux.HandleFunc("POST /api/overlay", s.handleOverlay)
	s.mux.HandleFunc("POST /api/settings/toggle", s.handleToggle)
	s.mux.HandleFunc("POST /api/suggest/{name}", s.handleSuggest)
}

// Handler returns the root handler with request logging
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.cfg.Server.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", slog.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	grace := time.Duration(s.cfg.Server.ShutdownGrace) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	s.cleanupUploads()
	return nil
}

// selectUploadedFolder makes the files under dir the active folder. The
// registry swap and the upload directory swap happen under one lock so the
// directory kept on disk is always the one the registry points into.
func (s *Server) selectUploadedFolder(dir string, paths []string) (types.Selection, error) {
	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()

	sel, err := s.session.SelectFolder(paths)
	if err != nil {
		_ = os.RemoveAll(dir)
		return sel, err
	}

	prev := s.uploadDir
	s.uploadDir = dir
	if prev != "" && prev != dir {
		if err := os.RemoveAll(prev); err != nil {
			s.logger.Warn("failed to remove previous upload", slog.String("dir", prev), slog.String("err", err.Error()))
		}
	}
	return sel, nil
}

func (s *Server) cleanupUploads() {
	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()
	if s.uploadDir != "" {
		_ = os.RemoveAll(s.uploadDir)
		s.uploadDir = ""
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}
