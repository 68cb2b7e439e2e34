// Package server exposes dataset profiling over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tabsight-cli/internal/loader"
	"github.com/KaramelBytes/tabsight-cli/internal/profile"
	"github.com/KaramelBytes/tabsight-cli/internal/report"
	"github.com/KaramelBytes/tabsight-cli/internal/table"
)

// Options are the per-request defaults; query parameters override the profile ones.
type Options struct {
	Load           loader.Options
	Profile        profile.Options
	Format         report.Format
	MaxUploadBytes int64
}

// Server routes profile requests to the loaders and the profiler.
type Server struct {
	router  *chi.Mux
	fetcher *loader.Fetcher
	opt     Options
	log     *zap.Logger
}

// New builds the router. fetcher may be nil to disable GET /profile?url=.
func New(fetcher *loader.Fetcher, opt Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opt.MaxUploadBytes <= 0 {
		opt.MaxUploadBytes = 32 << 20
	}
	if opt.Format == "" {
		opt.Format = report.FormatJSON
	}
	s := &Server{router: chi.NewRouter(), fetcher: fetcher, opt: opt, log: log}
	s.router.Use(middleware.RequestID)
	s.router.Use(RequestLogger(log))
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/profile", s.handleProfileURL)
	s.router.Post("/profile", s.handleProfileUpload)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("listening", zap.String("addr", addr))
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProfileURL(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("url")
	if src == "" {
		writeError(w, http.StatusBadRequest, "missing url parameter")
		return
	}
	if !loader.IsURL(src) {
		writeError(w, http.StatusBadRequest, "url must be http or https")
		return
	}
	if s.fetcher == nil {
		writeError(w, http.StatusNotImplemented, "remote sources are disabled")
		return
	}
	t, err := s.fetcher.Load(r.Context(), src, s.opt.Load)
	if errors.Is(err, loader.ErrTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if err != nil {
		var se *loader.HTTPStatusError
		if !errors.As(err, &se) {
			s.log.Warn("remote load failed", zap.String("url", src), zap.Error(err))
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respond(w, r, t)
}

func (s *Server) handleProfileUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opt.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opt.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	var t *table.Table
	name := filepath.Base(hdr.Filename)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		t, err = loader.LoadCSV(file, name, s.opt.Load)
	case ".xlsx", ".xlsm":
		t, err = loader.LoadXLSX(file, name, s.opt.Load)
	default:
		writeError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("%s: %v", name, loader.ErrUnsupported))
		return
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respond(w, r, t)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, t *table.Table) {
	q := r.URL.Query()
	popt := s.opt.Profile
	if v := q.Get("top_k"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil || k < 0 {
			writeError(w, http.StatusBadRequest, "top_k must be a non-negative integer")
			return
		}
		popt.TopK = k
	}
	if v := q.Get("min_corr"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			writeError(w, http.StatusBadRequest, "min_corr must be between 0 and 1")
			return
		}
		popt.MinAbsCorr = f
	}
	if v := q.Get("group_by"); v != "" {
		popt.GroupBy = strings.Split(v, ",")
	}
	format := s.opt.Format
	if v := q.Get("format"); v != "" {
		f, err := report.ParseFormat(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = f
	}

	sum, err := profile.Profile(t, popt)
	switch {
	case errors.Is(err, profile.ErrUnknownColumn):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	body, err := report.Render(sum, format)
	if err != nil {
		s.log.Error("render failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
