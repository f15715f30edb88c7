package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/stocker/internal/config"
	"github.com/hpungsan/stocker/internal/gallery"
	"github.com/hpungsan/stocker/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// timeNow is replaced in tests.
var timeNow = time.Now

// Options configures NewServer.
type Options struct {
	Version  string
	Bind     string
	Port     int
	Notifier gallery.Notifier
	Logger   *slog.Logger
}

// NewServer creates and configures the HTTP server for the gallery UI.
func NewServer(s *store.Store, cfg *config.Config, opts Options) (*http.Server, error) {
	h, err := newHandlers(s, cfg, opts)
	if err != nil {
		return nil, err
	}

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.HandleGallery)
	mux.HandleFunc("GET /images/{id}", h.HandleImage)
	mux.HandleFunc("GET /prompts/{id}", h.HandleDetail)
	mux.HandleFunc("POST /prompts/{id}/favorite", h.HandleFavorite)
	mux.HandleFunc("DELETE /prompts/{id}", h.HandleDelete)
	mux.HandleFunc("POST /theme", h.HandleTheme)
	mux.HandleFunc("GET /export", h.HandleExport)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", opts.Bind, opts.Port),
		Handler:           securityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

func newHandlers(s *store.Store, cfg *config.Config, opts Options) (*Handlers, error) {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Handlers{
		store:    s,
		cfg:      cfg,
		renderer: NewRenderer(templateSub, opts.Version, logger),
		notifier: opts.Notifier,
		logger:   logger,
	}, nil
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self'; style-src 'self'; script-src 'none'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// safeFragment marks HTML produced by our own templates as safe for the page.
func safeFragment(s string) template.HTML {
	return template.HTML(s)
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, logger *slog.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("gallery running", "url", "http://"+srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
