package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hpungsan/voxnote/internal/app"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates and configures the HTTP server for the voxnote web UI.
func NewServer(a *app.App, version, bind string, port int, logger *slog.Logger) (*http.Server, error) {
	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}

	// Create sub-FS for static files (strip "static/" prefix)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	h := &Handlers{
		app:      a,
		renderer: NewRenderer(templateSub, version, logger),
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/notes", http.StatusFound)
	})
	mux.HandleFunc("GET /notes", h.HandleList)
	mux.HandleFunc("GET /notes/{id}", h.HandleDetail)
	mux.HandleFunc("DELETE /notes/{id}", h.HandleDelete)
	mux.HandleFunc("POST /notes/{id}/delete", h.HandleDelete)
	mux.HandleFunc("GET /notes/{id}/export", h.HandleExportNote)
	mux.HandleFunc("POST /notes/{id}/summarize", h.HandleSummarize)
	mux.HandleFunc("POST /notes/{id}/play", h.HandlePlay)
	mux.HandleFunc("POST /folders", h.HandleCreateFolder)
	mux.HandleFunc("DELETE /folders/{id}", h.HandleDeleteFolder)
	mux.HandleFunc("POST /folders/{id}/delete", h.HandleDeleteFolder)
	mux.HandleFunc("GET /transfer", h.HandleTransfer)
	mux.HandleFunc("GET /export", h.HandleExportAll)
	mux.HandleFunc("POST /import", h.HandleImport)

	// Static file server
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	// Wrap with security headers
	handler := securityHeaders(mux)

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("web UI running", "url", "http://"+srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down web UI")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
