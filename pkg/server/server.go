// Package server exposes the analytics over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"order-analytics/pkg/calculator"
	"order-analytics/pkg/loader"
	"order-analytics/pkg/report"
)

const reloadDebounce = 250 * time.Millisecond

// Config holds configuration for the API server.
type Config struct {
	Listen   string
	Source   loader.Source
	Watch    bool           // reload the CSV source when it changes
	Defaults report.Options // top-N and bin policy used when a request sets none
	Logger   *slog.Logger
}

// Server serves one dataset. The dataset is replaced atomically on reload, so in-flight
// requests keep the handle they started with.
type Server struct {
	cfg    Config
	logger *slog.Logger
	data   atomic.Pointer[calculator.Dataset]
}

// New creates a server over ds.
func New(cfg Config, ds *calculator.Dataset) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, logger: logger}
	s.data.Store(ds)
	return s
}

// Dataset returns the current dataset handle.
func (s *Server) Dataset() *calculator.Dataset {
	return s.data.Load()
}

// Reload reads the source again and swaps the dataset. On failure the previous dataset
// stays in place.
func (s *Server) Reload(ctx context.Context) error {
	ds, err := loader.Load(ctx, s.cfg.Source, s.logger)
	if err != nil {
		return err
	}
	s.data.Store(ds)
	return nil
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		s.logRequests,
	)
	s.routes(r)
	return r
}

// Serve starts the API server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting API server", "addr", s.cfg.Listen)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.Watch {
		eg.Go(func() error {
			return s.watchSource(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchSource reloads the dataset after the CSV file changes. The parent directory is
// watched since editors often replace the file instead of writing it in place.
func (s *Server) watchSource(ctx context.Context) error {
	if s.cfg.Source.Path == "" || s.cfg.Source.DSN != "" {
		s.logger.Warn("watch ignored: only CSV sources can be watched")
		return nil
	}
	target := filepath.Clean(s.cfg.Source.Path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", target, err)
	}
	s.logger.Debug("watching source", "file", target)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || filepath.Clean(event.Name) != target {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(reloadDebounce, func() {
				s.logger.Debug("source changed, reloading", "file", target)
				if err := s.Reload(ctx); err != nil {
					s.logger.Error("reload failed", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"elapsed", time.Since(start).Round(time.Microsecond),
		)
	})
}
