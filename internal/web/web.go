// Package web serves the generated iCalendar feed over HTTP so calendar
// applications can subscribe to it.
package web

import (
	"context"
	"crypto/subtle"
	"net/http"
	"sync"
	"time"

	"gridcal/internal/config"
	appLog "gridcal/internal/log"
)

// GenerateFunc produces a fresh serialized calendar document.
type GenerateFunc func(ctx context.Context) ([]byte, error)

// Server exposes the feed. The document is regenerated by the cron loop
// in cmd/gridcal via Refresh; requests serve the cached copy so the
// source site is not hit on every subscription poll.
type Server struct {
	cfg      *config.Config
	mux      *http.ServeMux
	generate GenerateFunc

	mu          sync.RWMutex
	cached      []byte
	refreshedAt time.Time
}

// NewServer constructs a Server around a generate function.
func NewServer(cfg *config.Config, generate GenerateFunc) *Server {
	s := &Server{
		cfg:      cfg,
		mux:      http.NewServeMux(),
		generate: generate,
	}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/timetable.ics", s.handleFeed)
	return s
}

// Handler returns the HTTP handler, wrapped with Basic Auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Refresh regenerates the cached document. The previous copy is kept on
// failure so subscribers keep getting the last good feed.
func (s *Server) Refresh(ctx context.Context) error {
	body, err := s.generate(ctx)
	if err != nil {
		appLog.Error("feed refresh failed, keeping previous document", err)
		return err
	}

	s.mu.Lock()
	s.cached = body
	s.refreshedAt = time.Now()
	s.mu.Unlock()

	appLog.Info("feed refreshed", "bytes", len(body))
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	body := s.cached
	refreshedAt := s.refreshedAt
	s.mu.RUnlock()

	if body == nil {
		// First request before any cron tick: generate on demand.
		if err := s.Refresh(r.Context()); err != nil {
			http.Error(w, "feed generation failed", http.StatusBadGateway)
			return
		}
		s.mu.RLock()
		body = s.cached
		refreshedAt = s.refreshedAt
		s.mu.RUnlock()
	}

	w.Header().Set("Last-Modified", refreshedAt.UTC().Format(http.TimeFormat))
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="timetable.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="gridcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
