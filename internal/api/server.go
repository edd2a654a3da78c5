// Package api serves sessions over HTTP.
// Session endpoints are public; anyone holding a session ID can play it.
// Admin endpoints require a bearer token.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/undercurrent/internal/content"
	"github.com/talgya/undercurrent/internal/persistence"
	"github.com/talgya/undercurrent/internal/session"
)

const (
	maxStreams   = 64
	maxBodyBytes = 1 << 16
)

// CityLister lists playable cities.
type CityLister interface {
	Cities() []content.Summary
}

// MetaReader reads server metadata.
type MetaReader interface {
	GetMeta(key string) (string, error)
}

// Server serves sessions over HTTP.
type Server struct {
	Sessions    *session.Manager
	Cities      CityLister
	Meta        MetaReader
	Addr        string
	AdminKey    string   // Bearer token for admin endpoints. Empty = admin disabled.
	CORSOrigins []string // Allowed in addition to the localhost dev servers.
	Limiter     *RateLimiter
	Started     time.Time

	// Open websocket streams (atomic).
	streams int32
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	origins := allowedOrigins(s.CORSOrigins)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origins[origin] || sameHost(origin, r.Host)
		},
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/cities", s.handleCities)

	mux.HandleFunc("POST /api/v1/sessions", s.limited(s.handleCreate))
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGet)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/v1/sessions/{id}/advance", s.limited(s.handleAdvance))
	mux.HandleFunc("POST /api/v1/sessions/{id}/step", s.limited(s.handleStep))
	mux.HandleFunc("POST /api/v1/sessions/{id}/choose", s.limited(s.handleChoose))
	mux.HandleFunc("GET /api/v1/sessions/{id}/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/sessions/{id}/stream", s.handleStream(upgrader))

	mux.HandleFunc("GET /api/v1/admin/sessions", s.adminOnly(s.handleAdminSessions))
	mux.HandleFunc("POST /api/v1/admin/purge", s.adminOnly(s.handlePurge))

	return corsMiddleware(origins, mux)
}

// Start begins serving in a goroutine and returns the server for shutdown.
func (s *Server) Start() *http.Server {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", s.Addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

func allowedOrigins(extra []string) map[string]bool {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range extra {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowed[origin] = true
		}
	}
	return allowed
}

func sameHost(origin, host string) bool {
	_, rest, ok := strings.Cut(origin, "://")
	return ok && rest == host
}

// corsMiddleware adds CORS headers for allowed frontend origins.
func corsMiddleware(allowed map[string]bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no UNDERCURRENT_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	if s.Limiter == nil {
		return next
	}
	return RateLimitMiddleware(s.Limiter, next)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"name":    "Undercurrent",
		"cities":  len(s.Cities.Cities()),
		"streams": atomic.LoadInt32(&s.streams),
	}
	if !s.Started.IsZero() {
		status["uptime_seconds"] = int(time.Since(s.Started).Seconds())
	}
	if s.Meta != nil {
		if booted, err := s.Meta.GetMeta("booted_at"); err == nil {
			status["booted_at"] = booted
		} else if !errors.Is(err, persistence.ErrNotFound) {
			slog.Warn("status meta read failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Cities.Cities())
}

func (s *Server) handleAdminSessions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100, 1000)
	list, err := s.Sessions.List(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []persistence.SessionInfo{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	n, err := s.Sessions.Purge()
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("admin purge", "removed", n)
	writeJSON(w, http.StatusOK, map[string]any{"removed": n})
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrSessionEnded), errors.Is(err, session.ErrNoDecision):
		status = http.StatusConflict
	case errors.Is(err, session.ErrNoChoice), errors.Is(err, session.ErrUnknownChoice),
		errors.Is(err, session.ErrTooManyChoices), errors.Is(err, content.ErrUnknownCity):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrChoiceLocked):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
