package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vbonduro/pantrysync/internal/domain"
	"github.com/vbonduro/pantrysync/internal/hub"
)

// Pinger is the slice of the inventory store the health endpoint needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Classifier is the slice of the classification engine the one-shot
// inspection endpoint needs.
type Classifier interface {
	ClassifyItem(ctx context.Context, item domain.Item) domain.Item
}

type Server struct {
	hub        *hub.Hub
	state      *hub.StateStore
	classifier Classifier
	db         Pinger
	upgrader   websocket.Upgrader
	mux        *http.ServeMux
	logger     *slog.Logger

	srvMu sync.Mutex
	srv   *http.Server
}

func NewServer(h *hub.Hub, state *hub.StateStore, classifier Classifier, db Pinger, allowedOrigin string, logger *slog.Logger) *Server {
	s := &Server{
		hub:        h,
		state:      state,
		classifier: classifier,
		db:         db,
		mux:        http.NewServeMux(),
		logger:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/inventory", s.handleInventory)
	s.mux.HandleFunc("GET /api/classify", s.handleClassify)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// The websocket upgrade hijacks the connection and needs the raw
	// ResponseWriter, so /ws skips the wrapping middleware.
	if r.URL.Path == "/ws" {
		s.mux.ServeHTTP(w, r)
		return
	}
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	// No Read/Write timeouts: /ws connections are long-lived and hijacked.
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()
	return srv.ListenAndServe()
}

// Shutdown stops accepting new connections and drains in-flight requests.
// Hijacked websocket connections are not covered here; the hub closes those
// itself.
func (s *Server) Shutdown(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.hub.HandleConnection(conn)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := s.db.Ping(r.Context()) == nil
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"status":   "ok",
		"database": dbOK,
		"clients":  s.hub.Registry().Len(),
		"stateSeq": s.state.Seq(),
	})
}

func (s *Server) handleInventory(w http.ResponseWriter, _ *http.Request) {
	items, seq := s.state.Snapshot()
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"data":      items,
		"seq":       seq,
		"updatedAt": s.state.UpdatedAt(),
	})
}

// handleClassify runs a single item through the classification engine, for
// debugging the keyword table and barcode lookups without a sync client.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	barcode := r.URL.Query().Get("barcode")
	if name == "" && barcode == "" {
		http.Error(w, "name or barcode required", http.StatusBadRequest)
		return
	}

	item := s.classifier.ClassifyItem(r.Context(), domain.Item{Name: name, Barcode: barcode})
	writeJSON(w, s.logger, http.StatusOK, item)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
