// Package server hosts the analysis backend: a duplex voice channel
// plus a typed question endpoint, both answering from a fresh
// screenshot.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"screenknow/internal/events"
	"screenknow/internal/observability/metrics"
	"screenknow/internal/ports"
	"screenknow/internal/screen"
	"screenknow/internal/stt"
	"screenknow/internal/vision"
)

const (
	pongWait      = 70 * time.Second
	pingPeriod    = 25 * time.Second
	writeWait     = 10 * time.Second
	maxMessageLen = 1 << 20
)

// Config controls the HTTP surface of the backend.
type Config struct {
	Addr           string
	AllowedOrigins []string
	StreamDelay    time.Duration
	Display        int
}

// Server answers voice and typed questions about the screen.
type Server struct {
	cfg      Config
	stt      stt.Transcriber
	vision   vision.Describer
	source   screen.Source
	rules    ports.RulesEngine
	events   *events.Publisher
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
}

// New wires the backend together. The rules engine and publisher may
// be nil.
func New(cfg Config, transcriber stt.Transcriber, describer vision.Describer, source screen.Source, rules ports.RulesEngine, publisher *events.Publisher) *Server {
	if cfg.StreamDelay <= 0 {
		cfg.StreamDelay = 50 * time.Millisecond
	}
	return &Server{
		cfg:     cfg,
		stt:     transcriber,
		vision:  describer,
		source:  source,
		rules:   rules,
		events:  publisher,
		metrics: metrics.DefaultMetrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
	}
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(s.cfg.AllowedOrigins))

	r.Get("/", s.handleRoot)
	r.Get("/api/voice", s.handleVoice)
	r.Post("/api/describe", s.handleDescribe)

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status": "ScreenKnow Backend is running"}`))
}

func originChecker(origins []string) func(*http.Request) bool {
	allowAll, allowed := originSet(origins)
	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowAll, allowed := originSet(origins)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "":
				if _, ok := allowed[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
			}
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originSet(origins []string) (bool, map[string]struct{}) {
	if len(origins) == 0 {
		return true, nil
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			return true, nil
		}
		allowed[origin] = struct{}{}
	}
	return false, allowed
}
