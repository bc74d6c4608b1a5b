package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aretw0/tilbot/internal/logging"
	"github.com/aretw0/tilbot/internal/presentation/graph"
	"github.com/aretw0/tilbot/internal/runtime"
	"github.com/aretw0/tilbot/pkg/domain"
	"github.com/aretw0/tilbot/pkg/observability"
	"github.com/aretw0/tilbot/pkg/ports"
	"github.com/aretw0/tilbot/pkg/runner"
	"github.com/aretw0/tilbot/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine starts sessions against one loaded project.
type Engine interface {
	Project() *domain.Project
	Start(id string, d ports.Deliverer, opts ...runtime.Option) (*runtime.Session, error)
}

// Server hosts many concurrent sessions, one per websocket connection.
type Server struct {
	Engine   Engine
	Sessions *session.Registry
	Streams  *observability.Broadcaster

	logger    *slog.Logger
	version   string
	gatherer  prometheus.Gatherer
	upgrader  websocket.Upgrader
	router    chi.Router
	sanitizer runner.Sanitizer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry shares a session registry with the caller.
func WithRegistry(r *session.Registry) Option {
	return func(s *Server) {
		s.Sessions = r
	}
}

// WithBroadcaster shares the state diff stream with the caller.
func WithBroadcaster(b *observability.Broadcaster) Option {
	return func(s *Server) {
		s.Streams = b
	}
}

// WithMetrics exposes g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithMaxInputSize caps the size of each user_message in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.sanitizer = runner.NewSanitizer(n)
	}
}

// NewServer creates the HTTP server for engine.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine:  engine,
		logger:  logging.NewNop(),
		version: "dev",
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Sessions == nil {
		s.Sessions = session.NewRegistry(session.WithLogger(s.logger))
	}
	if s.Streams == nil {
		s.Streams = observability.NewBroadcaster(64)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/ws", s.ServeWS)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	s.router = r
	return s
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"app":      "tilbot-http",
		"version":  s.version,
		"sessions": s.Sessions.Len(),
	}
	if p := s.Engine.Project(); p != nil && p.Name != "" {
		info["project"] = p.Name
	}
	s.writeJSON(w, info)
}

// GetGraph handles the GET /graph request. ?format=mermaid returns a flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	p := s.Engine.Project()
	if p == nil {
		http.Error(w, "no project loaded", http.StatusServiceUnavailable)
		return
	}
	if r.URL.Query().Get("format") == "mermaid" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(graph.GenerateMermaid(p, nil)))
		return
	}
	s.writeJSON(w, p)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
