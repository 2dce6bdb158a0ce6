package server

import (
	"embed"
	"io/fs"
	"net"
	"net/http"
	"sync"

	"github.com/aalemi-dev/mackerel-tracing/logger"
	"github.com/aalemi-dev/mackerel-tracing/metrics"
	"github.com/aalemi-dev/mackerel-tracing/tracer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// operationName names the server spans created around every request.
const operationName = "sample-server"

//go:embed static
var staticFiles embed.FS

// Server is the traced sample HTTP service.
type Server struct {
	cfg      Config
	log      logger.Logger
	pipeline *tracer.Pipeline
	tracer   tracer.Tracer
	metrics  *metrics.HTTPMetrics
	validate *validator.Validate

	handler    http.Handler
	httpServer *http.Server

	mu   sync.Mutex
	addr net.Addr
}

// NewServer builds the router. p may be nil (tracing disabled) and so may m
// (no request metrics).
//
// The routes are:
//
//	GET  /          greeting
//	GET  /hello     greets ?name= after some simulated work
//	GET  /health    liveness
//	POST /users     validates and echoes a user
//	GET  /static/*  embedded assets
func NewServer(cfg Config, log logger.Logger, p *tracer.Pipeline, m *metrics.HTTPMetrics) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log,
		pipeline: p,
		tracer:   p,
		metrics:  m,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	assets, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.observe)

	r.Method(http.MethodGet, "/", s.route("/", s.handleRoot))
	r.Method(http.MethodGet, "/hello", s.route("/hello", s.handleHello))
	r.Method(http.MethodGet, "/health", s.route("/health", s.handleHealth))
	r.Method(http.MethodPost, "/users", s.route("/users", s.handleCreateUser))
	r.Method(http.MethodGet, "/static/*", p.RouteTag("/static/*",
		http.StripPrefix("/static/", http.FileServer(http.FS(p.FS(assets)))),
	))

	s.handler = p.WrapHandler(r, operationName)
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
	return s
}

func (s *Server) route(pattern string, h http.HandlerFunc) http.Handler {
	return s.pipeline.RouteTag(pattern, h)
}

// Handler returns the fully instrumented handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address once Start has succeeded, or nil.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
