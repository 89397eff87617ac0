package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/gh-search-crawler/internal/config"
	"github.com/user/gh-search-crawler/internal/domain"
	"github.com/user/gh-search-crawler/internal/monitoring"
)

// Runner executes one search pipeline run.
type Runner interface {
	Run(ctx context.Context, raw domain.CrawlRequest) ([]domain.ReportEntry, error)
}

// Pinger reports the health of an optional backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	config     *config.Config
	router     http.Handler
	httpServer *http.Server
	crawler    Runner
	cache      Pinger
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// NewServer wires the API. cache may be nil when page caching is disabled.
func NewServer(cfg *config.Config, cr Runner, cache Pinger, m *monitoring.Metrics, l *zap.Logger) *Server {
	s := &Server{
		config:  cfg,
		crawler: cr,
		cache:   cache,
		metrics: m,
		logger:  l,
	}
	s.router = s.setupRouter()
	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:     s.router,
		ReadTimeout: 10 * time.Second,
		// Pipeline runs have no fetch timeout by default, so writes are not bounded.
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured port and blocks until the server stops.
// After Shutdown it returns http.ErrServerClosed.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the server gracefully. Calling it before Start is safe and
// makes a later Start return immediately.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
