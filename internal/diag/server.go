// Package diag serves an operator surface over the route resolver: health,
// cached routes, manual resolution and invalidation, and Prometheus metrics.
package diag

import (
	"context"
	"net/http"
	"sync"
	"time"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"finance/internal/cache"
	"finance/internal/log"
	"finance/internal/middleware/ratelimit"
	"finance/internal/middleware/security"
	"finance/internal/resolver"
)

// ReadyChecker is implemented by stores that can report connectivity.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

type Server struct {
	http.Server
	resolver *resolver.Resolver
	ready    []ReadyChecker
	caches   *cache.Manager
	limiter  *ratelimit.Limiter
	logger   *log.Logger

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithReadyCheck adds a dependency probed by /readyz.
func WithReadyCheck(rc ReadyChecker) Option {
	return func(s *Server) {
		if rc != nil {
			s.ready = append(s.ready, rc)
		}
	}
}

// WithCacheManager hands a cache cleanup manager to the server so it is
// stopped on Shutdown.
func WithCacheManager(m *cache.Manager) Option {
	return func(s *Server) { s.caches = m }
}

// WithRateLimit throttles the endpoints that probe or clear routes. The
// limiter is stopped on Shutdown.
func WithRateLimit(l *ratelimit.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// NewServer builds the diagnostics server listening on addr.
func NewServer(addr string, res *resolver.Resolver, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		resolver: res,
		logger:   logger.WithComponent(log.ComponentDiag),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(log.Middleware(s.logger))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/routes", func(r chi.Router) {
		r.Get("/", s.handleListRoutes)
		r.Group(func(r chi.Router) {
			if s.limiter != nil {
				r.Use(s.limiter.Middleware(ratelimit.RemoteIP, s.handleRateLimited))
			}
			r.Delete("/", s.handleReset)
			r.Post("/{key}/resolve", s.handleResolve)
			r.Delete("/{key}", s.handleInvalidate)
		})
	})
	return r
}

// Shutdown stops the cache cleanup loop and drains HTTP connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.caches != nil {
			s.caches.Stop()
		}
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
