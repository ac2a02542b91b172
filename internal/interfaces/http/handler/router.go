package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/hapkiduki/boxpack/internal/application/port"
	"github.com/hapkiduki/boxpack/internal/interfaces/http/middleware"
)

// RouterConfig carries the settings of the HTTP stack.
type RouterConfig struct {
	Version        string
	AllowedOrigins []string
	RequestTimeout time.Duration
	RateLimit      middleware.RateLimiterConfig
}

// NewRouter assembles the middleware chain and mounts the API.
//
// Parameters:
//   - cfg: HTTP stack settings
//   - log: request and failure logger
//   - layouts: the /v1 routes
//   - health: the /health handler
//
// Returns:
//   - http.Handler: the root handler
func NewRouter(cfg RouterConfig, log port.Logger, layouts *LayoutHandler, health http.Handler) http.Handler {
	r := chi.NewRouter()

	// Order matters! Middleware is executed in the order added.
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recoverer(log))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-API-Version", "Location"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimiter(cfg.RateLimit))
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.APIVersion(cfg.Version))
	r.Use(middleware.ContentTypeJSON)

	r.Method(http.MethodGet, "/health", health)
	r.Mount("/v1", layouts.Routes())

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)
	return r
}
