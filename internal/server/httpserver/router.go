package httpserver

import (
	"context"
	"net/http"

	"github.com/yndnr/tokgate/internal/core/service"
	"github.com/yndnr/tokgate/internal/server/httpserver/handler"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
	"github.com/yndnr/tokgate/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Socket serves GET /socket. Nil leaves the route unregistered.
	Socket http.Handler

	// Metrics backs GET /metrics. Nil leaves the route unregistered.
	Metrics *metric.Registry

	Tickets     handler.TicketStats
	Connections handler.ConnectionStats
	Ready       func(ctx context.Context) error

	Logger logger.Logger

	// MetricsAllowList restricts /metrics to these IPs or CIDRs.
	MetricsAllowList []string

	// RateLimit is the per-address request rate for the operational
	// routes. Zero disables it.
	RateLimit      float64
	RateLimitBurst int

	// TrustProxy makes client address detection honour X-Forwarded-For
	// and X-Real-IP.
	TrustProxy bool
}

// DefaultRouterConfig returns the default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		RateLimit:      100,
		RateLimitBurst: 200,
		TrustProxy:     true,
	}
}

// NewRouter builds the HTTP handler for cfg.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	h := handler.New(handler.Options{
		Tickets:     cfg.Tickets,
		Connections: cfg.Connections,
		Ready:       cfg.Ready,
		Logger:      log,
	})

	base := []Middleware{
		Recover(log),
		RequestID(),
		AccessLog(log, cfg.TrustProxy),
	}
	ops := base
	if cfg.RateLimit > 0 {
		limiters := service.NewRateLimiterRegistry(cfg.RateLimit, cfg.RateLimitBurst)
		ops = append(append([]Middleware{}, base...), RateLimit(limiters, cfg.TrustProxy))
	}

	mux := http.NewServeMux()

	opsHandler := Chain(h, ops...)
	mux.Handle("GET /health", opsHandler)
	mux.Handle("GET /ready", opsHandler)
	mux.Handle("GET /status", opsHandler)

	if cfg.Metrics != nil {
		metricsMiddleware := append(append([]Middleware{}, base...), NetworkACL(NetworkACLConfig{
			AllowList:  cfg.MetricsAllowList,
			TrustProxy: cfg.TrustProxy,
			Logger:     log,
		}))
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), metricsMiddleware...))
	}

	if cfg.Socket != nil {
		mux.Handle("GET /socket", Chain(cfg.Socket, base...))
	}

	return mux
}
