package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-session/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-session/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-session/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-session/internal/platform/config"
	"github.com/jsamuelsen/quote-session/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger seeds the per-request context logger.
	Logger *slog.Logger

	// ServiceName names the otelgin server spans.
	ServiceName string

	// Identity configures the gateway identity headers.
	Identity config.IdentityConfig

	HealthHandler   *handlers.HealthHandler
	SessionHandler  *handlers.SessionHandler
	QuoteHandler    *handlers.QuoteHandler
	AuthoredHandler *handlers.AuthoredHandler

	// Timeout is the deadline put on /api/v1 requests. Zero disables it.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Context logger - seed the request logger
//  3. Request ID / Correlation ID
//  4. OpenTelemetry - tracing, request metrics and X-Trace-ID
//  5. Logging - request logging (skips /-/ endpoints)
//
// Route groups:
//   - /-/ (internal): health, build info and metrics, no identity
//   - /api/v1/ (public API): session, quote and authored quote endpoints
//     with a deadline
//     and the caller identity
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.ContextLogger(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.Middleware(cfg.ServiceName),
		telemetry.MetricsMiddleware(),
		middleware.Logging(),
	)

	engine.NoRoute(func(c *gin.Context) {
		dto.RespondWithCode(c, dto.ErrorCodeNotFound, "no route for "+c.Request.Method+" "+c.Request.URL.Path)
	})

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutes(engine.Group("/-"))
	}

	apiV1 := engine.Group("/api/v1")
	apiV1.Use(
		middleware.Timeout(cfg.Timeout),
		middleware.Identity(cfg.Identity),
	)

	if cfg.SessionHandler != nil {
		cfg.SessionHandler.RegisterSessionRoutes(apiV1)
	}

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterQuoteRoutes(apiV1)
	}

	if cfg.AuthoredHandler != nil {
		cfg.AuthoredHandler.RegisterAuthoredRoutes(apiV1)
	}
}
