package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-session/internal/platform/logging"
)

// operationalPrefix marks probe and metrics routes, which are not logged.
const operationalPrefix = "/-/"

// ContextLogger seeds the request context with logger so that the id
// middlewares enrich it instead of the process default.
func ContextLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), logger))
		c.Next()
	}
}

// Logging returns the access log middleware. Requests under the
// operational prefix or in skipPaths are not logged. It runs after the
// tracing middleware so the trace id is known.
func Logging(skipPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := c.Request
		if strings.HasPrefix(req.URL.Path, operationalPrefix) || slices.Contains(skipPaths, req.URL.Path) {
			c.Next()
			return
		}

		if sc := trace.SpanContextFromContext(req.Context()); sc.HasTraceID() {
			c.Request = req.WithContext(logging.WithTraceID(req.Context(), sc.TraceID().String()))
		}

		target := req.URL.RequestURI()
		began := time.Now()

		logging.FromContext(c.Request.Context()).DebugContext(c.Request.Context(), "request started",
			slog.String("method", req.Method),
			slog.String("path", target),
			slog.String("client_ip", c.ClientIP()),
			slog.String("user_agent", req.UserAgent()),
		)

		c.Next()

		// Re-read: later middleware may have added the user.
		ctx := c.Request.Context()
		status := c.Writer.Status()

		logging.FromContext(ctx).Log(ctx, accessLevel(status), "request completed",
			slog.String("method", req.Method),
			slog.String("path", target),
			slog.String("route", c.FullPath()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(began)),
			slog.Int("bytes", c.Writer.Size()),
		)
	}
}

func accessLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
