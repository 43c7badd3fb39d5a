package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-session/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-session/internal/platform/logging"
)

// Recovery returns middleware that turns a panic into a 500 problem
// response and logs it with its stack. It must be the first middleware.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				onPanic(c, logger, r)
			}
		}()

		c.Next()
	}
}

func onPanic(c *gin.Context, fallback *slog.Logger, r any) {
	ctx := c.Request.Context()

	logging.FromContextOr(ctx, fallback).LogAttrs(ctx, slog.LevelError, "panic recovered",
		slog.String("error", fmt.Sprint(r)),
		slog.String("route", c.FullPath()),
		slog.String("method", c.Request.Method),
		slog.String(logging.KeyTraceID, dto.GetTraceID(c)),
		slog.String("stack", string(debug.Stack())),
	)

	// Headers already sent cannot become a problem response.
	if c.Writer.Written() {
		c.Abort()
		return
	}

	dto.AbortWithCode(c, dto.ErrorCodeInternal, "an internal error occurred")
}
