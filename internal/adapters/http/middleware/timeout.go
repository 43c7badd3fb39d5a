package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-session/internal/adapters/http/dto"
)

// ErrRequestTimeout is the cause of a request context that ran past the
// router's deadline.
var ErrRequestTimeout = errors.New("request deadline exceeded")

// Timeout bounds each request's context by d. Handlers see the deadline
// through ctx and answer with whatever their callee returned; a handler
// that returns without writing after the deadline gets a TIMEOUT problem.
// d <= 0 disables the deadline.
func Timeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeoutCause(c.Request.Context(), d, ErrRequestTimeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if !c.Writer.Written() && errors.Is(context.Cause(ctx), ErrRequestTimeout) {
			dto.AbortWithCode(c, dto.ErrorCodeTimeout, "request took longer than "+d.String())
		}
	}
}
