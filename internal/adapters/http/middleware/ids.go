// Package middleware provides the gin middleware chain of the session API:
// panic recovery, request and correlation ids, caller identity, request
// logging and request deadlines.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-session/internal/platform/logging"
)

// Inbound id headers. The request id names one hop; the correlation id
// is shared by every call made for one client action.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"

	ContextKeyRequestID     = logging.KeyRequestID
	ContextKeyCorrelationID = logging.KeyCorrelationID
)

// maxIDLength caps inbound id headers before they reach logs and downstream calls.
const maxIDLength = 128

type (
	requestIDKey     struct{}
	correlationIDKey struct{}
)

// propagatedID describes one id that travels from the request headers to
// the gin context, the request context, the logger and the response.
type propagatedID struct {
	header string
	ginKey string
	store  func(context.Context, string) context.Context
	tag    func(context.Context, string) context.Context
}

var (
	requestIDs = propagatedID{
		header: HeaderRequestID,
		ginKey: ContextKeyRequestID,
		store:  ContextWithRequestID,
		tag:    logging.WithRequestID,
	}
	correlationIDs = propagatedID{
		header: HeaderCorrelationID,
		ginKey: ContextKeyCorrelationID,
		store:  ContextWithCorrelationID,
		tag:    logging.WithCorrelationID,
	}
)

func (p propagatedID) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(p.header)
		if id == "" || len(id) > maxIDLength {
			id = uuid.NewString()
		}

		c.Set(p.ginKey, id)
		c.Header(p.header, id)
		c.Request = c.Request.WithContext(p.tag(p.store(c.Request.Context(), id), id))

		c.Next()
	}
}

// RequestID reuses the caller's X-Request-ID or generates one. The id is
// echoed in the response and forwarded by the quote API client.
func RequestID() gin.HandlerFunc {
	return requestIDs.handler()
}

// CorrelationID propagates X-Correlation-ID, starting a new one when this
// request is the origin.
func CorrelationID() gin.HandlerFunc {
	return correlationIDs.handler()
}

// GetRequestID returns the request id set on c, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// GetCorrelationID returns the correlation id set on c, or "".
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(ContextKeyCorrelationID)
}

// ContextWithRequestID stores a request id in ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// ContextWithCorrelationID stores a correlation id in ctx.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// RequestIDFromContext returns the stored request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey{})
}

// CorrelationIDFromContext returns the stored correlation id, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return stringValue(ctx, correlationIDKey{})
}

func stringValue(ctx context.Context, key any) string {
	if ctx == nil {
		return ""
	}

	s, _ := ctx.Value(key).(string)

	return s
}
