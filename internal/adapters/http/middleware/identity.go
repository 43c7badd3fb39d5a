package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-session/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-session/internal/adapters/identity"
	"github.com/jsamuelsen/quote-session/internal/domain"
	"github.com/jsamuelsen/quote-session/internal/platform/config"
	"github.com/jsamuelsen/quote-session/internal/platform/logging"
)

// Default header names if not configured.
const (
	defaultUserHeader  = "X-User-ID"
	defaultEmailHeader = "X-User-Email"
)

// ExtractUser reads the caller identity set by the gateway, which has
// already authenticated the request. ok is false for anonymous callers.
func ExtractUser(c *gin.Context, cfg config.IdentityConfig) (domain.User, bool) {
	userHeader := cfg.UserHeader
	if userHeader == "" {
		userHeader = defaultUserHeader
	}

	emailHeader := cfg.EmailHeader
	if emailHeader == "" {
		emailHeader = defaultEmailHeader
	}

	id := strings.TrimSpace(c.GetHeader(userHeader))
	if id == "" || len(id) > maxIDLength {
		return domain.User{}, false
	}

	return domain.User{
		ID:    id,
		Email: strings.TrimSpace(c.GetHeader(emailHeader)),
	}, true
}

// Identity returns middleware that attaches the caller to the request
// context, where the identity provider and the context logger find it.
// With cfg.Required set, anonymous callers are rejected with 401.
func Identity(cfg config.IdentityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := ExtractUser(c, cfg)
		if !ok {
			if cfg.Required {
				dto.AbortWithCode(c, dto.ErrorCodeUnauthorized, "user identity required")
				return
			}

			c.Next()

			return
		}

		ctx := identity.WithUser(c.Request.Context(), user)
		ctx = logging.WithUser(ctx, user.Key())
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("enduser.id", user.ID))

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
