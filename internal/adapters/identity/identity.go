// Package identity resolves the caller a session belongs to.
//
// The gateway authenticates callers and forwards their id in a header; the
// HTTP middleware stores it in the request context with WithUser and the
// session service reads it back through Provider.
package identity

import (
	"context"
	"strings"

	"github.com/jsamuelsen/quote-session/internal/domain"
)

type ctxKey struct{}

// WithUser returns a context carrying u. Users with an empty id are ignored.
func WithUser(ctx context.Context, u domain.User) context.Context {
	u.ID = strings.TrimSpace(u.ID)
	if u.ID == "" {
		return ctx
	}

	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	if ctx == nil {
		return domain.User{}, false
	}

	u, ok := ctx.Value(ctxKey{}).(domain.User)

	return u, ok
}

// Provider implements ports.IdentityProvider over the request context.
type Provider struct{}

// NewProvider returns a context-backed identity provider.
func NewProvider() Provider {
	return Provider{}
}

// CurrentUser implements ports.IdentityProvider.
func (Provider) CurrentUser(ctx context.Context) (domain.User, bool) {
	return UserFromContext(ctx)
}

// Key returns the persistence key of the caller in ctx, or
// domain.AnonymousKey when there is none.
func Key(ctx context.Context) string {
	if u, ok := UserFromContext(ctx); ok {
		return u.Key()
	}

	return domain.AnonymousKey
}
