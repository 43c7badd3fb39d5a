// Package ports holds the interfaces the application layer depends on:
// quote sources, the quote API, the key-value store, identity, feature
// flags and health checks. Adapters implement them; every method takes a
// context and speaks domain types and domain errors.
package ports

import (
	"context"

	"github.com/jsamuelsen/quote-session/internal/domain"
)

// QuoteSource supplies the initial quote collection for a session.
// It may be a bundled list, a durable-storage read or a remote call;
// the session service does not care which.
//
// Implementations return quotes already normalized into domain.Quote.
// An empty but successful answer is reported as domain.ErrEmptyCollection.
type QuoteSource interface {
	// Name identifies the source in logs and load failures.
	Name() string

	// FetchInitialQuotes returns the collection for the user in ctx.
	FetchInitialQuotes(ctx context.Context) ([]domain.Quote, error)
}

// QuoteClient is the anti-corruption boundary to the external quote API.
type QuoteClient interface {
	// GetQuoteByID fetches one quote.
	// Returns domain.ErrNotFound if the upstream has no such quote.
	GetQuoteByID(ctx context.Context, id string) (*domain.Quote, error)

	// ListQuotes fetches up to limit quotes.
	// Returns domain.ErrUnavailable if the service is unreachable.
	ListQuotes(ctx context.Context, limit int) ([]domain.Quote, error)
}

// KeyValueStore is the durable store backing session persistence.
// Set must overwrite any existing value.
type KeyValueStore interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying resources.
	Close() error
}

// IdentityProvider resolves who the current caller is.
// Sessions without an identity are persisted under domain.AnonymousKey.
type IdentityProvider interface {
	// CurrentUser returns the signed-in user, or ok=false when anonymous.
	CurrentUser(ctx context.Context) (user domain.User, ok bool)
}
