package sources

import (
	"context"
	"encoding/json"

	"github.com/jsamuelsen/quote-session/internal/domain"
	"github.com/jsamuelsen/quote-session/internal/ports"
)

// Cached serves the collection last persisted for the caller, including the
// like counts it had then.
type Cached struct {
	store    ports.KeyValueStore
	identity ports.IdentityProvider
}

// NewCached creates a cache source. identity may be nil, in which case every
// caller reads the anonymous collection.
func NewCached(store ports.KeyValueStore, identity ports.IdentityProvider) *Cached {
	if store == nil {
		panic("sources: Cached requires a store")
	}

	return &Cached{store: store, identity: identity}
}

// Name implements ports.QuoteSource.
func (c *Cached) Name() string {
	return NameCache
}

// FetchInitialQuotes implements ports.QuoteSource.
// A caller with nothing persisted gets a NotFoundError.
func (c *Cached) FetchInitialQuotes(ctx context.Context) ([]domain.Quote, error) {
	return readCollection(ctx, c.store, ports.KeysFor(caller(ctx, c.identity)).Quotes)
}

// Authored serves the quotes the caller wrote.
type Authored struct {
	store    ports.KeyValueStore
	identity ports.IdentityProvider
}

// NewAuthored creates a source over the callers' authored quote lists.
// identity may be nil, in which case every caller reads the anonymous list.
func NewAuthored(store ports.KeyValueStore, identity ports.IdentityProvider) *Authored {
	if store == nil {
		panic("sources: Authored requires a store")
	}

	return &Authored{store: store, identity: identity}
}

// Name implements ports.QuoteSource.
func (a *Authored) Name() string {
	return NameAuthored
}

// FetchInitialQuotes implements ports.QuoteSource. A caller who wrote
// nothing gets a NotFoundError, one who deleted everything ErrEmptyCollection.
func (a *Authored) FetchInitialQuotes(ctx context.Context) ([]domain.Quote, error) {
	return readCollection(ctx, a.store, ports.KeysFor(caller(ctx, a.identity)).Authored)
}

func caller(ctx context.Context, identity ports.IdentityProvider) domain.User {
	if identity == nil {
		return domain.User{}
	}

	user, _ := identity.CurrentUser(ctx)

	return user
}

// readCollection decodes the quote list stored at key.
func readCollection(ctx context.Context, store ports.KeyValueStore, key string) ([]domain.Quote, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, domain.NewPersistenceError("get", key, err)
	}

	if !ok {
		return nil, domain.NewNotFoundError("quotes", key)
	}

	var quotes []domain.Quote
	if err := json.Unmarshal([]byte(raw), &quotes); err != nil {
		return nil, domain.NewPersistenceError("decode", key, err)
	}

	if len(quotes) == 0 {
		return nil, domain.ErrEmptyCollection
	}

	return quotes, nil
}
