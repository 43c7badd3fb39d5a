package sources

import (
	"context"

	"github.com/jsamuelsen/quote-session/internal/domain"
	"github.com/jsamuelsen/quote-session/internal/ports"
)

// Remote loads the collection from the upstream quote API. Throttling, retry
// and circuit breaking live in the client underneath.
type Remote struct {
	client ports.QuoteClient
	flags  ports.FeatureFlags
	limit  int
}

// NewRemote creates a remote source asking for limit quotes. flags may be
// nil; when set, the remote-limit flag overrides limit per call.
func NewRemote(client ports.QuoteClient, flags ports.FeatureFlags, limit int) *Remote {
	if client == nil {
		panic("sources: Remote requires a quote client")
	}

	return &Remote{client: client, flags: flags, limit: limit}
}

// Name implements ports.QuoteSource.
func (r *Remote) Name() string {
	return NameRemote
}

// FetchInitialQuotes implements ports.QuoteSource.
func (r *Remote) FetchInitialQuotes(ctx context.Context) ([]domain.Quote, error) {
	limit := r.limit
	if r.flags != nil {
		limit = r.flags.GetInt(ctx, ports.FlagRemoteLimit, limit)
	}

	quotes, err := r.client.ListQuotes(ctx, limit)
	if err != nil {
		return nil, err
	}

	if len(quotes) == 0 {
		return nil, domain.ErrEmptyCollection
	}

	return quotes, nil
}
