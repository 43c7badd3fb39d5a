package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/quote-session/internal/domain"
	"github.com/jsamuelsen/quote-session/internal/platform/logging"
	"github.com/jsamuelsen/quote-session/internal/ports"
)

// NameChain is the name a Chain reports.
const NameChain = "chain"

// Chain asks its sources in order and serves the first non-empty collection.
type Chain struct {
	sources []ports.QuoteSource
	logger  *slog.Logger
}

// NewChain creates a chain over sources, tried in the order given.
func NewChain(logger *slog.Logger, sources ...ports.QuoteSource) *Chain {
	if len(sources) == 0 {
		panic("sources: Chain requires at least one source")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Chain{
		sources: sources,
		logger:  logger.With(slog.String("component", "sources.Chain")),
	}
}

// Select builds a chain from the named sources in order. Names must be keys of available.
func Select(logger *slog.Logger, names []string, available map[string]ports.QuoteSource) (*Chain, error) {
	picked := make([]ports.QuoteSource, 0, len(names))

	for _, name := range names {
		src, ok := available[name]
		if !ok {
			return nil, fmt.Errorf("quote source %q is not available", name)
		}

		picked = append(picked, src)
	}

	if len(picked) == 0 {
		return nil, errors.New("no quote sources configured")
	}

	return NewChain(logger, picked...), nil
}

// Name implements ports.QuoteSource.
func (c *Chain) Name() string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}

	return NameChain + "(" + strings.Join(names, ",") + ")"
}

// FetchInitialQuotes implements ports.QuoteSource.
//
// Empty answers and NotFound (nothing cached yet) are misses. If every source
// misses the result is ErrEmptyCollection; if any source failed outright the
// result is a LoadFailureError joining the failures.
func (c *Chain) FetchInitialQuotes(ctx context.Context) ([]domain.Quote, error) {
	logger := logging.FromContextOr(ctx, c.logger)

	var failures []error

	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		quotes, err := src.FetchInitialQuotes(ctx)

		switch {
		case err == nil && len(quotes) > 0:
			logger.InfoContext(ctx, "quote source served collection",
				slog.String("source", src.Name()),
				slog.Int("count", len(quotes)),
			)

			return quotes, nil
		case err == nil, domain.IsEmptyCollection(err), domain.IsNotFound(err):
			logger.DebugContext(ctx, "quote source had nothing", slog.String("source", src.Name()))
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			logger.WarnContext(ctx, "quote source failed",
				slog.String("source", src.Name()),
				slog.Any("error", err),
			)

			failures = append(failures, fmt.Errorf("%s: %w", src.Name(), err))
		}
	}

	if len(failures) == 0 {
		return nil, domain.ErrEmptyCollection
	}

	return nil, domain.NewLoadFailureError(c.Name(), "no source produced quotes", errors.Join(failures...))
}
