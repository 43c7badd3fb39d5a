package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/jsamuelsen/quote-session/internal/domain"
	"github.com/jsamuelsen/quote-session/internal/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CollectionReader exposes the caller's loaded quote collection.
// SessionService implements it.
type CollectionReader interface {
	Quotes(ctx context.Context) []domain.Quote
	Quote(ctx context.Context, id string) (domain.Quote, error)
}

// QuoteService answers read-only queries over the caller's collection.
type QuoteService struct {
	collection  CollectionReader
	quoteClient ports.QuoteClient
	pageSize    int
	logger      *slog.Logger
}

// QuoteServiceConfig contains configuration for the quote service.
type QuoteServiceConfig struct {
	// Collection is required.
	Collection CollectionReader

	// QuoteClient, when set, resolves ids missing from the collection upstream.
	QuoteClient ports.QuoteClient

	// PageSize is the default page size. Defaults to 20.
	PageSize int

	Logger *slog.Logger
}

// NewQuoteService creates a new quote service.
// Panics if Collection is nil.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Collection == nil {
		panic("app: QuoteServiceConfig.Collection is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &QuoteService{
		collection:  cfg.Collection,
		quoteClient: cfg.QuoteClient,
		pageSize:    min(pageSize, maxPageSize),
		logger:      logger.With(slog.String("component", "app.QuoteService")),
	}
}

// QuoteQuery selects a page of the collection.
type QuoteQuery struct {
	// Search fuzzy-matches content and author, case and accent insensitive.
	Search string

	// After is the id of the last quote of the previous page.
	After string

	// Limit caps the page size; zero uses the service default.
	Limit int
}

// QuotePage is one page of query results.
type QuotePage struct {
	Quotes  []domain.Quote
	Next    string
	HasMore bool
	Total   int
}

// List returns the page of the collection matching q, in collection order.
func (s *QuoteService) List(ctx context.Context, q QuoteQuery) (QuotePage, error) {
	quotes := s.collection.Quotes(ctx)

	if search := strings.TrimSpace(q.Search); search != "" {
		matched := quotes[:0]

		for _, quote := range quotes {
			if fuzzy.MatchNormalizedFold(search, quote.Content) || fuzzy.MatchNormalizedFold(search, quote.Author) {
				matched = append(matched, quote)
			}
		}

		quotes = matched
	}

	start := 0

	if q.After != "" {
		start = -1

		for i, quote := range quotes {
			if quote.ID == q.After {
				start = i + 1
				break
			}
		}

		if start < 0 {
			return QuotePage{}, domain.NewValidationError("cursor", "does not match a quote")
		}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = s.pageSize
	}

	limit = min(limit, maxPageSize)
	end := min(start+limit, len(quotes))

	page := QuotePage{
		Quotes:  quotes[start:end],
		HasMore: end < len(quotes),
		Total:   len(quotes),
	}

	if page.HasMore && end > start {
		page.Next = quotes[end-1].ID
	}

	s.logger.DebugContext(ctx, "listed quotes",
		slog.Int("returned", len(page.Quotes)),
		slog.Int("total", page.Total),
	)

	return page, nil
}

// Get returns a quote of the collection, asking the upstream API for ids
// the collection does not hold when a client is configured.
func (s *QuoteService) Get(ctx context.Context, id string) (domain.Quote, error) {
	q, err := s.collection.Quote(ctx, id)
	if err == nil || !domain.IsNotFound(err) || s.quoteClient == nil {
		return q, err
	}

	s.logger.InfoContext(ctx, "quote not in collection, asking upstream", slog.String("quote_id", id))

	remote, err := s.quoteClient.GetQuoteByID(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch quote",
			slog.String("quote_id", id),
			slog.Any("error", err),
		)

		return domain.Quote{}, err
	}

	return *remote, nil
}
