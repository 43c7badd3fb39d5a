package app

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-session/internal/domain"
	"github.com/jsamuelsen/quote-session/internal/ports"
)

// maxAuthoredQuotes caps the quotes one user may write.
const maxAuthoredQuotes = 500

// AuthoredQuote is the caller-editable part of a quote the caller wrote.
type AuthoredQuote struct {
	Content string
	Author  string
	Tags    []string
}

// AuthoredService keeps the quotes each user writes, stored as one JSON
// list per user. The session collection is unaffected until a load picks
// the list up through the authored source.
type AuthoredService struct {
	store    ports.KeyValueStore
	identity ports.IdentityProvider
	metrics  *Metrics
	logger   *slog.Logger

	// serializes read-modify-write cycles on the lists
	mu sync.Mutex
}

// AuthoredServiceConfig contains the dependencies of the authored service.
type AuthoredServiceConfig struct {
	// Store is required.
	Store ports.KeyValueStore

	// Identity scopes lists per user. Nil means every caller is anonymous.
	Identity ports.IdentityProvider

	Metrics *Metrics
	Logger  *slog.Logger
}

// NewAuthoredService creates an authored quote service.
// Panics if Store is nil.
func NewAuthoredService(cfg AuthoredServiceConfig) *AuthoredService {
	if cfg.Store == nil {
		panic("app: AuthoredServiceConfig.Store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthoredService{
		store:    cfg.Store,
		identity: cfg.Identity,
		metrics:  cfg.Metrics,
		logger:   logger.With(slog.String("component", "app.AuthoredService")),
	}
}

func (s *AuthoredService) key(ctx context.Context) string {
	var user domain.User
	if s.identity != nil {
		user, _ = s.identity.CurrentUser(ctx)
	}

	return ports.KeysFor(user).Authored
}

func (s *AuthoredService) read(ctx context.Context, key string) ([]domain.Quote, error) {
	var quotes []domain.Quote
	if _, err := readJSON(ctx, s.store, key, &quotes); err != nil {
		return nil, err
	}

	return quotes, nil
}

// List returns the caller's quotes in creation order.
func (s *AuthoredService) List(ctx context.Context) ([]domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quotes, err := s.read(ctx, s.key(ctx))
	if quotes == nil && err == nil {
		quotes = []domain.Quote{}
	}

	return quotes, err
}

// Create adds a quote with a fresh id.
func (s *AuthoredService) Create(ctx context.Context, in AuthoredQuote) (domain.Quote, error) {
	return s.edit(ctx, "authored_create", func(quotes []domain.Quote) ([]domain.Quote, domain.Quote, error) {
		if err := in.validate(); err != nil {
			return nil, domain.Quote{}, err
		}

		if len(quotes) >= maxAuthoredQuotes {
			return nil, domain.Quote{}, domain.NewConflictError("authored quotes", "limit reached")
		}

		q := in.quote(uuid.NewString())

		return append(quotes, q), q, nil
	})
}

// Update replaces the text, author and tags of quote id.
func (s *AuthoredService) Update(ctx context.Context, id string, in AuthoredQuote) (domain.Quote, error) {
	return s.edit(ctx, "authored_update", func(quotes []domain.Quote) ([]domain.Quote, domain.Quote, error) {
		if err := in.validate(); err != nil {
			return nil, domain.Quote{}, err
		}

		i := slices.IndexFunc(quotes, func(q domain.Quote) bool { return q.ID == id })
		if i < 0 {
			return nil, domain.Quote{}, domain.NewNotFoundError("authored quote", id)
		}

		q := in.quote(id)
		quotes[i] = q

		return quotes, q, nil
	})
}

// Delete removes quote id.
func (s *AuthoredService) Delete(ctx context.Context, id string) error {
	_, err := s.edit(ctx, "authored_delete", func(quotes []domain.Quote) ([]domain.Quote, domain.Quote, error) {
		i := slices.IndexFunc(quotes, func(q domain.Quote) bool { return q.ID == id })
		if i < 0 {
			return nil, domain.Quote{}, domain.NewNotFoundError("authored quote", id)
		}

		return slices.Delete(quotes, i, i+1), domain.Quote{}, nil
	})

	return err
}

// edit applies fn to the caller's list and writes the result back.
func (s *AuthoredService) edit(ctx context.Context, command string, fn func([]domain.Quote) ([]domain.Quote, domain.Quote, error)) (domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.key(ctx)

	var q domain.Quote

	quotes, err := s.read(ctx, key)
	if err == nil {
		quotes, q, err = fn(quotes)
	}

	if err == nil {
		err = writeJSON(ctx, s.store, key, quotes)
	}

	s.metrics.command(command, err)

	if err != nil {
		if domain.IsPersistence(err) {
			s.metrics.persistFailure("authored")
		}

		return domain.Quote{}, err
	}

	s.logger.DebugContext(ctx, "authored quotes changed",
		slog.String("command", command),
		slog.String("key", key),
		slog.Int("count", len(quotes)),
	)

	return q, nil
}

func (in AuthoredQuote) validate() error {
	if strings.TrimSpace(in.Content) == "" {
		return domain.NewValidationError("content", "must not be blank")
	}

	return nil
}

func (in AuthoredQuote) quote(id string) domain.Quote {
	author := strings.TrimSpace(in.Author)
	if author == "" {
		author = "Unknown"
	}

	return domain.Quote{
		ID:      id,
		Content: strings.TrimSpace(in.Content),
		Author:  author,
		Tags:    slices.Clone(in.Tags),
	}
}
