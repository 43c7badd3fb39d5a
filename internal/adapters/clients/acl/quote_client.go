package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-session/internal/adapters/clients"
	"github.com/jsamuelsen/quote-session/internal/domain"
	"github.com/jsamuelsen/quote-session/internal/platform/logging"
)

// QuoteClientConfig contains configuration for the quote client.
type QuoteClientConfig struct {
	// Client is the HTTP client to use for requests.
	// The client's BaseURL should be set to the quote API endpoint.
	Client *clients.Client

	// ListPath is the collection endpoint. Defaults to "/quotes".
	ListPath string

	// Logger is the structured logger.
	Logger *slog.Logger
}

// QuoteClient implements ports.QuoteClient and ports.HealthChecker over a
// JSON quote API.
type QuoteClient struct {
	upstream

	listPath string
	logger   *slog.Logger
}

// NewQuoteClient creates a new quote client adapter.
// Panics if Client is nil.
func NewQuoteClient(cfg QuoteClientConfig) *QuoteClient {
	if cfg.Client == nil {
		panic("acl: QuoteClientConfig.Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	listPath := cfg.ListPath
	if listPath == "" {
		listPath = "/quotes"
	}

	return &QuoteClient{
		upstream: upstream{client: cfg.Client, name: cfg.Client.ServiceName()},
		listPath: listPath,
		logger:   logger.With(slog.String("component", "acl.QuoteClient")),
	}
}

// externalQuote is the union of the upstream record shapes.
// It never leaves this package.
type externalQuote struct {
	MongoID string   `json:"_id"`
	ID      any      `json:"id"`
	Content string   `json:"content"`
	Quote   string   `json:"quote"`
	Q       string   `json:"q"`
	Text    string   `json:"text"`
	Author  string   `json:"author"`
	A       string   `json:"a"`
	Tags    []string `json:"tags"`
}

// listEnvelope matches the wrapped list responses.
type listEnvelope struct {
	Results []externalQuote `json:"results"`
	Quotes  []externalQuote `json:"quotes"`
}

// ListQuotes fetches up to limit quotes. Implements ports.QuoteClient.
// Records without text are dropped and repeated ids keep their first
// occurrence.
func (c *QuoteClient) ListQuotes(ctx context.Context, limit int) ([]domain.Quote, error) {
	path := c.listPath
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	c.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", path))

	var raw json.RawMessage
	if err := c.getJSON(ctx, path, "list quotes", "", &raw); err != nil {
		return nil, err
	}

	records, err := decodeList(raw)
	if err != nil {
		return nil, domain.NewUnavailableError(c.name, err.Error())
	}

	quotes, rejected := translateAll(records, translateQuote)
	if len(rejected) > 0 {
		c.logger.DebugContext(ctx, "dropped upstream records",
			slog.Int("dropped", len(rejected)),
			slog.Any("first", rejected[0]),
		)
	}

	quotes = dedupe(quotes)
	if limit > 0 && len(quotes) > limit {
		quotes = quotes[:limit]
	}

	c.logger.DebugContext(ctx, "listed quotes", slog.Int("count", len(quotes)))

	return quotes, nil
}

// GetQuoteByID fetches a specific quote. Implements ports.QuoteClient.
func (c *QuoteClient) GetQuoteByID(ctx context.Context, id string) (*domain.Quote, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("id", "must not be empty")
	}

	path := c.listPath + "/" + url.PathEscape(id)
	c.logger.Log(ctx, logging.LevelTrace, "starting request",
		slog.String("path", path),
		slog.String("quote_id", id))

	var ext externalQuote
	if err := c.getJSON(ctx, path, "get quote", id, &ext); err != nil {
		return nil, err
	}

	quote, err := translateQuote(&ext)
	if err != nil {
		return nil, domain.NewUnavailableError(c.name, err.Error())
	}

	quote.ID = id

	return quote, nil
}

// Name implements ports.HealthChecker.
func (c *QuoteClient) Name() string {
	return c.name
}

// Check implements ports.HealthChecker. It reports the circuit breaker
// rather than calling upstream, so probes do not spend the rate budget.
func (c *QuoteClient) Check(_ context.Context) error {
	snap := c.client.Circuit()
	if snap.State == clients.StateOpen {
		return fmt.Errorf("open since %s, %d trips: %w",
			snap.OpenedAt.UTC().Format(time.RFC3339), snap.Trips, clients.ErrCircuitOpen)
	}

	return nil
}

func decodeList(raw json.RawMessage) ([]externalQuote, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var records []externalQuote
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("decoding quote list: %w", err)
		}

		return records, nil
	}

	var env listEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding quote list: %w", err)
	}

	if env.Results != nil {
		return env.Results, nil
	}

	return env.Quotes, nil
}

var errNoText = errors.New("record has no text")

// translateQuote is the single point where upstream field names become
// domain fields.
func translateQuote(ext *externalQuote) (*domain.Quote, error) {
	content := firstNonEmpty(ext.Content, ext.Quote, ext.Q, ext.Text)
	if content == "" {
		return nil, errNoText
	}

	id := firstNonEmpty(ext.MongoID, idString(ext.ID))
	if id == "" {
		id = uuid.NewString()
	}

	author := firstNonEmpty(ext.Author, ext.A)
	if author == "" {
		author = "Unknown"
	}

	return &domain.Quote{
		ID:      id,
		Content: content,
		Author:  author,
		Tags:    ext.Tags,
	}, nil
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}

	return ""
}

func dedupe(quotes []domain.Quote) []domain.Quote {
	seen := make(map[string]struct{}, len(quotes))
	out := quotes[:0]

	for _, q := range quotes {
		if _, dup := seen[q.ID]; dup {
			continue
		}

		seen[q.ID] = struct{}{}
		out = append(out, q)
	}

	return out
}
