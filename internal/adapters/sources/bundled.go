// Package sources provides the quote sources a session can load its initial
// collection from: the bundled list, the durable cache and the remote API,
// plus a Chain that falls back across them.
package sources

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jsamuelsen/quote-session/internal/domain"
)

// Source names as they appear in logs and load failures.
const (
	NameBundled  = "bundled"
	NameCache    = "cache"
	NameRemote   = "remote"
	NameAuthored = "authored"
)

//go:embed quotes.yaml
var bundledYAML []byte

// bundledIDSpace namespaces ids derived from quote text.
var bundledIDSpace = uuid.MustParse("7f0c8a52-1f5e-4b0e-9a59-4a4f6b7e2d10")

type bundledFile struct {
	Quotes []bundledQuote `yaml:"quotes"`
}

type bundledQuote struct {
	ID      string   `yaml:"id"`
	Content string   `yaml:"content"`
	Quote   string   `yaml:"quote"`
	Author  string   `yaml:"author"`
	Tags    []string `yaml:"tags"`
}

// Bundled serves a fixed collection compiled into the binary.
type Bundled struct {
	quotes []domain.Quote
}

// NewBundled parses the embedded collection.
func NewBundled() (*Bundled, error) {
	return ParseBundled(bundledYAML)
}

// ParseBundled parses a YAML document of the form {quotes: [{id, content, author, tags}]}.
// "quote" is accepted for "content". Entries without text are skipped and
// entries without an id get one derived from their text, so ids are stable
// across restarts.
func ParseBundled(data []byte) (*Bundled, error) {
	var file bundledFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing bundled quotes: %w", err)
	}

	quotes := make([]domain.Quote, 0, len(file.Quotes))

	for _, raw := range file.Quotes {
		content := strings.TrimSpace(raw.Content)
		if content == "" {
			content = strings.TrimSpace(raw.Quote)
		}

		if content == "" {
			continue
		}

		id := strings.TrimSpace(raw.ID)
		if id == "" {
			id = uuid.NewSHA1(bundledIDSpace, []byte(content)).String()
		}

		quotes = append(quotes, domain.Quote{
			ID:      id,
			Content: content,
			Author:  strings.TrimSpace(raw.Author),
			Tags:    raw.Tags,
		})
	}

	if err := domain.ValidateCollection(NameBundled, quotes); err != nil && !domain.IsEmptyCollection(err) {
		return nil, err
	}

	return &Bundled{quotes: quotes}, nil
}

// Name implements ports.QuoteSource.
func (b *Bundled) Name() string {
	return NameBundled
}

// FetchInitialQuotes implements ports.QuoteSource. Each call returns a fresh copy.
func (b *Bundled) FetchInitialQuotes(ctx context.Context) ([]domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(b.quotes) == 0 {
		return nil, domain.ErrEmptyCollection
	}

	return domain.CloneQuotes(b.quotes), nil
}
