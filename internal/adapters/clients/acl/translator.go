package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jsamuelsen/quote-session/internal/adapters/clients"
	"github.com/jsamuelsen/quote-session/internal/domain"
)

// maxResponseBody caps decoded response bodies.
const maxResponseBody = 4 << 20

// upstream pairs the resilient client with the name errors are reported
// under.
type upstream struct {
	client *clients.Client
	name   string
}

// getJSON fetches path and decodes a 2xx body into v. Transport failures,
// non-2xx answers and undecodable bodies all come back as domain errors.
func (u upstream) getJSON(ctx context.Context, path, operation, entityID string, v any) error {
	resp, err := u.client.Get(ctx, path)
	if err != nil {
		return MapHTTPError(nil, err, u.name, operation, entityID)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		return MapHTTPError(resp, nil, u.name, operation, entityID)
	}

	if err := decodeJSON(resp.Body, v); err != nil {
		return domain.NewUnavailableError(u.name, err.Error())
	}

	return nil
}

// decodeJSON reads one JSON value of at most maxResponseBody bytes.
func decodeJSON(r io.Reader, v any) error {
	if r == nil {
		return errors.New("decoding response: empty body")
	}

	if err := json.NewDecoder(io.LimitReader(r, maxResponseBody)).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// translateAll converts every record, keeping the accepted ones. Each
// rejection is reported with its index.
func translateAll[E, D any](records []E, translate func(*E) (*D, error)) ([]D, []error) {
	var (
		out      = make([]D, 0, len(records))
		rejected []error
	)

	for i := range records {
		d, err := translate(&records[i])
		if err != nil {
			rejected = append(rejected, fmt.Errorf("item %d: %w", i, err))
			continue
		}

		out = append(out, *d)
	}

	return out, rejected
}
