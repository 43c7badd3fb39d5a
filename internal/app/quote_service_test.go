package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-session/internal/domain"
	"github.com/jsamuelsen/quote-session/internal/mocks"
)

// fixedCollection is a CollectionReader over a static slice.
type fixedCollection []domain.Quote

func (c fixedCollection) Quotes(context.Context) []domain.Quote {
	return domain.CloneQuotes(c)
}

func (c fixedCollection) Quote(_ context.Context, id string) (domain.Quote, error) {
	for _, q := range c {
		if q.ID == id {
			return q, nil
		}
	}

	return domain.Quote{}, domain.NewNotFoundError("quote", id)
}

func ids(quotes []domain.Quote) []string {
	out := make([]string, len(quotes))
	for i, q := range quotes {
		out[i] = q.ID
	}

	return out
}

func TestNewQuoteService(t *testing.T) {
	assert.PanicsWithValue(t, "app: QuoteServiceConfig.Collection is required", func() {
		NewQuoteService(QuoteServiceConfig{})
	})

	svc := NewQuoteService(QuoteServiceConfig{Collection: fixedCollection(nil), PageSize: 1000})
	assert.Equal(t, maxPageSize, svc.pageSize)

	svc = NewQuoteService(QuoteServiceConfig{Collection: fixedCollection(nil)})
	assert.Equal(t, defaultPageSize, svc.pageSize)
}

func TestQuoteService_List(t *testing.T) {
	collection := fixedCollection(testQuotes())

	tests := []struct {
		name        string
		query       QuoteQuery
		wantIDs     []string
		wantNext    string
		wantHasMore bool
		wantTotal   int
		errCheck    func(error) bool
	}{
		{
			name:      "whole collection",
			wantIDs:   []string{"q1", "q2", "q3"},
			wantTotal: 3,
		},
		{
			name:        "first page",
			query:       QuoteQuery{Limit: 2},
			wantIDs:     []string{"q1", "q2"},
			wantNext:    "q2",
			wantHasMore: true,
			wantTotal:   3,
		},
		{
			name:      "page after cursor",
			query:     QuoteQuery{After: "q2", Limit: 2},
			wantIDs:   []string{"q3"},
			wantTotal: 3,
		},
		{
			name:      "fuzzy search on content",
			query:     QuoteQuery{Search: "shw me cde"},
			wantIDs:   []string{"q3"},
			wantTotal: 1,
		},
		{
			name:      "search on author ignores case",
			query:     QuoteQuery{Search: "dijkstra"},
			wantIDs:   []string{"q2"},
			wantTotal: 1,
		},
		{
			name:      "search without matches",
			query:     QuoteQuery{Search: "zzzz"},
			wantIDs:   []string{},
			wantTotal: 0,
		},
		{
			name:     "unknown cursor",
			query:    QuoteQuery{After: "missing"},
			errCheck: domain.IsValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewQuoteService(QuoteServiceConfig{Collection: collection, Logger: discardLogger()})

			page, err := svc.List(context.Background(), tt.query)
			if tt.errCheck != nil {
				require.Error(t, err)
				assert.True(t, tt.errCheck(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, ids(page.Quotes))
			assert.Equal(t, tt.wantNext, page.Next)
			assert.Equal(t, tt.wantHasMore, page.HasMore)
			assert.Equal(t, tt.wantTotal, page.Total)
		})
	}
}

func TestQuoteService_Get(t *testing.T) {
	upstream := &domain.Quote{ID: "remote-1", Content: "Premature optimization is the root of all evil.", Author: "Donald Knuth"}

	tests := []struct {
		name       string
		id         string
		withClient bool
		setupMocks func(*mocks.MockQuoteClient)
		wantID     string
		errCheck   func(error) bool
	}{
		{
			name:   "from collection",
			id:     "q2",
			wantID: "q2",
		},
		{
			name:     "missing without client",
			id:       "remote-1",
			errCheck: domain.IsNotFound,
		},
		{
			name:       "missing falls back to upstream",
			id:         "remote-1",
			withClient: true,
			setupMocks: func(c *mocks.MockQuoteClient) {
				c.EXPECT().GetQuoteByID(mock.Anything, "remote-1").Return(upstream, nil)
			},
			wantID: "remote-1",
		},
		{
			name:       "upstream unavailable",
			id:         "remote-1",
			withClient: true,
			setupMocks: func(c *mocks.MockQuoteClient) {
				c.EXPECT().GetQuoteByID(mock.Anything, "remote-1").Return(nil, domain.NewUnavailableError("quote-api", "timeout"))
			},
			errCheck: domain.IsUnavailable,
		},
		{
			name:       "collection hit skips upstream",
			id:         "q1",
			withClient: true,
			wantID:     "q1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := QuoteServiceConfig{Collection: fixedCollection(testQuotes()), Logger: discardLogger()}

			if tt.withClient {
				client := mocks.NewMockQuoteClient(t)
				if tt.setupMocks != nil {
					tt.setupMocks(client)
				}

				cfg.QuoteClient = client
			}

			q, err := NewQuoteService(cfg).Get(context.Background(), tt.id)
			if tt.errCheck != nil {
				require.Error(t, err)
				assert.True(t, tt.errCheck(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantID, q.ID)
		})
	}
}

func TestQuoteService_ListOverSession(t *testing.T) {
	ctx := context.Background()
	sessions := newTestService(SessionServiceConfig{Source: staticSource(t, testQuotes(), nil)})

	_, err := sessions.Load(ctx)
	require.NoError(t, err)

	svc := NewQuoteService(QuoteServiceConfig{Collection: sessions, Logger: discardLogger()})

	page, err := svc.List(ctx, QuoteQuery{Search: "jobs"})
	require.NoError(t, err)
	assert.Equal(t, []string{"q1"}, ids(page.Quotes))

	_, err = sessions.ToggleLike(ctx, "q1")
	require.NoError(t, err)

	q, err := svc.Get(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, 1, q.LikeCount)
}
