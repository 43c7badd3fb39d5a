package dto

import (
	"github.com/jsamuelsen/quote-session/internal/domain"
)

// QuoteResponse is the HTTP representation of a quote.
type QuoteResponse struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	Author    string   `json:"author"`
	Tags      []string `json:"tags,omitempty"`
	LikeCount int      `json:"likeCount"`
}

// NewQuoteResponse converts a domain quote.
func NewQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{
		ID:        q.ID,
		Content:   q.Content,
		Author:    q.Author,
		Tags:      q.Tags,
		LikeCount: q.LikeCount,
	}
}

// NewQuoteResponses converts a slice of domain quotes.
func NewQuoteResponses(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, len(quotes))
	for i, q := range quotes {
		out[i] = NewQuoteResponse(q)
	}

	return out
}

// SessionResponse is the observable state of the caller's session.
type SessionResponse struct {
	Status       string         `json:"status"`
	Error        string         `json:"error,omitempty"`
	Current      *QuoteResponse `json:"current,omitempty"`
	CurrentIndex int            `json:"currentIndex"`
	History      []string       `json:"history"`
	Liked        []string       `json:"liked"`
	Total        int            `json:"total"`
}

// NewSessionResponse converts a session snapshot.
func NewSessionResponse(s domain.SessionSnapshot) SessionResponse {
	resp := SessionResponse{
		Status:       string(s.Status),
		Error:        s.Error,
		CurrentIndex: s.CurrentIndex,
		History:      s.History,
		Liked:        s.Liked,
		Total:        s.Total,
	}

	if s.Current != nil {
		q := NewQuoteResponse(*s.Current)
		resp.Current = &q
	}

	return resp
}

// LoadResponse acknowledges a load request that runs in the background.
type LoadResponse struct {
	Ticket uint64 `json:"ticket"`
	Status string `json:"status"`
}

// NavigationResponse is returned by next and previous.
type NavigationResponse struct {
	Quote QuoteResponse `json:"quote"`

	// Moved is false when previous was called with an empty history.
	Moved bool `json:"moved"`
}

// LikeResponse reports the like state of one quote after a toggle.
type LikeResponse struct {
	ID    string `json:"id"`
	Liked bool   `json:"liked"`
}

// ListResponse wraps an unpaged list of items.
type ListResponse[T any] struct {
	Items []T `json:"items"`
}

// SetErrorRequest is the body of POST /session/error.
// A null or empty message clears the error.
type SetErrorRequest struct {
	Message *string `json:"message" validate:"omitempty,max=1024"`
}

// SetLoadingRequest is the body of POST /session/loading.
type SetLoadingRequest struct {
	Loading *bool `json:"loading" validate:"required"`
}

// QuoteInput is one caller-supplied quote of PUT /session/quotes.
type QuoteInput struct {
	ID      string   `json:"id"      validate:"notblank,max=128"`
	Content string   `json:"content" validate:"notblank,max=2000"`
	Author  string   `json:"author"  validate:"max=200"`
	Tags    []string `json:"tags"    validate:"omitempty,max=20,dive,notblank"`
}

// ReplaceQuotesRequest is the body of PUT /session/quotes. An empty list
// is accepted here and rejected by the session as an empty collection.
type ReplaceQuotesRequest struct {
	Quotes []QuoteInput `json:"quotes" validate:"required,max=1000,dive"`
}

// DomainQuotes converts the request into domain quotes. Missing authors
// become "Unknown" as they do for remote sources.
func (r ReplaceQuotesRequest) DomainQuotes() []domain.Quote {
	out := make([]domain.Quote, len(r.Quotes))
	for i, in := range r.Quotes {
		author := in.Author
		if author == "" {
			author = "Unknown"
		}

		out[i] = domain.Quote{ID: in.ID, Content: in.Content, Author: author, Tags: in.Tags}
	}

	return out
}

// AuthoredQuoteRequest is the body of POST /me/quotes and PUT /me/quotes/:id.
type AuthoredQuoteRequest struct {
	Content string   `json:"content" validate:"notblank,max=2000"`
	Author  string   `json:"author"  validate:"max=200"`
	Tags    []string `json:"tags"    validate:"omitempty,max=20,dive,notblank"`
}
