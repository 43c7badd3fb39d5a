package domain

import (
	"fmt"
	"strings"
)

// Quote represents a quotation with its author.
// Source adapters normalize their payloads into this shape at the boundary.
type Quote struct {
	// ID is the unique identifier for this quote.
	ID string `json:"id"`

	// Content is the text of the quote.
	Content string `json:"content"`

	// Author is who said or wrote the quote.
	Author string `json:"author"`

	// Tags are categories or themes associated with the quote.
	Tags []string `json:"tags,omitempty"`

	// LikeCount is the only mutable field once a collection is loaded.
	LikeCount int `json:"likeCount"`
}

// ValidateCollection checks that quotes form a usable collection:
// non-empty, with unique non-empty ids and non-empty content.
// An empty collection yields ErrEmptyCollection; anything else malformed
// yields a LoadFailureError.
func ValidateCollection(source string, quotes []Quote) error {
	if len(quotes) == 0 {
		return ErrEmptyCollection
	}

	seen := make(map[string]struct{}, len(quotes))

	for i, q := range quotes {
		if strings.TrimSpace(q.ID) == "" {
			return NewLoadFailureError(source, "quote without id", NewValidationError(fmt.Sprintf("quotes[%d].id", i), "must not be empty"))
		}

		if strings.TrimSpace(q.Content) == "" {
			return NewLoadFailureError(source, "quote without content", NewValidationError(fmt.Sprintf("quotes[%d].content", i), "must not be empty"))
		}

		if _, dup := seen[q.ID]; dup {
			return NewLoadFailureError(source, "duplicate quote id", NewConflictError("quote", "duplicate id", q.ID))
		}

		seen[q.ID] = struct{}{}
	}

	return nil
}

// CloneQuotes returns a deep copy so callers cannot mutate session state.
func CloneQuotes(quotes []Quote) []Quote {
	if quotes == nil {
		return nil
	}

	out := make([]Quote, len(quotes))
	for i, q := range quotes {
		out[i] = q
		if q.Tags != nil {
			out[i].Tags = append([]string(nil), q.Tags...)
		}
	}

	return out
}

// User identifies who a session belongs to. The zero value is anonymous.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// AnonymousKey scopes persistence for sessions without an identity.
const AnonymousKey = "anonymous"

// IsAnonymous reports whether no identity is attached.
func (u User) IsAnonymous() bool {
	return u.ID == ""
}

// Key returns the persistence scope for this user.
func (u User) Key() string {
	if u.IsAnonymous() {
		return AnonymousKey
	}

	return u.ID
}
