package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// Page size bounds of GET /quotes.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ErrInvalidCursor rejects a cursor this service did not issue.
var ErrInvalidCursor = errors.New("invalid cursor")

// PaginationRequest is the query string of GET /quotes. Cursor is the
// opaque nextCursor of the previous page and q fuzzy-filters by content
// and author.
type PaginationRequest struct {
	Cursor string `form:"cursor" json:"cursor"`
	Limit  int    `form:"limit"  json:"limit"  validate:"omitempty,gte=1,lte=100"`
	Query  string `form:"q"      json:"q"      validate:"omitempty,max=200"`
}

// After returns the quote id the page starts after, "" for the first page.
func (p *PaginationRequest) After() (string, error) {
	if p.Cursor == "" {
		return "", nil
	}

	return DecodeCursor(p.Cursor)
}

// PaginatedResponse is one page of a collection. NextCursor is empty on
// the last page and Total counts every match, not just this page.
type PaginatedResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
	Total      int    `json:"total"`
}

type cursor struct {
	After string `json:"a"`
}

// EncodeCursor wraps the last quote id of a page. An empty id yields "".
func EncodeCursor(id string) string {
	if id == "" {
		return ""
	}

	raw, _ := json.Marshal(cursor{After: id})

	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor recovers the quote id from an EncodeCursor value.
func DecodeCursor(s string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", ErrInvalidCursor
	}

	var c cursor
	if json.Unmarshal(raw, &c) != nil || c.After == "" {
		return "", ErrInvalidCursor
	}

	return c.After, nil
}
