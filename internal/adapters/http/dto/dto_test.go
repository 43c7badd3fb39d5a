package dto

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-session/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	return c, w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) Problem {
	t.Helper()

	var p Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))

	return p
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{
			name:       "not found",
			err:        domain.NewNotFoundError("quote", "q9"),
			wantStatus: http.StatusNotFound,
			wantCode:   ErrorCodeNotFound,
		},
		{
			name:       "load in flight",
			err:        domain.ErrLoadInFlight,
			wantStatus: http.StatusConflict,
			wantCode:   ErrorCodeConflict,
		},
		{
			name:       "validation",
			err:        domain.NewValidationError("cursor", "does not match a quote"),
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrorCodeValidation,
		},
		{
			name:       "not ready",
			err:        domain.ErrNotReady,
			wantStatus: http.StatusForbidden,
			wantCode:   ErrorCodeForbidden,
		},
		{
			name:       "upstream unavailable",
			err:        domain.NewUnavailableError("quote-api", "timeout"),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrorCodeUnavailable,
		},
		{
			name:       "load failure",
			err:        domain.NewLoadFailureError("remote", "", domain.NewUnavailableError("quote-api", "timeout")),
			wantStatus: http.StatusBadGateway,
			wantCode:   ErrorCodeLoadFailure,
		},
		{
			name:       "empty collection",
			err:        domain.ErrEmptyCollection,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   ErrorCodeEmptyCollection,
		},
		{
			name:       "unknown errors hide their detail",
			err:        errors.New("db password=hunter2 rejected"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrorCodeInternal,
			wantDetail: "an internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext(http.MethodGet, "/api/v1/session", "")

			HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, ContentTypeProblem, w.Header().Get("Content-Type"))

			p := decodeProblem(t, w)
			assert.Equal(t, tt.wantCode, p.Code)
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, problemTypeBase+tt.wantCode, p.Type)
			assert.Equal(t, http.StatusText(tt.wantStatus), p.Title)
			assert.Equal(t, "/api/v1/session", p.Instance)

			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, p.Detail)
			} else {
				assert.Equal(t, tt.err.Error(), p.Detail)
			}
		})
	}
}

func TestMapDomainError_ValidationFields(t *testing.T) {
	p := MapDomainError(domain.NewValidationError("cursor", "does not match a quote"))

	assert.Equal(t, map[string]string{"cursor": "does not match a quote"}, p.Errors)
}

func TestAbortWithCode(t *testing.T) {
	c, w := newContext(http.MethodGet, "/api/v1/session", "")

	AbortWithCode(c, ErrorCodeUnauthorized, "user identity required")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "user identity required", decodeProblem(t, w).Detail)
}

func TestHTTPStatusFromCode(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatusFromCode(ErrorCodeTimeout))
	assert.Equal(t, http.StatusBadRequest, HTTPStatusFromCode(ErrorCodeBadRequest))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromCode("SOMETHING_ELSE"))
}

func TestCursor(t *testing.T) {
	encoded := EncodeCursor("q-17")
	require.NotEmpty(t, encoded)

	p := PaginationRequest{Cursor: encoded}
	after, err := p.After()
	require.NoError(t, err)
	assert.Equal(t, "q-17", after)

	p = PaginationRequest{}
	after, err = p.After()
	require.NoError(t, err)
	assert.Empty(t, after)

	assert.Empty(t, EncodeCursor(""))

	for _, bad := range []string{"%%%", "bm90IGpzb24", "e30"} {
		_, err := DecodeCursor(bad)
		require.ErrorIs(t, err, ErrInvalidCursor, bad)
	}
}

func TestBindAndValidate_ReplaceQuotes(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantErr    error
		wantFields map[string]string
	}{
		{
			name: "valid",
			body: `{"quotes":[{"id":"a","content":"Hello","author":"Me"}]}`,
		},
		{
			name: "empty list is left to the session",
			body: `{"quotes":[]}`,
		},
		{
			name:       "missing list",
			body:       `{}`,
			wantErr:    ErrValidation,
			wantFields: map[string]string{"quotes": "this field is required"},
		},
		{
			name:       "blank content",
			body:       `{"quotes":[{"id":"a","content":"  "}]}`,
			wantErr:    ErrValidation,
			wantFields: map[string]string{"quotes[0].content": "must not be blank"},
		},
		{
			name:    "malformed json",
			body:    `{"quotes":`,
			wantErr: ErrBinding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(http.MethodPut, "/api/v1/session/quotes", tt.body)

			var req ReplaceQuotesRequest

			err := BindAndValidate(c, &req)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, tt.wantErr)

			if tt.wantFields != nil {
				assert.True(t, IsValidationError(err))
				assert.Equal(t, tt.wantFields, ValidationErrors(err))
			}
		})
	}
}

func TestRespondWithValidationErrors(t *testing.T) {
	c, w := newContext(http.MethodPost, "/api/v1/session/loading", `{}`)

	var req SetLoadingRequest
	err := BindAndValidate(c, &req)
	require.Error(t, err)

	RespondWithValidationErrors(c, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]string{"loading": "this field is required"}, decodeProblem(t, w).Errors)
}

func TestBindQueryAndValidate(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/api/v1/quotes?limit=500", "")

	var req PaginationRequest
	err := BindQueryAndValidate(c, &req)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "must be less than or equal to 100", ValidationErrors(err)["limit"])

	c, _ = newContext(http.MethodGet, "/api/v1/quotes?limit=5&q=torvalds", "")
	req = PaginationRequest{}
	require.NoError(t, BindQueryAndValidate(c, &req))
	assert.Equal(t, 5, req.Limit)
	assert.Equal(t, "torvalds", req.Query)
}

func TestReplaceQuotesRequest_DomainQuotes(t *testing.T) {
	req := ReplaceQuotesRequest{Quotes: []QuoteInput{
		{ID: "a", Content: "Hello", Author: "Me", Tags: []string{"greeting"}},
		{ID: "b", Content: "Bye"},
	}}

	assert.Equal(t, []domain.Quote{
		{ID: "a", Content: "Hello", Author: "Me", Tags: []string{"greeting"}},
		{ID: "b", Content: "Bye", Author: "Unknown"},
	}, req.DomainQuotes())
}

func TestNewSessionResponse(t *testing.T) {
	current := domain.Quote{ID: "q2", Content: "Talk is cheap.", Author: "Linus Torvalds", LikeCount: 1}

	resp := NewSessionResponse(domain.SessionSnapshot{
		Status:       domain.StatusReady,
		Current:      &current,
		CurrentIndex: 1,
		History:      []string{"q1"},
		Liked:        []string{"q2"},
		Total:        3,
	})

	assert.Equal(t, "ready", resp.Status)
	require.NotNil(t, resp.Current)
	assert.Equal(t, QuoteResponse{ID: "q2", Content: "Talk is cheap.", Author: "Linus Torvalds", LikeCount: 1}, *resp.Current)
	assert.Equal(t, 1, resp.CurrentIndex)

	idle := NewSessionResponse(domain.SessionSnapshot{Status: domain.StatusIdle, CurrentIndex: -1})
	assert.Nil(t, idle.Current)
	assert.Equal(t, -1, idle.CurrentIndex)
}
