package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quote-session/internal/adapters/clients"
	"github.com/jsamuelsen/quote-session/internal/domain"
)

// maxErrorBody caps how much of an error body is read for context.
const maxErrorBody = 4 << 10

// ErrorResponse is the error body shape quote APIs use.
// It supports both nested (error.message) and flat (message / statusMessage) forms.
type ErrorResponse struct {
	Error         ErrorDetail `json:"error"`
	Message       string      `json:"message,omitempty"`
	StatusMessage string      `json:"statusMessage,omitempty"`
}

// ErrorDetail is the nested error form.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UnmarshalJSON accepts "error" as either an object or a plain string.
func (d *ErrorDetail) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		d.Message = s
		return nil
	}

	type plain ErrorDetail

	return json.Unmarshal(b, (*plain)(d))
}

// GetMessage returns the first message present.
func (e *ErrorResponse) GetMessage() string {
	switch {
	case e.Error.Message != "":
		return e.Error.Message
	case e.Message != "":
		return e.Message
	default:
		return e.StatusMessage
	}
}

// ParseErrorResponse parses an error body. Returns nil if the body is empty
// or carries no message.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.GetMessage() == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError maps a failed exchange to a domain error.
//
// Parameters:
//   - resp: the HTTP response (nil for transport errors)
//   - clientErr: the error from the HTTP client (nil when a response arrived)
//   - serviceName: the upstream name for error context
//   - operation: what was attempted, e.g. "list quotes"
//   - entityID: the id being fetched, used for NotFoundError
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation, entityID string) error {
	if clientErr != nil {
		return mapClientError(clientErr, serviceName, operation)
	}

	if resp == nil {
		return domain.NewUnavailableError(serviceName, "no response received")
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	var errResp *ErrorResponse
	if resp.Body != nil {
		errResp = ParseErrorResponse(resp.Body)
	}

	return mapStatusCode(resp.StatusCode, errResp, serviceName, operation, entityID)
}

func mapClientError(err error, serviceName, operation string) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(serviceName, "circuit breaker open during "+operation)
	case errors.Is(err, clients.ErrRateLimited):
		return domain.NewUnavailableError(serviceName, "rate limited during "+operation)
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(serviceName, "max retries exceeded during "+operation)
	default:
		return domain.NewUnavailableError(serviceName, fmt.Sprintf("%s failed: %v", operation, err))
	}
}

func mapStatusCode(status int, errResp *ErrorResponse, serviceName, operation, entityID string) error {
	message := fmt.Sprintf("%s failed with status %d", operation, status)
	if errResp != nil {
		message = errResp.GetMessage()
	}

	switch {
	case status == http.StatusNotFound:
		return domain.NewNotFoundError("quote", entityID)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return domain.NewValidationError("", message)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.NewForbiddenError(operation, message)
	case status == http.StatusTooManyRequests:
		return domain.NewUnavailableError(serviceName, "rate limit exceeded")
	case status >= http.StatusInternalServerError:
		return domain.NewUnavailableError(serviceName, message)
	default:
		return domain.NewUnavailableError(serviceName, fmt.Sprintf("unexpected status %d", status))
	}
}
