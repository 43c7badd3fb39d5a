// Package dto provides Data Transfer Objects for HTTP request/response handling.
package dto

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-session/internal/domain"
	"github.com/jsamuelsen/quote-session/internal/platform/logging"
)

// ContentTypeProblem is the media type of error bodies (RFC 7807).
const ContentTypeProblem = "application/problem+json"

// problemTypeBase prefixes the type URI of every problem.
const problemTypeBase = "https://quote-session.dev/problems/"

// Problem is the RFC 7807 error body returned by every endpoint.
type Problem struct {
	// Type is a URI identifying the problem kind.
	Type string `json:"type"`

	// Title is a short summary of the problem kind.
	Title string `json:"title"`

	// Status repeats the HTTP status code.
	Status int `json:"status"`

	// Detail explains this occurrence.
	Detail string `json:"detail,omitempty"`

	// Instance is the request path that failed.
	Instance string `json:"instance,omitempty"`

	// Code is a machine-readable error code (e.g., "NOT_FOUND").
	Code string `json:"code"`

	// TraceID links the response to its trace.
	TraceID string `json:"traceId,omitempty"`

	// Errors holds field-level validation messages.
	Errors map[string]string `json:"errors,omitempty"`
}

// Error codes for machine-readable error identification.
const (
	ErrorCodeNotFound        = "NOT_FOUND"
	ErrorCodeConflict        = "CONFLICT"
	ErrorCodeValidation      = "VALIDATION_ERROR"
	ErrorCodeForbidden       = "FORBIDDEN"
	ErrorCodeUnauthorized    = "UNAUTHORIZED"
	ErrorCodeUnavailable     = "SERVICE_UNAVAILABLE"
	ErrorCodeLoadFailure     = "LOAD_FAILURE"
	ErrorCodeEmptyCollection = "EMPTY_COLLECTION"
	ErrorCodeTimeout         = "TIMEOUT"
	ErrorCodeBadRequest      = "BAD_REQUEST"
	ErrorCodeInternal        = "INTERNAL_ERROR"
)

var codeStatus = map[string]int{
	ErrorCodeNotFound:        http.StatusNotFound,
	ErrorCodeConflict:        http.StatusConflict,
	ErrorCodeValidation:      http.StatusBadRequest,
	ErrorCodeBadRequest:      http.StatusBadRequest,
	ErrorCodeForbidden:       http.StatusForbidden,
	ErrorCodeUnauthorized:    http.StatusUnauthorized,
	ErrorCodeUnavailable:     http.StatusServiceUnavailable,
	ErrorCodeLoadFailure:     http.StatusBadGateway,
	ErrorCodeEmptyCollection: http.StatusUnprocessableEntity,
	ErrorCodeTimeout:         http.StatusGatewayTimeout,
	ErrorCodeInternal:        http.StatusInternalServerError,
}

// HTTPStatusFromCode maps error codes to HTTP status codes.
func HTTPStatusFromCode(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}

	return http.StatusInternalServerError
}

// NewProblem creates a problem for code with the given detail.
func NewProblem(code, detail string) *Problem {
	status := HTTPStatusFromCode(code)

	return &Problem{
		Type:   problemTypeBase + code,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Code:   code,
	}
}

// codeFor classifies a domain error. Session errors are checked before the
// generic kinds they may wrap.
func codeFor(err error) string {
	switch {
	case domain.IsEmptyCollection(err):
		return ErrorCodeEmptyCollection
	case domain.IsLoadFailure(err):
		return ErrorCodeLoadFailure
	case domain.IsNotFound(err):
		return ErrorCodeNotFound
	case domain.IsConflict(err):
		return ErrorCodeConflict
	case domain.IsValidation(err):
		return ErrorCodeValidation
	case domain.IsForbidden(err):
		return ErrorCodeForbidden
	case domain.IsUnavailable(err):
		return ErrorCodeUnavailable
	default:
		return ErrorCodeInternal
	}
}

// MapDomainError maps a domain error to a problem.
// Unknown errors become 500 with a generic detail.
func MapDomainError(err error) *Problem {
	code := codeFor(err)
	if code == ErrorCodeInternal {
		return NewProblem(code, "an internal error occurred")
	}

	p := NewProblem(code, err.Error())

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) && validationErr.Field != "" {
		p.Errors = map[string]string{validationErr.Field: validationErr.Message}
	}

	return p
}

// GetTraceID returns the trace id of the request span, if any.
func GetTraceID(c *gin.Context) string {
	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}

	return ""
}

func (p *Problem) forRequest(c *gin.Context) *Problem {
	p.Instance = c.Request.URL.Path
	p.TraceID = GetTraceID(c)

	return p
}

func writeProblem(c *gin.Context, p *Problem) {
	c.Header("Content-Type", ContentTypeProblem)
	c.JSON(p.Status, p)
}

// HandleError writes err as a problem response.
// Internal errors are logged with their full detail.
func HandleError(c *gin.Context, err error) {
	p := MapDomainError(err).forRequest(c)

	if p.Status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "internal error",
			slog.Any("error", err),
			slog.String(logging.KeyTraceID, p.TraceID),
		)
	}

	writeProblem(c, p)
}

// RespondWithCode writes an adapter-level problem such as a bad request.
func RespondWithCode(c *gin.Context, code, detail string) {
	writeProblem(c, NewProblem(code, detail).forRequest(c))
}

// RespondWithValidationErrors writes a 400 problem for a binding or
// validation failure of the request body.
func RespondWithValidationErrors(c *gin.Context, err error) {
	p := NewProblem(ErrorCodeValidation, "request validation failed").forRequest(c)
	if fields := ValidationErrors(err); len(fields) > 0 {
		p.Errors = fields
	} else {
		p.Detail = err.Error()
	}

	writeProblem(c, p)
}

// AbortWithError aborts the handler chain with err as a problem.
func AbortWithError(c *gin.Context, err error) {
	HandleError(c, err)
	c.Abort()
}

// AbortWithCode aborts the handler chain with an adapter-level problem.
func AbortWithCode(c *gin.Context, code, detail string) {
	RespondWithCode(c, code, detail)
	c.Abort()
}
