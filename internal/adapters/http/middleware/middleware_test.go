package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-session/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-session/internal/adapters/identity"
	"github.com/jsamuelsen/quote-session/internal/domain"
	"github.com/jsamuelsen/quote-session/internal/platform/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	return w
}

// logLines decodes the JSON log records written to buf.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var lines []map[string]any

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		lines = append(lines, rec)
	}

	return lines
}

func TestIDMiddlewares(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		inbound   string
		fromCtx   func(context.Context) string
		fromGin   func(*gin.Context) string
		wantReuse bool
	}{
		{
			name:      "request id is propagated",
			header:    HeaderRequestID,
			inbound:   "req-123",
			fromCtx:   RequestIDFromContext,
			fromGin:   GetRequestID,
			wantReuse: true,
		},
		{
			name:    "request id is generated",
			header:  HeaderRequestID,
			fromCtx: RequestIDFromContext,
			fromGin: GetRequestID,
		},
		{
			name:    "oversized request id is replaced",
			header:  HeaderRequestID,
			inbound: strings.Repeat("x", maxIDLength+1),
			fromCtx: RequestIDFromContext,
			fromGin: GetRequestID,
		},
		{
			name:      "correlation id is propagated",
			header:    HeaderCorrelationID,
			inbound:   "corr-456",
			fromCtx:   CorrelationIDFromContext,
			fromGin:   GetCorrelationID,
			wantReuse: true,
		},
		{
			name:    "correlation id is generated",
			header:  HeaderCorrelationID,
			fromCtx: CorrelationIDFromContext,
			fromGin: GetCorrelationID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fromCtx, fromGin string

			engine := gin.New()
			engine.Use(RequestID(), CorrelationID())
			engine.GET("/", func(c *gin.Context) {
				fromCtx = tt.fromCtx(c.Request.Context())
				fromGin = tt.fromGin(c)
				c.Status(http.StatusNoContent)
			})

			headers := map[string]string{}
			if tt.inbound != "" {
				headers[tt.header] = tt.inbound
			}

			w := serve(engine, http.MethodGet, "/", headers)

			echoed := w.Header().Get(tt.header)
			assert.Equal(t, echoed, fromCtx)
			assert.Equal(t, echoed, fromGin)

			if tt.wantReuse {
				assert.Equal(t, tt.inbound, echoed)
				return
			}

			_, err := uuid.Parse(echoed)
			assert.NoError(t, err, "generated id must be a UUID")
		})
	}
}

func TestContextIDs(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "request-123")
	ctx = ContextWithCorrelationID(ctx, "correlation-456")

	assert.Equal(t, "request-123", RequestIDFromContext(ctx))
	assert.Equal(t, "correlation-456", CorrelationIDFromContext(ctx))

	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Empty(t, CorrelationIDFromContext(nil)) //nolint:staticcheck // nil context is handled
}

func TestIdentity(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.IdentityConfig
		headers    map[string]string
		wantStatus int
		wantUser   domain.User
		wantOK     bool
	}{
		{
			name:       "gateway headers",
			headers:    map[string]string{"X-User-ID": "alice", "X-User-Email": "alice@example.com"},
			wantStatus: http.StatusOK,
			wantUser:   domain.User{ID: "alice", Email: "alice@example.com"},
			wantOK:     true,
		},
		{
			name:       "custom header names",
			cfg:        config.IdentityConfig{UserHeader: "X-Auth-Sub", EmailHeader: "X-Auth-Mail"},
			headers:    map[string]string{"X-Auth-Sub": " bob ", "X-User-ID": "ignored"},
			wantStatus: http.StatusOK,
			wantUser:   domain.User{ID: "bob"},
			wantOK:     true,
		},
		{
			name:       "anonymous allowed",
			wantStatus: http.StatusOK,
		},
		{
			name:       "blank id is anonymous",
			headers:    map[string]string{"X-User-ID": "   "},
			wantStatus: http.StatusOK,
		},
		{
			name:       "anonymous rejected when required",
			cfg:        config.IdentityConfig{Required: true},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "identified caller passes when required",
			cfg:        config.IdentityConfig{Required: true},
			headers:    map[string]string{"X-User-ID": "carol"},
			wantStatus: http.StatusOK,
			wantUser:   domain.User{ID: "carol"},
			wantOK:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				gotUser domain.User
				gotOK   bool
			)

			engine := gin.New()
			engine.Use(Identity(tt.cfg))
			engine.GET("/api/v1/session", func(c *gin.Context) {
				gotUser, gotOK = identity.UserFromContext(c.Request.Context())
				c.Status(http.StatusOK)
			})

			w := serve(engine, http.MethodGet, "/api/v1/session", tt.headers)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOK, gotOK)
			assert.Equal(t, tt.wantUser, gotUser)

			if w.Code == http.StatusUnauthorized {
				assert.Equal(t, dto.ContentTypeProblem, w.Header().Get("Content-Type"))
				assert.Contains(t, w.Body.String(), dto.ErrorCodeUnauthorized)
			}
		})
	}
}

func TestLogging(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		wantLevel string
		wantLog   bool
	}{
		{name: "success logs at info", path: "/api/v1/session", status: http.StatusOK, wantLevel: "INFO", wantLog: true},
		{name: "client error logs at warn", path: "/api/v1/session", status: http.StatusConflict, wantLevel: "WARN", wantLog: true},
		{name: "server error logs at error", path: "/api/v1/session", status: http.StatusInternalServerError, wantLevel: "ERROR", wantLog: true},
		{name: "probes are skipped", path: "/-/live", status: http.StatusOK},
		{name: "explicit skip paths", path: "/favicon.ico", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			engine := gin.New()
			engine.Use(ContextLogger(logger), RequestID(), Identity(config.IdentityConfig{}), Logging("/favicon.ico"))
			engine.GET(tt.path, func(c *gin.Context) { c.Status(tt.status) })

			serve(engine, http.MethodGet, tt.path, map[string]string{
				HeaderRequestID: "req-1",
				"X-User-ID":     "alice",
			})

			lines := logLines(t, &buf)
			if !tt.wantLog {
				assert.Empty(t, lines)
				return
			}

			require.Len(t, lines, 1, "start is logged at debug")

			rec := lines[0]
			assert.Equal(t, "request completed", rec["msg"])
			assert.Equal(t, tt.wantLevel, rec["level"])
			assert.InDelta(t, tt.status, rec["status"], 0)
			assert.Equal(t, "req-1", rec["request_id"])
			assert.Equal(t, "alice", rec["user"])
			assert.Equal(t, tt.path, rec["route"])
		})
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	engine := gin.New()
	engine.Use(Recovery(logger))
	engine.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := serve(engine, http.MethodGet, "/boom", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ContentTypeProblem, w.Header().Get("Content-Type"))

	var p dto.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, dto.ErrorCodeInternal, p.Code)
	assert.Equal(t, "/boom", p.Instance)

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "panic recovered", lines[0]["msg"])
	assert.Equal(t, "kaboom", lines[0]["error"])
	assert.NotEmpty(t, lines[0]["stack"])
}

func TestTimeout(t *testing.T) {
	tests := []struct {
		name         string
		timeout      time.Duration
		wantDeadline bool
	}{
		{name: "sets a deadline", timeout: time.Minute, wantDeadline: true},
		{name: "zero disables", timeout: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hasDeadline bool

			engine := gin.New()
			engine.Use(Timeout(tt.timeout))
			engine.GET("/", func(c *gin.Context) {
				_, hasDeadline = c.Request.Context().Deadline()
				c.Status(http.StatusOK)
			})

			serve(engine, http.MethodGet, "/", nil)

			assert.Equal(t, tt.wantDeadline, hasDeadline)
		})
	}
}

func TestTimeout_SilentHandlerGetsProblem(t *testing.T) {
	engine := gin.New()
	engine.Use(Timeout(time.Millisecond))
	engine.GET("/", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})

	w := serve(engine, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, dto.ContentTypeProblem, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), dto.ErrorCodeTimeout)
}
