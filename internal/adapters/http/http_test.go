package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-session/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-session/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-session/internal/adapters/sources"
	"github.com/jsamuelsen/quote-session/internal/adapters/store"
	"github.com/jsamuelsen/quote-session/internal/app"
	"github.com/jsamuelsen/quote-session/internal/platform/config"
	"github.com/jsamuelsen/quote-session/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Host:           "127.0.0.1",
		Port:           0,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    30 * time.Second,
		MaxRequestSize: 1 << 20,
	}
}

// newTestRouter wires the full middleware chain over the bundled quotes
// and an in-memory store.
func newTestRouter(tb testing.TB, logger *slog.Logger, identity config.IdentityConfig) *gin.Engine {
	tb.Helper()

	bundled, err := sources.NewBundled()
	require.NoError(tb, err)

	sessions := app.NewSessionService(app.SessionServiceConfig{
		Source: bundled,
		Store:  store.NewMemory(),
		Logger: logger,
	})
	tb.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		assert.NoError(tb, sessions.Close(ctx))
	})

	quotes := app.NewQuoteService(app.QuoteServiceConfig{Collection: sessions, Logger: logger})

	engine := gin.New()
	SetupRouter(engine, RouterConfig{
		Logger:         logger,
		ServiceName:    "quote-session-test",
		Identity:       identity,
		HealthHandler:  handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.BuildInfo{}, prometheus.NewRegistry()),
		SessionHandler: handlers.NewSessionHandler(sessions),
		QuoteHandler:   handlers.NewQuoteHandler(quotes),
		Timeout:        DefaultRequestTimeout,
	})

	return engine
}

func TestServer_New(t *testing.T) {
	cfg := testServerConfig()
	cfg.Port = 8080

	srv := New(cfg, discardLogger())

	require.NotNil(t, srv.Engine())
	assert.Equal(t, "127.0.0.1:8080", srv.Addr())
	assert.Equal(t, cfg.ReadTimeout, srv.srv.ReadHeaderTimeout)
}

func TestServer_StartShutdown(t *testing.T) {
	srv := New(testServerConfig(), discardLogger())
	srv.Engine().GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	errCh, err := srv.Start()
	require.NoError(t, err)

	addr := srv.Addr()
	assert.NotEqual(t, "127.0.0.1:0", addr, "Addr reports the bound port")

	resp, err := http.Get("http://" + addr + "/ping") //nolint:noctx // test request
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "pong", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, srv.Shutdown(ctx))

	_, ok := <-errCh
	assert.False(t, ok, "error channel should be closed")
}

func TestServer_StartBindError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	cfg := testServerConfig()
	cfg.Port = ln.Addr().(*net.TCPAddr).Port

	_, err = New(cfg, discardLogger()).Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen on")
}

func TestServer_MaxBodySize(t *testing.T) {
	cfg := testServerConfig()
	cfg.MaxRequestSize = 100

	srv := New(cfg, discardLogger())
	srv.Engine().POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}

		c.Status(http.StatusOK)
	})

	tests := []struct {
		name       string
		size       int
		wantStatus int
	}{
		{name: "under limit", size: 50, wantStatus: http.StatusOK},
		{name: "over limit", size: 500, wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", tt.size)))
			srv.Engine().ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestSetupRouter_Routes(t *testing.T) {
	engine := newTestRouter(t, discardLogger(), config.IdentityConfig{})

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "liveness", method: http.MethodGet, path: "/-/live", wantStatus: http.StatusOK},
		{name: "readiness", method: http.MethodGet, path: "/-/ready", wantStatus: http.StatusOK},
		{name: "build info", method: http.MethodGet, path: "/-/build", wantStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/-/metrics", wantStatus: http.StatusOK},
		{name: "session", method: http.MethodGet, path: "/api/v1/session", wantStatus: http.StatusOK},
		{name: "quotes before load", method: http.MethodGet, path: "/api/v1/quotes", wantStatus: http.StatusOK},
		{name: "next before load", method: http.MethodPost, path: "/api/v1/session/next", wantStatus: http.StatusForbidden},
		{name: "unknown route", method: http.MethodGet, path: "/api/v2/session", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, http.NoBody))

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

			if tt.wantStatus >= http.StatusBadRequest {
				assert.Equal(t, dto.ContentTypeProblem, w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestSetupRouter_SessionsPerUser(t *testing.T) {
	engine := newTestRouter(t, discardLogger(), config.IdentityConfig{UserHeader: "X-User-ID"})

	call := func(method, path, user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, http.NoBody)
		if user != "" {
			req.Header.Set("X-User-ID", user)
		}

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		return w
	}

	require.Equal(t, http.StatusOK, call(http.MethodPost, "/api/v1/session/load?wait=true", "alice").Code)

	var alice, bob dto.SessionResponse
	require.NoError(t, json.Unmarshal(call(http.MethodGet, "/api/v1/session", "alice").Body.Bytes(), &alice))
	require.NoError(t, json.Unmarshal(call(http.MethodGet, "/api/v1/session", "bob").Body.Bytes(), &bob))

	assert.Equal(t, "ready", alice.Status)
	assert.Positive(t, alice.Total)
	assert.Equal(t, "idle", bob.Status, "bob has his own session")
}

func TestSetupRouter_IdentityRequired(t *testing.T) {
	engine := newTestRouter(t, discardLogger(), config.IdentityConfig{UserHeader: "X-User-ID", Required: true})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/session", http.NoBody))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/live", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code, "probes need no identity")
}

func TestSetupRouter_RequestLogging(t *testing.T) {
	var buf bytes.Buffer

	engine := newTestRouter(t, slog.New(slog.NewJSONHandler(&buf, nil)), config.IdentityConfig{UserHeader: "X-User-ID"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/next", http.NoBody)
	req.Header.Set("X-Request-ID", "req-42")
	req.Header.Set("X-User-ID", "alice")
	engine.ServeHTTP(httptest.NewRecorder(), req)

	var found bool

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))

		if rec["msg"] != "request completed" {
			continue
		}

		found = true

		assert.Equal(t, "WARN", rec["level"])
		assert.Equal(t, "req-42", rec["request_id"])
		assert.Equal(t, "alice", rec["user"])
		assert.Equal(t, "/api/v1/session/next", rec["route"])
	}

	assert.True(t, found, "request completion is logged")
}
