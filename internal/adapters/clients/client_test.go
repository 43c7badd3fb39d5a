package clients

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-session/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-session/internal/platform/config"
)

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL:     baseURL,
		ServiceName: "quote-api",
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 5 * time.Millisecond,
			MaxInterval:     20 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 1,
		},
	}
}

func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()

	if err := resp.Body.Close(); err != nil {
		t.Errorf("failed to close response body: %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "config is required")

	cfg := testConfig("https://api.quotable.io/")
	cfg.ServiceName = ""
	_, err = New(cfg)
	require.ErrorContains(t, err, "service name is required")

	client, err := New(testConfig("https://api.quotable.io/"))
	require.NoError(t, err)
	assert.Equal(t, "https://api.quotable.io", client.baseURL)
	assert.Nil(t, client.limiter)
}

func TestClient_PropagatesHeaders(t *testing.T) {
	var got http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.UserAgent = "quote-session-test"

	client, err := New(cfg)
	require.NoError(t, err)

	ctx := middleware.ContextWithRequestID(context.Background(), "req-1")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-1")

	resp, err := client.Get(ctx, "quotes")
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, "req-1", got.Get(middleware.HeaderRequestID))
	assert.Equal(t, "corr-1", got.Get(middleware.HeaderCorrelationID))
	assert.Equal(t, "quote-session-test", got.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Get("Accept"))
}

func TestClient_Retries(t *testing.T) {
	tests := []struct {
		name         string
		failFirst    int32
		failStatus   int
		wantErr      error
		wantAttempts int32
	}{
		{name: "recovers after server errors", failFirst: 2, failStatus: http.StatusBadGateway, wantAttempts: 3},
		{name: "gives up after max attempts", failFirst: 10, failStatus: http.StatusServiceUnavailable, wantErr: ErrMaxRetriesExceeded, wantAttempts: 3},
		{name: "does not retry client errors", failFirst: 10, failStatus: http.StatusNotFound, wantAttempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if attempts.Add(1) <= tt.failFirst {
					w.WriteHeader(tt.failStatus)
					return
				}

				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client, err := New(testConfig(server.URL))
			require.NoError(t, err)

			resp, err := client.Get(context.Background(), "/quotes")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				closeBody(t, resp)
			}

			assert.Equal(t, tt.wantAttempts, attempts.Load())
		})
	}
}

func TestClient_CircuitOpensAndShortCircuits(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Retry.MaxAttempts = 1
	cfg.Circuit.MaxFailures = 2
	cfg.Circuit.Timeout = time.Hour

	client, err := New(cfg)
	require.NoError(t, err)

	for range 2 {
		_, err := client.Get(context.Background(), "/quotes")
		require.ErrorIs(t, err, ErrMaxRetriesExceeded)
	}

	assert.Equal(t, StateOpen, client.CircuitState())

	_, err = client.Get(context.Background(), "/quotes")
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), attempts.Load())
	assert.Equal(t, StateOpen, client.Circuit().State)
}

func TestClient_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.RateLimit = 0.001
	cfg.RateBurst = 1

	client, err := New(cfg)
	require.NoError(t, err)

	resp, err := client.Get(context.Background(), "/quotes")
	require.NoError(t, err)
	closeBody(t, resp)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.Get(ctx, "/quotes")
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(testConfig(server.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.Get(ctx, "/quotes")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBackoff_Delay(t *testing.T) {
	b := newBackoff(config.RetryConfig{
		MaxAttempts:     5,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     40 * time.Millisecond,
		Multiplier:      2,
	})

	tests := []struct {
		name    string
		attempt int
		hint    time.Duration
		jitter  float64
		want    time.Duration
	}{
		{name: "first retry", attempt: 1, jitter: 0.5, want: 10 * time.Millisecond},
		{name: "grows by multiplier", attempt: 2, jitter: 0.5, want: 20 * time.Millisecond},
		{name: "capped", attempt: 5, jitter: 0.5, want: 40 * time.Millisecond},
		{name: "jitter low", attempt: 1, jitter: 0, want: 7500 * time.Microsecond},
		{name: "jitter high", attempt: 1, jitter: 1, want: 12500 * time.Microsecond},
		{name: "retry-after wins", attempt: 1, hint: 30 * time.Millisecond, jitter: 0.5, want: 30 * time.Millisecond},
		{name: "oversized retry-after ignored", attempt: 1, hint: time.Minute, jitter: 0.5, want: 10 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b.jitter = func() float64 { return tt.jitter }
			assert.Equal(t, tt.want, b.delay(tt.attempt, tt.hint))
		})
	}
}

func TestClient_RetriesTooManyRequests(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Retry.MaxInterval = 2 * time.Second

	client, err := New(cfg)
	require.NoError(t, err)

	start := time.Now()
	resp, err := client.Get(context.Background(), "/quotes")
	require.NoError(t, err)
	closeBody(t, resp)

	assert.Equal(t, int32(2), attempts.Load())
	assert.GreaterOrEqual(t, time.Since(start), time.Second, "Retry-After is honored")
}

type testNetError struct{ timeout bool }

func (e testNetError) Error() string   { return "test net error" }
func (e testNetError) Timeout() bool   { return e.timeout }
func (e testNetError) Temporary() bool { return true }

func TestRetryable(t *testing.T) {
	assert.False(t, retryableErr(nil))
	assert.False(t, retryableErr(context.Canceled))
	assert.False(t, retryableErr(context.DeadlineExceeded))
	assert.True(t, retryableErr(testNetError{timeout: true}))
	assert.False(t, retryableErr(testNetError{timeout: false}))
	assert.True(t, retryableErr(&net.OpError{Op: "dial", Err: testNetError{}}))

	assert.True(t, retryableStatus(http.StatusTooManyRequests))
	assert.True(t, retryableStatus(http.StatusBadGateway))
	assert.False(t, retryableStatus(http.StatusNotFound))
}
