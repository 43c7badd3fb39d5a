package clients

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/jsamuelsen/quote-session/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-session/internal/platform/config"
	"github.com/jsamuelsen/quote-session/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/quote-session/internal/adapters/clients"

	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "quote-session"
)

// Config configures a Client.
type Config struct {
	// BaseURL prefixes every request path, e.g. "https://api.quotable.io".
	BaseURL string

	// ServiceName names the upstream in logs, spans and errors.
	ServiceName string

	// Timeout bounds each attempt.
	Timeout time.Duration

	Retry   config.RetryConfig
	Circuit config.CircuitBreakerConfig

	// RateLimit caps outgoing requests per second. Zero disables throttling.
	RateLimit float64
	RateBurst int

	UserAgent string
	Logger    *slog.Logger
}

// Client calls the upstream quote API. Each call passes the circuit
// breaker and the rate limiter, then retries transient failures with
// jittered backoff. Request and correlation ids travel with it along with
// the W3C trace context.
type Client struct {
	http      *http.Client
	baseURL   string
	name      string
	userAgent string
	backoff   backoff
	logger    *slog.Logger
	cb        *CircuitBreaker
	limiter   *rate.Limiter

	tracer   trace.Tracer
	duration metric.Float64Histogram
	requests metric.Int64Counter
}

// New builds a Client from cfg.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "clients.Client"), slog.String("downstream", cfg.ServiceName))

	c := &Client{
		http: &http.Client{
			Timeout: cmp.Or(cfg.Timeout, defaultTimeout),
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		name:      cfg.ServiceName,
		userAgent: cmp.Or(cfg.UserAgent, defaultUserAgent),
		backoff:   newBackoff(cfg.Retry),
		logger:    logger,
		cb:        NewCircuitBreaker(cfg.Circuit),
		tracer:    otel.Tracer(instrumentationName),
	}

	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))
	}

	c.cb.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed", slog.String("from", from.String()), slog.String("to", to.String()))
	})

	meter := otel.Meter(instrumentationName)

	var err error

	c.duration, err = meter.Float64Histogram("http.client.request.duration",
		metric.WithDescription("Duration of quote API calls including retries"), metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	c.requests, err = meter.Int64Counter("http.client.request.total",
		metric.WithDescription("Quote API calls by outcome"))
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	return c, nil
}

// ServiceName returns the upstream name used in logs and errors.
func (c *Client) ServiceName() string {
	return c.name
}

// CircuitState returns the breaker's current state.
func (c *Client) CircuitState() State {
	return c.cb.State()
}

// Circuit returns a snapshot of the breaker.
func (c *Client) Circuit() Snapshot {
	return c.cb.Snapshot()
}

// Get issues a GET for path, which may carry a query string.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	return c.Do(ctx, req)
}

// Do sends a body-less request. A response is returned for any status
// below 500 other than 429; those two are retried and, once attempts run
// out, reported as ErrMaxRetriesExceeded.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContextOr(ctx, c.logger).With(
		slog.String("downstream", c.name),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.cb.Allow() {
		c.observe(ctx, req.Method, 0, start, "circuit_open")
		logger.WarnContext(ctx, "request blocked by circuit breaker")

		return nil, ErrCircuitOpen
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.observe(ctx, req.Method, 0, start, "rate_limited")
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}

	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL.String()),
			attribute.String("peer.service", c.name),
		),
	)
	defer span.End()

	c.stamp(ctx, req)

	resp, err := c.attempt(ctx, req, logger)
	if err != nil {
		c.cb.RecordFailure()
		span.SetStatus(codes.Error, err.Error())
		c.observe(ctx, req.Method, 0, start, "error")
		logger.ErrorContext(ctx, "request failed", slog.Duration("duration", time.Since(start)), slog.Any("error", err))

		if ctx.Err() != nil {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, err)
	}

	c.cb.RecordSuccess()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, resp.Status)
	}

	c.observe(ctx, req.Method, resp.StatusCode, start, fmt.Sprintf("%dxx", resp.StatusCode/100))
	logger.DebugContext(ctx, "request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	return resp, nil
}

// attempt runs the retry loop.
func (c *Client) attempt(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, error) {
	var (
		lastErr error
		hint    time.Duration
	)

	for n := range c.backoff.cfg.MaxAttempts {
		if n > 0 {
			d := c.backoff.delay(n, hint)
			logger.DebugContext(ctx, "retrying request", slog.Int("attempt", n+1), slog.Duration("backoff", d))

			if err := wait(ctx, d); err != nil {
				return nil, err
			}
		}

		resp, err := c.http.Do(req.WithContext(ctx))
		if err != nil {
			if !retryableErr(err) {
				return nil, err
			}

			lastErr, hint = err, 0

			continue
		}

		if !retryableStatus(resp.StatusCode) {
			return resp, nil
		}

		hint = retryAfter(resp)
		lastErr = fmt.Errorf("upstream answered %s", resp.Status)

		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}

	return nil, lastErr
}

// stamp sets the outbound identification headers and trace context.
func (c *Client) stamp(ctx context.Context, req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)

	if id := middleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderRequestID, id)
	}

	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderCorrelationID, id)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}

func (c *Client) observe(ctx context.Context, method string, status int, start time.Time, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", method),
		attribute.String("peer.service", c.name),
		attribute.String("result", result),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.response.status_code", status))
	}

	set := metric.WithAttributes(attrs...)
	c.duration.Record(ctx, time.Since(start).Seconds(), set)
	c.requests.Add(ctx, 1, set)
}
