package clients

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jsamuelsen/quote-session/internal/platform/config"
)

// jitterFraction spreads each backoff by up to this share either way.
const jitterFraction = 0.25

// backoff computes retry delays: InitialInterval grown by Multiplier per
// attempt, capped at MaxInterval, then jittered.
type backoff struct {
	cfg    config.RetryConfig
	jitter func() float64
}

func newBackoff(cfg config.RetryConfig) backoff {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}

	return backoff{cfg: cfg, jitter: rand.Float64} //nolint:gosec // jitter only
}

// delay returns the wait before attempt (1-based retries). A Retry-After
// hint from the upstream wins when it is shorter than MaxInterval.
func (b backoff) delay(attempt int, hint time.Duration) time.Duration {
	if hint > 0 && (b.cfg.MaxInterval <= 0 || hint <= b.cfg.MaxInterval) {
		return hint
	}

	d := float64(b.cfg.InitialInterval) * math.Pow(b.cfg.Multiplier, float64(attempt-1))
	if b.cfg.MaxInterval > 0 {
		d = min(d, float64(b.cfg.MaxInterval))
	}

	d *= 1 + jitterFraction*(2*b.jitter()-1)

	return time.Duration(d)
}

// wait sleeps for d or until ctx ends.
func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retryableStatus reports whether an upstream status is worth another try.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// retryableErr reports whether a transport error is transient. Context
// errors never are: the caller has given up.
func retryableErr(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	var oe *net.OpError

	return errors.As(err, &oe)
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(resp *http.Response) time.Duration {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}

	return time.Duration(secs) * time.Second
}
