package clients

import (
	"sync"
	"time"

	"github.com/jsamuelsen/quote-session/internal/platform/config"
)

// State is the position of a circuit breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}

	return stateNames[s]
}

const (
	defaultMaxFailures   = 5
	defaultOpenTimeout   = 30 * time.Second
	defaultHalfOpenLimit = 1
)

// CircuitBreaker guards the quote API. While open, loads from the remote
// source fail fast instead of waiting on timeouts.
//
//	closed    --MaxFailures consecutive failures-->  open
//	open      --Timeout elapsed, next Allow------->  half-open
//	half-open --HalfOpenLimit successes----------->  closed
//	half-open --any failure----------------------->  open
type CircuitBreaker struct {
	maxFailures   int
	openFor       time.Duration
	halfOpenLimit int

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	probes      int
	openedAt    time.Time
	lastFailure time.Time
	trips       int

	onChange func(from, to State)
	now      func() time.Time
}

// NewCircuitBreaker creates a closed breaker. Zero fields of cfg fall back
// to 5 failures, 30s open and a single half-open probe.
func NewCircuitBreaker(cfg config.CircuitBreakerConfig) *CircuitBreaker {
	cb := &CircuitBreaker{
		maxFailures:   cfg.MaxFailures,
		openFor:       cfg.Timeout,
		halfOpenLimit: cfg.HalfOpenLimit,
		now:           time.Now,
	}

	if cb.maxFailures <= 0 {
		cb.maxFailures = defaultMaxFailures
	}

	if cb.openFor <= 0 {
		cb.openFor = defaultOpenTimeout
	}

	if cb.halfOpenLimit <= 0 {
		cb.halfOpenLimit = defaultHalfOpenLimit
	}

	return cb
}

// OnStateChange registers fn to run after every transition. fn runs on the
// goroutine that caused the change, outside the breaker lock.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	cb.onChange = fn
	cb.mu.Unlock()
}

// Allow reports whether a request may go out. Once the open period has
// passed it admits up to HalfOpenLimit concurrent probes.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()

	var (
		allowed bool
		change  func()
	)

	switch cb.state {
	case StateClosed:
		allowed = true
	case StateOpen:
		if cb.now().Sub(cb.openedAt) >= cb.openFor {
			change = cb.moveLocked(StateHalfOpen)
			cb.probes = 1
			allowed = true
		}
	case StateHalfOpen:
		if cb.probes < cb.halfOpenLimit {
			cb.probes++
			allowed = true
		}
	}

	cb.mu.Unlock()
	notify(change)

	return allowed
}

// RecordSuccess reports a request that reached the upstream and succeeded.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()

	var change func()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.probes--
		cb.successes++

		if cb.successes >= cb.halfOpenLimit {
			change = cb.moveLocked(StateClosed)
		}
	}

	cb.mu.Unlock()
	notify(change)
}

// RecordFailure reports a failed request.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()

	var change func()

	cb.lastFailure = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failures++

		if cb.failures >= cb.maxFailures {
			change = cb.moveLocked(StateOpen)
		}
	case StateHalfOpen:
		cb.probes--
		change = cb.moveLocked(StateOpen)
	}

	cb.mu.Unlock()
	notify(change)
}

// State returns the current position.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// Snapshot is a point-in-time view of the breaker, reported by health checks.
type Snapshot struct {
	State       State
	Failures    int
	LastFailure time.Time

	// OpenedAt is when the breaker last opened.
	OpenedAt time.Time

	// Trips counts closed or half-open to open transitions.
	Trips int
}

// Snapshot returns the breaker's state and counters.
func (cb *CircuitBreaker) Snapshot() Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Snapshot{
		State:       cb.state,
		Failures:    cb.failures,
		LastFailure: cb.lastFailure,
		OpenedAt:    cb.openedAt,
		Trips:       cb.trips,
	}
}

// moveLocked switches state and returns the pending notification.
func (cb *CircuitBreaker) moveLocked(to State) func() {
	from := cb.state
	if from == to {
		return nil
	}

	cb.state = to
	cb.failures = 0
	cb.successes = 0

	if to == StateOpen {
		cb.openedAt = cb.now()
		cb.trips++
	}

	if fn := cb.onChange; fn != nil {
		return func() { fn(from, to) }
	}

	return nil
}

func notify(change func()) {
	if change != nil {
		change()
	}
}
