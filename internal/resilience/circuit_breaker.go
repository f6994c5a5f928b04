package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents a circuit breaker's current state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	MaxFailures int
	Timeout     time.Duration
	HalfOpenMax int
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{MaxFailures: 5, Timeout: 30 * time.Second, HalfOpenMax: 3}
}

// CircuitBreaker guards calls to one upstream collaborator (one breaker per
// upstream interface name, or one for the LLM endpoint).
type CircuitBreaker struct {
	mu           sync.Mutex
	cfg          CircuitBreakerConfig
	state        State
	failures     int
	successes    int
	halfOpenReqs int
	lastFailure  time.Time
}

// NewCircuitBreaker creates a CircuitBreaker with cfg, applying defaults for
// zero fields.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 3
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Execute runs fn guarded by the breaker, short-circuiting with
// ErrCircuitOpen/ErrTooManyRequests when appropriate.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := cb.before(); err != nil {
		return err
	}
	err := fn()
	cb.after(err == nil)
	return err
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastFailure) > cb.cfg.Timeout {
			cb.setState(StateHalfOpen)
			cb.halfOpenReqs = 1
			return nil
		}
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.halfOpenReqs >= cb.cfg.HalfOpenMax {
			return ErrTooManyRequests
		}
		cb.halfOpenReqs++
	}
	return nil
}

func (cb *CircuitBreaker) after(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if success {
		switch cb.state {
		case StateHalfOpen:
			cb.successes++
			if cb.successes >= cb.cfg.HalfOpenMax {
				cb.setState(StateClosed)
			}
		case StateClosed:
			cb.failures = 0
		}
		return
	}

	cb.failures++
	cb.lastFailure = time.Now()
	switch cb.state {
	case StateHalfOpen:
		cb.setState(StateOpen)
	case StateClosed:
		if cb.failures >= cb.cfg.MaxFailures {
			cb.setState(StateOpen)
		}
	}
}

func (cb *CircuitBreaker) setState(next State) {
	if cb.state == next {
		return
	}
	cb.state = next
	cb.failures = 0
	cb.successes = 0
	cb.halfOpenReqs = 0
}

// Registry keeps one CircuitBreaker per named collaborator (e.g. per
// upstream interface name) so one flaky interface cannot trip calls to a
// healthy one.
type Registry struct {
	mu       sync.Mutex
	cfg      CircuitBreakerConfig
	breakers map[string]*CircuitBreaker
}

// NewRegistry creates a Registry that lazily allocates one breaker per key.
func NewRegistry(cfg CircuitBreakerConfig) *Registry {
	return &Registry{cfg: cfg, breakers: make(map[string]*CircuitBreaker)}
}

// Get returns the breaker for key, creating it on first use.
func (r *Registry) Get(key string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	cb, ok := r.breakers[key]
	if !ok {
		cb = NewCircuitBreaker(r.cfg)
		r.breakers[key] = cb
	}
	return cb
}
