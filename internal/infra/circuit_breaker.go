package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Guards each notification sink (Redis channel, Kafka topic) so a dead broker
// costs one fast failure instead of a timeout on every sale.
//
//   closed ──(N consecutive failures)──▶ open ──(cool-down)──▶ half-open
//   half-open ──(M successes)──▶ closed,  half-open ──(failure)──▶ open

type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Execute while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	FailureThreshold int           // consecutive failures that trip the breaker
	SuccessThreshold int           // half-open successes needed to close again
	OpenTimeout      time.Duration // cool-down before a probe is let through
}

// DefaultCBConfig suits a best-effort sink: trip fast, probe every 30s.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: 30 * time.Second}
}

type CircuitBreaker struct {
	name string
	cfg  CircuitBreakerConfig
	now  func() time.Time

	mu        sync.Mutex
	state     CBState
	failures  int
	successes int
	openedAt  time.Time
}

// NewCircuitBreaker creates a named breaker in the closed state.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{name: name, cfg: cfg, now: time.Now}
}

// State reports the current state, moving open → half-open once the
// cool-down has elapsed.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked()
}

func (cb *CircuitBreaker) stateLocked() CBState {
	if cb.state == CBOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.transition(CBHalfOpen)
	}
	return cb.state
}

// Execute runs fn unless the breaker is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.stateLocked() == CBOpen {
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failures++
		if cb.state == CBHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
			cb.openedAt = cb.now()
			cb.transition(CBOpen)
		}
		return err
	}

	cb.failures = 0
	if cb.state == CBHalfOpen {
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.transition(CBClosed)
		}
	}
	return nil
}

// transition must be called under lock.
func (cb *CircuitBreaker) transition(to CBState) {
	if cb.state == to {
		return
	}
	log.Warn().Str("breaker", cb.name).Str("from", cb.state.String()).Str("to", to.String()).Msg("circuit breaker state change")
	cb.state = to
	cb.failures = 0
	cb.successes = 0
}
