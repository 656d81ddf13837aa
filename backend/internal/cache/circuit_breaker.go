package cache

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

const (
	stateClosed   = "closed"
	stateOpen     = "open"
	stateHalfOpen = "half-open"
)

type CircuitBreakerConfig struct {
	MaxFailures int
	ResetTime   time.Duration
}

func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxFailures: 5,
		ResetTime:   30 * time.Second,
	}
}

// CircuitBreaker stops calling a failing L2 after MaxFailures consecutive
// errors. Once ResetTime has passed it goes half-open and admits a single
// trial; everything else is rejected until that trial resolves.
type CircuitBreaker struct {
	maxFailures int
	resetTime   time.Duration

	mu          sync.Mutex
	state       string
	failures    int
	lastFailure time.Time
	trialRunning     bool
	trips       int64
	rejected    int64
}

func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	return &CircuitBreaker{
		maxFailures: config.MaxFailures,
		resetTime:   config.ResetTime,
		state:       stateClosed,
	}
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	trial, ok := cb.allow()
	if !ok {
		return ErrCircuitOpen
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if trial {
		cb.trialRunning = false
	}

	// a cache miss is an answer, not a failure of the backend
	if err != nil && !errors.Is(err, ErrCacheMiss) {
		cb.failures++
		cb.lastFailure = time.Now()
		if cb.state == stateHalfOpen || cb.failures >= cb.maxFailures {
			if cb.state != stateOpen {
				cb.trips++
			}
			cb.state = stateOpen
		}
		return err
	}

	// while half-open only the trial may close the breaker
	if cb.state == stateHalfOpen && !trial {
		return err
	}
	cb.failures = 0
	cb.state = stateClosed
	return err
}

// allow reports whether the call may proceed and whether it is the
// half-open trial.
func (cb *CircuitBreaker) allow() (trial, ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case stateClosed:
		return false, true
	case stateOpen:
		if time.Since(cb.lastFailure) > cb.resetTime {
			cb.state = stateHalfOpen
			cb.trialRunning = true
			return true, true
		}
	case stateHalfOpen:
		if !cb.trialRunning {
			cb.trialRunning = true
			return true, true
		}
	}
	cb.rejected++
	return false, false
}

func (cb *CircuitBreaker) State() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) GetStats() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return map[string]interface{}{
		"state":    cb.state,
		"failures": cb.failures,
		"trips":    cb.trips,
		"rejected": cb.rejected,
	}
}
