package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/pkg/logger"
)

// ErrCircuitOpen is returned while the breaker rejects calls
var ErrCircuitOpen = errors.New("kafka: circuit breaker is open")

// CircuitState represents the state of a circuit breaker
type CircuitState string

const (
	StateClosed   CircuitState = "closed"    // Normal operation
	StateOpen     CircuitState = "open"      // Blocking calls
	StateHalfOpen CircuitState = "half-open" // Testing if the broker recovered
)

// CircuitBreaker stops calling a failing broker for a cool-down period
type CircuitBreaker struct {
	name             string
	maxFailures      int
	timeout          time.Duration
	successThreshold int
	state            CircuitState
	failures         int
	successCount     int
	lastStateChange  time.Time
	now              func() time.Time
	mu               sync.Mutex
}

// NewCircuitBreaker opens after maxFailures consecutive failures and probes
// again once timeout has passed
func NewCircuitBreaker(name string, maxFailures int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:             name,
		maxFailures:      maxFailures,
		timeout:          timeout,
		successThreshold: 3,
		state:            StateClosed,
		lastStateChange:  time.Now(),
		now:              time.Now,
	}
}

// Call executes fn unless the circuit is open
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == StateOpen && cb.now().Sub(cb.lastStateChange) > cb.timeout {
		cb.transition(StateHalfOpen)
		logger.Logger.Info().
			Str("circuit", cb.name).
			Msg("Circuit breaker transitioning to half-open")
	}
	state := cb.state
	cb.mu.Unlock()

	if state == StateOpen {
		return ErrCircuitOpen
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
	return err
}

// State returns the current state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++

	if cb.state == StateHalfOpen {
		cb.transition(StateOpen)
		logger.Logger.Warn().
			Str("circuit", cb.name).
			Msg("Circuit breaker reopened after half-open failure")
	} else if cb.failures >= cb.maxFailures {
		cb.transition(StateOpen)
		logger.Logger.Error().
			Str("circuit", cb.name).
			Int("failures", cb.failures).
			Int("threshold", cb.maxFailures).
			Msg("Circuit breaker opened")
	}
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.transition(StateClosed)
			logger.Logger.Info().
				Str("circuit", cb.name).
				Msg("Circuit breaker closed after successful recovery")
		}
	case StateClosed:
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) transition(to CircuitState) {
	cb.state = to
	cb.lastStateChange = cb.now()
	cb.successCount = 0
	if to == StateClosed {
		cb.failures = 0
	}
}

// TransactionPublisher is the publishing side of Publisher
type TransactionPublisher interface {
	PublishTransactionRecorded(ctx context.Context, item *domain.InventoryItem, tx *domain.Transaction) error
}

// GuardedPublisher skips publishing while the broker keeps failing, so
// ledger writes do not wait on producer retries
type GuardedPublisher struct {
	next    TransactionPublisher
	breaker *CircuitBreaker
}

// NewGuardedPublisher wraps next with breaker
func NewGuardedPublisher(next TransactionPublisher, breaker *CircuitBreaker) *GuardedPublisher {
	return &GuardedPublisher{next: next, breaker: breaker}
}

// PublishTransactionRecorded publishes through the breaker
func (p *GuardedPublisher) PublishTransactionRecorded(ctx context.Context, item *domain.InventoryItem, tx *domain.Transaction) error {
	return p.breaker.Call(func() error {
		return p.next.PublishTransactionRecorded(ctx, item, tx)
	})
}
