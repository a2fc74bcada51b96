package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/tair/supply-ledger/internal/inventory/lock"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLocker sets the per-item locker. Defaults to an in-process locker.
func WithLocker(l lock.Locker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithPublisher sets where committed transactions are announced.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics sets the Prometheus collectors of the engine.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides how item and transaction ids are generated.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

func defaultEngine() *Engine {
	return &Engine{
		locker: lock.NewLocalLocker(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}
