package ledger

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/supply-ledger/internal/inventory/domain"
)

// Metrics holds the Prometheus collectors of the ledger. A nil *Metrics
// records nothing.
type Metrics struct {
	transactions      *prometheus.CounterVec
	applyDuration     *prometheus.HistogramVec
	insufficientStock prometheus.Counter
}

// NewMetrics creates the ledger collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_ledger_transactions_total",
				Help: "Total number of ledger operations by transaction type and result",
			},
			[]string{"type", "result"},
		),
		applyDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inventory_ledger_apply_duration_seconds",
				Help:    "Duration of ledger apply operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		insufficientStock: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "inventory_ledger_insufficient_stock_total",
				Help: "Total number of check-outs rejected for insufficient stock",
			},
		),
	}

	reg.MustRegister(m.transactions, m.applyDuration, m.insufficientStock)
	return m
}

func (m *Metrics) observeApply(txType domain.TransactionType, err error, d time.Duration) {
	if m == nil {
		return
	}
	label := string(txType)
	if !txType.Valid() {
		label = "unknown"
	}
	m.transactions.WithLabelValues(label, resultLabel(err)).Inc()
	m.applyDuration.WithLabelValues(label).Observe(d.Seconds())
	if errors.Is(err, domain.ErrInsufficientStock) {
		m.insufficientStock.Inc()
	}
}

func (m *Metrics) countSynthesized(tx *domain.Transaction) {
	if m == nil || tx == nil {
		return
	}
	m.transactions.WithLabelValues(string(tx.Type), "success").Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case domain.IsValidation(err):
		return "invalid"
	case errors.Is(err, domain.ErrPersistenceConflict):
		return "conflict"
	default:
		return "error"
	}
}
