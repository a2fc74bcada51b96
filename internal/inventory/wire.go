//go:build wireinject
// +build wireinject

package inventory

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	httpDelivery "github.com/tair/supply-ledger/internal/inventory/delivery/http"
	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/internal/inventory/ledger"
	"github.com/tair/supply-ledger/internal/inventory/lock"
	"github.com/tair/supply-ledger/pkg/auth"
)

// InitializeService initializes the ledger and its delivery layers with all dependencies
func InitializeService(
	repo domain.Repository,
	locker lock.Locker,
	publisher ledger.Publisher,
	idempotency httpDelivery.IdempotencyStore,
	limiter httpDelivery.RateLimiter,
	tokens *auth.TokenManager,
	reg prometheus.Registerer,
) (*Service, error) {
	wire.Build(AllHandlersSet)
	return nil, nil
}
