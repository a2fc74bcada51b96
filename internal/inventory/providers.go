package inventory

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	grpcDelivery "github.com/tair/supply-ledger/internal/inventory/delivery/grpc"
	httpDelivery "github.com/tair/supply-ledger/internal/inventory/delivery/http"
	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/internal/inventory/ledger"
	"github.com/tair/supply-ledger/internal/inventory/lock"
	"github.com/tair/supply-ledger/internal/inventory/usecase/command"
	"github.com/tair/supply-ledger/internal/inventory/usecase/query"
)

// Service is everything the inventory binary serves
type Service struct {
	Engine       *ledger.Engine
	HTTP         *httpDelivery.InventoryHandler
	GRPC         *grpcDelivery.LedgerGRPCServer
	Interceptors *grpcDelivery.Interceptors
	// ApplyTransaction is shared with the stock movement consumer
	ApplyTransaction *command.ApplyTransactionHandler
}

// ProvideLedgerMetrics provides the ledger collectors
func ProvideLedgerMetrics(reg prometheus.Registerer) *ledger.Metrics {
	return ledger.NewMetrics(reg)
}

// ProvideEngine provides the ledger engine. A nil publisher disables events.
func ProvideEngine(repo domain.Repository, locker lock.Locker, publisher ledger.Publisher, metrics *ledger.Metrics) *ledger.Engine {
	opts := []ledger.Option{
		ledger.WithLocker(locker),
		ledger.WithMetrics(metrics),
	}
	if publisher != nil {
		opts = append(opts, ledger.WithPublisher(publisher))
	}
	return ledger.New(repo, opts...)
}

// Wire sets
var LedgerSet = wire.NewSet(
	ProvideLedgerMetrics,
	ProvideEngine,
)

var CommandHandlerSet = wire.NewSet(
	command.NewCreateItemHandler,
	command.NewUpdateItemHandler,
	command.NewDeactivateItemHandler,
	command.NewApplyTransactionHandler,
	command.NewCreateCategoryHandler,
)

var QueryHandlerSet = wire.NewSet(
	query.NewGetItemHandler,
	query.NewListItemsHandler,
	query.NewListTransactionsHandler,
	query.NewListCategoriesHandler,
	query.NewInventorySummaryHandler,
	query.NewTransactionSummaryHandler,
	query.NewLowStockHandler,
	query.NewCategoryRollupHandler,
	query.NewClassifyStockHandler,
)

var DeliverySet = wire.NewSet(
	wire.Struct(new(httpDelivery.Commands), "*"),
	wire.Struct(new(httpDelivery.Queries), "*"),
	httpDelivery.NewInventoryHandler,
	grpcDelivery.NewLedgerGRPCServer,
	grpcDelivery.NewInterceptors,
)

var AllHandlersSet = wire.NewSet(
	LedgerSet,
	CommandHandlerSet,
	QueryHandlerSet,
	DeliverySet,
	wire.Struct(new(Service), "*"),
)
