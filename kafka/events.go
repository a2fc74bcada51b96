package kafka

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecordedEvent announces a committed ledger transaction
type TransactionRecordedEvent struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	TenantID         string          `json:"tenant_id"`
	ItemID           string          `json:"item_id"`
	ItemName         string          `json:"item_name"`
	TransactionID    string          `json:"transaction_id"`
	TransactionType  string          `json:"transaction_type"`
	Quantity         int             `json:"quantity"`
	PreviousQuantity int             `json:"previous_quantity"`
	NewQuantity      int             `json:"new_quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	UserID           string          `json:"user_id"`
	Reason           string          `json:"reason,omitempty"`
	StockStatus      string          `json:"stock_status"`
	Timestamp        time.Time       `json:"timestamp"`
}

// StockMovementRequestedEvent asks the ledger to apply a movement on behalf
// of another service
type StockMovementRequestedEvent struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	TenantID  string           `json:"tenant_id"`
	ItemID    string           `json:"item_id"`
	ActorID   string           `json:"actor_id"`
	Type      string           `json:"type"`
	Quantity  int              `json:"quantity"`
	Reason    string           `json:"reason,omitempty"`
	Notes     string           `json:"notes,omitempty"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
	Supplier  string           `json:"supplier,omitempty"`
	Location  string           `json:"location,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Event types
const (
	EventTypeTransactionRecorded    = "transaction.recorded"
	EventTypeStockMovementRequested = "stock.movement.requested"
)

// Kafka topics
const (
	TopicInventoryTransactions = "inventory-transactions"
	TopicStockMovements        = "stock-movements"
)

// Header keys
const (
	headerEventType = "event_type"
	headerEventID   = "event_id"
)
