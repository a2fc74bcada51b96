package domain

import (
	"context"
	"time"
)

// ItemFilter narrows an item query. TenantID is mandatory.
type ItemFilter struct {
	TenantID   string
	CategoryID string
	// Active filters on the active flag when non-nil
	Active *bool
	Limit  int
	Offset int
}

// TransactionFilter narrows a transaction query. TenantID is mandatory.
// Zero From/To leave the range open on that side; To is exclusive.
type TransactionFilter struct {
	TenantID string
	ItemID   string
	UserID   string
	Type     TransactionType
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

// Repository is the persistence port of the inventory service.
// Transactions are returned in the order they were appended.
type Repository interface {
	GetItem(ctx context.Context, tenantID, itemID string) (*InventoryItem, error)
	QueryItems(ctx context.Context, filter ItemFilter) ([]InventoryItem, error)
	QueryTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	CreateCategory(ctx context.Context, category *Category) error
	ListCategories(ctx context.Context, tenantID string) ([]Category, error)

	// Atomically runs fn inside one unit of work. Every write made through
	// the LedgerWriter commits together when fn returns nil and is discarded
	// otherwise.
	Atomically(ctx context.Context, fn func(w LedgerWriter) error) error

	Ping(ctx context.Context) error
}

// LedgerWriter is the write side of a unit of work. It is only handed out
// by Repository.Atomically, which keeps quantity writes inside the ledger.
type LedgerWriter interface {
	// GetItem reads an item for update.
	GetItem(ctx context.Context, tenantID, itemID string) (*InventoryItem, error)
	InsertItem(ctx context.Context, item *InventoryItem) error
	// SaveItem replaces the stored item if its version still equals
	// expectedVersion and fails with ErrPersistenceConflict otherwise.
	// On success item.Version is expectedVersion+1.
	SaveItem(ctx context.Context, item *InventoryItem, expectedVersion int64) error
	AppendTransaction(ctx context.Context, tx *Transaction) error
}
