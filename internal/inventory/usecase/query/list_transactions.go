package query

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/supply-ledger/internal/inventory/domain"
)

// ListTransactionsQuery represents the query to list ledger entries
type ListTransactionsQuery struct {
	TenantID string
	ItemID   string
	UserID   string
	Type     domain.TransactionType
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

// ListTransactionsHandler handles list transactions query
type ListTransactionsHandler struct {
	repo domain.Repository
}

// NewListTransactionsHandler creates a new list transactions handler
func NewListTransactionsHandler(repo domain.Repository) *ListTransactionsHandler {
	return &ListTransactionsHandler{repo: repo}
}

// Handle executes the list transactions query
func (h *ListTransactionsHandler) Handle(ctx context.Context, query ListTransactionsQuery) ([]domain.Transaction, error) {
	if query.Type != "" && !query.Type.Valid() {
		return nil, domain.ErrInvalidType
	}

	txs, err := h.repo.QueryTransactions(ctx, domain.TransactionFilter{
		TenantID: query.TenantID,
		ItemID:   query.ItemID,
		UserID:   query.UserID,
		Type:     query.Type,
		From:     query.From,
		To:       query.To,
		Limit:    clampLimit(query.Limit),
		Offset:   query.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}
