package query

import (
	"context"
	"fmt"

	"github.com/tair/supply-ledger/internal/inventory/domain"
)

// GetItemQuery represents the query to get one item
type GetItemQuery struct {
	TenantID string
	ItemID   string
}

// GetItemHandler handles get item query
type GetItemHandler struct {
	repo domain.Repository
}

// NewGetItemHandler creates a new get item handler
func NewGetItemHandler(repo domain.Repository) *GetItemHandler {
	return &GetItemHandler{repo: repo}
}

// Handle executes the get item query
func (h *GetItemHandler) Handle(ctx context.Context, query GetItemQuery) (*ItemView, error) {
	item, err := h.repo.GetItem(ctx, query.TenantID, query.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	view := NewItemView(item)
	return &view, nil
}
