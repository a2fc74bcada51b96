package query

import (
	"context"
	"fmt"

	"github.com/tair/supply-ledger/internal/inventory/domain"
)

// ListItemsQuery represents the query to list items
type ListItemsQuery struct {
	TenantID   string
	CategoryID string
	Active     *bool
	// Status keeps only items in that stock status when set
	Status domain.StockStatus
	Limit  int
	Offset int
}

// ListItemsHandler handles list items query
type ListItemsHandler struct {
	repo domain.Repository
}

// NewListItemsHandler creates a new list items handler
func NewListItemsHandler(repo domain.Repository) *ListItemsHandler {
	return &ListItemsHandler{repo: repo}
}

// Handle executes the list items query
func (h *ListItemsHandler) Handle(ctx context.Context, query ListItemsQuery) ([]ItemView, error) {
	filter := domain.ItemFilter{
		TenantID:   query.TenantID,
		CategoryID: query.CategoryID,
		Active:     query.Active,
		Limit:      clampLimit(query.Limit),
		Offset:     query.Offset,
	}
	// status is derived, so it can only be applied after loading
	if query.Status != "" {
		filter.Limit, filter.Offset = 0, 0
	}

	items, err := h.repo.QueryItems(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	views := make([]ItemView, 0, len(items))
	for i := range items {
		if query.Status != "" && items[i].StockStatus() != query.Status {
			continue
		}
		views = append(views, NewItemView(&items[i]))
	}

	if query.Status != "" {
		views = window(views, clampLimit(query.Limit), query.Offset)
	}
	return views, nil
}

func window[T any](rows []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset > len(rows) {
		offset = len(rows)
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}
