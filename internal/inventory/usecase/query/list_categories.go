package query

import (
	"context"
	"fmt"

	"github.com/tair/supply-ledger/internal/inventory/domain"
)

// ListCategoriesHandler handles list categories query
type ListCategoriesHandler struct {
	repo domain.Repository
}

// NewListCategoriesHandler creates a new list categories handler
func NewListCategoriesHandler(repo domain.Repository) *ListCategoriesHandler {
	return &ListCategoriesHandler{repo: repo}
}

// Handle returns every category of the tenant
func (h *ListCategoriesHandler) Handle(ctx context.Context, tenantID string) ([]domain.Category, error) {
	categories, err := h.repo.ListCategories(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
