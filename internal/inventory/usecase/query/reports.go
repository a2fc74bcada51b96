package query

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/internal/inventory/report"
)

// Reports load tenant snapshots without pagination. Soft-deleted items are
// left out of stock reports unless IncludeInactive is set.

// InventorySummaryQuery represents the query for the inventory summary
type InventorySummaryQuery struct {
	TenantID        string
	CategoryID      string
	IncludeInactive bool
}

// InventorySummaryHandler handles inventory summary query
type InventorySummaryHandler struct {
	repo domain.Repository
}

// NewInventorySummaryHandler creates a new inventory summary handler
func NewInventorySummaryHandler(repo domain.Repository) *InventorySummaryHandler {
	return &InventorySummaryHandler{repo: repo}
}

// Handle executes the inventory summary query
func (h *InventorySummaryHandler) Handle(ctx context.Context, query InventorySummaryQuery) (*report.InventorySummary, error) {
	items, err := loadItems(ctx, h.repo, query.TenantID, query.CategoryID, query.IncludeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize inventory: %w", err)
	}
	summary := report.SummarizeInventory(items)
	return &summary, nil
}

// TransactionSummaryQuery represents the query for the transaction summary
type TransactionSummaryQuery struct {
	TenantID string
	ItemID   string
	UserID   string
	Type     domain.TransactionType
	From     time.Time
	To       time.Time
}

// TransactionSummaryHandler handles transaction summary query
type TransactionSummaryHandler struct {
	repo domain.Repository
}

// NewTransactionSummaryHandler creates a new transaction summary handler
func NewTransactionSummaryHandler(repo domain.Repository) *TransactionSummaryHandler {
	return &TransactionSummaryHandler{repo: repo}
}

// Handle executes the transaction summary query
func (h *TransactionSummaryHandler) Handle(ctx context.Context, query TransactionSummaryQuery) (*report.TransactionSummary, error) {
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
	})
	if err != nil {
		return nil, fmt.Errorf("failed to summarize transactions: %w", err)
	}
	summary := report.SummarizeTransactions(txs)
	return &summary, nil
}

// LowStockQuery represents the query for reorder recommendations
type LowStockQuery struct {
	TenantID   string
	CategoryID string
}

// LowStockHandler handles low stock query
type LowStockHandler struct {
	repo domain.Repository
}

// NewLowStockHandler creates a new low stock handler
func NewLowStockHandler(repo domain.Repository) *LowStockHandler {
	return &LowStockHandler{repo: repo}
}

// Handle executes the low stock query
func (h *LowStockHandler) Handle(ctx context.Context, query LowStockQuery) ([]report.Recommendation, error) {
	items, err := loadItems(ctx, h.repo, query.TenantID, query.CategoryID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load low stock items: %w", err)
	}
	return report.LowStockRecommendations(items), nil
}

// CategoryRollupHandler handles category rollup query
type CategoryRollupHandler struct {
	repo domain.Repository
}

// NewCategoryRollupHandler creates a new category rollup handler
func NewCategoryRollupHandler(repo domain.Repository) *CategoryRollupHandler {
	return &CategoryRollupHandler{repo: repo}
}

// Handle rolls up the tenant's active items per category
func (h *CategoryRollupHandler) Handle(ctx context.Context, tenantID string) ([]report.CategoryStat, error) {
	categories, err := h.repo.ListCategories(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	items, err := loadItems(ctx, h.repo, tenantID, "", false)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	return report.CategoryRollup(categories, items), nil
}

// ClassifyStockQuery represents the query to classify a quantity
type ClassifyStockQuery struct {
	Quantity     int
	MinThreshold int
	MaxThreshold int
}

// ClassifyStockHandler handles classify stock query
type ClassifyStockHandler struct{}

// NewClassifyStockHandler creates a new classify stock handler
func NewClassifyStockHandler() *ClassifyStockHandler {
	return &ClassifyStockHandler{}
}

// Handle executes the classify stock query
func (h *ClassifyStockHandler) Handle(query ClassifyStockQuery) domain.StockStatus {
	return domain.ClassifyStock(query.Quantity, query.MinThreshold, query.MaxThreshold)
}

func loadItems(ctx context.Context, repo domain.Repository, tenantID, categoryID string, includeInactive bool) ([]domain.InventoryItem, error) {
	filter := domain.ItemFilter{TenantID: tenantID, CategoryID: categoryID}
	if !includeInactive {
		active := true
		filter.Active = &active
	}
	return repo.QueryItems(ctx, filter)
}
