package query

import (
	"github.com/shopspring/decimal"

	"github.com/tair/supply-ledger/internal/inventory/domain"
)

// ItemView is an item with its derived fields
type ItemView struct {
	domain.InventoryItem
	StockStatus domain.StockStatus `json:"stock_status"`
	TotalValue  decimal.Decimal    `json:"total_value"`
}

// NewItemView computes the derived fields of item
func NewItemView(item *domain.InventoryItem) ItemView {
	return ItemView{
		InventoryItem: *item,
		StockStatus:   item.StockStatus(),
		TotalValue:    item.TotalValue(),
	}
}

const (
	defaultLimit = 10
	maxLimit     = 100
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
