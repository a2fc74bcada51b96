// Package report folds item and transaction snapshots into summaries.
// Every function is pure: callers load the snapshot, nothing here locks or
// writes.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tair/supply-ledger/internal/inventory/domain"
)

// InventorySummary totals a set of items
type InventorySummary struct {
	TotalItems      int             `json:"total_items"`
	TotalQuantity   int             `json:"total_quantity"`
	TotalValue      decimal.Decimal `json:"total_value"`
	LowStockCount   int             `json:"low_stock_count"`
	OutOfStockCount int             `json:"out_of_stock_count"`
	OverstockCount  int             `json:"overstock_count"`
}

// SummarizeInventory counts items and their value. Low stock includes
// out-of-stock items.
func SummarizeInventory(items []domain.InventoryItem) InventorySummary {
	s := InventorySummary{TotalValue: decimal.Zero}
	for i := range items {
		item := &items[i]
		s.TotalItems++
		s.TotalQuantity += item.Quantity
		s.TotalValue = s.TotalValue.Add(item.TotalValue())
		if item.IsLowStock() {
			s.LowStockCount++
		}
		if item.Quantity == 0 {
			s.OutOfStockCount++
		}
		if item.StockStatus() == domain.StatusOverstock {
			s.OverstockCount++
		}
	}
	return s
}

// Recommendation is a suggested reorder for a low-stock item
type Recommendation struct {
	ItemID           string             `json:"item_id"`
	Name             string             `json:"name"`
	CategoryID       string             `json:"category_id"`
	Quantity         int                `json:"quantity"`
	MinThreshold     int                `json:"min_threshold"`
	MaxThreshold     int                `json:"max_threshold"`
	RecommendedOrder int                `json:"recommended_order"`
	UnitCost         decimal.Decimal    `json:"unit_cost"`
	EstimatedCost    decimal.Decimal    `json:"estimated_cost"`
	Status           domain.StockStatus `json:"status"`
	Supplier         string             `json:"supplier,omitempty"`
}

// LowStockRecommendations suggests max(max-q, 2*min) units for every item at
// or below its minimum, emptiest first.
func LowStockRecommendations(items []domain.InventoryItem) []Recommendation {
	recs := make([]Recommendation, 0)
	for i := range items {
		item := &items[i]
		if !item.IsLowStock() {
			continue
		}
		order := max(item.MaxThreshold-item.Quantity, item.MinThreshold*2)
		recs = append(recs, Recommendation{
			ItemID:           item.ID,
			Name:             item.Name,
			CategoryID:       item.CategoryID,
			Quantity:         item.Quantity,
			MinThreshold:     item.MinThreshold,
			MaxThreshold:     item.MaxThreshold,
			RecommendedOrder: order,
			UnitCost:         item.UnitCost,
			EstimatedCost:    item.UnitCost.Mul(decimal.NewFromInt(int64(order))),
			Status:           item.StockStatus(),
			Supplier:         item.Supplier,
		})
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Quantity < recs[j].Quantity })
	return recs
}

// TypeSummary totals the transactions of one type
type TypeSummary struct {
	Count         int             `json:"count"`
	TotalQuantity int             `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// TransactionSummary groups transactions by type
type TransactionSummary struct {
	TotalTransactions int                                    `json:"total_transactions"`
	TotalValue        decimal.Decimal                        `json:"total_value"`
	ByType            map[domain.TransactionType]TypeSummary `json:"by_type"`
}

// SummarizeTransactions counts transactions and their value, |quantity| times
// the unit cost recorded on each transaction.
func SummarizeTransactions(txs []domain.Transaction) TransactionSummary {
	s := TransactionSummary{
		TotalValue: decimal.Zero,
		ByType:     make(map[domain.TransactionType]TypeSummary),
	}
	for i := range txs {
		tx := &txs[i]
		value := tx.Value()

		ts, ok := s.ByType[tx.Type]
		if !ok {
			ts.TotalValue = decimal.Zero
		}
		ts.Count++
		ts.TotalQuantity += abs(tx.Quantity)
		ts.TotalValue = ts.TotalValue.Add(value)
		s.ByType[tx.Type] = ts

		s.TotalTransactions++
		s.TotalValue = s.TotalValue.Add(value)
	}
	return s
}

// CategoryStat rolls up the items of one category
type CategoryStat struct {
	CategoryID    string          `json:"category_id"`
	Name          string          `json:"name"`
	ItemCount     int             `json:"item_count"`
	TotalQuantity int             `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	LowStockCount int             `json:"low_stock_count"`
	AverageValue  decimal.Decimal `json:"average_value"`
}

// CategoryRollup aggregates items per category. Every known category gets a
// row, empty ones with zero average. Items pointing at an unknown category
// are grouped under a row with an empty name, after the known categories.
func CategoryRollup(categories []domain.Category, items []domain.InventoryItem) []CategoryStat {
	stats := make([]CategoryStat, 0, len(categories))
	index := make(map[string]int, len(categories))
	for _, c := range categories {
		index[c.ID] = len(stats)
		stats = append(stats, CategoryStat{CategoryID: c.ID, Name: c.Name, TotalValue: decimal.Zero})
	}

	for i := range items {
		item := &items[i]
		pos, ok := index[item.CategoryID]
		if !ok {
			pos = len(stats)
			index[item.CategoryID] = pos
			stats = append(stats, CategoryStat{CategoryID: item.CategoryID, TotalValue: decimal.Zero})
		}
		st := &stats[pos]
		st.ItemCount++
		st.TotalQuantity += item.Quantity
		st.TotalValue = st.TotalValue.Add(item.TotalValue())
		if item.IsLowStock() {
			st.LowStockCount++
		}
	}

	for i := range stats {
		st := &stats[i]
		if st.ItemCount == 0 {
			st.AverageValue = decimal.Zero
			continue
		}
		st.AverageValue = st.TotalValue.Div(decimal.NewFromInt(int64(st.ItemCount))).Round(2)
	}
	return stats
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
