package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem represents a school supply tracked by a tenant.
// Quantity is a materialized view of the item's transaction log and is only
// written by the ledger engine.
type InventoryItem struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID     string          `json:"tenant_id" gorm:"not null;index:idx_items_tenant_category"`
	CategoryID   string          `json:"category_id" gorm:"index:idx_items_tenant_category"`
	Name         string          `json:"name" gorm:"not null"`
	Description  string          `json:"description"`
	Quantity     int             `json:"quantity" gorm:"not null;default:0"`
	Unit         string          `json:"unit" gorm:"default:'pcs'"`
	MinThreshold int             `json:"min_threshold" gorm:"not null;default:0"`
	MaxThreshold int             `json:"max_threshold" gorm:"not null;default:0"`
	UnitCost     decimal.Decimal `json:"unit_cost" gorm:"type:numeric(12,2);not null;default:0"`
	Supplier     string          `json:"supplier"`
	Location     string          `json:"location"`
	IsActive     bool            `json:"is_active" gorm:"not null;default:true;index"`
	Version      int64           `json:"version" gorm:"not null;default:0"`
	CreatedBy    string          `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName specifies the table name
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// StockStatus classifies the item against its thresholds
func (i *InventoryItem) StockStatus() StockStatus {
	return ClassifyStock(i.Quantity, i.MinThreshold, i.MaxThreshold)
}

// TotalValue returns quantity multiplied by unit cost
func (i *InventoryItem) TotalValue() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// IsLowStock reports whether the item is at or below its minimum threshold.
// Out-of-stock items are low stock too.
func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.MinThreshold
}

// Validate checks the writable attributes of an item.
func (i *InventoryItem) Validate() error {
	if strings.TrimSpace(i.TenantID) == "" {
		return &ValidationError{Field: "tenant_id", Message: "is required"}
	}
	if strings.TrimSpace(i.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if i.Quantity < 0 {
		return ErrInvalidQuantity
	}
	if i.UnitCost.IsNegative() {
		return &ValidationError{Field: "unit_cost", Message: "cannot be negative"}
	}
	return ValidateThresholds(i.MinThreshold, i.MaxThreshold)
}

// ValidateThresholds rejects negative thresholds and a maximum below the minimum.
func ValidateThresholds(minThreshold, maxThreshold int) error {
	if minThreshold < 0 || maxThreshold < 0 {
		return ErrInvalidThreshold
	}
	if maxThreshold < minThreshold {
		return ErrInvalidThreshold
	}
	return nil
}

// Category groups items for reporting
type Category struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID    string    `json:"tenant_id" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name
func (Category) TableName() string {
	return "categories"
}
