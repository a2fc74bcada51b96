package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies how a transaction moved stock
type TransactionType string

// Transaction types
const (
	TypeCheckIn    TransactionType = "check-in"
	TypeCheckOut   TransactionType = "check-out"
	TypeAdjustment TransactionType = "adjustment"
	TypeTransfer   TransactionType = "transfer"
)

// Reasons recorded on transactions synthesized by the ledger
const (
	ReasonInitialStock     = "initial stock"
	ReasonManualAdjustment = "manual adjustment"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	switch t {
	case TypeCheckIn, TypeCheckOut, TypeAdjustment, TypeTransfer:
		return true
	}
	return false
}

// Applicable reports whether the ledger engine accepts t as an operation.
// Transfers are recognised in the log but cannot be applied directly.
func (t TransactionType) Applicable() bool {
	return t == TypeCheckIn || t == TypeCheckOut || t == TypeAdjustment
}

// Transaction is an immutable entry of the ledger.
// PreviousQuantity + Quantity always equals NewQuantity.
type Transaction struct {
	ID               string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID         string          `json:"tenant_id" gorm:"not null;index:idx_tx_tenant_created"`
	ItemID           string          `json:"item_id" gorm:"not null;index"`
	UserID           string          `json:"user_id" gorm:"not null;index"`
	Type             TransactionType `json:"type" gorm:"type:varchar(16);not null;index"`
	Quantity         int             `json:"quantity" gorm:"not null"`
	PreviousQuantity int             `json:"previous_quantity" gorm:"not null"`
	NewQuantity      int             `json:"new_quantity" gorm:"not null"`
	Reason           string          `json:"reason"`
	Notes            string          `json:"notes"`
	UnitCost         decimal.Decimal `json:"unit_cost" gorm:"type:numeric(12,2);not null;default:0"`
	Supplier         string          `json:"supplier,omitempty"`
	Location         string          `json:"location,omitempty"`
	CreatedAt        time.Time       `json:"created_at" gorm:"index:idx_tx_tenant_created"`
}

// TableName specifies the table name
func (Transaction) TableName() string {
	return "inventory_transactions"
}

// Balanced checks the ledger invariant of the entry
func (t *Transaction) Balanced() bool {
	return t.PreviousQuantity+t.Quantity == t.NewQuantity
}

// Value returns |quantity| * unit cost
func (t *Transaction) Value() decimal.Decimal {
	q := t.Quantity
	if q < 0 {
		q = -q
	}
	return t.UnitCost.Mul(decimal.NewFromInt(int64(q)))
}
