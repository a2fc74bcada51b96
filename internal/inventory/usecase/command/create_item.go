package command

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/internal/inventory/ledger"
)

// CreateItemCommand represents the command to create an inventory item
type CreateItemCommand struct {
	TenantID     string
	ActorID      string
	CategoryID   string
	Name         string
	Description  string
	Quantity     int
	Unit         string
	MinThreshold int
	MaxThreshold int
	UnitCost     decimal.Decimal
	Supplier     string
	Location     string
}

// CreateItemResult is the created item and its opening transaction, if any
type CreateItemResult struct {
	Item        *domain.InventoryItem `json:"item"`
	Transaction *domain.Transaction   `json:"transaction,omitempty"`
}

// CreateItemHandler handles create item command
type CreateItemHandler struct {
	engine *ledger.Engine
}

// NewCreateItemHandler creates a new create item handler
func NewCreateItemHandler(engine *ledger.Engine) *CreateItemHandler {
	return &CreateItemHandler{engine: engine}
}

// Handle executes the create item command
func (h *CreateItemHandler) Handle(ctx context.Context, cmd CreateItemCommand) (*CreateItemResult, error) {
	item, tx, err := h.engine.CreateItem(ctx, ledger.CreateItemRequest{
		TenantID:     cmd.TenantID,
		CategoryID:   cmd.CategoryID,
		Name:         cmd.Name,
		Description:  cmd.Description,
		Quantity:     cmd.Quantity,
		Unit:         cmd.Unit,
		MinThreshold: cmd.MinThreshold,
		MaxThreshold: cmd.MaxThreshold,
		UnitCost:     cmd.UnitCost,
		Supplier:     cmd.Supplier,
		Location:     cmd.Location,
		ActorID:      cmd.ActorID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return &CreateItemResult{Item: item, Transaction: tx}, nil
}
