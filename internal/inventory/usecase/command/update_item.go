package command

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/internal/inventory/ledger"
)

// UpdateItemCommand represents a partial edit of an item. Nil fields are
// left unchanged.
type UpdateItemCommand struct {
	TenantID     string
	ItemID       string
	ActorID      string
	CategoryID   *string
	Name         *string
	Description  *string
	Unit         *string
	MinThreshold *int
	MaxThreshold *int
	UnitCost     *decimal.Decimal
	Supplier     *string
	Location     *string
	Quantity     *int
}

// UpdateItemResult is the edited item and the adjustment it caused, if any
type UpdateItemResult struct {
	Item        *domain.InventoryItem `json:"item"`
	Transaction *domain.Transaction   `json:"transaction,omitempty"`
}

// UpdateItemHandler handles update item command
type UpdateItemHandler struct {
	engine *ledger.Engine
}

// NewUpdateItemHandler creates a new update item handler
func NewUpdateItemHandler(engine *ledger.Engine) *UpdateItemHandler {
	return &UpdateItemHandler{engine: engine}
}

// Handle executes the update item command
func (h *UpdateItemHandler) Handle(ctx context.Context, cmd UpdateItemCommand) (*UpdateItemResult, error) {
	item, tx, err := h.engine.UpdateItem(ctx, ledger.UpdateItemRequest{
		TenantID:     cmd.TenantID,
		ItemID:       cmd.ItemID,
		ActorID:      cmd.ActorID,
		CategoryID:   cmd.CategoryID,
		Name:         cmd.Name,
		Description:  cmd.Description,
		Unit:         cmd.Unit,
		MinThreshold: cmd.MinThreshold,
		MaxThreshold: cmd.MaxThreshold,
		UnitCost:     cmd.UnitCost,
		Supplier:     cmd.Supplier,
		Location:     cmd.Location,
		Quantity:     cmd.Quantity,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	return &UpdateItemResult{Item: item, Transaction: tx}, nil
}
