package command

import (
	"context"
	"fmt"

	"github.com/tair/supply-ledger/internal/inventory/ledger"
)

// DeactivateItemCommand represents the command to soft-delete an item
type DeactivateItemCommand struct {
	TenantID string
	ItemID   string
	ActorID  string
}

// DeactivateItemHandler handles deactivate item command
type DeactivateItemHandler struct {
	engine *ledger.Engine
}

// NewDeactivateItemHandler creates a new deactivate item handler
func NewDeactivateItemHandler(engine *ledger.Engine) *DeactivateItemHandler {
	return &DeactivateItemHandler{engine: engine}
}

// Handle executes the deactivate item command
func (h *DeactivateItemHandler) Handle(ctx context.Context, cmd DeactivateItemCommand) error {
	if err := h.engine.DeactivateItem(ctx, cmd.TenantID, cmd.ItemID, cmd.ActorID); err != nil {
		return fmt.Errorf("failed to deactivate item: %w", err)
	}
	return nil
}
