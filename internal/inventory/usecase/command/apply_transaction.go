package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/internal/inventory/ledger"
)

// ApplyTransactionCommand represents a check-in, check-out or adjustment
type ApplyTransactionCommand struct {
	TenantID string
	ItemID   string
	ActorID  string
	Type     string
	Quantity int
	Reason   string
	Notes    string
	UnitCost *decimal.Decimal
	Supplier string
	Location string
}

// ApplyTransactionHandler handles apply transaction command
type ApplyTransactionHandler struct {
	engine *ledger.Engine
}

// NewApplyTransactionHandler creates a new apply transaction handler
func NewApplyTransactionHandler(engine *ledger.Engine) *ApplyTransactionHandler {
	return &ApplyTransactionHandler{engine: engine}
}

// Handle executes the apply transaction command
func (h *ApplyTransactionHandler) Handle(ctx context.Context, cmd ApplyTransactionCommand) (*domain.Transaction, error) {
	tx, err := h.engine.Apply(ctx, ledger.ApplyRequest{
		TenantID: cmd.TenantID,
		ItemID:   cmd.ItemID,
		Type:     domain.TransactionType(strings.ToLower(strings.TrimSpace(cmd.Type))),
		Quantity: cmd.Quantity,
		ActorID:  cmd.ActorID,
		Reason:   cmd.Reason,
		Notes:    cmd.Notes,
		UnitCost: cmd.UnitCost,
		Supplier: cmd.Supplier,
		Location: cmd.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply transaction: %w", err)
	}
	return tx, nil
}
