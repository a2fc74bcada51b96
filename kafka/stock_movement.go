package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/internal/inventory/usecase/command"
	"github.com/tair/supply-ledger/pkg/logger"
)

// Deduplicator remembers processed event ids. lock.IdempotencyGuard
// implements it.
type Deduplicator interface {
	Claim(ctx context.Context, scope, key string) (bool, error)
	Forget(ctx context.Context, scope, key string) error
}

// NewStockMovementHandler applies requested movements through the ledger.
// Redelivered events are skipped when dedup is set. Business rejections
// such as insufficient stock are logged and acknowledged. Any other failure
// releases the event id and is returned for retry.
func NewStockMovementHandler(apply *command.ApplyTransactionHandler, dedup Deduplicator) EventHandler {
	return func(ctx context.Context, eventID string, payload []byte) error {
		var event StockMovementRequestedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		if event.EventID == "" {
			event.EventID = eventID
		}

		if dedup != nil && event.EventID != "" {
			fresh, err := dedup.Claim(ctx, event.TenantID, event.EventID)
			if err != nil {
				return fmt.Errorf("failed to claim event: %w", err)
			}
			if !fresh {
				logger.ForItem(ctx, event.TenantID, event.ItemID).Info().
					Str("event_id", event.EventID).
					Msg("Duplicate stock movement skipped")
				return nil
			}
		}

		tx, err := apply.Handle(ctx, command.ApplyTransactionCommand{
			TenantID: event.TenantID,
			ItemID:   event.ItemID,
			ActorID:  event.ActorID,
			Type:     event.Type,
			Quantity: event.Quantity,
			Reason:   event.Reason,
			Notes:    event.Notes,
			UnitCost: event.UnitCost,
			Supplier: event.Supplier,
			Location: event.Location,
		})
		if err != nil {
			if !rejected(err) {
				if dedup != nil && event.EventID != "" {
					if ferr := dedup.Forget(ctx, event.TenantID, event.EventID); ferr != nil {
						logger.Warn(ctx).Err(ferr).Str("event_id", event.EventID).Msg("Failed to release event id")
					}
				}
				return err
			}
			logger.ForItem(ctx, event.TenantID, event.ItemID).Warn().
				Err(err).
				Str("event_id", event.EventID).
				Str("type", event.Type).
				Int("quantity", event.Quantity).
				Msg("Stock movement rejected")
			return nil
		}

		logger.ForItem(ctx, event.TenantID, event.ItemID).Info().
			Str("event_id", event.EventID).
			Str("transaction_id", tx.ID).
			Int("new_quantity", tx.NewQuantity).
			Msg("Stock movement applied")
		return nil
	}
}

// rejected reports whether the ledger refused the movement itself; such
// events will never succeed on redelivery
func rejected(err error) bool {
	return domain.IsValidation(err) ||
		domain.IsNotFound(err) ||
		errors.Is(err, domain.ErrInsufficientStock)
}
