// Package ledger owns every change to an item's quantity. Each change is
// persisted together with exactly one transaction describing it.
package ledger

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/internal/inventory/lock"
	"github.com/tair/supply-ledger/pkg/logger"
)

// Publisher announces committed transactions to other services.
type Publisher interface {
	PublishTransactionRecorded(ctx context.Context, item *domain.InventoryItem, tx *domain.Transaction) error
}

// Engine applies check-ins, check-outs and adjustments
type Engine struct {
	repo      domain.Repository
	locker    lock.Locker
	publisher Publisher
	metrics   *Metrics
	now       func() time.Time
	newID     func() string
}

// New creates a new ledger engine
func New(repo domain.Repository, opts ...Option) *Engine {
	e := defaultEngine()
	e.repo = repo
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ApplyRequest describes one stock movement.
// For check-in and check-out Quantity is the positive amount to move; for an
// adjustment it is the absolute target quantity.
type ApplyRequest struct {
	TenantID string
	ItemID   string
	Type     domain.TransactionType
	Quantity int
	ActorID  string
	Reason   string
	Notes    string
	// UnitCost overrides the item's unit cost on the transaction
	UnitCost *decimal.Decimal
	Supplier string
	Location string
}

// Apply validates and applies a stock movement
func (e *Engine) Apply(ctx context.Context, req ApplyRequest) (*domain.Transaction, error) {
	start := time.Now()
	tx, err := e.apply(ctx, req)
	e.metrics.observeApply(req.Type, err, time.Since(start))
	return tx, err
}

func (e *Engine) apply(ctx context.Context, req ApplyRequest) (*domain.Transaction, error) {
	if !req.Type.Applicable() {
		return nil, domain.ErrInvalidType
	}
	if req.Quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if req.Quantity == 0 && req.Type != domain.TypeAdjustment {
		return nil, domain.ErrInvalidQuantity
	}
	if req.UnitCost != nil && req.UnitCost.IsNegative() {
		return nil, &domain.ValidationError{Field: "unit_cost", Message: "cannot be negative"}
	}
	if strings.TrimSpace(req.TenantID) == "" {
		return nil, &domain.ValidationError{Field: "tenant_id", Message: "is required"}
	}

	release, err := e.locker.Lock(ctx, lock.ItemKey(req.TenantID, req.ItemID))
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		item *domain.InventoryItem
		tx   *domain.Transaction
	)

	err = e.repo.Atomically(ctx, func(w domain.LedgerWriter) error {
		current, err := e.loadActive(ctx, w, req.TenantID, req.ItemID)
		if err != nil {
			return err
		}

		previous := current.Quantity
		var next int
		switch req.Type {
		case domain.TypeCheckIn:
			if req.Quantity > math.MaxInt-previous {
				return domain.ErrInvalidQuantity
			}
			next = previous + req.Quantity
		case domain.TypeCheckOut:
			if req.Quantity > previous {
				return &domain.InsufficientStockError{Available: previous, Requested: req.Quantity}
			}
			next = previous - req.Quantity
		case domain.TypeAdjustment:
			next = req.Quantity
		}

		cost := current.UnitCost
		if req.UnitCost != nil {
			cost = *req.UnitCost
		}

		now := e.now().UTC()
		expected := current.Version
		current.Quantity = next
		current.UpdatedAt = now
		if err := w.SaveItem(ctx, current, expected); err != nil {
			return err
		}

		entry := &domain.Transaction{
			ID:               e.newID(),
			TenantID:         req.TenantID,
			ItemID:           current.ID,
			UserID:           req.ActorID,
			Type:             req.Type,
			Quantity:         next - previous,
			PreviousQuantity: previous,
			NewQuantity:      next,
			Reason:           req.Reason,
			Notes:            req.Notes,
			UnitCost:         cost,
			Supplier:         req.Supplier,
			Location:         req.Location,
			CreatedAt:        now,
		}
		if err := w.AppendTransaction(ctx, entry); err != nil {
			return err
		}

		item, tx = current, entry
		return nil
	})
	if err != nil {
		var insufficient *domain.InsufficientStockError
		if errors.As(err, &insufficient) {
			logger.ForItem(ctx, req.TenantID, req.ItemID).Warn().
				Int("available", insufficient.Available).
				Int("requested", insufficient.Requested).
				Msg("Check-out rejected: insufficient stock")
		}
		return nil, err
	}

	e.committed(ctx, item, tx)
	return tx, nil
}

// CreateItemRequest describes a new item and its opening stock
type CreateItemRequest struct {
	TenantID     string
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
	ActorID      string
}

// CreateItem persists a new item. A positive opening quantity is recorded as
// an "initial stock" check-in in the same unit of work; the returned
// transaction is nil otherwise.
func (e *Engine) CreateItem(ctx context.Context, req CreateItemRequest) (*domain.InventoryItem, *domain.Transaction, error) {
	now := e.now().UTC()
	item := &domain.InventoryItem{
		ID:           e.newID(),
		TenantID:     req.TenantID,
		CategoryID:   req.CategoryID,
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		MinThreshold: req.MinThreshold,
		MaxThreshold: req.MaxThreshold,
		UnitCost:     req.UnitCost,
		Supplier:     req.Supplier,
		Location:     req.Location,
		IsActive:     true,
		Version:      1,
		CreatedBy:    req.ActorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if item.Unit == "" {
		item.Unit = "pcs"
	}
	if err := item.Validate(); err != nil {
		return nil, nil, err
	}
	if err := e.checkCategory(ctx, item.TenantID, item.CategoryID); err != nil {
		return nil, nil, err
	}

	var tx *domain.Transaction
	if item.Quantity > 0 {
		tx = &domain.Transaction{
			ID:               e.newID(),
			TenantID:         item.TenantID,
			ItemID:           item.ID,
			UserID:           req.ActorID,
			Type:             domain.TypeCheckIn,
			Quantity:         item.Quantity,
			PreviousQuantity: 0,
			NewQuantity:      item.Quantity,
			Reason:           domain.ReasonInitialStock,
			UnitCost:         item.UnitCost,
			Supplier:         item.Supplier,
			Location:         item.Location,
			CreatedAt:        now,
		}
	}

	err := e.repo.Atomically(ctx, func(w domain.LedgerWriter) error {
		if err := w.InsertItem(ctx, item); err != nil {
			return err
		}
		if tx != nil {
			return w.AppendTransaction(ctx, tx)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.ForItem(ctx, item.TenantID, item.ID).Info().
		Str("name", item.Name).
		Int("quantity", item.Quantity).
		Msg("Inventory item created")

	if tx != nil {
		e.metrics.countSynthesized(tx)
		e.committed(ctx, item, tx)
	}
	return item, tx, nil
}

// UpdateItemRequest edits an item. Nil fields are left unchanged.
type UpdateItemRequest struct {
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
	// Quantity, when it differs from the stored value, is recorded as a
	// "manual adjustment" transaction.
	Quantity *int
}

// UpdateItem applies a field edit. The returned transaction is non-nil only
// when the quantity changed.
func (e *Engine) UpdateItem(ctx context.Context, req UpdateItemRequest) (*domain.InventoryItem, *domain.Transaction, error) {
	if req.Quantity != nil && *req.Quantity < 0 {
		return nil, nil, domain.ErrInvalidQuantity
	}
	if req.CategoryID != nil {
		if err := e.checkCategory(ctx, req.TenantID, *req.CategoryID); err != nil {
			return nil, nil, err
		}
	}

	release, err := e.locker.Lock(ctx, lock.ItemKey(req.TenantID, req.ItemID))
	if err != nil {
		return nil, nil, err
	}
	defer release()

	var (
		item *domain.InventoryItem
		tx   *domain.Transaction
	)

	err = e.repo.Atomically(ctx, func(w domain.LedgerWriter) error {
		current, err := e.loadActive(ctx, w, req.TenantID, req.ItemID)
		if err != nil {
			return err
		}
		expected := current.Version
		previous := current.Quantity

		applyEdits(current, req)
		if err := current.Validate(); err != nil {
			return err
		}

		now := e.now().UTC()
		current.UpdatedAt = now
		if err := w.SaveItem(ctx, current, expected); err != nil {
			return err
		}

		if current.Quantity != previous {
			tx = &domain.Transaction{
				ID:               e.newID(),
				TenantID:         current.TenantID,
				ItemID:           current.ID,
				UserID:           req.ActorID,
				Type:             domain.TypeAdjustment,
				Quantity:         current.Quantity - previous,
				PreviousQuantity: previous,
				NewQuantity:      current.Quantity,
				Reason:           domain.ReasonManualAdjustment,
				UnitCost:         current.UnitCost,
				CreatedAt:        now,
			}
			if err := w.AppendTransaction(ctx, tx); err != nil {
				return err
			}
		}

		item = current
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.ForItem(ctx, item.TenantID, item.ID).Info().
		Int64("version", item.Version).
		Bool("quantity_changed", tx != nil).
		Msg("Inventory item updated")

	if tx != nil {
		e.metrics.countSynthesized(tx)
		e.committed(ctx, item, tx)
	}
	return item, tx, nil
}

// checkCategory requires a non-empty categoryID to name one of the tenant's
// categories
func (e *Engine) checkCategory(ctx context.Context, tenantID, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	categories, err := e.repo.ListCategories(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, c := range categories {
		if c.ID == categoryID {
			return nil
		}
	}
	return &domain.ValidationError{Field: "category_id", Message: "unknown category"}
}

func applyEdits(item *domain.InventoryItem, req UpdateItemRequest) {
	if req.CategoryID != nil {
		item.CategoryID = *req.CategoryID
	}
	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.MinThreshold != nil {
		item.MinThreshold = *req.MinThreshold
	}
	if req.MaxThreshold != nil {
		item.MaxThreshold = *req.MaxThreshold
	}
	if req.UnitCost != nil {
		item.UnitCost = *req.UnitCost
	}
	if req.Supplier != nil {
		item.Supplier = *req.Supplier
	}
	if req.Location != nil {
		item.Location = *req.Location
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
}

// DeactivateItem soft-deletes an item. Its transactions are kept.
func (e *Engine) DeactivateItem(ctx context.Context, tenantID, itemID, actorID string) error {
	release, err := e.locker.Lock(ctx, lock.ItemKey(tenantID, itemID))
	if err != nil {
		return err
	}
	defer release()

	err = e.repo.Atomically(ctx, func(w domain.LedgerWriter) error {
		current, err := e.loadActive(ctx, w, tenantID, itemID)
		if err != nil {
			return err
		}
		expected := current.Version
		current.IsActive = false
		current.UpdatedAt = e.now().UTC()
		return w.SaveItem(ctx, current, expected)
	})
	if err != nil {
		return err
	}

	logger.ForItem(ctx, tenantID, itemID).Info().
		Str("actor_id", actorID).
		Msg("Inventory item deactivated")
	return nil
}

func (e *Engine) loadActive(ctx context.Context, w domain.LedgerWriter, tenantID, itemID string) (*domain.InventoryItem, error) {
	item, err := w.GetItem(ctx, tenantID, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive || item.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (e *Engine) committed(ctx context.Context, item *domain.InventoryItem, tx *domain.Transaction) {
	logger.ForItem(ctx, tx.TenantID, tx.ItemID).Info().
		Str("transaction_id", tx.ID).
		Str("type", string(tx.Type)).
		Int("previous_quantity", tx.PreviousQuantity).
		Int("new_quantity", tx.NewQuantity).
		Str("status", string(item.StockStatus())).
		Msg("Ledger transaction recorded")

	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishTransactionRecorded(ctx, item, tx); err != nil {
		logger.Error(ctx).Err(err).
			Str("transaction_id", tx.ID).
			Msg("Failed to publish transaction event")
	}
}
