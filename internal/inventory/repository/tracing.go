package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/supply-ledger/internal/inventory/domain"
)

var tracer = otel.Tracer("inventory-repository")

// TracingRepository wraps a Repository with tracing
type TracingRepository struct {
	next domain.Repository
}

// NewTracingRepository creates a new repository with tracing
func NewTracingRepository(next domain.Repository) *TracingRepository {
	return &TracingRepository{next: next}
}

// GetItem with tracing
func (r *TracingRepository) GetItem(ctx context.Context, tenantID, itemID string) (*domain.InventoryItem, error) {
	ctx, span := tracer.Start(ctx, "repository.GetItem",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("inventory.item_id", itemID),
		),
	)
	defer span.End()

	item, err := r.next.GetItem(ctx, tenantID, itemID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("inventory.quantity", item.Quantity),
		attribute.Int64("inventory.version", item.Version),
	)
	return item, nil
}

// QueryItems with tracing
func (r *TracingRepository) QueryItems(ctx context.Context, filter domain.ItemFilter) ([]domain.InventoryItem, error) {
	ctx, span := tracer.Start(ctx, "repository.QueryItems",
		trace.WithAttributes(
			attribute.String("tenant.id", filter.TenantID),
			attribute.String("query.category_id", filter.CategoryID),
			attribute.Int("query.limit", filter.Limit),
			attribute.Int("query.offset", filter.Offset),
		),
	)
	defer span.End()

	items, err := r.next.QueryItems(ctx, filter)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(items)))
	return items, nil
}

// QueryTransactions with tracing
func (r *TracingRepository) QueryTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "repository.QueryTransactions",
		trace.WithAttributes(
			attribute.String("tenant.id", filter.TenantID),
			attribute.String("query.item_id", filter.ItemID),
			attribute.String("query.type", string(filter.Type)),
			attribute.Int("query.limit", filter.Limit),
		),
	)
	defer span.End()

	txs, err := r.next.QueryTransactions(ctx, filter)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(txs)))
	return txs, nil
}

// CreateCategory with tracing
func (r *TracingRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	ctx, span := tracer.Start(ctx, "repository.CreateCategory",
		trace.WithAttributes(
			attribute.String("tenant.id", category.TenantID),
			attribute.String("category.name", category.Name),
		),
	)
	defer span.End()

	if err := r.next.CreateCategory(ctx, category); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

// ListCategories with tracing
func (r *TracingRepository) ListCategories(ctx context.Context, tenantID string) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "repository.ListCategories",
		trace.WithAttributes(attribute.String("tenant.id", tenantID)),
	)
	defer span.End()

	categories, err := r.next.ListCategories(ctx, tenantID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(categories)))
	return categories, nil
}

// Atomically traces the unit of work and every write made inside it
func (r *TracingRepository) Atomically(ctx context.Context, fn func(w domain.LedgerWriter) error) error {
	ctx, span := tracer.Start(ctx, "repository.Atomically")
	defer span.End()

	err := r.next.Atomically(ctx, func(w domain.LedgerWriter) error {
		return fn(&tracingWriter{next: w})
	})
	if err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

// Ping with tracing
func (r *TracingRepository) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "repository.Ping")
	defer span.End()

	if err := r.next.Ping(ctx); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

type tracingWriter struct {
	next domain.LedgerWriter
}

func (w *tracingWriter) GetItem(ctx context.Context, tenantID, itemID string) (*domain.InventoryItem, error) {
	ctx, span := tracer.Start(ctx, "repository.GetItemForUpdate",
		trace.WithAttributes(attribute.String("inventory.item_id", itemID)),
	)
	defer span.End()

	item, err := w.next.GetItem(ctx, tenantID, itemID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return item, nil
}

func (w *tracingWriter) InsertItem(ctx context.Context, item *domain.InventoryItem) error {
	ctx, span := tracer.Start(ctx, "repository.InsertItem",
		trace.WithAttributes(
			attribute.String("inventory.item_id", item.ID),
			attribute.Int("inventory.quantity", item.Quantity),
		),
	)
	defer span.End()

	if err := w.next.InsertItem(ctx, item); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

func (w *tracingWriter) SaveItem(ctx context.Context, item *domain.InventoryItem, expectedVersion int64) error {
	ctx, span := tracer.Start(ctx, "repository.SaveItem",
		trace.WithAttributes(
			attribute.String("inventory.item_id", item.ID),
			attribute.Int("inventory.quantity", item.Quantity),
			attribute.Int64("inventory.expected_version", expectedVersion),
		),
	)
	defer span.End()

	if err := w.next.SaveItem(ctx, item, expectedVersion); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

func (w *tracingWriter) AppendTransaction(ctx context.Context, tx *domain.Transaction) error {
	ctx, span := tracer.Start(ctx, "repository.AppendTransaction",
		trace.WithAttributes(
			attribute.String("transaction.id", tx.ID),
			attribute.String("transaction.type", string(tx.Type)),
			attribute.Int("transaction.quantity", tx.Quantity),
		),
	)
	defer span.End()

	if err := w.next.AppendTransaction(ctx, tx); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

// recordError marks the span failed. Not-found is an expected outcome and
// only recorded as an event.
func recordError(span trace.Span, err error) {
	span.RecordError(err)
	if domain.IsNotFound(err) {
		return
	}
	span.SetStatus(codes.Error, err.Error())
}
