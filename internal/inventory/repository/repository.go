package repository

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/supply-ledger/internal/inventory/domain"
)

// GormRepository stores the ledger in PostgreSQL
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new PostgreSQL repository
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// AutoMigrate creates or updates the ledger tables
func (r *GormRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Category{}, &domain.InventoryItem{}, &domain.Transaction{})
}

// GetItem returns an item of the tenant, active or not
func (r *GormRepository) GetItem(ctx context.Context, tenantID, itemID string) (*domain.InventoryItem, error) {
	return findItem(r.db.WithContext(ctx), tenantID, itemID)
}

// QueryItems returns the tenant's items ordered by creation time
func (r *GormRepository) QueryItems(ctx context.Context, filter domain.ItemFilter) ([]domain.InventoryItem, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", filter.TenantID)
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Active != nil {
		q = q.Where("is_active = ?", *filter.Active)
	}

	var items []domain.InventoryItem
	err := page(q, filter.Limit, filter.Offset).
		Order("created_at ASC").Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, translate("query items", err)
	}
	return items, nil
}

// QueryTransactions returns the tenant's transactions oldest first
func (r *GormRepository) QueryTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", filter.TenantID)
	if filter.ItemID != "" {
		q = q.Where("item_id = ?", filter.ItemID)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if !filter.From.IsZero() {
		q = q.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("created_at < ?", filter.To)
	}

	var txs []domain.Transaction
	err := page(q, filter.Limit, filter.Offset).
		Order("created_at ASC").Order("id ASC").
		Find(&txs).Error
	if err != nil {
		return nil, translate("query transactions", err)
	}
	return txs, nil
}

// CreateCategory stores a new category
func (r *GormRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	return translate("create category", r.db.WithContext(ctx).Create(category).Error)
}

// ListCategories returns the tenant's categories ordered by name
func (r *GormRepository) ListCategories(ctx context.Context, tenantID string) ([]domain.Category, error) {
	var categories []domain.Category
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, translate("list categories", err)
	}
	return categories, nil
}

// Atomically runs fn in a database transaction
func (r *GormRepository) Atomically(ctx context.Context, fn func(w domain.LedgerWriter) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormWriter{tx: tx})
	})
	return translate("commit", err)
}

// Ping checks the connection pool
func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return domain.PersistenceFailure("ping", err)
	}
	return domain.PersistenceFailure("ping", sqlDB.PingContext(ctx))
}

type gormWriter struct {
	tx *gorm.DB
}

func (w *gormWriter) GetItem(ctx context.Context, tenantID, itemID string) (*domain.InventoryItem, error) {
	return findItem(w.tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, itemID)
}

func (w *gormWriter) InsertItem(ctx context.Context, item *domain.InventoryItem) error {
	return translate("insert item", w.tx.WithContext(ctx).Create(item).Error)
}

func (w *gormWriter) SaveItem(ctx context.Context, item *domain.InventoryItem, expectedVersion int64) error {
	res := w.tx.WithContext(ctx).
		Model(&domain.InventoryItem{}).
		Where("id = ? AND tenant_id = ? AND version = ?", item.ID, item.TenantID, expectedVersion).
		Updates(map[string]interface{}{
			"category_id":   item.CategoryID,
			"name":          item.Name,
			"description":   item.Description,
			"quantity":      item.Quantity,
			"unit":          item.Unit,
			"min_threshold": item.MinThreshold,
			"max_threshold": item.MaxThreshold,
			"unit_cost":     item.UnitCost,
			"supplier":      item.Supplier,
			"location":      item.Location,
			"is_active":     item.IsActive,
			"version":       expectedVersion + 1,
			"updated_at":    item.UpdatedAt,
		})
	if res.Error != nil {
		return translate("save item", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPersistenceConflict
	}
	item.Version = expectedVersion + 1
	return nil
}

func (w *gormWriter) AppendTransaction(ctx context.Context, tx *domain.Transaction) error {
	return translate("append transaction", w.tx.WithContext(ctx).Create(tx).Error)
}

func findItem(q *gorm.DB, tenantID, itemID string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := q.Where("id = ? AND tenant_id = ?", itemID, tenantID).First(&item).Error
	if err != nil {
		return nil, translate("get item", err)
	}
	return &item, nil
}

func page(q *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	return q
}

// PostgreSQL error codes that mean the write lost a race
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqUniqueViolation      = "23505"
)

// translate maps driver errors onto the domain taxonomy. Domain errors
// returned from inside a unit of work pass through unchanged.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if isDomainError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqSerializationFailure, pqDeadlockDetected, pqUniqueViolation:
			return errors.Join(domain.ErrPersistenceConflict, err)
		}
	}
	return domain.PersistenceFailure(op, err)
}

func isDomainError(err error) bool {
	return domain.IsNotFound(err) ||
		domain.IsConflict(err) ||
		domain.IsValidation(err) ||
		errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrPersistenceFailure)
}
