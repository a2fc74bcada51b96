package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/tair/supply-ledger/internal/inventory/domain"
)

// MemoryRepository keeps everything in process memory. Units of work hold
// the store lock for their whole duration, so it suits tests and local
// development rather than production load.
type MemoryRepository struct {
	mu sync.RWMutex

	items        map[string]domain.InventoryItem
	transactions []domain.Transaction
	categories   map[string]domain.Category
}

// NewMemoryRepository creates an empty in-memory store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items:        make(map[string]domain.InventoryItem),
		transactions: make([]domain.Transaction, 0),
		categories:   make(map[string]domain.Category),
	}
}

// GetItem returns an item of the tenant, active or not
func (r *MemoryRepository) GetItem(_ context.Context, tenantID, itemID string) (*domain.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[itemID]
	if !ok || item.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

// QueryItems returns the tenant's items ordered by creation time
func (r *MemoryRepository) QueryItems(_ context.Context, filter domain.ItemFilter) ([]domain.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.InventoryItem, 0)
	for _, item := range r.items {
		if !matchItem(item, filter) {
			continue
		}
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return paginate(result, filter.Limit, filter.Offset), nil
}

// QueryTransactions returns the tenant's transactions in append order
func (r *MemoryRepository) QueryTransactions(_ context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Transaction, 0)
	for _, tx := range r.transactions {
		if matchTransaction(tx, filter) {
			result = append(result, tx)
		}
	}
	return paginate(result, filter.Limit, filter.Offset), nil
}

// CreateCategory stores a new category
func (r *MemoryRepository) CreateCategory(_ context.Context, category *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.categories[category.ID]; exists {
		return domain.ErrPersistenceConflict
	}
	r.categories[category.ID] = *category
	return nil
}

// ListCategories returns the tenant's categories ordered by name
func (r *MemoryRepository) ListCategories(_ context.Context, tenantID string) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Category, 0)
	for _, c := range r.categories {
		if c.TenantID == tenantID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Atomically stages writes and applies them only when fn succeeds
func (r *MemoryRepository) Atomically(ctx context.Context, fn func(w domain.LedgerWriter) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	w := &memoryWriter{repo: r, items: make(map[string]domain.InventoryItem)}
	if err := fn(w); err != nil {
		return err
	}

	for id, item := range w.items {
		r.items[id] = item
	}
	r.transactions = append(r.transactions, w.transactions...)
	return nil
}

// Ping always succeeds
func (r *MemoryRepository) Ping(context.Context) error {
	return nil
}

// memoryWriter is only used while the repository lock is held
type memoryWriter struct {
	repo         *MemoryRepository
	items        map[string]domain.InventoryItem
	transactions []domain.Transaction
}

func (w *memoryWriter) lookup(itemID string) (domain.InventoryItem, bool) {
	if item, ok := w.items[itemID]; ok {
		return item, true
	}
	item, ok := w.repo.items[itemID]
	return item, ok
}

func (w *memoryWriter) GetItem(_ context.Context, tenantID, itemID string) (*domain.InventoryItem, error) {
	item, ok := w.lookup(itemID)
	if !ok || item.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

func (w *memoryWriter) InsertItem(_ context.Context, item *domain.InventoryItem) error {
	if _, exists := w.lookup(item.ID); exists {
		return domain.ErrPersistenceConflict
	}
	w.items[item.ID] = *item
	return nil
}

func (w *memoryWriter) SaveItem(_ context.Context, item *domain.InventoryItem, expectedVersion int64) error {
	stored, ok := w.lookup(item.ID)
	if !ok || stored.TenantID != item.TenantID {
		return domain.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrPersistenceConflict
	}
	item.Version = expectedVersion + 1
	w.items[item.ID] = *item
	return nil
}

func (w *memoryWriter) AppendTransaction(_ context.Context, tx *domain.Transaction) error {
	if !tx.Balanced() {
		return &domain.ValidationError{Field: "new_quantity", Message: "does not match previous quantity plus delta"}
	}
	w.transactions = append(w.transactions, *tx)
	return nil
}

func matchItem(item domain.InventoryItem, f domain.ItemFilter) bool {
	if item.TenantID != f.TenantID {
		return false
	}
	if f.CategoryID != "" && item.CategoryID != f.CategoryID {
		return false
	}
	if f.Active != nil && item.IsActive != *f.Active {
		return false
	}
	return true
}

func matchTransaction(tx domain.Transaction, f domain.TransactionFilter) bool {
	if tx.TenantID != f.TenantID {
		return false
	}
	if f.ItemID != "" && tx.ItemID != f.ItemID {
		return false
	}
	if f.UserID != "" && tx.UserID != f.UserID {
		return false
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if !f.From.IsZero() && tx.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !tx.CreatedAt.Before(f.To) {
		return false
	}
	return true
}

func paginate[T any](rows []T, limit, offset int) []T {
	start := offset
	if start < 0 {
		start = 0
	}
	if start > len(rows) {
		start = len(rows)
	}
	end := len(rows)
	if limit > 0 && limit < len(rows)-start {
		end = start + limit
	}
	return rows[start:end]
}
