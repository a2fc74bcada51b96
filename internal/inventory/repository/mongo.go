package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/tair/supply-ledger/internal/inventory/domain"
)

const (
	colItems        = "inventory_items"
	colTransactions = "inventory_transactions"
	colCategories   = "categories"

	mongoWriteConflict = 112
)

// MongoRepository stores the ledger in MongoDB. Units of work run in a
// multi-document transaction, which needs a replica set.
type MongoRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoRepository creates a new MongoDB repository
func NewMongoRepository(client *mongo.Client, database string) *MongoRepository {
	return &MongoRepository{client: client, db: client.Database(database)}
}

// Migrate creates the indexes the queries rely on
func (r *MongoRepository) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colItems: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "category_id", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colTransactions: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "item_id", Value: 1}}},
		},
		colCategories: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "name", Value: 1}}},
		},
	}
	for col, models := range indexes {
		if _, err := r.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return domain.PersistenceFailure("create indexes on "+col, err)
		}
	}
	return nil
}

// GetItem returns an item of the tenant, active or not
func (r *MongoRepository) GetItem(ctx context.Context, tenantID, itemID string) (*domain.InventoryItem, error) {
	return findMongoItem(ctx, r.db, tenantID, itemID)
}

// QueryItems returns the tenant's items ordered by creation time
func (r *MongoRepository) QueryItems(ctx context.Context, filter domain.ItemFilter) ([]domain.InventoryItem, error) {
	q := bson.M{"tenant_id": filter.TenantID}
	if filter.CategoryID != "" {
		q["category_id"] = filter.CategoryID
	}
	if filter.Active != nil {
		q["is_active"] = *filter.Active
	}

	opts := findOptions(filter.Limit, filter.Offset)
	cursor, err := r.db.Collection(colItems).Find(ctx, q, opts)
	if err != nil {
		return nil, translateMongo("query items", err)
	}

	var models []itemModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, translateMongo("query items", err)
	}

	items := make([]domain.InventoryItem, 0, len(models))
	for i := range models {
		items = append(items, *fromItemModel(&models[i]))
	}
	return items, nil
}

// QueryTransactions returns the tenant's transactions oldest first
func (r *MongoRepository) QueryTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	q := bson.M{"tenant_id": filter.TenantID}
	if filter.ItemID != "" {
		q["item_id"] = filter.ItemID
	}
	if filter.UserID != "" {
		q["user_id"] = filter.UserID
	}
	if filter.Type != "" {
		q["type"] = string(filter.Type)
	}
	if !filter.From.IsZero() || !filter.To.IsZero() {
		rng := bson.M{}
		if !filter.From.IsZero() {
			rng["$gte"] = filter.From
		}
		if !filter.To.IsZero() {
			rng["$lt"] = filter.To
		}
		q["created_at"] = rng
	}

	cursor, err := r.db.Collection(colTransactions).Find(ctx, q, findOptions(filter.Limit, filter.Offset))
	if err != nil {
		return nil, translateMongo("query transactions", err)
	}

	var models []transactionModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, translateMongo("query transactions", err)
	}

	txs := make([]domain.Transaction, 0, len(models))
	for i := range models {
		txs = append(txs, *fromTransactionModel(&models[i]))
	}
	return txs, nil
}

// CreateCategory stores a new category
func (r *MongoRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	_, err := r.db.Collection(colCategories).InsertOne(ctx, categoryModel{
		ID:          category.ID,
		TenantID:    category.TenantID,
		Name:        category.Name,
		Description: category.Description,
		CreatedAt:   category.CreatedAt,
	})
	return translateMongo("create category", err)
}

// ListCategories returns the tenant's categories ordered by name
func (r *MongoRepository) ListCategories(ctx context.Context, tenantID string) ([]domain.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.db.Collection(colCategories).Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, translateMongo("list categories", err)
	}

	var models []categoryModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, translateMongo("list categories", err)
	}

	categories := make([]domain.Category, 0, len(models))
	for _, m := range models {
		categories = append(categories, domain.Category{
			ID:          m.ID,
			TenantID:    m.TenantID,
			Name:        m.Name,
			Description: m.Description,
			CreatedAt:   m.CreatedAt,
		})
	}
	return categories, nil
}

// Atomically runs fn in a session transaction
func (r *MongoRepository) Atomically(ctx context.Context, fn func(w domain.LedgerWriter) error) error {
	sess, err := r.client.StartSession()
	if err != nil {
		return domain.PersistenceFailure("start session", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, fn(&mongoWriter{db: r.db, sess: sess})
	})
	return translateMongo("commit", err)
}

// Ping checks the primary is reachable
func (r *MongoRepository) Ping(ctx context.Context) error {
	return translateMongo("ping", r.client.Ping(ctx, nil))
}

// mongoWriter binds every call to the transaction's session
type mongoWriter struct {
	db   *mongo.Database
	sess *mongo.Session
}

func (w *mongoWriter) GetItem(ctx context.Context, tenantID, itemID string) (*domain.InventoryItem, error) {
	return findMongoItem(mongo.NewSessionContext(ctx, w.sess), w.db, tenantID, itemID)
}

func (w *mongoWriter) InsertItem(ctx context.Context, item *domain.InventoryItem) error {
	ctx = mongo.NewSessionContext(ctx, w.sess)
	_, err := w.db.Collection(colItems).InsertOne(ctx, toItemModel(item))
	return translateMongo("insert item", err)
}

func (w *mongoWriter) SaveItem(ctx context.Context, item *domain.InventoryItem, expectedVersion int64) error {
	ctx = mongo.NewSessionContext(ctx, w.sess)
	m := toItemModel(item)
	m.Version = expectedVersion + 1

	res, err := w.db.Collection(colItems).ReplaceOne(ctx,
		bson.M{"_id": item.ID, "tenant_id": item.TenantID, "version": expectedVersion},
		m,
	)
	if err != nil {
		return translateMongo("save item", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPersistenceConflict
	}
	item.Version = m.Version
	return nil
}

func (w *mongoWriter) AppendTransaction(ctx context.Context, tx *domain.Transaction) error {
	ctx = mongo.NewSessionContext(ctx, w.sess)
	_, err := w.db.Collection(colTransactions).InsertOne(ctx, toTransactionModel(tx))
	return translateMongo("append transaction", err)
}

func findMongoItem(ctx context.Context, db *mongo.Database, tenantID, itemID string) (*domain.InventoryItem, error) {
	var m itemModel
	err := db.Collection(colItems).FindOne(ctx, bson.M{"_id": itemID, "tenant_id": tenantID}).Decode(&m)
	if err != nil {
		return nil, translateMongo("get item", err)
	}
	return fromItemModel(&m), nil
}

func findOptions(limit, offset int) *options.FindOptionsBuilder {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	return opts
}

func translateMongo(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	if isDomainError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if mongo.IsDuplicateKeyError(err) {
		return errors.Join(domain.ErrPersistenceConflict, err)
	}
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(mongoWriteConflict) {
		return errors.Join(domain.ErrPersistenceConflict, err)
	}
	return domain.PersistenceFailure(op, err)
}

// ==================== models ====================

type itemModel struct {
	ID           string    `bson:"_id"`
	TenantID     string    `bson:"tenant_id"`
	CategoryID   string    `bson:"category_id"`
	Name         string    `bson:"name"`
	Description  string    `bson:"description"`
	Quantity     int       `bson:"quantity"`
	Unit         string    `bson:"unit"`
	MinThreshold int       `bson:"min_threshold"`
	MaxThreshold int       `bson:"max_threshold"`
	UnitCost     string    `bson:"unit_cost"`
	Supplier     string    `bson:"supplier"`
	Location     string    `bson:"location"`
	IsActive     bool      `bson:"is_active"`
	Version      int64     `bson:"version"`
	CreatedBy    string    `bson:"created_by"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type transactionModel struct {
	ID               string    `bson:"_id"`
	TenantID         string    `bson:"tenant_id"`
	ItemID           string    `bson:"item_id"`
	UserID           string    `bson:"user_id"`
	Type             string    `bson:"type"`
	Quantity         int       `bson:"quantity"`
	PreviousQuantity int       `bson:"previous_quantity"`
	NewQuantity      int       `bson:"new_quantity"`
	Reason           string    `bson:"reason"`
	Notes            string    `bson:"notes"`
	UnitCost         string    `bson:"unit_cost"`
	Supplier         string    `bson:"supplier,omitempty"`
	Location         string    `bson:"location,omitempty"`
	CreatedAt        time.Time `bson:"created_at"`
}

type categoryModel struct {
	ID          string    `bson:"_id"`
	TenantID    string    `bson:"tenant_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	CreatedAt   time.Time `bson:"created_at"`
}

func toItemModel(i *domain.InventoryItem) *itemModel {
	return &itemModel{
		ID:           i.ID,
		TenantID:     i.TenantID,
		CategoryID:   i.CategoryID,
		Name:         i.Name,
		Description:  i.Description,
		Quantity:     i.Quantity,
		Unit:         i.Unit,
		MinThreshold: i.MinThreshold,
		MaxThreshold: i.MaxThreshold,
		UnitCost:     i.UnitCost.String(),
		Supplier:     i.Supplier,
		Location:     i.Location,
		IsActive:     i.IsActive,
		Version:      i.Version,
		CreatedBy:    i.CreatedBy,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

func fromItemModel(m *itemModel) *domain.InventoryItem {
	return &domain.InventoryItem{
		ID:           m.ID,
		TenantID:     m.TenantID,
		CategoryID:   m.CategoryID,
		Name:         m.Name,
		Description:  m.Description,
		Quantity:     m.Quantity,
		Unit:         m.Unit,
		MinThreshold: m.MinThreshold,
		MaxThreshold: m.MaxThreshold,
		UnitCost:     parseCost(m.UnitCost),
		Supplier:     m.Supplier,
		Location:     m.Location,
		IsActive:     m.IsActive,
		Version:      m.Version,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toTransactionModel(t *domain.Transaction) *transactionModel {
	return &transactionModel{
		ID:               t.ID,
		TenantID:         t.TenantID,
		ItemID:           t.ItemID,
		UserID:           t.UserID,
		Type:             string(t.Type),
		Quantity:         t.Quantity,
		PreviousQuantity: t.PreviousQuantity,
		NewQuantity:      t.NewQuantity,
		Reason:           t.Reason,
		Notes:            t.Notes,
		UnitCost:         t.UnitCost.String(),
		Supplier:         t.Supplier,
		Location:         t.Location,
		CreatedAt:        t.CreatedAt,
	}
}

func fromTransactionModel(m *transactionModel) *domain.Transaction {
	return &domain.Transaction{
		ID:               m.ID,
		TenantID:         m.TenantID,
		ItemID:           m.ItemID,
		UserID:           m.UserID,
		Type:             domain.TransactionType(m.Type),
		Quantity:         m.Quantity,
		PreviousQuantity: m.PreviousQuantity,
		NewQuantity:      m.NewQuantity,
		Reason:           m.Reason,
		Notes:            m.Notes,
		UnitCost:         parseCost(m.UnitCost),
		Supplier:         m.Supplier,
		Location:         m.Location,
		CreatedAt:        m.CreatedAt,
	}
}

// parseCost reads a stored decimal; malformed values read as zero
func parseCost(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
