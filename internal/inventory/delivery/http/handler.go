package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/internal/inventory/usecase/command"
	"github.com/tair/supply-ledger/internal/inventory/usecase/query"
	"github.com/tair/supply-ledger/pkg/auth"
	"github.com/tair/supply-ledger/pkg/logger"
)

// Commands groups the write-side handlers
type Commands struct {
	CreateItem       *command.CreateItemHandler
	UpdateItem       *command.UpdateItemHandler
	DeactivateItem   *command.DeactivateItemHandler
	ApplyTransaction *command.ApplyTransactionHandler
	CreateCategory   *command.CreateCategoryHandler
}

// Queries groups the read-side handlers
type Queries struct {
	GetItem            *query.GetItemHandler
	ListItems          *query.ListItemsHandler
	ListTransactions   *query.ListTransactionsHandler
	ListCategories     *query.ListCategoriesHandler
	InventorySummary   *query.InventorySummaryHandler
	TransactionSummary *query.TransactionSummaryHandler
	LowStock           *query.LowStockHandler
	CategoryRollup     *query.CategoryRollupHandler
	ClassifyStock      *query.ClassifyStockHandler
}

// IdempotencyStore remembers request keys. lock.IdempotencyGuard implements it.
type IdempotencyStore interface {
	Claim(ctx context.Context, scope, key string) (bool, error)
	Forget(ctx context.Context, scope, key string) error
}

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// InventoryHandler handles HTTP requests for the supply ledger using CQRS pattern
type InventoryHandler struct {
	commands    Commands
	queries     Queries
	tokens      *auth.TokenManager
	idempotency IdempotencyStore
	limiter     RateLimiter
	metrics     *requestMetrics
}

// NewInventoryHandler creates a new inventory handler. A nil idempotency
// store disables Idempotency-Key handling and a nil limiter disables
// throttling.
func NewInventoryHandler(
	commands Commands,
	queries Queries,
	tokens *auth.TokenManager,
	idempotency IdempotencyStore,
	limiter RateLimiter,
	reg prometheus.Registerer,
) *InventoryHandler {
	return &InventoryHandler{
		commands:    commands,
		queries:     queries,
		tokens:      tokens,
		idempotency: idempotency,
		limiter:     limiter,
		metrics:     newRequestMetrics(reg),
	}
}

// Response is the envelope of every JSON response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RegisterRoutes registers all inventory routes
func (h *InventoryHandler) RegisterRoutes(router *mux.Router) {
	authed := AuthMiddleware(h.tokens)
	admin := AdminMiddleware(h.tokens)

	// Items
	router.HandleFunc("/api/inventory/items", h.metrics.wrap("/api/inventory/items", authed(h.ListItems))).Methods("GET")
	router.HandleFunc("/api/inventory/items", h.metrics.wrap("/api/inventory/items", authed(h.throttled(h.CreateItem)))).Methods("POST")
	router.HandleFunc("/api/inventory/items/{id}", h.metrics.wrap("/api/inventory/items/{id}", authed(h.GetItem))).Methods("GET")
	router.HandleFunc("/api/inventory/items/{id}", h.metrics.wrap("/api/inventory/items/{id}", authed(h.UpdateItem))).Methods("PATCH")
	router.HandleFunc("/api/inventory/items/{id}", h.metrics.wrap("/api/inventory/items/{id}", admin(h.DeactivateItem))).Methods("DELETE")

	// Ledger
	router.HandleFunc("/api/inventory/items/{id}/transactions",
		h.metrics.wrap("/api/inventory/items/{id}/transactions", authed(h.throttled(h.idempotent(h.ApplyTransaction))))).Methods("POST")
	router.HandleFunc("/api/inventory/transactions", h.metrics.wrap("/api/inventory/transactions", authed(h.ListTransactions))).Methods("GET")

	// Categories
	router.HandleFunc("/api/inventory/categories", h.metrics.wrap("/api/inventory/categories", authed(h.ListCategories))).Methods("GET")
	router.HandleFunc("/api/inventory/categories", h.metrics.wrap("/api/inventory/categories", admin(h.CreateCategory))).Methods("POST")

	// Reports
	router.HandleFunc("/api/inventory/reports/summary", h.metrics.wrap("/api/inventory/reports/summary", authed(h.InventorySummary))).Methods("GET")
	router.HandleFunc("/api/inventory/reports/transactions", h.metrics.wrap("/api/inventory/reports/transactions", authed(h.TransactionSummary))).Methods("GET")
	router.HandleFunc("/api/inventory/reports/low-stock", h.metrics.wrap("/api/inventory/reports/low-stock", authed(h.LowStock))).Methods("GET")
	router.HandleFunc("/api/inventory/reports/categories", h.metrics.wrap("/api/inventory/reports/categories", authed(h.CategoryRollup))).Methods("GET")
	router.HandleFunc("/api/inventory/classify", h.metrics.wrap("/api/inventory/classify", authed(h.ClassifyStock))).Methods("GET")
}

type createItemRequest struct {
	CategoryID   string          `json:"category_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Quantity     int             `json:"quantity"`
	Unit         string          `json:"unit"`
	MinThreshold int             `json:"min_threshold"`
	MaxThreshold int             `json:"max_threshold"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Supplier     string          `json:"supplier"`
	Location     string          `json:"location"`
}

// CreateItem handles POST /api/inventory/items
func (h *InventoryHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	claims := mustClaims(r)

	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.commands.CreateItem.Handle(r.Context(), command.CreateItemCommand{
		TenantID:     claims.TenantID,
		ActorID:      claims.UserID,
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Description:  req.Description,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		MinThreshold: req.MinThreshold,
		MaxThreshold: req.MaxThreshold,
		UnitCost:     req.UnitCost,
		Supplier:     req.Supplier,
		Location:     req.Location,
	})
	if err != nil {
		respondDomainError(w, r, err, "Failed to create item")
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Item created successfully",
		Data:    result,
	})
}

// ListItems handles GET /api/inventory/items
func (h *InventoryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	claims := mustClaims(r)
	q := r.URL.Query()

	active, err := parseOptionalBool(q.Get("active"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid active flag")
		return
	}
	status := domain.StockStatus(q.Get("status"))
	if status != "" && !status.Valid() {
		respondError(w, http.StatusBadRequest, "Invalid stock status")
		return
	}
	limit, offset := pageParams(q)

	items, err := h.queries.ListItems.Handle(r.Context(), query.ListItemsQuery{
		TenantID:   claims.TenantID,
		CategoryID: q.Get("category_id"),
		Active:     active,
		Status:     status,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		respondDomainError(w, r, err, "Failed to list items")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    items,
	})
}

// GetItem handles GET /api/inventory/items/{id}
func (h *InventoryHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	claims := mustClaims(r)

	item, err := h.queries.GetItem.Handle(r.Context(), query.GetItemQuery{
		TenantID: claims.TenantID,
		ItemID:   mux.Vars(r)["id"],
	})
	if err != nil {
		respondDomainError(w, r, err, "Failed to get item")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    item,
	})
}

type updateItemRequest struct {
	CategoryID   *string          `json:"category_id"`
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	Unit         *string          `json:"unit"`
	MinThreshold *int             `json:"min_threshold"`
	MaxThreshold *int             `json:"max_threshold"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
	Supplier     *string          `json:"supplier"`
	Location     *string          `json:"location"`
	Quantity     *int             `json:"quantity"`
}

// UpdateItem handles PATCH /api/inventory/items/{id}
func (h *InventoryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	claims := mustClaims(r)

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.commands.UpdateItem.Handle(r.Context(), command.UpdateItemCommand{
		TenantID:     claims.TenantID,
		ItemID:       mux.Vars(r)["id"],
		ActorID:      claims.UserID,
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Description:  req.Description,
		Unit:         req.Unit,
		MinThreshold: req.MinThreshold,
		MaxThreshold: req.MaxThreshold,
		UnitCost:     req.UnitCost,
		Supplier:     req.Supplier,
		Location:     req.Location,
		Quantity:     req.Quantity,
	})
	if err != nil {
		respondDomainError(w, r, err, "Failed to update item")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Item updated successfully",
		Data:    result,
	})
}

// DeactivateItem handles DELETE /api/inventory/items/{id}
func (h *InventoryHandler) DeactivateItem(w http.ResponseWriter, r *http.Request) {
	claims := mustClaims(r)

	err := h.commands.DeactivateItem.Handle(r.Context(), command.DeactivateItemCommand{
		TenantID: claims.TenantID,
		ItemID:   mux.Vars(r)["id"],
		ActorID:  claims.UserID,
	})
	if err != nil {
		respondDomainError(w, r, err, "Failed to deactivate item")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Item deactivated successfully",
	})
}

// CreateCategory handles POST /api/inventory/categories
func (h *InventoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	claims := mustClaims(r)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category, err := h.commands.CreateCategory.Handle(r.Context(), command.CreateCategoryCommand{
		TenantID:    claims.TenantID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondDomainError(w, r, err, "Failed to create category")
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Category created successfully",
		Data:    category,
	})
}

// ListCategories handles GET /api/inventory/categories
func (h *InventoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	claims := mustClaims(r)

	categories, err := h.queries.ListCategories.Handle(r.Context(), claims.TenantID)
	if err != nil {
		respondDomainError(w, r, err, "Failed to list categories")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    categories,
	})
}

// RegisterHealthCheck registers health check endpoint
func (h *InventoryHandler) RegisterHealthCheck(router *mux.Router, store Pinger) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			logger.Warn(r.Context()).Err(err).Msg("Health check failed")
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Store unavailable",
			})
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Inventory service is healthy",
		})
	}).Methods("GET")
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError sends a failed envelope
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, Response{
		Success: false,
		Error:   message,
	})
}

func parseOptionalBool(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// maxPageSize bounds list responses
const maxPageSize = 100

// pageParams reads limit and offset, defaulting and capping the limit at
// maxPageSize
func pageParams(q url.Values) (limit, offset int) {
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
