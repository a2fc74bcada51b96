package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers Swagger documentation routes
// @Summary Swagger documentation
// @Description Swagger API documentation for the supply ledger
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// CreateItem godoc
// @Summary Create inventory item
// @Description Create an item; a positive opening quantity is recorded as an "initial stock" check-in
// @Tags Items
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{category_id=string,name=string,description=string,quantity=int,unit=string,min_threshold=int,max_threshold=int,unit_cost=string,supplier=string,location=string} true "Item data"
// @Success 201 {object} object{success=bool,message=string,data=object{item=object,transaction=object}}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 401 {object} object{success=bool,error=string}
// @Router /api/inventory/items [post]
func (h *InventoryHandler) CreateItemDoc() {}

// ListItems godoc
// @Summary List inventory items
// @Description List the tenant's items with their stock status and total value
// @Tags Items
// @Security BearerAuth
// @Produce json
// @Param category_id query string false "Category ID"
// @Param active query bool false "Only active or only inactive items"
// @Param status query string false "out_of_stock, low_stock, in_stock or overstock"
// @Param limit query int false "Limit (default 10, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} object{success=bool,data=array}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/inventory/items [get]
func (h *InventoryHandler) ListItemsDoc() {}

// GetItem godoc
// @Summary Get inventory item
// @Tags Items
// @Security BearerAuth
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/inventory/items/{id} [get]
func (h *InventoryHandler) GetItemDoc() {}

// UpdateItem godoc
// @Summary Update inventory item
// @Description Partial update; a changed quantity is recorded as a "manual adjustment"
// @Tags Items
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param request body object{name=string,quantity=int,min_threshold=int,max_threshold=int,unit_cost=string} true "Fields to change"
// @Success 200 {object} object{success=bool,message=string,data=object{item=object,transaction=object}}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string}
// @Router /api/inventory/items/{id} [patch]
func (h *InventoryHandler) UpdateItemDoc() {}

// DeactivateItem godoc
// @Summary Deactivate inventory item
// @Description Soft delete (Admin only)
// @Tags Items
// @Security BearerAuth
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/inventory/items/{id} [delete]
func (h *InventoryHandler) DeactivateItemDoc() {}

// ApplyTransaction godoc
// @Summary Record a stock movement
// @Description Apply a check-in, check-out or adjustment to an item
// @Tags Ledger
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param Idempotency-Key header string false "Rejects repeated submissions"
// @Param request body object{type=string,quantity=int,reason=string,notes=string,unit_cost=string,supplier=string,location=string} true "Movement"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string,data=object{available=int,requested=int}}
// @Failure 503 {object} object{success=bool,error=string}
// @Router /api/inventory/items/{id}/transactions [post]
func (h *InventoryHandler) ApplyTransactionDoc() {}

// ListTransactions godoc
// @Summary List ledger transactions
// @Tags Ledger
// @Security BearerAuth
// @Produce json
// @Param item_id query string false "Item ID"
// @Param user_id query string false "Actor ID"
// @Param type query string false "check-in, check-out, adjustment or transfer"
// @Param from query string false "RFC3339, inclusive"
// @Param to query string false "RFC3339, exclusive"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} object{success=bool,data=array}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/inventory/transactions [get]
func (h *InventoryHandler) ListTransactionsDoc() {}

// Categories godoc
// @Summary Create or list categories
// @Tags Categories
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{name=string,description=string} false "Category (POST only, Admin)"
// @Success 200 {object} object{success=bool,data=array}
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Router /api/inventory/categories [get]
// @Router /api/inventory/categories [post]
func (h *InventoryHandler) CategoriesDoc() {}

// Reports godoc
// @Summary Inventory reports
// @Description summary, transactions, low-stock and categories rollups over the tenant's snapshot
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Param category_id query string false "Category ID"
// @Param include_inactive query bool false "Include soft-deleted items (summary only)"
// @Success 200 {object} object{success=bool,data=object}
// @Router /api/inventory/reports/summary [get]
// @Router /api/inventory/reports/transactions [get]
// @Router /api/inventory/reports/low-stock [get]
// @Router /api/inventory/reports/categories [get]
func (h *InventoryHandler) ReportsDoc() {}

// ClassifyStock godoc
// @Summary Classify a quantity against thresholds
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Param quantity query int true "Quantity"
// @Param min query int true "Minimum threshold"
// @Param max query int true "Maximum threshold"
// @Success 200 {object} object{success=bool,data=object{status=string}}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/inventory/classify [get]
func (h *InventoryHandler) ClassifyStockDoc() {}

// HealthCheck godoc
// @Summary Health check
// @Description Check service health and store connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Failure 503 {object} object{success=bool,error=string}
// @Router /health [get]
func (h *InventoryHandler) HealthCheckDoc() {}
