package http

import (
	"net/http"
	"strconv"

	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/internal/inventory/usecase/query"
)

// InventorySummary handles GET /api/inventory/reports/summary
func (h *InventoryHandler) InventorySummary(w http.ResponseWriter, r *http.Request) {
	claims := mustClaims(r)
	q := r.URL.Query()

	includeInactive, _ := strconv.ParseBool(q.Get("include_inactive"))
	summary, err := h.queries.InventorySummary.Handle(r.Context(), query.InventorySummaryQuery{
		TenantID:        claims.TenantID,
		CategoryID:      q.Get("category_id"),
		IncludeInactive: includeInactive,
	})
	if err != nil {
		respondDomainError(w, r, err, "Failed to summarize inventory")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    summary,
	})
}

// TransactionSummary handles GET /api/inventory/reports/transactions
func (h *InventoryHandler) TransactionSummary(w http.ResponseWriter, r *http.Request) {
	claims := mustClaims(r)
	q := r.URL.Query()

	from, to, err := parseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid time range, use RFC3339")
		return
	}

	summary, err := h.queries.TransactionSummary.Handle(r.Context(), query.TransactionSummaryQuery{
		TenantID: claims.TenantID,
		ItemID:   q.Get("item_id"),
		UserID:   q.Get("user_id"),
		Type:     domain.TransactionType(q.Get("type")),
		From:     from,
		To:       to,
	})
	if err != nil {
		respondDomainError(w, r, err, "Failed to summarize transactions")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    summary,
	})
}

// LowStock handles GET /api/inventory/reports/low-stock
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	claims := mustClaims(r)

	recs, err := h.queries.LowStock.Handle(r.Context(), query.LowStockQuery{
		TenantID:   claims.TenantID,
		CategoryID: r.URL.Query().Get("category_id"),
	})
	if err != nil {
		respondDomainError(w, r, err, "Failed to compute reorder recommendations")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    recs,
	})
}

// CategoryRollup handles GET /api/inventory/reports/categories
func (h *InventoryHandler) CategoryRollup(w http.ResponseWriter, r *http.Request) {
	claims := mustClaims(r)

	stats, err := h.queries.CategoryRollup.Handle(r.Context(), claims.TenantID)
	if err != nil {
		respondDomainError(w, r, err, "Failed to roll up categories")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    stats,
	})
}

// ClassifyStock handles GET /api/inventory/classify
func (h *InventoryHandler) ClassifyStock(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	quantity, err1 := strconv.Atoi(q.Get("quantity"))
	minThreshold, err2 := strconv.Atoi(q.Get("min"))
	maxThreshold, err3 := strconv.Atoi(q.Get("max"))
	if err1 != nil || err2 != nil || err3 != nil {
		respondError(w, http.StatusBadRequest, "quantity, min and max must be integers")
		return
	}

	status := h.queries.ClassifyStock.Handle(query.ClassifyStockQuery{
		Quantity:     quantity,
		MinThreshold: minThreshold,
		MaxThreshold: maxThreshold,
	})

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"quantity":      quantity,
			"min_threshold": minThreshold,
			"max_threshold": maxThreshold,
			"status":        status,
		},
	})
}
