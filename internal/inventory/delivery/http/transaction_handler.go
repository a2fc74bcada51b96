package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/internal/inventory/usecase/command"
	"github.com/tair/supply-ledger/internal/inventory/usecase/query"
	"github.com/tair/supply-ledger/pkg/logger"
)

type applyTransactionRequest struct {
	Type     string           `json:"type"`
	Quantity int              `json:"quantity"`
	Reason   string           `json:"reason"`
	Notes    string           `json:"notes"`
	UnitCost *decimal.Decimal `json:"unit_cost"`
	Supplier string           `json:"supplier"`
	Location string           `json:"location"`
}

// ApplyTransaction handles POST /api/inventory/items/{id}/transactions
func (h *InventoryHandler) ApplyTransaction(w http.ResponseWriter, r *http.Request) {
	claims := mustClaims(r)

	var req applyTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.commands.ApplyTransaction.Handle(r.Context(), command.ApplyTransactionCommand{
		TenantID: claims.TenantID,
		ItemID:   mux.Vars(r)["id"],
		ActorID:  claims.UserID,
		Type:     req.Type,
		Quantity: req.Quantity,
		Reason:   req.Reason,
		Notes:    req.Notes,
		UnitCost: req.UnitCost,
		Supplier: req.Supplier,
		Location: req.Location,
	})
	if err != nil {
		respondDomainError(w, r, err, "Failed to apply transaction")
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Transaction recorded successfully",
		Data:    tx,
	})
}

// ListTransactions handles GET /api/inventory/transactions
func (h *InventoryHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	claims := mustClaims(r)
	q := r.URL.Query()

	from, to, err := parseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid time range, use RFC3339")
		return
	}
	limit, offset := pageParams(q)

	txs, err := h.queries.ListTransactions.Handle(r.Context(), query.ListTransactionsQuery{
		TenantID: claims.TenantID,
		ItemID:   q.Get("item_id"),
		UserID:   q.Get("user_id"),
		Type:     domain.TransactionType(q.Get("type")),
		From:     from,
		To:       to,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondDomainError(w, r, err, "Failed to list transactions")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    txs,
	})
}

// idempotent rejects a repeated Idempotency-Key within the tenant. The key is
// released again when the wrapped handler fails so the client may retry.
func (h *InventoryHandler) idempotent(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("Idempotency-Key")
		if h.idempotency == nil || key == "" {
			next(w, r)
			return
		}

		claims := mustClaims(r)
		fresh, err := h.idempotency.Claim(r.Context(), claims.TenantID, key)
		if err != nil {
			respondDomainError(w, r, domain.PersistenceFailure("claim idempotency key", err), "Failed to check idempotency key")
			return
		}
		if !fresh {
			respondDomainError(w, r, domain.ErrDuplicateRequest, "Duplicate request")
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		if rw.statusCode >= http.StatusBadRequest {
			if err := h.idempotency.Forget(r.Context(), claims.TenantID, key); err != nil {
				logger.Warn(r.Context()).Err(err).Str("idempotency_key", key).Msg("Failed to release idempotency key")
			}
		}
	}
}

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if fromStr != "" {
		if from, err = time.Parse(time.RFC3339, fromStr); err != nil {
			return from, to, err
		}
	}
	if toStr != "" {
		if to, err = time.Parse(time.RFC3339, toStr); err != nil {
			return from, to, err
		}
	}
	return from, to, nil
}
