package http

import (
	"errors"
	"net/http"

	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/pkg/logger"
)

// respondDomainError maps a ledger error onto a status code. Client errors
// carry the error text; server errors only carry message.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error, message string) {
	ctx := r.Context()

	var insufficient *domain.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		logger.Warn(ctx).Err(err).Msg(message)
		respondJSON(w, http.StatusConflict, Response{
			Success: false,
			Error:   domain.ErrInsufficientStock.Error(),
			Data: map[string]int{
				"available": insufficient.Available,
				"requested": insufficient.Requested,
			},
		})

	case domain.IsNotFound(err):
		respondError(w, http.StatusNotFound, "Item not found")

	case domain.IsValidation(err):
		logger.Debug(ctx).Err(err).Msg(message)
		respondError(w, http.StatusBadRequest, err.Error())

	case domain.IsConflict(err):
		logger.Warn(ctx).Err(err).Msg(message)
		respondError(w, http.StatusConflict, err.Error())

	case errors.Is(err, domain.ErrPersistenceFailure):
		logger.Error(ctx).Err(err).Msg(message)
		respondError(w, http.StatusServiceUnavailable, "Store unavailable")

	default:
		logger.Error(ctx).Err(err).Msg(message)
		respondError(w, http.StatusInternalServerError, message)
	}
}
