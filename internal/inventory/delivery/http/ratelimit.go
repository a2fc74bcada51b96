package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tair/supply-ledger/internal/inventory/lock"
	"github.com/tair/supply-ledger/pkg/logger"
)

// RateLimiter throttles requests per identifier. lock.RedisRateLimiter
// implements it.
type RateLimiter interface {
	Allow(ctx context.Context, identifier string) (lock.Quota, error)
}

// throttled limits ledger writes per tenant. Limiter failures let the
// request through.
func (h *InventoryHandler) throttled(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.limiter == nil {
			next(w, r)
			return
		}

		claims := mustClaims(r)
		quota, err := h.limiter.Allow(r.Context(), "tenant:"+claims.TenantID)
		if err != nil {
			logger.Error(r.Context()).
				Err(err).
				Str("tenant_id", claims.TenantID).
				Msg("Rate limiter error")
			next(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(quota.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(quota.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(quota.Reset.Unix(), 10))

		if !quota.Allowed {
			logger.Warn(r.Context()).
				Str("tenant_id", claims.TenantID).
				Int("limit", quota.Limit).
				Msg("Rate limit exceeded")
			retryAfter := time.Until(quota.Reset).Round(time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			respondError(w, http.StatusTooManyRequests, fmt.Sprintf("Too many requests. Try again in %v", retryAfter))
			return
		}

		next(w, r)
	}
}
