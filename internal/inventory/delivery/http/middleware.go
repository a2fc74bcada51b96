package http

import (
	"net/http"
	"strings"

	"github.com/tair/supply-ledger/pkg/auth"
	"github.com/tair/supply-ledger/pkg/logger"
)

// AuthMiddleware validates the bearer token and stores its claims in the
// request context. Tenant and actor of every operation come from there.
func AuthMiddleware(tokens *auth.TokenManager) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn(r.Context()).Msg("Missing authorization header")
				respondError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			// Extract token from "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Warn(r.Context()).Msg("Invalid authorization header format")
				respondError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			claims, err := tokens.ValidateToken(parts[1])
			if err != nil {
				logger.Warn(r.Context()).Err(err).Msg("Invalid token")
				respondError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			logger.Debug(r.Context()).
				Str("user_id", claims.UserID).
				Str("tenant_id", claims.TenantID).
				Str("role", claims.Role).
				Msg("User authenticated")

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		}
	}
}

// AdminMiddleware checks if user has admin role
func AdminMiddleware(tokens *auth.TokenManager) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return AuthMiddleware(tokens)(func(w http.ResponseWriter, r *http.Request) {
			claims := mustClaims(r)
			if !claims.IsAdmin() {
				logger.Warn(r.Context()).
					Str("user_id", claims.UserID).
					Str("role", claims.Role).
					Msg("Admin access denied")
				respondError(w, http.StatusForbidden, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// mustClaims returns the caller set by AuthMiddleware. Routes are only
// registered behind it, so a missing value is a wiring bug.
func mustClaims(r *http.Request) *auth.Claims {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		panic("http: handler registered without AuthMiddleware")
	}
	return claims
}
