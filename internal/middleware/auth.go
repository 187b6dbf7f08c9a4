package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/verdantlane/loyalty-game-server/internal/audit"
	"github.com/verdantlane/loyalty-game-server/internal/model"
	"github.com/verdantlane/loyalty-game-server/internal/repository"
	"github.com/verdantlane/loyalty-game-server/internal/util"
)

type contextKey string

const CustomerContextKey contextKey = "customer"

func GetCustomer(ctx context.Context) *model.Customer {
	if customer, ok := ctx.Value(CustomerContextKey).(*model.Customer); ok {
		return customer
	}
	return nil
}

type AuthMiddleware struct {
	customerRepo repository.CustomerRepository
}

func NewAuthMiddleware(customerRepo repository.CustomerRepository) *AuthMiddleware {
	return &AuthMiddleware{customerRepo: customerRepo}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing authentication token",
			})
			return
		}

		tokenHash := util.HashToken(token)
		customer, err := m.customerRepo.FindByTokenHash(r.Context(), tokenHash)
		if err != nil {
			log.Error().Err(err).Msg("auth middleware: database error")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Authentication failed",
			})
			return
		}

		if customer == nil {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventAuthFailure})
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid token",
			})
			return
		}

		ctx := context.WithValue(r.Context(), CustomerContextKey, customer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
