package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/verdantlane/loyalty-game-server/internal/errors"
	"github.com/verdantlane/loyalty-game-server/internal/httputil"
	"github.com/verdantlane/loyalty-game-server/internal/middleware"
	"github.com/verdantlane/loyalty-game-server/internal/service"
)

type LoyaltyHandler struct {
	loyaltyService *service.LoyaltyService
}

func NewLoyaltyHandler(loyaltyService *service.LoyaltyService) *LoyaltyHandler {
	return &LoyaltyHandler{loyaltyService: loyaltyService}
}

// GET /v1/loyalty
//
// Read by clients for display and by the pricing/checkout collaborator,
// which applies discountPercent to the order total.
func (h *LoyaltyHandler) Status(w http.ResponseWriter, r *http.Request) {
	customer := middleware.GetCustomer(r.Context())
	if customer == nil {
		httputil.WriteError(w, apperrors.Unauthorized("Missing customer context"))
		return
	}

	status, err := h.loyaltyService.Status(r.Context(), customer.ID)
	if err != nil {
		log.Error().Err(err).Str("customerId", customer.ID).Msg("failed to read loyalty status")
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, status)
}
