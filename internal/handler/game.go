package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/verdantlane/loyalty-game-server/internal/audit"
	apperrors "github.com/verdantlane/loyalty-game-server/internal/errors"
	"github.com/verdantlane/loyalty-game-server/internal/httputil"
	"github.com/verdantlane/loyalty-game-server/internal/middleware"
	"github.com/verdantlane/loyalty-game-server/internal/service"
)

type GameHandler struct {
	gameService *service.GameService
}

func NewGameHandler(gameService *service.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

// POST /v1/game/start
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	customer := middleware.GetCustomer(r.Context())
	if customer == nil {
		httputil.WriteError(w, apperrors.Unauthorized("Missing customer context"))
		return
	}

	result, err := h.gameService.Start(r.Context(), customer.ID)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeCooldownActive {
			h.writeCooldown(w, r, customer.ID, appErr)
			return
		}
		log.Error().Err(err).Str("customerId", customer.ID).Msg("failed to start game session")
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:       audit.EventSessionStart,
		CustomerID: customer.ID,
	})

	httputil.WriteJSON(w, http.StatusOK, result)
}

// POST /v1/game/complete
func (h *GameHandler) Complete(w http.ResponseWriter, r *http.Request) {
	customer := middleware.GetCustomer(r.Context())
	if customer == nil {
		httputil.WriteError(w, apperrors.Unauthorized("Missing customer context"))
		return
	}

	// A malformed or incomplete body maps to the same generic rejection as a
	// failed signature so the verifier gives no oracle about which check
	// tripped.
	var claim service.CompletionClaim
	if err := json.NewDecoder(r.Body).Decode(&claim); err != nil {
		httputil.WriteError(w, apperrors.VerificationFailed())
		return
	}
	if claim.Signature == "" || claim.Nonce == "" || len(claim.Deck) == 0 || claim.ExpiresAt == 0 {
		httputil.WriteError(w, apperrors.VerificationFailed())
		return
	}

	result, err := h.gameService.Complete(r.Context(), customer.ID, claim)
	if err != nil {
		code := apperrors.GetCode(err)
		switch code {
		case apperrors.ErrCodeInvalidSession, apperrors.ErrCodeVerificationFailed, apperrors.ErrCodeSessionExpired:
			audit.LogFromRequest(r, audit.Event{
				Type:       audit.EventVerificationReject,
				CustomerID: customer.ID,
				Details:    map[string]interface{}{"code": string(code)},
			})
		default:
			log.Error().Err(err).Str("customerId", customer.ID).Msg("failed to complete game session")
		}
		httputil.WriteError(w, err)
		return
	}

	eventType := audit.EventSessionLoss
	if result.Success {
		eventType = audit.EventSessionWin
	}
	audit.LogFromRequest(r, audit.Event{
		Type:       eventType,
		CustomerID: customer.ID,
		Details:    map[string]interface{}{"pointsAwarded": result.PointsAwarded},
	})
	if result.PointsAwarded > 0 {
		audit.LogFromRequest(r, audit.Event{
			Type:       audit.EventPointsAward,
			CustomerID: customer.ID,
			Details: map[string]interface{}{
				"points":  result.PointsAwarded,
				"balance": result.CurrentBalance,
				"tier":    string(result.Tier),
			},
		})
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// GET /v1/game/history
func (h *GameHandler) History(w http.ResponseWriter, r *http.Request) {
	customer := middleware.GetCustomer(r.Context())
	if customer == nil {
		httputil.WriteError(w, apperrors.Unauthorized("Missing customer context"))
		return
	}

	page := ParsePagination(r)
	events, err := h.gameService.History(r.Context(), customer.ID, page.Limit, page.Offset)
	if err != nil {
		log.Error().Err(err).Str("customerId", customer.ID).Msg("failed to read game history")
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

func (h *GameHandler) writeCooldown(w http.ResponseWriter, r *http.Request, customerID string, appErr *apperrors.AppError) {
	audit.LogFromRequest(r, audit.Event{
		Type:       audit.EventCooldownRejection,
		CustomerID: customerID,
	})

	details, ok := appErr.Details.(apperrors.CooldownDetails)
	if !ok {
		httputil.WriteError(w, appErr)
		return
	}

	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"cooldownActive": true,
		"cooldownEndsAt": details.CooldownEndsAt,
		"remainingMs":    details.RemainingMs,
	})
}
