package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/verdantlane/loyalty-game-server/internal/config"
	apperrors "github.com/verdantlane/loyalty-game-server/internal/errors"
	"github.com/verdantlane/loyalty-game-server/internal/game"
	"github.com/verdantlane/loyalty-game-server/internal/loyalty"
	"github.com/verdantlane/loyalty-game-server/internal/model"
	"github.com/verdantlane/loyalty-game-server/internal/repository"
	"github.com/verdantlane/loyalty-game-server/internal/token"
	"github.com/verdantlane/loyalty-game-server/internal/util"
)

// maxMetadataRetries bounds the re-read loop around version-conflicted
// metadata writes. The customer store only guarantees last-write-wins, so
// every mutation here is read -> modify -> write-if-version-matches.
const maxMetadataRetries = 3

type StartResult struct {
	Deck           game.Deck `json:"deck"`
	Signature      string    `json:"signature"`
	Nonce          string    `json:"nonce"`
	ExpiresAt      int64     `json:"expiresAt"`
	CooldownEndsAt time.Time `json:"cooldownEndsAt"`
}

// CompletionClaim is what the client submits back. The outcome is never
// trusted: every field is re-checked against the signature and the stored
// session state.
type CompletionClaim struct {
	Signature      string    `json:"signature"`
	Deck           game.Deck `json:"deck"`
	Nonce          string    `json:"nonce"`
	ExpiresAt      int64     `json:"expiresAt"`
	ElapsedSeconds int       `json:"elapsedSeconds"`
}

type CompleteResult struct {
	Success         bool         `json:"success"`
	PointsAwarded   int          `json:"pointsAwarded"`
	CooldownEndsAt  *time.Time   `json:"cooldownEndsAt,omitempty"`
	CurrentBalance  int          `json:"currentBalance"`
	Tier            loyalty.Tier `json:"tier"`
	DiscountPercent int          `json:"discountPercent"`
}

type GameService struct {
	customers repository.CustomerRepository
	events    repository.GameEventRepository
	codec     *token.Codec
	cooldown  time.Duration
	ttl       time.Duration
	now       func() time.Time
}

func NewGameService(
	customers repository.CustomerRepository,
	events repository.GameEventRepository,
	codec *token.Codec,
	cooldown time.Duration,
	ttl time.Duration,
) *GameService {
	return &GameService{
		customers: customers,
		events:    events,
		codec:     codec,
		cooldown:  cooldown,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Start issues a new signed challenge if the customer is off cooldown.
// The nonce and the new cooldown end are persisted before the token is
// returned, so a racing complete against stale state cannot succeed, and an
// abandoned session still consumes the play allowance.
func (s *GameService) Start(ctx context.Context, customerID string) (*StartResult, error) {
	for attempt := 0; attempt < maxMetadataRetries; attempt++ {
		customer, err := s.customers.FindByID(ctx, customerID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if customer == nil {
			return nil, apperrors.IdentityNotFound()
		}

		meta, err := model.DecodeMetadata(customer.Metadata)
		if err != nil {
			log.Error().Err(err).Str("customerId", customerID).Msg("start: corrupt customer metadata")
			return nil, apperrors.Internal("Corrupt customer metadata")
		}

		now := s.now()
		status := game.EvaluateCooldown(meta.GameSession.CooldownEndsAt, now)
		if !status.CanPlay {
			return nil, apperrors.CooldownActive(*status.EndsAt, status.Remaining)
		}

		deck, err := game.GenerateDeck(config.PairCount)
		if err != nil {
			return nil, apperrors.Internal("Failed to generate deck").WithCause(err)
		}

		nonce, err := util.GenerateNonce()
		if err != nil {
			return nil, apperrors.Internal("Failed to generate nonce").WithCause(err)
		}

		expiresAt := now.Add(s.ttl).Unix()
		_, signature, err := s.codec.Sign(token.Claims{
			Deck:      deck,
			Nonce:     nonce,
			ExpiresAt: expiresAt,
		})
		if err != nil {
			return nil, apperrors.Internal("Failed to sign challenge").WithCause(err)
		}

		cooldownEndsAt := now.Add(s.cooldown)
		meta.GameSession.LastNonce = &nonce
		meta.GameSession.CooldownEndsAt = &cooldownEndsAt

		blob, err := meta.Encode()
		if err != nil {
			return nil, apperrors.Internal("Failed to encode metadata").WithCause(err)
		}

		updated, err := s.customers.UpdateMetadata(ctx, customerID, customer.MetadataVersion, blob)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if updated == nil {
			// Version conflict: another start (or complete) won the write.
			// Re-read and re-evaluate from scratch.
			log.Warn().Str("customerId", customerID).Int("attempt", attempt+1).Msg("start: metadata version conflict, retrying")
			continue
		}

		s.recordEvent(ctx, customerID, model.GameEventSessionStarted, 0)

		log.Info().
			Str("customerId", customerID).
			Int64("expiresAt", expiresAt).
			Time("cooldownEndsAt", cooldownEndsAt).
			Msg("game session issued")

		return &StartResult{
			Deck:           deck,
			Signature:      signature,
			Nonce:          nonce,
			ExpiresAt:      expiresAt,
			CooldownEndsAt: cooldownEndsAt,
		}, nil
	}

	return nil, apperrors.Conflict("Customer record is under contention, retry")
}

// Complete verifies a claimed completion and, on a verified win, awards
// points and recomputes tier and discount in the same metadata write that
// clears the nonce.
//
// Check order is fixed: identity, nonce match, signature, expiry, deck
// integrity, elapsed-time plausibility. The nonce is cleared only by a
// fully-verified completion (win or over-time loss); malformed, unsigned, or
// expired input leaves it untouched.
func (s *GameService) Complete(ctx context.Context, customerID string, claim CompletionClaim) (*CompleteResult, error) {
	for attempt := 0; attempt < maxMetadataRetries; attempt++ {
		customer, err := s.customers.FindByID(ctx, customerID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if customer == nil {
			return nil, apperrors.IdentityNotFound()
		}

		meta, err := model.DecodeMetadata(customer.Metadata)
		if err != nil {
			log.Error().Err(err).Str("customerId", customerID).Msg("complete: corrupt customer metadata")
			return nil, apperrors.Internal("Corrupt customer metadata")
		}

		session := &meta.GameSession
		if session.LastNonce == nil || *session.LastNonce != claim.Nonce {
			s.recordEvent(ctx, customerID, model.GameEventVerificationRejected, 0)
			return nil, apperrors.InvalidSession()
		}

		err = s.codec.VerifyClaims(token.Claims{
			Deck:      claim.Deck,
			Nonce:     claim.Nonce,
			ExpiresAt: claim.ExpiresAt,
		}, claim.Signature)
		if err != nil {
			log.Warn().Str("customerId", customerID).Msg("complete: signature verification failed")
			s.recordEvent(ctx, customerID, model.GameEventVerificationRejected, 0)
			return nil, apperrors.VerificationFailed()
		}

		now := s.now()
		if now.Unix() > claim.ExpiresAt {
			// Expiry is checked before the nonce is consumed: an expired
			// submission rejects without burning the session state.
			return nil, apperrors.SessionExpired()
		}

		if err := game.ValidateDeck(claim.Deck, config.PairCount); err != nil {
			log.Warn().Err(err).Str("customerId", customerID).Msg("complete: deck integrity check failed")
			s.recordEvent(ctx, customerID, model.GameEventVerificationRejected, 0)
			return nil, apperrors.VerificationFailed()
		}

		won := claim.ElapsedSeconds >= 0 && claim.ElapsedSeconds <= config.MaxElapsedSeconds

		session.LastNonce = nil
		session.LastPlayedAt = &now

		pointsAwarded := 0
		if won {
			session.TotalWins++
			pointsAwarded = config.RewardPoints
			meta.Loyalty.Award(pointsAwarded)
		}

		blob, err := meta.Encode()
		if err != nil {
			return nil, apperrors.Internal("Failed to encode metadata").WithCause(err)
		}

		updated, err := s.customers.UpdateMetadata(ctx, customerID, customer.MetadataVersion, blob)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if updated == nil {
			// Lost the write race. If a concurrent complete consumed the
			// same nonce, the next pass fails the nonce match: at most one
			// award per issuance.
			log.Warn().Str("customerId", customerID).Int("attempt", attempt+1).Msg("complete: metadata version conflict, retrying")
			continue
		}

		snapshot := loyalty.SnapshotOf(meta.Loyalty)

		if won {
			s.recordEvent(ctx, customerID, model.GameEventSessionWon, pointsAwarded)
			log.Info().
				Str("customerId", customerID).
				Int("pointsAwarded", pointsAwarded).
				Int("balance", snapshot.CurrentBalance).
				Str("tier", string(snapshot.Tier)).
				Msg("game session won")
		} else {
			s.recordEvent(ctx, customerID, model.GameEventSessionLost, 0)
			log.Info().
				Str("customerId", customerID).
				Int("elapsedSeconds", claim.ElapsedSeconds).
				Msg("game session lost on time limit")
		}

		return &CompleteResult{
			Success:         won,
			PointsAwarded:   pointsAwarded,
			CooldownEndsAt:  session.CooldownEndsAt,
			CurrentBalance:  snapshot.CurrentBalance,
			Tier:            snapshot.Tier,
			DiscountPercent: snapshot.DiscountPercent,
		}, nil
	}

	return nil, apperrors.Conflict("Customer record is under contention, retry")
}

// History returns a customer's recent game events, newest first. The rows
// are observability data; nothing here feeds back into verification.
func (s *GameService) History(ctx context.Context, customerID string, limit, offset int) ([]model.GameEvent, error) {
	if s.events == nil {
		return []model.GameEvent{}, nil
	}
	events, err := s.events.FindByCustomerID(ctx, customerID, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if events == nil {
		events = []model.GameEvent{}
	}
	return events, nil
}

// recordEvent writes an observability row. Failures are logged and ignored:
// events are never load-bearing.
func (s *GameService) recordEvent(ctx context.Context, customerID string, eventType model.GameEventType, points int) {
	if s.events == nil {
		return
	}
	if _, err := s.events.Create(ctx, model.CreateGameEventParams{
		CustomerID:    customerID,
		Type:          eventType,
		PointsAwarded: points,
	}); err != nil {
		log.Warn().Err(err).Str("customerId", customerID).Str("eventType", string(eventType)).Msg("failed to record game event")
	}
}
