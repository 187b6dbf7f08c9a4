package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/verdantlane/loyalty-game-server/internal/errors"
	"github.com/verdantlane/loyalty-game-server/internal/loyalty"
	"github.com/verdantlane/loyalty-game-server/internal/model"
	"github.com/verdantlane/loyalty-game-server/internal/repository"
)

// LoyaltyStatus is the read-time view handed to clients and to the
// pricing/checkout collaborator. Tier and discount are derived from the
// balance on every read, never served from a stored copy.
type LoyaltyStatus struct {
	CurrentBalance  int          `json:"currentBalance"`
	LifetimePoints  int          `json:"lifetimePoints"`
	Tier            loyalty.Tier `json:"tier"`
	DiscountPercent int          `json:"discountPercent"`
	TotalWins       int          `json:"totalWins"`
	LastPlayedAt    *time.Time   `json:"lastPlayedAt,omitempty"`
	CooldownEndsAt  *time.Time   `json:"cooldownEndsAt,omitempty"`
}

type LoyaltyService struct {
	customers repository.CustomerRepository
}

func NewLoyaltyService(customers repository.CustomerRepository) *LoyaltyService {
	return &LoyaltyService{customers: customers}
}

func (s *LoyaltyService) Status(ctx context.Context, customerID string) (*LoyaltyStatus, error) {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if customer == nil {
		return nil, apperrors.IdentityNotFound()
	}

	meta, err := model.DecodeMetadata(customer.Metadata)
	if err != nil {
		log.Error().Err(err).Str("customerId", customerID).Msg("loyalty status: corrupt customer metadata")
		return nil, apperrors.Internal("Corrupt customer metadata")
	}

	snapshot := loyalty.SnapshotOf(meta.Loyalty)
	return &LoyaltyStatus{
		CurrentBalance:  snapshot.CurrentBalance,
		LifetimePoints:  snapshot.LifetimePoints,
		Tier:            snapshot.Tier,
		DiscountPercent: snapshot.DiscountPercent,
		TotalWins:       meta.GameSession.TotalWins,
		LastPlayedAt:    meta.GameSession.LastPlayedAt,
		CooldownEndsAt:  meta.GameSession.CooldownEndsAt,
	}, nil
}
