package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/verdantlane/loyalty-game-server/internal/model"
)

type GameEventRepository interface {
	Create(ctx context.Context, params model.CreateGameEventParams) (*model.GameEvent, error)
	FindByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]model.GameEvent, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type gameEventRepo struct {
	db sqlxDB
}

func NewGameEventRepository(db *sqlx.DB) GameEventRepository {
	return &gameEventRepo{db: db}
}

func (r *gameEventRepo) Create(ctx context.Context, params model.CreateGameEventParams) (*model.GameEvent, error) {
	var event model.GameEvent
	err := r.db.GetContext(ctx, &event, `
		INSERT INTO game_events (customer_id, event_type, points_awarded)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.CustomerID, params.Type, params.PointsAwarded)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *gameEventRepo) FindByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]model.GameEvent, error) {
	var events []model.GameEvent
	err := r.db.SelectContext(ctx, &events, `
		SELECT * FROM game_events
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *gameEventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM game_events WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
