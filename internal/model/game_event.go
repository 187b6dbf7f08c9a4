package model

import "time"

// GameEventType classifies the append-only observability rows written after
// each session interaction. Events are never read back for correctness.
type GameEventType string

const (
	GameEventSessionStarted       GameEventType = "session_started"
	GameEventSessionWon           GameEventType = "session_won"
	GameEventSessionLost          GameEventType = "session_lost"
	GameEventVerificationRejected GameEventType = "verification_rejected"
)

type GameEvent struct {
	ID            string        `db:"id" json:"id"`
	CustomerID    string        `db:"customer_id" json:"customerId"`
	Type          GameEventType `db:"event_type" json:"type"`
	PointsAwarded int           `db:"points_awarded" json:"pointsAwarded"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
}

type CreateGameEventParams struct {
	CustomerID    string
	Type          GameEventType
	PointsAwarded int
}
