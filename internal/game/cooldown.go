package game

import "time"

// CooldownStatus is the result of evaluating an identity's play eligibility.
type CooldownStatus struct {
	CanPlay   bool
	Remaining time.Duration
	EndsAt    *time.Time
}

// EvaluateCooldown maps the last recorded cooldown end and the current time
// to eligibility. A nil endsAt means the identity has never played.
func EvaluateCooldown(endsAt *time.Time, now time.Time) CooldownStatus {
	if endsAt == nil || !now.Before(*endsAt) {
		return CooldownStatus{CanPlay: true}
	}
	return CooldownStatus{
		CanPlay:   false,
		Remaining: endsAt.Sub(now),
		EndsAt:    endsAt,
	}
}
