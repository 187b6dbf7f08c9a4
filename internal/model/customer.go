package model

import (
	"encoding/json"
	"time"
)

// Customer is the identity record. The metadata blob is shared with other
// storefront subsystems; this one owns exactly two keys inside it (see
// metadata.go). MetadataVersion backs the conditional writes that stand in
// for the compare-and-swap the store itself does not provide.
type Customer struct {
	ID              string          `db:"id" json:"id"`
	Email           *string         `db:"email" json:"email,omitempty"`
	APITokenHash    *string         `db:"api_token_hash" json:"-"`
	Metadata        json.RawMessage `db:"metadata" json:"metadata"`
	MetadataVersion int             `db:"metadata_version" json:"-"`
	RateLimitPerMin int             `db:"rate_limit_per_minute" json:"rateLimitPerMinute"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
	DisabledAt      *time.Time      `db:"disabled_at" json:"disabledAt,omitempty"`
}

type CreateCustomerParams struct {
	Email           *string
	APITokenHash    string
	RateLimitPerMin int
}
