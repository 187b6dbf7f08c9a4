package model

import (
	"encoding/json"
	"time"

	"github.com/verdantlane/loyalty-game-server/internal/loyalty"
)

// Metadata sub-keys owned by this subsystem. Everything else in the blob
// belongs to other storefront code and must survive our writes untouched.
const (
	metadataKeyGameSession = "gameSession"
	metadataKeyLoyalty     = "loyalty"
)

// SessionState is the per-identity game session state, persisted inside the
// customer metadata blob. Mutated only by the issuer and the verifier.
type SessionState struct {
	LastNonce      *string    `json:"lastNonce,omitempty"`
	CooldownEndsAt *time.Time `json:"cooldownEndsAt,omitempty"`
	LastPlayedAt   *time.Time `json:"lastPlayedAt,omitempty"`
	TotalWins      int        `json:"totalWins"`
}

// CustomerMetadata is the decoded view of the blob: our two namespaces plus
// whatever other subsystems have stored, carried through opaquely.
type CustomerMetadata struct {
	GameSession SessionState
	Loyalty     loyalty.Ledger
	rest        map[string]json.RawMessage
}

// DecodeMetadata parses a customer metadata blob. Missing or empty blobs
// yield zero-value state: SessionState and the ledger are created lazily the
// first time an identity plays.
func DecodeMetadata(raw json.RawMessage) (*CustomerMetadata, error) {
	meta := &CustomerMetadata{rest: map[string]json.RawMessage{}}
	if len(raw) == 0 {
		return meta, nil
	}

	var blob map[string]json.RawMessage
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, err
	}

	for key, value := range blob {
		switch key {
		case metadataKeyGameSession:
			if err := json.Unmarshal(value, &meta.GameSession); err != nil {
				return nil, err
			}
		case metadataKeyLoyalty:
			if err := json.Unmarshal(value, &meta.Loyalty); err != nil {
				return nil, err
			}
		default:
			meta.rest[key] = value
		}
	}
	return meta, nil
}

// Encode re-serializes the blob, replacing only the two owned namespaces.
func (m *CustomerMetadata) Encode() (json.RawMessage, error) {
	blob := make(map[string]json.RawMessage, len(m.rest)+2)
	for key, value := range m.rest {
		blob[key] = value
	}

	session, err := json.Marshal(m.GameSession)
	if err != nil {
		return nil, err
	}
	blob[metadataKeyGameSession] = session

	ledger, err := json.Marshal(m.Loyalty)
	if err != nil {
		return nil, err
	}
	blob[metadataKeyLoyalty] = ledger

	return json.Marshal(blob)
}
