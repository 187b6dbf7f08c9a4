// Package token signs and verifies the challenge state the client carries
// between start and complete. No server-side token store exists: the claims
// travel with the client and the HMAC signature is the only thing that makes
// them trustworthy on the way back.
package token

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/verdantlane/loyalty-game-server/internal/game"
	"github.com/verdantlane/loyalty-game-server/internal/util"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrMalformedClaims  = errors.New("malformed claims")
)

// Claims is the challenge state bound into a signed token. Field order is
// the canonical serialization order; changing it invalidates every token in
// flight.
type Claims struct {
	Deck      game.Deck `json:"deck"`
	Nonce     string    `json:"nonce"`
	ExpiresAt int64     `json:"expiresAt"`
}

type Codec struct {
	secret string
}

// NewCodec builds a codec around the shared server secret. The secret is
// injected, never read from a package-level singleton, so it can be rotated
// and the codec tested in isolation.
func NewCodec(secret string) *Codec {
	return &Codec{secret: secret}
}

// Sign canonicalizes claims and returns the serialized payload plus its
// HMAC-SHA256 signature. Both values round-trip through the client as
// opaque strings.
func (c *Codec) Sign(claims Claims) (payload, signature string, err error) {
	data, err := json.Marshal(claims)
	if err != nil {
		return "", "", fmt.Errorf("marshal claims: %w", err)
	}
	return string(data), util.HmacSHA256(c.secret, string(data)), nil
}

// Verify recomputes the HMAC over the serialized payload and compares it in
// constant time. On a match the claims are deserialized and returned.
func (c *Codec) Verify(payload, signature string) (*Claims, error) {
	expected := util.HmacSHA256(c.secret, payload)
	if !util.ConstantTimeEqual(expected, signature) {
		return nil, ErrInvalidSignature
	}

	var claims Claims
	if err := json.Unmarshal([]byte(payload), &claims); err != nil {
		return nil, ErrMalformedClaims
	}
	return &claims, nil
}

// VerifyClaims checks a signature against claims reconstructed from the
// parts a client submits with a completion. The claims are re-serialized
// canonically, so any mutation of deck, nonce, or expiry since issuance
// produces a different signature.
func (c *Codec) VerifyClaims(claims Claims, signature string) error {
	_, expected, err := c.Sign(claims)
	if err != nil {
		return ErrMalformedClaims
	}
	if !util.ConstantTimeEqual(expected, signature) {
		return ErrInvalidSignature
	}
	return nil
}
