package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlane/loyalty-game-server/internal/game"
	"github.com/verdantlane/loyalty-game-server/internal/util"
)

const testSecret = "test-secret-for-codec-0123456789ab"

func testClaims(t *testing.T) Claims {
	t.Helper()
	deck, err := game.GenerateDeck(9)
	require.NoError(t, err)
	return Claims{
		Deck:      deck,
		Nonce:     "a1b2c3d4e5f6",
		ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec := NewCodec(testSecret)
	claims := testClaims(t)

	payload, signature, err := codec.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	require.NotEmpty(t, signature)

	t.Run("verify returns original claims unchanged", func(t *testing.T) {
		got, err := codec.Verify(payload, signature)
		require.NoError(t, err)
		assert.Equal(t, claims.Nonce, got.Nonce)
		assert.Equal(t, claims.ExpiresAt, got.ExpiresAt)
		assert.Equal(t, claims.Deck, got.Deck)
	})

	t.Run("signing is deterministic for identical claims", func(t *testing.T) {
		payload2, signature2, err := codec.Sign(claims)
		require.NoError(t, err)
		assert.Equal(t, payload, payload2)
		assert.Equal(t, signature, signature2)
	})

	t.Run("VerifyClaims accepts reconstructed claims", func(t *testing.T) {
		reconstructed := Claims{
			Deck:      claims.Deck,
			Nonce:     claims.Nonce,
			ExpiresAt: claims.ExpiresAt,
		}
		assert.NoError(t, codec.VerifyClaims(reconstructed, signature))
	})
}

func TestCodecTamperDetection(t *testing.T) {
	codec := NewCodec(testSecret)
	claims := testClaims(t)

	payload, signature, err := codec.Sign(claims)
	require.NoError(t, err)

	t.Run("any payload mutation invalidates the signature", func(t *testing.T) {
		for i := 0; i < len(payload); i += 7 {
			mutated := []byte(payload)
			mutated[i] ^= 0x01
			_, err := codec.Verify(string(mutated), signature)
			assert.Error(t, err, "mutation at byte %d should fail verification", i)
		}
	})

	t.Run("any signature mutation fails verification", func(t *testing.T) {
		for i := 0; i < len(signature); i += 5 {
			mutated := []byte(signature)
			if mutated[i] == 'a' {
				mutated[i] = 'b'
			} else {
				mutated[i] = 'a'
			}
			_, err := codec.Verify(payload, string(mutated))
			assert.ErrorIs(t, err, ErrInvalidSignature, "mutation at byte %d", i)
		}
	})

	t.Run("wrong secret fails verification", func(t *testing.T) {
		other := NewCodec("another-secret-entirely-9876543210")
		_, err := other.Verify(payload, signature)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("mutated claims fail VerifyClaims", func(t *testing.T) {
		tampered := claims
		tampered.ExpiresAt += 3600
		assert.ErrorIs(t, codec.VerifyClaims(tampered, signature), ErrInvalidSignature)

		tampered = claims
		tampered.Nonce = "forged-nonce"
		assert.ErrorIs(t, codec.VerifyClaims(tampered, signature), ErrInvalidSignature)
	})
}

func TestCodecMalformedClaims(t *testing.T) {
	codec := NewCodec(testSecret)

	t.Run("correctly signed garbage payload fails deserialization", func(t *testing.T) {
		garbage := "not json at all"
		signature := util.HmacSHA256(testSecret, garbage)

		_, err := codec.Verify(garbage, signature)
		assert.ErrorIs(t, err, ErrMalformedClaims)
	})

	t.Run("empty payload fails", func(t *testing.T) {
		signature := util.HmacSHA256(testSecret, "")
		_, err := codec.Verify("", signature)
		assert.ErrorIs(t, err, ErrMalformedClaims)
	})
}
