package services

import (
	"testing"
	"time"

	"github.com/senyabanana/auction-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)
	user := &models.User{ID: uuid.New(), Type: models.Buyer}

	raw, err := tokens.Issue(user)
	require.NoError(t, err)

	actor, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, user.ID, actor.UserID)
	assert.Equal(t, models.Buyer, actor.Type)
}

func TestTokenRejected(t *testing.T) {
	issuedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tokens := NewTokenService("secret", time.Hour)
	tokens.now = func() time.Time { return issuedAt }

	raw, err := tokens.Issue(&models.User{ID: uuid.New(), Type: models.Supplier})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := NewTokenService("secret", time.Hour)
		later.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
		_, err := later.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other key", func(t *testing.T) {
		other := NewTokenService("another", time.Hour)
		other.now = tokens.now
		_, err := other.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered", func(t *testing.T) {
		i := len(raw) - 5
		replacement := "A"
		if raw[i] == 'A' {
			replacement = "B"
		}
		tampered := raw[:i] + replacement + raw[i+1:]
		_, err := tokens.Parse(tampered)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			UserType: models.Buyer,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   uuid.NewString(),
				Issuer:    tokenIssuer,
				ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
			},
		})
		none, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tokens.Parse(none)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			UserType: models.Buyer,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   uuid.NewString(),
				Issuer:    "someone-else",
				ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
			},
		})
		signed, err := foreign.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = tokens.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
