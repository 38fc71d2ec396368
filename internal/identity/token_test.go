package identity

import (
	"testing"
	"time"

	"github.com/MosinFAM/chirp/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	t.Run("should round trip the caller profile", func(t *testing.T) {
		req := require.New(t)
		user := models.Author{ID: "user_1", Username: "alice", ImageURL: "https://img/alice.png"}

		token, err := tokens.Issue(user)
		req.NoError(err)

		caller, err := tokens.Parse(token)
		req.NoError(err)
		req.Equal(user, caller)
	})

	t.Run("should reject a token signed with another secret", func(t *testing.T) {
		req := require.New(t)

		token, err := NewTokens("other-secret", time.Hour).Issue(models.Author{ID: "user_1"})
		req.NoError(err)

		_, err = tokens.Parse(token)
		req.ErrorIs(err, models.ErrUnauthorized)
	})

	t.Run("should reject an expired token", func(t *testing.T) {
		req := require.New(t)

		token, err := NewTokens("test-secret", -time.Minute).Issue(models.Author{ID: "user_1"})
		req.NoError(err)

		_, err = tokens.Parse(token)
		req.ErrorIs(err, models.ErrUnauthorized)
	})

	t.Run("should reject unsigned tokens", func(t *testing.T) {
		req := require.New(t)

		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user_1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		req.NoError(err)

		_, err = tokens.Parse(token)
		req.ErrorIs(err, models.ErrUnauthorized)
	})

	t.Run("should refuse to issue for an empty user", func(t *testing.T) {
		_, err := tokens.Issue(models.Author{})
		require.ErrorIs(t, err, models.ErrValidation)
	})
}
