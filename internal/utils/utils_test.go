package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/hall-booking/internal/model"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	acc := model.Account{ID: 42, Name: "Dana", Role: model.RoleRequester}
	tok, err := NewAccessToken("s3cret", acc, 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

	claims, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, model.RoleRequester, claims.Role)
	assert.Equal(t, "Dana", claims.Name)
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, err := NewAccessToken("s3cret", model.Account{ID: 1, Role: model.RoleAdmin}, 5)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := ParseAccessToken("other", good.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		old, err := NewAccessToken("s3cret", model.Account{ID: 1, Role: model.RoleAdmin}, -1)
		require.NoError(t, err)
		_, err = ParseAccessToken("s3cret", old.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		claims := Claims{Role: "OWNER", RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "9",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
		require.NoError(t, err)
		_, err = ParseAccessToken("s3cret", raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRefreshToken(t *testing.T) {
	r, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, r.Raw, 96)
	assert.Len(t, HashRefreshRaw(r.Raw), 64)
	assert.Equal(t, HashRefreshRaw(r.Raw), HashRefreshRaw(r.Raw))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong horse"))

	assert.False(t, NeedsRehash(hash, bcrypt.MinCost))
	assert.True(t, NeedsRehash(hash, bcrypt.MinCost+1))
}
