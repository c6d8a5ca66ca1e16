package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	secret := []byte("super-secret")

	tok, err := GenerateToken("user-123", secret, time.Hour)
	require.NoError(t, err)

	c, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-123", c.Subject)
	assert.Equal(t, Issuer, c.Issuer)
	assert.NotEmpty(t, c.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), c.ExpiresAt.Time, 5*time.Second)

	other, err := GenerateToken("user-123", secret, time.Hour)
	require.NoError(t, err)
	c2, err := ParseToken(other, secret)
	require.NoError(t, err)
	assert.NotEqual(t, c.ID, c2.ID)

	id, err := GetUserIDFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id)
}

func TestParseToken_Rejects(t *testing.T) {
	secret := []byte("k")
	sign := func(c jwt.Claims, m jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(m, c).SignedString(key)
		require.NoError(t, err)
		return s
	}
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	expired, err := GenerateToken("u1", secret, -time.Second)
	require.NoError(t, err)
	foreign, err := GenerateToken("u1", []byte("other"), time.Hour)
	require.NoError(t, err)
	noSubject, err := GenerateToken("", secret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", expired, common.ErrTokenExpired},
		{"wrong secret", foreign, common.ErrInvalidToken},
		{"malformed", "not.a.jwt", common.ErrInvalidToken},
		{"no subject", noSubject, common.ErrInvalidToken},
		{"other issuer", sign(jwt.RegisteredClaims{Issuer: "someone", Subject: "u1", ExpiresAt: exp}, jwt.SigningMethodHS256, secret), common.ErrInvalidToken},
		{"no expiry", sign(jwt.RegisteredClaims{Issuer: Issuer, Subject: "u1"}, jwt.SigningMethodHS256, secret), common.ErrInvalidToken},
		{"hs512", sign(jwt.RegisteredClaims{Issuer: Issuer, Subject: "u1", ExpiresAt: exp}, jwt.SigningMethodHS512, secret), common.ErrInvalidToken},
		{"none alg", sign(jwt.RegisteredClaims{Issuer: Issuer, Subject: "u1", ExpiresAt: exp}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType), common.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, secret)
			assert.ErrorIs(t, err, tt.want)

			_, err = GetUserIDFromToken(tt.token, secret)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
