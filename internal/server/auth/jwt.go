// Package auth issues and verifies the HS256 access tokens of the server.
// The user id travels in the "sub" claim; every token carries a unique "jti".
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const Issuer = "paykeeper"

type Claims struct {
	jwt.RegisteredClaims
}

func GenerateToken(userID string, secretKey []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(secretKey)
}

// ParseToken verifies signature, issuer and expiry. An expired token yields
// common.ErrTokenExpired, anything else that fails common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, common.ErrTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	case claims.Subject == "":
		return nil, fmt.Errorf("%w: no subject", common.ErrInvalidToken)
	}
	return claims, nil
}

func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	c, err := ParseToken(tokenString, secretKey)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}
