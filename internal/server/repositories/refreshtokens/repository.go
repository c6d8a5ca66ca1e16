// Package refreshtokens keeps the server side of refresh token rotation.
// Tokens are single use: Consume deletes the row it returns.
package refreshtokens

import (
	"context"
	"crypto/sha256"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	// Consume deletes the token with the given hash and returns it, or
	// common.ErrorNotFound when there is none.
	Consume(ctx context.Context, tokenHash []byte) (*models.RefreshToken, error)
	// DeleteExpired removes tokens that expired before t.
	DeleteExpired(ctx context.Context, t time.Time) (int64, error)
}

// HashToken is the lookup key stored for an opaque refresh token.
func HashToken(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}
