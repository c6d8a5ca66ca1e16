package models

import "time"

// RefreshToken is a stored refresh token. Only the SHA-256 of the opaque
// token handed to the client is kept.
type RefreshToken struct {
	UserID    string
	TokenHash []byte
	Expires   time.Time
	CreatedAt time.Time
}
