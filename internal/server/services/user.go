// Package services holds the server business logic: accounts and tokens,
// per-user record storage and backup upload URLs.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/dbx"
	"github.com/dmitrijs2005/paykeeper/internal/server/auth"
	"github.com/dmitrijs2005/paykeeper/internal/server/config"
	"github.com/dmitrijs2005/paykeeper/internal/server/models"
	"github.com/dmitrijs2005/paykeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/paykeeper/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
)

const (
	saltSize         = 32
	refreshTokenSize = 32
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// registration is the shape a new account must have. The verifier is a
// SHA-256 of the client's master key, so its length is fixed.
type registration struct {
	UserName string `validate:"required,max=128"`
	Salt     []byte `validate:"min=16,max=64"`
	Verifier []byte `validate:"len=32"`
}

// UserService registers accounts, checks verifiers and issues access and
// refresh tokens. Refresh tokens are rotated on every use.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validate    *validator.Validate
	secret      []byte
	accessTTL   time.Duration
	refreshTTL  time.Duration
	now         func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		validate:    validator.New(),
		secret:      []byte(cfg.SecretKey),
		accessTTL:   cfg.AccessTokenValidityDuration,
		refreshTTL:  cfg.RefreshTokenValidityDuration,
		now:         time.Now,
	}
}

// Register creates an account. A malformed request yields
// common.ErrorValidation, a taken username common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, username string, salt, verifier []byte) (*models.User, error) {
	req := registration{UserName: username, Salt: salt, Verifier: verifier}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, &models.User{UserName: username, Salt: salt, Verifier: verifier})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetSalt returns the stored salt of userName. Unknown users get a random
// salt so the answer does not reveal whether the account exists.
func (s *UserService) GetSalt(ctx context.Context, userName string) ([]byte, error) {
	user, err := s.repomanager.Users(s.db).FindByName(ctx, userName)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return common.GenerateRandByteArray(saltSize), nil
	case err != nil:
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return user.Salt, nil
}

func (s *UserService) Login(ctx context.Context, userName string, verifierCandidate []byte) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).FindByName(ctx, userName)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil, common.ErrorUnauthorized
	case err != nil:
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if subtle.ConstantTimeCompare(user.Verifier, verifierCandidate) != 1 {
		return nil, common.ErrorUnauthorized
	}
	return s.issueTokens(ctx, s.db, user.ID)
}

// RefreshToken trades a refresh token for a new pair. The old token is
// consumed in the same transaction that stores its replacement. Unknown
// tokens yield common.ErrorNotFound and expired ones
// common.ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*TokenPair, error) {
		stored, err := s.repomanager.RefreshTokens(tx).Consume(ctx, refreshtokens.HashToken(refreshToken))
		if err != nil {
			return nil, fmt.Errorf("consume refresh token: %w", err)
		}
		if !stored.Expires.After(s.now()) {
			return nil, common.ErrRefreshTokenExpired
		}
		return s.issueTokens(ctx, tx, stored.UserID)
	})
}

// PruneRefreshTokens deletes refresh tokens that are already expired.
func (s *UserService) PruneRefreshTokens(ctx context.Context) (int64, error) {
	return s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, s.now())
}

func (s *UserService) issueTokens(ctx context.Context, q dbx.DBTX, userID string) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.secret, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: sign access token: %v", common.ErrorInternal, err)
	}
	refresh, err := common.MakeRandHexString(refreshTokenSize)
	if err != nil {
		return nil, fmt.Errorf("%w: refresh token: %v", common.ErrorInternal, err)
	}

	stored := &models.RefreshToken{
		UserID:    userID,
		TokenHash: refreshtokens.HashToken(refresh),
		Expires:   s.now().Add(s.refreshTTL),
	}
	if err := s.repomanager.RefreshTokens(q).Create(ctx, stored); err != nil {
		return nil, fmt.Errorf("%w: store refresh token: %v", common.ErrorInternal, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
