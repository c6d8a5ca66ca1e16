// Package services contains the application services of the paykeeper
// client: per-entity APIs over the router, settings and activity log,
// authentication, sync status and encrypted backups.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/paykeeper/internal/client/client"
	"github.com/dmitrijs2005/paykeeper/internal/client/localstore"
	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/cryptox"
)

// Offline auth metadata keys, all under authPrefix.
const (
	authPrefix   = "auth."
	metaUsername = authPrefix + "username"
	metaSalt     = authPrefix + "salt"
	metaVerifier = authPrefix + "verifier"
)

var ErrOfflineDataUnavailable = errors.New("no offline login data, log in online first")

// AuthService defines authentication operations for the UI.
//
// Contract:
//   - OnlineLogin: authenticate against the server and cache offline auth data.
//   - OfflineLogin: derive and verify credentials against locally cached data.
//   - Login: online login, falling back to offline login when the server is unreachable.
//   - Register: create a new user on the server.
//   - Logout: drop the server session; cached offline data is kept.
//   - ClearOfflineData: wipe locally cached auth metadata.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	OfflineLogin(ctx context.Context, username string, password []byte) ([]byte, error)
	OnlineLogin(ctx context.Context, username string, password []byte) ([]byte, error)
	Login(ctx context.Context, username string, password []byte) (key []byte, offline bool, err error)
	Register(ctx context.Context, username string, password []byte) error
	Logout()
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	ClearOfflineData(ctx context.Context) error
}

// authService is backed by the remote client and the local metadata table.
// A nil store disables offline login.
type authService struct {
	client client.Client
	store  *localstore.Store
}

func NewAuthService(c client.Client, store *localstore.Store) AuthService {
	return &authService{client: c, store: store}
}

// OfflineLogin derives a master key from the password and the cached salt
// and checks it against the cached verifier.
func (a *authService) OfflineLogin(ctx context.Context, username string, password []byte) ([]byte, error) {
	if a.store == nil {
		return nil, ErrOfflineDataUnavailable
	}
	meta := a.store.Repos().Metadata

	savedUsername, ok, err := meta.Get(ctx, metaUsername)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOfflineDataUnavailable
	}
	if string(savedUsername) != username {
		return nil, client.ErrUnauthorized
	}

	savedSalt, okSalt, err := meta.Get(ctx, metaSalt)
	if err != nil {
		return nil, err
	}
	savedVerifier, okVerifier, err := meta.Get(ctx, metaVerifier)
	if err != nil {
		return nil, err
	}
	if !okSalt || !okVerifier {
		return nil, ErrOfflineDataUnavailable
	}

	masterKeyCandidate := cryptox.DeriveMasterKey(password, savedSalt)
	verifierCandidate := cryptox.MakeVerifier(masterKeyCandidate)

	if subtle.ConstantTimeCompare(savedVerifier, verifierCandidate) == 0 {
		return nil, client.ErrUnauthorized
	}
	return masterKeyCandidate, nil
}

// OnlineLogin authenticates against the server, caches username, salt and
// verifier for offline login and returns the derived master key.
func (a *authService) OnlineLogin(ctx context.Context, userName string, password []byte) ([]byte, error) {
	salt, err := a.client.GetSalt(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("get salt error: %w", err)
	}

	masterKeyCandidate := cryptox.DeriveMasterKey(password, salt)
	verifierCandidate := cryptox.MakeVerifier(masterKeyCandidate)

	if err := a.client.Login(ctx, userName, verifierCandidate); err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	if err := a.saveOfflineData(ctx, userName, salt, verifierCandidate); err != nil {
		return nil, fmt.Errorf("offline data saving error: %w", err)
	}
	return masterKeyCandidate, nil
}

func (a *authService) Login(ctx context.Context, username string, password []byte) ([]byte, bool, error) {
	key, err := a.OnlineLogin(ctx, username, password)
	if err == nil {
		return key, false, nil
	}
	if !client.IsNetworkError(err) && !errors.Is(err, client.ErrNotReady) {
		return nil, false, err
	}
	key, offErr := a.OfflineLogin(ctx, username, password)
	if offErr != nil {
		return nil, false, offErr
	}
	return key, true, nil
}

func (a *authService) saveOfflineData(ctx context.Context, userName string, salt []byte, verifier []byte) error {
	if a.store == nil {
		return nil
	}
	return a.store.InTx(ctx, func(ctx context.Context, tx *localstore.Repositories) error {
		if err := tx.Metadata.Put(ctx, metaUsername, []byte(userName)); err != nil {
			return err
		}
		if err := tx.Metadata.Put(ctx, metaSalt, salt); err != nil {
			return err
		}
		return tx.Metadata.Put(ctx, metaVerifier, verifier)
	})
}

// Register creates a new account on the server with a random salt and the
// verifier of the derived master key.
func (a *authService) Register(ctx context.Context, username string, password []byte) error {
	salt := common.GenerateRandByteArray(32)
	key := cryptox.DeriveMasterKey(password, salt)
	verifier := cryptox.MakeVerifier(key)

	return a.client.Register(ctx, username, salt, verifier)
}

func (a *authService) Logout() {
	a.client.Logout()
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

// ClearOfflineData wipes the cached auth metadata.
func (a *authService) ClearOfflineData(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	_, err := a.store.Repos().Metadata.DeletePrefix(ctx, authPrefix)
	return err
}
