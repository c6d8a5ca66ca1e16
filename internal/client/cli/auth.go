package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/paykeeper/internal/common"
)

var errNotLoggedIn = errors.New("log in first")

// credentials asks for the email and password. The caller wipes the
// password.
func (a *App) credentials() (string, []byte, error) {
	userName, err := a.prompt.Line("Enter email")
	if err != nil {
		return "", nil, err
	}
	password, err := a.prompt.Password("Enter password")
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

// Register creates a server account. It needs the server to be reachable.
func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Register(ctx, userName, password); err != nil {
		a.printf("Registration failed: %s\n", err)
		return err
	}

	a.println("Success!")
	return nil
}

// Login authenticates against the server, falling back to the cached salt
// and verifier when it is unreachable. On success the master key is kept in
// memory, default settings are seeded and a sync is requested.
func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	masterKey, offline, err := a.authService.Login(ctx, userName, password)
	if err != nil {
		a.printf("Login failed: %s\n", err)
		return err
	}

	if offline {
		a.println("Server unavailable, logged in offline")
	} else {
		a.println("Logged in")
	}
	a.logger.Info(ctx, "login", "user", userName, "offline", offline)

	a.mu.Lock()
	a.masterKey = masterKey
	a.userName = userName
	a.mu.Unlock()

	if a.entities != nil {
		if _, err := a.entities.Settings.EnsureDefaults(ctx); err != nil {
			a.logger.Warn(ctx, "seeding default settings", "error", err)
		}
	}
	if a.syncService != nil {
		a.syncService.Trigger()
	}
	return nil
}

// Logout drops the server session, clears locally cached offline login data
// and removes the in-memory master key. Queued changes are kept.
func (a *App) Logout(ctx context.Context) error {
	a.authService.Logout()
	if err := a.authService.ClearOfflineData(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	common.WipeByteArray(a.masterKey)
	a.masterKey = nil
	a.userName = ""
	a.mu.Unlock()
	return nil
}

func (a *App) currentKey() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.masterKey == nil {
		return nil, errNotLoggedIn
	}
	return append([]byte(nil), a.masterKey...), nil
}

func (a *App) println(args ...any) {
	_, _ = fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}
