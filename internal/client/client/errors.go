package client

import (
	"context"
	"errors"
	"net"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrNotReady     = errors.New("remote store not initialized")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("remote record not found")
	ErrConflict     = errors.New("remote version conflict")
	ErrInvalid      = errors.New("rejected by server")
)

// IsNetworkError reports whether err looks like lost connectivity rather
// than an application-level answer from the server.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
