// Package client contains the remote side of the paykeeper data layer.
//
// # Overview
//
// The package provides:
//  1. The RemoteStore contract: per-collection CRUD and domain queries
//     against the backend, plus IsInitialized and an auth-state
//     subscription. Client extends it with account operations.
//  2. A gRPC implementation (GRPCClient) that manages the connection,
//     injects an access token via an interceptor, transparently refreshes
//     expired tokens, and maps gRPC status codes to sentinel errors.
//
// # Error Handling
//
// Calls made before Init return ErrNotReady. Failures are classified so
// callers can decide between falling back and propagating:
// ErrUnavailable is network-shaped (see IsNetworkError), ErrConflict and
// ErrNotFound describe remote state, ErrInvalid is a business rejection,
// ErrUnauthorized needs a new login. Anything else is transient.
//
// Concurrency & Contexts
//
// GRPCClient is safe for concurrent use. Every call is bounded by the
// configured request timeout on top of the caller's context.
package client
