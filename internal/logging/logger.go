// Package logging is the structured logger shared by the client and server.
// Components receive a Logger and tag it with With("module", ...); request
// or change scoped fields travel in the context via ContextWith.
package logging

import "context"

// Logger takes alternating key-value pairs after the message:
//
//	log.Info(ctx, "sync finished", "outcome", outcome, "pending", n)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}
