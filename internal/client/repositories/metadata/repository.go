// Package metadata is the key/value side table of the local store. Keys are
// dotted, e.g. "auth.salt", so a whole namespace can be dropped at once.
package metadata

import "context"

type Repository interface {
	// Get reports ok=false for a key that was never set.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix and returns how
	// many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}
