// Package idmap keeps the local-id to remote-id indirection table filled in
// when records created offline reach the server.
package idmap

import (
	"context"

	"github.com/dmitrijs2005/paykeeper/internal/client/models"
	"github.com/dmitrijs2005/paykeeper/internal/records"
)

type Repository interface {
	Put(ctx context.Context, m models.IDMapping) error

	// Resolve returns the remote id for localID, or ok=false when unmapped.
	Resolve(ctx context.Context, entity records.Entity, localID string) (remoteID string, ok bool, err error)

	List(ctx context.Context, entity records.Entity) ([]models.IDMapping, error)
}
