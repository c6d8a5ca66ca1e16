// Package records stores entity records in the local SQLite database, one
// logical collection per entity name.
package records

import (
	"context"

	"github.com/dmitrijs2005/paykeeper/internal/records"
)

type Repository interface {
	// GetAll returns every record of the collection in insertion order.
	GetAll(ctx context.Context, collection records.Entity) ([]records.Record, error)

	// GetByID returns common.ErrorNotFound when the record is absent.
	GetByID(ctx context.Context, collection records.Entity, id string) (records.Record, error)

	// Save upserts rec. A record without id gets a temporary one; updatedAt
	// is always refreshed. The stored record is returned.
	Save(ctx context.Context, collection records.Entity, rec records.Record) (records.Record, error)

	// SaveAll upserts recs; wrap it in a transaction for atomicity.
	SaveAll(ctx context.Context, collection records.Entity, recs []records.Record) error

	// Delete reports whether a row was removed.
	Delete(ctx context.Context, collection records.Entity, id string) (bool, error)

	Clear(ctx context.Context, collection records.Entity) error

	// IDs lists the ids stored in the collection.
	IDs(ctx context.Context, collection records.Entity) ([]string, error)
}
