// Package records declares the server-side storage contract for entity
// records owned by a user.
package records

import (
	"context"

	"github.com/dmitrijs2005/paykeeper/internal/server/models"
)

// Repository stores versioned records. Every write bumps the version; update
// and delete take a base version, where 0 means unconditional.
type Repository interface {
	// List returns the live records of entity in creation order.
	List(ctx context.Context, userID, entity string) ([]*models.Record, error)

	// Get returns one live record or common.ErrorNotFound.
	Get(ctx context.Context, userID, entity, id string) (*models.Record, error)

	// Create stores rec at version 1. A live record with the same id yields
	// common.ErrorAlreadyExists; a deleted one is revived with a bumped version.
	Create(ctx context.Context, rec *models.Record) (*models.Record, error)

	// Update replaces the data of a live record. A missing record yields
	// common.ErrorNotFound, a stale base version or a deleted record
	// common.ErrVersionConflict.
	Update(ctx context.Context, rec *models.Record, baseVersion int64) (*models.Record, error)

	// Delete marks a record deleted with the same checks as Update.
	Delete(ctx context.Context, userID, entity, id string, baseVersion int64) error
}
