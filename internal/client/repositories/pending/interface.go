// Package pending persists the queue of local mutations awaiting replay.
package pending

import (
	"context"

	"github.com/dmitrijs2005/paykeeper/internal/client/models"
	"github.com/dmitrijs2005/paykeeper/internal/records"
)

type Repository interface {
	// Insert appends p and fills p.Seq with its durable position.
	Insert(ctx context.Context, p *models.PendingChange) error

	// ListActive returns changes with status pending in replay order.
	ListActive(ctx context.Context) ([]*models.PendingChange, error)

	// ListQuarantined returns failed and conflicting changes in replay order.
	ListQuarantined(ctx context.Context) ([]*models.PendingChange, error)

	// Get returns common.ErrorNotFound for an unknown pending id.
	Get(ctx context.Context, pendingID string) (*models.PendingChange, error)

	// Update persists attempts, status, error, base version and data.
	Update(ctx context.Context, p *models.PendingChange) error

	Delete(ctx context.Context, pendingID string) error

	// RebaseVersion sets the base version of active changes queued after
	// afterSeq for the same record.
	RebaseVersion(ctx context.Context, entity records.Entity, targetID string, afterSeq, version int64) error
}
