package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/client/router"
	"github.com/dmitrijs2005/paykeeper/internal/records"
)

// Activities is the audit trail of user actions.
type Activities struct {
	Collection
	now func() time.Time
}

func NewActivities(r *router.Router) *Activities {
	return &Activities{Collection: NewCollection(r, records.Activities), now: time.Now}
}

// Log records that action was performed on a record of entity.
func (a *Activities) Log(ctx context.Context, action string, entity records.Entity, recordID, details string) (records.Record, error) {
	return a.Save(ctx, records.Record{
		"action":    action,
		"entity":    string(entity),
		"recordId":  recordID,
		"details":   details,
		"timestamp": a.now().UTC().Format(time.RFC3339),
	})
}
