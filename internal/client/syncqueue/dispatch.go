package syncqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/paykeeper/internal/client/client"
	"github.com/dmitrijs2005/paykeeper/internal/client/localstore"
	"github.com/dmitrijs2005/paykeeper/internal/client/models"
	"github.com/dmitrijs2005/paykeeper/internal/records"
)

// errLocalStore wraps local failures that happen after the remote accepted a
// change. The cycle stops so the change is not replayed out of order.
var errLocalStore = errors.New("local store")

func (m *Manager) dispatch(ctx context.Context, item *models.PendingChange) error {
	switch item.Action {
	case models.ActionCreate:
		return m.replayCreate(ctx, item)
	case models.ActionUpdate:
		return m.replayUpdate(ctx, item)
	case models.ActionDelete:
		return m.replayDelete(ctx, item)
	default:
		return fmt.Errorf("%w: unknown action %q", client.ErrInvalid, item.Action)
	}
}

// resolveTarget maps a temporary target id to its remote id. A temporary id
// without a mapping belongs to a create that never reached the server.
func (m *Manager) resolveTarget(ctx context.Context, item *models.PendingChange) (string, error) {
	ids, err := m.recordIDs(ctx, item)
	if err != nil {
		return "", err
	}
	id := ids[len(ids)-1]
	if records.IsTemporaryID(id) {
		return "", errOrphaned
	}
	return id, nil
}

// outbound strips the fields owned by the server.
func outbound(data records.Record, id string) records.Record {
	payload := data.Clone()
	if payload == nil {
		payload = records.Record{}
	}
	delete(payload, records.FieldVersion)
	if id == "" {
		delete(payload, records.FieldID)
	} else {
		payload.SetID(id)
	}
	return payload
}

func (m *Manager) replayCreate(ctx context.Context, item *models.PendingChange) error {
	localID := item.TargetID
	sendID := localID
	if records.IsTemporaryID(localID) {
		sendID = ""
	}

	created, err := m.remote.Create(ctx, item.Entity, outbound(item.Data, sendID))
	if err != nil {
		return err
	}
	remoteID := created.ID()
	version := created.Version()
	ids := uniq(localID, remoteID)
	later := m.hasLater(item.Entity, ids, item.Seq)

	err = m.store.InTx(ctx, func(ctx context.Context, tx *localstore.Repositories) error {
		current, err := currentLocal(ctx, tx, item.Entity, ids)
		if err != nil {
			return err
		}

		if remoteID != localID {
			if err := tx.IDMap.Put(ctx, models.IDMapping{
				Entity:    item.Entity,
				LocalID:   localID,
				RemoteID:  remoteID,
				CreatedAt: m.now().UTC(),
			}); err != nil {
				return err
			}
			if _, err := tx.Records.Delete(ctx, item.Entity, localID); err != nil {
				return err
			}
		}

		if err := m.mirror(ctx, tx, item.Entity, remoteID, created, current, later); err != nil {
			return err
		}
		return m.finish(ctx, tx, item, ids, version)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errLocalStore, err)
	}

	m.applied(item, ids, version)
	m.logger.Debug(ctx, "create replayed", "entity", item.Entity, "local_id", localID, "remote_id", remoteID, "version", version)
	return nil
}

func (m *Manager) replayUpdate(ctx context.Context, item *models.PendingChange) error {
	targetID, err := m.resolveTarget(ctx, item)
	if err != nil {
		return err
	}

	updated, err := m.remote.Update(ctx, item.Entity, targetID, outbound(item.Data, targetID), item.BaseVersion)
	if err != nil {
		return err
	}
	version := updated.Version()
	ids := uniq(item.TargetID, targetID)
	later := m.hasLater(item.Entity, ids, item.Seq)

	err = m.store.InTx(ctx, func(ctx context.Context, tx *localstore.Repositories) error {
		current, err := currentLocal(ctx, tx, item.Entity, ids)
		if err != nil {
			return err
		}
		if err := m.mirror(ctx, tx, item.Entity, targetID, updated, current, later); err != nil {
			return err
		}
		return m.finish(ctx, tx, item, ids, version)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errLocalStore, err)
	}

	m.applied(item, ids, version)
	m.logger.Debug(ctx, "update replayed", "entity", item.Entity, "id", targetID, "version", version)
	return nil
}

func (m *Manager) replayDelete(ctx context.Context, item *models.PendingChange) error {
	targetID, err := m.resolveTarget(ctx, item)
	if err != nil {
		return err
	}

	err = m.remote.Delete(ctx, item.Entity, targetID, item.BaseVersion)
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		return err
	}
	ids := uniq(item.TargetID, targetID)

	err = m.store.InTx(ctx, func(ctx context.Context, tx *localstore.Repositories) error {
		for _, id := range ids {
			if _, err := tx.Records.Delete(ctx, item.Entity, id); err != nil {
				return err
			}
		}
		return m.finish(ctx, tx, item, ids, 0)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errLocalStore, err)
	}

	m.applied(item, ids, 0)
	m.logger.Debug(ctx, "delete replayed", "entity", item.Entity, "id", targetID)
	return nil
}

// mirror stores the remote result locally under id. When later changes for
// the record are still queued, the local data already reflects them and only
// the version is taken from the remote. A record deleted locally stays gone.
func (m *Manager) mirror(ctx context.Context, tx *localstore.Repositories, entity records.Entity, id string, remote, current records.Record, later bool) error {
	var rec records.Record
	switch {
	case !later:
		rec = remote.Clone()
	case current != nil:
		rec = current.Clone()
		rec[records.FieldVersion] = remote.Version()
	default:
		return nil
	}
	rec.SetID(id)
	_, err := tx.Records.Save(ctx, entity, rec)
	return err
}

// finish rebases later changes for the record and drops the replayed one.
func (m *Manager) finish(ctx context.Context, tx *localstore.Repositories, item *models.PendingChange, ids []string, version int64) error {
	if version > 0 {
		for _, id := range ids {
			if err := tx.Pending.RebaseVersion(ctx, item.Entity, id, item.Seq, version); err != nil {
				return err
			}
		}
	}
	return tx.Pending.Delete(ctx, item.PendingID)
}

// currentLocal returns the first local record found under ids, or nil.
func currentLocal(ctx context.Context, tx *localstore.Repositories, entity records.Entity, ids []string) (records.Record, error) {
	for _, id := range ids {
		rec, err := tx.Records.GetByID(ctx, entity, id)
		if err == nil {
			return rec, nil
		}
		if !notFound(err) {
			return nil, err
		}
	}
	return nil, nil
}

func uniq(ids ...string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
