// Package router is the single entry point of entity reads and writes.
//
// While the connectivity monitor reports online and the remote store is
// initialized, commands go to the remote and the results are mirrored into
// the local store. Collection reads of an entity with queued changes return
// the merged local state. Otherwise, or after a network-shaped failure, they are
// served from the local store and writes are queued for replay in the same
// local transaction. Without a local store the router is degraded and serves
// remote-only.
package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/client/client"
	"github.com/dmitrijs2005/paykeeper/internal/client/connectivity"
	"github.com/dmitrijs2005/paykeeper/internal/client/localstore"
	"github.com/dmitrijs2005/paykeeper/internal/client/models"
	"github.com/dmitrijs2005/paykeeper/internal/client/syncqueue"
	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/logging"
	"github.com/dmitrijs2005/paykeeper/internal/records"
)

// ErrOfflineUnavailable is returned in degraded mode when the remote cannot
// serve a command.
var ErrOfflineUnavailable = errors.New("remote unavailable and offline mode disabled")

type Router struct {
	store    *localstore.Store
	remote   client.RemoteStore
	monitor  *connectivity.Monitor
	queue    *syncqueue.Manager
	registry *Registry
	logger   logging.Logger
	now      func() time.Time
}

type Option func(*Router)

func WithRegistry(r *Registry) Option {
	return func(rt *Router) { rt.registry = r }
}

func WithClock(now func() time.Time) Option {
	return func(rt *Router) { rt.now = now }
}

// New builds a router. A nil store or queue puts it in degraded mode.
func New(store *localstore.Store, remote client.RemoteStore, monitor *connectivity.Monitor, queue *syncqueue.Manager, l logging.Logger, opts ...Option) *Router {
	if l == nil {
		l = logging.NopLogger{}
	}
	r := &Router{
		store:    store,
		remote:   remote,
		monitor:  monitor,
		queue:    queue,
		registry: DefaultRegistry(),
		logger:   l.With("module", "router"),
		now:      time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Degraded reports whether offline operation is disabled.
func (r *Router) Degraded() bool {
	return r.store == nil || r.queue == nil
}

// Execute runs cmd against the remote or the local store.
func (r *Router) Execute(ctx context.Context, cmd Command) (Result, error) {
	h, err := r.registry.Lookup(cmd.Target())
	if err != nil {
		return Result{}, err
	}
	if q, ok := cmd.(Query); ok {
		// rejects unsupported queries and bad parameters on either path
		if _, err := h.Filter(nil, q.Query); err != nil {
			return Result{}, err
		}
	}

	cmd, err = r.canonical(ctx, cmd)
	if err != nil {
		return Result{}, err
	}

	if r.useRemote(cmd) {
		res, err := r.executeRemote(ctx, h, cmd)
		if err == nil {
			return res, nil
		}
		if !client.IsNetworkError(err) && !errors.Is(err, client.ErrNotReady) {
			return Result{}, err
		}
		r.monitor.ReportError(err)
		r.logger.Warn(ctx, "remote failed, serving locally", "entity", cmd.Target(), "error", err)
		if r.Degraded() {
			return Result{}, fmt.Errorf("%w: %v", ErrOfflineUnavailable, err)
		}
	}

	if r.Degraded() {
		return Result{}, ErrOfflineUnavailable
	}
	return r.executeLocal(ctx, h, cmd)
}

// useRemote decides the path. Commands on records with queued changes stay
// local: reads see the newest state and writes are replayed after the queue.
func (r *Router) useRemote(cmd Command) bool {
	if !r.monitor.IsOnline() || !r.remote.IsInitialized() {
		return false
	}
	if r.Degraded() {
		return true
	}
	switch c := cmd.(type) {
	case GetByID:
		return !records.IsTemporaryID(c.ID) && !r.queue.HasPending(c.Entity, c.ID)
	case Save:
		id := c.Record.ID()
		return id == "" || !r.queue.HasPending(c.Entity, id)
	case Delete:
		return !r.queue.HasPending(c.Entity, c.ID)
	}
	return true
}

// canonical replaces temporary ids that already have a remote id.
func (r *Router) canonical(ctx context.Context, cmd Command) (Command, error) {
	if r.store == nil {
		return cmd, nil
	}
	switch c := cmd.(type) {
	case GetByID:
		id, err := r.resolve(ctx, c.Entity, c.ID)
		c.ID = id
		return c, err
	case Delete:
		id, err := r.resolve(ctx, c.Entity, c.ID)
		c.ID = id
		return c, err
	case Save:
		id := c.Record.ID()
		if id == "" {
			return c, nil
		}
		resolved, err := r.resolve(ctx, c.Entity, id)
		if err != nil || resolved == id {
			return c, err
		}
		c.Record = c.Record.Clone()
		c.Record.SetID(resolved)
		return c, nil
	}
	return cmd, nil
}

func (r *Router) resolve(ctx context.Context, e records.Entity, id string) (string, error) {
	if !records.IsTemporaryID(id) {
		return id, nil
	}
	remoteID, ok, err := r.store.Repos().IDMap.Resolve(ctx, e, id)
	if err != nil {
		return "", err
	}
	if ok {
		return remoteID, nil
	}
	return id, nil
}

func (r *Router) executeRemote(ctx context.Context, h Handler, cmd Command) (Result, error) {
	res := Result{Source: SourceRemote}
	switch c := cmd.(type) {
	case GetAll:
		recs, err := r.remote.GetAll(ctx, c.Entity)
		if err != nil {
			return res, err
		}
		r.refresh(ctx, c.Entity, recs, true)
		if r.overlaid(c.Entity) {
			return r.executeLocal(ctx, h, c)
		}
		res.Records = recs

	case GetByID:
		rec, err := r.remote.GetByID(ctx, c.Entity, c.ID)
		if errors.Is(err, client.ErrNotFound) {
			return res, fmt.Errorf("%w: %s/%s", common.ErrorNotFound, c.Entity, c.ID)
		}
		if err != nil {
			return res, err
		}
		r.refresh(ctx, c.Entity, []records.Record{rec}, false)
		res.Record = rec

	case Query:
		recs, err := r.remote.Query(ctx, c.Entity, c.Query)
		if err != nil {
			return res, err
		}
		r.refresh(ctx, c.Entity, recs, false)
		if r.overlaid(c.Entity) {
			return r.executeLocal(ctx, h, c)
		}
		res.Records = recs

	case Save:
		rec, err := r.saveRemote(ctx, h, c)
		if err != nil {
			return res, err
		}
		res.Record = rec

	case Delete:
		if err := r.deleteRemote(ctx, c); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (r *Router) saveRemote(ctx context.Context, h Handler, c Save) (records.Record, error) {
	rec, err := h.PrepareSave(c.Record, r.now())
	if err != nil {
		return nil, err
	}
	localID := rec.ID()
	payload := rec.Clone()
	delete(payload, records.FieldVersion)

	var saved records.Record
	switch {
	case localID == "" || records.IsTemporaryID(localID):
		delete(payload, records.FieldID)
		saved, err = r.remote.Create(ctx, c.Entity, payload)
	default:
		saved, err = r.remote.Update(ctx, c.Entity, localID, payload, r.baseVersion(ctx, c.Entity, rec))
		if errors.Is(err, client.ErrNotFound) && rec.Version() == 0 {
			// a caller-chosen id the remote has not seen yet
			saved, err = r.remote.Create(ctx, c.Entity, payload)
		}
	}
	if err != nil {
		return nil, err
	}

	if r.store == nil {
		return saved, nil
	}
	err = r.store.InTx(ctx, func(ctx context.Context, tx *localstore.Repositories) error {
		if records.IsTemporaryID(localID) && localID != saved.ID() {
			if err := tx.IDMap.Put(ctx, models.IDMapping{
				Entity: c.Entity, LocalID: localID, RemoteID: saved.ID(), CreatedAt: r.now().UTC(),
			}); err != nil {
				return err
			}
			if _, err := tx.Records.Delete(ctx, c.Entity, localID); err != nil {
				return err
			}
		}
		out, err := tx.Records.Save(ctx, c.Entity, saved)
		if err == nil {
			saved = out
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("mirror %s: %w", c.Entity, err)
	}
	return saved, nil
}

func (r *Router) deleteRemote(ctx context.Context, c Delete) error {
	var base int64
	if r.store != nil {
		if rec, err := r.store.Collection(c.Entity).GetByID(ctx, c.ID); err == nil {
			base = rec.Version()
		}
	}
	err := r.remote.Delete(ctx, c.Entity, c.ID, base)
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		return err
	}
	if r.store == nil {
		return nil
	}
	if _, err := r.store.Collection(c.Entity).Delete(ctx, c.ID); err != nil {
		return fmt.Errorf("mirror %s: %w", c.Entity, err)
	}
	return nil
}

// baseVersion is the version a write is made against: the caller's copy if
// it carries one, else the local copy.
func (r *Router) baseVersion(ctx context.Context, e records.Entity, rec records.Record) int64 {
	if v := rec.Version(); v > 0 {
		return v
	}
	if r.store == nil {
		return 0
	}
	cur, err := r.store.Collection(e).GetByID(ctx, rec.ID())
	if err != nil {
		return 0
	}
	return cur.Version()
}

// overlaid reports whether queued changes make the local copy of e newer
// than the remote answer. Collection reads are then served from the local
// store, which refresh has just merged with the remote rows.
func (r *Router) overlaid(e records.Entity) bool {
	return !r.Degraded() && r.queue.HasPendingEntity(e)
}

// refresh mirrors remote reads into the local store. Records with queued
// changes keep their local state. With prune, local records the remote no
// longer has are dropped. Failures are only logged.
func (r *Router) refresh(ctx context.Context, e records.Entity, recs []records.Record, prune bool) {
	if r.Degraded() {
		return
	}
	err := r.store.InTx(ctx, func(ctx context.Context, tx *localstore.Repositories) error {
		seen := make(map[string]bool, len(recs))
		for _, rec := range recs {
			id := rec.ID()
			seen[id] = true
			if id == "" || r.queue.HasPending(e, id) {
				continue
			}
			if _, err := tx.Records.Save(ctx, e, rec); err != nil {
				return err
			}
		}
		if !prune {
			return nil
		}
		ids, err := tx.Records.IDs(ctx, e)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if seen[id] || records.IsTemporaryID(id) || r.queue.HasPending(e, id) {
				continue
			}
			cur, err := tx.Records.GetByID(ctx, e, id)
			if err != nil {
				return err
			}
			if cur.Version() == 0 {
				// never came from the remote, so its absence there means nothing
				continue
			}
			if _, err := tx.Records.Delete(ctx, e, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Warn(ctx, "cache refresh failed", "entity", e, "error", err)
	}
}

func (r *Router) executeLocal(ctx context.Context, h Handler, cmd Command) (Result, error) {
	res := Result{Source: SourceLocal}
	switch c := cmd.(type) {
	case GetAll:
		recs, err := r.store.Collection(c.Entity).GetAll(ctx)
		if err != nil {
			return res, err
		}
		res.Records = recs

	case GetByID:
		rec, err := r.store.Collection(c.Entity).GetByID(ctx, c.ID)
		if err != nil {
			return res, err
		}
		res.Record = rec

	case Query:
		all, err := r.store.Collection(c.Entity).GetAll(ctx)
		if err != nil {
			return res, err
		}
		recs, err := h.Filter(all, c.Query)
		if err != nil {
			return res, err
		}
		res.Records = recs

	case Save:
		rec, err := r.saveLocal(ctx, h, c)
		if err != nil {
			return res, err
		}
		res.Record = rec

	case Delete:
		if err := r.deleteLocal(ctx, c); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (r *Router) saveLocal(ctx context.Context, h Handler, c Save) (records.Record, error) {
	rec, err := h.PrepareSave(c.Record, r.now())
	if err != nil {
		return nil, err
	}

	change := &models.PendingChange{Entity: c.Entity, Action: models.ActionCreate}
	id := rec.ID()
	if id == "" {
		id = records.NewTemporaryID()
		rec.SetID(id)
	} else {
		cur, err := r.store.Collection(c.Entity).GetByID(ctx, id)
		switch {
		case err == nil && cur.Version() == 0 && !r.queue.HasPending(c.Entity, id):
			// a local copy the remote never confirmed
		case err == nil:
			change.Action = models.ActionUpdate
			change.BaseVersion = rec.Version()
			if change.BaseVersion == 0 {
				change.BaseVersion = cur.Version()
				if v := cur.Version(); v > 0 {
					rec[records.FieldVersion] = v
				}
			}
		case errors.Is(err, common.ErrorNotFound):
		default:
			return nil, err
		}
	}
	change.TargetID = id

	var saved records.Record
	err = r.queue.Enqueue(ctx, change, func(ctx context.Context, tx *localstore.Repositories) error {
		out, err := tx.Records.Save(ctx, c.Entity, rec)
		if err != nil {
			return err
		}
		saved = out
		change.Data = out.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Prime stores rec in the local store unless a copy already exists. Nothing
// is queued: the first save of the record creates it remotely. It reports
// whether rec was written.
func (r *Router) Prime(ctx context.Context, e records.Entity, rec records.Record) (bool, error) {
	if r.Degraded() {
		return false, nil
	}
	h, err := r.registry.Lookup(e)
	if err != nil {
		return false, err
	}
	rec, err = h.PrepareSave(rec, r.now())
	if err != nil {
		return false, err
	}
	delete(rec, records.FieldVersion)

	written := false
	err = r.store.InTx(ctx, func(ctx context.Context, tx *localstore.Repositories) error {
		_, err := tx.Records.GetByID(ctx, e, rec.ID())
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		if _, err := tx.Records.Save(ctx, e, rec); err != nil {
			return err
		}
		written = true
		return nil
	})
	return written, err
}

func (r *Router) deleteLocal(ctx context.Context, c Delete) error {
	cur, err := r.store.Collection(c.Entity).GetByID(ctx, c.ID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	change := &models.PendingChange{
		Entity:      c.Entity,
		Action:      models.ActionDelete,
		TargetID:    c.ID,
		Data:        records.Record{records.FieldID: c.ID},
		BaseVersion: cur.Version(),
	}
	return r.queue.Enqueue(ctx, change, func(ctx context.Context, tx *localstore.Repositories) error {
		_, err := tx.Records.Delete(ctx, c.Entity, c.ID)
		return err
	})
}

func (r *Router) GetAll(ctx context.Context, e records.Entity) ([]records.Record, error) {
	res, err := r.Execute(ctx, GetAll{Entity: e})
	return res.Records, err
}

func (r *Router) GetByID(ctx context.Context, e records.Entity, id string) (records.Record, error) {
	res, err := r.Execute(ctx, GetByID{Entity: e, ID: id})
	return res.Record, err
}

func (r *Router) Save(ctx context.Context, e records.Entity, rec records.Record) (records.Record, error) {
	res, err := r.Execute(ctx, Save{Entity: e, Record: rec})
	return res.Record, err
}

func (r *Router) Delete(ctx context.Context, e records.Entity, id string) error {
	_, err := r.Execute(ctx, Delete{Entity: e, ID: id})
	return err
}

func (r *Router) Query(ctx context.Context, e records.Entity, q records.Query) ([]records.Record, error) {
	res, err := r.Execute(ctx, Query{Entity: e, Query: q})
	return res.Records, err
}
