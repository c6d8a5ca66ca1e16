// Package syncqueue replays local mutations against the remote store.
//
// Every write made while the remote is unreachable becomes a PendingChange,
// persisted in the same SQLite transaction as the local mutation. Manager
// drains the queue in insertion order, removes applied changes, retries
// transient failures a bounded number of times and quarantines conflicts and
// exhausted changes for manual resolution. Scheduler decides when to drain.
package syncqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/client/client"
	"github.com/dmitrijs2005/paykeeper/internal/client/connectivity"
	"github.com/dmitrijs2005/paykeeper/internal/client/localstore"
	"github.com/dmitrijs2005/paykeeper/internal/client/models"
	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/logging"
	"github.com/dmitrijs2005/paykeeper/internal/records"
	"github.com/google/uuid"
)

// DefaultMaxAttempts bounds automatic retries of one change.
const DefaultMaxAttempts = 3

var (
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrNotQuarantined = errors.New("pending change is not quarantined")

	// errOrphaned marks a change whose target only ever existed locally and
	// whose create never reached the server.
	errOrphaned = errors.New("target record was never created remotely")
)

// Status is the sync readout shown to users.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSynced  Status = "synced"
	StatusError   Status = "sync-error"
)

// Outcome summarises one drain cycle.
type Outcome string

const (
	OutcomeNoop    Outcome = "noop"
	OutcomeSynced  Outcome = "synced"
	OutcomePartial Outcome = "partial"
	OutcomeError   Outcome = "error"
)

type SyncResult struct {
	Outcome   Outcome
	Succeeded int
	Retried   int
	Failed    int
	Conflicts int
	Skipped   int
	// Err is the error that stopped the cycle early, if any.
	Err error
}

// CountListener receives the active and quarantined counts after each change.
type CountListener func(pending, quarantined int)

// StatusListener receives the sync status after each change.
type StatusListener func(Status)

type Manager struct {
	store       *localstore.Store
	remote      client.RemoteStore
	monitor     *connectivity.Monitor
	logger      logging.Logger
	metrics     *Metrics
	maxAttempts int
	now         func() time.Time

	draining atomic.Bool

	mu          sync.Mutex
	queue       []*models.PendingChange
	quarantined int
	status      Status

	listenersMu     sync.Mutex
	countListeners  map[int]CountListener
	statusListeners map[int]StatusListener
	nextID          int
}

type Option func(*Manager)

func WithMaxAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(store *localstore.Store, remote client.RemoteStore, monitor *connectivity.Monitor, l logging.Logger, opts ...Option) *Manager {
	if l == nil {
		l = logging.NopLogger{}
	}
	m := &Manager{
		store:           store,
		remote:          remote,
		monitor:         monitor,
		logger:          l.With("module", "syncqueue"),
		maxAttempts:     DefaultMaxAttempts,
		now:             time.Now,
		status:          StatusIdle,
		countListeners:  map[int]CountListener{},
		statusListeners: map[int]StatusListener{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Load refreshes the in-memory queue from durable storage. Call it once at
// start-up and after manual edits of the queue.
func (m *Manager) Load(ctx context.Context) error {
	active, err := m.store.Repos().Pending.ListActive(ctx)
	if err != nil {
		return err
	}
	quarantined, err := m.store.Repos().Pending.ListQuarantined(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.queue = active
	m.quarantined = len(quarantined)
	m.mu.Unlock()

	m.countsChanged()
	return nil
}

// Enqueue applies a local mutation and records change in one transaction.
// The in-memory queue is updated only after the transaction commits.
func (m *Manager) Enqueue(ctx context.Context, change *models.PendingChange, apply func(ctx context.Context, tx *localstore.Repositories) error) error {
	if change.PendingID == "" {
		change.PendingID = uuid.NewString()
	}
	if change.Timestamp.IsZero() {
		change.Timestamp = m.now().UTC()
	}
	change.Status = models.StatusPending
	change.Attempts = 0
	change.Error = ""

	err := m.store.InTx(ctx, func(ctx context.Context, tx *localstore.Repositories) error {
		if apply != nil {
			if err := apply(ctx, tx); err != nil {
				return err
			}
		}
		return tx.Pending.Insert(ctx, change)
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.queue = append(m.queue, change.Clone())
	m.mu.Unlock()

	m.logger.Debug(ctx, "change queued", "entity", change.Entity, "action", change.Action, "target", change.TargetID, "seq", change.Seq)
	if m.Status() == StatusSynced {
		m.setStatus(StatusIdle)
	}
	m.countsChanged()
	return nil
}

// PendingCount is the number of changes eligible for automatic replay.
func (m *Manager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// QuarantinedCount is the number of failed and conflicting changes.
func (m *Manager) QuarantinedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quarantined
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Pending returns copies of the active queue in replay order.
func (m *Manager) Pending() []*models.PendingChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.PendingChange, 0, len(m.queue))
	for _, p := range m.queue {
		out = append(out, p.Clone())
	}
	return out
}

// Quarantined lists failed and conflicting changes from durable storage.
func (m *Manager) Quarantined(ctx context.Context) ([]*models.PendingChange, error) {
	return m.store.Repos().Pending.ListQuarantined(ctx)
}

// HasPending reports whether an active change targets entity/id.
func (m *Manager) HasPending(entity records.Entity, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.queue {
		if p.Entity == entity && p.TargetID == id {
			return true
		}
	}
	return false
}

// HasPendingEntity reports whether any active change targets entity.
func (m *Manager) HasPendingEntity(entity records.Entity) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.queue {
		if p.Entity == entity {
			return true
		}
	}
	return false
}

// Retry puts a quarantined change back into the active queue at its
// original position with a fresh attempt budget.
func (m *Manager) Retry(ctx context.Context, pendingID string) error {
	p, err := m.store.Repos().Pending.Get(ctx, pendingID)
	if err != nil {
		return err
	}
	if p.Active() {
		return ErrNotQuarantined
	}
	p.Status = models.StatusPending
	p.Attempts = 0
	p.Error = ""
	if err := m.store.Repos().Pending.Update(ctx, p); err != nil {
		return err
	}
	m.logger.Info(ctx, "change re-queued", "pending_id", pendingID)
	if err := m.Load(ctx); err != nil {
		return err
	}
	if m.Status() == StatusSynced {
		m.setStatus(StatusIdle)
	}
	return nil
}

// Discard deletes a quarantined change for good.
func (m *Manager) Discard(ctx context.Context, pendingID string) error {
	p, err := m.store.Repos().Pending.Get(ctx, pendingID)
	if err != nil {
		return err
	}
	if p.Active() {
		return ErrNotQuarantined
	}
	if err := m.store.Repos().Pending.Delete(ctx, pendingID); err != nil {
		return err
	}
	m.logger.Info(ctx, "change discarded", "pending_id", pendingID, "entity", p.Entity, "target", p.TargetID)
	return m.Load(ctx)
}

// Sync runs one drain cycle. It is a no-op when offline or when nothing is
// queued, and returns ErrSyncInProgress if another cycle is running.
func (m *Manager) Sync(ctx context.Context) (SyncResult, error) {
	if !m.monitor.IsOnline() {
		return SyncResult{Outcome: OutcomeNoop}, nil
	}
	if !m.draining.CompareAndSwap(false, true) {
		return SyncResult{}, ErrSyncInProgress
	}
	defer m.draining.Store(false)

	if m.PendingCount() == 0 {
		return SyncResult{Outcome: OutcomeNoop}, nil
	}

	started := m.now()

	if !m.remote.IsInitialized() {
		if err := m.remote.Init(ctx); err != nil {
			m.monitor.ReportError(err)
			m.setStatus(StatusError)
			m.metrics.cycle(OutcomeError, m.now().Sub(started))
			m.logger.Warn(ctx, "sync aborted, remote not initialized", "error", err)
			return SyncResult{Outcome: OutcomeError, Err: err}, err
		}
	}

	m.setStatus(StatusSyncing)
	res := m.drain(ctx)

	switch {
	case res.Err != nil || res.Retried > 0:
		res.Outcome = OutcomeError
		m.setStatus(StatusError)
	case m.PendingCount() == 0 && m.QuarantinedCount() == 0:
		res.Outcome = OutcomeSynced
		m.setStatus(StatusSynced)
	default:
		res.Outcome = OutcomePartial
		m.setStatus(StatusIdle)
	}

	m.metrics.cycle(res.Outcome, m.now().Sub(started))
	m.logger.Info(ctx, "sync finished",
		"outcome", res.Outcome,
		"succeeded", res.Succeeded,
		"retried", res.Retried,
		"failed", res.Failed,
		"conflicts", res.Conflicts,
		"skipped", res.Skipped,
		"pending", m.PendingCount(),
		"quarantined", m.QuarantinedCount(),
	)
	return res, nil
}

func (m *Manager) drain(ctx context.Context) SyncResult {
	var res SyncResult

	// changes queued while draining wait for the next cycle
	snapshot := m.snapshotIDs()
	blocked := map[string]bool{}

	for _, id := range snapshot {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}

		item, ok := m.current(id)
		if !ok {
			continue
		}
		ctx := logging.ContextWith(ctx, "pending_id", item.PendingID)

		ids, err := m.recordIDs(ctx, item)
		if err != nil {
			res.Err = err
			return res
		}
		key := string(item.Entity) + "/" + ids[len(ids)-1]
		if blocked[key] {
			res.Skipped++
			continue
		}

		err = m.dispatch(ctx, item)
		switch {
		case err == nil:
			res.Succeeded++
			m.metrics.change("synced")

		case client.IsNetworkError(err) || errors.Is(err, client.ErrNotReady):
			m.monitor.ReportError(client.ErrUnavailable)
			m.logger.Warn(ctx, "connection lost during sync", "error", err)
			res.Err = err
			return res

		case errors.Is(err, client.ErrUnauthorized):
			m.logger.Warn(ctx, "sync needs a new login")
			res.Err = err
			return res

		case errors.Is(err, errLocalStore):
			m.logger.Error(ctx, "local store failed during sync", "error", err)
			res.Err = err
			return res

		case isConflict(item, err):
			if qerr := m.quarantine(ctx, item, models.StatusConflict, err); qerr != nil {
				res.Err = qerr
				return res
			}
			res.Conflicts++
			m.metrics.change("conflict")

		case errors.Is(err, client.ErrInvalid):
			if qerr := m.quarantine(ctx, item, models.StatusFailed, err); qerr != nil {
				res.Err = qerr
				return res
			}
			res.Failed++
			m.metrics.change("failed")

		default:
			exhausted, rerr := m.recordAttempt(ctx, item, err)
			if rerr != nil {
				res.Err = rerr
				return res
			}
			if exhausted {
				res.Failed++
				m.metrics.change("failed")
			} else {
				res.Retried++
				blocked[key] = true
				m.metrics.change("retried")
			}
		}
	}
	return res
}

func isConflict(item *models.PendingChange, err error) bool {
	if errors.Is(err, client.ErrConflict) || errors.Is(err, errOrphaned) {
		return true
	}
	return item.Action == models.ActionUpdate && errors.Is(err, client.ErrNotFound)
}

func (m *Manager) snapshotIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.queue))
	for _, p := range m.queue {
		ids = append(ids, p.PendingID)
	}
	return ids
}

// current returns a copy of the live queue entry, which may have been
// rebased since the snapshot was taken.
func (m *Manager) current(pendingID string) (*models.PendingChange, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.queue {
		if p.PendingID == pendingID {
			return p.Clone(), true
		}
	}
	return nil, false
}

// recordIDs returns the ids a change's record is known under: its target and,
// when the target was minted offline and has since been created remotely,
// the remote id last.
func (m *Manager) recordIDs(ctx context.Context, item *models.PendingChange) ([]string, error) {
	if !records.IsTemporaryID(item.TargetID) {
		return []string{item.TargetID}, nil
	}
	remoteID, ok, err := m.store.Repos().IDMap.Resolve(ctx, item.Entity, item.TargetID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errLocalStore, err)
	}
	if !ok {
		return []string{item.TargetID}, nil
	}
	return []string{item.TargetID, remoteID}, nil
}

func (m *Manager) quarantine(ctx context.Context, item *models.PendingChange, st models.PendingStatus, cause error) error {
	item.Status = st
	item.Error = cause.Error()
	if err := m.store.Repos().Pending.Update(ctx, item); err != nil {
		return fmt.Errorf("%w: %v", errLocalStore, err)
	}

	m.mu.Lock()
	m.removeLocked(item.PendingID)
	m.quarantined++
	m.mu.Unlock()

	m.logger.Warn(ctx, "change quarantined",
		"entity", item.Entity, "action", item.Action,
		"target", item.TargetID, "status", st, "error", cause)
	m.countsChanged()
	return nil
}

// recordAttempt counts a transient failure and reports whether the change
// ran out of attempts.
func (m *Manager) recordAttempt(ctx context.Context, item *models.PendingChange, cause error) (bool, error) {
	item.Attempts++
	item.Error = cause.Error()
	if item.Attempts >= m.maxAttempts {
		return true, m.quarantine(ctx, item, models.StatusFailed, cause)
	}

	if err := m.store.Repos().Pending.Update(ctx, item); err != nil {
		return false, fmt.Errorf("%w: %v", errLocalStore, err)
	}

	m.mu.Lock()
	for _, p := range m.queue {
		if p.PendingID == item.PendingID {
			p.Attempts = item.Attempts
			p.Error = item.Error
		}
	}
	m.mu.Unlock()

	m.logger.Info(ctx, "change will be retried", "attempts", item.Attempts, "error", cause)
	return false, nil
}

func (m *Manager) removeLocked(pendingID string) {
	for i, p := range m.queue {
		if p.PendingID == pendingID {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}

// hasLaterLocked reports whether an active change queued after seq targets
// one of ids.
func (m *Manager) hasLaterLocked(entity records.Entity, ids []string, seq int64) bool {
	for _, p := range m.queue {
		if p.Entity == entity && p.Seq > seq && contains(ids, p.TargetID) {
			return true
		}
	}
	return false
}

func (m *Manager) hasLater(entity records.Entity, ids []string, seq int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasLaterLocked(entity, ids, seq)
}

// applied removes a replayed change from memory and rebases the changes
// queued after it onto version.
func (m *Manager) applied(item *models.PendingChange, ids []string, version int64) {
	m.mu.Lock()
	m.removeLocked(item.PendingID)
	if version > 0 {
		for _, p := range m.queue {
			if p.Entity == item.Entity && p.Seq > item.Seq && contains(ids, p.TargetID) {
				p.BaseVersion = version
			}
		}
	}
	m.mu.Unlock()
	m.countsChanged()
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// OnCountChange registers fn and returns a function removing it.
func (m *Manager) OnCountChange(fn CountListener) func() {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	id := m.nextID
	m.nextID++
	m.countListeners[id] = fn
	return func() {
		m.listenersMu.Lock()
		delete(m.countListeners, id)
		m.listenersMu.Unlock()
	}
}

// OnStatusChange registers fn and returns a function removing it.
func (m *Manager) OnStatusChange(fn StatusListener) func() {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	id := m.nextID
	m.nextID++
	m.statusListeners[id] = fn
	return func() {
		m.listenersMu.Lock()
		delete(m.statusListeners, id)
		m.listenersMu.Unlock()
	}
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	if s == StatusSynced && m.quarantined > 0 {
		s = StatusIdle
	}
	if m.status == s {
		m.mu.Unlock()
		return
	}
	m.status = s
	m.mu.Unlock()

	m.listenersMu.Lock()
	fns := make([]StatusListener, 0, len(m.statusListeners))
	for _, fn := range m.statusListeners {
		fns = append(fns, fn)
	}
	m.listenersMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func (m *Manager) countsChanged() {
	m.mu.Lock()
	pending, quarantined := len(m.queue), m.quarantined
	m.mu.Unlock()

	m.metrics.counts(pending, quarantined)

	m.listenersMu.Lock()
	fns := make([]CountListener, 0, len(m.countListeners))
	for _, fn := range m.countListeners {
		fns = append(fns, fn)
	}
	m.listenersMu.Unlock()

	for _, fn := range fns {
		fn(pending, quarantined)
	}
}

// notFound reports whether err is a local miss.
func notFound(err error) bool {
	return errors.Is(err, common.ErrorNotFound)
}
