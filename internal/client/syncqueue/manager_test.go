package syncqueue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/paykeeper/internal/client/client"
	"github.com/dmitrijs2005/paykeeper/internal/client/client/remotetest"
	"github.com/dmitrijs2005/paykeeper/internal/client/connectivity"
	"github.com/dmitrijs2005/paykeeper/internal/client/localstore"
	"github.com/dmitrijs2005/paykeeper/internal/client/models"
	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/logging"
	"github.com/dmitrijs2005/paykeeper/internal/records"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	store   *localstore.Store
	remote  *remotetest.Store
	monitor *connectivity.Monitor
	manager *Manager
}

func newEnv(t *testing.T, online bool, opts ...Option) *env {
	t.Helper()
	store, err := localstore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	state := connectivity.Offline
	if online {
		state = connectivity.Online
	}
	e := &env{
		store:   store,
		remote:  remotetest.Ready(),
		monitor: connectivity.NewMonitor(state, logging.NopLogger{}),
	}
	e.manager = NewManager(store, e.remote, e.monitor, logging.NopLogger{}, opts...)
	return e
}

// save applies rec locally and queues the change the way the router does.
func (e *env) save(t *testing.T, entity records.Entity, action models.Action, rec records.Record) *models.PendingChange {
	t.Helper()
	change := &models.PendingChange{
		Entity:      entity,
		Action:      action,
		TargetID:    rec.ID(),
		Data:        rec.Clone(),
		BaseVersion: rec.Version(),
	}
	err := e.manager.Enqueue(context.Background(), change, func(ctx context.Context, tx *localstore.Repositories) error {
		_, err := tx.Records.Save(ctx, entity, rec)
		return err
	})
	require.NoError(t, err)
	return change
}

func (e *env) remove(t *testing.T, entity records.Entity, id string, base int64) *models.PendingChange {
	t.Helper()
	change := &models.PendingChange{
		Entity:      entity,
		Action:      models.ActionDelete,
		TargetID:    id,
		Data:        records.Record{records.FieldID: id},
		BaseVersion: base,
	}
	err := e.manager.Enqueue(context.Background(), change, func(ctx context.Context, tx *localstore.Repositories) error {
		_, err := tx.Records.Delete(ctx, entity, id)
		return err
	})
	require.NoError(t, err)
	return change
}

func (e *env) local(t *testing.T, entity records.Entity, id string) records.Record {
	t.Helper()
	rec, err := e.store.Collection(entity).GetByID(context.Background(), id)
	require.NoError(t, err)
	return rec
}

func TestSync_OfflineIsNoop(t *testing.T) {
	e := newEnv(t, false)
	e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID(), "name": "A"})

	res, err := e.manager.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, res.Outcome)
	assert.Empty(t, e.remote.Calls())
	assert.Equal(t, 1, e.manager.PendingCount())
}

func TestSync_EmptyQueueMakesNoCalls(t *testing.T) {
	e := newEnv(t, true)

	res, err := e.manager.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, res.Outcome)
	assert.Empty(t, e.remote.Calls())
}

func TestSync_ReplaysInOrderAndMapsTemporaryIDs(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, false)

	a := records.NewTemporaryID()
	b := records.NewTemporaryID()
	e.save(t, records.Employees, models.ActionCreate, records.Record{"id": a, "name": "first"})
	e.save(t, records.Employees, models.ActionUpdate, records.Record{"id": a, "name": "second"})
	e.save(t, records.Employees, models.ActionCreate, records.Record{"id": b, "name": "other"})
	require.Equal(t, 3, e.manager.PendingCount())

	e.monitor.SetOnline()
	res, err := e.manager.Sync(ctx)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSynced, res.Outcome)
	assert.Equal(t, 3, res.Succeeded)
	assert.Equal(t, 0, e.manager.PendingCount())
	assert.Equal(t, StatusSynced, e.manager.Status())

	ops := []string{}
	for _, c := range e.remote.Calls() {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []string{remotetest.OpCreate, remotetest.OpUpdate, remotetest.OpCreate}, ops)

	remoteA, ok, err := e.store.Repos().IDMap.Resolve(ctx, records.Employees, a)
	require.NoError(t, err)
	require.True(t, ok)

	stored := e.remote.Record(records.Employees, remoteA)
	assert.Equal(t, "second", stored["name"])
	assert.EqualValues(t, 2, stored.Version())

	mirrored := e.local(t, records.Employees, remoteA)
	assert.Equal(t, "second", mirrored["name"])
	assert.EqualValues(t, 2, mirrored.Version())

	_, err = e.store.Collection(records.Employees).GetByID(ctx, a)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	left, err := e.store.Repos().Pending.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestSync_RebasesLaterChangesOnNewVersion(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, true)
	e.remote.Seed(records.Employees, records.Record{"id": "e1", "name": "a"})
	_, err := e.store.Collection(records.Employees).Save(ctx, records.Record{"id": "e1", "name": "a", "version": 1})
	require.NoError(t, err)

	e.save(t, records.Employees, models.ActionUpdate, records.Record{"id": "e1", "name": "b", "version": 1})
	e.save(t, records.Employees, models.ActionUpdate, records.Record{"id": "e1", "name": "c", "version": 1})

	res, err := e.manager.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, res.Outcome)
	assert.Equal(t, 0, res.Conflicts)

	calls := e.remote.Calls()
	require.Len(t, calls, 2)
	assert.EqualValues(t, 1, calls[0].BaseVersion)
	assert.EqualValues(t, 2, calls[1].BaseVersion)

	assert.Equal(t, "c", e.remote.Record(records.Employees, "e1")["name"])
	assert.EqualValues(t, 3, e.local(t, records.Employees, "e1").Version())
}

func TestSync_NetworkFailureStopsCycleWithoutAttempt(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, true)
	first := e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID(), "name": "A"})
	e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID(), "name": "B"})
	e.remote.Fail(remotetest.OpCreate, client.ErrUnavailable)

	res, err := e.manager.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.ErrorIs(t, res.Err, client.ErrUnavailable)
	assert.False(t, e.monitor.IsOnline())
	assert.Equal(t, StatusError, e.manager.Status())
	assert.Equal(t, 1, e.remote.CallCount(remotetest.OpCreate))

	stored, err := e.store.Repos().Pending.Get(ctx, first.PendingID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Attempts)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, 2, e.manager.PendingCount())
}

func TestSync_TransientFailuresExhaustAttempts(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, true)
	change := e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID(), "name": "A"})
	boom := errors.New("boom")
	e.remote.Fail(remotetest.OpCreate, boom, boom, boom)

	for attempt := 1; attempt < DefaultMaxAttempts; attempt++ {
		res, err := e.manager.Sync(ctx)
		require.NoError(t, err)
		assert.Equal(t, OutcomeError, res.Outcome)
		assert.Equal(t, 1, res.Retried)

		stored, err := e.store.Repos().Pending.Get(ctx, change.PendingID)
		require.NoError(t, err)
		assert.Equal(t, attempt, stored.Attempts)
		assert.Equal(t, "boom", stored.Error)
		assert.Equal(t, 1, e.manager.PendingCount())
		assert.Equal(t, StatusError, e.manager.Status())
	}

	res, err := e.manager.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, e.manager.PendingCount())
	assert.Equal(t, 1, e.manager.QuarantinedCount())
	assert.Equal(t, StatusIdle, e.manager.Status())

	stored, err := e.store.Repos().Pending.Get(ctx, change.PendingID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, stored.Status)
	assert.Equal(t, DefaultMaxAttempts, stored.Attempts)
	assert.Equal(t, "boom", stored.Error)

	// quarantined changes are not replayed again
	res, err = e.manager.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, res.Outcome)
	assert.Equal(t, DefaultMaxAttempts, e.remote.CallCount(remotetest.OpCreate))
}

func TestSync_TransientFailureBlocksLaterChangesForSameRecord(t *testing.T) {
	e := newEnv(t, true)
	a := records.NewTemporaryID()
	e.save(t, records.Employees, models.ActionCreate, records.Record{"id": a, "name": "A"})
	e.save(t, records.Employees, models.ActionUpdate, records.Record{"id": a, "name": "A2"})
	e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID(), "name": "B"})
	e.remote.Fail(remotetest.OpCreate, errors.New("boom"))

	res, err := e.manager.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Retried)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 0, res.Conflicts)
	assert.Equal(t, 0, e.remote.CallCount(remotetest.OpUpdate))
	assert.Equal(t, 2, e.manager.PendingCount())

	res, err = e.manager.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, res.Outcome)
	assert.Equal(t, 2, e.remote.Count(records.Employees))
}

func TestSync_VersionMismatchIsConflict(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, true)
	e.remote.Seed(records.Employees, records.Record{"id": "e1", "name": "server", "version": 2})
	change := e.save(t, records.Employees, models.ActionUpdate, records.Record{"id": "e1", "name": "local", "version": 1})

	res, err := e.manager.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.Equal(t, 1, res.Conflicts)
	assert.Equal(t, 1, e.manager.QuarantinedCount())
	assert.Equal(t, StatusIdle, e.manager.Status())
	assert.Equal(t, "server", e.remote.Record(records.Employees, "e1")["name"])

	q, err := e.manager.Quarantined(ctx)
	require.NoError(t, err)
	require.Len(t, q, 1)
	assert.Equal(t, change.PendingID, q[0].PendingID)
	assert.Equal(t, models.StatusConflict, q[0].Status)
	assert.Contains(t, q[0].Error, "conflict")
}

func TestSync_UpdateOfMissingRecordIsConflict(t *testing.T) {
	e := newEnv(t, true)
	e.save(t, records.Employees, models.ActionUpdate, records.Record{"id": "gone", "name": "x", "version": 1})

	res, err := e.manager.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Conflicts)
}

func TestSync_ConflictDoesNotBlockLaterChanges(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, true)
	e.remote.Seed(records.Employees, records.Record{"id": "e1", "name": "server"})
	require.NoError(t, e.remote.Delete(ctx, records.Employees, "e1", 0))

	e.save(t, records.Employees, models.ActionUpdate, records.Record{"id": "e1", "name": "local", "version": 1})
	e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID(), "name": "unrelated"})

	res, err := e.manager.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.Equal(t, 1, res.Conflicts)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 0, e.manager.PendingCount())
	assert.Equal(t, 1, e.manager.QuarantinedCount())

	require.Equal(t, 1, e.remote.Count(records.Employees))
	created := e.remote.Record(records.Employees, "srv-1")
	require.NotNil(t, created)
	assert.Equal(t, "unrelated", created["name"])
}

func TestSync_InvalidFailsImmediately(t *testing.T) {
	e := newEnv(t, true)
	change := e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID()})
	e.remote.Fail(remotetest.OpCreate, client.ErrInvalid)

	res, err := e.manager.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	stored, err := e.store.Repos().Pending.Get(context.Background(), change.PendingID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, stored.Status)
	assert.Equal(t, 0, stored.Attempts)
}

func TestSync_DeleteOfMissingRemoteRecordSucceeds(t *testing.T) {
	e := newEnv(t, true)
	e.remove(t, records.Employees, "e1", 1)

	res, err := e.manager.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, res.Outcome)
	assert.Equal(t, 1, res.Succeeded)
}

func TestSync_DeleteAfterOfflineCreateUsesRemoteID(t *testing.T) {
	e := newEnv(t, true)
	a := records.NewTemporaryID()
	e.save(t, records.Employees, models.ActionCreate, records.Record{"id": a, "name": "A"})
	e.remove(t, records.Employees, a, 0)

	res, err := e.manager.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, res.Outcome)
	assert.Equal(t, 0, e.remote.Count(records.Employees))

	all, err := e.store.Collection(records.Employees).GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSync_OrphanedUpdateIsConflict(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, true)
	a := records.NewTemporaryID()
	create := e.save(t, records.Employees, models.ActionCreate, records.Record{"id": a, "name": "A"})
	e.save(t, records.Employees, models.ActionUpdate, records.Record{"id": a, "name": "A2"})
	e.remote.Fail(remotetest.OpCreate, client.ErrInvalid)

	res, err := e.manager.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Conflicts)
	assert.Equal(t, 2, e.manager.QuarantinedCount())
	assert.Equal(t, 0, e.remote.CallCount(remotetest.OpUpdate))

	require.NoError(t, e.manager.Discard(ctx, create.PendingID))
	assert.Equal(t, 1, e.manager.QuarantinedCount())
}

func TestSync_InitFailureLeavesQueueUntouched(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, true)
	e.remote = remotetest.New()
	e.manager = NewManager(e.store, e.remote, e.monitor, logging.NopLogger{})
	e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID()})
	e.remote.Fail(remotetest.OpInit, errors.New("refused"))

	res, err := e.manager.Sync(ctx)
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.Equal(t, StatusError, e.manager.Status())
	assert.False(t, e.monitor.IsOnline())
	assert.Equal(t, 1, e.manager.PendingCount())
	assert.Equal(t, 0, e.remote.CallCount(remotetest.OpCreate))

	e.monitor.SetOnline()
	res, err = e.manager.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, res.Outcome)
}

func TestSync_UnauthorizedStopsCycle(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, true)
	change := e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID()})
	e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID()})
	e.remote.Fail(remotetest.OpCreate, client.ErrUnauthorized)

	res, err := e.manager.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.ErrorIs(t, res.Err, client.ErrUnauthorized)
	assert.True(t, e.monitor.IsOnline())
	assert.Equal(t, 1, e.remote.CallCount(remotetest.OpCreate))

	stored, err := e.store.Repos().Pending.Get(ctx, change.PendingID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Attempts)
}

func TestSync_ConcurrentCallerIsRejected(t *testing.T) {
	e := newEnv(t, true)
	e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID()})

	e.manager.draining.Store(true)
	_, err := e.manager.Sync(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)
	e.manager.draining.Store(false)

	_, err = e.manager.Sync(context.Background())
	assert.NoError(t, err)
}

func TestSync_ParallelCallersDrainOnce(t *testing.T) {
	e := newEnv(t, true)
	for i := 0; i < 5; i++ {
		e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID()})
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.manager.Sync(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, e.remote.CallCount(remotetest.OpCreate))
	assert.Equal(t, 5, e.remote.Count(records.Employees))
	assert.Equal(t, 0, e.manager.PendingCount())
}

func TestEnqueue_RollsBackWhenApplyFails(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, false)
	applyErr := errors.New("apply")

	err := e.manager.Enqueue(ctx, &models.PendingChange{
		Entity:   records.Employees,
		Action:   models.ActionCreate,
		TargetID: "x",
		Data:     records.Record{"id": "x"},
	}, func(ctx context.Context, tx *localstore.Repositories) error {
		if _, err := tx.Records.Save(ctx, records.Employees, records.Record{"id": "x"}); err != nil {
			return err
		}
		return applyErr
	})
	require.ErrorIs(t, err, applyErr)
	assert.Equal(t, 0, e.manager.PendingCount())

	active, err := e.store.Repos().Pending.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = e.store.Collection(records.Employees).GetByID(ctx, "x")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLoad_RestoresQueueAfterRestart(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, false)
	first := e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID()})
	second := e.save(t, records.Salaries, models.ActionCreate, records.Record{"id": records.NewTemporaryID()})

	restarted := NewManager(e.store, e.remote, e.monitor, logging.NopLogger{})
	require.NoError(t, restarted.Load(ctx))

	got := restarted.Pending()
	require.Len(t, got, 2)
	assert.Equal(t, first.PendingID, got[0].PendingID)
	assert.Equal(t, second.PendingID, got[1].PendingID)
	assert.True(t, restarted.HasPending(records.Salaries, second.TargetID))
	assert.False(t, restarted.HasPending(records.Salaries, first.TargetID))
}

func TestRetry_RequeuesQuarantinedChange(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, true)
	change := e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID()})
	e.remote.Fail(remotetest.OpCreate, client.ErrInvalid)

	_, err := e.manager.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, e.manager.QuarantinedCount())

	require.NoError(t, e.manager.Retry(ctx, change.PendingID))
	assert.Equal(t, 1, e.manager.PendingCount())
	assert.Equal(t, 0, e.manager.QuarantinedCount())

	res, err := e.manager.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, res.Outcome)
}

func TestRetryAndDiscard_RejectActiveChanges(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, false)
	change := e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID()})

	assert.ErrorIs(t, e.manager.Retry(ctx, change.PendingID), ErrNotQuarantined)
	assert.ErrorIs(t, e.manager.Discard(ctx, change.PendingID), ErrNotQuarantined)
	assert.ErrorIs(t, e.manager.Discard(ctx, "unknown"), common.ErrorNotFound)
}

func TestListeners_ReceiveCountsAndStatus(t *testing.T) {
	e := newEnv(t, true)

	var mu sync.Mutex
	var counts [][2]int
	var statuses []Status
	unsubCount := e.manager.OnCountChange(func(p, q int) {
		mu.Lock()
		counts = append(counts, [2]int{p, q})
		mu.Unlock()
	})
	unsubStatus := e.manager.OnStatusChange(func(s Status) {
		mu.Lock()
		statuses = append(statuses, s)
		mu.Unlock()
	})

	e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID()})
	_, err := e.manager.Sync(context.Background())
	require.NoError(t, err)

	unsubCount()
	unsubStatus()
	e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID()})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][2]int{{1, 0}, {0, 0}}, counts)
	assert.Equal(t, []Status{StatusSyncing, StatusSynced}, statuses)
}

func TestMetrics_RecordCyclesAndChanges(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	e := newEnv(t, true, WithMetrics(metrics))

	e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID()})
	e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID()})
	e.remote.Fail(remotetest.OpCreate, client.ErrConflict)

	_, err := e.manager.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.changesTotal.WithLabelValues("synced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.changesTotal.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cyclesTotal.WithLabelValues(string(OutcomePartial))))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.pending))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.quarantined))
}

func TestWithMaxAttempts(t *testing.T) {
	e := newEnv(t, true, WithMaxAttempts(1))
	e.save(t, records.Employees, models.ActionCreate, records.Record{"id": records.NewTemporaryID()})
	e.remote.Fail(remotetest.OpCreate, errors.New("boom"))

	res, err := e.manager.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, e.manager.QuarantinedCount())
}
