package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/client/client"
	"github.com/dmitrijs2005/paykeeper/internal/logging"
	"github.com/dmitrijs2005/paykeeper/internal/records"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

type testEnv struct {
	users   *fakeUsers
	records *fakeRecords
	metrics *Metrics
	client  *client.GRPCClient
}

// newTestEnv serves a GRPCServer over bufconn and connects the real client to it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:   newFakeUsers(),
		records: newFakeRecords(),
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
	srv := NewGRPCServer("bufnet", logging.NopLogger{}, env.users, env.records, &fakeBackups{}, testSecret, WithMetrics(env.metrics))

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	c, err := client.NewGRPCClient("passthrough:///bufnet",
		client.WithRequestTimeout(5*time.Second),
		client.WithDialOptions(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		})))
	require.NoError(t, err)
	env.client = c

	t.Cleanup(func() {
		_ = c.Close()
		cancel()
		<-done
	})
	return env
}

func (e *testEnv) login(t *testing.T, name string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.client.Init(ctx))
	require.NoError(t, e.client.Register(ctx, name, []byte("salt-"+name), []byte("verifier-"+name)))
	require.NoError(t, e.client.Login(ctx, name, []byte("verifier-"+name)))
}

func TestRoundTrip_AuthFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.client.Init(ctx))
	require.NoError(t, env.client.Register(ctx, "alice", []byte("salt"), []byte("verifier")))

	err := env.client.Register(ctx, "alice", []byte("salt"), []byte("verifier"))
	assert.ErrorIs(t, err, client.ErrInvalid)

	salt, err := env.client.GetSalt(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("salt"), salt)

	assert.ErrorIs(t, env.client.Login(ctx, "alice", []byte("wrong")), client.ErrUnauthorized)

	_, err = env.client.GetAll(ctx, records.Employees)
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	require.NoError(t, env.client.Login(ctx, "alice", []byte("verifier")))
	require.NotNil(t, env.client.CurrentUser())

	got, err := env.client.GetAll(ctx, records.Employees)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRoundTrip_RecordOperations(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "bob")
	ctx := context.Background()

	created, err := env.client.Create(ctx, records.Salaries, records.Record{
		"id": records.NewTemporaryID(), "employeeId": "e1", "year": 2026, "month": 3, "amount": "1500.00",
	})
	require.NoError(t, err)
	id := created.ID()
	assert.Equal(t, "srv-1", id)
	assert.Equal(t, int64(1), created.Version())

	updated, err := env.client.Update(ctx, records.Salaries, id, records.Record{"employeeId": "e1", "year": 2026, "month": 3, "amount": "1600.00"}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version())
	assert.Equal(t, "1600.00", updated["amount"])

	_, err = env.client.Update(ctx, records.Salaries, id, records.Record{"amount": "1"}, 1)
	assert.ErrorIs(t, err, client.ErrConflict)

	one, err := env.client.GetByID(ctx, records.Salaries, id)
	require.NoError(t, err)
	assert.Equal(t, "e1", one["employeeId"])

	found, err := env.client.Query(ctx, records.Salaries, records.ByMonth(2026, 3))
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = env.client.Query(ctx, records.Salaries, records.Query{Name: "by-month", Params: map[string]string{"year": "x"}})
	assert.ErrorIs(t, err, client.ErrInvalid)

	assert.ErrorIs(t, env.client.Delete(ctx, records.Salaries, id, 1), client.ErrConflict)
	require.NoError(t, env.client.Delete(ctx, records.Salaries, id, 2))

	_, err = env.client.GetByID(ctx, records.Salaries, id)
	assert.ErrorIs(t, err, client.ErrNotFound)

	_, err = env.client.GetAll(ctx, records.Entity("payslips"))
	assert.ErrorIs(t, err, client.ErrInvalid)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.requests.WithLabelValues("CreateRecord", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.requests.WithLabelValues("UpdateRecord", "Aborted")))
}

func TestRoundTrip_RecordsArePerUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.login(t, "carol")
	_, err := env.client.Create(ctx, records.Debts, records.Record{"ownerId": "e1", "amount": "5.00"})
	require.NoError(t, err)

	env.client.Logout()
	require.NoError(t, env.client.Register(ctx, "dave", []byte("s"), []byte("v")))
	require.NoError(t, env.client.Login(ctx, "dave", []byte("v")))

	got, err := env.client.GetAll(ctx, records.Debts)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRoundTrip_ExpiredTokenIsRefreshed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.users.accessTTL = -time.Minute
	env.login(t, "erin")

	_, err := env.client.GetAll(ctx, records.Employees)
	require.NoError(t, err)
	assert.Equal(t, 1, env.users.refreshes)
}

func TestRoundTrip_BackupUploadURL(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "frank")

	key, url, err := env.client.BackupUploadURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "backups/user-1/b.bin", key)
	assert.Contains(t, url, "X-Amz-Signature")
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", logging.NopLogger{}, newFakeUsers(), newFakeRecords(), &fakeBackups{}, "secret")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "Run returned error on graceful stop")
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", logging.NopLogger{}, newFakeUsers(), newFakeRecords(), &fakeBackups{}, "secret")
	assert.Error(t, srv.Run(context.Background()))
}
