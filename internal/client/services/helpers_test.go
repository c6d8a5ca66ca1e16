package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/paykeeper/internal/client/client"
	"github.com/dmitrijs2005/paykeeper/internal/client/client/remotetest"
	"github.com/dmitrijs2005/paykeeper/internal/client/connectivity"
	"github.com/dmitrijs2005/paykeeper/internal/client/localstore"
	"github.com/dmitrijs2005/paykeeper/internal/client/router"
	"github.com/dmitrijs2005/paykeeper/internal/client/syncqueue"
	"github.com/dmitrijs2005/paykeeper/internal/logging"
	"github.com/stretchr/testify/require"
)

// fakeClient is a client.Client over the in-memory remote store.
type fakeClient struct {
	*remotetest.Store

	CloseErr    error
	RegisterErr error

	GetSaltRet []byte
	GetSaltErr error

	LoginErr error

	UploadKey string
	UploadURL string
	UploadErr error

	LastRegisterUser string
	LastRegisterSalt []byte
	LastRegisterKey  []byte

	LastLoginUser string
	LastLoginKey  []byte

	LoggedOut bool
}

var _ client.Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{Store: remotetest.Ready()}
}

func (f *fakeClient) Close() error { return f.CloseErr }

func (f *fakeClient) Register(ctx context.Context, username string, salt []byte, key []byte) error {
	f.LastRegisterUser = username
	f.LastRegisterSalt = append([]byte(nil), salt...)
	f.LastRegisterKey = append([]byte(nil), key...)
	return f.RegisterErr
}

func (f *fakeClient) GetSalt(ctx context.Context, username string) ([]byte, error) {
	return append([]byte(nil), f.GetSaltRet...), f.GetSaltErr
}

func (f *fakeClient) Login(ctx context.Context, username string, key []byte) error {
	f.LastLoginUser = username
	f.LastLoginKey = append([]byte(nil), key...)
	return f.LoginErr
}

func (f *fakeClient) Logout() { f.LoggedOut = true }

func (f *fakeClient) CurrentUser() *client.User { return nil }

func (f *fakeClient) BackupUploadURL(ctx context.Context) (string, string, error) {
	return f.UploadKey, f.UploadURL, f.UploadErr
}

type stack struct {
	store    *localstore.Store
	client   *fakeClient
	monitor  *connectivity.Monitor
	manager  *syncqueue.Manager
	router   *router.Router
	entities *Entities
}

func newStack(t *testing.T, online bool) *stack {
	t.Helper()
	store, err := localstore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	state := connectivity.Offline
	if online {
		state = connectivity.Online
	}
	s := &stack{store: store, client: newFakeClient(), monitor: connectivity.NewMonitor(state, logging.NopLogger{})}
	s.manager = syncqueue.NewManager(store, s.client, s.monitor, logging.NopLogger{})
	s.router = router.New(store, s.client, s.monitor, s.manager, logging.NopLogger{})
	s.entities = NewEntities(s.router)
	return s
}
