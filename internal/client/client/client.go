package client

import (
	"context"

	"github.com/dmitrijs2005/paykeeper/internal/records"
)

// User identifies the signed-in account.
type User struct {
	Username string
}

// AuthListener receives the current user after login, or nil after logout.
type AuthListener func(user *User)

// RemoteStore is the record contract against the backend.
type RemoteStore interface {
	// Init connects and verifies reachability. A failure is reported as
	// ErrUnavailable and leaves the store uninitialized.
	Init(ctx context.Context) error
	IsInitialized() bool

	GetAll(ctx context.Context, entity records.Entity) ([]records.Record, error)
	GetByID(ctx context.Context, entity records.Entity, id string) (records.Record, error)
	// Create stores rec under a server-assigned id (or rec's id when it is
	// not temporary) and returns the stored record with its version.
	Create(ctx context.Context, entity records.Entity, rec records.Record) (records.Record, error)
	// Update replaces the record when its version still equals baseVersion;
	// zero means unconditional. A mismatch is ErrConflict.
	Update(ctx context.Context, entity records.Entity, id string, rec records.Record, baseVersion int64) (records.Record, error)
	Delete(ctx context.Context, entity records.Entity, id string, baseVersion int64) error
	Query(ctx context.Context, entity records.Entity, q records.Query) ([]records.Record, error)

	// OnAuthStateChange registers fn and returns a function removing it.
	OnAuthStateChange(fn AuthListener) (unsubscribe func())

	Ping(ctx context.Context) error
}

// Client is the full backend API used by the application.
type Client interface {
	RemoteStore
	Close() error
	Register(ctx context.Context, username string, salt []byte, key []byte) error
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, key []byte) error
	Logout()
	CurrentUser() *User
	// BackupUploadURL returns an object key and a presigned PUT URL.
	BackupUploadURL(ctx context.Context) (key string, url string, err error)
}
