package grpc

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/records"
	"github.com/dmitrijs2005/paykeeper/internal/server/auth"
	"github.com/dmitrijs2005/paykeeper/internal/server/models"
	"github.com/dmitrijs2005/paykeeper/internal/server/services"
)

const testSecret = "test-secret"

type fakeUser struct {
	id       string
	salt     []byte
	verifier []byte
}

// fakeUsers issues real JWTs so the interceptor can verify them.
type fakeUsers struct {
	mu        sync.Mutex
	users     map[string]*fakeUser
	refresh   map[string]string
	accessTTL time.Duration
	refreshes int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*fakeUser{}, refresh: map[string]string{}, accessTTL: time.Hour}
}

func (f *fakeUsers) Register(_ context.Context, username string, salt, verifier []byte) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[username]; ok {
		return nil, fmt.Errorf("error creating user: %w", common.ErrorAlreadyExists)
	}
	u := &fakeUser{id: fmt.Sprintf("user-%d", len(f.users)+1), salt: salt, verifier: verifier}
	f.users[username] = u
	return &models.User{ID: u.id, UserName: username, Salt: salt, Verifier: verifier}, nil
}

func (f *fakeUsers) GetSalt(_ context.Context, username string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[username]; ok {
		return u.salt, nil
	}
	return common.GenerateRandByteArray(32), nil
}

func (f *fakeUsers) Login(_ context.Context, username string, candidate []byte) (*services.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok || subtle.ConstantTimeCompare(u.verifier, candidate) != 1 {
		return nil, common.ErrorUnauthorized
	}
	return f.pair(u.id)
}

func (f *fakeUsers) RefreshToken(_ context.Context, token string) (*services.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.refresh[token]
	if !ok {
		return nil, fmt.Errorf("error searching refresh token: %w", common.ErrorNotFound)
	}
	delete(f.refresh, token)
	f.refreshes++
	f.accessTTL = time.Hour
	return f.pair(userID)
}

func (f *fakeUsers) pair(userID string) (*services.TokenPair, error) {
	access, err := auth.GenerateToken(userID, []byte(testSecret), f.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	f.refresh[refresh] = userID
	return &services.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// fakeRecords is a versioned in-memory store keyed by user.
type fakeRecords struct {
	mu     sync.Mutex
	data   map[string]records.Record
	order  []string
	nextID int
	err    error
}

func newFakeRecords() *fakeRecords { return &fakeRecords{data: map[string]records.Record{}} }

func rkey(userID, entity, id string) string { return userID + "|" + entity + "|" + id }

func (f *fakeRecords) List(_ context.Context, userID, entity string) ([]records.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if _, err := records.ParseEntity(entity); err != nil {
		return nil, err
	}
	out := []records.Record{}
	for _, k := range f.order {
		if r, ok := f.data[k]; ok && k == rkey(userID, entity, r.ID()) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (f *fakeRecords) Get(_ context.Context, userID, entity, id string) (records.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.data[rkey(userID, entity, id)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.Clone(), nil
}

func (f *fakeRecords) Create(_ context.Context, userID, entity string, rec records.Record) (records.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := rec.Clone()
	id := r.ID()
	if id == "" || records.IsTemporaryID(id) {
		f.nextID++
		id = fmt.Sprintf("srv-%d", f.nextID)
	}
	k := rkey(userID, entity, id)
	if _, ok := f.data[k]; ok {
		return nil, fmt.Errorf("%w: %s", common.ErrorAlreadyExists, id)
	}
	r.SetID(id)
	r[records.FieldVersion] = int64(1)
	f.data[k] = r
	f.order = append(f.order, k)
	return r.Clone(), nil
}

func (f *fakeRecords) current(userID, entity, id string, base int64) (records.Record, error) {
	cur, ok := f.data[rkey(userID, entity, id)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if base != 0 && base != cur.Version() {
		return nil, fmt.Errorf("%w: base version %d, current %d", common.ErrVersionConflict, base, cur.Version())
	}
	return cur, nil
}

func (f *fakeRecords) Update(_ context.Context, userID, entity, id string, rec records.Record, base int64) (records.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, err := f.current(userID, entity, id, base)
	if err != nil {
		return nil, err
	}
	r := rec.Clone()
	r.SetID(id)
	r[records.FieldVersion] = cur.Version() + 1
	f.data[rkey(userID, entity, id)] = r
	return r.Clone(), nil
}

func (f *fakeRecords) Delete(_ context.Context, userID, entity, id string, base int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.current(userID, entity, id, base); err != nil {
		return err
	}
	delete(f.data, rkey(userID, entity, id))
	return nil
}

func (f *fakeRecords) Query(ctx context.Context, userID, entity string, q records.Query) ([]records.Record, error) {
	all, err := f.List(ctx, userID, entity)
	if err != nil {
		return nil, err
	}
	return records.Filter(all, q)
}

type fakeBackups struct {
	err error
}

func (f *fakeBackups) GetPresignedPutURL(_ context.Context, userID string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	key := "backups/" + userID + "/b.bin"
	return key, "http://minio.local/paykeeper-backups/" + key + "?X-Amz-Signature=sig", nil
}
