// Package remotetest provides an in-memory client.RemoteStore for tests.
package remotetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/paykeeper/internal/client/client"
	"github.com/dmitrijs2005/paykeeper/internal/records"
)

// Operation names used by Fail and Calls.
const (
	OpInit    = "init"
	OpPing    = "ping"
	OpGetAll  = "getAll"
	OpGetByID = "getById"
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpQuery   = "query"
)

// Call is one recorded invocation.
type Call struct {
	Op          string
	Entity      records.Entity
	ID          string
	BaseVersion int64
}

// Store behaves like the server: it assigns ids and versions and enforces
// optimistic concurrency on update and delete.
type Store struct {
	mu          sync.Mutex
	initialized bool
	data        map[records.Entity]map[string]records.Record
	order       map[records.Entity][]string
	nextID      int
	failures    map[string][]error
	calls       []Call
	listeners   map[int]client.AuthListener
	nextLis     int
}

var _ client.RemoteStore = (*Store)(nil)

func New() *Store {
	return &Store{
		data:      map[records.Entity]map[string]records.Record{},
		order:     map[records.Entity][]string{},
		failures:  map[string][]error{},
		listeners: map[int]client.AuthListener{},
	}
}

// Ready returns a store that is already initialized.
func Ready() *Store {
	s := New()
	s.initialized = true
	return s
}

// Fail queues errors returned by the next calls of op, one per call.
func (s *Store) Fail(op string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], errs...)
}

// Seed stores rec as is, with version 1 when it has none.
func (s *Store) Seed(entity records.Entity, rec records.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := rec.Clone()
	if r.Version() == 0 {
		r[records.FieldVersion] = int64(1)
	}
	s.put(entity, r)
}

// Record returns a copy of the stored record, or nil.
func (s *Store) Record(entity records.Entity, id string) records.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[entity][id].Clone()
}

// Count returns the number of records of entity.
func (s *Store) Count(entity records.Entity) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data[entity])
}

// Calls returns the recorded calls in order.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns how many calls of op were made.
func (s *Store) CallCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// SetUser notifies auth listeners.
func (s *Store) SetUser(u *client.User) {
	s.mu.Lock()
	fns := make([]client.AuthListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(u)
	}
}

func (s *Store) begin(op string, entity records.Entity, id string, base int64) error {
	s.calls = append(s.calls, Call{Op: op, Entity: entity, ID: id, BaseVersion: base})
	if q := s.failures[op]; len(q) > 0 {
		s.failures[op] = q[1:]
		return q[0]
	}
	if op != OpInit && op != OpPing && !s.initialized {
		return client.ErrNotReady
	}
	return nil
}

func (s *Store) put(entity records.Entity, rec records.Record) {
	if s.data[entity] == nil {
		s.data[entity] = map[string]records.Record{}
	}
	id := rec.ID()
	if _, ok := s.data[entity][id]; !ok {
		s.order[entity] = append(s.order[entity], id)
	}
	s.data[entity][id] = rec
}

func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpInit, "", "", 0); err != nil {
		return fmt.Errorf("%w: %v", client.ErrUnavailable, err)
	}
	s.initialized = true
	return nil
}

func (s *Store) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begin(OpPing, "", "", 0)
}

func (s *Store) GetAll(ctx context.Context, entity records.Entity) ([]records.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpGetAll, entity, "", 0); err != nil {
		return nil, err
	}
	return s.list(entity), nil
}

func (s *Store) list(entity records.Entity) []records.Record {
	out := []records.Record{}
	for _, id := range s.order[entity] {
		if r, ok := s.data[entity][id]; ok {
			out = append(out, r.Clone())
		}
	}
	return out
}

func (s *Store) GetByID(ctx context.Context, entity records.Entity, id string) (records.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpGetByID, entity, id, 0); err != nil {
		return nil, err
	}
	r, ok := s.data[entity][id]
	if !ok {
		return nil, client.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *Store) Create(ctx context.Context, entity records.Entity, rec records.Record) (records.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpCreate, entity, rec.ID(), 0); err != nil {
		return nil, err
	}
	r := rec.Clone()
	if r == nil {
		r = records.Record{}
	}
	id := r.ID()
	if id == "" || records.IsTemporaryID(id) {
		s.nextID++
		id = fmt.Sprintf("srv-%d", s.nextID)
	} else if _, exists := s.data[entity][id]; exists {
		return nil, fmt.Errorf("%w: %s exists", client.ErrInvalid, id)
	}
	r.SetID(id)
	r[records.FieldVersion] = int64(1)
	s.put(entity, r)
	return r.Clone(), nil
}

func (s *Store) Update(ctx context.Context, entity records.Entity, id string, rec records.Record, baseVersion int64) (records.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpUpdate, entity, id, baseVersion); err != nil {
		return nil, err
	}
	cur, ok := s.data[entity][id]
	if !ok {
		return nil, client.ErrNotFound
	}
	if baseVersion > 0 && baseVersion != cur.Version() {
		return nil, fmt.Errorf("%w: base version %d, current %d", client.ErrConflict, baseVersion, cur.Version())
	}
	r := rec.Clone()
	r.SetID(id)
	r[records.FieldVersion] = cur.Version() + 1
	s.put(entity, r)
	return r.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, entity records.Entity, id string, baseVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpDelete, entity, id, baseVersion); err != nil {
		return err
	}
	cur, ok := s.data[entity][id]
	if !ok {
		return client.ErrNotFound
	}
	if baseVersion > 0 && baseVersion != cur.Version() {
		return fmt.Errorf("%w: base version %d, current %d", client.ErrConflict, baseVersion, cur.Version())
	}
	delete(s.data[entity], id)
	return nil
}

func (s *Store) Query(ctx context.Context, entity records.Entity, q records.Query) ([]records.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpQuery, entity, q.Name, 0); err != nil {
		return nil, err
	}
	out, err := records.Filter(s.list(entity), q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", client.ErrInvalid, err)
	}
	return out, nil
}

func (s *Store) OnAuthStateChange(fn client.AuthListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextLis
	s.nextLis++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// IDs returns the stored ids of entity, sorted.
func (s *Store) IDs(entity records.Entity) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.data[entity]))
	for id := range s.data[entity] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
