package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/records"
	"github.com/dmitrijs2005/paykeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRecords mimics the Postgres repository closely enough for service tests.
type memRecords struct {
	rows  map[string]*models.Record
	order []string
	err   error
}

func newMemRecords() *memRecords { return &memRecords{rows: map[string]*models.Record{}} }

func key(userID, entity, id string) string { return userID + "/" + entity + "/" + id }

func (m *memRecords) List(_ context.Context, userID, entity string) ([]*models.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.Record
	for _, k := range m.order {
		r := m.rows[k]
		if r.UserID == userID && r.Entity == entity && !r.Deleted {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memRecords) Get(_ context.Context, userID, entity, id string) (*models.Record, error) {
	r, ok := m.rows[key(userID, entity, id)]
	if !ok || r.Deleted {
		return nil, common.ErrorNotFound
	}
	c := *r
	return &c, nil
}

func (m *memRecords) Create(_ context.Context, rec *models.Record) (*models.Record, error) {
	k := key(rec.UserID, rec.Entity, rec.ID)
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if cur, ok := m.rows[k]; ok {
		if !cur.Deleted {
			return nil, common.ErrorAlreadyExists
		}
		cur.Data, cur.Deleted = rec.Data, false
		cur.Version++
		c := *cur
		return &c, nil
	}
	rec.Version, rec.CreatedAt, rec.UpdatedAt = 1, ts, ts
	c := *rec
	m.rows[k] = &c
	m.order = append(m.order, k)
	return rec, nil
}

func (m *memRecords) check(userID, entity, id string, base int64) (*models.Record, error) {
	cur, ok := m.rows[key(userID, entity, id)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if cur.Deleted || (base != 0 && base != cur.Version) {
		return nil, fmt.Errorf("%w: base version %d, current %d", common.ErrVersionConflict, base, cur.Version)
	}
	return cur, nil
}

func (m *memRecords) Update(_ context.Context, rec *models.Record, base int64) (*models.Record, error) {
	cur, err := m.check(rec.UserID, rec.Entity, rec.ID, base)
	if err != nil {
		return nil, err
	}
	cur.Data = rec.Data
	cur.Version++
	c := *cur
	return &c, nil
}

func (m *memRecords) Delete(_ context.Context, userID, entity, id string, base int64) error {
	cur, err := m.check(userID, entity, id, base)
	if err != nil {
		return err
	}
	cur.Deleted = true
	cur.Version++
	return nil
}

func newRecordService(t *testing.T) (*RecordService, *memRecords) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	t.Cleanup(func() { _ = db.Close() })
	mem := newMemRecords()
	return NewRecordService(db, &fakeRepoManager{rec: mem}), mem
}

func TestRecordService_CreateAssignsIDAndVersion(t *testing.T) {
	s, mem := newRecordService(t)
	ctx := context.Background()

	got, err := s.Create(ctx, "u1", "employees", records.Record{
		"id": "local-1-abcd", "firstName": "Ann", "version": 7, "updatedAt": "x",
	})
	require.NoError(t, err)

	id := got.ID()
	assert.NotEmpty(t, id)
	assert.False(t, records.IsTemporaryID(id))
	assert.Equal(t, int64(1), got.Version())
	assert.Equal(t, "Ann", got["firstName"])
	assert.Equal(t, "2026-03-01T00:00:00Z", got[records.FieldCreatedAt])

	stored := mem.rows[key("u1", "employees", id)]
	require.NotNil(t, stored)
	assert.JSONEq(t, `{"firstName":"Ann"}`, string(stored.Data))
}

func TestRecordService_CreateKeepsExplicitID(t *testing.T) {
	s, _ := newRecordService(t)
	ctx := context.Background()

	got, err := s.Create(ctx, "u1", "settings", records.Record{"id": common.SettingsID, "currency": "EUR"})
	require.NoError(t, err)
	assert.Equal(t, common.SettingsID, got.ID())

	_, err = s.Create(ctx, "u1", "settings", records.Record{"id": common.SettingsID})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestRecordService_UpdateDeleteVersions(t *testing.T) {
	s, _ := newRecordService(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "u1", "debts", records.Record{"amount": "10.00"})
	require.NoError(t, err)
	id := created.ID()

	updated, err := s.Update(ctx, "u1", "debts", id, records.Record{"amount": "12.50"}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version())
	assert.Equal(t, id, updated.ID())

	_, err = s.Update(ctx, "u1", "debts", id, records.Record{"amount": "1"}, 1)
	assert.ErrorIs(t, err, common.ErrVersionConflict)

	assert.ErrorIs(t, s.Delete(ctx, "u1", "debts", id, 1), common.ErrVersionConflict)
	require.NoError(t, s.Delete(ctx, "u1", "debts", id, 2))

	_, err = s.Get(ctx, "u1", "debts", id)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.Update(ctx, "u1", "debts", id, records.Record{}, 0)
	assert.ErrorIs(t, err, common.ErrVersionConflict)

	_, err = s.Update(ctx, "u1", "debts", "nope", records.Record{}, 0)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRecordService_ListIsPerUser(t *testing.T) {
	s, _ := newRecordService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "u1", "advances", records.Record{"amount": "1"})
	require.NoError(t, err)
	_, err = s.Create(ctx, "u2", "advances", records.Record{"amount": "2"})
	require.NoError(t, err)

	got, err := s.List(ctx, "u1", "advances")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0]["amount"])
}

func TestRecordService_Query(t *testing.T) {
	s, _ := newRecordService(t)
	ctx := context.Background()

	for _, r := range []records.Record{
		{"employeeId": "e1", "year": 2026, "month": 3},
		{"employeeId": "e2", "year": 2026, "month": 3},
		{"employeeId": "e1", "year": 2026, "month": 4},
	} {
		_, err := s.Create(ctx, "u1", "salaries", r)
		require.NoError(t, err)
	}

	got, err := s.Query(ctx, "u1", "salaries", records.ByMonth(2026, 3))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.Query(ctx, "u1", "salaries", records.ByEmployee("e1"))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = s.Query(ctx, "u1", "salaries", records.Query{Name: "nope"})
	assert.ErrorIs(t, err, records.ErrInvalidQuery)
}

func TestRecordService_Validation(t *testing.T) {
	s, mem := newRecordService(t)
	ctx := context.Background()

	_, err := s.List(ctx, "u1", "payslips")
	assert.ErrorIs(t, err, common.ErrorUnknownEntity)

	_, err = s.Get(ctx, "u1", "employees", " ")
	assert.ErrorIs(t, err, common.ErrorValidation)

	assert.ErrorIs(t, s.Delete(ctx, "u1", "employees", "", 0), common.ErrorValidation)

	mem.err = errBoom{}
	_, err = s.List(ctx, "u1", "employees")
	assert.ErrorContains(t, err, "error listing employees: boom")
}
