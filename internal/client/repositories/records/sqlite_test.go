package records

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE records (
  collection TEXT NOT NULL,
  id         TEXT NOT NULL,
  data       TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  PRIMARY KEY (collection, id)
);`)
	require.NoError(t, err)
	return db
}

func TestSave_AssignsTemporaryIDAndTimestamp(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	old := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = old })

	saved, err := r.Save(ctx, records.Employees, records.Record{"firstName": "A", "baseSalary": 1000})
	require.NoError(t, err)

	assert.True(t, records.IsTemporaryID(saved.ID()))
	assert.Equal(t, fixed.Format(time.RFC3339Nano), saved[records.FieldUpdatedAt])

	got, err := r.GetByID(ctx, records.Employees, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, saved, got)
	assert.Equal(t, float64(1000), got["baseSalary"])
}

func TestSave_UpsertKeepsOrder(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	_, err := r.Save(ctx, records.Debts, records.Record{"id": "b", "amount": 1})
	require.NoError(t, err)
	_, err = r.Save(ctx, records.Debts, records.Record{"id": "a", "amount": 2})
	require.NoError(t, err)
	_, err = r.Save(ctx, records.Debts, records.Record{"id": "b", "amount": 3})
	require.NoError(t, err)

	all, err := r.GetAll(ctx, records.Debts)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID())
	assert.Equal(t, float64(3), all[0]["amount"])
	assert.Equal(t, "a", all[1].ID())
}

func TestCollectionsAreIsolated(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.SaveAll(ctx, records.Employees, []records.Record{{"id": "1"}, {"id": "2"}}))
	require.NoError(t, r.SaveAll(ctx, records.Salaries, []records.Record{{"id": "1"}}))

	emps, err := r.GetAll(ctx, records.Employees)
	require.NoError(t, err)
	assert.Len(t, emps, 2)

	require.NoError(t, r.Clear(ctx, records.Employees))

	emps, err = r.GetAll(ctx, records.Employees)
	require.NoError(t, err)
	assert.Empty(t, emps)

	ids, err := r.IDs(ctx, records.Salaries)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids)
}

func TestGetByID_NotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	_, err := r.GetByID(context.Background(), records.Employees, "nope")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete_ReportsRemoval(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	_, err := r.Save(ctx, records.Employees, records.Record{"id": "e1"})
	require.NoError(t, err)

	ok, err := r.Delete(ctx, records.Employees, "e1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Delete(ctx, records.Employees, "e1")
	require.NoError(t, err)
	assert.False(t, ok)
}
