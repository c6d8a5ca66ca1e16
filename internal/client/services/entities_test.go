package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/records"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntities_OfflineEmployeeLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, false)

	saved, err := s.entities.Employees.Save(ctx, records.Record{"firstName": "A", "lastName": "B", "baseSalary": 1000})
	require.NoError(t, err)
	assert.True(t, records.IsTemporaryID(saved.ID()))

	all, err := s.entities.Employees.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, 1, s.manager.PendingCount())

	require.NoError(t, s.entities.Employees.Delete(ctx, saved.ID()))
	_, err = s.entities.Employees.GetByID(ctx, saved.ID())
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDebts_TotalUnpaidByOwner(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, false)
	for _, d := range []records.Record{
		{"ownerId": "e1", "amount": "100.10", "paid": false},
		{"ownerId": "e1", "amount": 50, "remaining": "20.05"},
		{"ownerId": "e1", "amount": 999, "paid": true},
		{"employeeId": "e1", "amount": 0.2},
		{"ownerId": "e2", "amount": 7},
	} {
		_, err := s.entities.Debts.Save(ctx, d)
		require.NoError(t, err)
	}

	unpaid, err := s.entities.Debts.GetUnpaidByOwner(ctx, "e1")
	require.NoError(t, err)
	assert.Len(t, unpaid, 3)

	total, err := s.entities.Debts.GetTotalUnpaidByOwner(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("120.35").Equal(total), total.String())
}

func TestEntityQueries(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, false)

	_, err := s.entities.Salaries.Save(ctx, records.Record{"employeeId": "e1", "year": 2024, "month": 5})
	require.NoError(t, err)
	_, err = s.entities.Advances.Save(ctx, records.Record{"employeeId": "e1", "date": "2024-05-02", "amount": 10})
	require.NoError(t, err)
	_, err = s.entities.Sanctions.Save(ctx, records.Record{"employeeId": "e2", "date": "2024-06-01"})
	require.NoError(t, err)
	_, err = s.entities.AccountingTransactions.Save(ctx, records.Record{"categoryId": "c1", "date": "2024-05-31"})
	require.NoError(t, err)

	salaries, err := s.entities.Salaries.GetByMonth(ctx, 2024, 5)
	require.NoError(t, err)
	assert.Len(t, salaries, 1)

	byEmployee, err := s.entities.Salaries.GetByEmployee(ctx, "e2")
	require.NoError(t, err)
	assert.Empty(t, byEmployee)

	advances, err := s.entities.Advances.GetByMonth(ctx, 2024, 5)
	require.NoError(t, err)
	assert.Len(t, advances, 1)

	unpaid, err := s.entities.Advances.GetUnpaidByOwner(ctx, "e1")
	require.NoError(t, err)
	assert.Len(t, unpaid, 1)

	sanctions, err := s.entities.Sanctions.GetByMonth(ctx, 2024, 5)
	require.NoError(t, err)
	assert.Empty(t, sanctions)

	tx, err := s.entities.AccountingTransactions.GetByMonth(ctx, 2024, 5)
	require.NoError(t, err)
	assert.Len(t, tx, 1)

	byCat, err := s.entities.AccountingTransactions.GetByCategory(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, byCat, 1)
}

func TestEntities_CollectionByName(t *testing.T) {
	s := newStack(t, false)

	c, err := s.entities.Collection("accounting_categories")
	require.NoError(t, err)
	assert.Equal(t, records.AccountingCategories, c.Entity())

	_, err = s.entities.Collection("payslips")
	assert.ErrorIs(t, err, common.ErrorUnknownEntity)
}

func TestSettings_EnsureDefaultsAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, false)

	got, err := s.entities.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EUR", got["currency"])
	assert.Equal(t, 0, s.manager.PendingCount())

	ensured, err := s.entities.Settings.EnsureDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, common.SettingsID, ensured.ID())
	assert.Equal(t, "light", ensured["theme"])
	assert.Equal(t, 1, s.manager.PendingCount())

	_, err = s.entities.Settings.EnsureDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.manager.PendingCount())

	updated, err := s.entities.Settings.Update(ctx, records.Record{"companyName": "ACME", "id": "other"})
	require.NoError(t, err)
	assert.Equal(t, common.SettingsID, updated.ID())
	assert.Equal(t, "ACME", updated["companyName"])
	assert.Equal(t, "EUR", updated["currency"])
}

func TestSettings_EnsureDefaultsFillsMissingKeys(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, false)
	_, err := s.store.Collection(records.Settings).Save(ctx, records.Record{"id": common.SettingsID, "currency": "USD"})
	require.NoError(t, err)

	got, err := s.entities.Settings.EnsureDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, "USD", got["currency"])
	assert.Equal(t, "en", got["language"])
}

func TestActivities_Log(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, true)

	rec, err := s.entities.Activities.Log(ctx, "create", records.Employees, "e1", "hired")
	require.NoError(t, err)
	assert.Equal(t, "create", rec["action"])
	assert.Equal(t, "employees", rec["entity"])
	assert.NotEmpty(t, rec["timestamp"])
	assert.Equal(t, 1, s.client.Count(records.Activities))
}
