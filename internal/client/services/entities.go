package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/paykeeper/internal/client/router"
	"github.com/dmitrijs2005/paykeeper/internal/records"
	"github.com/shopspring/decimal"
)

// Collection is the uniform per-entity API. Callers never see whether the
// remote or the local store served them.
type Collection struct {
	router *router.Router
	entity records.Entity
}

func NewCollection(r *router.Router, e records.Entity) Collection {
	return Collection{router: r, entity: e}
}

func (c Collection) Entity() records.Entity { return c.entity }

func (c Collection) GetAll(ctx context.Context) ([]records.Record, error) {
	return c.router.GetAll(ctx, c.entity)
}

func (c Collection) GetByID(ctx context.Context, id string) (records.Record, error) {
	return c.router.GetByID(ctx, c.entity, id)
}

// Save creates rec when it has no id and updates it otherwise. The stored
// record is returned, with a temporary id when created offline.
func (c Collection) Save(ctx context.Context, rec records.Record) (records.Record, error) {
	return c.router.Save(ctx, c.entity, rec)
}

func (c Collection) Delete(ctx context.Context, id string) error {
	return c.router.Delete(ctx, c.entity, id)
}

// Query runs a named domain query.
func (c Collection) Query(ctx context.Context, q records.Query) ([]records.Record, error) {
	return c.router.Query(ctx, c.entity, q)
}

type Salaries struct{ Collection }

func (s Salaries) GetByMonth(ctx context.Context, year, month int) ([]records.Record, error) {
	return s.Query(ctx, records.ByMonth(year, month))
}

func (s Salaries) GetByEmployee(ctx context.Context, employeeID string) ([]records.Record, error) {
	return s.Query(ctx, records.ByEmployee(employeeID))
}

type Advances struct{ Collection }

func (a Advances) GetByMonth(ctx context.Context, year, month int) ([]records.Record, error) {
	return a.Query(ctx, records.ByMonth(year, month))
}

func (a Advances) GetUnpaidByOwner(ctx context.Context, ownerID string) ([]records.Record, error) {
	return a.Query(ctx, records.UnpaidByOwner(ownerID))
}

type Sanctions struct{ Collection }

func (s Sanctions) GetByMonth(ctx context.Context, year, month int) ([]records.Record, error) {
	return s.Query(ctx, records.ByMonth(year, month))
}

type Debts struct{ Collection }

func (d Debts) GetByEmployee(ctx context.Context, employeeID string) ([]records.Record, error) {
	return d.Query(ctx, records.ByEmployee(employeeID))
}

func (d Debts) GetUnpaidByOwner(ctx context.Context, ownerID string) ([]records.Record, error) {
	return d.Query(ctx, records.UnpaidByOwner(ownerID))
}

// GetTotalUnpaidByOwner sums the outstanding amounts of the owner's unpaid
// debts. A debt's "remaining" field wins over its "amount".
func (d Debts) GetTotalUnpaidByOwner(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	unpaid, err := d.GetUnpaidByOwner(ctx, ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	return records.SumAmounts(unpaid, "amount"), nil
}

type AccountingTransactions struct{ Collection }

func (a AccountingTransactions) GetByMonth(ctx context.Context, year, month int) ([]records.Record, error) {
	return a.Query(ctx, records.ByMonth(year, month))
}

func (a AccountingTransactions) GetByCategory(ctx context.Context, categoryID string) ([]records.Record, error) {
	return a.Query(ctx, records.ByCategory(categoryID))
}

// Entities bundles the APIs exposed to UI collaborators.
type Entities struct {
	Employees              Collection
	Salaries               Salaries
	Advances               Advances
	Sanctions              Sanctions
	Debts                  Debts
	Settings               *Settings
	Activities             *Activities
	AccountingCategories   Collection
	AccountingTransactions AccountingTransactions

	router *router.Router
}

func NewEntities(r *router.Router) *Entities {
	return &Entities{
		Employees:              NewCollection(r, records.Employees),
		Salaries:               Salaries{NewCollection(r, records.Salaries)},
		Advances:               Advances{NewCollection(r, records.Advances)},
		Sanctions:              Sanctions{NewCollection(r, records.Sanctions)},
		Debts:                  Debts{NewCollection(r, records.Debts)},
		Settings:               NewSettings(r),
		Activities:             NewActivities(r),
		AccountingCategories:   NewCollection(r, records.AccountingCategories),
		AccountingTransactions: AccountingTransactions{NewCollection(r, records.AccountingTransactions)},
		router:                 r,
	}
}

// Collection returns the generic API of a collection by name.
func (e *Entities) Collection(name string) (Collection, error) {
	entity, err := records.ParseEntity(name)
	if err != nil {
		return Collection{}, fmt.Errorf("collection: %w", err)
	}
	return NewCollection(e.router, entity), nil
}
