package records

import (
	"fmt"

	"github.com/dmitrijs2005/paykeeper/internal/common"
)

// Entity names a record collection.
type Entity string

const (
	Employees              Entity = "employees"
	Salaries               Entity = "salaries"
	Advances               Entity = "advances"
	Sanctions              Entity = "sanctions"
	Debts                  Entity = "debts"
	Settings               Entity = "settings"
	Activities             Entity = "activities"
	AccountingCategories   Entity = "accounting_categories"
	AccountingTransactions Entity = "accounting_transactions"
)

// AllEntities lists every collection in a stable order.
func AllEntities() []Entity {
	return []Entity{
		Employees, Salaries, Advances, Sanctions, Debts,
		Settings, Activities, AccountingCategories, AccountingTransactions,
	}
}

// ParseEntity validates a collection name.
func ParseEntity(name string) (Entity, error) {
	for _, e := range AllEntities() {
		if string(e) == name {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", common.ErrorUnknownEntity, name)
}

func (e Entity) String() string { return string(e) }
