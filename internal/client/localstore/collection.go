package localstore

import (
	"context"

	"github.com/dmitrijs2005/paykeeper/internal/records"
)

// Collection is the local record contract of a single entity.
type Collection struct {
	store  *Store
	entity records.Entity
}

func (c *Collection) Entity() records.Entity { return c.entity }

func (c *Collection) GetAll(ctx context.Context) ([]records.Record, error) {
	return c.store.repos.Records.GetAll(ctx, c.entity)
}

func (c *Collection) GetByID(ctx context.Context, id string) (records.Record, error) {
	return c.store.repos.Records.GetByID(ctx, c.entity, id)
}

func (c *Collection) Save(ctx context.Context, rec records.Record) (records.Record, error) {
	return c.store.repos.Records.Save(ctx, c.entity, rec)
}

func (c *Collection) Delete(ctx context.Context, id string) (bool, error) {
	return c.store.repos.Records.Delete(ctx, c.entity, id)
}

// SaveAll upserts recs atomically.
func (c *Collection) SaveAll(ctx context.Context, recs []records.Record) error {
	return c.store.InTx(ctx, func(ctx context.Context, tx *Repositories) error {
		return tx.Records.SaveAll(ctx, c.entity, recs)
	})
}

func (c *Collection) Clear(ctx context.Context) error {
	return c.store.repos.Records.Clear(ctx, c.entity)
}
