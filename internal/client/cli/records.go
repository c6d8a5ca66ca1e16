package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/paykeeper/internal/client/services"
	"github.com/dmitrijs2005/paykeeper/internal/records"
)

func (a *App) collection(name string) (services.Collection, error) {
	col, err := a.entities.Collection(name)
	if err != nil {
		a.printf("%s (known: %s)\n", err, knownEntities())
		return services.Collection{}, err
	}
	return col, nil
}

func knownEntities() string {
	names := make([]string, 0, len(records.AllEntities()))
	for _, e := range records.AllEntities() {
		names = append(names, e.String())
	}
	return strings.Join(names, ", ")
}

// List prints the records of a collection.
//
//	list <entity>
//	list <entity> <query> [name=value ...]
func (a *App) List(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.println("Usage: list <entity> [query name=value ...]")
		return nil
	}
	col, err := a.collection(args[0])
	if err != nil {
		return err
	}

	var recs []records.Record
	if len(args) > 1 {
		q, err := parseQuery(args[1], args[2:])
		if err != nil {
			a.println(err)
			return err
		}
		recs, err = col.Query(ctx, q)
		if err != nil {
			a.printf("Query failed: %s\n", err)
			return err
		}
	} else {
		recs, err = col.GetAll(ctx)
		if err != nil {
			a.printf("List failed: %s\n", err)
			return err
		}
	}

	if len(recs) == 0 {
		a.println("No records")
		return nil
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID() < recs[j].ID() })
	for _, r := range recs {
		a.printf("%-40s v%-4d %s\n", r.ID(), r.Version(), summary(r))
	}
	return nil
}

func parseQuery(name string, params []string) (records.Query, error) {
	q := records.Query{Name: name, Params: map[string]string{}}
	for _, p := range params {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return records.Query{}, fmt.Errorf("%w: %q", ErrBadField, p)
		}
		q.Params[k] = v
	}
	return q, nil
}

// summary renders a record without its bookkeeping fields on one line.
func summary(r records.Record) string {
	rest := r.Clone()
	delete(rest, records.FieldID)
	delete(rest, records.FieldVersion)
	b, err := json.Marshal(rest)
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(rest))
	}
	return string(b)
}

// Show prints one record as indented JSON.
//
//	get <entity> <id>
func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) < 2 {
		a.println("Usage: get <entity> <id>")
		return nil
	}
	col, err := a.collection(args[0])
	if err != nil {
		return err
	}
	rec, err := col.GetByID(ctx, args[1])
	if err != nil {
		a.printf("Get failed: %s\n", err)
		return err
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	a.println(string(b))
	return nil
}

// Save reads fields interactively and creates or updates a record. With an
// id, the current record's fields are used as a base.
//
//	save <entity> [id]
func (a *App) Save(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.println("Usage: save <entity> [id]")
		return nil
	}
	col, err := a.collection(args[0])
	if err != nil {
		return err
	}

	rec := records.Record{}
	if len(args) > 1 {
		cur, err := col.GetByID(ctx, args[1])
		if err != nil {
			a.printf("Get failed: %s\n", err)
			return err
		}
		rec = cur
	}

	fields, err := a.prompt.Fields("Enter fields")
	if err != nil {
		a.println(err)
		return err
	}
	for k, v := range fields {
		rec[k] = v
	}

	saved, err := col.Save(ctx, rec)
	if err != nil {
		a.printf("Save failed: %s\n", err)
		return err
	}
	a.printf("Saved %s\n", saved.ID())
	return nil
}

// Delete removes a record.
//
//	delete <entity> <id>
func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) < 2 {
		a.println("Usage: delete <entity> <id>")
		return nil
	}
	col, err := a.collection(args[0])
	if err != nil {
		return err
	}
	if err := col.Delete(ctx, args[1]); err != nil {
		a.printf("Delete failed: %s\n", err)
		return err
	}
	a.println("Deleted")
	return nil
}

// Unpaid prints the exact unpaid debt total of an owner.
//
//	unpaid <ownerId>
func (a *App) Unpaid(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.println("Usage: unpaid <ownerId>")
		return nil
	}
	total, err := a.entities.Debts.GetTotalUnpaidByOwner(ctx, args[0])
	if err != nil {
		a.printf("Report failed: %s\n", err)
		return err
	}
	a.printf("Unpaid debts of %s: %s\n", args[0], total.StringFixed(2))
	return nil
}
