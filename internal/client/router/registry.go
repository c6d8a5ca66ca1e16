package router

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/records"
)

var ErrUnsupportedQuery = errors.New("query not supported for entity")

// Handler holds the entity-specific parts of command execution.
type Handler interface {
	Entity() records.Entity

	// PrepareSave returns the record to write for a Save command.
	PrepareSave(rec records.Record, now time.Time) (records.Record, error)

	// Filter evaluates a domain query against local records.
	Filter(recs []records.Record, q records.Query) ([]records.Record, error)
}

// BaseHandler serves entities without special rules. Queries lists the
// query names the entity supports.
type BaseHandler struct {
	Name    records.Entity
	Queries []string
}

func (h BaseHandler) Entity() records.Entity { return h.Name }

func (h BaseHandler) PrepareSave(rec records.Record, now time.Time) (records.Record, error) {
	out := rec.Clone()
	if out == nil {
		out = records.Record{}
	}
	if _, ok := out[records.FieldCreatedAt]; !ok {
		out[records.FieldCreatedAt] = now.UTC().Format(time.RFC3339Nano)
	}
	return out, nil
}

func (h BaseHandler) Supports(name string) bool {
	for _, q := range h.Queries {
		if q == name {
			return true
		}
	}
	return false
}

func (h BaseHandler) Filter(recs []records.Record, q records.Query) ([]records.Record, error) {
	if !h.Supports(q.Name) {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnsupportedQuery, q.Name, h.Name)
	}
	return records.Filter(recs, q)
}

// SettingsHandler keeps the settings collection a singleton.
type SettingsHandler struct {
	BaseHandler
}

func (h SettingsHandler) PrepareSave(rec records.Record, now time.Time) (records.Record, error) {
	out, err := h.BaseHandler.PrepareSave(rec, now)
	if err != nil {
		return nil, err
	}
	out.SetID(common.SettingsID)
	return out, nil
}

// Registry maps entities to handlers.
type Registry struct {
	handlers map[records.Entity]Handler
}

func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: make(map[records.Entity]Handler, len(handlers))}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// DefaultRegistry registers a handler for every known entity.
func DefaultRegistry() *Registry {
	return NewRegistry(
		BaseHandler{Name: records.Employees},
		BaseHandler{Name: records.Salaries, Queries: []string{records.QueryByMonth, records.QueryByEmployee}},
		BaseHandler{Name: records.Advances, Queries: []string{records.QueryByMonth, records.QueryByEmployee, records.QueryUnpaidByOwner}},
		BaseHandler{Name: records.Sanctions, Queries: []string{records.QueryByMonth, records.QueryByEmployee}},
		BaseHandler{Name: records.Debts, Queries: []string{records.QueryByEmployee, records.QueryUnpaidByOwner}},
		SettingsHandler{BaseHandler{Name: records.Settings}},
		BaseHandler{Name: records.Activities},
		BaseHandler{Name: records.AccountingCategories},
		BaseHandler{Name: records.AccountingTransactions, Queries: []string{records.QueryByMonth, records.QueryByCategory}},
	)
}

func (r *Registry) Register(h Handler) {
	r.handlers[h.Entity()] = h
}

// Lookup returns common.ErrorUnknownEntity for unregistered entities.
func (r *Registry) Lookup(e records.Entity) (Handler, error) {
	h, ok := r.handlers[e]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrorUnknownEntity, e)
	}
	return h, nil
}
