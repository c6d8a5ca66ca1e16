package router

import (
	"github.com/dmitrijs2005/paykeeper/internal/records"
)

// Command is one logical operation. The set of variants is closed: GetAll,
// GetByID, Save, Delete and Query.
type Command interface {
	Target() records.Entity
	command()
}

type GetAll struct {
	Entity records.Entity
}

type GetByID struct {
	Entity records.Entity
	ID     string
}

// Save creates the record when it has no id (or an id unknown to both
// stores) and updates it otherwise.
type Save struct {
	Entity records.Entity
	Record records.Record
}

type Delete struct {
	Entity records.Entity
	ID     string
}

type Query struct {
	Entity records.Entity
	Query  records.Query
}

func (c GetAll) Target() records.Entity  { return c.Entity }
func (c GetByID) Target() records.Entity { return c.Entity }
func (c Save) Target() records.Entity    { return c.Entity }
func (c Delete) Target() records.Entity  { return c.Entity }
func (c Query) Target() records.Entity   { return c.Entity }

func (GetAll) command()  {}
func (GetByID) command() {}
func (Save) command()    {}
func (Delete) command()  {}
func (Query) command()   {}

// Source tells which store served a command.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Result carries Records for GetAll and Query and Record for GetByID and
// Save. Delete returns neither.
type Result struct {
	Records []records.Record
	Record  records.Record
	Source  Source
}
