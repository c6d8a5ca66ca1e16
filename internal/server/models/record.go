package models

import "time"

// Record is one stored document of an entity collection. Data holds the JSON
// body without the id and version fields, which live in their own columns.
type Record struct {
	UserID    string
	Entity    string
	ID        string
	Data      []byte
	Version   int64
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
