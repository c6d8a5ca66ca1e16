// Package models defines client-side data models of the paykeeper data layer.
package models

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/records"
)

// Action is the kind of mutation a PendingChange replays.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func (a Action) Valid() bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionDelete
}

// PendingStatus is the lifecycle state of a queued change.
type PendingStatus string

const (
	StatusPending  PendingStatus = "pending"
	StatusConflict PendingStatus = "conflict"
	StatusFailed   PendingStatus = "failed"
)

// PendingChange is one local mutation awaiting remote application.
// Seq is the durable insertion order and the replay order.
type PendingChange struct {
	PendingID   string         `json:"pendingId"`
	Seq         int64          `json:"seq"`
	Entity      records.Entity `json:"entity"`
	Action      Action         `json:"action"`
	TargetID    string         `json:"targetId"`
	Data        records.Record `json:"data"`
	BaseVersion int64          `json:"baseVersion"`
	Timestamp   time.Time      `json:"timestamp"`
	Attempts    int            `json:"attempts"`
	Status      PendingStatus  `json:"status,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Active reports whether the change is still eligible for automatic replay.
func (p *PendingChange) Active() bool {
	return p.Status == "" || p.Status == StatusPending
}

// MarshalJSON leaves status out for active changes; only quarantined changes
// carry "conflict" or "failed".
func (p PendingChange) MarshalJSON() ([]byte, error) {
	type wire PendingChange
	w := wire(p)
	if w.Status == StatusPending {
		w.Status = ""
	}
	return json.Marshal(w)
}

// Clone returns a copy that shares nothing mutable with p.
func (p *PendingChange) Clone() *PendingChange {
	cp := *p
	cp.Data = p.Data.Clone()
	return &cp
}

// IDMapping links a record id minted offline to the id the remote assigned.
type IDMapping struct {
	Entity    records.Entity
	LocalID   string
	RemoteID  string
	CreatedAt time.Time
}
