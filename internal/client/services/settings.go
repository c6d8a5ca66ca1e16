package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/paykeeper/internal/client/router"
	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/records"
)

// DefaultSettings returns the settings written on first start.
func DefaultSettings() records.Record {
	return records.Record{
		records.FieldID: common.SettingsID,
		"currency":      "EUR",
		"companyName":   "",
		"theme":         "light",
		"language":      "en",
	}
}

// Settings is the singleton application settings record.
type Settings struct {
	router *router.Router
}

func NewSettings(r *router.Router) *Settings {
	return &Settings{router: r}
}

// Get returns the stored settings, or the defaults when none exist yet.
func (s *Settings) Get(ctx context.Context) (records.Record, error) {
	rec, err := s.router.GetByID(ctx, records.Settings, common.SettingsID)
	if errors.Is(err, common.ErrorNotFound) {
		return DefaultSettings(), nil
	}
	return rec, err
}

// Update merges patch into the current settings and saves them.
func (s *Settings) Update(ctx context.Context, patch records.Record) (records.Record, error) {
	cur, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	for k, v := range patch {
		if k == records.FieldID || k == records.FieldVersion {
			continue
		}
		cur[k] = v
	}
	return s.router.Save(ctx, records.Settings, cur)
}

// Seed writes the default settings to the local store when none are stored
// yet. Nothing is queued for the remote.
func (s *Settings) Seed(ctx context.Context) (bool, error) {
	return s.router.Prime(ctx, records.Settings, DefaultSettings())
}

// EnsureDefaults stores the default settings unless a settings record
// exists. Missing keys of an existing record are filled in.
func (s *Settings) EnsureDefaults(ctx context.Context) (records.Record, error) {
	cur, err := s.router.GetByID(ctx, records.Settings, common.SettingsID)
	if errors.Is(err, common.ErrorNotFound) {
		return s.router.Save(ctx, records.Settings, DefaultSettings())
	}
	if err != nil {
		return nil, err
	}

	missing := false
	for k, v := range DefaultSettings() {
		if _, ok := cur[k]; !ok {
			cur[k] = v
			missing = true
		}
	}
	if !missing {
		return cur, nil
	}
	return s.router.Save(ctx, records.Settings, cur)
}
