package services

import (
	"context"

	"github.com/dmitrijs2005/paykeeper/internal/client/connectivity"
	"github.com/dmitrijs2005/paykeeper/internal/client/models"
	"github.com/dmitrijs2005/paykeeper/internal/client/syncqueue"
)

// SyncStatus is the readout shown next to every screen.
type SyncStatus struct {
	Pending      int                `json:"pending"`
	Quarantined  int                `json:"quarantined"`
	Status       syncqueue.Status   `json:"status"`
	Connectivity connectivity.State `json:"connectivity"`
	Degraded     bool               `json:"degraded"`
}

// SyncService exposes queue status and manual resolution. A nil manager
// means the local store is unavailable.
type SyncService struct {
	manager   *syncqueue.Manager
	monitor   *connectivity.Monitor
	scheduler *syncqueue.Scheduler
}

func NewSyncService(m *syncqueue.Manager, monitor *connectivity.Monitor, s *syncqueue.Scheduler) *SyncService {
	return &SyncService{manager: m, monitor: monitor, scheduler: s}
}

func (s *SyncService) Status() SyncStatus {
	st := SyncStatus{Connectivity: s.monitor.State(), Status: syncqueue.StatusIdle}
	if s.manager == nil {
		st.Degraded = true
		return st
	}
	st.Pending = s.manager.PendingCount()
	st.Quarantined = s.manager.QuarantinedCount()
	st.Status = s.manager.Status()
	return st
}

// Watch calls fn with the current status whenever counts, sync status or
// connectivity change.
func (s *SyncService) Watch(fn func(SyncStatus)) (unsubscribe func()) {
	unsubs := []func(){
		s.monitor.Subscribe(func(connectivity.State) { fn(s.Status()) }),
	}
	if s.manager != nil {
		unsubs = append(unsubs,
			s.manager.OnCountChange(func(int, int) { fn(s.Status()) }),
			s.manager.OnStatusChange(func(syncqueue.Status) { fn(s.Status()) }),
		)
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// SyncNow runs a drain cycle immediately.
func (s *SyncService) SyncNow(ctx context.Context) (syncqueue.SyncResult, error) {
	if s.manager == nil {
		return syncqueue.SyncResult{Outcome: syncqueue.OutcomeNoop}, nil
	}
	return s.manager.Sync(ctx)
}

// Trigger asks the scheduler for a drain without waiting for it.
func (s *SyncService) Trigger() {
	if s.scheduler != nil {
		s.scheduler.Trigger()
	}
}

func (s *SyncService) Pending() []*models.PendingChange {
	if s.manager == nil {
		return nil
	}
	return s.manager.Pending()
}

func (s *SyncService) Quarantined(ctx context.Context) ([]*models.PendingChange, error) {
	if s.manager == nil {
		return nil, nil
	}
	return s.manager.Quarantined(ctx)
}

func (s *SyncService) Retry(ctx context.Context, pendingID string) error {
	if s.manager == nil {
		return syncqueue.ErrNotQuarantined
	}
	if err := s.manager.Retry(ctx, pendingID); err != nil {
		return err
	}
	s.Trigger()
	return nil
}

func (s *SyncService) Discard(ctx context.Context, pendingID string) error {
	if s.manager == nil {
		return syncqueue.ErrNotQuarantined
	}
	return s.manager.Discard(ctx, pendingID)
}
