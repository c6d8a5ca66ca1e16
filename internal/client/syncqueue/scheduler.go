package syncqueue

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/client/client"
	"github.com/dmitrijs2005/paykeeper/internal/client/connectivity"
	"github.com/dmitrijs2005/paykeeper/internal/logging"
	"golang.org/x/time/rate"
)

type SchedulerConfig struct {
	// MinInterval spaces consecutive drain cycles.
	MinInterval time.Duration
	BackoffMin  time.Duration
	BackoffMax  time.Duration
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MinInterval: time.Second,
		BackoffMin:  2 * time.Second,
		BackoffMax:  time.Minute,
	}
}

// Scheduler starts drain cycles when connectivity returns, on demand, and
// after failed cycles with exponential backoff.
type Scheduler struct {
	manager *Manager
	monitor *connectivity.Monitor
	remote  client.RemoteStore
	logger  logging.Logger
	cfg     SchedulerConfig
	limiter *rate.Limiter
	trigger chan struct{}
	cycles  chan SyncResult
}

func NewScheduler(m *Manager, monitor *connectivity.Monitor, remote client.RemoteStore, l logging.Logger, cfg SchedulerConfig) *Scheduler {
	if l == nil {
		l = logging.NopLogger{}
	}
	def := DefaultSchedulerConfig()
	if cfg.BackoffMin <= 0 {
		cfg.BackoffMin = def.BackoffMin
	}
	if cfg.BackoffMax < cfg.BackoffMin {
		cfg.BackoffMax = cfg.BackoffMin
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	return &Scheduler{
		manager: m,
		monitor: monitor,
		remote:  remote,
		logger:  l.With("module", "scheduler"),
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		trigger: make(chan struct{}, 1),
	}
}

// Trigger asks for a drain cycle. Requests made while one is already waiting
// are merged.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run reacts to connectivity changes and triggers until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	unsubscribe := s.monitor.Subscribe(func(st connectivity.State) {
		if st == connectivity.Online {
			s.Trigger()
		}
	})
	defer unsubscribe()

	if s.monitor.IsOnline() {
		s.Trigger()
	}

	backoff := s.cfg.BackoffMin
	var retry <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-retry:
			retry = nil
		case <-s.trigger:
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return
		}

		res, ok := s.cycle(ctx)
		if s.cycles != nil && ok {
			select {
			case s.cycles <- res:
			default:
			}
		}
		if !ok {
			continue
		}

		if res.Outcome == OutcomeError && s.monitor.IsOnline() && s.manager.PendingCount() > 0 {
			s.logger.Info(ctx, "sync failed, retrying later", "backoff", backoff)
			retry = time.After(backoff)
			backoff = min(backoff*2, s.cfg.BackoffMax)
			continue
		}
		if res.Outcome != OutcomeError {
			backoff = s.cfg.BackoffMin
		}
	}
}

// cycle runs one drain if the remote is usable. ok is false when nothing ran.
func (s *Scheduler) cycle(ctx context.Context) (SyncResult, bool) {
	if !s.monitor.IsOnline() {
		return SyncResult{}, false
	}

	if !s.remote.IsInitialized() {
		if err := s.remote.Init(ctx); err != nil {
			s.logger.Warn(ctx, "remote init failed", "error", err)
			s.monitor.SetOffline()
			return SyncResult{}, false
		}
	}

	if s.manager.PendingCount() == 0 {
		return SyncResult{}, false
	}

	res, err := s.manager.Sync(ctx)
	if errors.Is(err, ErrSyncInProgress) {
		return SyncResult{}, false
	}
	return res, true
}
