// Package connectivity holds the single source of truth for the client's
// online/offline state. State changes come from a periodic reachability
// probe (Watch) and from failed remote calls (ReportError).
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/client/client"
	"github.com/dmitrijs2005/paykeeper/internal/logging"
)

type State string

const (
	Online  State = "online"
	Offline State = "offline"
)

// Listener is called with the new state after every transition.
type Listener func(State)

// Prober checks remote reachability.
type Prober interface {
	Ping(ctx context.Context) error
}

type Monitor struct {
	logger logging.Logger

	mu    sync.RWMutex
	state State

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

// NewMonitor starts in the given state; clients start offline and let the
// first probe decide.
func NewMonitor(initial State, l logging.Logger) *Monitor {
	if l == nil {
		l = logging.NopLogger{}
	}
	return &Monitor{
		state:     initial,
		logger:    l.With("module", "connectivity"),
		listeners: map[int]Listener{},
	}
}

func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Monitor) IsOnline() bool {
	return m.State() == Online
}

func (m *Monitor) SetOnline()  { m.set(Online) }
func (m *Monitor) SetOffline() { m.set(Offline) }

// ReportError flips to offline when err is network-shaped and reports
// whether it did so. Business errors leave the state alone.
func (m *Monitor) ReportError(err error) bool {
	if !client.IsNetworkError(err) {
		return false
	}
	m.logger.Warn(context.Background(), "remote call failed, going offline", "error", err)
	m.set(Offline)
	return true
}

func (m *Monitor) set(s State) {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return
	}
	m.state = s
	m.mu.Unlock()

	m.logger.Info(context.Background(), "connectivity changed", "state", s)
	m.notify(s)
}

// Subscribe registers fn for state transitions and returns a function that
// removes it. Listeners run synchronously on the goroutine that changed the
// state and must not block.
func (m *Monitor) Subscribe(fn Listener) func() {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn

	return func() {
		m.listenersMu.Lock()
		delete(m.listeners, id)
		m.listenersMu.Unlock()
	}
}

func (m *Monitor) notify(s State) {
	m.listenersMu.Lock()
	fns := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.listenersMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Watch probes reachability every interval until ctx is done.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration, p Prober) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.Probe(ctx, p)

	for {
		select {
		case <-ticker.C:
			m.Probe(ctx, p)
		case <-ctx.Done():
			return
		}
	}
}

// Probe pings once and sets the state from the result.
func (m *Monitor) Probe(ctx context.Context, p Prober) {
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := p.Ping(pctx)
	cancel()

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		m.logger.Debug(ctx, "probe failed", "error", err)
		m.set(Offline)
		return
	}
	m.set(Online)
}
