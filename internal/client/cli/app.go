package cli

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/dmitrijs2005/paykeeper/internal/client/client"
	"github.com/dmitrijs2005/paykeeper/internal/client/config"
	"github.com/dmitrijs2005/paykeeper/internal/client/connectivity"
	"github.com/dmitrijs2005/paykeeper/internal/client/httpapi"
	"github.com/dmitrijs2005/paykeeper/internal/client/localstore"
	"github.com/dmitrijs2005/paykeeper/internal/client/router"
	"github.com/dmitrijs2005/paykeeper/internal/client/services"
	"github.com/dmitrijs2005/paykeeper/internal/client/syncqueue"
	"github.com/dmitrijs2005/paykeeper/internal/filex"
	"github.com/dmitrijs2005/paykeeper/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

type App struct {
	config *config.Config
	logger logging.Logger

	store     *localstore.Store
	remote    client.Client
	monitor   *connectivity.Monitor
	manager   *syncqueue.Manager
	scheduler *syncqueue.Scheduler
	api       *httpapi.Server

	authService services.AuthService
	entities    *services.Entities
	syncService *services.SyncService
	backup      *services.BackupService

	mu        sync.Mutex
	masterKey []byte
	userName  string
	Mode      Mode

	prompt *prompter
	out    io.Writer
}

// NewApp wires the client. A local store that cannot be opened is logged and
// the app continues in degraded online-only mode.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	if l == nil {
		l = logging.NopLogger{}
	}

	store, err := openStore(ctx, c.DatabasePath)
	if err != nil {
		if !errors.Is(err, localstore.ErrStoreUnavailable) {
			return nil, err
		}
		l.Error(ctx, "local store unavailable, offline operation disabled", "error", err)
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, client.WithRequestTimeout(c.RequestTimeout))
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	return newApp(ctx, c, l, store, apiClient)
}

func openStore(ctx context.Context, path string) (*localstore.Store, error) {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, errors.Join(localstore.ErrStoreUnavailable, err)
	}
	return localstore.Open(ctx, path)
}

// newApp assembles the components around an opened store (possibly nil) and
// a remote client.
func newApp(ctx context.Context, c *config.Config, l logging.Logger, store *localstore.Store, remote client.Client) (*App, error) {
	a := &App{
		config: c,
		logger: l,
		store:  store,
		remote: remote,
		prompt: newPrompter(os.Stdin, os.Stdout),
		out:    os.Stdout,
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	a.monitor = connectivity.NewMonitor(connectivity.Offline, l)

	// a nil store leaves manager nil, which the router treats as degraded
	var manager *syncqueue.Manager
	if store != nil {
		manager = syncqueue.NewManager(store, remote, a.monitor, l,
			syncqueue.WithMaxAttempts(c.MaxSyncAttempts),
			syncqueue.WithMetrics(syncqueue.NewMetrics(reg)),
		)
		if err := manager.Load(ctx); err != nil {
			return nil, err
		}
		a.scheduler = syncqueue.NewScheduler(manager, a.monitor, remote, l, syncqueue.SchedulerConfig{
			MinInterval: c.SyncMinInterval,
			BackoffMin:  c.SyncBackoffMin,
			BackoffMax:  c.SyncBackoffMax,
		})
	}
	a.manager = manager

	rt := router.New(store, remote, a.monitor, manager, l)
	a.entities = services.NewEntities(rt)
	if seeded, err := a.entities.Settings.Seed(ctx); err != nil {
		l.Warn(ctx, "seeding default settings", "error", err)
	} else if seeded {
		l.Info(ctx, "default settings stored")
	}
	a.syncService = services.NewSyncService(manager, a.monitor, a.scheduler)
	a.authService = services.NewAuthService(remote, store)
	a.backup = services.NewBackupService(store, remote, http.DefaultClient, l)

	if c.HTTPAddr != "" {
		a.api = httpapi.NewServer(a.entities, a.syncService, reg, l)
	}

	a.monitor.Subscribe(func(s connectivity.State) {
		if s == connectivity.Online {
			a.setMode(ModeOnline)
		} else {
			a.setMode(ModeOffline)
		}
	})

	return a, nil
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()
	if changed {
		log.Printf("Switched to %s mode\n", mode)
	}
}

// Start launches the connectivity watcher, the sync scheduler and the HTTP
// API. They stop when ctx is done.
func (a *App) Start(ctx context.Context) {
	go a.monitor.Watch(ctx, a.config.OnlineCheckInterval, a.remote)

	if a.scheduler != nil {
		go a.scheduler.Run(ctx)
	}

	if a.api != nil {
		go func() {
			if err := a.api.Run(ctx, a.config.HTTPAddr); err != nil {
				a.logger.Error(ctx, "http api stopped", "error", err)
			}
		}()
	}
}

func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close(ctx)

	a.Start(ctx)
	a.Root(ctx)
}

// Close releases the remote connection and the local store.
func (a *App) Close(ctx context.Context) {
	if err := a.authService.Close(ctx); err != nil {
		a.logger.Warn(ctx, "closing remote client", "error", err)
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn(ctx, "closing local store", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.masterKey != nil
}

func (a *App) getStatus() string {
	a.mu.Lock()
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	a.mu.Unlock()

	if a.syncService != nil {
		st := a.syncService.Status()
		if st.Degraded {
			s += " degraded"
		} else if st.Pending > 0 || st.Quarantined > 0 {
			s += " " + pendingSummary(st)
		}
	}
	s = strings.TrimSpace(s)
	if s != "" {
		s = "(" + s + ")"
	}
	return s
}

// Root runs the login prompt and then the REPL on stdin.
func (a *App) Root(ctx context.Context) {
	log.Println("Welcome to PayKeeper CLI (type 'help' for commands)")

	if err := a.Login(ctx); err != nil {
		log.Printf("Login skipped: %s", err.Error())
	}

	runREPL(ctx, a, a.getStatus, a.prompt.in)
}
