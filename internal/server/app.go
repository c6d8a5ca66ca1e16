// Package server wires the record backend: PostgreSQL storage with goose
// migrations, the gRPC RecordService and a Prometheus metrics endpoint.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/logging"
	"github.com/dmitrijs2005/paykeeper/internal/server/config"
	"github.com/dmitrijs2005/paykeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/paykeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	gs "github.com/dmitrijs2005/paykeeper/internal/server/grpc"
)

const (
	shutdownTimeout    = 5 * time.Second
	tokenPruneInterval = time.Hour
)

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config        *config.Config
	logger        logging.Logger
	db            *sql.DB
	registry      *prometheus.Registry
	grpcServer    *gs.GRPCServer
	userService   *services.UserService
	recordService *services.RecordService
	backupService *services.BackupService
	pruneEvery    time.Duration
}

func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	return newApp(c, l, db, rm), nil
}

func newApp(c *config.Config, l logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) *App {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "paykeeper"),
	)

	us := services.NewUserService(db, rm, c)
	rs := services.NewRecordService(db, rm)
	bs := services.NewBackupService(c)

	grpcServer := gs.NewGRPCServer(c.EndpointAddrGRPC, l, us, rs, bs, c.SecretKey, gs.WithMetrics(gs.NewMetrics(registry)))

	return &App{
		config:        c,
		logger:        l,
		db:            db,
		registry:      registry,
		grpcServer:    grpcServer,
		userService:   us,
		recordService: rs,
		backupService: bs,
		pruneEvery:    tokenPruneInterval,
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	return mux
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if app.config.MetricsAddr == "" {
		return
	}

	srv := &http.Server{Addr: app.config.MetricsAddr, Handler: app.metricsHandler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// pruneRefreshTokens drops expired refresh tokens every app.pruneEvery until
// ctx is done.
func (app *App) pruneRefreshTokens(ctx context.Context) {
	t := time.NewTicker(app.pruneEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := app.userService.PruneRefreshTokens(ctx)
			if err != nil {
				app.logger.Warn(ctx, "refresh token cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Debug(ctx, "expired refresh tokens removed", "count", n)
			}
		}
	}
}

// Run serves until ctx is done, a termination signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startMetricsServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.pruneRefreshTokens(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
