// Package app assembles every component of the service from its config.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/emilythestrangee/qa-forum/backend/internal/community"
	"github.com/emilythestrangee/qa-forum/backend/internal/config"
	"github.com/emilythestrangee/qa-forum/backend/internal/database"
	"github.com/emilythestrangee/qa-forum/backend/internal/jobs"
	"github.com/emilythestrangee/qa-forum/backend/internal/notify"
	"github.com/emilythestrangee/qa-forum/backend/internal/server"
	"github.com/emilythestrangee/qa-forum/backend/internal/service"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
	"github.com/emilythestrangee/qa-forum/backend/internal/store/memstore"
)

const shutdownTimeout = 10 * time.Second

// App holds the running components of the service.
type App struct {
	Config    *config.Config
	DB        database.Service
	Store     store.Store
	Community *community.Community
	Services  *service.Services
	Notifier  *notify.Dispatcher
	Server    *server.Server
	Scheduler *jobs.Scheduler
}

// New builds the application. Components are created in dependency order.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Storage ===
	db, st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// === 2. Notifications ===
	notifier := notify.NewDispatcher(notify.Options{
		Delay:     cfg.NotifyDelay,
		Workers:   cfg.NotifyWorkers,
		QueueSize: cfg.NotifyQueueSize,
	}, log.StandardLogger(), senders(cfg)...)

	// === 3. Community protocols ===
	c := community.New(st, notifier)
	c.Reconciler = community.NewReconciler(st.Counters(), cfg.ReconcileGrace)

	// === 4. Services ===
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenLifetime)
	svc := service.New(st, c, notifier, tokens, cfg.CodeLifetime)

	// === 5. HTTP ===
	srv := server.New(cfg, db, svc)

	// === 6. Jobs ===
	scheduler := jobs.NewScheduler(cfg.ReconcileSchedule, c.Reconciler)

	return &App{
		Config:    cfg,
		DB:        db,
		Store:     st,
		Community: c,
		Services:  svc,
		Notifier:  notifier,
		Server:    srv,
		Scheduler: scheduler,
	}, nil
}

// OpenStore connects the configured storage driver. The postgres driver
// migrates the schema first.
func OpenStore(ctx context.Context, cfg *config.Config) (database.Service, store.Store, error) {
	if cfg.DBDriver == config.DriverMemory {
		log.Warn("Using the in-memory store, data is lost on exit")
		return database.Memory{}, memstore.New(), nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db.GetDB().WithContext(ctx)); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, store.NewGormStore(db.GetDB()), nil
}

// senders lists the delivery channels the config enables. Without SMTP
// messages are only logged.
func senders(cfg *config.Config) []notify.Sender {
	var out []notify.Sender
	if cfg.SMTPEnabled() {
		out = append(out, notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}))
	} else {
		out = append(out, notify.NewLogSender(log.StandardLogger()))
	}
	if cfg.TwilioEnabled() {
		out = append(out, notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber))
	}
	return out
}

// Run serves HTTP and runs the background workers until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.Notifier.Start(ctx)
	if err := a.Scheduler.Start(ctx); err != nil {
		return err
	}

	httpServer := a.Server.HTTPServer()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close stops the workers and releases the database.
func (a *App) Close() {
	a.Scheduler.Stop()
	a.Notifier.Stop()
	a.Server.Close()
	if err := a.DB.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}
}
