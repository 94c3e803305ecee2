package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/kickoffhq/accounts/internal/accounts/http"
	"github.com/kickoffhq/accounts/internal/accounts/notify"
	"github.com/kickoffhq/accounts/internal/accounts/service"
	"github.com/kickoffhq/accounts/internal/accounts/store"
	"github.com/kickoffhq/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/kickoffhq/accounts/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application wires the account service together: storage, notifier,
// services, and the HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	notifier notify.Notifier

	credentialService *service.CredentialService
	sessionService    *service.SessionService
	resetService      *service.ResetService
	inviteService     *service.InviteService
	tenancyService    *service.TenancyService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "accounts",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initNotifier()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("account service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests within the grace period, then closes
// the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down account service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("account service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initNotifier() {
	if app.cfg.MailConfigured() {
		app.notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     app.cfg.SMTPHost,
			Port:     app.cfg.SMTPPort,
			Sender:   app.cfg.SMTPSender,
			Password: app.cfg.SMTPPassword,
		})
		return
	}

	app.logger.Warn("SMTP not configured, outgoing mail will be logged only")
	app.notifier = &notify.LogNotifier{Logger: app.logger}
}

func (app *Application) initServices() {
	app.credentialService = &service.CredentialService{
		Store:    app.db,
		Notifier: app.notifier,
	}
	app.sessionService = &service.SessionService{
		Store: app.db,
		TTL:   app.cfg.SessionTTL,
	}
	app.resetService = &service.ResetService{
		Store:       app.db,
		Notifier:    app.notifier,
		Sessions:    app.sessionService,
		Credentials: app.credentialService,
		BaseURL:     app.cfg.BaseURL,
		TTL:         app.cfg.ResetTTL,
	}
	app.inviteService = &service.InviteService{
		Store:    app.db,
		Notifier: app.notifier,
		BaseURL:  app.cfg.BaseURL,
		TTL:      app.cfg.InviteTTL,
	}
	app.tenancyService = &service.TenancyService{
		Store:    app.db,
		Sessions: app.sessionService,
	}
}

func (app *Application) initHTTP() {
	app.router = httpapi.NewRouter(BuildVersion, app.db, app.logger)
	app.router.Credentials = app.credentialService
	app.router.Sessions = app.sessionService
	app.router.Reset = app.resetService
	app.router.Invites = app.inviteService
	app.router.Tenancy = app.tenancyService
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: app.router,
	}
}
