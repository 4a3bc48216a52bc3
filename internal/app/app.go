package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/sundialhq/sundial/internal/http"
	"github.com/sundialhq/sundial/internal/service"
	"github.com/sundialhq/sundial/internal/store"
	"github.com/sundialhq/sundial/internal/store/drivers/postgres"
	"github.com/sundialhq/sundial/internal/store/drivers/sqlite"
	"github.com/sundialhq/sundial/pkg/cryptox"
	"github.com/sundialhq/sundial/pkg/httpx"
	"github.com/sundialhq/sundial/pkg/jwtx"
	"github.com/sundialhq/sundial/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	codec *jwtx.Codec

	userService    *service.UserService
	sessionService *service.SessionService
	inviteService  *service.InviteService
	eventService   *service.EventService
	assistService  *service.AssistService
	mailer         *service.Mailer
	housekeeping   *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "sundial",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.codec = &jwtx.Codec{
		Issuer:        "sundial",
		AccessSecret:  []byte(cfg.JWTAccessSecret),
		RefreshSecret: []byte(cfg.JWTRefreshSecret),
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("sundial starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"transport", app.cfg.AuthTransport,
		"driver", app.cfg.DatabaseDriver,
	)

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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down sundial...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("sundial stopped")
	return nil
}

// initDatabase opens the configured driver and applies migrations.
func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case "postgres":
		db, err = postgres.NewStore(app.cfg.DatabaseURL)
	default:
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	}
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

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.userService = &service.UserService{Store: app.db}
	app.sessionService = &service.SessionService{
		Codec: app.codec,
		Store: app.db,
	}
	app.inviteService = &service.InviteService{
		Store:        app.db,
		ClientOrigin: app.cfg.ClientOrigin,
		InviteTTL:    app.cfg.InviteTokenTTL,
	}
	app.eventService = &service.EventService{Store: app.db}
	app.assistService = &service.AssistService{
		Provider: service.NewAIProvider(app.cfg.OpenAIAPIKey),
		Store:    app.db,
	}
	app.mailer = &service.Mailer{
		Host: app.cfg.SMTPHost,
		Port: app.cfg.SMTPPort,
		User: app.cfg.SMTPUser,
		Pass: app.cfg.SMTPPass,
		From: app.cfg.SMTPFrom,
	}

	app.housekeeping = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	transport := httpx.Transport(app.cfg.AuthTransport)
	cookies := httpapi.NewCookieWriter(
		app.cfg.CookieSecure,
		app.cfg.AccessTokenTTL,
		app.cfg.RefreshTokenTTL,
	)

	router := httpapi.NewRouter(
		app.codec,
		transport,
		cookies,
		app.cfg.ClientOrigin,
		app.db,
		app.logger,
	)

	router.UserService = app.userService
	router.SessionService = app.sessionService
	router.InviteService = app.inviteService
	router.EventService = app.eventService
	router.AssistService = app.assistService
	router.Mailer = app.mailer
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
