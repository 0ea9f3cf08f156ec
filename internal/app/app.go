package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"booksapi/internal/api"
	"booksapi/internal/config"
	"booksapi/internal/notify"
	"booksapi/internal/storage"
	"booksapi/internal/storage/ch"
	"booksapi/internal/storage/pg"
	"booksapi/internal/storage/stubs"
)

// App represents the application
type App struct {
	config   *config.Config
	logger   *zap.Logger
	db       storage.Storage
	activity storage.ActivityLog
	notifier notify.Notifier
	server   *http.Server
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg.Development)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if envErr != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	return NewWithConfig(cfg, logger)
}

// NewWithConfig builds the application from an already loaded configuration
func NewWithConfig(cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{config: cfg, logger: logger}

	logger.Info("Starting Books API...")

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initActivityLog(); err != nil {
		app.db.Close()
		return nil, err
	}

	if err := app.initNotifier(); err != nil {
		app.closeStores()
		return nil, err
	}

	app.initHTTPServer()

	return app, nil
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// initDatabase initializes the database connection
func (a *App) initDatabase() error {
	ctx := context.Background()

	var db storage.Storage
	if a.config.UseMockDB {
		a.logger.Info("Using mock database")
		db = stubs.NewMockDB()
	} else {
		a.logger.Info("Connecting to PostgreSQL")
		postgresDB, err := pg.NewPostgresDB(ctx, a.config.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		db = postgresDB
	}

	if err := db.Initialize(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.logger.Info("Database initialized successfully")

	a.db = db
	return nil
}

// initActivityLog connects the optional activity log
func (a *App) initActivityLog() error {
	switch {
	case a.config.ActivityLogEnabled():
		tlsStatus := "without TLS"
		if a.config.ClickHouseUseTLS {
			tlsStatus = "with TLS"
		}
		a.logger.Info("Connecting to ClickHouse activity log",
			zap.String("host", a.config.ClickHouseHost),
			zap.Int("port", a.config.ClickHousePort),
			zap.String("database", a.config.ClickHouseDatabase),
			zap.String("user", a.config.ClickHouseUser),
			zap.String("tls", tlsStatus),
		)
		clickhouseDB, err := ch.NewClickHouseDB(
			a.config.ClickHouseHost,
			a.config.ClickHousePort,
			a.config.ClickHouseDatabase,
			a.config.ClickHouseUser,
			a.config.ClickHousePassword,
			a.config.ClickHouseUseTLS,
		)
		if err != nil {
			return fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		if err := clickhouseDB.Initialize(context.Background()); err != nil {
			clickhouseDB.Close()
			return fmt.Errorf("failed to initialize activity log: %w", err)
		}
		a.activity = clickhouseDB
	case a.config.UseMockDB:
		// The mock database keeps its own in-memory activity log
		if mock, ok := a.db.(*stubs.MockDB); ok {
			a.activity = mock
		}
	default:
		a.logger.Info("Activity log disabled (CLICKHOUSE_HOST not set)")
	}
	return nil
}

// initNotifier sets up Telegram notifications when configured
func (a *App) initNotifier() error {
	if !a.config.NotificationsEnabled() {
		a.notifier = notify.Nop{}
		return nil
	}

	telegram, err := notify.NewTelegram(a.config.TelegramToken, a.config.TelegramChatID, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create Telegram notifier: %w", err)
	}
	a.notifier = telegram
	return nil
}

// initHTTPServer initializes the HTTP server
func (a *App) initHTTPServer() {
	httpServer := api.NewHTTPServer(a.db, a.activity, a.notifier, a.logger)

	a.server = &http.Server{
		Addr:         ":" + a.config.Port,
		Handler:      httpServer.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Handler returns the HTTP handler serving the API
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until shutdown
func (a *App) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("port", a.config.Port))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		a.logger.Info("Shutting down...")
	case err := <-errChan:
		a.logger.Error("HTTP server error", zap.Error(err))
		a.closeStores()
		return fmt.Errorf("http server: %w", err)
	}

	return a.Shutdown()
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	if err := a.notifier.Close(); err != nil {
		a.logger.Warn("Error closing notifier", zap.Error(err))
	}

	if err := a.closeStores(); err != nil {
		return err
	}

	a.logger.Info("Shutdown complete")
	a.logger.Sync()
	return nil
}

// closeStores closes the activity log and the database
func (a *App) closeStores() error {
	if a.activity != nil {
		if err := a.activity.Close(); err != nil {
			a.logger.Warn("Error closing activity log", zap.Error(err))
		}
	}

	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database", zap.Error(err))
		return err
	}
	return nil
}
