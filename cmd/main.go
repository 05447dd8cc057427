package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "origination-engine/docs"
	"origination-engine/internal/api"
	"origination-engine/internal/audit"
	"origination-engine/internal/batch"
	"origination-engine/internal/config"
	"origination-engine/internal/domain/application"
	"origination-engine/internal/domain/client"
	"origination-engine/internal/event"
	"origination-engine/internal/infrastructure/cache"
	"origination-engine/internal/infrastructure/database/postgres"
	"origination-engine/internal/infrastructure/logging"
	"origination-engine/internal/worker"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// @title Origination Engine API
// @version 1.0
// @description This is the API documentation for the Origination Engine service.
// @termsOfService http://origination-engine.com/terms/

// @contact.name API Support
// @contact.url http://origination-engine.com/support
// @contact.email support@origination-engine.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()

	dbPool := initializeDatabase(cfg, logger)
	defer closeDatabase(dbPool, logger)

	rabbitMQConn := setupRabbitMQIfEnabled(cfg, logger)
	statusCache := initializeStatusCache(cfg, logger)

	applicationService, clientService, workerPool, maintenanceJob := initializeServices(cfg, rabbitMQConn, statusCache, dbPool, logger)

	workerPool.Start(context.Background())
	cronScheduler := startBatchJobs(cfg, logger, maintenanceJob)
	router := api.SetupRouter(applicationService, clientService, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, workerPool, rabbitMQConn, statusCache, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func initializeDatabase(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	logger.Info("Initializing database connection pool...")
	dbPool, err := postgres.NewConnectionPool(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}

	if cfg.Migrations.Auto {
		if err := postgres.RunMigrations(cfg.Database.URL, logger); err != nil {
			logger.Error("Failed to run database migrations", "error", err)
			dbPool.Close()
			os.Exit(1)
		}
	}

	return dbPool
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

func initializeServices(cfg *config.Config, rabbitConn *amqp.Connection, statusCache *cache.StatusCache, dbPool *pgxpool.Pool, logger *slog.Logger) (application.Service, client.Service, *worker.Pool, *batch.QueueMaintenanceJob) {
	logger.Info("Initializing application components...")

	clientRepo := postgres.NewClientRepository(dbPool, logger)
	applicationRepo := postgres.NewApplicationRepository(dbPool, logger)
	queueRepo := postgres.NewQueueRepository(dbPool, cfg.Worker.PollInterval, logger)
	auditStore := postgres.NewAuditRepository(dbPool, logger)

	var publisher audit.Publisher
	if rabbitConn != nil {
		rabbitPublisher, err := event.NewRabbitMQAuditPublisher(rabbitConn, cfg.RabbitMQ.ExchangeName, logger)
		if err != nil {
			logger.Error("Failed to set up audit publisher, continuing without event fanout", slog.Any("error", err))
		} else {
			publisher = rabbitPublisher
		}
	}
	recorder := audit.NewRecorder(auditStore, publisher, logger)

	var appCache application.Cache
	if statusCache != nil {
		appCache = statusCache
	}

	applicationService := application.NewService(applicationRepo, clientRepo, queueRepo, recorder, appCache, logger)
	clientService := client.NewService(clientRepo, logger)
	workerPool := worker.NewPool(cfg.Worker, applicationRepo, clientRepo, queueRepo, recorder, appCache, logger)
	maintenanceJob := batch.NewQueueMaintenanceJob(queueRepo, cfg.Batch, logger)

	return applicationService, clientService, workerPool, maintenanceJob
}

func initializeStatusCache(cfg *config.Config, logger *slog.Logger) *cache.StatusCache {
	if !cfg.Redis.Enabled {
		logger.Info("Redis status cache disabled, lookups go straight to the database.")
		return nil
	}

	logger.Info("Initializing Redis status cache...", "addr", cfg.Redis.Address)
	statusCache, err := cache.NewStatusCache(cfg.Redis, logger)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err, "addr", cfg.Redis.Address)
		os.Exit(1)
	}
	return statusCache
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

// handleShutdown drains in order: stop accepting submissions, stop the
// scheduler, let each worker finish its current message, then drop the
// outbound connections. The database pool closes last via defer in main.
func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, workerPool *worker.Pool, rabbitConn *amqp.Connection,
	statusCache *cache.StatusCache, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	triggerReason := waitForShutdownTrigger(shutdownChan, serverErrors, logger)

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	shutdownHTTPServer(srv, serverErrors, logger)
	stopCronScheduler(cronScheduler, logger)
	workerPool.Stop()
	closeRabbitMQConnection(rabbitConn, logger)
	closeStatusCache(statusCache, logger)

	logger.Info("Application shutdown process complete.")
}

func waitForShutdownTrigger(shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) string {
	select {
	case sig := <-shutdownChan:
		logger.Info("Shutdown signal received.", "signal", sig.String())
		return "signal: " + sig.String()
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		logger.Info("Server goroutine finished before signal.", "error", err)
		return "server exited"
	}
}

func stopCronScheduler(cronScheduler *cron.Cron, logger *slog.Logger) {
	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}
}

func closeRabbitMQConnection(rabbitConn *amqp.Connection, logger *slog.Logger) {
	if rabbitConn != nil && !rabbitConn.IsClosed() {
		logger.Info("Closing RabbitMQ connection...")
		if err := rabbitConn.Close(); err != nil {
			logger.Error("Failed to close RabbitMQ connection gracefully", slog.Any("error", err))
		} else {
			logger.Info("RabbitMQ connection closed.")
		}
	} else if rabbitConn == nil {
		logger.Info("RabbitMQ connection was not established, skipping close.")
	} else {
		logger.Info("RabbitMQ connection already closed, skipping close.")
	}
}

func closeStatusCache(statusCache *cache.StatusCache, logger *slog.Logger) {
	if statusCache == nil {
		logger.Info("Status cache was not initialized, skipping close.")
		return
	}
	logger.Info("Closing Redis status cache...")
	if err := statusCache.Close(); err != nil {
		logger.Error("Failed to close Redis status cache gracefully", "error", err)
	} else {
		logger.Info("Redis status cache closed.")
	}
}

func shutdownHTTPServer(srv *http.Server, serverErrors <-chan error, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server graceful shutdown failed", "error", err)
		} else {
			logger.Info("HTTP server shutdown initiated.")
		}
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, maintenanceJob *batch.QueueMaintenanceJob) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.Batch.QueueMaintenanceSchedule
	if scheduleSpec == "" {
		scheduleSpec = "0 3 * * *"
		logger.Warn("Queue maintenance schedule not configured, using default", "schedule", scheduleSpec)
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "QueueMaintenance")
		jobLogger.Info("Cron triggered: Running queue maintenance job.")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if runErr := maintenanceJob.Run(ctx); runErr != nil {
			jobLogger.Error("Queue maintenance job finished with error", slog.Any("error", runErr))
		} else {
			jobLogger.Info("Queue maintenance job finished successfully.")
		}
	}))

	if err != nil {
		logger.Error("Failed to schedule queue maintenance job", "schedule", scheduleSpec, slog.Any("error", err))
	} else {
		logger.Info("Scheduled queue maintenance job", "schedule", scheduleSpec, "job_id", jobID)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}

func connectRabbitMQ(uri string, logger *slog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	retryCount := 5
	for i := 1; i <= retryCount; i++ {
		conn, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ")

			go func() {
				blockChan := conn.NotifyBlocked(make(chan amqp.Blocking))
				closeChan := conn.NotifyClose(make(chan *amqp.Error))

				select {
				case b := <-blockChan:
					logger.Warn("RabbitMQ Connection Blocked", "reason", b.Reason)
				case e := <-closeChan:
					logger.Error("RabbitMQ Connection Closed", slog.Any("error", e))
				}
			}()

			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying...",
			slog.Int("attempt", i),
			slog.Int("max_attempts", retryCount),
			slog.Any("error", err),
		)
		time.Sleep(time.Duration(i*2) * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", retryCount, err)
}

func setupRabbitMQIfEnabled(cfg *config.Config, logger *slog.Logger) *amqp.Connection {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("RabbitMQ audit fanout disabled, audit records stay local.")
		return nil
	}

	uri, err := rabbitMQURI(cfg.RabbitMQ)
	if err != nil {
		logger.Error("Invalid RabbitMQ configuration, continuing without event fanout", slog.Any("error", err))
		return nil
	}

	conn, err := connectRabbitMQ(uri, logger)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ, continuing without event fanout", slog.Any("error", err))
		return nil
	}
	return conn
}

func rabbitMQURI(cfg config.RabbitMQConfig) (string, error) {
	if cfg.Host == "" {
		return "", fmt.Errorf("RabbitMQ host is not configured")
	}

	uri := fmt.Sprintf("amqp://%s:%d", cfg.Host, cfg.Port)
	if cfg.Username != "" && cfg.Password != "" {
		uri = fmt.Sprintf("amqp://%s:%s@%s:%d", cfg.Username, cfg.Password, cfg.Host, cfg.Port)
	} else if cfg.Username != "" || cfg.Password != "" {
		return "", fmt.Errorf("RabbitMQ username and password must be provided together")
	}

	return uri, nil
}
