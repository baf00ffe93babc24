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

	"customer-service/internal/api"
	"customer-service/internal/api/middleware"
	"customer-service/internal/batch"
	"customer-service/internal/config"
	"customer-service/internal/domain/customer"
	"customer-service/internal/event"
	"customer-service/internal/infrastructure/database/gormstore"
	"customer-service/internal/infrastructure/database/memory"
	"customer-service/internal/infrastructure/database/postgres"
	"customer-service/internal/infrastructure/logging"
	"customer-service/internal/seed"

	"github.com/brianvoe/gofakeit/v7"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"
)

const (
	rabbitMQRetryCount = 5
	configPath         = "."
)

// @title Customer Service API
// @version 1.0
// @description REST API for registering, reading, updating and deleting customers.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
func main() {
	cfg, logger := initializeApp()

	customerRepo, closeStore, err := initializeStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize customer store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	rabbitMQConn := setupRabbitMQ(cfg, logger)
	publisher := initializePublisher(rabbitMQConn, cfg, logger)
	customerService := customer.NewCustomerService(customerRepo, publisher, logger)

	runSeeder(cfg, customerRepo, logger)

	statsJob := batch.NewCustomerStatsJob(customerRepo, logger)
	cronScheduler := startBatchJobs(cfg, logger, statsJob)

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger)
	router := api.SetupRouter(customerService, rateLimiter, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, rabbitMQConn, rateLimiter, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	logger.Info("Application starting...", "store_driver", cfg.Store.Driver)

	return cfg, logger
}

// initializeStore builds the repository selected by store.driver and returns
// a function releasing its resources.
func initializeStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (customer.CustomerRepository, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		logger.Info("Initializing database connection pool...")
		dbPool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.InitSchema {
			if err := postgres.EnsureSchema(ctx, dbPool, logger); err != nil {
				dbPool.Close()
				return nil, nil, err
			}
		}
		closeFn := func() {
			logger.Info("Closing database connection pool...")
			dbPool.Close()
		}
		return postgres.NewCustomerRepository(dbPool, logger), closeFn, nil

	case config.StoreDriverGorm:
		logger.Info("Initializing gorm database...", "dialect", cfg.Database.Dialect)
		db, err := gormstore.NewDatabase(cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			logger.Info("Closing gorm database...")
			if err := gormstore.Close(db); err != nil {
				logger.Error("Failed to close gorm database", "error", err)
			}
		}
		return gormstore.NewCustomerRepository(db, logger), closeFn, nil

	case config.StoreDriverMemory:
		logger.Warn("Using in-memory customer store, data is lost on restart")
		return memory.NewCustomerRepository(logger), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func setupRabbitMQ(cfg *config.Config, logger *slog.Logger) *amqp.Connection {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("RabbitMQ disabled, customer events will not be published")
		return nil
	}
	conn, err := connectRabbitMQ(cfg.RabbitMQ.URL, logger)
	if err != nil {
		logger.Error("Continuing without RabbitMQ", "error", err)
		return nil
	}
	return conn
}

func connectRabbitMQ(uri string, logger *slog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	for i := 1; i <= rabbitMQRetryCount; i++ {
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
					if e != nil {
						logger.Error("RabbitMQ Connection Closed", slog.Any("error", e))
					}
				}
			}()

			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying...",
			slog.Int("attempt", i),
			slog.Int("max_attempts", rabbitMQRetryCount),
			slog.Any("error", err),
		)
		time.Sleep(time.Duration(i*2) * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", rabbitMQRetryCount, err)
}

func initializePublisher(conn *amqp.Connection, cfg *config.Config, logger *slog.Logger) event.EventPublisher {
	if conn == nil {
		return event.NoopPublisher{}
	}
	publisher, err := event.NewRabbitMQEventPublisher(conn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		logger.Error("Failed to create RabbitMQ publisher, events will be dropped", "error", err)
		return event.NoopPublisher{}
	}
	return publisher
}

func runSeeder(cfg *config.Config, repo customer.CustomerRepository, logger *slog.Logger) {
	if !cfg.Seed.Enabled {
		return
	}
	seeder := seed.NewCustomerSeeder(repo, gofakeit.New(0), logger)
	if _, err := seeder.Seed(context.Background()); err != nil {
		logger.Error("Startup seeding failed", "error", err)
	}
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

func handleShutdown(
	srv *http.Server,
	cronScheduler *cron.Cron,
	rabbitMQConn *amqp.Connection,
	rateLimiter *middleware.RateLimiterMiddleware,
	shutdownChan <-chan os.Signal,
	serverErrors <-chan error,
	logger *slog.Logger,
) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	var triggerReason string
	select {
	case sig := <-shutdownChan:
		triggerReason = "signal: " + sig.String()
		logger.Info("Shutdown signal received.", "signal", sig.String())
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		triggerReason = "server exited"
		logger.Info("Server goroutine finished before signal.", "error", err)
	}

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}

	if rateLimiter != nil {
		rateLimiter.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
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

	if rabbitMQConn != nil {
		logger.Info("Closing RabbitMQ connection...")
		if err := rabbitMQConn.Close(); err != nil {
			logger.Error("Failed to close RabbitMQ connection", "error", err)
		}
	}

	logger.Info("Application shutdown process complete.")
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, statsJob *batch.CustomerStatsJob) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.Batch.CustomerStatsSchedule
	if scheduleSpec == "" {
		scheduleSpec = "*/5 * * * *"
		logger.Warn("Customer stats schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.Batch.CustomerStatsTimeout
	if jobTimeout <= 0 {
		jobTimeout = time.Minute
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "CustomerStats")
		jobLogger.Info("Cron triggered: Running customer stats job.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if runErr := statsJob.Run(ctx); runErr != nil {
			jobLogger.Error("Customer stats job finished with error", slog.Any("error", runErr))
		} else {
			jobLogger.Info("Customer stats job finished successfully.")
		}
	}))

	if err != nil {
		logger.Error("Failed to schedule customer stats job", "schedule", scheduleSpec, slog.Any("error", err))
	} else {
		logger.Info("Scheduled customer stats job", "schedule", scheduleSpec, "job_id", jobID)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}
