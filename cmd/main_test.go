package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"customer-service/internal/api/middleware"
	"customer-service/internal/batch"
	"customer-service/internal/config"
	"customer-service/internal/domain/customer"
	"customer-service/internal/event"
	"customer-service/internal/infrastructure/database/memory"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestInitializeApp(t *testing.T) {
	t.Setenv("STORE_DRIVER", config.StoreDriverMemory)

	cfg, log := initializeApp()

	assert.NotNil(t, cfg, "Config should not be nil")
	assert.NotNil(t, log, "Logger should not be nil")
	assert.Equal(t, config.StoreDriverMemory, cfg.Store.Driver)
}

func TestInitializeStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := &config.Config{Store: config.StoreConfig{Driver: config.StoreDriverMemory}}

		repo, closeFn, err := initializeStore(ctx, cfg, testLogger)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &memory.CustomerRepository{}, repo)
	})

	t.Run("gorm over sqlite", func(t *testing.T) {
		cfg := &config.Config{
			Store:    config.StoreConfig{Driver: config.StoreDriverGorm},
			Database: config.DatabaseConfig{URL: ":memory:", Dialect: config.DialectSQLite, InitSchema: true},
		}

		repo, closeFn, err := initializeStore(ctx, cfg, testLogger)
		require.NoError(t, err)
		defer closeFn()

		cust := &customer.Customer{Name: "Alex", Email: "alex@gmail.com", Age: 19}
		require.NoError(t, repo.Insert(ctx, cust))
		assert.Equal(t, int64(1), cust.ID)
	})

	t.Run("postgres without URL", func(t *testing.T) {
		cfg := &config.Config{Store: config.StoreConfig{Driver: config.StoreDriverPostgres}}

		_, _, err := initializeStore(ctx, cfg, testLogger)
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := &config.Config{Store: config.StoreConfig{Driver: "cassandra"}}

		_, _, err := initializeStore(ctx, cfg, testLogger)
		assert.EqualError(t, err, `unsupported store driver "cassandra"`)
	})
}

func TestPublisherFallsBackToNoop(t *testing.T) {
	cfg := &config.Config{RabbitMQ: config.RabbitMQConfig{Enabled: false}}

	conn := setupRabbitMQ(cfg, testLogger)
	assert.Nil(t, conn)
	assert.Equal(t, event.NoopPublisher{}, initializePublisher(conn, cfg, testLogger))
}

func TestRunSeeder(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCustomerRepository(testLogger)

	runSeeder(&config.Config{Seed: config.SeedConfig{Enabled: false}}, repo, testLogger)
	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	runSeeder(&config.Config{Seed: config.SeedConfig{Enabled: true}}, repo, testLogger)
	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStartBatchJobs(t *testing.T) {
	repo := memory.NewCustomerRepository(testLogger)
	job := batch.NewCustomerStatsJob(repo, testLogger)

	c := startBatchJobs(&config.Config{}, testLogger, job)
	defer c.Stop()

	assert.Len(t, c.Entries(), 1)
}

func TestStartServer(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:         0,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  5 * time.Second,
		},
	}
	router := http.NewServeMux()

	srv, serverErrors, shutdownChan := startServer(cfg, router, testLogger)
	defer srv.Close()

	assert.NotNil(t, srv, "Server should not be nil")
	assert.NotNil(t, serverErrors, "Server errors channel should not be nil")
	assert.NotNil(t, shutdownChan, "Shutdown channel should not be nil")
}

func TestHandleShutdown(t *testing.T) {
	cronScheduler := cron.New()
	limiter := middleware.NewRateLimiterMiddleware(config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}, testLogger)
	srv := &http.Server{}
	shutdownChan := make(chan os.Signal, 1)
	serverErrors := make(chan error, 1)

	shutdownChan <- syscall.SIGINT
	serverErrors <- nil

	done := make(chan struct{})
	go func() {
		handleShutdown(srv, cronScheduler, nil, limiter, shutdownChan, serverErrors, testLogger)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("graceful shutdown did not complete")
	}
}
