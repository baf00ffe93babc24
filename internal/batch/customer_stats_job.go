package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"customer-service/internal/domain/customer"
	"customer-service/internal/infrastructure/monitoring"
)

// CustomerStatsJob refreshes the customer gauge from the store.
type CustomerStatsJob struct {
	repo   customer.CustomerRepository
	logger *slog.Logger
}

func NewCustomerStatsJob(repo customer.CustomerRepository, logger *slog.Logger) *CustomerStatsJob {
	if repo == nil || logger == nil {
		panic("CustomerStatsJob dependencies cannot be nil")
	}
	return &CustomerStatsJob{
		repo:   repo,
		logger: logger.With("job", "CustomerStats"),
	}
}

func (j *CustomerStatsJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting customer stats refresh job.")

	customers, err := j.repo.FindAll(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list customers, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to list customers: %w", err)
	}

	monitoring.SetCustomersTotal(len(customers))

	var averageAge float64
	if len(customers) > 0 {
		total := 0
		for _, c := range customers {
			total += c.Age
		}
		averageAge = float64(total) / float64(len(customers))
	}

	j.logger.InfoContext(ctx, "Customer stats refresh job finished.",
		slog.Int("customers", len(customers)),
		slog.Float64("average_age", averageAge),
		slog.Duration("duration", time.Since(startTime)),
	)
	return nil
}
