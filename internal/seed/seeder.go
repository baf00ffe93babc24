package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"customer-service/internal/domain/customer"
	"customer-service/internal/pkg/apperrors"

	"github.com/brianvoe/gofakeit/v7"
)

const (
	emailDomain = "hotmail.com"
	minAge      = 16
	maxAge      = 98
)

// CustomerSeeder inserts a randomly generated customer directly through the
// repository at startup.
type CustomerSeeder struct {
	repo   customer.CustomerRepository
	faker  *gofakeit.Faker
	logger *slog.Logger
}

func NewCustomerSeeder(repo customer.CustomerRepository, faker *gofakeit.Faker, logger *slog.Logger) *CustomerSeeder {
	if faker == nil {
		faker = gofakeit.New(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CustomerSeeder{
		repo:   repo,
		faker:  faker,
		logger: logger.With("component", "CustomerSeeder"),
	}
}

func (s *CustomerSeeder) generate() *customer.Customer {
	firstName := s.faker.FirstName()
	lastName := s.faker.LastName()

	return &customer.Customer{
		Name:  firstName + " " + lastName,
		Email: strings.ToLower(firstName) + "." + strings.ToLower(lastName) + "@" + emailDomain,
		Age:   s.faker.IntRange(minAge, maxAge),
	}
}

// Seed stores one generated customer. An email collision is logged and
// skipped rather than treated as a failure.
func (s *CustomerSeeder) Seed(ctx context.Context) (*customer.Customer, error) {
	cust := s.generate()
	s.logger.InfoContext(ctx, "Seeding customer", slog.String("email", cust.Email))

	if err := s.repo.Insert(ctx, cust); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			s.logger.WarnContext(ctx, "Seed customer email already present, skipping", slog.String("email", cust.Email))
			return nil, nil
		}
		s.logger.ErrorContext(ctx, "Failed to seed customer", slog.Any("error", err))
		return nil, fmt.Errorf("seed customer: %w", err)
	}

	s.logger.InfoContext(ctx, "Seeded customer", slog.Int64("customerID", cust.ID))
	return cust, nil
}
