package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"customer-service/internal/event"
	"customer-service/internal/infrastructure/monitoring"
	"customer-service/internal/pkg/apperrors"
)

const (
	opRegister = "register"
	opUpdate   = "update"
	opDelete   = "delete"

	outcomeSuccess  = "success"
	outcomeConflict = "conflict"
	outcomeNotFound = "not_found"
	outcomeNoChange = "no_change"
	outcomeError    = "error"
)

type CustomerService interface {
	ListCustomers(ctx context.Context) ([]*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	RegisterCustomer(ctx context.Context, req RegistrationRequest) error
	UpdateCustomer(ctx context.Context, customerID int64, req UpdateRequest) error
	DeleteCustomer(ctx context.Context, customerID int64) error
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	pub    event.EventPublisher
	logger *slog.Logger
}

func NewCustomerService(repo CustomerRepository, publisher event.EventPublisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	if publisher == nil {
		logger.Warn("Warning: No event publisher provided to NewCustomerService, events will be dropped")
		publisher = event.NoopPublisher{}
	}

	return &customerService{
		repo:   repo,
		pub:    publisher,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func newCustomerEventPayload(cust *Customer) event.CustomerEventPayload {
	if cust == nil {
		return event.CustomerEventPayload{}
	}
	return event.CustomerEventPayload{
		CustomerID: cust.ID,
		Name:       cust.Name,
		Email:      cust.Email,
		Age:        cust.Age,
	}
}

func notFoundOnGet(customerID int64) error {
	return apperrors.NewNotFoundError(resourceName, customerID, fmt.Sprintf("customer with id [%d]", customerID))
}

func notFoundOnDelete(customerID int64) error {
	return apperrors.NewNotFoundError(resourceName, customerID, fmt.Sprintf("customer with id [%d] not found", customerID))
}

func (s *customerService) ListCustomers(ctx context.Context) ([]*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to list all customers")

	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully retrieved customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to get customer by ID")

	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Customer not found by repository")
			return nil, notFoundOnGet(customerID)
		}
		logCtx.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	logCtx.InfoContext(ctx, "Successfully retrieved customer")
	return cust, nil
}

func (s *customerService) RegisterCustomer(ctx context.Context, req RegistrationRequest) error {
	logCtx := s.logger.With(slog.String("email", req.Email))
	logCtx.InfoContext(ctx, "Attempting to register new customer")

	taken, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		logCtx.ErrorContext(ctx, "Repository error checking email", slog.Any("error", err))
		monitoring.RecordCustomerOperation(opRegister, outcomeError)
		return fmt.Errorf("failed to check email availability: %w", err)
	}
	if taken {
		logCtx.WarnContext(ctx, "Business rule failed: email already taken")
		monitoring.RecordCustomerOperation(opRegister, outcomeConflict)
		return ErrEmailTaken
	}

	cust := NewCustomer(req)
	if err := s.repo.Insert(ctx, cust); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			logCtx.WarnContext(ctx, "Store rejected duplicate email on insert")
			monitoring.RecordCustomerOperation(opRegister, outcomeConflict)
			return ErrEmailTaken
		}
		logCtx.ErrorContext(ctx, "Repository failed to insert new customer", slog.Any("error", err))
		monitoring.RecordCustomerOperation(opRegister, outcomeError)
		return fmt.Errorf("failed to save new customer: %w", err)
	}
	monitoring.RecordCustomerOperation(opRegister, outcomeSuccess)

	logCtx = logCtx.With(slog.Int64("customerID", cust.ID))
	logCtx.InfoContext(ctx, "Successfully registered customer, publishing registration event")
	registered := event.CustomerRegisteredEvent{
		Timestamp: time.Now(),
		Payload:   newCustomerEventPayload(cust),
	}
	if pubErr := s.pub.PublishCustomerRegistered(ctx, registered); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer registered, but FAILED to publish registration event", slog.Any("error", pubErr))
	}
	return nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, customerID int64) error {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to delete customer")

	exists, err := s.repo.ExistsByID(ctx, customerID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Repository error checking customer existence", slog.Any("error", err))
		monitoring.RecordCustomerOperation(opDelete, outcomeError)
		return fmt.Errorf("failed to check customer %d: %w", customerID, err)
	}
	if !exists {
		logCtx.WarnContext(ctx, "Customer not found, nothing to delete")
		monitoring.RecordCustomerOperation(opDelete, outcomeNotFound)
		return notFoundOnDelete(customerID)
	}

	if err := s.repo.DeleteByID(ctx, customerID); err != nil {
		logCtx.ErrorContext(ctx, "Repository failed to delete customer", slog.Any("error", err))
		monitoring.RecordCustomerOperation(opDelete, outcomeError)
		return fmt.Errorf("failed to delete customer %d: %w", customerID, err)
	}
	monitoring.RecordCustomerOperation(opDelete, outcomeSuccess)

	logCtx.InfoContext(ctx, "Successfully deleted customer, publishing deletion event")
	deleted := event.CustomerDeletedEvent{
		Timestamp:  time.Now(),
		CustomerID: customerID,
	}
	if pubErr := s.pub.PublishCustomerDeleted(ctx, deleted); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer deleted, but FAILED to publish deletion event", slog.Any("error", pubErr))
	}
	return nil
}

// UpdateCustomer merges the supplied fields into the stored customer. The stored
// snapshot is never mutated; a new value is written only once every check has passed.
func (s *customerService) UpdateCustomer(ctx context.Context, customerID int64, req UpdateRequest) error {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to update customer")

	current, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		outcome := outcomeError
		if errors.Is(err, apperrors.ErrNotFound) {
			outcome = outcomeNotFound
		}
		monitoring.RecordCustomerOperation(opUpdate, outcome)
		return err
	}

	changes := diff(*current, req)

	if changes.email != nil {
		taken, err := s.repo.ExistsByEmail(ctx, *changes.email)
		if err != nil {
			logCtx.ErrorContext(ctx, "Repository error checking email", slog.Any("error", err))
			monitoring.RecordCustomerOperation(opUpdate, outcomeError)
			return fmt.Errorf("failed to check email availability: %w", err)
		}
		if taken {
			logCtx.WarnContext(ctx, "Business rule failed: email already taken", slog.String("email", *changes.email))
			monitoring.RecordCustomerOperation(opUpdate, outcomeConflict)
			return ErrEmailTaken
		}
	}

	if !changes.any() {
		logCtx.WarnContext(ctx, "Validation failed: no data changes found")
		monitoring.RecordCustomerOperation(opUpdate, outcomeNoChange)
		return ErrNoChanges
	}

	updated := changes.apply(*current)
	if err := s.repo.Update(ctx, &updated); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAlreadyExists):
			logCtx.WarnContext(ctx, "Store rejected duplicate email on update")
			monitoring.RecordCustomerOperation(opUpdate, outcomeConflict)
			return ErrEmailTaken
		case errors.Is(err, apperrors.ErrNotFound):
			logCtx.WarnContext(ctx, "Customer disappeared before update completed")
			monitoring.RecordCustomerOperation(opUpdate, outcomeNotFound)
			return notFoundOnGet(customerID)
		}
		logCtx.ErrorContext(ctx, "Repository failed to save updated customer", slog.Any("error", err))
		monitoring.RecordCustomerOperation(opUpdate, outcomeError)
		return fmt.Errorf("failed to save updated customer %d: %w", customerID, err)
	}
	monitoring.RecordCustomerOperation(opUpdate, outcomeSuccess)

	logCtx.InfoContext(ctx, "Successfully updated customer, publishing update event")
	updatedEvent := event.CustomerUpdatedEvent{
		Timestamp: time.Now(),
		Payload:   newCustomerEventPayload(&updated),
	}
	if pubErr := s.pub.PublishCustomerUpdated(ctx, updatedEvent); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer updated, but FAILED to publish update event", slog.Any("error", pubErr))
	}
	return nil
}
