package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"customer-service/internal/domain/customer"
	"customer-service/internal/infrastructure/monitoring"
	"customer-service/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var errMsgFormat = "%w: %w"

const uniqueViolationCode = "23505"

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func queryStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (r *CustomerRepository) FindAll(ctx context.Context) ([]*customer.Customer, error) {
	r.logger.DebugContext(ctx, "Attempting to find all customers")

	query := `SELECT id, name, email, age FROM customers ORDER BY id`

	startTime := time.Now()
	rows, err := r.db.Query(ctx, query)
	monitoring.RecordDBQuery("FindAllCustomers", queryStatus(err), time.Since(startTime))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		var cust customer.Customer
		if err := rows.Scan(&cust.ID, &cust.Name, &cust.Email, &cust.Age); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan customer: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, &cust)
	}

	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error during customer rows iteration", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	r.logger.DebugContext(ctx, "Customers retrieved", slog.Int("count", len(customers)))
	return customers, nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	r.logger.DebugContext(ctx, "Attempting to find customer by ID", slog.Int64("customerID", customerID))

	query := `SELECT id, name, email, age FROM customers WHERE id = $1`

	var cust customer.Customer
	startTime := time.Now()
	err := r.db.QueryRow(ctx, query, customerID).Scan(&cust.ID, &cust.Name, &cust.Email, &cust.Age)
	monitoring.RecordDBQuery("FindCustomerByID", queryStatus(err), time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer not found", slog.Int64("customerID", customerID))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to find customer by ID", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return &cust, nil
}

func (r *CustomerRepository) Insert(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.logger.InfoContext(ctx, "Attempting to insert new customer", slog.String("email", cust.Email))

	query := `
        INSERT INTO customers (name, email, age)
        VALUES ($1, $2, $3)
        RETURNING id`

	startTime := time.Now()
	err := r.db.QueryRow(ctx, query, cust.Name, cust.Email, cust.Age).Scan(&cust.ID)
	monitoring.RecordDBQuery("InsertCustomer", queryStatus(err), time.Since(startTime))

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to insert customer due to unique constraint violation", slog.String("email", cust.Email))
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.logger.InfoContext(ctx, "Attempting to update customer", slog.Int64("customerID", cust.ID))

	query := `
        UPDATE customers
        SET name = $1,
            email = $2,
            age = $3
        WHERE id = $4`

	startTime := time.Now()
	cmdTag, err := r.db.Exec(ctx, query, cust.Name, cust.Email, cust.Age, cust.ID)
	monitoring.RecordDBQuery("UpdateCustomer", queryStatus(err), time.Since(startTime))

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to update customer due to unique constraint violation", slog.Int64("customerID", cust.ID))
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to update customer", slog.Int64("customerID", cust.ID), slog.Any("error", err))
		return fmt.Errorf("%w: failed to update customer: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Customer not found for update", slog.Int64("customerID", cust.ID))
		return apperrors.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Customer updated successfully", slog.Int64("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM customers WHERE email = $1)`

	var exists bool
	startTime := time.Now()
	err := r.db.QueryRow(ctx, query, email).Scan(&exists)
	monitoring.RecordDBQuery("ExistsCustomerByEmail", queryStatus(err), time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check customer email", slog.Any("error", err))
		return false, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return exists, nil
}

func (r *CustomerRepository) ExistsByID(ctx context.Context, customerID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`

	var exists bool
	startTime := time.Now()
	err := r.db.QueryRow(ctx, query, customerID).Scan(&exists)
	monitoring.RecordDBQuery("ExistsCustomerByID", queryStatus(err), time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check customer id", slog.Int64("customerID", customerID), slog.Any("error", err))
		return false, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return exists, nil
}

func (r *CustomerRepository) DeleteByID(ctx context.Context, customerID int64) error {
	r.logger.InfoContext(ctx, "Attempting to delete customer", slog.Int64("customerID", customerID))

	query := `DELETE FROM customers WHERE id = $1`

	startTime := time.Now()
	cmdTag, err := r.db.Exec(ctx, query, customerID)
	monitoring.RecordDBQuery("DeleteCustomer", queryStatus(err), time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete customer", slog.Int64("customerID", customerID), slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete customer: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Customer not found for delete", slog.Int64("customerID", customerID))
		return apperrors.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Customer deleted successfully", slog.Int64("customerID", customerID))
	return nil
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolationCode {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}

	contextLogger.Error("Generic database error", "error", err)
	return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
}
