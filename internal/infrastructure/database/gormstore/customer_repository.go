package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"customer-service/internal/domain/customer"
	"customer-service/internal/infrastructure/monitoring"
	"customer-service/internal/pkg/apperrors"

	"gorm.io/gorm"
)

// CustomerRepository implements customer.CustomerRepository using GORM.
// The *gorm.DB must be opened with TranslateError so unique violations
// surface as gorm.ErrDuplicatedKey.
type CustomerRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db *gorm.DB, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("gorm DB cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "GormCustomerRepository"),
	}
}

func record(queryName string, startTime time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery(queryName, status, time.Since(startTime))
}

func (r *CustomerRepository) wrap(ctx context.Context, op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		r.logger.WarnContext(ctx, "Unique constraint violation", slog.String("operation", op))
		return fmt.Errorf("%w: %w", apperrors.ErrAlreadyExists, err)
	}
	r.logger.ErrorContext(ctx, "Database operation failed", slog.String("operation", op), slog.Any("error", err))
	return fmt.Errorf("%w: failed to %s: %w", apperrors.ErrDatabase, op, err)
}

func (r *CustomerRepository) FindAll(ctx context.Context) ([]*customer.Customer, error) {
	var models []customerModel
	startTime := time.Now()
	err := r.db.WithContext(ctx).Order("id").Find(&models).Error
	record("FindAllCustomers", startTime, err)
	if err != nil {
		return nil, r.wrap(ctx, "list customers", err)
	}

	customers := make([]*customer.Customer, 0, len(models))
	for _, m := range models {
		customers = append(customers, m.toDomain())
	}
	return customers, nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	var model customerModel
	startTime := time.Now()
	err := r.db.WithContext(ctx).First(&model, "id = ?", customerID).Error
	record("FindCustomerByID", startTime, err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, r.wrap(ctx, "find customer", err)
	}
	return model.toDomain(), nil
}

func (r *CustomerRepository) Insert(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	model := fromDomain(cust)
	model.ID = 0
	startTime := time.Now()
	err := r.db.WithContext(ctx).Create(&model).Error
	record("InsertCustomer", startTime, err)
	if err != nil {
		return r.wrap(ctx, "insert customer", err)
	}

	cust.ID = model.ID
	r.logger.InfoContext(ctx, "Customer inserted", slog.Int64("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	startTime := time.Now()
	result := r.db.WithContext(ctx).
		Model(&customerModel{}).
		Where("id = ?", cust.ID).
		Updates(map[string]any{
			"name":  cust.Name,
			"email": cust.Email,
			"age":   cust.Age,
		})
	record("UpdateCustomer", startTime, result.Error)
	if result.Error != nil {
		return r.wrap(ctx, "update customer", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *CustomerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	startTime := time.Now()
	err := r.db.WithContext(ctx).Model(&customerModel{}).Where("email = ?", email).Count(&count).Error
	record("ExistsCustomerByEmail", startTime, err)
	if err != nil {
		return false, r.wrap(ctx, "check customer email", err)
	}
	return count > 0, nil
}

func (r *CustomerRepository) ExistsByID(ctx context.Context, customerID int64) (bool, error) {
	var count int64
	startTime := time.Now()
	err := r.db.WithContext(ctx).Model(&customerModel{}).Where("id = ?", customerID).Count(&count).Error
	record("ExistsCustomerByID", startTime, err)
	if err != nil {
		return false, r.wrap(ctx, "check customer id", err)
	}
	return count > 0, nil
}

func (r *CustomerRepository) DeleteByID(ctx context.Context, customerID int64) error {
	startTime := time.Now()
	result := r.db.WithContext(ctx).Where("id = ?", customerID).Delete(&customerModel{})
	record("DeleteCustomer", startTime, result.Error)
	if result.Error != nil {
		return r.wrap(ctx, "delete customer", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	r.logger.InfoContext(ctx, "Customer deleted", slog.Int64("customerID", customerID))
	return nil
}
