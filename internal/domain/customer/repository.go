package customer

import (
	"context"

	"customer-service/internal/pkg/apperrors"
)

const resourceName = "customer"

var (
	ErrEmailTaken = apperrors.NewConflictError("Email already taken")

	ErrNoChanges = apperrors.NewValidationError("", "No data changes found")
)

// CustomerRepository is the only view of the store the service relies on.
// Implementations report a missing id from FindByID with apperrors.ErrNotFound.
type CustomerRepository interface {
	FindAll(ctx context.Context) ([]*Customer, error)

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	// Insert persists a new customer and writes the store-assigned ID back onto it.
	Insert(ctx context.Context, customer *Customer) error

	Update(ctx context.Context, customer *Customer) error

	ExistsByEmail(ctx context.Context, email string) (bool, error)

	ExistsByID(ctx context.Context, customerID int64) (bool, error)

	DeleteByID(ctx context.Context, customerID int64) error
}
