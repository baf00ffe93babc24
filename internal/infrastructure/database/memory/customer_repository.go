package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"customer-service/internal/domain/customer"
	"customer-service/internal/pkg/apperrors"
)

// CustomerRepository keeps customers in process memory. Copies are stored
// and returned so callers never share state with the store.
type CustomerRepository struct {
	mutex     sync.RWMutex
	customers map[int64]customer.Customer
	emails    map[string]int64
	nextID    int64
	logger    *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(logger *slog.Logger) *CustomerRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CustomerRepository{
		customers: make(map[int64]customer.Customer),
		emails:    make(map[string]int64),
		logger:    logger.With("component", "MemoryCustomerRepository"),
	}
}

func (r *CustomerRepository) FindAll(ctx context.Context) ([]*customer.Customer, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	customers := make([]*customer.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		c := c
		customers = append(customers, &c)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].ID < customers[j].ID })

	return customers, nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	c, ok := r.customers[customerID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &c, nil
}

func (r *CustomerRepository) Insert(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, taken := r.emails[cust.Email]; taken {
		return fmt.Errorf("%w: email %s", apperrors.ErrAlreadyExists, cust.Email)
	}

	r.nextID++
	cust.ID = r.nextID
	r.customers[cust.ID] = *cust
	r.emails[cust.Email] = cust.ID

	r.logger.DebugContext(ctx, "Customer stored", slog.Int64("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	current, ok := r.customers[cust.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if owner, taken := r.emails[cust.Email]; taken && owner != cust.ID {
		return fmt.Errorf("%w: email %s", apperrors.ErrAlreadyExists, cust.Email)
	}

	delete(r.emails, current.Email)
	r.customers[cust.ID] = *cust
	r.emails[cust.Email] = cust.ID
	return nil
}

func (r *CustomerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, ok := r.emails[email]
	return ok, nil
}

func (r *CustomerRepository) ExistsByID(ctx context.Context, customerID int64) (bool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, ok := r.customers[customerID]
	return ok, nil
}

func (r *CustomerRepository) DeleteByID(ctx context.Context, customerID int64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	c, ok := r.customers[customerID]
	if !ok {
		return apperrors.ErrNotFound
	}
	delete(r.customers, customerID)
	delete(r.emails, c.Email)
	return nil
}
