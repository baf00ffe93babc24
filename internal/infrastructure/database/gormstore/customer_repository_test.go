package gormstore

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"customer-service/internal/config"
	"customer-service/internal/domain/customer"
	"customer-service/internal/pkg/apperrors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// newSQLiteRepository opens a fresh in-memory database per test.
func newSQLiteRepository(t *testing.T) *CustomerRepository {
	t.Helper()
	db, err := NewDatabase(config.DatabaseConfig{
		URL:        ":memory:",
		Dialect:    config.DialectSQLite,
		InitSchema: true,
	}, testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	return NewCustomerRepository(db, testLogger)
}

// newMockRepository wires the postgres dialector to go-sqlmock.
func newMockRepository(t *testing.T) (*CustomerRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return NewCustomerRepository(gormDB, testLogger), mock, mockDB
}

func TestNewDatabase_UnsupportedDialect(t *testing.T) {
	_, err := NewDatabase(config.DatabaseConfig{URL: "x", Dialect: "oracle"}, testLogger)
	assert.EqualError(t, err, `unsupported database dialect "oracle"`)
}

func TestGormCustomerRepository_SQLite(t *testing.T) {
	ctx := context.Background()

	t.Run("insert assigns sequential ids", func(t *testing.T) {
		repo := newSQLiteRepository(t)

		first := &customer.Customer{Name: "Alex", Email: "alex@gmail.com", Age: 19}
		second := &customer.Customer{Name: "Jamila", Email: "jamila@gmail.com", Age: 19}
		require.NoError(t, repo.Insert(ctx, first))
		require.NoError(t, repo.Insert(ctx, second))

		assert.Equal(t, int64(1), first.ID)
		assert.Equal(t, int64(2), second.ID)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []*customer.Customer{first, second}, all)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		repo := newSQLiteRepository(t)

		require.NoError(t, repo.Insert(ctx, &customer.Customer{Name: "Alex", Email: "alex@gmail.com", Age: 19}))
		err := repo.Insert(ctx, &customer.Customer{Name: "Other", Email: "alex@gmail.com", Age: 30})
		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("find update and delete", func(t *testing.T) {
		repo := newSQLiteRepository(t)

		cust := &customer.Customer{Name: "Alex", Email: "alex@gmail.com", Age: 19}
		require.NoError(t, repo.Insert(ctx, cust))

		found, err := repo.FindByID(ctx, cust.ID)
		require.NoError(t, err)
		assert.Equal(t, cust, found)

		cust.Name = "Alexander"
		cust.Age = 20
		require.NoError(t, repo.Update(ctx, cust))

		found, err = repo.FindByID(ctx, cust.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alexander", found.Name)
		assert.Equal(t, 20, found.Age)

		exists, err := repo.ExistsByID(ctx, cust.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByEmail(ctx, "alex@gmail.com")
		require.NoError(t, err)
		assert.True(t, exists)

		require.NoError(t, repo.DeleteByID(ctx, cust.ID))

		_, err = repo.FindByID(ctx, cust.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteByID(ctx, cust.ID), apperrors.ErrNotFound)

		exists, err = repo.ExistsByEmail(ctx, "alex@gmail.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("update to an email held by another customer", func(t *testing.T) {
		repo := newSQLiteRepository(t)

		alex := &customer.Customer{Name: "Alex", Email: "alex@gmail.com", Age: 19}
		jamila := &customer.Customer{Name: "Jamila", Email: "jamila@gmail.com", Age: 19}
		require.NoError(t, repo.Insert(ctx, alex))
		require.NoError(t, repo.Insert(ctx, jamila))

		jamila.Email = "alex@gmail.com"
		assert.ErrorIs(t, repo.Update(ctx, jamila), apperrors.ErrAlreadyExists)

		stored, err := repo.FindByID(ctx, jamila.ID)
		require.NoError(t, err)
		assert.Equal(t, "jamila@gmail.com", stored.Email)
	})

	t.Run("update of a missing customer", func(t *testing.T) {
		repo := newSQLiteRepository(t)

		err := repo.Update(ctx, &customer.Customer{ID: 7, Name: "Ghost", Email: "ghost@gmail.com", Age: 1})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("empty store lists nothing", func(t *testing.T) {
		repo := newSQLiteRepository(t)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
	})
}

func TestGormCustomerRepository_Postgres(t *testing.T) {
	ctx := context.Background()

	t.Run("insert returns generated id", func(t *testing.T) {
		repo, mock, mockDB := newMockRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`INSERT INTO "customers" .* RETURNING "id"`).
			WithArgs("Alex", "alex@gmail.com", 19).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

		cust := &customer.Customer{Name: "Alex", Email: "alex@gmail.com", Age: 19}
		require.NoError(t, repo.Insert(ctx, cust))
		assert.Equal(t, int64(11), cust.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation is translated", func(t *testing.T) {
		repo, mock, mockDB := newMockRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`INSERT INTO "customers" .*`).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "customers_email_unique"})

		err := repo.Insert(ctx, &customer.Customer{Name: "Alex", Email: "alex@gmail.com", Age: 19})
		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("find by id not found", func(t *testing.T) {
		repo, mock, mockDB := newMockRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "age"}))

		cust, err := repo.FindByID(ctx, 3)
		assert.Nil(t, cust)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list failure is a database error", func(t *testing.T) {
		repo, mock, mockDB := newMockRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "customers" ORDER BY id`).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.FindAll(ctx)
		assert.ErrorIs(t, err, apperrors.ErrDatabase)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete of missing row", func(t *testing.T) {
		repo, mock, mockDB := newMockRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`DELETE FROM "customers" WHERE id = \$1`).
			WithArgs(int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.DeleteByID(ctx, 4), apperrors.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
