package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/storefront/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestStockRepository_Reserve_Success(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStockRepository(db)
	productID := uuid.New()

	mock.ExpectQuery("UPDATE products").
		WithArgs(productID, 3).
		WillReturnRows(sqlmock.NewRows([]string{"available_quantity"}).AddRow(7))

	remaining, err := repo.Reserve(context.Background(), productID, 3)

	assert.NoError(t, err)
	assert.Equal(t, 7, remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockRepository_Reserve_InsufficientStock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStockRepository(db)
	productID := uuid.New()

	mock.ExpectQuery("UPDATE products").
		WithArgs(productID, 5).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT name, available_quantity FROM products").
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"name", "available_quantity"}).AddRow("Lamp", 2))

	_, err := repo.Reserve(context.Background(), productID, 5)

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "Lamp", stockErr.ProductName)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockRepository_Reserve_UnknownProduct(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStockRepository(db)
	productID := uuid.New()

	mock.ExpectQuery("UPDATE products").
		WithArgs(productID, 1).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT name, available_quantity FROM products").
		WithArgs(productID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Reserve(context.Background(), productID, 1)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockRepository_Release(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStockRepository(db)
	productID := uuid.New()

	mock.ExpectQuery("UPDATE products").
		WithArgs(productID, 2).
		WillReturnRows(sqlmock.NewRows([]string{"available_quantity"}).AddRow(12))

	remaining, err := repo.Release(context.Background(), productID, 2)

	assert.NoError(t, err)
	assert.Equal(t, 12, remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockRepository_Peek_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStockRepository(db)
	productID := uuid.New()

	mock.ExpectQuery("SELECT available_quantity FROM products").
		WithArgs(productID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Peek(context.Background(), productID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
