package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/storefront/internal/domain"
)

func TestProductRepository_UpdateRating(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	productID := uuid.New()

	mock.ExpectExec("UPDATE products").
		WithArgs(4.5, 2, sqlmock.AnyArg(), productID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateRating(context.Background(), productID, 4.5, 2)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_UpdateRating_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	productID := uuid.New()

	mock.ExpectExec("UPDATE products").
		WithArgs(0.0, 0, sqlmock.AnyArg(), productID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateRating(context.Background(), productID, 0, 0)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductRepository_Update_VersionConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	product := &domain.Product{ID: uuid.New(), Name: "Desk", Price: decimal.NewFromInt(120), Version: 3}

	mock.ExpectQuery("UPDATE products").
		WillReturnError(sql.ErrNoRows)

	err := repo.Update(context.Background(), product)

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestReviewRepository_Create_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)
	review := &domain.Review{
		ProductID: uuid.New(),
		UserID:    uuid.New(),
		Rating:    4,
		Comment:   "solid",
		Status:    domain.ReviewStatusPending,
	}

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(review.ProductID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("INSERT INTO reviews").
		WillReturnError(&pq.Error{Code: uniqueViolation})

	err := repo.Create(context.Background(), review)

	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create_ProductMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)
	review := &domain.Review{ProductID: uuid.New(), UserID: uuid.New(), Rating: 5, Comment: "great"}

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(review.ProductID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.Create(context.Background(), review)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Ratings_ApprovedOnly(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)
	productID := uuid.New()

	mock.ExpectQuery("SELECT rating FROM reviews").
		WithArgs(productID, domain.ReviewStatusApproved).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}).AddRow(5).AddRow(4))

	ratings, err := repo.Ratings(context.Background(), productID, true)

	assert.NoError(t, err)
	assert.Equal(t, []int{5, 4}, ratings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_List_FilterPlaceholders(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)
	productID := uuid.New()

	mock.ExpectQuery(`product_id = \$1 AND status = \$2.*LIMIT \$3 OFFSET \$4`).
		WithArgs(productID, domain.ReviewStatusApproved, 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	reviews, err := repo.List(context.Background(), domain.ReviewFilter{
		ProductID: &productID,
		Status:    domain.ReviewStatusApproved,
		Limit:     10,
	})

	assert.NoError(t, err)
	assert.Empty(t, reviews)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_AdjustScore(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	userID := uuid.New()

	mock.ExpectQuery("UPDATE users").
		WithArgs(-5, userID).
		WillReturnRows(sqlmock.NewRows([]string{"score"}).AddRow(17))

	score, err := repo.AdjustScore(context.Background(), userID, -5)

	assert.NoError(t, err)
	assert.Equal(t, 17, score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: uniqueViolation})

	err := repo.Create(context.Background(), &domain.User{Name: "Ana", Email: "ana@example.com"})

	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestOrderRepository_UpdateStatus_Conflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)
	order := &domain.Order{ID: uuid.New(), Status: domain.OrderStatusCancelled}

	mock.ExpectQuery("UPDATE orders").
		WithArgs(order.Status, false, nil, sqlmock.AnyArg(), order.ID, domain.OrderStatusPending).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(order.ID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.UpdateStatus(context.Background(), order, domain.OrderStatusPending)

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_DecodesDocuments(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)
	orderID := uuid.New()
	productID := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "order_number", "user_id", "items", "total_price", "tax", "shipping_fee", "discount", "grand_total",
		"payment_method", "payment_result", "is_paid", "paid_at", "status", "is_delivered", "delivered_at",
		"shipping_address", "notes", "created_at", "updated_at",
	}).AddRow(
		orderID.String(), "ORD-2026-03-09-abcdef12", uuid.NewString(),
		[]byte(`[{"product_id":"`+productID.String()+`","name":"Lamp","quantity":2,"price":"10"}]`),
		"20", "0", "0", "0", "20",
		"cod", nil, false, nil, "pending", false, nil,
		[]byte(`{"full_name":"Ana","city":"Lisbon"}`), "", now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id").
		WithArgs(orderID).
		WillReturnRows(rows)

	order, err := repo.GetByID(context.Background(), orderID)

	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, productID, order.Items[0].ProductID)
	assert.Equal(t, "Lamp", order.Items[0].Name)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "Lisbon", order.ShippingAddress.City)
	assert.True(t, decimal.NewFromInt(20).Equal(order.GrandTotal))
	assert.Nil(t, order.PaymentResult)
}

func TestWishlistRepository_Add_AlreadyPresent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWishlistRepository(db)
	userID, productID := uuid.New(), uuid.New()

	mock.ExpectExec("INSERT INTO wishlists").
		WithArgs(userID, productID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Add(context.Background(), userID, productID)

	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestWishlistRepository_ProductIDs_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWishlistRepository(db)
	userID := uuid.New()

	mock.ExpectQuery("SELECT product_ids FROM wishlists").
		WithArgs(userID).
		WillReturnError(sql.ErrNoRows)

	ids, err := repo.ProductIDs(context.Background(), userID)

	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCartRepository_DeleteByUserID_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCartRepository(db)
	userID := uuid.New()

	mock.ExpectExec("DELETE FROM carts").
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteByUserID(context.Background(), userID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
