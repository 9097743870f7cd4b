package restaurant

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/money"
)

func newMockRepository(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	database, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewRepository(database), mock
}

func TestFindRestaurant(t *testing.T) {
	repo, mock := newMockRepository(t)

	restaurantID := uuid.New()
	productID := uuid.New()
	otherProductID := uuid.New()
	mock.ExpectQuery("SELECT r.id, r.name, r.active, p.id, p.name, p.price, p.available FROM restaurants r").
		WithArgs(restaurantID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "active", "product_id", "product_name", "price", "available"}).
			AddRow(restaurantID, "Trattoria", true, productID, "Margherita", "50.00", true).
			AddRow(restaurantID, "Trattoria", true, otherProductID, "Diavola", "55.00", false))

	r, err := repo.FindRestaurant(context.Background(), restaurantID, []uuid.UUID{productID, otherProductID})
	require.NoError(t, err)

	assert.Equal(t, "Trattoria", r.Name)
	assert.True(t, r.Active)
	require.Len(t, r.Products, 2)
	assert.True(t, r.Products[productID].Available)
	assert.False(t, r.Products[otherProductID].Available)
	assert.True(t, r.Products[otherProductID].Price.Equal(money.MustFromString("55.00")))
}

func TestFindRestaurant_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	restaurantID := uuid.New()
	mock.ExpectQuery("SELECT r.id, r.name, r.active, p.id, p.name, p.price, p.available FROM restaurants r").
		WithArgs(restaurantID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "active", "product_id", "product_name", "price", "available"}))

	_, err := repo.FindRestaurant(context.Background(), restaurantID, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, ErrRestaurantNotFound)
}

func TestSaveOrderApproval(t *testing.T) {
	repo, mock := newMockRepository(t)

	approval := &OrderApproval{ID: uuid.New(), OrderID: uuid.New(), RestaurantID: uuid.New(), Status: ApprovalStatusApproved}
	mock.ExpectExec("INSERT INTO order_approvals").
		WithArgs(approval.ID, approval.OrderID, approval.RestaurantID, approval.Status).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SaveOrderApproval(context.Background(), approval))
	assert.NoError(t, mock.ExpectationsWereMet())
}
