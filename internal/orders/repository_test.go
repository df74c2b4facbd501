package orders

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func TestOrderRepository_InPlacementTx(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	lineColumns := []string{"ci.id", "ci.quantity", "p.id", "p.name", "p.description", "p.image", "p.price", "p.category"}

	t.Run("commits lock, snapshot and clear together", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE customer_id = $1 FOR UPDATE")).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
		mock.ExpectQuery("FROM cart_items ci").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(lineColumns).
				AddRow(int64(1), 2, int64(10), "Phone", "", "", int64(100), "iphone").
				AddRow(int64(2), 1, int64(11), "Cable", "", "", int64(50), "others"))
		mock.ExpectQuery("INSERT INTO orders").
			WithArgs(int64(1), sqlmock.AnyArg(), now, domain.ShippingPending).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(99)))
		mock.ExpectExec("INSERT INTO order_items").
			WithArgs(int64(99), int64(10), 2).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO order_items").
			WithArgs(int64(99), int64(11), 1).
			WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectExec("DELETE FROM cart_items WHERE cart_id = \\$1").
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		repo := NewOrderRepository(db)
		var order *domain.Order
		err = repo.InPlacementTx(ctx, func(tx PlacementTx) error {
			cartID, err := tx.LockCart(ctx, 1)
			if err != nil {
				return err
			}
			lines, err := tx.CartLines(ctx, cartID)
			if err != nil {
				return err
			}
			order = domain.NewOrderFromLines(1, lines, now)
			if err := tx.InsertOrder(ctx, order); err != nil {
				return err
			}
			return tx.ClearCart(ctx, cartID)
		})
		require.NoError(t, err)
		assert.Equal(t, int64(99), order.ID)
		assert.Equal(t, "250", order.TotalAmount.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when an item insert fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO orders").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
		mock.ExpectExec("INSERT INTO order_items").
			WillReturnError(errors.New("foreign key violation"))
		mock.ExpectRollback()

		repo := NewOrderRepository(db)
		err = repo.InPlacementTx(ctx, func(tx PlacementTx) error {
			return tx.InsertOrder(ctx, &domain.Order{
				CustomerID: 1,
				Items:      []domain.OrderItem{{Product: domain.Product{ID: 3}, Quantity: 1}},
				CreatedAt:  now,
			})
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insert order item for product 3")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing cart", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		repo := NewOrderRepository(db)
		err = repo.InPlacementTx(ctx, func(tx PlacementTx) error {
			_, err := tx.LockCart(ctx, 4)
			return err
		})
		assert.ErrorIs(t, err, domain.ErrCartNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_Get(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("loads order with items", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery("FROM orders").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "total_amount", "created_at", "shipping_status"}).
				AddRow(int64(3), int64(1), "250.00", created, "shipped"))
		mock.ExpectQuery("FROM order_items oi").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"oi.quantity", "p.id", "p.name", "p.description", "p.image", "p.price", "p.category"}).
				AddRow(2, int64(10), "Phone", "", "", int64(100), "iphone"))

		order, err := NewOrderRepository(db).Get(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, domain.ShippingShipped, order.ShippingStatus)
		assert.Equal(t, "250", order.TotalAmount.String())
		require.Len(t, order.Items, 1)
		assert.Equal(t, "Phone", order.Items[0].Product.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery("FROM orders").
			WithArgs(int64(8)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "total_amount", "created_at", "shipping_status"}))

		_, err = NewOrderRepository(db).Get(ctx, 8)
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})
}

func TestOrderRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("DELETE FROM orders").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM orders").WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewOrderRepository(db)
	assert.NoError(t, repo.Delete(context.Background(), 1))
	assert.ErrorIs(t, repo.Delete(context.Background(), 2), domain.ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
