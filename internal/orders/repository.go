package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// InPlacementTx runs fn inside one transaction. fn's first call is expected to
// be LockCart, which holds the cart row until commit or rollback.
func (r *OrderRepository) InPlacementTx(ctx context.Context, fn func(tx PlacementTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&placementTx{tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

type placementTx struct {
	tx *sql.Tx
}

func (p *placementTx) LockCart(ctx context.Context, customerID int64) (int64, error) {
	var cartID int64
	err := p.tx.QueryRowContext(ctx, `
		SELECT id FROM carts WHERE customer_id = $1 FOR UPDATE
	`, customerID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrCartNotFound
		}
		return 0, fmt.Errorf("lock cart: %w", err)
	}
	return cartID, nil
}

func (p *placementTx) CartLines(ctx context.Context, cartID int64) ([]domain.CartLine, error) {
	rows, err := p.tx.QueryContext(ctx, `
		SELECT ci.id, ci.quantity, p.id, p.name, p.description, p.image, p.price, p.category
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lines []domain.CartLine
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.ItemID, &l.Quantity,
			&l.Product.ID, &l.Product.Name, &l.Product.Description,
			&l.Product.Image, &l.Product.Price, &l.Product.Category); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

func (p *placementTx) InsertOrder(ctx context.Context, order *domain.Order) error {
	err := p.tx.QueryRowContext(ctx, `
		INSERT INTO orders (customer_id, total_amount, created_at, shipping_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, order.CustomerID, order.TotalAmount, order.CreatedAt, order.ShippingStatus).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = p.tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity)
			VALUES ($1, $2, $3)
		`, order.ID, item.Product.ID, item.Quantity)
		if err != nil {
			return fmt.Errorf("insert order item for product %d: %w", item.Product.ID, err)
		}
	}

	return nil
}

func (p *placementTx) ClearCart(ctx context.Context, cartID int64) error {
	if _, err := p.tx.ExecContext(ctx, `
		DELETE FROM cart_items WHERE cart_id = $1
	`, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id int64) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, total_amount, created_at, shipping_status
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.CustomerID, &order.TotalAmount, &order.CreatedAt, &order.ShippingStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.quantity, p.id, p.name, p.description, p.image, p.price, p.category
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	order.Items = []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.Quantity, &item.Product.ID, &item.Product.Name, &item.Product.Description,
			&item.Product.Image, &item.Product.Price, &item.Product.Category); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// ListByCustomer loads the customer's orders newest first and their items in a
// second query.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, total_amount, created_at, shipping_status
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[int64]*domain.Order)
	var orderIDs []int64

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.CustomerID, &order.TotalAmount, &order.CreatedAt, &order.ShippingStatus); err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.quantity, p.id, p.name, p.description, p.image, p.price, p.category
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID int64
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.Quantity, &item.Product.ID, &item.Product.Name, &item.Product.Description,
			&item.Product.Image, &item.Product.Price, &item.Product.Category); err != nil {
			return nil, err
		}
		if order, ok := orderMap[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// Delete removes the order; order_items go with it through ON DELETE CASCADE.
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM orders WHERE id = $1
	`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

func (r *OrderRepository) SetShippingStatus(ctx context.Context, id int64, status domain.ShippingStatus) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET shipping_status = $1
		WHERE id = $2
	`, status, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, domain.ErrOrderNotFound
	}

	return r.Get(ctx, id)
}
