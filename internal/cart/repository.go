package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) execTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

// lockCart takes the row lock that serializes every cart mutation with order
// placement for the same customer.
func lockCart(ctx context.Context, tx *sql.Tx, customerID int64) (int64, error) {
	var cartID int64
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM carts WHERE customer_id = $1 FOR UPDATE
	`, customerID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrCartNotFound
		}
		return 0, err
	}
	return cartID, nil
}

// AddItem creates the cart on first use and increments the product's quantity,
// starting at 1. It returns the resulting quantity.
func (r *CartRepository) AddItem(ctx context.Context, customerID, productID int64) (int, error) {
	var quantity int
	err := r.execTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO carts (customer_id) VALUES ($1)
			ON CONFLICT (customer_id) DO NOTHING
		`, customerID); err != nil {
			return fmt.Errorf("create cart: %w", err)
		}

		cartID, err := lockCart(ctx, tx, customerID)
		if err != nil {
			return err
		}

		return tx.QueryRowContext(ctx, `
			INSERT INTO cart_items (cart_id, product_id, quantity)
			VALUES ($1, $2, 1)
			ON CONFLICT (cart_id, product_id)
			DO UPDATE SET quantity = cart_items.quantity + 1
			RETURNING quantity
		`, cartID, productID).Scan(&quantity)
	})
	if err != nil {
		return 0, err
	}
	return quantity, nil
}

func (r *CartRepository) Lines(ctx context.Context, customerID int64) ([]domain.CartLine, error) {
	var cartID int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM carts WHERE customer_id = $1
	`, customerID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCartNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.quantity, p.id, p.name, p.description, p.image, p.price, p.category
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanLines(rows)
}

func scanLines(rows *sql.Rows) ([]domain.CartLine, error) {
	lines := []domain.CartLine{}
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

// Quantity reports the current quantity of productID in the customer's cart.
func (r *CartRepository) Quantity(ctx context.Context, customerID, productID int64) (int, error) {
	var cartID int64
	var quantity sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT c.id, ci.quantity
		FROM carts c
		LEFT JOIN cart_items ci ON ci.cart_id = c.id AND ci.product_id = $2
		WHERE c.customer_id = $1
	`, customerID, productID).Scan(&cartID, &quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrCartNotFound
		}
		return 0, err
	}
	if !quantity.Valid {
		return 0, domain.ErrCartItemNotFound
	}
	return int(quantity.Int64), nil
}

func (r *CartRepository) SetQuantity(ctx context.Context, customerID, productID int64, quantity int) error {
	return r.execTx(ctx, func(tx *sql.Tx) error {
		cartID, err := lockCart(ctx, tx, customerID)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE cart_items SET quantity = $3
			WHERE cart_id = $1 AND product_id = $2
		`, cartID, productID, quantity)
		if err != nil {
			return err
		}
		return requireRow(result)
	})
}

func (r *CartRepository) RemoveItem(ctx context.Context, customerID, productID int64) error {
	return r.execTx(ctx, func(tx *sql.Tx) error {
		cartID, err := lockCart(ctx, tx, customerID)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			DELETE FROM cart_items
			WHERE cart_id = $1 AND product_id = $2
		`, cartID, productID)
		if err != nil {
			return err
		}
		return requireRow(result)
	})
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}
