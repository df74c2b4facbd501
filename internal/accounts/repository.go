package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const uniqueViolation = "23505"

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerColumns = `id, username, customer_name, email, phone_number, address, city, state,
	profile_picture, is_active, is_staff, last_login, password_hash, created_at`

func scanCustomer(row interface{ Scan(...any) error }) (domain.Customer, error) {
	var c domain.Customer
	var lastLogin sql.NullTime
	err := row.Scan(&c.ID, &c.Username, &c.CustomerName, &c.Email, &c.PhoneNumber, &c.Address,
		&c.City, &c.State, &c.ProfilePicture, &c.IsActive, &c.IsStaff, &lastLogin, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		return domain.Customer{}, err
	}
	if lastLogin.Valid {
		c.LastLogin = &lastLogin.Time
	}
	return c, nil
}

func (r *CustomerRepository) getBy(ctx context.Context, column string, value any, notFound error) (domain.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE `+column+` = $1`, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, notFound
		}
		return domain.Customer{}, fmt.Errorf("get customer by %s: %w", column, err)
	}
	return c, nil
}

func (r *CustomerRepository) Get(ctx context.Context, id int64) (domain.Customer, error) {
	return r.getBy(ctx, "id", id, domain.ErrAccountNotFound)
}

func (r *CustomerRepository) GetByUsername(ctx context.Context, username string) (domain.Customer, error) {
	return r.getBy(ctx, "username", username, domain.ErrAccountNotFound)
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (domain.Customer, error) {
	return r.getBy(ctx, "email", email, domain.ErrCustomerNotFound)
}

func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customers (username, customer_name, email, phone_number, address, city, state,
			profile_picture, is_active, is_staff, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, c.Username, c.CustomerName, c.Email, c.PhoneNumber, c.Address, c.City, c.State,
		c.ProfilePicture, c.IsActive, c.IsStaff, c.PasswordHash, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		return mapUnique(err, "create customer")
	}
	return nil
}

// Update writes every editable profile column, including the password hash.
func (r *CustomerRepository) Update(ctx context.Context, c domain.Customer) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE customers
		SET username = $1, customer_name = $2, email = $3, phone_number = $4, address = $5,
			city = $6, state = $7, profile_picture = $8, password_hash = $9
		WHERE id = $10
	`, c.Username, c.CustomerName, c.Email, c.PhoneNumber, c.Address, c.City, c.State,
		c.ProfilePicture, c.PasswordHash, c.ID)
	if err != nil {
		return mapUnique(err, "update customer")
	}
	return requireRow(result)
}

func (r *CustomerRepository) SetPassword(ctx context.Context, id int64, hash string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE customers SET password_hash = $1 WHERE id = $2
	`, hash, id)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return requireRow(result)
}

func (r *CustomerRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE customers SET last_login = $1 WHERE id = $2
	`, at, id)
	return err
}

// Blacklist revokes a refresh token. Revoking the same jti twice is a no-op.
func (r *CustomerRepository) Blacklist(ctx context.Context, jti string, customerID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO token_blacklist (jti, customer_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (jti) DO NOTHING
	`, jti, customerID, expiresAt)
	if err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (r *CustomerRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE jti = $1)
	`, jti).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return exists, nil
}

func mapUnique(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.ErrDuplicateCustomer
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
