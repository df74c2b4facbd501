package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var productColumns = []string{"id", "name", "description", "image", "price", "category"}

func TestProductRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT (.+) FROM products").
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(int64(1), "iPhone 15", "phone", "iphone.png", int64(100), "iphone").
			AddRow(int64(2), "USB-C cable", "", "", int64(50), "others"))

	products, err := NewProductRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, domain.CategoryIPhone, products[0].Category)
	assert.Equal(t, int64(50), products[1].Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("WHERE id = \\$1").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(int64(1), "iPhone 15", "phone", "iphone.png", int64(100), "iphone"))
	mock.ExpectQuery("WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(productColumns))

	repo := NewProductRepository(db)

	p, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "iPhone 15", p.Name)

	_, err = repo.Get(context.Background(), 7)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type stubLister struct {
	products []domain.Product
	err      error
}

func (s stubLister) List(context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func TestHandler_HandleList(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("returns products", func(t *testing.T) {
		h := NewHandler(stubLister{products: []domain.Product{{ID: 1, Name: "iPad", Price: 300}}}, logger)

		rec := httptest.NewRecorder()
		h.HandleList(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var products []domain.Product
		if err := json.Unmarshal(rec.Body.Bytes(), &products); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(products) != 1 || products[0].Name != "iPad" {
			t.Errorf("unexpected products: %+v", products)
		}
	})

	t.Run("storage failure is a 500 without details", func(t *testing.T) {
		h := NewHandler(stubLister{err: errors.New("connection refused")}, logger)

		rec := httptest.NewRecorder()
		h.HandleList(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", rec.Code)
		}
		if body := rec.Body.String(); body != "{\"detail\":\"internal server error\"}\n" {
			t.Errorf("unexpected body: %s", body)
		}
	})
}
