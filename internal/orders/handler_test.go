package orders

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func newTestMux(w *Workflow, id domain.Identity) *http.ServeMux {
	h := NewHandler(w, slog.New(slog.NewTextHandler(io.Discard, nil)))
	as := func(fn func(http.ResponseWriter, *http.Request, domain.Identity)) http.HandlerFunc {
		return func(rw http.ResponseWriter, r *http.Request) { fn(rw, r, id) }
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /place-order", as(h.HandlePlace))
	mux.HandleFunc("GET /user-orders", as(h.HandleList))
	mux.HandleFunc("GET /order/{id}", as(h.HandleGet))
	mux.HandleFunc("DELETE /order/{id}", as(h.HandleCancel))
	mux.HandleFunc("PATCH /order/{id}/shipping-status", as(h.HandleSetShippingStatus))
	return mux
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body["detail"]
}

func TestHandler_HandlePlace(t *testing.T) {
	t.Run("returns 201 with the placement", func(t *testing.T) {
		store := newMemStore()
		store.addToCart(alice.UserID, phone, 2)
		store.addToCart(alice.UserID, cable, 1)
		mux := newTestMux(newTestWorkflow(store, &stubNotifier{}), alice)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/place-order", nil))

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp struct {
			OrderID      int64  `json:"order_id"`
			TotalAmount  string `json:"total_amount"`
			Notification string `json:"notification"`
			Detail       string `json:"detail"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.TotalAmount != "250" {
			t.Errorf("expected total_amount 250, got %s", resp.TotalAmount)
		}
		if resp.Notification != "sent" {
			t.Errorf("expected notification sent, got %s", resp.Notification)
		}
		if resp.Detail != "Order placed successfully" {
			t.Errorf("unexpected detail: %s", resp.Detail)
		}
	})

	t.Run("empty cart is a 400", func(t *testing.T) {
		store := newMemStore()
		store.carts[alice.UserID] = 10
		mux := newTestMux(newTestWorkflow(store, &stubNotifier{}), alice)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/place-order", nil))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if got := decodeDetail(t, rec); got != "No items in cart" {
			t.Errorf("unexpected detail: %s", got)
		}
	})

	t.Run("missing cart is a 404", func(t *testing.T) {
		mux := newTestMux(newTestWorkflow(newMemStore(), &stubNotifier{}), alice)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/place-order", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestHandler_Orders(t *testing.T) {
	store := newMemStore()
	w := newTestWorkflow(store, &stubNotifier{})
	orderID := placeOne(t, w, store, alice)
	path := "/order/" + strconv.FormatInt(orderID, 10)

	t.Run("owner gets the order", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestMux(w, alice).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var order map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &order); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if order["shipping_status"] != "pending" {
			t.Errorf("expected pending, got %v", order["shipping_status"])
		}
		if order["user"] != float64(alice.UserID) {
			t.Errorf("expected user %d, got %v", alice.UserID, order["user"])
		}
	})

	t.Run("other customers get the not found body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestMux(w, bob).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
		if got := decodeDetail(t, rec); got != "Not found." {
			t.Errorf("unexpected detail: %s", got)
		}
	})

	t.Run("non numeric id is a 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestMux(w, alice).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/order/abc", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("list returns own orders", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestMux(w, alice).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/user-orders", nil))

		var orders []map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &orders); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(orders) != 1 {
			t.Errorf("expected 1 order, got %d", len(orders))
		}
	})

	t.Run("shipping status requires staff", func(t *testing.T) {
		body := `{"shipping_status":"shipped"}`

		rec := httptest.NewRecorder()
		newTestMux(w, alice).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, path+"/shipping-status", strings.NewReader(body)))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		staff := domain.Identity{UserID: 50, Staff: true}
		newTestMux(w, staff).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, path+"/shipping-status", strings.NewReader(body)))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("cancel returns 204", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestMux(w, alice).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, path, nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		newTestMux(w, alice).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404 after cancel, got %d", rec.Code)
		}
	})
}
