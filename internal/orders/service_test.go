package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// memStore is an in-memory Store. InPlacementTx serializes on mu the way the
// cart row lock does, and applies writes only when fn succeeds.
type memStore struct {
	mu        sync.Mutex
	carts     map[int64]int64
	items     map[int64][]domain.CartLine
	orders    map[int64]*domain.Order
	nextID    int64
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{
		carts:  map[int64]int64{},
		items:  map[int64][]domain.CartLine{},
		orders: map[int64]*domain.Order{},
	}
}

func (s *memStore) addToCart(customerID int64, p domain.Product, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cartID, ok := s.carts[customerID]
	if !ok {
		cartID = customerID * 10
		s.carts[customerID] = cartID
	}
	s.items[cartID] = append(s.items[cartID], domain.CartLine{ItemID: int64(len(s.items[cartID]) + 1), Product: p, Quantity: qty})
}

type memTx struct {
	s        *memStore
	inserted *domain.Order
	cleared  []int64
}

func (t *memTx) LockCart(_ context.Context, customerID int64) (int64, error) {
	id, ok := t.s.carts[customerID]
	if !ok {
		return 0, domain.ErrCartNotFound
	}
	return id, nil
}

func (t *memTx) CartLines(_ context.Context, cartID int64) ([]domain.CartLine, error) {
	return append([]domain.CartLine(nil), t.s.items[cartID]...), nil
}

func (t *memTx) InsertOrder(_ context.Context, order *domain.Order) error {
	if t.s.insertErr != nil {
		return t.s.insertErr
	}
	order.ID = t.s.nextID + 1
	t.inserted = order
	return nil
}

func (t *memTx) ClearCart(_ context.Context, cartID int64) error {
	t.cleared = append(t.cleared, cartID)
	return nil
}

func (s *memStore) InPlacementTx(_ context.Context, fn func(tx PlacementTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s}
	if err := fn(tx); err != nil {
		return err
	}

	if tx.inserted != nil {
		s.nextID = tx.inserted.ID
		s.orders[tx.inserted.ID] = tx.inserted
	}
	for _, cartID := range tx.cleared {
		s.items[cartID] = nil
	}
	return nil
}

func (s *memStore) Get(_ context.Context, id int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) ListByCustomer(_ context.Context, customerID int64) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Order{}
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *memStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *memStore) SetShippingStatus(_ context.Context, id int64, status domain.ShippingStatus) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.ShippingStatus = status
	cp := *o
	return &cp, nil
}

type stubCustomers struct{}

func (stubCustomers) Get(_ context.Context, id int64) (domain.Customer, error) {
	return domain.Customer{ID: id, Username: "alice", Email: "alice@example.com"}, nil
}

type stubNotifier struct {
	mu     sync.Mutex
	events []domain.OrderPlacedEvent
	status domain.NotificationStatus
	err    error
	block  bool
	ctxErr error
}

func (n *stubNotifier) OrderPlaced(ctx context.Context, event domain.OrderPlacedEvent) (domain.NotificationStatus, error) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.ctxErr = ctx.Err()
	n.mu.Unlock()

	if n.block {
		<-ctx.Done()
		return domain.NotificationFailed, ctx.Err()
	}
	if n.err != nil {
		return domain.NotificationFailed, n.err
	}
	if n.status == "" {
		return domain.NotificationSent, nil
	}
	return n.status, nil
}

func newTestWorkflow(store *memStore, notifier *stubNotifier) *Workflow {
	return NewWorkflow(store, stubCustomers{}, notifier, WorkflowConfig{
		NotifyTimeout: 50 * time.Millisecond,
		MediaBaseURL:  "http://media.local/",
	}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var (
	phone = domain.Product{ID: 1, Name: "Phone", Price: 100, Image: "phone.png"}
	cable = domain.Product{ID: 2, Name: "Cable", Price: 50}
	alice = domain.Identity{UserID: 1}
	bob   = domain.Identity{UserID: 2}
)

func TestWorkflow_PlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("totals the cart, snapshots it and clears it", func(t *testing.T) {
		store := newMemStore()
		store.addToCart(alice.UserID, phone, 2)
		store.addToCart(alice.UserID, cable, 1)
		notifier := &stubNotifier{}
		w := newTestWorkflow(store, notifier)

		placement, err := w.PlaceOrder(ctx, alice)
		require.NoError(t, err)

		assert.Equal(t, "250", placement.TotalAmount.String())
		assert.Equal(t, domain.NotificationSent, placement.Notification)
		assert.Equal(t, "Order placed successfully", placement.Detail)

		order, err := w.GetOrder(ctx, alice, placement.OrderID)
		require.NoError(t, err)
		assert.Equal(t, domain.ShippingPending, order.ShippingStatus)
		require.Len(t, order.Items, 2)
		assert.Equal(t, phone, order.Items[0].Product)
		assert.Equal(t, 2, order.Items[0].Quantity)
		assert.Empty(t, store.items[store.carts[alice.UserID]])

		require.Len(t, notifier.events, 1)
		event := notifier.events[0]
		assert.Equal(t, placement.OrderID, event.OrderID)
		assert.Equal(t, "alice@example.com", event.Email)
		require.Len(t, event.Items, 2)
		assert.Equal(t, int64(200), event.Items[0].TotalPrice)
		require.NotNil(t, event.Items[0].ImageURL)
		assert.Equal(t, "http://media.local/phone.png", *event.Items[0].ImageURL)
		assert.Nil(t, event.Items[1].ImageURL)
	})

	t.Run("empty cart", func(t *testing.T) {
		store := newMemStore()
		store.carts[alice.UserID] = 10
		notifier := &stubNotifier{}
		w := newTestWorkflow(store, notifier)

		_, err := w.PlaceOrder(ctx, alice)
		assert.ErrorIs(t, err, domain.ErrEmptyCart)
		assert.Empty(t, store.orders)
		assert.Empty(t, notifier.events)
	})

	t.Run("missing cart", func(t *testing.T) {
		w := newTestWorkflow(newMemStore(), &stubNotifier{})

		_, err := w.PlaceOrder(ctx, alice)
		assert.ErrorIs(t, err, domain.ErrCartNotFound)
	})

	t.Run("insert failure leaves the cart intact", func(t *testing.T) {
		store := newMemStore()
		store.addToCart(alice.UserID, phone, 1)
		store.insertErr = errors.New("connection reset")
		notifier := &stubNotifier{}
		w := newTestWorkflow(store, notifier)

		_, err := w.PlaceOrder(ctx, alice)
		require.Error(t, err)
		assert.Equal(t, domain.KindInternal, domain.KindOf(err))
		assert.Len(t, store.items[store.carts[alice.UserID]], 1)
		assert.Empty(t, store.orders)
		assert.Empty(t, notifier.events)
	})

	t.Run("total beyond the amount column is rejected", func(t *testing.T) {
		store := newMemStore()
		store.addToCart(alice.UserID, domain.Product{ID: 3, Name: "Mac Pro", Price: 50_000_000}, 2)
		notifier := &stubNotifier{}
		w := newTestWorkflow(store, notifier)

		_, err := w.PlaceOrder(ctx, alice)
		assert.ErrorIs(t, err, domain.ErrOrderTooLarge)
		assert.Len(t, store.items[store.carts[alice.UserID]], 1)
		assert.Empty(t, store.orders)
		assert.Empty(t, notifier.events)
	})

	t.Run("notification failure keeps the order", func(t *testing.T) {
		store := newMemStore()
		store.addToCart(alice.UserID, phone, 1)
		w := newTestWorkflow(store, &stubNotifier{err: errors.New("smtp down")})

		placement, err := w.PlaceOrder(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, domain.NotificationFailed, placement.Notification)
		assert.Len(t, store.orders, 1)
	})

	t.Run("notification is bounded by the timeout", func(t *testing.T) {
		store := newMemStore()
		store.addToCart(alice.UserID, phone, 1)
		w := newTestWorkflow(store, &stubNotifier{block: true})

		start := time.Now()
		placement, err := w.PlaceOrder(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, domain.NotificationFailed, placement.Notification)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("queued status is passed through", func(t *testing.T) {
		store := newMemStore()
		store.addToCart(alice.UserID, phone, 1)
		w := newTestWorkflow(store, &stubNotifier{status: domain.NotificationQueued})

		placement, err := w.PlaceOrder(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, domain.NotificationQueued, placement.Notification)
	})

	t.Run("a cancelled request still notifies", func(t *testing.T) {
		store := newMemStore()
		store.addToCart(alice.UserID, phone, 1)
		notifier := &stubNotifier{}
		w := newTestWorkflow(store, notifier)

		reqCtx, cancel := context.WithCancel(ctx)
		cancel()

		placement, err := w.PlaceOrder(reqCtx, alice)
		require.NoError(t, err)
		assert.Equal(t, domain.NotificationSent, placement.Notification)
		assert.NoError(t, notifier.ctxErr)
	})

	t.Run("concurrent placements on one cart create one order", func(t *testing.T) {
		store := newMemStore()
		store.addToCart(alice.UserID, phone, 3)
		notifier := &stubNotifier{}
		w := newTestWorkflow(store, notifier)

		var placed, empty atomic.Int32
		var g errgroup.Group
		for i := 0; i < 10; i++ {
			g.Go(func() error {
				_, err := w.PlaceOrder(ctx, alice)
				switch {
				case err == nil:
					placed.Add(1)
				case errors.Is(err, domain.ErrEmptyCart):
					empty.Add(1)
				default:
					return err
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		assert.Equal(t, int32(1), placed.Load())
		assert.Equal(t, int32(9), empty.Load())
		assert.Len(t, store.orders, 1)
		assert.Len(t, notifier.events, 1)
	})
}

func placeOne(t *testing.T, w *Workflow, store *memStore, id domain.Identity) int64 {
	t.Helper()
	store.addToCart(id.UserID, cable, 1)
	placement, err := w.PlaceOrder(context.Background(), id)
	require.NoError(t, err)
	return placement.OrderID
}

func TestWorkflow_Ownership(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	w := newTestWorkflow(store, &stubNotifier{})
	orderID := placeOne(t, w, store, alice)

	t.Run("foreign order is indistinguishable from a missing one", func(t *testing.T) {
		_, foreignErr := w.GetOrder(ctx, bob, orderID)
		_, missingErr := w.GetOrder(ctx, bob, orderID+100)

		assert.ErrorIs(t, foreignErr, domain.ErrOrderNotFound)
		assert.Equal(t, missingErr, foreignErr)
	})

	t.Run("foreign cancel is rejected", func(t *testing.T) {
		assert.ErrorIs(t, w.CancelOrder(ctx, bob, orderID), domain.ErrOrderNotFound)
		assert.Contains(t, store.orders, orderID)
	})

	t.Run("list only returns own orders", func(t *testing.T) {
		placeOne(t, w, store, bob)

		list, err := w.ListOrders(ctx, alice)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, orderID, list[0].ID)
	})

	t.Run("owner cancels at any status", func(t *testing.T) {
		_, err := w.SetShippingStatus(ctx, domain.Identity{UserID: 99, Staff: true}, orderID, domain.ShippingShipped)
		require.NoError(t, err)

		require.NoError(t, w.CancelOrder(ctx, alice, orderID))
		assert.NotContains(t, store.orders, orderID)

		assert.ErrorIs(t, w.CancelOrder(ctx, alice, orderID), domain.ErrOrderNotFound)
	})
}

func TestWorkflow_SetShippingStatus(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	w := newTestWorkflow(store, &stubNotifier{})
	orderID := placeOne(t, w, store, alice)
	staff := domain.Identity{UserID: 99, Staff: true}

	_, err := w.SetShippingStatus(ctx, alice, orderID, domain.ShippingShipped)
	assert.ErrorIs(t, err, domain.ErrStaffOnly)

	_, err = w.SetShippingStatus(ctx, staff, orderID, "lost")
	assert.ErrorIs(t, err, domain.ErrInvalidShippingStatus)

	_, err = w.SetShippingStatus(ctx, staff, orderID+1, domain.ShippingShipped)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	order, err := w.SetShippingStatus(ctx, staff, orderID, domain.ShippingDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.ShippingDelivered, order.ShippingStatus)
}
