package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

// PlacementTx is the unit of work for turning a cart into an order. All calls
// share one database transaction.
type PlacementTx interface {
	LockCart(ctx context.Context, customerID int64) (int64, error)
	CartLines(ctx context.Context, cartID int64) ([]domain.CartLine, error)
	// InsertOrder writes the order and its item snapshots and sets order.ID.
	InsertOrder(ctx context.Context, order *domain.Order) error
	ClearCart(ctx context.Context, cartID int64) error
}

type Store interface {
	InPlacementTx(ctx context.Context, fn func(tx PlacementTx) error) error
	Get(ctx context.Context, id int64) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error)
	Delete(ctx context.Context, id int64) error
	SetShippingStatus(ctx context.Context, id int64, status domain.ShippingStatus) (*domain.Order, error)
}

type CustomerGetter interface {
	Get(ctx context.Context, id int64) (domain.Customer, error)
}

type Notifier interface {
	OrderPlaced(ctx context.Context, event domain.OrderPlacedEvent) (domain.NotificationStatus, error)
}

type Workflow struct {
	store         Store
	customers     CustomerGetter
	notifier      Notifier
	notifyTimeout time.Duration
	mediaBaseURL  string
	metrics       *telemetry.Metrics
	logger        *slog.Logger
	now           func() time.Time
}

type WorkflowConfig struct {
	NotifyTimeout time.Duration
	MediaBaseURL  string
}

func NewWorkflow(store Store, customers CustomerGetter, notifier Notifier, cfg WorkflowConfig, metrics *telemetry.Metrics, logger *slog.Logger) *Workflow {
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 5 * time.Second
	}
	return &Workflow{
		store:         store,
		customers:     customers,
		notifier:      notifier,
		notifyTimeout: cfg.NotifyTimeout,
		mediaBaseURL:  cfg.MediaBaseURL,
		metrics:       metrics,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder converts the caller's cart into a pending order. The cart lock,
// order snapshot and cart clearing commit together; the confirmation is sent
// afterwards and its outcome is reported in the returned Placement.
func (w *Workflow) PlaceOrder(ctx context.Context, id domain.Identity) (domain.Placement, error) {
	var (
		order *domain.Order
		lines []domain.CartLine
	)

	err := w.store.InPlacementTx(ctx, func(tx PlacementTx) error {
		cartID, err := tx.LockCart(ctx, id.UserID)
		if err != nil {
			return err
		}

		lines, err = tx.CartLines(ctx, cartID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}
		if domain.LinesTotal(lines) > domain.MaxOrderTotal {
			return domain.ErrOrderTooLarge
		}

		order = domain.NewOrderFromLines(id.UserID, lines, w.now())
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}

		return tx.ClearCart(ctx, cartID)
	})
	if err != nil {
		return domain.Placement{}, err
	}

	amount, _ := order.TotalAmount.Float64()
	w.metrics.OrderPlaced(ctx, amount)
	w.logger.Info("order placed", "order_id", order.ID, "user_id", id.UserID, "total_amount", order.TotalAmount.StringFixed(2), "items", len(order.Items))

	return domain.Placement{
		OrderID:      order.ID,
		TotalAmount:  order.TotalAmount,
		Notification: w.notify(ctx, order, lines),
		Detail:       "Order placed successfully",
	}, nil
}

// notify runs after commit. It detaches from the request's cancellation so a
// client disconnect does not drop the confirmation, and bounds it with
// notifyTimeout instead.
func (w *Workflow) notify(ctx context.Context, order *domain.Order, lines []domain.CartLine) domain.NotificationStatus {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.notifyTimeout)
	defer cancel()

	status, err := w.sendConfirmation(ctx, order, lines)
	if err != nil {
		status = domain.NotificationFailed
		w.logger.Warn("order confirmation not delivered", "error", err, "order_id", order.ID)
	}
	return status
}

func (w *Workflow) sendConfirmation(ctx context.Context, order *domain.Order, lines []domain.CartLine) (domain.NotificationStatus, error) {
	customer, err := w.customers.Get(ctx, order.CustomerID)
	if err != nil {
		return domain.NotificationFailed, fmt.Errorf("load customer: %w", err)
	}

	event := domain.OrderPlacedEvent{
		OrderID:     order.ID,
		CustomerID:  customer.ID,
		Username:    customer.Username,
		Email:       customer.Email,
		TotalAmount: order.TotalAmount,
		Items:       make([]domain.OrderPlacedLine, 0, len(lines)),
		Timestamp:   order.CreatedAt,
	}
	for _, l := range lines {
		event.Items = append(event.Items, domain.OrderPlacedLine{
			ProductName: l.Product.Name,
			Price:       l.Product.Price,
			ImageURL:    l.Product.ImageURL(w.mediaBaseURL),
			Quantity:    l.Quantity,
			TotalPrice:  l.Total(),
		})
	}

	return w.notifier.OrderPlaced(ctx, event)
}

func (w *Workflow) ListOrders(ctx context.Context, id domain.Identity) ([]domain.Order, error) {
	return w.store.ListByCustomer(ctx, id.UserID)
}

// GetOrder returns the order only to its owner. Foreign orders are reported
// exactly like missing ones.
func (w *Workflow) GetOrder(ctx context.Context, id domain.Identity, orderID int64) (*domain.Order, error) {
	order, err := w.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != id.UserID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// CancelOrder deletes the caller's order regardless of its shipping status.
func (w *Workflow) CancelOrder(ctx context.Context, id domain.Identity, orderID int64) error {
	order, err := w.GetOrder(ctx, id, orderID)
	if err != nil {
		return err
	}

	if err := w.store.Delete(ctx, order.ID); err != nil {
		return err
	}

	w.logger.Info("order cancelled", "order_id", order.ID, "user_id", id.UserID, "shipping_status", order.ShippingStatus)
	return nil
}

// SetShippingStatus is staff-only and applies any valid status without
// transition checks.
func (w *Workflow) SetShippingStatus(ctx context.Context, id domain.Identity, orderID int64, status domain.ShippingStatus) (*domain.Order, error) {
	if !id.Staff {
		return nil, domain.ErrStaffOnly
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidShippingStatus
	}

	order, err := w.store.SetShippingStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}

	w.logger.Info("shipping status updated", "order_id", order.ID, "status", order.ShippingStatus, "staff_id", id.UserID)
	return order, nil
}
