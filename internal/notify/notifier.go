// Package notify delivers customer emails, either by queueing events for the
// worker or by calling the email service directly.
package notify

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

type Publisher interface {
	Publish(ctx context.Context, eventType, key string, event any) error
}

type Sender interface {
	Send(ctx context.Context, email Email) error
}

type Notifier struct {
	publisher Publisher
	sender    Sender
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

// NewQueued returns a Notifier that publishes events for the worker.
func NewQueued(publisher Publisher, metrics *telemetry.Metrics, logger *slog.Logger) *Notifier {
	return &Notifier{publisher: publisher, metrics: metrics, logger: logger}
}

// NewDirect returns a Notifier that renders and sends emails inline.
func NewDirect(sender Sender, metrics *telemetry.Metrics, logger *slog.Logger) *Notifier {
	return &Notifier{sender: sender, metrics: metrics, logger: logger}
}

func (n *Notifier) OrderPlaced(ctx context.Context, event domain.OrderPlacedEvent) (domain.NotificationStatus, error) {
	return n.dispatch(ctx, domain.EventOrderPlaced, strconv.FormatInt(event.OrderID, 10), event, func() (Email, error) {
		return RenderOrderPlaced(event)
	})
}

func (n *Notifier) PasswordResetRequested(ctx context.Context, event domain.PasswordResetEvent) (domain.NotificationStatus, error) {
	return n.dispatch(ctx, domain.EventPasswordResetRequested, strconv.FormatInt(event.CustomerID, 10), event, func() (Email, error) {
		return RenderPasswordReset(event)
	})
}

func (n *Notifier) dispatch(ctx context.Context, eventType, key string, event any, render func() (Email, error)) (domain.NotificationStatus, error) {
	status, err := n.deliver(ctx, eventType, key, event, render)
	if err != nil {
		status = domain.NotificationFailed
		n.logger.Error("notification failed", "error", err, "event", eventType, "key", key)
	} else {
		n.logger.Info("notification dispatched", "event", eventType, "key", key, "status", status)
	}
	n.metrics.Notification(ctx, eventType, string(status))
	return status, err
}

func (n *Notifier) deliver(ctx context.Context, eventType, key string, event any, render func() (Email, error)) (domain.NotificationStatus, error) {
	if n.publisher != nil {
		if err := n.publisher.Publish(ctx, eventType, key, event); err != nil {
			return domain.NotificationFailed, err
		}
		return domain.NotificationQueued, nil
	}

	email, err := render()
	if err != nil {
		return domain.NotificationFailed, err
	}
	if err := n.sender.Send(ctx, email); err != nil {
		return domain.NotificationFailed, err
	}
	return domain.NotificationSent, nil
}
