// Package worker turns queued notification events into emails.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/notify"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

type NotificationHandler struct {
	sender  notify.Sender
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

func NewNotificationHandler(sender notify.Sender, metrics *telemetry.Metrics, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		sender:  sender,
		metrics: metrics,
		logger:  logger,
	}
}

// Topics lists the topics the worker subscribes to.
func Topics() []string {
	return []string{domain.EventOrderPlaced, domain.EventPasswordResetRequested}
}

func (h *NotificationHandler) Handlers() messaging.Handlers {
	return messaging.Handlers{
		domain.EventOrderPlaced:            h.HandleOrderPlaced,
		domain.EventPasswordResetRequested: h.HandlePasswordReset,
	}
}

func (h *NotificationHandler) HandleOrderPlaced(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("dropping malformed order placed event", "error", err)
		return nil
	}

	h.logger.Info("processing order placed event", "order_id", event.OrderID, "customer_id", event.CustomerID)

	email, err := notify.RenderOrderPlaced(event)
	if err != nil {
		return err
	}

	if err := h.send(ctx, domain.EventOrderPlaced, email); err != nil {
		h.logger.Error("failed to send confirmation email", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send confirmation email: %w", err)
	}

	h.logger.Info("order confirmation sent", "order_id", event.OrderID)
	return nil
}

func (h *NotificationHandler) HandlePasswordReset(ctx context.Context, payload []byte) error {
	var event domain.PasswordResetEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("dropping malformed password reset event", "error", err)
		return nil
	}

	email, err := notify.RenderPasswordReset(event)
	if err != nil {
		return err
	}

	if err := h.send(ctx, domain.EventPasswordResetRequested, email); err != nil {
		h.logger.Error("failed to send password reset email", "error", err, "customer_id", event.CustomerID)
		return fmt.Errorf("send password reset email: %w", err)
	}

	h.logger.Info("password reset email sent", "customer_id", event.CustomerID)
	return nil
}

func (h *NotificationHandler) send(ctx context.Context, eventType string, email notify.Email) error {
	err := h.sender.Send(ctx, email)
	status := domain.NotificationSent
	if err != nil {
		status = domain.NotificationFailed
	}
	h.metrics.Notification(ctx, eventType, string(status))
	return err
}
