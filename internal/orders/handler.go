package orders

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httperr"
)

type Handler struct {
	workflow *Workflow
	logger   *slog.Logger
}

func NewHandler(workflow *Workflow, logger *slog.Logger) *Handler {
	return &Handler{
		workflow: workflow,
		logger:   logger,
	}
}

func (h *Handler) HandlePlace(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	placement, err := h.workflow.PlaceOrder(r.Context(), id)
	if err != nil {
		httperr.Write(w, h.logger, err, "failed to place order", "user_id", id.UserID)
		return
	}

	httperr.WriteJSON(w, h.logger, http.StatusCreated, placement)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	orders, err := h.workflow.ListOrders(r.Context(), id)
	if err != nil {
		httperr.Write(w, h.logger, err, "failed to list orders", "user_id", id.UserID)
		return
	}

	h.logger.Info("orders listed", "user_id", id.UserID, "count", len(orders))
	httperr.WriteJSON(w, h.logger, http.StatusOK, orders)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	order, err := h.workflow.GetOrder(r.Context(), id, orderID)
	if err != nil {
		httperr.Write(w, h.logger, err, "failed to get order", "order_id", orderID)
		return
	}

	httperr.WriteJSON(w, h.logger, http.StatusOK, order)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	if err := h.workflow.CancelOrder(r.Context(), id, orderID); err != nil {
		httperr.Write(w, h.logger, err, "failed to cancel order", "order_id", orderID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type shippingStatusRequest struct {
	ShippingStatus domain.ShippingStatus `json:"shipping_status"`
}

func (h *Handler) HandleSetShippingStatus(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req shippingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.WriteDetail(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.workflow.SetShippingStatus(r.Context(), id, orderID, req.ShippingStatus)
	if err != nil {
		httperr.Write(w, h.logger, err, "failed to update shipping status", "order_id", orderID)
		return
	}

	httperr.WriteJSON(w, h.logger, http.StatusOK, order)
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || orderID <= 0 {
		httperr.WriteDetail(w, h.logger, http.StatusNotFound, domain.ErrOrderNotFound.Message)
		return 0, false
	}
	return orderID, true
}
