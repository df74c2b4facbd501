package cart

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httperr"
)

type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{
		manager: manager,
		logger:  logger,
	}
}

func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	view, err := h.manager.View(r.Context(), id)
	if err != nil {
		httperr.Write(w, h.logger, err, "failed to view cart", "user_id", id.UserID)
		return
	}

	httperr.WriteJSON(w, h.logger, http.StatusOK, view)
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	item, err := h.manager.AddItem(r.Context(), id, productID)
	if err != nil {
		httperr.Write(w, h.logger, err, "failed to add cart item", "user_id", id.UserID, "product_id", productID)
		return
	}

	h.logger.Info("cart item added", "user_id", id.UserID, "product_id", productID, "quantity", item.Quantity)
	httperr.WriteJSON(w, h.logger, http.StatusCreated, item)
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) HandleSetQuantity(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.WriteDetail(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	quantity := 0
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	item, err := h.manager.SetQuantity(r.Context(), id, productID, quantity)
	if err != nil {
		httperr.Write(w, h.logger, err, "failed to update cart item", "user_id", id.UserID, "product_id", productID)
		return
	}

	h.logger.Info("cart item updated", "user_id", id.UserID, "product_id", productID, "quantity", item.Quantity)
	httperr.WriteJSON(w, h.logger, http.StatusOK, item)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	if err := h.manager.RemoveItem(r.Context(), id, productID); err != nil {
		httperr.Write(w, h.logger, err, "failed to remove cart item", "user_id", id.UserID, "product_id", productID)
		return
	}

	h.logger.Info("cart item removed", "user_id", id.UserID, "product_id", productID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(r.PathValue("productId"), 10, 64)
	if err != nil || productID <= 0 {
		httperr.WriteDetail(w, h.logger, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return productID, true
}
