package catalog

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httperr"
)

type ProductLister interface {
	List(ctx context.Context) ([]domain.Product, error)
}

type Handler struct {
	products ProductLister
	logger   *slog.Logger
}

func NewHandler(products ProductLister, logger *slog.Logger) *Handler {
	return &Handler{
		products: products,
		logger:   logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		httperr.Write(w, h.logger, err, "failed to list products")
		return
	}

	h.logger.Info("products listed", "count", len(products))
	httperr.WriteJSON(w, h.logger, http.StatusOK, products)
}
