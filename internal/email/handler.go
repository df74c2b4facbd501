package email

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/joao-fontenele/storefront/internal/httperr"
)

type Handler struct {
	sender   Sender
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(sender Sender, logger *slog.Logger) *Handler {
	return &Handler{
		sender:   sender,
		validate: validator.New(),
		logger:   logger,
	}
}

type sendRequest struct {
	To       string          `json:"to"`
	Subject  string          `json:"subject"`
	Body     string          `json:"body"`
	Template string          `json:"template"`
	Data     json.RawMessage `json:"data"`
}

type sendResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.WriteDetail(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.To) == "" {
		httperr.WriteDetail(w, h.logger, http.StatusBadRequest, "recipient is required")
		return
	}

	msg := Message{To: req.To, Subject: req.Subject, Body: req.Body}
	if err := checkHeaders(msg); err != nil {
		httperr.WriteDetail(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Var(req.To, "email"); err != nil {
		httperr.WriteDetail(w, h.logger, http.StatusBadRequest, "invalid recipient")
		return
	}

	if err := h.sender.Send(r.Context(), msg); err != nil {
		h.logger.Error("failed to deliver email", "error", err, "to", req.To, "template", req.Template)
		httperr.WriteDetail(w, h.logger, http.StatusBadGateway, "failed to deliver email")
		return
	}

	h.logger.Info("email delivered", "to", req.To, "subject", req.Subject, "template", req.Template)
	httperr.WriteJSON(w, h.logger, http.StatusOK, sendResponse{Status: "sent"})
}
