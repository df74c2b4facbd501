package accounts

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httperr"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httperr.WriteDetail(w, h.logger, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	customer, err := h.service.Register(r.Context(), req)
	if err != nil {
		httperr.Write(w, h.logger, err, "failed to register customer")
		return
	}

	httperr.WriteJSON(w, h.logger, http.StatusCreated, customer)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	pair, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httperr.Write(w, h.logger, err, "failed to log in", "username", req.Username)
		return
	}

	httperr.WriteJSON(w, h.logger, http.StatusOK, pair)
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	access, err := h.service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		httperr.Write(w, h.logger, err, "failed to refresh token")
		return
	}

	httperr.WriteJSON(w, h.logger, http.StatusOK, map[string]string{"access": access})
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.Logout(r.Context(), req.Refresh); err != nil {
		httperr.Write(w, h.logger, err, "failed to log out", "user_id", id.UserID)
		return
	}

	httperr.WriteDetail(w, h.logger, http.StatusResetContent, "Logout successful")
}

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	customer, err := h.service.Profile(r.Context(), id)
	if err != nil {
		httperr.Write(w, h.logger, err, "failed to load profile", "user_id", id.UserID)
		return
	}

	httperr.WriteJSON(w, h.logger, http.StatusOK, customer)
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	var req UpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	customer, err := h.service.UpdateProfile(r.Context(), id, req)
	if err != nil {
		httperr.Write(w, h.logger, err, "failed to update profile", "user_id", id.UserID)
		return
	}

	httperr.WriteJSON(w, h.logger, http.StatusOK, customer)
}

type resetRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		httperr.Write(w, h.logger, err, "failed to request password reset")
		return
	}

	httperr.WriteDetail(w, h.logger, http.StatusOK, "Password reset email sent")
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), r.PathValue("uid"), r.PathValue("token"), req.Password); err != nil {
		httperr.Write(w, h.logger, err, "failed to reset password")
		return
	}

	httperr.WriteDetail(w, h.logger, http.StatusOK, "Password has been reset")
}
