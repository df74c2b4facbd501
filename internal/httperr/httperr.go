// Package httperr maps domain error kinds onto HTTP responses.
package httperr

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func Status(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindPermissionDenied:
		return http.StatusForbidden
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindTransportFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func WriteDetail(w http.ResponseWriter, logger *slog.Logger, status int, detail string) {
	WriteJSON(w, logger, status, map[string]string{"detail": detail})
}

// Write responds with err's status and client-safe message. Unclassified
// errors are logged with msg and args before being reduced to a 500.
func Write(w http.ResponseWriter, logger *slog.Logger, err error, msg string, args ...any) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		logger.Error(msg, append(args, "error", err)...)
	}
	WriteDetail(w, logger, status, domain.MessageOf(err))
}
