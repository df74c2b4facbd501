package accounts

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httperr"
)

// HandlerFunc is an HTTP handler that runs on behalf of an authenticated
// customer.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, id domain.Identity)

type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (domain.Identity, error)
}

type Middleware struct {
	auth   Authenticator
	logger *slog.Logger
}

func NewMiddleware(auth Authenticator, logger *slog.Logger) *Middleware {
	return &Middleware{auth: auth, logger: logger}
}

// Require resolves the bearer token and hands the identity to next. Requests
// without a valid access token never reach next.
func (m *Middleware) Require(next HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			httperr.Write(w, m.logger, domain.ErrUnauthenticated, "missing credentials")
			return
		}

		id, err := m.auth.Authenticate(r.Context(), raw)
		if err != nil {
			httperr.Write(w, m.logger, err, "authentication failed")
			return
		}

		next(w, r, id)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
