package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/amnabbouti/launchpad-api-sub000/internal/authz"
	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/httpx"
)

// Middleware resolves the bearer token and stores the acting principal in the
// request context. Requests without an Authorization header pass through
// anonymously; the authorization pipeline downstream decides what anonymous
// requests may reach.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Principal returns the authentication middleware.
func (m Middleware) Principal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		user, err := m.Service.ResolveToken(r.Context(), token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("resolve token", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if user == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
			return
		}
		ctx := authz.WithPrincipal(r.Context(), user.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePrincipal rejects anonymous requests with 401. Mounted on route
// groups where authentication is mandatory.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authz.PrincipalFromContext(r.Context()) == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
