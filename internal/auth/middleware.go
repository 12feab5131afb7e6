package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bookapi/book-api/internal/authz"
	"github.com/bookapi/book-api/internal/platform/httpx"
	"github.com/bookapi/book-api/internal/rbac"
)

// Authenticator turns a bearer token into an authz.Identity. Requests
// without a valid token continue anonymously; enforcement decides whether
// that is acceptable.
type Authenticator struct {
	tokens    *TokenIssuer
	roles     RoleSource
	catalogue *authz.Catalogue
	logger    *slog.Logger
}

// NewAuthenticator wires an Authenticator.
func NewAuthenticator(tokens *TokenIssuer, roles RoleSource, catalogue *authz.Catalogue, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{tokens: tokens, roles: roles, catalogue: catalogue, logger: logger}
}

// Middleware attaches the identity of a verified token to the request.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := a.tokens.Verify(raw)
		if err != nil {
			a.logger.Debug("bearer token rejected", slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}
		names, err := a.roles.UserRoles(r.Context(), claims.Subject)
		if errors.Is(err, rbac.ErrUserNotFound) {
			a.logger.Info("token for unknown user", slog.String("subject", claims.Subject))
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			a.logger.Error("load user roles", slog.String("subject", claims.Subject), slog.Any("error", err))
			httpx.Problem(w, r, http.StatusInternalServerError, "Internal Server Error", "Internal server error. Please try again later.")
			return
		}
		id := authz.NewIdentity(claims.Subject, a.parseRoles(claims.Subject, names)...)
		next.ServeHTTP(w, r.WithContext(authz.ContextWithIdentity(r.Context(), id)))
	})
}

func (a *Authenticator) parseRoles(subject string, names []string) []authz.Role {
	roles := make([]authz.Role, 0, len(names))
	for _, name := range names {
		role, ok := a.catalogue.ParseRole(name)
		if !ok {
			a.logger.Warn("dropping unknown role", slog.String("subject", subject), slog.String("role", name))
			continue
		}
		roles = append(roles, role)
	}
	return roles
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
