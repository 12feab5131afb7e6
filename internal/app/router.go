package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bookapi/book-api/internal/auth"
	"github.com/bookapi/book-api/internal/authz"
	"github.com/bookapi/book-api/internal/observability"
	"github.com/bookapi/book-api/internal/platform/httpx"
	"github.com/bookapi/book-api/internal/products"
	"github.com/bookapi/book-api/internal/rbac"
	"github.com/bookapi/book-api/internal/users"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Authenticator   *auth.Authenticator
	Enforcer        *authz.Enforcer
	AuthHandler     *auth.Handler
	UsersHandler    *users.Handler
	RBACHandler     *rbac.Handler
	ProductsHandler *products.Handler
	Metrics         *observability.Metrics
	Database        HealthChecker
}

// NewRouter constructs the chi.Router with book-api defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	var authenticate func(http.Handler) http.Handler
	if params.Authenticator != nil {
		authenticate = params.Authenticator.Middleware
	}
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:       params.Logger,
		Config:       params.Config,
		Metrics:      params.Metrics,
		Authenticate: authenticate,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, r, http.StatusNotFound, "Not Found", "Cannot "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, r, http.StatusMethodNotAllowed, "Method Not Allowed", "Cannot "+r.Method+" "+r.URL.Path)
	})

	health := chi.Chain()
	if params.Enforcer != nil {
		health = chi.Chain(params.Enforcer.Require(authz.OpHealth))
	}
	r.With(health...).Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Database != nil {
			if err := params.Database.Ping(r.Context()); err != nil {
				params.Logger.Error("health check", slog.Any("error", err))
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.RBACHandler != nil {
		r.Route("/roles", params.RBACHandler.MountRoles)
		r.Route("/permissions", params.RBACHandler.MountPermissions)
	}
	if params.ProductsHandler != nil {
		r.Route("/products", params.ProductsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
