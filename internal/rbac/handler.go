package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookapi/book-api/internal/authz"
	"github.com/bookapi/book-api/internal/platform/httpx"
	"github.com/bookapi/book-api/internal/shared"
)

// Handler serves the read-only role and permission endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	enforcer *authz.Enforcer
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service, enforcer *authz.Enforcer) *Handler {
	return &Handler{logger: logger, service: service, enforcer: enforcer}
}

// MountRoles registers /roles routes.
func (h *Handler) MountRoles(r chi.Router) {
	r.With(h.enforcer.Require(authz.OpRolesList)).Get("/", h.listRoles)
	r.With(h.enforcer.Require(authz.OpRolesGet)).Get("/{name}", h.getRole)
}

// MountPermissions registers /permissions routes.
func (h *Handler) MountPermissions(r chi.Router) {
	r.With(h.enforcer.Require(authz.OpPermissionsList)).Get("/", h.listPermissions)
	r.With(h.enforcer.Require(authz.OpPermissionsGet)).Get("/{name}", h.getPermission)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListRoles(r.Context(), shared.ParsePage(r))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.GetRole(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListPermissions(r.Context(), shared.ParsePage(r))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) getPermission(w http.ResponseWriter, r *http.Request) {
	perm, err := h.service.GetPermission(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, perm)
}
