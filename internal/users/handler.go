package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookapi/book-api/internal/authz"
	"github.com/bookapi/book-api/internal/platform/httpx"
	"github.com/bookapi/book-api/internal/shared"
)

// Handler manages user management endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	enforcer *authz.Enforcer
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, enforcer *authz.Enforcer) *Handler {
	return &Handler{logger: logger, service: service, enforcer: enforcer}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.enforcer.Require(authz.OpUsersCreate)).Post("/", h.createUser)
	r.With(h.enforcer.Require(authz.OpUsersList)).Get("/", h.listUsers)
	r.With(h.enforcer.Require(authz.OpUsersGet)).Get("/{id}", h.getUser)
	r.With(h.enforcer.Require(authz.OpUsersUpdate)).Put("/{id}", h.updateUser)
	r.With(h.enforcer.Require(authz.OpUsersDelete)).Delete("/{id}", h.deleteUser)
	r.With(h.enforcer.Require(authz.OpUsersAssignRole)).Post("/{id}/roles", h.assignRole)
	r.With(h.enforcer.Require(authz.OpUsersRevokeRole)).Delete("/{id}/roles/{role}", h.revokeRole)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	user, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context(), shared.ParsePage(r))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	user, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	username, err := h.service.Delete(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":     "User '" + username + "' deleted successfully",
		"deletedUser": map[string]string{"id": id, "username": username},
	})
}

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

type rolesResponse struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	var in roleRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if err := h.service.validate.Struct(in); err != nil {
		httpx.RespondError(w, r, h.logger, httpx.ValidationError(err))
		return
	}
	id := chi.URLParam(r, "id")
	roles, err := h.service.AssignRole(r.Context(), id, in.Role)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rolesResponse{UserID: id, Roles: roles})
}

func (h *Handler) revokeRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	roles, err := h.service.RevokeRole(r.Context(), id, chi.URLParam(r, "role"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rolesResponse{UserID: id, Roles: roles})
}
