package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookapi/book-api/internal/authz"
	"github.com/bookapi/book-api/internal/platform/httpx"
	"github.com/bookapi/book-api/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	enforcer *authz.Enforcer
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, enforcer *authz.Enforcer) *Handler {
	return &Handler{logger: logger, service: service, enforcer: enforcer}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.enforcer.Require(authz.OpAuthRegister)).Post("/register", h.register)
	r.With(h.enforcer.Require(authz.OpAuthLogin)).Post("/login", h.login)
	r.With(h.enforcer.Require(authz.OpAuthProfile)).Get("/profile", h.profile)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	session, err := h.service.Register(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, session)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	session, err := h.service.Login(r.Context(), in)
	if errors.Is(err, shared.ErrInvalidCredentials) {
		httpx.Problem(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid credentials")
		return
	}
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, session)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Profile(r.Context(), authz.IdentityFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}
