package products

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookapi/book-api/internal/authz"
	"github.com/bookapi/book-api/internal/platform/httpx"
	"github.com/bookapi/book-api/internal/shared"
)

// Handler exposes product endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	enforcer *authz.Enforcer
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, enforcer *authz.Enforcer) *Handler {
	return &Handler{logger: logger, service: service, enforcer: enforcer}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.enforcer.Require(authz.OpProductsCreate)).Post("/", h.createProduct)
	r.With(h.enforcer.Require(authz.OpProductsCreateBulk)).Post("/bulk", h.createProducts)
	r.With(h.enforcer.Require(authz.OpProductsList)).Get("/", h.listProducts)
	r.With(h.enforcer.Require(authz.OpProductsGet)).Get("/{id}", h.getProduct)
	r.With(h.enforcer.Require(authz.OpProductsUpdate)).Patch("/{id}", h.updateProduct)
	r.With(h.enforcer.Require(authz.OpProductsDelete)).Delete("/{id}", h.deleteProduct)
}

type productResponse struct {
	Product
	Message string `json:"message"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	product, err := h.service.Create(r.Context(), creatorID(r), in)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, productResponse{Product: product, Message: "Product created successfully"})
}

func (h *Handler) createProducts(w http.ResponseWriter, r *http.Request) {
	var in []CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	result, err := h.service.CreateMany(r.Context(), creatorID(r), in)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context(), shared.ParsePage(r))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	product, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, productResponse{Product: product, Message: "Product updated successfully"})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name, err := h.service.Delete(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":        "Product '" + name + "' deleted successfully",
		"deletedProduct": map[string]string{"id": id, "name": name},
	})
}

// creatorID returns the authenticated subject; enforcement guarantees one
// exists on every product route.
func creatorID(r *http.Request) string {
	if id := authz.IdentityFromContext(r.Context()); id != nil {
		return id.Subject
	}
	return ""
}
