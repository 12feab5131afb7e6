package products

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookapi/book-api/internal/authz"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	catalogue, err := authz.DefaultCatalogue()
	require.NoError(t, err)
	registry, err := authz.NewRegistry(catalogue, authz.DefaultOperations())
	require.NoError(t, err)
	enforcer := authz.NewEnforcer(authz.NewEngine(catalogue), registry, nil, nil)

	r := chi.NewRouter()
	r.Route("/products", NewHandler(nil, NewService(newMemoryStore(), nil), enforcer).MountRoutes)
	return r
}

func send(t *testing.T, h http.Handler, method, path, body string, id *authz.Identity) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if id != nil {
		req = req.WithContext(authz.ContextWithIdentity(req.Context(), id))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var (
	admin  = authz.NewIdentity(creator, authz.RoleAdmin)
	reader = authz.NewIdentity(creator, authz.RoleUser)
)

const kindle = `{"name":"Kindle","description":"E-reader","price":129.99,"stock":10}`

func TestProductRoutesEnforcePermissions(t *testing.T) {
	h := newTestRouter(t)

	rec := send(t, h, http.MethodGet, "/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = send(t, h, http.MethodPost, "/products", kindle, reader)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing permissions: CREATE_PRODUCT")

	rec = send(t, h, http.MethodGet, "/products", "", reader)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = send(t, h, http.MethodPost, "/products", kindle, authz.NewIdentity(creator))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "No roles assigned")
}

func TestProductLifecycle(t *testing.T) {
	h := newTestRouter(t)

	rec := send(t, h, http.MethodPost, "/products", kindle, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Product
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Product created successfully", created.Message)
	assert.Equal(t, 129.99, created.Price)

	rec = send(t, h, http.MethodPost, "/products", kindle, admin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = send(t, h, http.MethodGet, "/products/"+created.ID, "", reader)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = send(t, h, http.MethodPatch, "/products/"+created.ID, `{"stock":3}`, reader)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(t, h, http.MethodPatch, "/products/"+created.ID, `{"stock":3}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stock":3`)
	assert.Contains(t, rec.Body.String(), "Product updated successfully")

	rec = send(t, h, http.MethodPatch, "/products/"+created.ID, `{}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Update data is required and cannot be empty")

	rec = send(t, h, http.MethodDelete, "/products/"+created.ID, "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted struct {
		Message        string            `json:"message"`
		DeletedProduct map[string]string `json:"deletedProduct"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.Equal(t, "Product 'Kindle' deleted successfully", deleted.Message)
	assert.Equal(t, map[string]string{"id": created.ID, "name": "Kindle"}, deleted.DeletedProduct)

	rec = send(t, h, http.MethodGet, "/products/"+created.ID, "", admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Product with ID '"+created.ID+"' not found")
}

func TestBulkCreateAndList(t *testing.T) {
	h := newTestRouter(t)

	body := `[{"name":"A","description":"a","price":1,"stock":1},{"name":"B","description":"b","price":2,"stock":0}]`
	rec := send(t, h, http.MethodPost, "/products/bulk", body, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var bulk BulkResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bulk))
	assert.Equal(t, 2, bulk.Count)
	assert.Equal(t, "Successfully created 2 products", bulk.Message)

	rec = send(t, h, http.MethodPost, "/products/bulk", `[]`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(t, h, http.MethodGet, "/products?page=1&limit=1", "", reader)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Products []Product     `json:"products"`
		Meta     map[string]int `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Products, 1)
	assert.Equal(t, map[string]int{"total": 2, "page": 1, "limit": 1, "totalPages": 2}, list.Meta)
}

func TestProductRoutesRejectInvalidIDs(t *testing.T) {
	h := newTestRouter(t)
	rec := send(t, h, http.MethodGet, "/products/123", "", reader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = send(t, h, http.MethodDelete, "/products/123", "", admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
