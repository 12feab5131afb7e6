package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	tests := []struct {
		err    error
		status int
		detail string
	}{
		{Errorf(ErrNotFound, "Product with ID '%s' not found", "42"), http.StatusNotFound, "Product with ID '42' not found"},
		{fmt.Errorf("wrap: %w", Errorf(ErrDuplicate, "A product with this name already exists")), http.StatusConflict, "A product with this name already exists"},
		{Errorf(ErrValidation, "bad"), http.StatusBadRequest, "bad"},
		{Errorf(ErrUnauthorized, "Invalid credentials"), http.StatusUnauthorized, "Invalid credentials"},
		{Errorf(ErrForbidden, "no"), http.StatusForbidden, "no"},
		{errors.New("pg: connection refused"), http.StatusInternalServerError, "Internal server error. Please try again later."},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		RespondError(rec, httptest.NewRequest(http.MethodGet, "/products/42", nil), nil, tc.err)

		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		var problem ProblemDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
		assert.Equal(t, tc.detail, problem.Detail)
		assert.Equal(t, tc.status, problem.Status)
		assert.Equal(t, "/products/42", problem.Instance)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, DecodeJSON(req, &dst))
	assert.Equal(t, "x", dst.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
	assert.ErrorIs(t, DecodeJSON(req, &dst), ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	err := DecodeJSON(req, &dst)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Bad request: request body is required", err.Error())
}

func TestValidationErrorUsesJSONNames(t *testing.T) {
	type payload struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"min=8"`
	}
	err := NewValidator().Struct(payload{Email: "nope", Password: "short"})
	require.Error(t, err)

	verr := ValidationError(err)
	assert.ErrorIs(t, verr, ErrValidation)
	assert.Equal(t, "Validation failed: email must be a valid email; password must be at least 8", verr.Error())
}
