package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error carries a user-facing message on top of one of the sentinel kinds.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Errorf builds an *Error of the given kind.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	detail := err.Error()
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, r, http.StatusNotFound, "Not Found", detail)
	case errors.Is(err, ErrDuplicate):
		Problem(w, r, http.StatusConflict, "Conflict", detail)
	case errors.Is(err, ErrValidation):
		Problem(w, r, http.StatusBadRequest, "Bad Request", detail)
	case errors.Is(err, ErrForbidden):
		Problem(w, r, http.StatusForbidden, "Forbidden", detail)
	case errors.Is(err, ErrUnauthorized):
		Problem(w, r, http.StatusUnauthorized, "Unauthorized", detail)
	default:
		if logger != nil {
			logger.Error("unhandled error", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		Problem(w, r, http.StatusInternalServerError, "Internal Server Error", "Internal server error. Please try again later.")
	}
}

// ValidationError converts validator output into an ErrValidation error.
func ValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errorf(ErrValidation, "Validation failed: %v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return Errorf(ErrValidation, "Validation failed: %s", strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must not be less than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
