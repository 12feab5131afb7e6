package auth

import (
	"errors"
	"time"

	"github.com/bookapi/book-api/internal/authz"
	"github.com/bookapi/book-api/internal/users"
)

// ErrInvalidToken is returned for tokens that fail signature, issuer or
// expiry checks.
var ErrInvalidToken = errors.New("auth: invalid token")

// Credentials is the login view of an account.
type Credentials struct {
	UserID       string
	Email        string
	PasswordHash string
}

// Session is returned by register and login.
type Session struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresAt   time.Time  `json:"expires_at"`
	User        users.User `json:"user"`
}

// Profile describes the caller together with the permissions derived from
// their roles.
type Profile struct {
	users.User
	Permissions []authz.Permission `json:"permissions"`
}

// RegisterInput is the payload of POST /auth/register.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// LoginInput is the payload of POST /auth/login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
