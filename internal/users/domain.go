package users

import (
	"errors"
	"time"
)

// ErrNotFound indicates that the user does not exist.
var ErrNotFound = errors.New("users: not found")

// User is a registered account. The password hash never leaves the
// repository layer.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInput is the payload for creating a user.
type CreateInput struct {
	Email     string   `json:"email" validate:"required,email,max=255"`
	Username  string   `json:"username" validate:"required,min=3,max=50"`
	Password  string   `json:"password" validate:"required,min=8,max=72"`
	FirstName string   `json:"first_name" validate:"max=100"`
	LastName  string   `json:"last_name" validate:"max=100"`
	Roles     []string `json:"roles" validate:"omitempty,dive,required"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	Username  *string `json:"username" validate:"omitempty,min=3,max=50"`
	Password  *string `json:"password" validate:"omitempty,min=8,max=72"`
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
}

// IsEmpty reports whether the update carries no field.
func (in UpdateInput) IsEmpty() bool {
	return in.Email == nil && in.Username == nil && in.Password == nil && in.FirstName == nil && in.LastName == nil
}

// NewUser holds a validated account ready to be stored.
type NewUser struct {
	ID           string
	Email        string
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	Roles        []string
}

// Changes holds the validated columns of an update.
type Changes struct {
	Email        *string
	Username     *string
	PasswordHash *string
	FirstName    *string
	LastName     *string
}

// ListResult is one page of users.
type ListResult struct {
	Items []User `json:"items"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}
