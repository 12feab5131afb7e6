package rbac

import (
	"errors"
	"time"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("rbac: not found")

// ErrUserNotFound is returned when a role operation targets a missing user.
var ErrUserNotFound = errors.New("rbac: user not found")

// Role is the persisted mirror of a catalogue role.
type Role struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

// Permission is the persisted mirror of a catalogue permission.
type Permission struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Roles       []string  `json:"roles"`
	CreatedAt   time.Time `json:"created_at"`
}

// Grant ties a permission to a role.
type Grant struct {
	Role       string
	Permission string
}

// Snapshot is the full catalogue content written by a sync.
type Snapshot struct {
	Roles       []Role
	Permissions []Permission
	Grants      []Grant
}

// RolePage is one page of the role listing.
type RolePage struct {
	Items []Role `json:"items"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// PermissionPage is one page of the permission listing.
type PermissionPage struct {
	Items []Permission `json:"items"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}
