package authz

import (
	"fmt"
	"strings"
)

// DenialKind classifies why a request was denied.
type DenialKind int

const (
	// DenialNone marks an allowed decision.
	DenialNone DenialKind = iota
	// DenialUnauthenticated means no verified identity was presented.
	DenialUnauthenticated
	// DenialNoRolesAssigned means the caller is authenticated but holds no roles.
	DenialNoRolesAssigned
	// DenialInsufficientRole means none of the required roles is held.
	DenialInsufficientRole
	// DenialInsufficientPermission means at least one required permission is missing.
	DenialInsufficientPermission
)

func (k DenialKind) String() string {
	switch k {
	case DenialNone:
		return "none"
	case DenialUnauthenticated:
		return "unauthenticated"
	case DenialNoRolesAssigned:
		return "no_roles_assigned"
	case DenialInsufficientRole:
		return "insufficient_role"
	case DenialInsufficientPermission:
		return "insufficient_permission"
	default:
		return fmt.Sprintf("denial(%d)", int(k))
	}
}

// Decision is the outcome of one evaluation. The zero value allows.
type Decision struct {
	Denial DenialKind

	// Set for DenialInsufficientRole.
	RequiredRoles []Role
	ActualRoles   []Role

	// Set for DenialInsufficientPermission.
	MissingPermissions   []Permission
	EffectivePermissions []Permission
}

// Allowed reports whether the decision lets the operation run.
func (d Decision) Allowed() bool {
	return d.Denial == DenialNone
}

// Outcome is a short label for metrics and logs.
func (d Decision) Outcome() string {
	if d.Allowed() {
		return "allow"
	}
	return d.Denial.String()
}

// Message renders the user-facing reason. Allowed decisions render "".
func (d Decision) Message() string {
	switch d.Denial {
	case DenialNone:
		return ""
	case DenialUnauthenticated:
		return "Authentication required. Please provide a valid token."
	case DenialNoRolesAssigned:
		return "Access denied. No roles assigned to user."
	case DenialInsufficientRole:
		return fmt.Sprintf("Access denied. Required roles: %s. Your roles: %s",
			joinNames(d.RequiredRoles), joinNames(d.ActualRoles))
	case DenialInsufficientPermission:
		return fmt.Sprintf("Access denied. Missing permissions: %s. Your permissions: %s",
			joinNames(d.MissingPermissions), joinNames(d.EffectivePermissions))
	default:
		return "Access denied."
	}
}

func joinNames[T ~string](names []T) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}
