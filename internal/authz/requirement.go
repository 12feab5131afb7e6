package authz

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidRequirement reports a requirement naming roles or permissions
// that the catalogue does not declare.
var ErrInvalidRequirement = errors.New("authz: invalid requirement")

// Operation identifies a protected operation, e.g. "products.create".
type Operation string

// Requirement declares the roles and permissions needed to invoke an
// operation. Roles match ANY-of, permissions match ALL-of, and both groups
// must pass when both are set.
type Requirement struct {
	Roles       []Role
	Permissions []Permission
}

// Public returns a requirement that lets every caller through.
func Public() Requirement {
	return Requirement{}
}

// AnyRole requires the caller to hold at least one of roles.
func AnyRole(roles ...Role) Requirement {
	return Requirement{Roles: roles}
}

// AllPermissions requires the caller to hold every one of perms.
func AllPermissions(perms ...Permission) Requirement {
	return Requirement{Permissions: perms}
}

// IsPublic reports whether the requirement declares nothing.
func (r Requirement) IsPublic() bool {
	return len(r.Roles) == 0 && len(r.Permissions) == 0
}

func (r Requirement) clone() Requirement {
	return Requirement{
		Roles:       slices.Clone(r.Roles),
		Permissions: slices.Clone(r.Permissions),
	}
}

// Registry maps operations to their requirements. It is built once at
// startup and read-only afterwards.
type Registry struct {
	requirements map[Operation]Requirement
}

// NewRegistry validates every requirement against the catalogue. Duplicate
// entries inside a requirement collapse; declaration order is kept.
func NewRegistry(catalogue *Catalogue, table map[Operation]Requirement) (*Registry, error) {
	reg := &Registry{requirements: make(map[Operation]Requirement, len(table))}
	for op, req := range table {
		if op == "" {
			return nil, fmt.Errorf("%w: empty operation id", ErrInvalidRequirement)
		}
		var normalized Requirement
		for _, role := range req.Roles {
			r, ok := catalogue.ParseRole(string(role))
			if !ok {
				return nil, fmt.Errorf("%w: %s requires unknown role %q", ErrInvalidRequirement, op, role)
			}
			if !slices.Contains(normalized.Roles, r) {
				normalized.Roles = append(normalized.Roles, r)
			}
		}
		for _, perm := range req.Permissions {
			p, ok := catalogue.ParsePermission(string(perm))
			if !ok {
				return nil, fmt.Errorf("%w: %s requires unknown permission %q", ErrInvalidRequirement, op, perm)
			}
			if !slices.Contains(normalized.Permissions, p) {
				normalized.Permissions = append(normalized.Permissions, p)
			}
		}
		reg.requirements[op] = normalized
	}
	return reg, nil
}

// Lookup returns a copy of the requirement registered for op.
func (r *Registry) Lookup(op Operation) (Requirement, bool) {
	req, ok := r.requirements[op]
	if !ok {
		return Requirement{}, false
	}
	return req.clone(), true
}

// Operations lists the registered operations in lexical order.
func (r *Registry) Operations() []Operation {
	ops := make([]Operation, 0, len(r.requirements))
	for op := range r.requirements {
		ops = append(ops, op)
	}
	slices.Sort(ops)
	return ops
}

// MustLookup is Lookup for startup wiring; it panics when op is missing.
func (r *Registry) MustLookup(op Operation) Requirement {
	req, ok := r.Lookup(op)
	if !ok {
		panic(fmt.Sprintf("authz: operation %q is not registered", op))
	}
	return req
}
