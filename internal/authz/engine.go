package authz

import "slices"

// Engine decides whether an identity satisfies a requirement. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	catalogue *Catalogue
}

// NewEngine constructs an Engine over the catalogue.
func NewEngine(catalogue *Catalogue) *Engine {
	return &Engine{catalogue: catalogue}
}

// Catalogue exposes the catalogue the engine derives permissions from.
func (e *Engine) Catalogue() *Catalogue {
	return e.catalogue
}

// Decide evaluates req for id. The first failing rule determines the
// denial; later rules are not evaluated. A nil id is an unauthenticated
// caller.
func (e *Engine) Decide(id *Identity, req Requirement) Decision {
	if req.IsPublic() {
		return Decision{}
	}
	if id == nil {
		return Decision{Denial: DenialUnauthenticated}
	}
	held := roleSet(id.Roles)
	if len(held) == 0 {
		return Decision{Denial: DenialNoRolesAssigned}
	}

	if len(req.Roles) > 0 && !slices.ContainsFunc(req.Roles, func(r Role) bool {
		return slices.Contains(held, r)
	}) {
		return Decision{
			Denial:        DenialInsufficientRole,
			RequiredRoles: slices.Clone(req.Roles),
			ActualRoles:   held,
		}
	}

	if len(req.Permissions) > 0 {
		effective := e.catalogue.DerivePermissions(held)
		var missing []Permission
		for _, p := range req.Permissions {
			if !slices.Contains(effective, p) && !slices.Contains(missing, p) {
				missing = append(missing, p)
			}
		}
		if len(missing) > 0 {
			return Decision{
				Denial:               DenialInsufficientPermission,
				MissingPermissions:   missing,
				EffectivePermissions: effective,
			}
		}
	}

	return Decision{}
}
