package authz

import (
	"context"
	"slices"
)

// Identity is the authenticated caller for one request. A nil *Identity
// means no verified token was presented.
type Identity struct {
	Subject string
	Roles   []Role
}

// NewIdentity builds an Identity with duplicate roles collapsed.
func NewIdentity(subject string, roles ...Role) *Identity {
	return &Identity{Subject: subject, Roles: roleSet(roles)}
}

// HasRole reports whether the identity holds r.
func (i *Identity) HasRole(r Role) bool {
	return i != nil && slices.Contains(i.Roles, r)
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context, nil when absent.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}

func roleSet(roles []Role) []Role {
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return out
}
