package authz

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ErrInvalidCatalogue reports a catalogue definition that cannot be served.
var ErrInvalidCatalogue = errors.New("authz: invalid catalogue")

//go:embed catalogue.yaml
var defaultCatalogueYAML []byte

// Role is a coarse-grained category assigned to a caller.
type Role string

// Permission is a fine-grained capability gating an operation.
type Permission string

// RoleDefinition declares a role and the permissions it grants.
type RoleDefinition struct {
	Name        Role
	Description string
	Permissions []Permission
}

// PermissionDefinition declares a permission.
type PermissionDefinition struct {
	Name        Permission
	Description string
}

// Catalogue is the immutable role to permission mapping. It is safe for
// concurrent use once constructed.
type Catalogue struct {
	roles       []Role
	permissions []Permission
	roleDesc    map[Role]string
	permDesc    map[Permission]string
	grants      map[Role]map[Permission]struct{}
}

type catalogueFile struct {
	Roles []struct {
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		Permissions []string `yaml:"permissions"`
	} `yaml:"roles"`
	Permissions []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"permissions"`
}

// DefaultCatalogue returns the catalogue compiled into the binary.
func DefaultCatalogue() (*Catalogue, error) {
	return ParseCatalogue(defaultCatalogueYAML)
}

// LoadCatalogueFile reads a YAML catalogue definition from disk.
func LoadCatalogueFile(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("authz: read catalogue: %w", err)
	}
	return ParseCatalogue(data)
}

// ParseCatalogue decodes a YAML catalogue definition and validates it.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var file catalogueFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidCatalogue, err)
	}
	roles := make([]RoleDefinition, 0, len(file.Roles))
	for _, r := range file.Roles {
		perms := make([]Permission, 0, len(r.Permissions))
		for _, p := range r.Permissions {
			perms = append(perms, Permission(p))
		}
		roles = append(roles, RoleDefinition{Name: Role(r.Name), Description: r.Description, Permissions: perms})
	}
	perms := make([]PermissionDefinition, 0, len(file.Permissions))
	for _, p := range file.Permissions {
		perms = append(perms, PermissionDefinition{Name: Permission(p.Name), Description: p.Description})
	}
	return NewCatalogue(roles, perms)
}

// NewCatalogue validates the definitions and builds a Catalogue. Names are
// canonicalised to upper case; declaration order is kept for listings.
func NewCatalogue(roles []RoleDefinition, permissions []PermissionDefinition) (*Catalogue, error) {
	c := &Catalogue{
		roleDesc: make(map[Role]string, len(roles)),
		permDesc: make(map[Permission]string, len(permissions)),
		grants:   make(map[Role]map[Permission]struct{}, len(roles)),
	}
	for _, def := range permissions {
		name := Permission(canonicalName(string(def.Name)))
		if name == "" {
			return nil, fmt.Errorf("%w: permission with empty name", ErrInvalidCatalogue)
		}
		if _, dup := c.permDesc[name]; dup {
			return nil, fmt.Errorf("%w: duplicate permission %s", ErrInvalidCatalogue, name)
		}
		c.permDesc[name] = strings.TrimSpace(def.Description)
		c.permissions = append(c.permissions, name)
	}
	for _, def := range roles {
		name := Role(canonicalName(string(def.Name)))
		if name == "" {
			return nil, fmt.Errorf("%w: role with empty name", ErrInvalidCatalogue)
		}
		if _, dup := c.grants[name]; dup {
			return nil, fmt.Errorf("%w: duplicate role %s", ErrInvalidCatalogue, name)
		}
		granted := make(map[Permission]struct{}, len(def.Permissions))
		for _, p := range def.Permissions {
			perm := Permission(canonicalName(string(p)))
			if _, ok := c.permDesc[perm]; !ok {
				return nil, fmt.Errorf("%w: role %s grants undeclared permission %q", ErrInvalidCatalogue, name, p)
			}
			granted[perm] = struct{}{}
		}
		c.grants[name] = granted
		c.roleDesc[name] = strings.TrimSpace(def.Description)
		c.roles = append(c.roles, name)
	}
	if len(c.roles) == 0 {
		return nil, fmt.Errorf("%w: no roles declared", ErrInvalidCatalogue)
	}
	return c, nil
}

// Roles lists the declared roles in declaration order.
func (c *Catalogue) Roles() []Role {
	return append([]Role(nil), c.roles...)
}

// Permissions lists the declared permissions in declaration order.
func (c *Catalogue) Permissions() []Permission {
	return append([]Permission(nil), c.permissions...)
}

// HasRole reports whether the role is declared.
func (c *Catalogue) HasRole(r Role) bool {
	_, ok := c.grants[r]
	return ok
}

// HasPermission reports whether the permission is declared.
func (c *Catalogue) HasPermission(p Permission) bool {
	_, ok := c.permDesc[p]
	return ok
}

// RoleDescription returns the human readable description of a role.
func (c *Catalogue) RoleDescription(r Role) string {
	return c.roleDesc[r]
}

// PermissionDescription returns the human readable description of a permission.
func (c *Catalogue) PermissionDescription(p Permission) string {
	return c.permDesc[p]
}

// ParseRole converts an external role name into a declared Role.
func (c *Catalogue) ParseRole(name string) (Role, bool) {
	r := Role(canonicalName(name))
	return r, c.HasRole(r)
}

// ParsePermission converts an external permission name into a declared Permission.
func (c *Catalogue) ParsePermission(name string) (Permission, bool) {
	p := Permission(canonicalName(name))
	return p, c.HasPermission(p)
}

// PermissionsFor returns the permissions granted by a role. Unknown roles
// grant nothing.
func (c *Catalogue) PermissionsFor(r Role) []Permission {
	return c.DerivePermissions([]Role{r})
}

// DerivePermissions returns the union of the permissions granted by roles,
// in catalogue declaration order.
func (c *Catalogue) DerivePermissions(roles []Role) []Permission {
	out := make([]Permission, 0, len(c.permissions))
	for _, p := range c.permissions {
		for _, r := range roles {
			if _, ok := c.grants[r][p]; ok {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// RolesGranting lists the roles that grant a permission.
func (c *Catalogue) RolesGranting(p Permission) []Role {
	var out []Role
	for _, r := range c.roles {
		if _, ok := c.grants[r][p]; ok {
			out = append(out, r)
		}
	}
	return out
}

func canonicalName(name string) string {
	// Casers carry state, so one is built per call.
	return cases.Upper(language.Und).String(strings.TrimSpace(name))
}
