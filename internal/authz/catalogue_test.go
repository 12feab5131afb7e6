package authz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogue(t *testing.T) {
	c, err := DefaultCatalogue()
	require.NoError(t, err)

	assert.Equal(t, []Role{RoleAdmin, RoleUser}, c.Roles())
	assert.Len(t, c.Permissions(), 12)
	assert.Equal(t, c.Permissions(), c.PermissionsFor(RoleAdmin))
	assert.Equal(t, []Permission{PermReadUser, PermReadBook, PermReadProduct}, c.PermissionsFor(RoleUser))
	assert.Equal(t, "Administrator with full access", c.RoleDescription(RoleAdmin))
	assert.Equal(t, []Role{RoleAdmin, RoleUser}, c.RolesGranting(PermReadProduct))
	assert.Equal(t, []Role{RoleAdmin}, c.RolesGranting(PermDeleteProduct))
}

func TestPermissionsForUnknownRoleIsEmpty(t *testing.T) {
	c, err := DefaultCatalogue()
	require.NoError(t, err)

	perms := c.PermissionsFor("AUDITOR")
	assert.NotNil(t, perms)
	assert.Empty(t, perms)
}

func TestDerivePermissionsIsUnion(t *testing.T) {
	c := testCatalogue(t)
	assert.Equal(t, []Permission{"A", "B", "C"}, c.DerivePermissions([]Role{"ADMIN", "USER"}))
	assert.Equal(t, []Permission{"B", "C"}, c.DerivePermissions([]Role{"USER", "USER"}))
	assert.Empty(t, c.DerivePermissions(nil))
}

func TestParseRoleCanonicalises(t *testing.T) {
	c, err := DefaultCatalogue()
	require.NoError(t, err)

	r, ok := c.ParseRole(" admin ")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, r)

	_, ok = c.ParseRole("superuser")
	assert.False(t, ok)

	p, ok := c.ParsePermission("read_product")
	assert.True(t, ok)
	assert.Equal(t, PermReadProduct, p)
}

func TestNewCatalogueRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name  string
		roles []RoleDefinition
		perms []PermissionDefinition
	}{
		{name: "undeclared permission", roles: []RoleDefinition{{Name: "ADMIN", Permissions: []Permission{"X"}}}},
		{name: "duplicate role", roles: []RoleDefinition{{Name: "ADMIN"}, {Name: "admin"}}},
		{name: "duplicate permission", roles: []RoleDefinition{{Name: "ADMIN"}}, perms: []PermissionDefinition{{Name: "A"}, {Name: "A"}}},
		{name: "empty role name", roles: []RoleDefinition{{Name: " "}}},
		{name: "empty permission name", roles: []RoleDefinition{{Name: "ADMIN"}}, perms: []PermissionDefinition{{Name: ""}}},
		{name: "no roles"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCatalogue(tc.roles, tc.perms)
			assert.ErrorIs(t, err, ErrInvalidCatalogue)
		})
	}
}

func TestParseCatalogueRejectsUnknownFields(t *testing.T) {
	_, err := ParseCatalogue([]byte("roles:\n  - name: ADMIN\n    parent: USER\n"))
	assert.ErrorIs(t, err, ErrInvalidCatalogue)
}

func TestLoadCatalogueFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogue.yaml")
	data := []byte(`roles:
  - name: editor
    permissions: [read_book, update_book]
permissions:
  - name: read_book
  - name: update_book
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	c, err := LoadCatalogueFile(path)
	require.NoError(t, err)
	assert.Equal(t, []Role{"EDITOR"}, c.Roles())
	assert.Equal(t, []Permission{"READ_BOOK", "UPDATE_BOOK"}, c.PermissionsFor("EDITOR"))

	_, err = LoadCatalogueFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
