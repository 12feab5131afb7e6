package authz

// Roles declared by the built-in catalogue.
const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Permissions declared by the built-in catalogue.
const (
	PermCreateUser Permission = "CREATE_USER"
	PermReadUser   Permission = "READ_USER"
	PermUpdateUser Permission = "UPDATE_USER"
	PermDeleteUser Permission = "DELETE_USER"

	PermCreateBook Permission = "CREATE_BOOK"
	PermReadBook   Permission = "READ_BOOK"
	PermUpdateBook Permission = "UPDATE_BOOK"
	PermDeleteBook Permission = "DELETE_BOOK"

	PermCreateProduct Permission = "CREATE_PRODUCT"
	PermReadProduct   Permission = "READ_PRODUCT"
	PermUpdateProduct Permission = "UPDATE_PRODUCT"
	PermDeleteProduct Permission = "DELETE_PRODUCT"
)

// Operations served by the HTTP API.
const (
	OpHealth Operation = "system.health"

	OpAuthRegister Operation = "auth.register"
	OpAuthLogin    Operation = "auth.login"
	OpAuthProfile  Operation = "auth.profile"

	OpUsersCreate     Operation = "users.create"
	OpUsersList       Operation = "users.list"
	OpUsersGet        Operation = "users.get"
	OpUsersUpdate     Operation = "users.update"
	OpUsersDelete     Operation = "users.delete"
	OpUsersAssignRole Operation = "users.roles.assign"
	OpUsersRevokeRole Operation = "users.roles.revoke"

	OpRolesList       Operation = "roles.list"
	OpRolesGet        Operation = "roles.get"
	OpPermissionsList Operation = "permissions.list"
	OpPermissionsGet  Operation = "permissions.get"

	OpProductsCreate     Operation = "products.create"
	OpProductsCreateBulk Operation = "products.create_bulk"
	OpProductsList       Operation = "products.list"
	OpProductsGet        Operation = "products.get"
	OpProductsUpdate     Operation = "products.update"
	OpProductsDelete     Operation = "products.delete"
)

// DefaultOperations returns the requirement table for every API operation.
func DefaultOperations() map[Operation]Requirement {
	manageRoles := Requirement{
		Roles:       []Role{RoleAdmin},
		Permissions: []Permission{PermUpdateUser},
	}
	return map[Operation]Requirement{
		OpHealth: Public(),

		OpAuthRegister: Public(),
		OpAuthLogin:    Public(),
		OpAuthProfile:  AnyRole(RoleAdmin, RoleUser),

		OpUsersCreate:     AllPermissions(PermCreateUser),
		OpUsersList:       AllPermissions(PermReadUser),
		OpUsersGet:        AllPermissions(PermReadUser),
		OpUsersUpdate:     AllPermissions(PermUpdateUser),
		OpUsersDelete:     AllPermissions(PermDeleteUser),
		OpUsersAssignRole: manageRoles,
		OpUsersRevokeRole: manageRoles,

		OpRolesList:       AnyRole(RoleAdmin),
		OpRolesGet:        AnyRole(RoleAdmin),
		OpPermissionsList: AnyRole(RoleAdmin),
		OpPermissionsGet:  AnyRole(RoleAdmin),

		OpProductsCreate:     AllPermissions(PermCreateProduct),
		OpProductsCreateBulk: AllPermissions(PermCreateProduct),
		OpProductsList:       AllPermissions(PermReadProduct),
		OpProductsGet:        AllPermissions(PermReadProduct),
		OpProductsUpdate:     AllPermissions(PermUpdateProduct),
		OpProductsDelete:     AllPermissions(PermDeleteProduct),
	}
}
