package auth

// Permission constants define the available permissions in the system.
// These are used for role-based access control (RBAC) to restrict access
// to specific resources and actions. Names follow resource:action form.
const (
	// PermUsersCreate allows creating user accounts.
	PermUsersCreate = "users:create"
	// PermUsersRead allows viewing user accounts.
	PermUsersRead = "users:read"
	// PermUsersUpdate allows editing user accounts.
	PermUsersUpdate = "users:update"
	// PermUsersDelete allows deleting user accounts.
	PermUsersDelete = "users:delete"

	// PermRolesCreate allows creating roles.
	PermRolesCreate = "roles:create"
	// PermRolesRead allows viewing roles.
	PermRolesRead = "roles:read"
	// PermRolesUpdate allows editing roles and their permission sets.
	PermRolesUpdate = "roles:update"
	// PermRolesDelete allows deleting roles.
	PermRolesDelete = "roles:delete"

	// PermPermissionsCreate allows creating permissions.
	PermPermissionsCreate = "permissions:create"
	// PermPermissionsRead allows viewing permissions.
	PermPermissionsRead = "permissions:read"
	// PermPermissionsUpdate allows editing permissions.
	PermPermissionsUpdate = "permissions:update"
	// PermPermissionsDelete allows deleting permissions.
	PermPermissionsDelete = "permissions:delete"
)

// Default role names created by the bootstrap seeder.
const (
	// RoleAdmin is the administrator role holding every default permission.
	RoleAdmin = "admin"
	// RoleUser is the basic role assigned to regular accounts.
	RoleUser = "user"
)

// Default administrator account created by the bootstrap seeder.
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "admin123"
)

// DefaultPermissions lists every permission the seeder ensures exists.
func DefaultPermissions() []string {
	return []string{
		PermUsersCreate,
		PermUsersRead,
		PermUsersUpdate,
		PermUsersDelete,
		PermRolesCreate,
		PermRolesRead,
		PermRolesUpdate,
		PermRolesDelete,
		PermPermissionsCreate,
		PermPermissionsRead,
		PermPermissionsUpdate,
		PermPermissionsDelete,
	}
}

// DefaultRolePermissions maps default role names to the permission names
// the seeder grants them.
func DefaultRolePermissions() map[string][]string {
	return map[string][]string{
		RoleAdmin: DefaultPermissions(),
		RoleUser: {
			PermUsersRead,
		},
	}
}
