package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role represents a role in the role-based access control (RBAC) system.
// Roles are collections of permissions that can be assigned to users.
// Examples include "admin" and "user" roles.
type Role struct {
	// ID is the unique identifier for the role.
	ID string `gorm:"type:uuid;primaryKey" json:"id"`
	// Name is the unique name of the role (e.g., "admin", "user").
	Name string `gorm:"unique;size:100;not null" json:"name"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255" json:"description"`
	// IsActive indicates whether the role is active.
	IsActive bool `gorm:"default:true" json:"isActive"`
	// Permissions are the permissions granted to this role (many-to-many).
	Permissions []Permission `gorm:"many2many:role_permissions;constraint:OnDelete:CASCADE" json:"permissions"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}

// BeforeCreate assigns a uuid primary key when none was set.
func (r *Role) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	return nil
}

// HasPermission reports whether the role carries a permission with the
// given name. The comparison is a case-sensitive exact match; there are
// no wildcard or hierarchy semantics.
func (r *Role) HasPermission(name string) bool {
	for i := range r.Permissions {
		if r.Permissions[i].Name == name {
			return true
		}
	}

	return false
}

// PermissionNames returns the names of all permissions granted to the role.
func (r *Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for i := range r.Permissions {
		names = append(names, r.Permissions[i].Name)
	}

	return names
}
