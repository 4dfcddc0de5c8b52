package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BcryptCost is the fixed bcrypt work factor used for credential hashes.
const BcryptCost = 12

// User represents a user account in the system.
// Users authenticate with email and password and are assigned roles,
// which in turn carry the permissions evaluated by the guards.
type User struct {
	// ID is the unique identifier for the user.
	ID string `gorm:"type:uuid;primaryKey" json:"id"`
	// Email is the unique email address used for login.
	Email string `gorm:"unique;size:255;not null" json:"email"`
	// Password is the bcrypt hashed password. Never exposed.
	Password string `gorm:"size:255;not null" json:"-"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:100" json:"firstName"`
	// LastName is the user's last or family name.
	LastName string `gorm:"size:100" json:"lastName"`
	// IsActive indicates whether the user account is active and can log in.
	IsActive bool `gorm:"default:true" json:"isActive"`
	// IsEmailVerified indicates whether the user's email address was verified.
	IsEmailVerified bool `gorm:"default:false" json:"isEmailVerified"`
	// Roles are the roles assigned to this user (many-to-many).
	Roles []Role `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE" json:"roles"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a uuid primary key when none was set.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	return nil
}

// HashPassword hashes a plaintext password using bcrypt with BcryptCost.
// This function should be used when creating or updating user passwords.
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		log.Error().Msgf("failed to hash password: %v", err)
		return "", err
	}

	return string(hashedPassword), nil
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
// Returns true if the password matches, false otherwise.
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// HasRole reports whether the user is assigned a role with the given name.
// The comparison is a case-sensitive exact match. Roles must have been
// loaded by the store read that produced this user.
func (u *User) HasRole(name string) bool {
	for i := range u.Roles {
		if u.Roles[i].Name == name {
			return true
		}
	}

	return false
}

// HasPermission reports whether any of the user's roles carries a
// permission with the given name.
func (u *User) HasPermission(name string) bool {
	for i := range u.Roles {
		if u.Roles[i].HasPermission(name) {
			return true
		}
	}

	return false
}

// PermissionNames returns the flattened permission set: the union of
// permission names across all of the user's roles, duplicates removed.
func (u *User) PermissionNames() []string {
	seen := make(map[string]bool)
	names := make([]string, 0)

	for i := range u.Roles {
		for j := range u.Roles[i].Permissions {
			name := u.Roles[i].Permissions[j].Name
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	return names
}

// RoleNames returns the names of all roles assigned to the user.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for i := range u.Roles {
		names = append(names, u.Roles[i].Name)
	}

	return names
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
