// Package user provides persistence operations for user accounts.
//
// Every read returns users with Roles and Roles.Permissions preloaded, so
// the authorization predicates on the model never see an unloaded relation.
package user

import (
	"errors"

	"gorm.io/gorm"

	rolecontroller "github.com/guardpost/guardpost/internal/db/controller/role"
	"github.com/guardpost/guardpost/internal/db/models"
)

const (
	emailQueryPattern = "email = ?"

	rolePermissionsRelation = "Roles.Permissions"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when attempting to create a user with an email that already exists.
	ErrEmailExists = errors.New("user with this email already exists")
	// ErrRoleAlreadyAssigned is returned when assigning a role the user already has.
	ErrRoleAlreadyAssigned = errors.New("user already has this role")
	// ErrRoleNotAssigned is returned when removing a role the user does not have.
	ErrRoleNotAssigned = errors.New("user does not have this role")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// GetByID retrieves a user by ID with roles and their permissions loaded.
func GetByID(db *gorm.DB, id string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var user models.User
	result := db.Preload(rolePermissionsRelation).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}

	return &user, nil
}

// GetByEmail retrieves a user by email with roles and their permissions loaded.
func GetByEmail(db *gorm.DB, email string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var user models.User
	result := db.Preload(rolePermissionsRelation).Where(emailQueryPattern, email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}

	return &user, nil
}

// List retrieves users with pagination and an optional search over email and names.
func List(db *gorm.DB, search string, limit, offset int) ([]models.User, int64, error) {
	if db == nil {
		return nil, 0, ErrDBNil
	}

	var (
		users []models.User
		total int64
		tx    = db.Model(&models.User{})
	)

	if search != "" {
		like := "%" + search + "%"
		tx = tx.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ?", like, like, like)
	}

	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := tx.Preload(rolePermissionsRelation).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Create creates a new user. The password must already be hashed.
func Create(db *gorm.DB, user *models.User) error {
	if db == nil {
		return ErrDBNil
	}

	// Check if user already exists
	var existing models.User
	result := db.Where(emailQueryPattern, user.Email).First(&existing)
	if result.Error == nil {
		return ErrEmailExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailExists
		}
		return err
	}

	return nil
}

// Update persists changed user fields.
func Update(db *gorm.DB, user *models.User) error {
	if db == nil {
		return ErrDBNil
	}

	if err := db.Omit("Roles").Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailExists
		}
		return err
	}

	return nil
}

// Delete removes a user by ID.
func Delete(db *gorm.DB, id string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// AddRole assigns a role to a user. Assigning a role the user already
// has returns ErrRoleAlreadyAssigned.
func AddRole(db *gorm.DB, userID, roleID string) error {
	if db == nil {
		return ErrDBNil
	}

	user, err := GetByID(db, userID)
	if err != nil {
		return err
	}

	role, err := rolecontroller.GetByID(db, roleID)
	if err != nil {
		return err
	}

	if user.HasRole(role.Name) {
		return ErrRoleAlreadyAssigned
	}

	return db.Model(user).Association("Roles").Append(role)
}

// RemoveRole removes a role from a user. Removing a role the user does
// not have returns ErrRoleNotAssigned.
func RemoveRole(db *gorm.DB, userID, roleID string) error {
	if db == nil {
		return ErrDBNil
	}

	user, err := GetByID(db, userID)
	if err != nil {
		return err
	}

	role, err := rolecontroller.GetByID(db, roleID)
	if err != nil {
		return err
	}

	if !user.HasRole(role.Name) {
		return ErrRoleNotAssigned
	}

	return db.Model(user).Association("Roles").Delete(role)
}

// SetActive activates or deactivates a user account.
func SetActive(db *gorm.DB, id string, active bool) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.User{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// VerifyEmail marks a user's email address as verified.
func VerifyEmail(db *gorm.DB, id string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.User{}).Where("id = ?", id).Update("is_email_verified", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdatePassword persists a new password hash for a user.
func UpdatePassword(db *gorm.DB, id, hashedPassword string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.User{}).Where("id = ?", id).Update("password", hashedPassword)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
