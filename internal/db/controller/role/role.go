// Package role provides persistence operations for roles and their
// permission sets.
//
// Every read returns roles with Permissions preloaded.
package role

import (
	"errors"

	"gorm.io/gorm"

	permissioncontroller "github.com/guardpost/guardpost/internal/db/controller/permission"
	"github.com/guardpost/guardpost/internal/db/models"
)

const (
	nameQueryPattern = "name = ?"

	permissionsRelation = "Permissions"
)

var (
	// ErrRoleNotFound is returned when a role is not found.
	ErrRoleNotFound = errors.New("role not found")
	// ErrNameExists is returned when attempting to create a role with a name that already exists.
	ErrNameExists = errors.New("role with this name already exists")
	// ErrPermissionAlreadyGranted is returned when granting a permission the role already has.
	ErrPermissionAlreadyGranted = errors.New("role already has this permission")
	// ErrPermissionNotGranted is returned when revoking a permission the role does not have.
	ErrPermissionNotGranted = errors.New("role does not have this permission")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// GetByID retrieves a role by ID with its permissions loaded.
func GetByID(db *gorm.DB, id string) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var role models.Role
	result := db.Preload(permissionsRelation).First(&role, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, result.Error
	}

	return &role, nil
}

// GetByName retrieves a role by name with its permissions loaded.
func GetByName(db *gorm.DB, name string) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var role models.Role
	result := db.Preload(permissionsRelation).Where(nameQueryPattern, name).First(&role)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, result.Error
	}

	return &role, nil
}

// List retrieves roles with pagination and an optional search by name.
func List(db *gorm.DB, search string, limit, offset int) ([]models.Role, int64, error) {
	if db == nil {
		return nil, 0, ErrDBNil
	}

	var (
		roles []models.Role
		total int64
		tx    = db.Model(&models.Role{})
	)

	if search != "" {
		tx = tx.Where("name LIKE ?", "%"+search+"%")
	}

	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := tx.Preload(permissionsRelation).
		Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&roles).Error; err != nil {
		return nil, 0, err
	}

	return roles, total, nil
}

// Create creates a new role.
func Create(db *gorm.DB, role *models.Role) error {
	if db == nil {
		return ErrDBNil
	}

	// Check if role already exists
	var existing models.Role
	result := db.Where(nameQueryPattern, role.Name).First(&existing)
	if result.Error == nil {
		return ErrNameExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	if err := db.Create(role).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrNameExists
		}
		return err
	}

	return nil
}

// Update persists changed role fields.
func Update(db *gorm.DB, role *models.Role) error {
	if db == nil {
		return ErrDBNil
	}

	if err := db.Omit(permissionsRelation).Save(role).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrNameExists
		}
		return err
	}

	return nil
}

// Delete removes a role by ID.
func Delete(db *gorm.DB, id string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Delete(&models.Role{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoleNotFound
	}

	return nil
}

// AddPermission grants a permission to a role. Granting a permission the
// role already holds returns ErrPermissionAlreadyGranted.
func AddPermission(db *gorm.DB, roleID, permissionID string) error {
	if db == nil {
		return ErrDBNil
	}

	role, err := GetByID(db, roleID)
	if err != nil {
		return err
	}

	permission, err := permissioncontroller.GetByID(db, permissionID)
	if err != nil {
		return err
	}

	if role.HasPermission(permission.Name) {
		return ErrPermissionAlreadyGranted
	}

	return db.Model(role).Association(permissionsRelation).Append(permission)
}

// RemovePermission revokes a permission from a role. Revoking a
// permission the role does not hold returns ErrPermissionNotGranted.
func RemovePermission(db *gorm.DB, roleID, permissionID string) error {
	if db == nil {
		return ErrDBNil
	}

	role, err := GetByID(db, roleID)
	if err != nil {
		return err
	}

	permission, err := permissioncontroller.GetByID(db, permissionID)
	if err != nil {
		return err
	}

	if !role.HasPermission(permission.Name) {
		return ErrPermissionNotGranted
	}

	return db.Model(role).Association(permissionsRelation).Delete(permission)
}

// SetActive activates or deactivates a role.
func SetActive(db *gorm.DB, id string, active bool) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.Role{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoleNotFound
	}

	return nil
}
