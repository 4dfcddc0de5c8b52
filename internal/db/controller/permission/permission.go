// Package permission provides persistence operations for permissions.
package permission

import (
	"errors"

	"gorm.io/gorm"

	"github.com/guardpost/guardpost/internal/db/models"
)

const (
	nameQueryPattern = "name = ?"
)

var (
	// ErrPermissionNotFound is returned when a permission is not found.
	ErrPermissionNotFound = errors.New("permission not found")
	// ErrNameExists is returned when attempting to create a permission with a name that already exists.
	ErrNameExists = errors.New("permission with this name already exists")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// GetByID retrieves a permission by ID.
func GetByID(db *gorm.DB, id string) (*models.Permission, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var permission models.Permission
	result := db.First(&permission, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, result.Error
	}

	return &permission, nil
}

// GetByName retrieves a permission by name.
func GetByName(db *gorm.DB, name string) (*models.Permission, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var permission models.Permission
	result := db.Where(nameQueryPattern, name).First(&permission)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, result.Error
	}

	return &permission, nil
}

// GetAll retrieves all permissions ordered by name.
func GetAll(db *gorm.DB) ([]models.Permission, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var permissions []models.Permission
	result := db.Order("name ASC").Find(&permissions)
	if result.Error != nil {
		return nil, result.Error
	}

	return permissions, nil
}

// Create creates a new permission.
func Create(db *gorm.DB, permission *models.Permission) error {
	if db == nil {
		return ErrDBNil
	}

	// Check if permission already exists
	var existing models.Permission
	result := db.Where(nameQueryPattern, permission.Name).First(&existing)
	if result.Error == nil {
		return ErrNameExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	if err := db.Create(permission).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrNameExists
		}
		return err
	}

	return nil
}

// Update persists changed permission fields.
func Update(db *gorm.DB, permission *models.Permission) error {
	if db == nil {
		return ErrDBNil
	}

	if err := db.Save(permission).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrNameExists
		}
		return err
	}

	return nil
}

// Delete removes a permission by ID.
func Delete(db *gorm.DB, id string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Delete(&models.Permission{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPermissionNotFound
	}

	return nil
}

// SetActive activates or deactivates a permission.
func SetActive(db *gorm.DB, id string, active bool) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.Permission{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPermissionNotFound
	}

	return nil
}
