package daemon

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/guardpost/guardpost/internal/auth"
	permissioncontroller "github.com/guardpost/guardpost/internal/db/controller/permission"
	rolecontroller "github.com/guardpost/guardpost/internal/db/controller/role"
	usercontroller "github.com/guardpost/guardpost/internal/db/controller/user"
	"github.com/guardpost/guardpost/internal/db/models"
)

// seed ensures the default permissions, roles and the bootstrap admin
// account exist. It is idempotent: re-running against a seeded database
// changes nothing, and duplicate-key races with a parallel instance are
// tolerated.
func seed(db *gorm.DB) error {
	if err := seedPermissions(db); err != nil {
		return err
	}

	if err := seedRoles(db); err != nil {
		return err
	}

	return seedAdminUser(db)
}

func seedPermissions(db *gorm.DB) error {
	for _, name := range auth.DefaultPermissions() {
		_, err := permissioncontroller.GetByName(db, name)
		if err == nil {
			continue
		}

		if !errors.Is(err, permissioncontroller.ErrPermissionNotFound) {
			return fmt.Errorf("failed to query permission %q: %w", name, err)
		}

		err = permissioncontroller.Create(db, &models.Permission{
			Name:        name,
			Description: "Allows " + strings.ReplaceAll(name, ":", " on "),
			IsActive:    true,
		})

		// another instance may have created it in the meantime
		if err != nil && !errors.Is(err, permissioncontroller.ErrNameExists) {
			return fmt.Errorf("failed to create permission %q: %w", name, err)
		}

		log.Info().Str("permission", name).Msg("seeded permission")
	}

	return nil
}

func seedRoles(db *gorm.DB) error {
	for roleName, permissionNames := range auth.DefaultRolePermissions() {
		role, err := rolecontroller.GetByName(db, roleName)

		if errors.Is(err, rolecontroller.ErrRoleNotFound) {
			role = &models.Role{
				Name:        roleName,
				Description: "Default " + roleName + " role",
				IsActive:    true,
			}

			err = rolecontroller.Create(db, role)
			if err != nil && errors.Is(err, rolecontroller.ErrNameExists) {
				role, err = rolecontroller.GetByName(db, roleName)
			}

			log.Info().Str("role", roleName).Msg("seeded role")
		}

		if err != nil {
			return fmt.Errorf("failed to seed role %q: %w", roleName, err)
		}

		for _, permissionName := range permissionNames {
			if role.HasPermission(permissionName) {
				continue
			}

			permission, err := permissioncontroller.GetByName(db, permissionName)
			if err != nil {
				return fmt.Errorf("failed to query permission %q: %w", permissionName, err)
			}

			err = rolecontroller.AddPermission(db, role.ID, permission.ID)
			if err != nil && !errors.Is(err, rolecontroller.ErrPermissionAlreadyGranted) {
				return fmt.Errorf(
					"failed to grant permission %q to role %q: %w", permissionName, roleName, err,
				)
			}
		}
	}

	return nil
}

func seedAdminUser(db *gorm.DB) error {
	_, err := usercontroller.GetByEmail(db, auth.DefaultAdminEmail)
	if err == nil {
		return nil
	}

	if !errors.Is(err, usercontroller.ErrUserNotFound) {
		return fmt.Errorf("failed to query admin user: %w", err)
	}

	hashedPassword, err := models.HashPassword(auth.DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.User{
		Email:           auth.DefaultAdminEmail,
		Password:        hashedPassword,
		FirstName:       "System",
		LastName:        "Administrator",
		IsActive:        true,
		IsEmailVerified: true,
	}

	err = usercontroller.Create(db, &admin)
	if err != nil {
		// another instance may have created it in the meantime
		if errors.Is(err, usercontroller.ErrEmailExists) {
			return nil
		}

		return fmt.Errorf("failed to create admin user: %w", err)
	}

	adminRole, err := rolecontroller.GetByName(db, auth.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to query admin role: %w", err)
	}

	if err = usercontroller.AddRole(db, admin.ID, adminRole.ID); err != nil {
		return fmt.Errorf("failed to assign admin role: %w", err)
	}

	log.Info().Str("email", auth.DefaultAdminEmail).Msg("seeded admin user, change the default password")

	return nil
}
