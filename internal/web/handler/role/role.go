// Package role provides the REST endpoints for role management.
package role

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/guardpost/guardpost/internal/auth"
	"github.com/guardpost/guardpost/internal/config"
	permissioncontroller "github.com/guardpost/guardpost/internal/db/controller/permission"
	rolecontroller "github.com/guardpost/guardpost/internal/db/controller/role"
	"github.com/guardpost/guardpost/internal/db/models"
	"github.com/guardpost/guardpost/internal/web/handler"
	"github.com/guardpost/guardpost/internal/web/response"
)

// Path is the base path for role management.
const Path = handler.RootPath + "roles"

// Service provides CRUD and permission grant operations for roles.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

type createRequest struct {
	Name          string   `json:"name"          validate:"required,min=2"`
	Description   string   `json:"description"   validate:"omitempty"`
	PermissionIDs []string `json:"permissionIds" validate:"omitempty,dive,uuid4"`
}

type updateRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=2"`
	Description *string `json:"description" validate:"omitempty"`
}

type grantPermissionRequest struct {
	PermissionID string `json:"permissionId" validate:"required,uuid4"`
}

// Init registers routes. All role management requires the admin role.
func (s *Service) Init(
	app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service, tokens *auth.TokenService,
) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.validator = validator.New()

	requireAuth := auth.RequireAuth(authService, tokens)
	requireAdmin := auth.RequireRoles(auth.RoleAdmin)

	app.Post(Path, requireAuth, requireAdmin, s.Create)
	app.Get(Path, requireAuth, requireAdmin, s.List)
	app.Get(Path+"/:id", requireAuth, requireAdmin, s.Get)
	app.Put(Path+"/:id", requireAuth, requireAdmin, s.Update)
	app.Delete(Path+"/:id", requireAuth, requireAdmin, s.Delete)

	app.Get(Path+"/:id/permissions", requireAuth, requireAdmin, s.EffectivePermissions)
	app.Post(Path+"/:id/permissions", requireAuth, requireAdmin, s.GrantPermission)
	app.Delete(Path+"/:id/permissions/:permissionId", requireAuth, requireAdmin, s.RevokePermission)

	app.Put(Path+"/:id/activate", requireAuth, requireAdmin, s.Activate)
	app.Put(Path+"/:id/deactivate", requireAuth, requireAdmin, s.Deactivate)
}

// Create creates a role and optionally grants the given permissions.
func (s *Service) Create(c *fiber.Ctx) error {
	var req createRequest

	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	// permissions are validated up front so a bad id cannot leave a half-granted role
	permissions := make([]*models.Permission, 0, len(req.PermissionIDs))

	for _, permissionID := range req.PermissionIDs {
		permission, err := permissioncontroller.GetByID(s.db, permissionID)

		switch {
		case errors.Is(err, permissioncontroller.ErrPermissionNotFound):
			return response.Fail(c, fiber.StatusNotFound, permissioncontroller.ErrPermissionNotFound.Error())
		case err != nil:
			log.Error().Err(err).Str("permission_id", permissionID).Msg("failed to load permission")

			return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
		}

		permissions = append(permissions, permission)
	}

	role := models.Role{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}

	err := rolecontroller.Create(s.db, &role)

	switch {
	case errors.Is(err, rolecontroller.ErrNameExists):
		return response.Fail(c, fiber.StatusConflict, rolecontroller.ErrNameExists.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to create role")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	for _, permission := range permissions {
		if err = rolecontroller.AddPermission(s.db, role.ID, permission.ID); err != nil {
			log.Error().Err(err).Str("permission_id", permission.ID).Msg("failed to grant permission")

			return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
		}
	}

	created, err := rolecontroller.GetByID(s.db, role.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to reload role")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusCreated, created)
}

// List returns roles with pagination and search by name.
func (s *Service) List(c *fiber.Ctx) error {
	query := handler.ParsePageQuery(c)

	roles, totalCount, err := rolecontroller.List(s.db, query.Search, query.PageSize, query.Offset())
	if err != nil {
		log.Error().Err(err).Msg("failed to list roles")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Paginated(c, roles, query.Page, query.PageSize, totalCount)
}

// Get returns a single role with its permissions.
func (s *Service) Get(c *fiber.Ctx) error {
	role, err := rolecontroller.GetByID(s.db, c.Params("id"))

	switch {
	case errors.Is(err, rolecontroller.ErrRoleNotFound):
		return response.Fail(c, fiber.StatusNotFound, rolecontroller.ErrRoleNotFound.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to load role")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, role)
}

// Update changes a role's name or description. Omitted fields keep their value.
func (s *Service) Update(c *fiber.Ctx) error {
	var req updateRequest

	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	role, err := rolecontroller.GetByID(s.db, c.Params("id"))

	switch {
	case errors.Is(err, rolecontroller.ErrRoleNotFound):
		return response.Fail(c, fiber.StatusNotFound, rolecontroller.ErrRoleNotFound.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to load role")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	if req.Name != nil {
		role.Name = *req.Name
	}

	if req.Description != nil {
		role.Description = *req.Description
	}

	err = rolecontroller.Update(s.db, role)

	switch {
	case errors.Is(err, rolecontroller.ErrNameExists):
		return response.Fail(c, fiber.StatusConflict, rolecontroller.ErrNameExists.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to update role")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, role)
}

// Delete removes a role. Users holding the role simply lose it.
func (s *Service) Delete(c *fiber.Ctx) error {
	err := rolecontroller.Delete(s.db, c.Params("id"))

	switch {
	case errors.Is(err, rolecontroller.ErrRoleNotFound):
		return response.Fail(c, fiber.StatusNotFound, rolecontroller.ErrRoleNotFound.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to delete role")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

// EffectivePermissions returns the permission names a role contributes.
// A deactivated role contributes nothing.
func (s *Service) EffectivePermissions(c *fiber.Ctx) error {
	role, err := rolecontroller.GetByID(s.db, c.Params("id"))

	switch {
	case errors.Is(err, rolecontroller.ErrRoleNotFound):
		return response.Fail(c, fiber.StatusNotFound, rolecontroller.ErrRoleNotFound.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to load role")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	names := []string{}
	if role.IsActive {
		names = role.PermissionNames()
	}

	return response.Success(c, fiber.StatusOK, names)
}

// GrantPermission grants a permission to a role.
func (s *Service) GrantPermission(c *fiber.Ctx) error {
	var req grantPermissionRequest

	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	err := rolecontroller.AddPermission(s.db, c.Params("id"), req.PermissionID)

	switch {
	case errors.Is(err, rolecontroller.ErrRoleNotFound):
		return response.Fail(c, fiber.StatusNotFound, rolecontroller.ErrRoleNotFound.Error())
	case errors.Is(err, permissioncontroller.ErrPermissionNotFound):
		return response.Fail(c, fiber.StatusNotFound, permissioncontroller.ErrPermissionNotFound.Error())
	case errors.Is(err, rolecontroller.ErrPermissionAlreadyGranted):
		return response.Fail(c, fiber.StatusConflict, rolecontroller.ErrPermissionAlreadyGranted.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to grant permission")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	role, err := rolecontroller.GetByID(s.db, c.Params("id"))
	if err != nil {
		log.Error().Err(err).Msg("failed to reload role")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, role)
}

// RevokePermission revokes a permission from a role.
func (s *Service) RevokePermission(c *fiber.Ctx) error {
	err := rolecontroller.RemovePermission(s.db, c.Params("id"), c.Params("permissionId"))

	switch {
	case errors.Is(err, rolecontroller.ErrRoleNotFound):
		return response.Fail(c, fiber.StatusNotFound, rolecontroller.ErrRoleNotFound.Error())
	case errors.Is(err, permissioncontroller.ErrPermissionNotFound):
		return response.Fail(c, fiber.StatusNotFound, permissioncontroller.ErrPermissionNotFound.Error())
	case errors.Is(err, rolecontroller.ErrPermissionNotGranted):
		return response.Fail(c, fiber.StatusConflict, rolecontroller.ErrPermissionNotGranted.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to revoke permission")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	role, err := rolecontroller.GetByID(s.db, c.Params("id"))
	if err != nil {
		log.Error().Err(err).Msg("failed to reload role")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, role)
}

// Activate marks a role as active.
func (s *Service) Activate(c *fiber.Ctx) error {
	return s.setActive(c, true)
}

// Deactivate marks a role as inactive so it contributes no permissions.
func (s *Service) Deactivate(c *fiber.Ctx) error {
	return s.setActive(c, false)
}

func (s *Service) setActive(c *fiber.Ctx, active bool) error {
	err := rolecontroller.SetActive(s.db, c.Params("id"), active)

	switch {
	case errors.Is(err, rolecontroller.ErrRoleNotFound):
		return response.Fail(c, fiber.StatusNotFound, rolecontroller.ErrRoleNotFound.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to change role active state")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, fiber.Map{"isActive": active})
}
