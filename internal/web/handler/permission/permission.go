// Package permission provides the REST endpoints for permission management.
package permission

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/guardpost/guardpost/internal/auth"
	"github.com/guardpost/guardpost/internal/config"
	permissioncontroller "github.com/guardpost/guardpost/internal/db/controller/permission"
	"github.com/guardpost/guardpost/internal/db/models"
	"github.com/guardpost/guardpost/internal/web/handler"
	"github.com/guardpost/guardpost/internal/web/response"
)

// Path is the base path for permission management.
const Path = handler.RootPath + "permissions"

// Service provides CRUD operations for permissions.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

type createRequest struct {
	// Name follows the resource:action convention, e.g. users:read.
	Name        string `json:"name"        validate:"required,min=3,contains=:"`
	Description string `json:"description" validate:"omitempty"`
}

type updateRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=3,contains=:"`
	Description *string `json:"description" validate:"omitempty"`
}

// Init registers routes. All permission management requires the admin role.
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

	app.Put(Path+"/:id/activate", requireAuth, requireAdmin, s.Activate)
	app.Put(Path+"/:id/deactivate", requireAuth, requireAdmin, s.Deactivate)
}

// Create creates a permission.
func (s *Service) Create(c *fiber.Ctx) error {
	var req createRequest

	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	permission := models.Permission{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}

	err := permissioncontroller.Create(s.db, &permission)

	switch {
	case errors.Is(err, permissioncontroller.ErrNameExists):
		return response.Fail(c, fiber.StatusConflict, permissioncontroller.ErrNameExists.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to create permission")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusCreated, permission)
}

// List returns all permissions ordered by name.
func (s *Service) List(c *fiber.Ctx) error {
	permissions, err := permissioncontroller.GetAll(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to list permissions")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, permissions)
}

// Get returns a single permission.
func (s *Service) Get(c *fiber.Ctx) error {
	permission, err := permissioncontroller.GetByID(s.db, c.Params("id"))

	switch {
	case errors.Is(err, permissioncontroller.ErrPermissionNotFound):
		return response.Fail(c, fiber.StatusNotFound, permissioncontroller.ErrPermissionNotFound.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to load permission")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, permission)
}

// Update changes a permission's name or description. Omitted fields keep
// their value.
func (s *Service) Update(c *fiber.Ctx) error {
	var req updateRequest

	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	permission, err := permissioncontroller.GetByID(s.db, c.Params("id"))

	switch {
	case errors.Is(err, permissioncontroller.ErrPermissionNotFound):
		return response.Fail(c, fiber.StatusNotFound, permissioncontroller.ErrPermissionNotFound.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to load permission")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	if req.Name != nil {
		permission.Name = *req.Name
	}

	if req.Description != nil {
		permission.Description = *req.Description
	}

	err = permissioncontroller.Update(s.db, permission)

	switch {
	case errors.Is(err, permissioncontroller.ErrNameExists):
		return response.Fail(c, fiber.StatusConflict, permissioncontroller.ErrNameExists.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to update permission")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, permission)
}

// Delete removes a permission. Roles holding it simply lose it.
func (s *Service) Delete(c *fiber.Ctx) error {
	err := permissioncontroller.Delete(s.db, c.Params("id"))

	switch {
	case errors.Is(err, permissioncontroller.ErrPermissionNotFound):
		return response.Fail(c, fiber.StatusNotFound, permissioncontroller.ErrPermissionNotFound.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to delete permission")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

// Activate marks a permission as active.
func (s *Service) Activate(c *fiber.Ctx) error {
	return s.setActive(c, true)
}

// Deactivate marks a permission as inactive.
func (s *Service) Deactivate(c *fiber.Ctx) error {
	return s.setActive(c, false)
}

func (s *Service) setActive(c *fiber.Ctx, active bool) error {
	err := permissioncontroller.SetActive(s.db, c.Params("id"), active)

	switch {
	case errors.Is(err, permissioncontroller.ErrPermissionNotFound):
		return response.Fail(c, fiber.StatusNotFound, permissioncontroller.ErrPermissionNotFound.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to change permission active state")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, fiber.Map{"isActive": active})
}
