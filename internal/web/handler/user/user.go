// Package user provides the REST endpoints for user management.
package user

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/guardpost/guardpost/internal/auth"
	"github.com/guardpost/guardpost/internal/config"
	rolecontroller "github.com/guardpost/guardpost/internal/db/controller/role"
	usercontroller "github.com/guardpost/guardpost/internal/db/controller/user"
	"github.com/guardpost/guardpost/internal/db/models"
	"github.com/guardpost/guardpost/internal/web/handler"
	"github.com/guardpost/guardpost/internal/web/response"
)

// Path is the base path for user management.
const Path = handler.RootPath + "users"

// Service provides CRUD and role assignment operations for users.
type Service struct {
	cfg         *config.Config
	db          *gorm.DB
	authService *auth.Service
	validator   *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

type createRequest struct {
	Email     string   `json:"email"     validate:"required,email"`
	Password  string   `json:"password"  validate:"required,min=8"`
	FirstName string   `json:"firstName" validate:"required"`
	LastName  string   `json:"lastName"  validate:"required"`
	RoleIDs   []string `json:"roleIds"   validate:"omitempty,dive,uuid4"`
}

type updateRequest struct {
	Email     *string `json:"email"     validate:"omitempty,email"`
	FirstName *string `json:"firstName" validate:"omitempty,min=1"`
	LastName  *string `json:"lastName"  validate:"omitempty,min=1"`
}

type assignRoleRequest struct {
	RoleID string `json:"roleId" validate:"required,uuid4"`
}

// Init registers routes.
func (s *Service) Init(
	app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service, tokens *auth.TokenService,
) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.authService = authService
	s.validator = validator.New()

	requireAuth := auth.RequireAuth(authService, tokens)
	requireAdmin := auth.RequireRoles(auth.RoleAdmin)

	app.Post(Path, requireAuth, requireAdmin, s.Create)
	app.Get(Path, requireAuth, auth.RequirePermissions(auth.PermUsersRead), s.List)

	// /me must be registered before the :id routes
	app.Get(Path+"/me", requireAuth, s.Me)

	app.Get(Path+"/:id", requireAuth, auth.RequirePermissions(auth.PermUsersRead), s.Get)
	app.Put(Path+"/:id", requireAuth, auth.RequirePermissions(auth.PermUsersUpdate), s.Update)
	app.Delete(Path+"/:id", requireAuth, requireAdmin, s.Delete)

	app.Post(Path+"/:id/roles", requireAuth, requireAdmin, s.AssignRole)
	app.Delete(Path+"/:id/roles/:roleId", requireAuth, requireAdmin, s.RemoveRole)

	app.Put(Path+"/:id/activate", requireAuth, requireAdmin, s.Activate)
	app.Put(Path+"/:id/deactivate", requireAuth, requireAdmin, s.Deactivate)
	app.Put(Path+"/:id/verify-email", requireAuth, requireAdmin, s.VerifyEmail)
}

// Create creates a user and optionally assigns the given roles.
func (s *Service) Create(c *fiber.Ctx) error {
	var req createRequest

	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	// roles are validated up front so a bad id cannot leave a half-assigned user
	roles := make([]*models.Role, 0, len(req.RoleIDs))

	for _, roleID := range req.RoleIDs {
		role, err := rolecontroller.GetByID(s.db, roleID)

		switch {
		case errors.Is(err, rolecontroller.ErrRoleNotFound):
			return response.Fail(c, fiber.StatusNotFound, rolecontroller.ErrRoleNotFound.Error())
		case err != nil:
			log.Error().Err(err).Str("role_id", roleID).Msg("failed to load role")

			return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
		}

		roles = append(roles, role)
	}

	hashedPassword, err := models.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	user := models.User{
		Email:     req.Email,
		Password:  hashedPassword,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsActive:  true,
	}

	err = usercontroller.Create(s.db, &user)

	switch {
	case errors.Is(err, usercontroller.ErrEmailExists):
		return response.Fail(c, fiber.StatusConflict, usercontroller.ErrEmailExists.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to create user")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	for _, role := range roles {
		if err = usercontroller.AddRole(s.db, user.ID, role.ID); err != nil {
			log.Error().Err(err).Str("role_id", role.ID).Msg("failed to assign role")

			return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
		}
	}

	created, err := usercontroller.GetByID(s.db, user.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to reload user")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusCreated, created)
}

// List returns users with pagination and search.
func (s *Service) List(c *fiber.Ctx) error {
	query := handler.ParsePageQuery(c)

	users, totalCount, err := usercontroller.List(s.db, query.Search, query.PageSize, query.Offset())
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Paginated(c, users, query.Page, query.PageSize, totalCount)
}

// Me returns the authenticated user's own profile.
func (s *Service) Me(c *fiber.Ctx) error {
	principal := auth.PrincipalFromContext(c)

	user, err := usercontroller.GetByID(s.db, principal.UserID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load own profile")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, user)
}

// Get returns a single user with roles and permissions.
func (s *Service) Get(c *fiber.Ctx) error {
	user, err := usercontroller.GetByID(s.db, c.Params("id"))

	switch {
	case errors.Is(err, usercontroller.ErrUserNotFound):
		return response.Fail(c, fiber.StatusNotFound, usercontroller.ErrUserNotFound.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to load user")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, user)
}

// Update changes a user's email or name. Omitted fields keep their value.
func (s *Service) Update(c *fiber.Ctx) error {
	var req updateRequest

	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := usercontroller.GetByID(s.db, c.Params("id"))

	switch {
	case errors.Is(err, usercontroller.ErrUserNotFound):
		return response.Fail(c, fiber.StatusNotFound, usercontroller.ErrUserNotFound.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to load user")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	if req.Email != nil {
		user.Email = *req.Email
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}

	if req.LastName != nil {
		user.LastName = *req.LastName
	}

	err = usercontroller.Update(s.db, user)

	switch {
	case errors.Is(err, usercontroller.ErrEmailExists):
		return response.Fail(c, fiber.StatusConflict, usercontroller.ErrEmailExists.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to update user")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, user)
}

// Delete removes a user.
func (s *Service) Delete(c *fiber.Ctx) error {
	err := usercontroller.Delete(s.db, c.Params("id"))

	switch {
	case errors.Is(err, usercontroller.ErrUserNotFound):
		return response.Fail(c, fiber.StatusNotFound, usercontroller.ErrUserNotFound.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to delete user")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

// AssignRole grants a role to a user.
func (s *Service) AssignRole(c *fiber.Ctx) error {
	var req assignRoleRequest

	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	err := usercontroller.AddRole(s.db, c.Params("id"), req.RoleID)

	switch {
	case errors.Is(err, usercontroller.ErrUserNotFound):
		return response.Fail(c, fiber.StatusNotFound, usercontroller.ErrUserNotFound.Error())
	case errors.Is(err, rolecontroller.ErrRoleNotFound):
		return response.Fail(c, fiber.StatusNotFound, rolecontroller.ErrRoleNotFound.Error())
	case errors.Is(err, usercontroller.ErrRoleAlreadyAssigned):
		return response.Fail(c, fiber.StatusConflict, usercontroller.ErrRoleAlreadyAssigned.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to assign role")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	user, err := usercontroller.GetByID(s.db, c.Params("id"))
	if err != nil {
		log.Error().Err(err).Msg("failed to reload user")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, user)
}

// RemoveRole revokes a role from a user.
func (s *Service) RemoveRole(c *fiber.Ctx) error {
	err := usercontroller.RemoveRole(s.db, c.Params("id"), c.Params("roleId"))

	switch {
	case errors.Is(err, usercontroller.ErrUserNotFound):
		return response.Fail(c, fiber.StatusNotFound, usercontroller.ErrUserNotFound.Error())
	case errors.Is(err, rolecontroller.ErrRoleNotFound):
		return response.Fail(c, fiber.StatusNotFound, rolecontroller.ErrRoleNotFound.Error())
	case errors.Is(err, usercontroller.ErrRoleNotAssigned):
		return response.Fail(c, fiber.StatusConflict, usercontroller.ErrRoleNotAssigned.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to remove role")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	user, err := usercontroller.GetByID(s.db, c.Params("id"))
	if err != nil {
		log.Error().Err(err).Msg("failed to reload user")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, user)
}

// Activate marks a user account as active.
func (s *Service) Activate(c *fiber.Ctx) error {
	return s.setActive(c, true)
}

// Deactivate marks a user account as inactive. Deactivation does not
// invalidate tokens that are already issued; the authentication
// middleware rejects them on the next request.
func (s *Service) Deactivate(c *fiber.Ctx) error {
	return s.setActive(c, false)
}

func (s *Service) setActive(c *fiber.Ctx, active bool) error {
	err := usercontroller.SetActive(s.db, c.Params("id"), active)

	switch {
	case errors.Is(err, usercontroller.ErrUserNotFound):
		return response.Fail(c, fiber.StatusNotFound, usercontroller.ErrUserNotFound.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to change user active state")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, fiber.Map{"isActive": active})
}

// VerifyEmail marks a user's email address as verified.
func (s *Service) VerifyEmail(c *fiber.Ctx) error {
	err := usercontroller.VerifyEmail(s.db, c.Params("id"))

	switch {
	case errors.Is(err, usercontroller.ErrUserNotFound):
		return response.Fail(c, fiber.StatusNotFound, usercontroller.ErrUserNotFound.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to verify email")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, fiber.Map{"isEmailVerified": true})
}
