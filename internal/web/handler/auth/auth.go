// Package auth provides the authentication endpoints: login, registration
// and password changes.
package auth

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/guardpost/guardpost/internal/auth"
	"github.com/guardpost/guardpost/internal/config"
	usercontroller "github.com/guardpost/guardpost/internal/db/controller/user"
	"github.com/guardpost/guardpost/internal/web/handler"
	"github.com/guardpost/guardpost/internal/web/response"
)

// Path is the base path for the authentication endpoints.
const Path = handler.RootPath + "auth"

// Service provides the authentication endpoints.
type Service struct {
	cfg         *config.Config
	db          *gorm.DB
	authService *auth.Service
	validator   *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"  validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
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

	app.Post(Path+"/login", s.Login)
	app.Post(Path+"/register", s.Register)
	app.Post(Path+"/change-password",
		auth.RequireAuth(authService, tokens),
		s.ChangePassword,
	)
}

// Login validates credentials and returns the user with an access token.
func (s *Service) Login(c *fiber.Ctx) error {
	var req loginRequest

	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	user, token, err := s.authService.Login(req.Email, req.Password)

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return response.Fail(c, fiber.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrAccountDeactivated):
		return response.Fail(c, fiber.StatusForbidden, auth.ErrAccountDeactivated.Error())
	case err != nil:
		log.Error().Err(err).Msg("login failed")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, fiber.Map{
		"user":        user,
		"accessToken": token,
	})
}

// Register creates a new account without any role.
func (s *Service) Register(c *fiber.Ctx) error {
	var req registerRequest

	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := s.authService.Register(req.Email, req.Password, req.FirstName, req.LastName)

	switch {
	case errors.Is(err, usercontroller.ErrEmailExists):
		return response.Fail(c, fiber.StatusConflict, usercontroller.ErrEmailExists.Error())
	case err != nil:
		log.Error().Err(err).Msg("registration failed")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusCreated, user)
}

// ChangePassword verifies the old password and sets a new one for the
// authenticated user.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest

	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	principal := auth.PrincipalFromContext(c)

	err := s.authService.ChangePassword(principal.UserID, req.OldPassword, req.NewPassword)

	switch {
	case errors.Is(err, auth.ErrInvalidOldPassword):
		return response.Fail(c, fiber.StatusUnauthorized, auth.ErrInvalidOldPassword.Error())
	case errors.Is(err, usercontroller.ErrUserNotFound):
		return response.Fail(c, fiber.StatusNotFound, usercontroller.ErrUserNotFound.Error())
	case err != nil:
		log.Error().Err(err).Msg("password change failed")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return response.Success(c, fiber.StatusOK, fiber.Map{"changed": true})
}
