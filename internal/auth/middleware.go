package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/guardpost/guardpost/internal/web/response"
)

// principalLocalsKey is the fiber.Locals key holding the request principal.
const principalLocalsKey = "principal"

// RequireAuth creates Fiber middleware that verifies the bearer token and
// stores the decoded principal in the request context.
//
// After signature and expiry verification, the subject is re-checked
// against the user store: a deleted or deactivated account fails even if
// its token is still within its lifetime.
func RequireAuth(authService *Service, tokens *TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return response.Fail(c, fiber.StatusUnauthorized, ErrMissingToken.Error())
		}

		principal, err := tokens.Verify(tokenString)
		if err != nil {
			return response.Fail(c, fiber.StatusUnauthorized, ErrInvalidToken.Error())
		}

		user, err := authService.ValidateSession(principal.UserID)
		if err != nil {
			log.Error().Err(err).Str("user_id", principal.UserID).Msg("failed to validate session")

			return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
		}

		if user == nil {
			return response.Fail(c, fiber.StatusUnauthorized, ErrInvalidToken.Error())
		}

		c.Locals(principalLocalsKey, principal)

		return c.Next()
	}
}

// PrincipalFromContext returns the principal stored by RequireAuth, or nil
// when the request is unauthenticated.
func PrincipalFromContext(c *fiber.Ctx) *Principal {
	principal, ok := c.Locals(principalLocalsKey).(*Principal)
	if !ok {
		return nil
	}

	return principal
}

// RequireRoles creates Fiber middleware that requires at least one of the
// given roles. Declaring a guard without any role name is a programming
// error and panics at route registration time.
func RequireRoles(names ...string) fiber.Handler {
	if len(names) == 0 {
		panic("auth: RequireRoles called without role names")
	}

	return func(c *fiber.Ctx) error {
		principal := PrincipalFromContext(c)

		if !RoleAllowed(names, principal) {
			logDenied(c, principal, "roles", names)

			return response.Fail(c, fiber.StatusForbidden, ErrForbidden.Error())
		}

		return c.Next()
	}
}

// RequirePermissions creates Fiber middleware that requires at least one
// of the given permissions. Declaring a guard without any permission name
// is a programming error and panics at route registration time.
func RequirePermissions(names ...string) fiber.Handler {
	if len(names) == 0 {
		panic("auth: RequirePermissions called without permission names")
	}

	return func(c *fiber.Ctx) error {
		principal := PrincipalFromContext(c)

		if !PermissionAllowed(names, principal) {
			logDenied(c, principal, "permissions", names)

			return response.Fail(c, fiber.StatusForbidden, ErrForbidden.Error())
		}

		return c.Next()
	}
}

func logDenied(c *fiber.Ctx, principal *Principal, kind string, names []string) {
	event := log.Warn().Str("path", c.Path()).Strs("required_"+kind, names)

	if principal != nil {
		event = event.Str("user_id", principal.UserID)
	}

	event.Msg("request denied by guard")
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimPrefix(header, prefix)
}
