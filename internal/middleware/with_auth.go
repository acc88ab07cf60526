package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/learnhub-api/internal/utils"
)

// Route roles understood by WithAuth and RequireRole.
const (
	AuthRoleAny        = "any"
	AuthRoleStudent    = "student"
	AuthRoleInstructor = "instructor"
	AuthRoleAdmin      = "admin"
)

// AuthOptions describes the guard placed in front of a single route.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth guards one handler. Identity comes from OptionalAuthenticate earlier in the chain,
// so public and protected routes can share a group.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := normalizeRoleValue(opts.Role)
	if role == "" {
		role = AuthRoleAny
	}
	requireUser := opts.RequireUser || role != AuthRoleAny

	return func(c *fiber.Ctx) error {
		if !requireUser {
			return handler(c)
		}
		if c.Locals("user_id") == nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		if !roleAllows(normalizeRoleValue(c.Locals("user_role")), role) {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}
		return handler(c)
	}
}
