package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func roleApp(role string, allowed ...string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if role != "" {
			c.Locals("user_id", uint(3))
			c.Locals("user_role", role)
		}
		return c.Next()
	})
	app.Use(RequireRole(allowed...))
	app.Get("/courses/mine", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireRoleAllowsAuthorizedRoles(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/courses/mine", nil)
	resp, err := roleApp("Instructor", "instructor", "admin").Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRoleRejectsUnauthorizedRoles(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/courses/mine", nil)
	resp, err := roleApp("student", "instructor", "admin").Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRoleRejectsAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/courses/mine", nil)
	resp, err := roleApp("", "admin").Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRoleAdminPassesInstructorGate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/courses/mine", nil)
	resp, err := roleApp("admin", "instructor").Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRoleAllows(t *testing.T) {
	require.True(t, roleAllows("student", AuthRoleAny))
	require.True(t, roleAllows("admin", AuthRoleInstructor))
	require.False(t, roleAllows("instructor", AuthRoleAdmin))
	require.False(t, roleAllows("student", AuthRoleInstructor))
	require.True(t, roleAllows("student", AuthRoleStudent))
}
