package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnhub-api/internal/middleware"
)

const testSecret = "test-secret"

type stubSessions struct {
	identity middleware.Identity
	err      error
	calls    int
}

func (s *stubSessions) ResolveSession(_ context.Context, _ string) (middleware.Identity, error) {
	s.calls++
	return s.identity, s.err
}

func signToken(t *testing.T, secret string, userID uint, role string, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(userID), 10),
		"role": role,
		"exp":  expires.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func identityApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/", handler, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(uint)
		role, _ := c.Locals("user_role").(string)
		return c.JSON(fiber.Map{"user_id": userID, "role": role})
	})
	return app
}

func TestAuthenticateAcceptsActiveSession(t *testing.T) {
	sessions := &stubSessions{identity: middleware.Identity{UserID: 7, Role: "instructor"}}
	app := identityApp(middleware.Authenticate(testSecret, sessions))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, 7, "student", time.Now().Add(time.Hour)))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		UserID uint   `json:"user_id"`
		Role   string `json:"role"`
	}
	decodeBody(t, resp, &payload)
	require.Equal(t, uint(7), payload.UserID)
	require.Equal(t, "instructor", payload.Role)
	require.Equal(t, 1, sessions.calls)
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	app := identityApp(middleware.Authenticate(testSecret, &stubSessions{}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	sessions := &stubSessions{identity: middleware.Identity{UserID: 7, Role: "student"}}
	app := identityApp(middleware.Authenticate(testSecret, sessions))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, 7, "student", time.Now().Add(-time.Minute)))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Zero(t, sessions.calls)
}

func TestAuthenticateRejectsWrongSignature(t *testing.T) {
	app := identityApp(middleware.Authenticate(testSecret, &stubSessions{}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other", 7, "student", time.Now().Add(time.Hour)))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticateRejectsRevokedSession(t *testing.T) {
	sessions := &stubSessions{err: middleware.ErrSessionInvalid}
	app := identityApp(middleware.Authenticate(testSecret, sessions))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, 7, "student", time.Now().Add(time.Hour)))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestOptionalAuthenticatePassesAnonymousRequests(t *testing.T) {
	app := identityApp(middleware.OptionalAuthenticate(testSecret, &stubSessions{err: middleware.ErrSessionInvalid}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		UserID uint `json:"user_id"`
	}
	decodeBody(t, resp, &payload)
	require.Zero(t, payload.UserID)
}
