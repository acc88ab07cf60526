package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/learnhub-api/internal/utils"
)

// Identity is the authenticated principal bound to a request.
type Identity struct {
	UserID uint
	Role   string
}

// SessionResolver maps a verified bearer token to a live session.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (Identity, error)
}

// SessionResolverFunc adapts a function to SessionResolver.
type SessionResolverFunc func(ctx context.Context, token string) (Identity, error)

// ResolveSession calls f.
func (f SessionResolverFunc) ResolveSession(ctx context.Context, token string) (Identity, error) {
	return f(ctx, token)
}

// ErrSessionInvalid is returned by resolvers for unknown, expired or deactivated sessions.
var ErrSessionInvalid = errors.New("session is not valid")

// Authenticate rejects requests that do not carry a signed token backed by an active session.
func Authenticate(secret string, sessions SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, message := bearerToken(c)
		if token == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, message)
		}

		if err := bindIdentity(c, secret, sessions, token); err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid or expired token")
		}

		return c.Next()
	}
}

// OptionalAuthenticate binds the caller's identity when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuthenticate(secret string, sessions SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, _ := bearerToken(c); token != "" {
			_ = bindIdentity(c, secret, sessions, token)
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, string) {
	authorization := c.Get("Authorization")
	if authorization == "" {
		return "", "authorization header missing"
	}

	const bearer = "Bearer "
	if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return "", "invalid authorization header"
	}

	token := strings.TrimSpace(authorization[len(bearer):])
	if token == "" {
		return "", "invalid token"
	}
	return token, ""
}

func bindIdentity(c *fiber.Ctx, secret string, sessions SessionResolver, tokenString string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return ErrSessionInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ErrSessionInvalid
	}
	subject := extractUserIDFromClaims(claims)
	if subject == nil {
		return ErrSessionInvalid
	}

	identity := Identity{UserID: *subject, Role: extractUserRoleFromClaims(claims)}
	if sessions != nil {
		resolved, err := sessions.ResolveSession(c.UserContext(), tokenString)
		if err != nil {
			return err
		}
		if resolved.UserID != identity.UserID {
			return ErrSessionInvalid
		}
		// the stored role wins over the claim so role changes apply to live sessions
		identity = resolved
	}

	c.Locals("user_id", identity.UserID)
	c.Locals("user_role", strings.ToLower(identity.Role))
	c.Locals("session_token", tokenString)
	return nil
}

// SessionToken returns the raw bearer token of an authenticated request.
func SessionToken(c *fiber.Ctx) string {
	if value, ok := c.Locals("session_token").(string); ok {
		return value
	}
	return ""
}

func extractUserIDFromClaims(claims jwt.MapClaims) *uint {
	keys := []string{"sub", "user_id", "id"}
	for _, key := range keys {
		if value, ok := claims[key]; ok {
			if normalized, err := normalizeUserID(value); err == nil && normalized > 0 {
				return &normalized
			}
		}
	}

	return nil
}

func normalizeUserID(value interface{}) (uint, error) {
	switch v := value.(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(parsed), nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	default:
		return 0, fmt.Errorf("unsupported subject type")
	}
}

func extractUserRoleFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"role", "roles"} {
		if value, ok := claims[key]; ok {
			if role := normalizeRole(value); role != "" {
				return role
			}
		}
	}
	return ""
}

func normalizeRole(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case []interface{}:
		for _, item := range v {
			if str, ok := item.(string); ok {
				if role := strings.ToLower(strings.TrimSpace(str)); role != "" {
					return role
				}
			}
		}
	}
	return ""
}
