package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"docportal/internal/model"
	"docportal/internal/security"
)

const (
	UsernameLocalKey = "username"
	RoleLocalKey     = "role"
)

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(token string) (*security.Claims, error)
}

// Auth rejects requests without a valid "Authorization: Bearer" token and
// stores the username and role in locals.
func Auth(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		claims, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}
		c.Locals(UsernameLocalKey, claims.Subject)
		c.Locals(RoleLocalKey, claims.Role)
		return c.Next()
	}
}

// RequireRole lets the request through only when Auth stored the given role.
func RequireRole(role model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentRole(c) != role {
			return fiber.NewError(fiber.StatusForbidden, "access denied")
		}
		return c.Next()
	}
}

// CurrentUsername returns the authenticated username, or "".
func CurrentUsername(c *fiber.Ctx) string {
	s, _ := c.Locals(UsernameLocalKey).(string)
	return s
}

// CurrentRole returns the authenticated role, or "".
func CurrentRole(c *fiber.Ctx) model.Role {
	r, _ := c.Locals(RoleLocalKey).(model.Role)
	return r
}
