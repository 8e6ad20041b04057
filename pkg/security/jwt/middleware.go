package jwt

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// NewAuthMiddleware returns a Fiber middleware that validates Bearer JWT
// access tokens (HS256). On success it stores user id, role and claims
// into c.Locals for downstream handlers.
func NewAuthMiddleware(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"detail": "missing Authorization header"})
		}
		// Support both "Bearer <token>" and "<token>" (no prefix).
		var tokenStr string
		if strings.Contains(authHeader, " ") {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenStr = strings.TrimSpace(parts[1])
			} else {
				tokenStr = strings.TrimSpace(authHeader)
			}
		} else {
			tokenStr = strings.TrimSpace(authHeader)
		}
		if tokenStr == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"detail": "empty token"})
		}
		claims, err := svc.Parse(tokenStr)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"detail": "invalid or expired token"})
		}
		if claims.TokenType != TokenTypeAccess {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"detail": "access token required"})
		}
		c.Locals("userId", claims.Subject)
		c.Locals("role", claims.Role)
		c.Locals("claims", claims)
		return c.Next()
	}
}
