// Package auth provides the bearer-token middleware guarding the
// authenticated API routes.
package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	authsvc "github.com/ardkyer/labor-policy-assistant/internal/auth"
)

type Config struct {
	Manager *authsvc.Manager
	Logger  *zap.Logger
}

// Middleware verifies the Authorization header and stores the caller's
// identity in request locals as "user_id" and "user_email".
func Middleware(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header is required",
			})
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header must use the Bearer scheme",
			})
		}

		claims, err := cfg.Manager.VerifyToken(tokenString)
		if err != nil {
			cfg.Logger.Debug("Token verification failed",
				zap.String("ip", c.IP()),
				zap.Error(err),
			)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("user_email", claims.Email)
		return c.Next()
	}
}

// TokenFromQuery verifies a token passed as a query parameter, for
// websocket upgrades where headers are awkward to set from browsers.
func TokenFromQuery(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Query("token")
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token query parameter is required",
			})
		}

		claims, err := cfg.Manager.VerifyToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("user_email", claims.Email)
		return c.Next()
	}
}
