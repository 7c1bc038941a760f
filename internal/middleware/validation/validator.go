package validation

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var (
	sqlInjectionPattern = regexp.MustCompile(`(?i)(union\s+select|insert\s+into|drop\s+table|delete\s+from|exec\s*\(|script)`)
	xssPattern          = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)
	emailPattern        = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

type Config struct {
	MaxMessageLength int
	Logger           *zap.Logger
}

// Middleware validates request bodies on the write endpoints before the
// handlers see them.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxMessageLength == 0 {
		cfg.MaxMessageLength = 5000
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != "POST" && c.Method() != "PUT" {
			return c.Next()
		}

		contentType := c.Get("Content-Type")
		if contentType != "" && !strings.Contains(contentType, "application/json") {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported content type",
			})
		}

		path := c.Path()

		if strings.Contains(path, "/api/v1/chat") {
			if err := validateChat(c, cfg); err != nil {
				return err
			}
		}

		if strings.Contains(path, "/api/v1/auth/register") || strings.Contains(path, "/api/v1/auth/login") {
			if err := validateCredentials(c); err != nil {
				return err
			}
		}

		if strings.Contains(path, "/api/v1/profiles") {
			if err := validateProfile(c); err != nil {
				return err
			}
		}

		return c.Next()
	}
}

func validateChat(c *fiber.Ctx, cfg Config) error {
	var req map[string]interface{}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid JSON format",
		})
	}

	message, ok := req["message"].(string)
	if !ok || strings.TrimSpace(message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is required and must be a string",
		})
	}

	if len(message) > cfg.MaxMessageLength {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message exceeds maximum length",
		})
	}

	if sqlInjectionPattern.MatchString(message) || xssPattern.MatchString(message) {
		cfg.Logger.Warn("Suspicious chat payload rejected",
			zap.String("ip", c.IP()),
		)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid message content",
		})
	}

	return nil
}

func validateCredentials(c *fiber.Ctx) error {
	var req map[string]interface{}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid JSON format",
		})
	}

	email, ok := req["email"].(string)
	if !ok || !emailPattern.MatchString(email) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A valid email is required",
		})
	}

	password, ok := req["password"].(string)
	if !ok || len(password) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Password must be at least 8 characters",
		})
	}

	return nil
}

func validateProfile(c *fiber.Ctx) error {
	var req map[string]interface{}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid JSON format",
		})
	}

	if age, ok := req["age"].(float64); ok {
		if age < 0 || age > 120 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Age must be between 0 and 120",
			})
		}
	}

	return nil
}
