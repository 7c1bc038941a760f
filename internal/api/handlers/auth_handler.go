package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ardkyer/labor-policy-assistant/internal/auth"
	"github.com/ardkyer/labor-policy-assistant/internal/profile"
	"github.com/ardkyer/labor-policy-assistant/internal/recommend"
	"github.com/ardkyer/labor-policy-assistant/internal/storage/sqlite"
	"github.com/ardkyer/labor-policy-assistant/pkg/logger"
)

type AuthHandler struct {
	db          *sqlite.Client
	authManager *auth.Manager
	resolver    *profile.Resolver
	recommender *recommend.Service
}

func NewAuthHandler(db *sqlite.Client, authManager *auth.Manager, resolver *profile.Resolver, recommender *recommend.Service) *AuthHandler {
	return &AuthHandler{
		db:          db,
		authManager: authManager,
		resolver:    resolver,
		recommender: recommender,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email and password are required",
		})
	}

	if _, err := h.db.GetUserByEmail(req.Email); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Email is already registered",
		})
	} else if !errors.Is(err, sqlite.ErrNotFound) {
		logger.Error("Failed to check existing user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to register",
		})
	}

	hashed, err := h.authManager.HashPassword(req.Password)
	if err != nil {
		logger.Error("Failed to hash password", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to register",
		})
	}

	user, err := h.db.CreateUser(req.Email, hashed, req.FullName)
	if err != nil {
		logger.Error("Failed to create user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to register",
		})
	}

	token, err := h.authManager.IssueToken(user.ID, user.Email)
	if err != nil {
		logger.Error("Failed to issue token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to register",
		})
	}

	// Warm the shared tier for the default bucket so a fresh user sees
	// recommendations before filling in a profile. Failures only log.
	go h.warmDefaultBucket()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
		"user": fiber.Map{
			"id":        user.ID,
			"email":     user.Email,
			"full_name": user.FullName,
		},
	})
}

func (h *AuthHandler) warmDefaultBucket() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pt, err := h.resolver.Resolve(profile.RawProfile{})
	if err != nil {
		logger.Warn("Failed to resolve default profile bucket", zap.Error(err))
		return
	}

	if _, err := h.recommender.GetOrCreateShared(ctx, pt.ID); err != nil {
		logger.Warn("Failed to warm shared recommendations",
			zap.Int64("profile_type_id", pt.ID),
			zap.Error(err),
		)
	}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	user, err := h.db.GetUserByEmail(req.Email)
	if errors.Is(err, sqlite.ErrNotFound) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}
	if err != nil {
		logger.Error("Failed to look up user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to log in",
		})
	}

	if err := h.authManager.VerifyPassword(user.HashedPassword, req.Password); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}

	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Account is disabled",
		})
	}

	token, err := h.authManager.IssueToken(user.ID, user.Email)
	if err != nil {
		logger.Error("Failed to issue token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to log in",
		})
	}

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	user, err := h.db.GetUserByID(userID)
	if errors.Is(err, sqlite.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	if err != nil {
		logger.Error("Failed to load user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load user",
		})
	}

	return c.JSON(fiber.Map{
		"id":         user.ID,
		"email":      user.Email,
		"full_name":  user.FullName,
		"is_active":  user.IsActive,
		"created_at": user.CreatedAt,
	})
}
