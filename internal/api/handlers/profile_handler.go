package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ardkyer/labor-policy-assistant/internal/profile"
	"github.com/ardkyer/labor-policy-assistant/internal/storage/models"
	"github.com/ardkyer/labor-policy-assistant/internal/storage/sqlite"
	"github.com/ardkyer/labor-policy-assistant/pkg/logger"
)

type ProfileHandler struct {
	db       *sqlite.Client
	resolver *profile.Resolver
}

func NewProfileHandler(db *sqlite.Client, resolver *profile.Resolver) *ProfileHandler {
	return &ProfileHandler{db: db, resolver: resolver}
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	p, err := h.db.GetUserProfile(userID)
	if errors.Is(err, sqlite.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Profile not found",
		})
	}
	if err != nil {
		logger.Error("Failed to load profile", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load profile",
		})
	}

	return c.JSON(profileResponse(p))
}

// UpdateProfile upserts the user's profile and recomputes its bucket. The
// bucket assignment is part of the same request so recommendations read
// right after a profile change already see the new profile type.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	var req struct {
		Age              *int              `json:"age"`
		AgeGroup         string            `json:"age_group"`
		Gender           string            `json:"gender"`
		EmploymentStatus string            `json:"employment_status"`
		Region           string            `json:"region"`
		IsDisabled       bool              `json:"is_disabled"`
		IsForeign        bool              `json:"is_foreign"`
		FamilyStatus     string            `json:"family_status"`
		Interests        map[string]string `json:"interests"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	raw := profile.RawProfile{
		Age:              req.Age,
		AgeGroup:         req.AgeGroup,
		Gender:           req.Gender,
		EmploymentStatus: req.EmploymentStatus,
		Region:           req.Region,
		IsDisabled:       req.IsDisabled,
		IsForeign:        req.IsForeign,
		FamilyStatus:     req.FamilyStatus,
		Interests:        req.Interests,
	}

	pt, err := h.resolver.Resolve(raw)
	if err != nil {
		logger.Error("Failed to resolve profile type", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update profile",
		})
	}

	p := &models.UserProfile{
		UserID:           userID,
		Age:              req.Age,
		IsDisabled:       req.IsDisabled,
		IsForeign:        req.IsForeign,
		Interests:        req.Interests,
		ProfileTypeID:    &pt.ID,
		Gender:           optional(req.Gender),
		EmploymentStatus: optional(req.EmploymentStatus),
		Region:           optional(req.Region),
		FamilyStatus:     optional(req.FamilyStatus),
	}

	if err := h.db.UpsertUserProfile(p); err != nil {
		logger.Error("Failed to upsert profile", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update profile",
		})
	}

	stored, err := h.db.GetUserProfile(userID)
	if err != nil {
		logger.Error("Failed to reload profile", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update profile",
		})
	}

	return c.JSON(profileResponse(stored))
}

func profileResponse(p *models.UserProfile) fiber.Map {
	return fiber.Map{
		"id":                p.ID,
		"user_id":           p.UserID,
		"age":               p.Age,
		"gender":            p.Gender,
		"employment_status": p.EmploymentStatus,
		"region":            p.Region,
		"is_disabled":       p.IsDisabled,
		"is_foreign":        p.IsForeign,
		"family_status":     p.FamilyStatus,
		"interests":         p.Interests,
		"profile_type_id":   p.ProfileTypeID,
		"updated_at":        p.UpdatedAt,
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
