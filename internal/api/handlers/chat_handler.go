package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ardkyer/labor-policy-assistant/internal/chat"
	"github.com/ardkyer/labor-policy-assistant/internal/profile"
	"github.com/ardkyer/labor-policy-assistant/internal/storage/sqlite"
	"github.com/ardkyer/labor-policy-assistant/pkg/logger"
)

type ChatHandler struct {
	db   *sqlite.Client
	chat *chat.Service
}

func NewChatHandler(db *sqlite.Client, chatService *chat.Service) *ChatHandler {
	return &ChatHandler{db: db, chat: chatService}
}

// HandleMessage answers one question grounded in the policy corpus. The
// user's profile, when present, personalizes the answer.
func (h *ChatHandler) HandleMessage(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	var req struct {
		Message string `json:"message"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is required",
		})
	}

	raw := h.profileFor(userID)

	answer, err := h.chat.Ask(c.Context(), req.Message, raw)
	if err != nil {
		logger.Error("Failed to answer chat message", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to answer message",
		})
	}

	return c.JSON(fiber.Map{
		"answer":  answer.Text,
		"sources": answer.Sources,
	})
}

func (h *ChatHandler) profileFor(userID int64) *profile.RawProfile {
	p, err := h.db.GetUserProfile(userID)
	if errors.Is(err, sqlite.ErrNotFound) {
		return nil
	}
	if err != nil {
		logger.Warn("Failed to load profile for chat", zap.Error(err))
		return nil
	}
	raw := profile.FromStored(p)
	return &raw
}
