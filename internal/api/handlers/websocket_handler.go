package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/ardkyer/labor-policy-assistant/internal/chat"
	"github.com/ardkyer/labor-policy-assistant/internal/profile"
	"github.com/ardkyer/labor-policy-assistant/internal/storage/sqlite"
	"github.com/ardkyer/labor-policy-assistant/pkg/logger"
)

type WebSocketHandler struct {
	db   *sqlite.Client
	chat *chat.Service
}

func NewWebSocketHandler(db *sqlite.Client, chatService *chat.Service) *WebSocketHandler {
	return &WebSocketHandler{db: db, chat: chatService}
}

// HandleConnection runs a chat session over one websocket. Each incoming
// "message" frame is answered with word-chunked "chunk" frames followed by
// a "complete" frame carrying the sources.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	userID, _ := c.Locals("user_id").(int64)

	logger.Info("WebSocket chat session started", zap.Int64("user_id", userID))

	defer func() {
		c.Close()
		logger.Info("WebSocket chat session closed", zap.Int64("user_id", userID))
	}()

	for {
		var msg struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			break
		}

		if msg.Type != "message" || msg.Content == "" {
			continue
		}

		if err := h.streamAnswer(c, userID, msg.Content); err != nil {
			logger.Error("Failed to stream chat answer", zap.Error(err))
			h.sendError(c, "Failed to answer message")
		}
	}
}

func (h *WebSocketHandler) streamAnswer(c *websocket.Conn, userID int64, question string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	h.send(c, "status", "답변을 생성하고 있습니다...")

	answer, err := h.chat.Ask(ctx, question, h.profileFor(userID))
	if err != nil {
		return err
	}

	for _, chunk := range splitIntoWords(answer.Text) {
		if err := h.send(c, "chunk", chunk+" "); err != nil {
			return err
		}
	}

	return c.WriteJSON(map[string]interface{}{
		"type":    "complete",
		"sources": answer.Sources,
	})
}

func (h *WebSocketHandler) profileFor(userID int64) *profile.RawProfile {
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

func (h *WebSocketHandler) send(c *websocket.Conn, msgType, content string) error {
	return c.WriteJSON(map[string]interface{}{
		"type":    msgType,
		"content": content,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}

func splitIntoWords(text string) []string {
	var words []string
	current := ""

	for _, char := range text {
		if char == ' ' || char == '\n' {
			if current != "" {
				words = append(words, current)
				current = ""
			}
			if char == '\n' {
				words = append(words, "\n")
			}
		} else {
			current += string(char)
		}
	}

	if current != "" {
		words = append(words, current)
	}

	return words
}
