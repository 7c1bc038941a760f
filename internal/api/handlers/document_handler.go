package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ardkyer/labor-policy-assistant/internal/ingestion"
	"github.com/ardkyer/labor-policy-assistant/pkg/logger"
)

type DocumentHandler struct {
	processor *ingestion.Processor
}

func NewDocumentHandler(processor *ingestion.Processor) *DocumentHandler {
	return &DocumentHandler{processor: processor}
}

// UploadDocument ingests one OCR'd policy document: its pages are chunked,
// embedded, and indexed. This is the incremental path for corpus updates;
// shared recommendations are rebuilt separately by cmd/precompute.
func (h *DocumentHandler) UploadDocument(c *fiber.Ctx) error {
	var req struct {
		PolicyID string `json:"policy_id"`
		Pages    []struct {
			Number int    `json:"number"`
			Text   string `json:"text"`
		} `json:"pages"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.PolicyID == "" || len(req.Pages) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Policy id and pages are required",
		})
	}

	pages := make([]ingestion.Page, len(req.Pages))
	for i, p := range req.Pages {
		pages[i] = ingestion.Page{Number: p.Number, Text: p.Text}
	}

	chunks, err := h.processor.ProcessDocument(c.Context(), req.PolicyID, pages)
	if err != nil {
		logger.Error("Failed to process document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process document",
		})
	}

	return c.JSON(fiber.Map{
		"policy_id": req.PolicyID,
		"chunks":    chunks,
	})
}
