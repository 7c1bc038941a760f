package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ardkyer/labor-policy-assistant/internal/recommend"
	"github.com/ardkyer/labor-policy-assistant/internal/storage/models"
	"github.com/ardkyer/labor-policy-assistant/internal/storage/sqlite"
	"github.com/ardkyer/labor-policy-assistant/internal/vector"
	"github.com/ardkyer/labor-policy-assistant/pkg/logger"
)

// ChunkFetcher looks chunks up by id in the vector index.
type ChunkFetcher interface {
	Fetch(ctx context.Context, ids []string) (map[string]vector.Match, error)
}

type PolicyHandler struct {
	db          *sqlite.Client
	recommender *recommend.Service
	fetcher     ChunkFetcher
}

func NewPolicyHandler(db *sqlite.Client, recommender *recommend.Service, fetcher ChunkFetcher) *PolicyHandler {
	return &PolicyHandler{db: db, recommender: recommender, fetcher: fetcher}
}

// ListPolicies pages through the ingested chunk catalog, optionally
// narrowed to one category.
func (h *PolicyHandler) ListPolicies(c *fiber.Ctx) error {
	category := c.Query("category")
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	chunks, err := h.db.ListPolicyChunks(category, limit, offset)
	if err != nil {
		logger.Error("Failed to list policies", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list policies",
		})
	}

	return c.JSON(fiber.Map{
		"policies": chunkResponse(chunks),
	})
}

// SearchPolicies matches the query text against chunk titles and content.
func (h *PolicyHandler) SearchPolicies(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Search query is required",
		})
	}

	chunks, err := h.db.SearchPolicyChunks(query, c.QueryInt("limit", 20))
	if err != nil {
		logger.Error("Failed to search policies", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to search policies",
		})
	}

	return c.JSON(fiber.Map{
		"query":    query,
		"policies": chunkResponse(chunks),
	})
}

// GetPolicy returns one policy chunk by id, straight from the index.
func (h *PolicyHandler) GetPolicy(c *fiber.Ctx) error {
	policyID := c.Params("policyId")

	chunks, err := h.fetcher.Fetch(c.Context(), []string{policyID})
	if err != nil {
		logger.Error("Failed to fetch policy", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch policy",
		})
	}

	chunk, ok := chunks[policyID]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Policy not found",
		})
	}

	return c.JSON(fiber.Map{
		"policy_id":   chunk.PolicyID,
		"chunk_id":    chunk.ID,
		"title":       chunk.Title,
		"content":     chunk.Text,
		"page_number": chunk.Page,
		"category":    chunk.Category,
	})
}

// GetRecommendations returns the user's personal recommendations, running
// the pipeline on first access.
func (h *PolicyHandler) GetRecommendations(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	recs, err := h.recommender.GetOrCreatePersonal(c.Context(), userID)
	if errors.Is(err, recommend.ErrNoProfile) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A profile is required before requesting recommendations",
		})
	}
	if err != nil {
		logger.Error("Failed to get recommendations", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get recommendations",
		})
	}

	return c.JSON(fiber.Map{
		"recommendations": personalResponse(recs),
	})
}

// RefreshRecommendations regenerates the personal set from the current
// profile, replacing the stored one.
func (h *PolicyHandler) RefreshRecommendations(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	recs, err := h.recommender.RefreshPersonal(c.Context(), userID)
	if errors.Is(err, recommend.ErrNoProfile) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A profile is required before requesting recommendations",
		})
	}
	if err != nil {
		logger.Error("Failed to refresh recommendations", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to refresh recommendations",
		})
	}

	return c.JSON(fiber.Map{
		"recommendations": personalResponse(recs),
	})
}

// GetSharedRecommendations returns the shared-tier set for the user's
// profile bucket.
func (h *PolicyHandler) GetSharedRecommendations(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	p, err := h.db.GetUserProfile(userID)
	if errors.Is(err, sqlite.ErrNotFound) || (err == nil && p.ProfileTypeID == nil) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A profile is required before requesting recommendations",
		})
	}
	if err != nil {
		logger.Error("Failed to load profile", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get recommendations",
		})
	}

	recs, err := h.recommender.GetOrCreateShared(c.Context(), *p.ProfileTypeID)
	if err != nil {
		logger.Error("Failed to get shared recommendations", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get recommendations",
		})
	}

	return c.JSON(fiber.Map{
		"profile_type_id": *p.ProfileTypeID,
		"recommendations": sharedResponse(recs),
	})
}

func (h *PolicyHandler) SavePolicy(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	policyID := c.Params("policyId")
	if policyID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Policy id is required",
		})
	}

	saved, err := h.recommender.SavePolicy(userID, policyID)
	if err != nil {
		logger.Error("Failed to save policy", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save policy",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":         saved.ID,
		"policy_id":  saved.PolicyID,
		"created_at": saved.CreatedAt,
	})
}

func (h *PolicyHandler) UnsavePolicy(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	policyID := c.Params("policyId")
	removed, err := h.recommender.UnsavePolicy(userID, policyID)
	if err != nil {
		logger.Error("Failed to unsave policy", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to unsave policy",
		})
	}

	if !removed {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Policy was not saved",
		})
	}

	return c.JSON(fiber.Map{
		"policy_id": policyID,
		"removed":   true,
	})
}

func (h *PolicyHandler) ListSavedPolicies(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	saved, err := h.recommender.ListSavedPolicies(userID)
	if err != nil {
		logger.Error("Failed to list saved policies", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list saved policies",
		})
	}

	items := make([]fiber.Map, len(saved))
	for i, s := range saved {
		items[i] = fiber.Map{
			"id":         s.ID,
			"policy_id":  s.PolicyID,
			"created_at": s.CreatedAt,
		}
	}

	return c.JSON(fiber.Map{"saved": items})
}

func (h *PolicyHandler) IsPolicySaved(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	policyID := c.Params("policyId")
	saved, err := h.recommender.IsPolicySaved(userID, policyID)
	if err != nil {
		logger.Error("Failed to check saved policy", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check saved policy",
		})
	}

	return c.JSON(fiber.Map{
		"policy_id": policyID,
		"saved":     saved,
	})
}

func chunkResponse(chunks []models.PolicyChunk) []fiber.Map {
	items := make([]fiber.Map, len(chunks))
	for i, ch := range chunks {
		items[i] = fiber.Map{
			"chunk_id":    ch.ID,
			"policy_id":   ch.PolicyID,
			"title":       ch.Title,
			"content":     ch.Content,
			"page_number": ch.PageNumber,
			"category":    ch.Category,
		}
	}
	return items
}

func personalResponse(recs []models.RecommendedPolicy) []fiber.Map {
	items := make([]fiber.Map, len(recs))
	for i, r := range recs {
		items[i] = fiber.Map{
			"policy_id":       r.PolicyID,
			"title":           r.PolicyTitle,
			"content":         r.PolicyContent,
			"page_number":     r.PageNumber,
			"category":        r.Category,
			"relevance_score": r.RelevanceScore,
			"rank":            r.RankOrder,
		}
	}
	return items
}

func sharedResponse(recs []models.ProfileRecommendation) []fiber.Map {
	items := make([]fiber.Map, len(recs))
	for i, r := range recs {
		items[i] = fiber.Map{
			"policy_id":       r.PolicyID,
			"title":           r.PolicyTitle,
			"content":         r.PolicyContent,
			"page_number":     r.PageNumber,
			"category":        r.Category,
			"relevance_score": r.RelevanceScore,
			"rank":            r.RankOrder,
		}
	}
	return items
}
