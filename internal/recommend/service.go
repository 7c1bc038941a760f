package recommend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ardkyer/labor-policy-assistant/internal/metrics"
	"github.com/ardkyer/labor-policy-assistant/internal/profile"
	"github.com/ardkyer/labor-policy-assistant/internal/storage/models"
	"github.com/ardkyer/labor-policy-assistant/internal/storage/sqlite"
	"github.com/ardkyer/labor-policy-assistant/pkg/logger"
)

// Recommender runs the matching pipeline. Implemented by Engine.
type Recommender interface {
	Recommend(ctx context.Context, raw profile.RawProfile, topK int) ([]Recommendation, error)
}

const (
	tierShared   = "shared"
	tierPersonal = "personal"
)

// Service layers result caching on top of the engine. Shared-tier results
// are keyed by profile type and reused across users in the same bucket;
// personal-tier results are keyed by user and built from the full raw
// profile including fields the bucket discards.
type Service struct {
	db     *sqlite.Client
	engine Recommender
	topK   int
}

func NewService(db *sqlite.Client, engine Recommender, topK int) *Service {
	return &Service{db: db, engine: engine, topK: topK}
}

// GetOrCreateShared returns the stored recommendations for a profile type,
// running the pipeline only when none exist yet. A cache hit performs no
// embedding or index calls.
func (s *Service) GetOrCreateShared(ctx context.Context, profileTypeID int64) ([]models.ProfileRecommendation, error) {
	stored, err := s.db.GetProfileRecommendations(profileTypeID)
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		metrics.RecommendationCacheHits.WithLabelValues(tierShared).Inc()
		return stored, nil
	}

	metrics.RecommendationCacheMisses.WithLabelValues(tierShared).Inc()
	return s.RefreshShared(ctx, profileTypeID)
}

// RefreshShared regenerates and wholesale-replaces the shared-tier results
// for a profile type. On pipeline failure the stored rows are left untouched.
func (s *Service) RefreshShared(ctx context.Context, profileTypeID int64) ([]models.ProfileRecommendation, error) {
	start := time.Now()

	pt, err := s.db.GetProfileType(profileTypeID)
	if err != nil {
		return nil, err
	}

	recs, err := s.engine.Recommend(ctx, profile.Representative(*pt), s.topK)
	if err != nil {
		metrics.RecommendationTotal.WithLabelValues(tierShared, "error").Inc()
		return nil, err
	}

	rows := make([]models.ProfileRecommendation, len(recs))
	for i, r := range recs {
		rows[i] = models.ProfileRecommendation{
			ProfileTypeID:  profileTypeID,
			PolicyID:       r.PolicyID,
			PolicyTitle:    r.Title,
			PolicyContent:  r.Content,
			PageNumber:     r.PageNumber,
			Category:       r.Category,
			RelevanceScore: float64(r.Score),
			RankOrder:      r.Rank,
		}
	}

	if err := s.db.ReplaceProfileRecommendations(ctx, profileTypeID, rows); err != nil {
		return nil, fmt.Errorf("failed to persist shared recommendations: %w", err)
	}

	metrics.RecommendationTotal.WithLabelValues(tierShared, "success").Inc()
	metrics.RecommendationDuration.WithLabelValues(tierShared).Observe(time.Since(start).Seconds())

	logger.Info("Shared recommendations generated",
		zap.Int64("profile_type_id", profileTypeID),
		zap.Int("count", len(rows)),
	)

	return s.db.GetProfileRecommendations(profileTypeID)
}

// GetOrCreatePersonal returns the user's stored personal recommendations,
// running the pipeline on first access. Returns ErrNoProfile when the user
// has not filled in a profile yet.
func (s *Service) GetOrCreatePersonal(ctx context.Context, userID int64) ([]models.RecommendedPolicy, error) {
	stored, err := s.db.GetRecommendedPolicies(userID)
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		metrics.RecommendationCacheHits.WithLabelValues(tierPersonal).Inc()
		return stored, nil
	}

	metrics.RecommendationCacheMisses.WithLabelValues(tierPersonal).Inc()
	return s.RefreshPersonal(ctx, userID)
}

// RefreshPersonal regenerates and wholesale-replaces the user's personal
// recommendations from the full raw profile.
func (s *Service) RefreshPersonal(ctx context.Context, userID int64) ([]models.RecommendedPolicy, error) {
	start := time.Now()

	p, err := s.db.GetUserProfile(userID)
	if err == sqlite.ErrNotFound {
		return nil, ErrNoProfile
	}
	if err != nil {
		return nil, err
	}

	recs, err := s.engine.Recommend(ctx, profile.FromStored(p), s.topK)
	if err != nil {
		metrics.RecommendationTotal.WithLabelValues(tierPersonal, "error").Inc()
		return nil, err
	}

	rows := make([]models.RecommendedPolicy, len(recs))
	for i, r := range recs {
		rows[i] = models.RecommendedPolicy{
			UserID:         userID,
			PolicyID:       r.PolicyID,
			PolicyTitle:    r.Title,
			PolicyContent:  r.Content,
			PageNumber:     r.PageNumber,
			Category:       r.Category,
			RelevanceScore: float64(r.Score),
			RankOrder:      r.Rank,
		}
	}

	if err := s.db.ReplaceRecommendedPolicies(ctx, userID, rows); err != nil {
		return nil, fmt.Errorf("failed to persist personal recommendations: %w", err)
	}

	metrics.RecommendationTotal.WithLabelValues(tierPersonal, "success").Inc()
	metrics.RecommendationDuration.WithLabelValues(tierPersonal).Observe(time.Since(start).Seconds())

	logger.Info("Personal recommendations generated",
		zap.Int64("user_id", userID),
		zap.Int("count", len(rows)),
	)

	return s.db.GetRecommendedPolicies(userID)
}

// SavePolicy bookmarks a policy for the user. Idempotent.
func (s *Service) SavePolicy(userID int64, policyID string) (*models.SavedPolicy, error) {
	return s.db.SavePolicy(userID, policyID)
}

// UnsavePolicy removes a bookmark, reporting whether one existed.
func (s *Service) UnsavePolicy(userID int64, policyID string) (bool, error) {
	return s.db.UnsavePolicy(userID, policyID)
}

func (s *Service) ListSavedPolicies(userID int64) ([]models.SavedPolicy, error) {
	return s.db.ListSavedPolicies(userID)
}

func (s *Service) IsPolicySaved(userID int64, policyID string) (bool, error) {
	return s.db.IsPolicySaved(userID, policyID)
}
