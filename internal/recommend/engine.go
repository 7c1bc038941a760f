package recommend

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ardkyer/labor-policy-assistant/internal/profile"
	"github.com/ardkyer/labor-policy-assistant/internal/vector"
	"github.com/ardkyer/labor-policy-assistant/pkg/logger"
)

// Embedder turns query text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index searches the policy-chunk vector index.
type Index interface {
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]vector.Match, error)
}

// QuerySynthesizer produces search text from a profile.
type QuerySynthesizer interface {
	SearchQuery(ctx context.Context, raw profile.RawProfile) (string, error)
	Summary(raw profile.RawProfile) string
}

// Recommendation is one ranked policy produced by the engine.
type Recommendation struct {
	PolicyID   string
	Title      string
	Content    string
	PageNumber string
	Category   string
	Score      float32
	Rank       int
}

// Engine runs the profile-to-policy matching pipeline: synthesize a query,
// embed it, over-fetch from the index, filter front-matter pages, and keep
// the topK in score order.
type Engine struct {
	synthesizer    QuerySynthesizer
	embedder       Embedder
	index          Index
	overfetchRatio int
	tocPageLimit   int
}

func NewEngine(synthesizer QuerySynthesizer, embedder Embedder, index Index, overfetchRatio, tocPageLimit int) *Engine {
	if overfetchRatio < 1 {
		overfetchRatio = 1
	}
	return &Engine{
		synthesizer:    synthesizer,
		embedder:       embedder,
		index:          index,
		overfetchRatio: overfetchRatio,
		tocPageLimit:   tocPageLimit,
	}
}

// Recommend produces up to topK ranked policies for the raw profile. A
// failed query synthesis falls back to the structured profile summary; an
// empty query or any retrieval failure aborts without partial results.
func (e *Engine) Recommend(ctx context.Context, raw profile.RawProfile, topK int) ([]Recommendation, error) {
	query, err := e.synthesizer.SearchQuery(ctx, raw)
	if err != nil {
		if !errors.Is(err, ErrQuerySynthesis) {
			return nil, err
		}
		logger.Warn("Query synthesis failed, falling back to profile summary", zap.Error(err))
		query = e.synthesizer.Summary(raw)
	}

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	embedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	matches, err := e.index.Search(ctx, embedding, topK*e.overfetchRatio)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	// One recommendation per policy: later chunks of an already-selected
	// document are skipped, the over-fetch supplies replacements.
	recs := make([]Recommendation, 0, topK)
	seen := make(map[string]bool)
	for _, m := range matches {
		if len(recs) >= topK {
			break
		}
		if e.isFrontMatter(m.Page) {
			continue
		}
		rec := e.toRecommendation(m, len(recs)+1)
		if seen[rec.PolicyID] {
			continue
		}
		seen[rec.PolicyID] = true
		recs = append(recs, rec)
	}

	logger.Debug("Recommendation pipeline completed",
		zap.Int("candidates", len(matches)),
		zap.Int("selected", len(recs)),
	)

	return recs, nil
}

// isFrontMatter drops chunks from the document's table-of-contents pages.
// Pages that do not parse as numbers are kept; dropping them would silently
// hide real policies behind bad OCR page labels.
func (e *Engine) isFrontMatter(page string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(page))
	if err != nil {
		return false
	}
	return n <= e.tocPageLimit
}

func (e *Engine) toRecommendation(m vector.Match, rank int) Recommendation {
	policyID := m.PolicyID
	if policyID == "" {
		policyID = m.ID
	}

	title := m.Title
	if title == "" {
		title = ExtractTitle(m.Text)
	}

	category := m.Category
	if category == "" {
		category = ClassifyCategory(m.Text)
	}

	return Recommendation{
		PolicyID:   policyID,
		Title:      title,
		Content:    m.Text,
		PageNumber: m.Page,
		Category:   category,
		Score:      m.Score,
		Rank:       rank,
	}
}
