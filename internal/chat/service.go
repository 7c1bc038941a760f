// Package chat answers free-form questions about labor policies, grounded
// in retrieved policy chunks.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ardkyer/labor-policy-assistant/internal/metrics"
	"github.com/ardkyer/labor-policy-assistant/internal/profile"
	"github.com/ardkyer/labor-policy-assistant/internal/recommend"
	"github.com/ardkyer/labor-policy-assistant/internal/vector"
	"github.com/ardkyer/labor-policy-assistant/pkg/logger"
)

const defaultContextChunks = 5

// Embedder turns question text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index searches the policy-chunk vector index.
type Index interface {
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]vector.Match, error)
}

// AnswerGenerator produces the final grounded answer.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question, policyContext, profileInfo string) (string, error)
}

// Source is one retrieved chunk cited by the answer.
type Source struct {
	ChunkID  string  `json:"chunk_id"`
	Title    string  `json:"title"`
	Page     string  `json:"page"`
	Category string  `json:"category"`
	Score    float32 `json:"score"`
	Excerpt  string  `json:"excerpt"`
}

// Answer is the grounded chat response with its supporting sources.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}

type Service struct {
	embedder      Embedder
	index         Index
	generator     AnswerGenerator
	contextChunks int
}

func NewService(embedder Embedder, index Index, generator AnswerGenerator) *Service {
	return &Service{
		embedder:      embedder,
		index:         index,
		generator:     generator,
		contextChunks: defaultContextChunks,
	}
}

// Ask retrieves the most relevant policy chunks for the question and
// generates an answer grounded in them. The raw profile, when present,
// personalizes the answer but never changes what is retrieved.
func (s *Service) Ask(ctx context.Context, question string, raw *profile.RawProfile) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question must not be empty")
	}

	start := time.Now()

	embedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		metrics.ChatTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	matches, err := s.index.Search(ctx, embedding, s.contextChunks)
	if err != nil {
		metrics.ChatTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to search policy chunks: %w", err)
	}
	metrics.VectorResultsCount.Observe(float64(len(matches)))

	profileInfo := ""
	if raw != nil {
		profileInfo = profileBlock(*raw)
	}

	text, err := s.generator.GenerateAnswer(ctx, question, buildContext(matches), profileInfo)
	if err != nil {
		metrics.ChatTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	metrics.ChatTotal.WithLabelValues("success").Inc()
	metrics.ChatDuration.Observe(time.Since(start).Seconds())

	logger.Info("Chat question answered",
		zap.Int("sources", len(matches)),
		zap.Duration("duration", time.Since(start)),
	)

	return &Answer{Text: text, Sources: toSources(matches)}, nil
}

// buildContext renders retrieved chunks as numbered reference blocks with
// their page labels, so the model can cite them.
func buildContext(matches []vector.Match) string {
	if len(matches) == 0 {
		return "관련 정책 정보를 찾지 못했습니다."
	}

	var b strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&b, "[%d] (페이지 %s) %s\n", i+1, m.Page, m.Text)
		if i < len(matches)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func profileBlock(raw profile.RawProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "연령: %s\n", raw.AgeString())
	if raw.Gender != "" {
		fmt.Fprintf(&b, "성별: %s\n", raw.Gender)
	}
	if raw.EmploymentStatus != "" {
		fmt.Fprintf(&b, "고용상태: %s\n", raw.EmploymentStatus)
	}
	if raw.Region != "" {
		fmt.Fprintf(&b, "지역: %s\n", raw.Region)
	}
	if raw.IsDisabled {
		b.WriteString("장애인 여부: 예\n")
	}
	if raw.IsForeign {
		b.WriteString("외국인 여부: 예\n")
	}
	if raw.FamilyStatus != "" {
		fmt.Fprintf(&b, "가족 상황: %s\n", raw.FamilyStatus)
	}
	return strings.TrimRight(b.String(), "\n")
}

func toSources(matches []vector.Match) []Source {
	sources := make([]Source, len(matches))
	for i, m := range matches {
		title := m.Title
		if title == "" {
			title = recommend.ExtractTitle(m.Text)
		}
		sources[i] = Source{
			ChunkID:  m.ID,
			Title:    title,
			Page:     m.Page,
			Category: m.Category,
			Score:    m.Score,
			Excerpt:  excerpt(m.Text, 200),
		}
	}
	return sources
}

func excerpt(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}
