package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/ardkyer/labor-policy-assistant/internal/profile"
)

// TextGenerator produces a compact search phrase from a profile summary.
// Implemented by the LLM client.
type TextGenerator interface {
	GenerateSearchQuery(ctx context.Context, profileSummary, categories string) (string, error)
}

// Synthesizer turns a profile into natural-language search text.
type Synthesizer struct {
	generator TextGenerator
}

func NewSynthesizer(generator TextGenerator) *Synthesizer {
	return &Synthesizer{generator: generator}
}

// Tags derives descriptive category tags from the raw profile.
func (s *Synthesizer) Tags(raw profile.RawProfile) []string {
	var tags []string

	if raw.Age != nil {
		if *raw.Age < 35 {
			tags = append(tags, "청년")
		} else if *raw.Age >= 50 {
			tags = append(tags, "고령자/신중년")
		}
	} else if raw.AgeGroup == "youth" {
		tags = append(tags, "청년")
	} else if raw.AgeGroup == "senior" {
		tags = append(tags, "고령자/신중년")
	}

	if raw.IsDisabled {
		tags = append(tags, "장애인")
	}
	if raw.Gender == "female" {
		tags = append(tags, "여성")
	}
	if raw.FamilyStatus == "parent" || raw.FamilyStatus == "single_parent" {
		tags = append(tags, "육아지원")
	}
	if raw.IsForeign {
		tags = append(tags, "외국인근로자")
	}
	if raw.EmploymentStatus == "business" {
		tags = append(tags, "사업주")
	}

	return tags
}

// Summary renders a structured textual description of the profile. It is
// never empty and doubles as the fallback query when generation fails.
func (s *Synthesizer) Summary(raw profile.RawProfile) string {
	categories := strings.Join(s.Tags(raw), ", ")
	if categories == "" {
		categories = "해당 없음"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "연령: %s\n", raw.AgeString())
	fmt.Fprintf(&b, "성별: %s\n", orMissing(raw.Gender))
	fmt.Fprintf(&b, "고용상태: %s\n", orMissing(raw.EmploymentStatus))
	fmt.Fprintf(&b, "장애인 여부: %s\n", yesNo(raw.IsDisabled))
	fmt.Fprintf(&b, "외국인 여부: %s\n", yesNo(raw.IsForeign))
	fmt.Fprintf(&b, "가족 상황: %s\n", orMissing(raw.FamilyStatus))
	if raw.Region != "" {
		fmt.Fprintf(&b, "지역: %s\n", raw.Region)
	}
	if len(raw.Interests) > 0 {
		var interests []string
		for k, v := range raw.Interests {
			interests = append(interests, k+": "+v)
		}
		fmt.Fprintf(&b, "관심 분야: %s\n", strings.Join(interests, ", "))
	}
	fmt.Fprintf(&b, "관련 정책 카테고리: %s", categories)

	return b.String()
}

// SearchQuery asks the generator for a compact search phrase. A failed or
// empty generation is reported as ErrQuerySynthesis so the caller can fall
// back to Summary.
func (s *Synthesizer) SearchQuery(ctx context.Context, raw profile.RawProfile) (string, error) {
	categories := strings.Join(s.Tags(raw), ", ")
	if categories == "" {
		categories = "해당 없음"
	}

	query, err := s.generator.GenerateSearchQuery(ctx, s.Summary(raw), categories)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrQuerySynthesis, err)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("%w: generator returned empty text", ErrQuerySynthesis)
	}

	return query, nil
}

func orMissing(v string) string {
	if v == "" {
		return "정보 없음"
	}
	return v
}

func yesNo(v bool) string {
	if v {
		return "예"
	}
	return "아니오"
}
