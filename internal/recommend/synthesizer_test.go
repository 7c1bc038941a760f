package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardkyer/labor-policy-assistant/internal/profile"
)

type fakeGenerator struct {
	query string
	err   error
	calls int
}

func (f *fakeGenerator) GenerateSearchQuery(ctx context.Context, profileSummary, categories string) (string, error) {
	f.calls++
	return f.query, f.err
}

func intPtr(v int) *int {
	return &v
}

func TestSynthesizer_Tags(t *testing.T) {
	s := NewSynthesizer(&fakeGenerator{})

	t.Run("young disabled female single parent", func(t *testing.T) {
		tags := s.Tags(profile.RawProfile{
			Age:          intPtr(29),
			Gender:       "female",
			IsDisabled:   true,
			FamilyStatus: "single_parent",
		})
		assert.Equal(t, []string{"청년", "장애인", "여성", "육아지원"}, tags)
	})

	t.Run("older foreign business owner", func(t *testing.T) {
		tags := s.Tags(profile.RawProfile{
			Age:              intPtr(55),
			IsForeign:        true,
			EmploymentStatus: "business",
		})
		assert.Equal(t, []string{"고령자/신중년", "외국인근로자", "사업주"}, tags)
	})

	t.Run("coded age group without numeric age", func(t *testing.T) {
		tags := s.Tags(profile.RawProfile{AgeGroup: "senior"})
		assert.Equal(t, []string{"고령자/신중년"}, tags)
	})

	t.Run("mid-range age yields no age tag", func(t *testing.T) {
		tags := s.Tags(profile.RawProfile{Age: intPtr(40)})
		assert.Empty(t, tags)
	})
}

func TestSynthesizer_SummaryNeverEmpty(t *testing.T) {
	s := NewSynthesizer(&fakeGenerator{})

	summary := s.Summary(profile.RawProfile{})
	assert.NotEmpty(t, summary)
	assert.Contains(t, summary, "해당 없음")
}

func TestSynthesizer_SearchQuery(t *testing.T) {
	t.Run("returns trimmed generator output", func(t *testing.T) {
		gen := &fakeGenerator{query: "  청년 구직자 취업 지원 정책  "}
		s := NewSynthesizer(gen)

		query, err := s.SearchQuery(context.Background(), profile.RawProfile{Age: intPtr(25)})
		require.NoError(t, err)
		assert.Equal(t, "청년 구직자 취업 지원 정책", query)
		assert.Equal(t, 1, gen.calls)
	})

	t.Run("generator failure wraps ErrQuerySynthesis", func(t *testing.T) {
		gen := &fakeGenerator{err: errors.New("provider down")}
		s := NewSynthesizer(gen)

		_, err := s.SearchQuery(context.Background(), profile.RawProfile{})
		assert.ErrorIs(t, err, ErrQuerySynthesis)
	})

	t.Run("blank output wraps ErrQuerySynthesis", func(t *testing.T) {
		gen := &fakeGenerator{query: "   "}
		s := NewSynthesizer(gen)

		_, err := s.SearchQuery(context.Background(), profile.RawProfile{})
		assert.ErrorIs(t, err, ErrQuerySynthesis)
	})
}
