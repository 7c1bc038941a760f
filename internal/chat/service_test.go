package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardkyer/labor-policy-assistant/internal/profile"
	"github.com/ardkyer/labor-policy-assistant/internal/vector"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type fakeIndex struct {
	matches []vector.Match
	err     error
}

func (f *fakeIndex) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]vector.Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

type fakeGenerator struct {
	answer      string
	err         error
	lastContext string
	lastProfile string
}

func (f *fakeGenerator) GenerateAnswer(ctx context.Context, question, policyContext, profileInfo string) (string, error) {
	f.lastContext = policyContext
	f.lastProfile = profileInfo
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func intPtr(v int) *int {
	return &v
}

func TestAsk(t *testing.T) {
	matches := []vector.Match{
		{ID: "c1", Score: 0.9, Page: "42", Title: "청년 지원", Category: "청년", Text: "청년 구직자 지원 내용"},
		{ID: "c2", Score: 0.8, Page: "55", Text: "고용유지지원금 안내\n본문"},
	}

	t.Run("answers with sources", func(t *testing.T) {
		gen := &fakeGenerator{answer: "지원 대상은 다음과 같습니다."}
		svc := NewService(&fakeEmbedder{}, &fakeIndex{matches: matches}, gen)

		answer, err := svc.Ask(context.Background(), "청년 지원금 받을 수 있나요?", nil)
		require.NoError(t, err)

		assert.Equal(t, "지원 대상은 다음과 같습니다.", answer.Text)
		require.Len(t, answer.Sources, 2)
		assert.Equal(t, "청년 지원", answer.Sources[0].Title)
		assert.Equal(t, "고용유지지원금 안내", answer.Sources[1].Title, "title derived from text when not stored")

		assert.Contains(t, gen.lastContext, "페이지 42")
		assert.Contains(t, gen.lastContext, "페이지 55")
		assert.Empty(t, gen.lastProfile)
	})

	t.Run("profile personalizes without changing retrieval", func(t *testing.T) {
		gen := &fakeGenerator{answer: "답변"}
		svc := NewService(&fakeEmbedder{}, &fakeIndex{matches: matches}, gen)

		raw := &profile.RawProfile{Age: intPtr(28), EmploymentStatus: "구직자"}
		_, err := svc.Ask(context.Background(), "질문", raw)
		require.NoError(t, err)

		assert.Contains(t, gen.lastProfile, "연령: 28")
		assert.Contains(t, gen.lastProfile, "고용상태: 구직자")
	})

	t.Run("no matches still answers", func(t *testing.T) {
		gen := &fakeGenerator{answer: "관련 정보를 찾지 못했습니다."}
		svc := NewService(&fakeEmbedder{}, &fakeIndex{}, gen)

		answer, err := svc.Ask(context.Background(), "질문", nil)
		require.NoError(t, err)
		assert.Empty(t, answer.Sources)
		assert.Contains(t, gen.lastContext, "찾지 못했습니다")
	})

	t.Run("blank question is rejected", func(t *testing.T) {
		svc := NewService(&fakeEmbedder{}, &fakeIndex{}, &fakeGenerator{})

		_, err := svc.Ask(context.Background(), "   ", nil)
		assert.Error(t, err)
	})

	t.Run("embedding failure surfaces", func(t *testing.T) {
		svc := NewService(&fakeEmbedder{err: errors.New("down")}, &fakeIndex{}, &fakeGenerator{})

		_, err := svc.Ask(context.Background(), "질문", nil)
		assert.Error(t, err)
	})

	t.Run("long excerpts are truncated", func(t *testing.T) {
		long := strings.Repeat("가", 300)
		gen := &fakeGenerator{answer: "답변"}
		svc := NewService(&fakeEmbedder{}, &fakeIndex{matches: []vector.Match{
			{ID: "c1", Page: "30", Text: long},
		}}, gen)

		answer, err := svc.Ask(context.Background(), "질문", nil)
		require.NoError(t, err)
		require.Len(t, answer.Sources, 1)
		assert.Equal(t, 203, len([]rune(answer.Sources[0].Excerpt)))
	})
}
