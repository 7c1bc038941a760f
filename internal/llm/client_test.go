package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardkyer/labor-policy-assistant/internal/metrics"
)

type fakeCache struct {
	embeddings map[string][]float32
}

func newFakeCache() *fakeCache {
	return &fakeCache{embeddings: make(map[string][]float32)}
}

func (f *fakeCache) GetEmbedding(ctx context.Context, textHash string) ([]float32, bool, error) {
	e, ok := f.embeddings[textHash]
	return e, ok, nil
}

func (f *fakeCache) SetEmbedding(ctx context.Context, textHash string, embedding []float32, ttl time.Duration) error {
	f.embeddings[textHash] = embedding
	return nil
}

// newTestClient points the provider at a local stub server.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient("test-key", "gpt-3.5-turbo", "text-embedding-3-small", 0.7, 1000)
	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	c.client = openai.NewClientWithConfig(config)
	return c, server
}

func TestClient_Embed(t *testing.T) {
	t.Run("cache serves repeated texts without a provider call", func(t *testing.T) {
		providerCalls := 0
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			providerCalls++
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}],"model":"text-embedding-3-small","usage":{"prompt_tokens":3,"total_tokens":3}}`)
		})
		c.WithEmbeddingCache(newFakeCache())

		hitsBefore := testutil.ToFloat64(metrics.EmbeddingCacheHits)
		missesBefore := testutil.ToFloat64(metrics.EmbeddingCacheMisses)

		first, err := c.Embed(context.Background(), "청년 취업 지원")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, first)
		assert.Equal(t, 1, providerCalls)

		second, err := c.Embed(context.Background(), "청년 취업 지원")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, providerCalls, "second lookup must not reach the provider")

		assert.Equal(t, missesBefore+1, testutil.ToFloat64(metrics.EmbeddingCacheMisses))
		assert.Equal(t, hitsBefore+1, testutil.ToFloat64(metrics.EmbeddingCacheHits))
	})

	t.Run("no cache configured leaves the counters alone", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.5]}],"model":"text-embedding-3-small","usage":{"prompt_tokens":1,"total_tokens":1}}`)
		})

		hitsBefore := testutil.ToFloat64(metrics.EmbeddingCacheHits)
		missesBefore := testutil.ToFloat64(metrics.EmbeddingCacheMisses)

		_, err := c.Embed(context.Background(), "고령자 지원")
		require.NoError(t, err)

		assert.Equal(t, hitsBefore, testutil.ToFloat64(metrics.EmbeddingCacheHits))
		assert.Equal(t, missesBefore, testutil.ToFloat64(metrics.EmbeddingCacheMisses))
	})
}

func TestClient_Complete_CountsTokens(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cmpl-1","object":"chat.completion","model":"gpt-3.5-turbo","choices":[{"index":0,"message":{"role":"assistant","content":"답변"},"finish_reason":"stop"}],"usage":{"prompt_tokens":42,"completion_tokens":7,"total_tokens":49}}`)
	})

	promptBefore := testutil.ToFloat64(metrics.LLMTokensUsed.WithLabelValues("gpt-3.5-turbo", "prompt"))
	completionBefore := testutil.ToFloat64(metrics.LLMTokensUsed.WithLabelValues("gpt-3.5-turbo", "completion"))

	content, err := c.Complete(context.Background(), CompletionRequest{
		SystemPrompt: "system",
		UserPrompt:   "질문",
	})
	require.NoError(t, err)
	assert.Equal(t, "답변", content)

	assert.Equal(t, promptBefore+42, testutil.ToFloat64(metrics.LLMTokensUsed.WithLabelValues("gpt-3.5-turbo", "prompt")))
	assert.Equal(t, completionBefore+7, testutil.ToFloat64(metrics.LLMTokensUsed.WithLabelValues("gpt-3.5-turbo", "completion")))
}
