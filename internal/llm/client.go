package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ardkyer/labor-policy-assistant/internal/metrics"
	"github.com/ardkyer/labor-policy-assistant/pkg/circuitbreaker"
	"github.com/ardkyer/labor-policy-assistant/pkg/logger"
	"github.com/ardkyer/labor-policy-assistant/pkg/retry"
)

var (
	// ErrEmbedding marks embedding-provider failures.
	ErrEmbedding = errors.New("embedding request failed")
	// ErrGeneration marks text-generation failures.
	ErrGeneration = errors.New("text generation failed")
)

// EmbeddingCache lets repeated texts skip the provider round-trip.
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, textHash string) ([]float32, bool, error)
	SetEmbedding(ctx context.Context, textHash string, embedding []float32, ttl time.Duration) error
}

type Client struct {
	client         *openai.Client
	model          string
	embeddingModel string
	temperature    float32
	maxTokens      int
	cache          EmbeddingCache
	cb             *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
}

func NewClient(apiKey, model, embeddingModel string, temperature float32, maxTokens int) *Client {
	cb := circuitbreaker.New("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("LLM client initialized",
		zap.String("model", model),
		zap.String("embedding_model", embeddingModel),
	)

	return &Client{
		client:         openai.NewClient(apiKey),
		model:          model,
		embeddingModel: embeddingModel,
		temperature:    temperature,
		maxTokens:      maxTokens,
		cb:             cb,
		retryConfig:    retryConfig,
	}
}

// WithEmbeddingCache attaches a cache; nil disables caching.
func (c *Client) WithEmbeddingCache(cache EmbeddingCache) *Client {
	c.cache = cache
	return c
}

// Complete runs a single system+user chat completion.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	var content string

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model: c.model,
					Messages: []openai.ChatCompletionMessage{
						{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
						{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
					},
					Temperature: temperature,
					MaxTokens:   maxTokens,
				},
			)
			if err != nil {
				return fmt.Errorf("chat completion: %w", err)
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("chat completion returned no choices")
			}

			metrics.LLMTokensUsed.WithLabelValues(c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
			metrics.LLMTokensUsed.WithLabelValues(c.model, "completion").Add(float64(resp.Usage.CompletionTokens))

			logger.Debug("Completion generated",
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			)

			content = resp.Choices[0].Message.Content
			return nil
		})
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	return content, nil
}

// Embed turns text into a fixed-length vector, consulting the cache first.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	hash := hashText(text)
	if c.cache != nil {
		if embedding, ok, err := c.cache.GetEmbedding(ctx, hash); err == nil && ok {
			metrics.EmbeddingCacheHits.Inc()
			return embedding, nil
		}
		metrics.EmbeddingCacheMisses.Inc()
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var embedding []float32

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateEmbeddings(
				ctx,
				openai.EmbeddingRequest{
					Input: []string{text},
					Model: openai.EmbeddingModel(c.embeddingModel),
				},
			)
			if err != nil {
				return fmt.Errorf("create embedding: %w", err)
			}
			if len(resp.Data) == 0 {
				return fmt.Errorf("embedding response was empty")
			}

			embedding = make([]float32, len(resp.Data[0].Embedding))
			copy(embedding, resp.Data[0].Embedding)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	if c.cache != nil {
		if err := c.cache.SetEmbedding(ctx, hash, embedding, 24*time.Hour); err != nil {
			logger.Warn("Failed to cache embedding", zap.Error(err))
		}
	}

	return embedding, nil
}

// EmbedBatch embeds texts in provider-sized batches.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, batchSize int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	embeddings := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		err := c.cb.Execute(ctx, func() error {
			return retry.Do(ctx, c.retryConfig, func() error {
				resp, err := c.client.CreateEmbeddings(
					ctx,
					openai.EmbeddingRequest{
						Input: batch,
						Model: openai.EmbeddingModel(c.embeddingModel),
					},
				)
				if err != nil {
					return fmt.Errorf("create batch embeddings: %w", err)
				}

				for _, data := range resp.Data {
					embedding := make([]float32, len(data.Embedding))
					copy(embedding, data.Embedding)
					embeddings = append(embeddings, embedding)
				}
				return nil
			})
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
		}
	}

	logger.Debug("Batch embeddings generated", zap.Int("count", len(embeddings)))
	return embeddings, nil
}

// GenerateSearchQuery turns a profile summary into a compact search phrase
// for embedding-based retrieval.
func (c *Client) GenerateSearchQuery(ctx context.Context, profileSummary, categories string) (string, error) {
	systemPrompt := "당신은 사용자 프로필을 분석하여 관련 고용노동 정책을 찾기 위한 키워드를 생성하는 전문가입니다."

	userPrompt := fmt.Sprintf(`다음은 사용자 프로필 정보입니다:
%s

이 사용자에게 관련될 수 있는 고용노동 정책을 찾기 위한 검색어를 생성해주세요.
사용자에게 해당되는 다음 카테고리 중 관련 항목을 고려하세요: %s

사용자의 연령, 고용 상태, 특수 상황(장애, 외국인, 가족 상황 등)을 고려하여 작성하세요.
검색어만 작성하고 다른 설명은 포함하지 마세요.`, profileSummary, categories)

	return c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.3,
		MaxTokens:    100,
	})
}

// GenerateAnswer produces the chat answer grounded in retrieved policy text.
func (c *Client) GenerateAnswer(ctx context.Context, question, policyContext, profileInfo string) (string, error) {
	systemPrompt := `당신은 고용노동부의 정책에 대한 지식을 갖춘 도우미입니다.
사용자의 질문에 대해 제공된 정책 정보를 바탕으로 정확하고 유용한 답변을 제공해주세요.
정책 정보에 없는 내용은 모른다고 솔직하게 말하고, 제공된 정보만을 바탕으로 답변해야 합니다.
사용자의 상황에 맞는 정책을 추천해주되, 항상 출처(페이지 번호)를 포함해 주세요.`

	if profileInfo != "" {
		systemPrompt += fmt.Sprintf("\n\n사용자 프로필 정보:\n%s\n\n이 정보를 고려하여 사용자에게 맞는 정책 정보를 제공해주세요.", profileInfo)
	}

	userPrompt := fmt.Sprintf("질문: %s\n\n참고 정보:\n%s", question, policyContext)

	return c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.7,
		MaxTokens:    1000,
	})
}
