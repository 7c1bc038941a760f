package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RecommendationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labor_policy_recommendation_duration_seconds",
			Help:    "Recommendation pipeline duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"tier"},
	)

	RecommendationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labor_policy_recommendation_total",
			Help: "Total recommendation requests processed",
		},
		[]string{"tier", "status"},
	)

	RecommendationCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labor_policy_recommendation_cache_hits_total",
			Help: "Recommendation requests served from stored results",
		},
		[]string{"tier"},
	)

	RecommendationCacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labor_policy_recommendation_cache_misses_total",
			Help: "Recommendation requests that ran the full pipeline",
		},
		[]string{"tier"},
	)

	ChatDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "labor_policy_chat_duration_seconds",
			Help:    "Chat answer generation duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	ChatTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labor_policy_chat_total",
			Help: "Total chat questions processed",
		},
		[]string{"status"},
	)

	VectorResultsCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "labor_policy_vector_results_count",
			Help:    "Number of vector search results per query",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labor_policy_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	EmbeddingCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "labor_policy_embedding_cache_hits_total",
			Help: "Embedding lookups served from cache",
		},
	)

	EmbeddingCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "labor_policy_embedding_cache_misses_total",
			Help: "Embedding lookups that called the provider",
		},
	)

	ChunksIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "labor_policy_chunks_ingested_total",
			Help: "Total policy chunks embedded and indexed",
		},
	)
)

func Init() {
	prometheus.MustRegister(RecommendationDuration)
	prometheus.MustRegister(RecommendationTotal)
	prometheus.MustRegister(RecommendationCacheHits)
	prometheus.MustRegister(RecommendationCacheMisses)
	prometheus.MustRegister(ChatDuration)
	prometheus.MustRegister(ChatTotal)
	prometheus.MustRegister(VectorResultsCount)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(EmbeddingCacheHits)
	prometheus.MustRegister(EmbeddingCacheMisses)
	prometheus.MustRegister(ChunksIngested)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
