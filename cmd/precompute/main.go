// Command precompute regenerates the shared-tier recommendations for every
// known profile bucket. Run it after a corpus reload or a prompt change so
// users see fresh results without paying pipeline latency.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ardkyer/labor-policy-assistant/internal/cache/redis"
	"github.com/ardkyer/labor-policy-assistant/internal/llm"
	"github.com/ardkyer/labor-policy-assistant/internal/metrics"
	"github.com/ardkyer/labor-policy-assistant/internal/recommend"
	"github.com/ardkyer/labor-policy-assistant/internal/storage/sqlite"
	"github.com/ardkyer/labor-policy-assistant/internal/vector/milvus"
	"github.com/ardkyer/labor-policy-assistant/pkg/config"
	appLogger "github.com/ardkyer/labor-policy-assistant/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	milvusClient, err := milvus.NewClient(
		cfg.Milvus.Endpoint,
		cfg.Milvus.APIKey,
		cfg.Milvus.CollectionName,
		cfg.Milvus.VectorDim,
	)
	if err != nil {
		appLogger.Fatal("Failed to create Milvus client", zap.Error(err))
	}
	defer milvusClient.Close()

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.EmbeddingModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
	)

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, embedding cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			llmClient.WithEmbeddingCache(redisClient)
		}
	}

	synthesizer := recommend.NewSynthesizer(llmClient)
	engine := recommend.NewEngine(synthesizer, llmClient, milvusClient, cfg.Recommend.OverfetchRatio, cfg.Recommend.TOCPageLimit)
	service := recommend.NewService(sqliteClient, engine, cfg.Recommend.TopK)

	types, err := sqliteClient.ListProfileTypes()
	if err != nil {
		appLogger.Fatal("Failed to list profile types", zap.Error(err))
	}

	appLogger.Info("Precomputing shared recommendations", zap.Int("profile_types", len(types)))

	pacing := time.Duration(cfg.Ingestion.PacingDelayMS) * time.Millisecond
	failures := 0

	for i, pt := range types {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		recs, err := service.RefreshShared(ctx, pt.ID)
		cancel()

		if err != nil {
			failures++
			appLogger.Error("Failed to refresh profile type",
				zap.Int64("profile_type_id", pt.ID),
				zap.Error(err),
			)
			continue
		}

		appLogger.Info("Profile type refreshed",
			zap.Int64("profile_type_id", pt.ID),
			zap.String("age_group", pt.AgeGroup),
			zap.String("employment", pt.EmploymentStatus),
			zap.Int("recommendations", len(recs)),
		)

		if i < len(types)-1 && pacing > 0 {
			time.Sleep(pacing)
		}
	}

	appLogger.Info("Precompute finished",
		zap.Int("total", len(types)),
		zap.Int("failures", failures),
	)

	if failures > 0 {
		os.Exit(1)
	}
}
