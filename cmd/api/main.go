package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/ardkyer/labor-policy-assistant/internal/api/handlers"
	"github.com/ardkyer/labor-policy-assistant/internal/auth"
	"github.com/ardkyer/labor-policy-assistant/internal/cache/redis"
	"github.com/ardkyer/labor-policy-assistant/internal/chat"
	"github.com/ardkyer/labor-policy-assistant/internal/ingestion"
	"github.com/ardkyer/labor-policy-assistant/internal/llm"
	"github.com/ardkyer/labor-policy-assistant/internal/metrics"
	authmw "github.com/ardkyer/labor-policy-assistant/internal/middleware/auth"
	"github.com/ardkyer/labor-policy-assistant/internal/middleware/ratelimit"
	"github.com/ardkyer/labor-policy-assistant/internal/middleware/security"
	"github.com/ardkyer/labor-policy-assistant/internal/middleware/validation"
	"github.com/ardkyer/labor-policy-assistant/internal/profile"
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

	appLogger.Info("Starting Labor Policy Assistant API Server")

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

	if err := milvusClient.CreateCollection(context.Background()); err != nil {
		appLogger.Fatal("Failed to create collection", zap.Error(err))
	}

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

	authManager := auth.NewManager(
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenExpireMinutes)*time.Minute,
	)

	resolver := profile.NewResolver(sqliteClient)
	synthesizer := recommend.NewSynthesizer(llmClient)
	engine := recommend.NewEngine(synthesizer, llmClient, milvusClient, cfg.Recommend.OverfetchRatio, cfg.Recommend.TOCPageLimit)
	recommendService := recommend.NewService(sqliteClient, engine, cfg.Recommend.TopK)
	chatService := chat.NewService(llmClient, milvusClient, llmClient)
	processor := ingestion.NewProcessor(sqliteClient, milvusClient, llmClient,
		cfg.Ingestion.ChunkSize, cfg.Ingestion.BatchSize, cfg.Ingestion.PacingDelayMS)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	rateLimiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 60,
		Logger:               appLogger.GetLogger(),
	})
	defer rateLimiter.Stop()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(validation.Middleware(validation.Config{Logger: appLogger.GetLogger()}))

	authHandler := handlers.NewAuthHandler(sqliteClient, authManager, resolver, recommendService)
	profileHandler := handlers.NewProfileHandler(sqliteClient, resolver)
	policyHandler := handlers.NewPolicyHandler(sqliteClient, recommendService, milvusClient)
	chatHandler := handlers.NewChatHandler(sqliteClient, chatService)
	wsHandler := handlers.NewWebSocketHandler(sqliteClient, chatService)
	documentHandler := handlers.NewDocumentHandler(processor)

	requireAuth := authmw.Middleware(authmw.Config{
		Manager: authManager,
		Logger:  appLogger.GetLogger(),
	})

	api := app.Group("/api/v1")

	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)
	api.Get("/auth/me", requireAuth, authHandler.Me)

	api.Get("/profiles/me", requireAuth, profileHandler.GetProfile)
	api.Put("/profiles/me", requireAuth, profileHandler.UpdateProfile)

	policies := api.Group("/policies", requireAuth, rateLimiter.Middleware())
	policies.Get("/", policyHandler.ListPolicies)
	policies.Get("/search", policyHandler.SearchPolicies)
	policies.Get("/recommendations", policyHandler.GetRecommendations)
	policies.Post("/recommendations/refresh", policyHandler.RefreshRecommendations)
	policies.Get("/recommendations/shared", policyHandler.GetSharedRecommendations)
	policies.Post("/saved/:policyId", policyHandler.SavePolicy)
	policies.Delete("/saved/:policyId", policyHandler.UnsavePolicy)
	policies.Get("/saved", policyHandler.ListSavedPolicies)
	policies.Get("/saved/:policyId", policyHandler.IsPolicySaved)
	policies.Get("/:policyId", policyHandler.GetPolicy)

	api.Post("/chat", requireAuth, rateLimiter.Middleware(), chatHandler.HandleMessage)

	api.Post("/documents", requireAuth, documentHandler.UploadDocument)

	wsAuth := authmw.TokenFromQuery(authmw.Config{
		Manager: authManager,
		Logger:  appLogger.GetLogger(),
	})
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat", wsAuth, websocket.New(wsHandler.HandleConnection))

	app.Get("/metrics", metrics.MetricsHandler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
