package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	SQLite    SQLiteConfig
	Milvus    MilvusConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Auth      AuthConfig
	Recommend RecommendConfig
	Ingestion IngestionConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type MilvusConfig struct {
	Endpoint       string
	APIKey         string
	CollectionName string
	VectorDim      int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

type LLMConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float32
	MaxTokens      int
}

type AuthConfig struct {
	JWTSecret          string
	TokenExpireMinutes int
}

type RecommendConfig struct {
	TopK           int
	OverfetchRatio int
	TOCPageLimit   int
}

type IngestionConfig struct {
	ChunkSize     int
	BatchSize     int
	PacingDelayMS int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/labor-policy")

	viper.SetEnvPrefix("LABOR_POLICY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("sqlite.path", "./data/laborpolicy.db")

	viper.SetDefault("milvus.endpoint", "localhost:19530")
	viper.SetDefault("milvus.collectionName", "labor_policy")
	viper.SetDefault("milvus.vectorDim", 1536)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.enabled", false)

	viper.SetDefault("llm.model", "gpt-3.5-turbo")
	viper.SetDefault("llm.embeddingModel", "text-embedding-3-small")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.maxTokens", 1000)

	viper.SetDefault("auth.tokenExpireMinutes", 1440)

	viper.SetDefault("recommend.topK", 5)
	viper.SetDefault("recommend.overfetchRatio", 3)
	viper.SetDefault("recommend.tocPageLimit", 20)

	viper.SetDefault("ingestion.chunkSize", 1000)
	viper.SetDefault("ingestion.batchSize", 100)
	viper.SetDefault("ingestion.pacingDelayMS", 100)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
