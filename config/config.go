package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	LLM       LLMConfig
	Catalog   CatalogConfig
	Index     IndexConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Pipeline  PipelineConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// LLMConfig holds language model provider configuration
type LLMConfig struct {
	Provider           string        `mapstructure:"provider"` // "openai" or "gemini"
	APIKey             string        `mapstructure:"api_key"`
	BaseURL            string        `mapstructure:"base_url"`
	Model              string        `mapstructure:"model"`
	VisionModel        string        `mapstructure:"vision_model"`
	TranscriptionModel string        `mapstructure:"transcription_model"`
	EmbeddingModel     string        `mapstructure:"embedding_model"`
	Temperature        float32       `mapstructure:"temperature"`
	Timeout            time.Duration `mapstructure:"timeout"`
	RequestsPerSecond  float64       `mapstructure:"requests_per_second"`
	Burst              int           `mapstructure:"burst"`
	MaxRetries         int           `mapstructure:"max_retries"`
}

// CatalogConfig holds product database configuration
type CatalogConfig struct {
	Driver       string `mapstructure:"driver"` // "sqlite" or "postgres"
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// IndexConfig holds similarity index configuration
type IndexConfig struct {
	Type       string        `mapstructure:"type"` // "memory" or "qdrant"
	TopK       int           `mapstructure:"top_k"`
	URL        string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	Collection string        `mapstructure:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds catalog lookup cache configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds inbound rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// PipelineConfig tunes the order resolution pipeline
type PipelineConfig struct {
	MaxParallelItems int    `mapstructure:"max_parallel_items"`
	Scorer           string `mapstructure:"scorer"` // "token_overlap" or "edit_distance"
	StripLeadIns     bool   `mapstructure:"strip_lead_ins"`
}

// envKeyReplacer maps nested keys like "llm.api_key" to GROCERAI_LLM_API_KEY
var envKeyReplacer = strings.NewReplacer(".", "_")

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	config, err := Read()
	if err != nil {
		return nil, err
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Read loads configuration like Load but skips validation. Tools that need
// only part of the configuration check the fields they use.
func Read() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/grocerai/")

	// Environment variable settings
	v.SetEnvPrefix("GROCERAI")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env into the process environment if present.
// Variables that are already set are left untouched.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.request_timeout", "120s")
	v.SetDefault("server.max_upload_bytes", 25<<20)

	// LLM defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.vision_model", "gpt-4o")
	v.SetDefault("llm.transcription_model", "whisper-1")
	v.SetDefault("llm.embedding_model", "text-embedding-ada-002")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.requests_per_second", 3.0)
	v.SetDefault("llm.burst", 5)
	v.SetDefault("llm.max_retries", 3)

	// Catalog defaults
	v.SetDefault("catalog.driver", "sqlite")
	v.SetDefault("catalog.dsn", "products.db")
	v.SetDefault("catalog.max_open_conns", 10)

	// Index defaults
	v.SetDefault("index.type", "memory")
	v.SetDefault("index.top_k", 5)
	v.SetDefault("index.url", "")
	v.SetDefault("index.api_key", "")
	v.SetDefault("index.collection", "products")
	v.SetDefault("index.timeout", "15s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "1h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)

	// Pipeline defaults
	v.SetDefault("pipeline.max_parallel_items", 1)
	v.SetDefault("pipeline.scorer", "token_overlap")
	v.SetDefault("pipeline.strip_lead_ins", true)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key is required (set GROCERAI_LLM_API_KEY)")
	}
	if config.LLM.Provider != "openai" && config.LLM.Provider != "gemini" {
		return fmt.Errorf("llm provider must be 'openai' or 'gemini', got: %s", config.LLM.Provider)
	}
	if config.Catalog.Driver != "sqlite" && config.Catalog.Driver != "postgres" {
		return fmt.Errorf("catalog driver must be 'sqlite' or 'postgres', got: %s", config.Catalog.Driver)
	}
	if config.Catalog.DSN == "" {
		return fmt.Errorf("catalog DSN is required (set GROCERAI_CATALOG_DSN)")
	}
	if config.Index.Type != "memory" && config.Index.Type != "qdrant" {
		return fmt.Errorf("index type must be 'memory' or 'qdrant', got: %s", config.Index.Type)
	}
	if config.Index.Type == "qdrant" && (config.Index.URL == "" || config.Index.Collection == "") {
		return fmt.Errorf("qdrant URL and collection are required when index type is 'qdrant'")
	}
	if config.Index.TopK <= 0 {
		return fmt.Errorf("index top_k must be positive, got: %d", config.Index.TopK)
	}
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}
	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}
	if config.Pipeline.Scorer != "token_overlap" && config.Pipeline.Scorer != "edit_distance" {
		return fmt.Errorf("pipeline scorer must be 'token_overlap' or 'edit_distance', got: %s", config.Pipeline.Scorer)
	}
	if config.Pipeline.MaxParallelItems <= 0 {
		config.Pipeline.MaxParallelItems = 1
	}
	return nil
}
