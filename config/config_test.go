package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("GROCERAI_SERVER_PORT")
		os.Unsetenv("GROCERAI_SERVER_ENVIRONMENT")
		os.Unsetenv("GROCERAI_LLM_PROVIDER")
		os.Unsetenv("GROCERAI_LLM_API_KEY")
		os.Unsetenv("GROCERAI_LLM_MODEL")
		os.Unsetenv("GROCERAI_CATALOG_DRIVER")
		os.Unsetenv("GROCERAI_CATALOG_DSN")
		os.Unsetenv("GROCERAI_INDEX_TYPE")
		os.Unsetenv("GROCERAI_INDEX_URL")
		os.Unsetenv("GROCERAI_INDEX_TOP_K")
		os.Unsetenv("GROCERAI_CACHE_TYPE")
		os.Unsetenv("GROCERAI_CACHE_REDIS_URL")
		os.Unsetenv("GROCERAI_CACHE_TTL")
		os.Unsetenv("GROCERAI_RATELIMIT_PER_IP")
		os.Unsetenv("GROCERAI_PIPELINE_MAX_PARALLEL_ITEMS")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("GROCERAI_LLM_API_KEY", "test-key")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8000" {
			t.Errorf("Server.Port = %s, want 8000", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Server.RequestTimeout != 120*time.Second {
			t.Errorf("Server.RequestTimeout = %v, want 120s", cfg.Server.RequestTimeout)
		}
		if cfg.LLM.Provider != "openai" {
			t.Errorf("LLM.Provider = %s, want openai", cfg.LLM.Provider)
		}
		if cfg.LLM.Model != "gpt-4o" {
			t.Errorf("LLM.Model = %s, want gpt-4o", cfg.LLM.Model)
		}
		if cfg.Catalog.Driver != "sqlite" {
			t.Errorf("Catalog.Driver = %s, want sqlite", cfg.Catalog.Driver)
		}
		if cfg.Index.Type != "memory" {
			t.Errorf("Index.Type = %s, want memory", cfg.Index.Type)
		}
		if cfg.Index.TopK != 5 {
			t.Errorf("Index.TopK = %d, want 5", cfg.Index.TopK)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 60 {
			t.Errorf("RateLimit.PerIP = %d, want 60", cfg.RateLimit.PerIP)
		}
		if cfg.Pipeline.MaxParallelItems != 1 {
			t.Errorf("Pipeline.MaxParallelItems = %d, want 1", cfg.Pipeline.MaxParallelItems)
		}
		if cfg.Pipeline.Scorer != "token_overlap" {
			t.Errorf("Pipeline.Scorer = %s, want token_overlap", cfg.Pipeline.Scorer)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("GROCERAI_SERVER_PORT", "9090")
		os.Setenv("GROCERAI_SERVER_ENVIRONMENT", "production")
		os.Setenv("GROCERAI_LLM_PROVIDER", "gemini")
		os.Setenv("GROCERAI_LLM_API_KEY", "custom-api-key")
		os.Setenv("GROCERAI_LLM_MODEL", "gemini-2.5-flash")
		os.Setenv("GROCERAI_CATALOG_DRIVER", "postgres")
		os.Setenv("GROCERAI_CATALOG_DSN", "postgres://localhost/grocer")
		os.Setenv("GROCERAI_INDEX_TYPE", "qdrant")
		os.Setenv("GROCERAI_INDEX_URL", "http://localhost:6333")
		os.Setenv("GROCERAI_INDEX_TOP_K", "8")
		os.Setenv("GROCERAI_CACHE_TYPE", "redis")
		os.Setenv("GROCERAI_CACHE_REDIS_URL", "redis://localhost:6379")
		os.Setenv("GROCERAI_CACHE_TTL", "24h")
		os.Setenv("GROCERAI_RATELIMIT_PER_IP", "200")
		os.Setenv("GROCERAI_PIPELINE_MAX_PARALLEL_ITEMS", "4")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.LLM.Provider != "gemini" {
			t.Errorf("LLM.Provider = %s, want gemini", cfg.LLM.Provider)
		}
		if cfg.LLM.APIKey != "custom-api-key" {
			t.Errorf("LLM.APIKey = %s, want custom-api-key", cfg.LLM.APIKey)
		}
		if cfg.LLM.Model != "gemini-2.5-flash" {
			t.Errorf("LLM.Model = %s, want gemini-2.5-flash", cfg.LLM.Model)
		}
		if cfg.Catalog.Driver != "postgres" {
			t.Errorf("Catalog.Driver = %s, want postgres", cfg.Catalog.Driver)
		}
		if cfg.Catalog.DSN != "postgres://localhost/grocer" {
			t.Errorf("Catalog.DSN = %s, want postgres://localhost/grocer", cfg.Catalog.DSN)
		}
		if cfg.Index.Type != "qdrant" {
			t.Errorf("Index.Type = %s, want qdrant", cfg.Index.Type)
		}
		if cfg.Index.URL != "http://localhost:6333" {
			t.Errorf("Index.URL = %s, want http://localhost:6333", cfg.Index.URL)
		}
		if cfg.Index.TopK != 8 {
			t.Errorf("Index.TopK = %d, want 8", cfg.Index.TopK)
		}
		if cfg.Cache.Type != "redis" {
			t.Errorf("Cache.Type = %s, want redis", cfg.Cache.Type)
		}
		if cfg.Cache.RedisURL != "redis://localhost:6379" {
			t.Errorf("Cache.RedisURL = %s, want redis://localhost:6379", cfg.Cache.RedisURL)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.Pipeline.MaxParallelItems != 4 {
			t.Errorf("Pipeline.MaxParallelItems = %d, want 4", cfg.Pipeline.MaxParallelItems)
		}
	})

	t.Run("fails validation when API key is missing", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing API key")
		}
		if err != nil && err.Error() != "invalid configuration: LLM API key is required (set GROCERAI_LLM_API_KEY)" {
			t.Errorf("Load() error = %v, want 'LLM API key is required'", err)
		}
	})

	t.Run("Read skips validation", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("GROCERAI_CATALOG_DSN", "import.db")
		defer cleanupEnv()

		cfg, err := Read()
		if err != nil {
			t.Fatalf("Read() error = %v, want nil without an API key", err)
		}
		if cfg.Catalog.DSN != "import.db" {
			t.Errorf("Catalog.DSN = %s, want import.db", cfg.Catalog.DSN)
		}
		if cfg.Catalog.Driver != "sqlite" {
			t.Errorf("Catalog.Driver = %s, want sqlite", cfg.Catalog.Driver)
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("GROCERAI_LLM_API_KEY", "test-key")
		os.Setenv("GROCERAI_CACHE_TYPE", "invalid")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails validation when redis URL missing for redis cache", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("GROCERAI_LLM_API_KEY", "test-key")
		os.Setenv("GROCERAI_CACHE_TYPE", "redis")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing Redis URL")
		}
	})

	t.Run("fails validation when qdrant URL missing", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("GROCERAI_LLM_API_KEY", "test-key")
		os.Setenv("GROCERAI_INDEX_TYPE", "qdrant")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing qdrant URL")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		err := loadEnvFile()
		if err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		envContent := `
# Comment line
TEST_VAR_1=value1
TEST_VAR_2=value2

# Another comment
TEST_VAR_3=value3
`
		err := os.WriteFile(".env", []byte(envContent), 0644)
		if err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")

		err = loadEnvFile()
		if err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "value2" {
			t.Errorf("TEST_VAR_2 = %s, want value2", os.Getenv("TEST_VAR_2"))
		}
		if os.Getenv("TEST_VAR_3") != "value3" {
			t.Errorf("TEST_VAR_3 = %s, want value3", os.Getenv("TEST_VAR_3"))
		}

		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		os.Setenv("TEST_OVERRIDE", "existing-value")

		err := os.WriteFile(".env", []byte("TEST_OVERRIDE=new-value"), 0644)
		if err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		err = loadEnvFile()
		if err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}

		os.Unsetenv("TEST_OVERRIDE")
	})
}

func validConfig() *Config {
	return &Config{
		LLM:      LLMConfig{Provider: "openai", APIKey: "test-key"},
		Catalog:  CatalogConfig{Driver: "sqlite", DSN: "products.db"},
		Index:    IndexConfig{Type: "memory", TopK: 5},
		Cache:    CacheConfig{Type: "memory"},
		Pipeline: PipelineConfig{MaxParallelItems: 1, Scorer: "token_overlap"},
	}
}

func TestValidate(t *testing.T) {
	t.Run("validates successfully with all required fields", func(t *testing.T) {
		if err := validate(validConfig()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"fails when API key is empty", func(c *Config) { c.LLM.APIKey = "" }},
		{"fails for unknown provider", func(c *Config) { c.LLM.Provider = "claude" }},
		{"fails for unknown catalog driver", func(c *Config) { c.Catalog.Driver = "mysql" }},
		{"fails for empty catalog DSN", func(c *Config) { c.Catalog.DSN = "" }},
		{"fails for unknown index type", func(c *Config) { c.Index.Type = "chroma" }},
		{"fails for non-positive top_k", func(c *Config) { c.Index.TopK = 0 }},
		{"fails for invalid cache type", func(c *Config) { c.Cache.Type = "invalid" }},
		{"fails for unknown scorer", func(c *Config) { c.Pipeline.Scorer = "cosine" }},
		{"fails for redis cache without URL", func(c *Config) { c.Cache.Type = "redis" }},
		{"fails for qdrant without collection", func(c *Config) {
			c.Index.Type = "qdrant"
			c.Index.URL = "http://localhost:6333"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := validate(cfg); err == nil {
				t.Error("validate() error = nil, want error")
			}
		})
	}

	t.Run("validates redis cache type with URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cache.Type = "redis"
		cfg.Cache.RedisURL = "redis://localhost:6379"
		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("clamps parallelism to at least one", func(t *testing.T) {
		cfg := validConfig()
		cfg.Pipeline.MaxParallelItems = 0
		if err := validate(cfg); err != nil {
			t.Fatalf("validate() error = %v, want nil", err)
		}
		if cfg.Pipeline.MaxParallelItems != 1 {
			t.Errorf("MaxParallelItems = %d, want 1", cfg.Pipeline.MaxParallelItems)
		}
	})
}
