package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// EmbeddingVectorDimensions is the width of the vector(768) columns on
// notices and policies. The provider must be asked for exactly this many
// values, so EMBEDDING_DIMENSIONS may not deviate from it.
const EmbeddingVectorDimensions = 768

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"YS_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"YS_DB_MAX_CONNS" default:"8"`

	YouthPolicyAPIKey string `envconfig:"YOUTH_POLICY_API_KEY" default:""`
	LHAPIKey          string `envconfig:"LH_API_KEY" default:""`

	EmbeddingAPIKey     string `envconfig:"EMBEDDING_API_KEY" default:""`
	EmbeddingEndpoint   string `envconfig:"EMBEDDING_ENDPOINT" default:"https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:embedContent"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"models/gemini-embedding-001"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`

	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.83"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("YS_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("YS_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("YS_DB_MIN_CONNS (%d) cannot exceed YS_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.EmbeddingDimensions != EmbeddingVectorDimensions {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must be %d to match the vector columns", EmbeddingVectorDimensions)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be between 0 and 1")
	}
	return nil
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
