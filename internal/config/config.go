// Package config loads process configuration with layered precedence:
// built-in defaults, then an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/Laksh-devta/shl-recommender-go/internal/logging"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfigPaths are searched in order; the first existing file wins.
var defaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/shl-recommender/config.yaml",
}

// Config is the full process configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Index     IndexConfig     `koanf:"index"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   logging.Config  `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout time.Duration `koanf:"timeout"`
}

// CatalogConfig locates the product snapshot.
type CatalogConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// EmbeddingConfig configures the embedding provider. Dimension must equal the
// index dimension; both default to the embedding-001 output size.
type EmbeddingConfig struct {
	BaseURL   string        `koanf:"base_url"`
	Model     string        `koanf:"model" validate:"required"`
	APIKey    string        `koanf:"api_key"`
	Dimension int           `koanf:"dimension" validate:"gt=0"`
	Timeout   time.Duration `koanf:"timeout"`
}

// IndexConfig configures the vector index gateway.
type IndexConfig struct {
	Backend string `koanf:"backend" validate:"oneof=pinecone sqlite memory"`

	Name      string `koanf:"name" validate:"required"`
	Dimension int    `koanf:"dimension" validate:"gt=0"`
	Metric    string `koanf:"metric" validate:"oneof=cosine dotproduct euclidean"`
	Cloud     string `koanf:"cloud"`
	Region    string `koanf:"region"`

	// Pinecone backend.
	APIKey     string `koanf:"api_key"`
	ControlURL string `koanf:"control_url"`

	// SQLite backend.
	DataPath string `koanf:"data_path"`

	PollInterval    time.Duration `koanf:"poll_interval"`
	MaxPollAttempts int           `koanf:"max_poll_attempts" validate:"gt=0"`
	Timeout         time.Duration `koanf:"timeout"`
}

// RecommendConfig configures the pipeline.
type RecommendConfig struct {
	Threshold     float64 `koanf:"threshold" validate:"gte=-1,lte=1"`
	TopK          int     `koanf:"top_k" validate:"gt=0"`
	SyncOnStartup bool    `koanf:"sync_on_startup"`
	SyncBatchSize int     `koanf:"sync_batch_size" validate:"gt=0"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 30 * time.Second,
		},
		Catalog: CatalogConfig{
			Path: "data/catalog.json",
		},
		Embedding: EmbeddingConfig{
			BaseURL:   "",
			Model:     "models/embedding-001",
			Dimension: 3072,
			Timeout:   30 * time.Second,
		},
		Index: IndexConfig{
			Backend:         "pinecone",
			Name:            "shl-assessment",
			Dimension:       3072,
			Metric:          "cosine",
			Cloud:           "aws",
			Region:          "us-east-1",
			DataPath:        "data",
			PollInterval:    time.Second,
			MaxPollAttempts: 60,
			Timeout:         10 * time.Second,
		},
		Recommend: RecommendConfig{
			Threshold:     0.5,
			TopK:          10,
			SyncOnStartup: false,
			SyncBatchSize: 32,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// configSections are the env var prefixes mapped into koanf paths:
// SERVER_PORT -> server.port, INDEX_MAX_POLL_ATTEMPTS -> index.max_poll_attempts.
var configSections = []string{"server", "catalog", "embedding", "index", "recommend", "logging"}

// legacyEnvVars keeps the original deployment's variable names working.
var legacyEnvVars = map[string]string{
	"GOOGLE_API_KEY":   "embedding.api_key",
	"PINECONE_API_KEY": "index.api_key",
	"PINECONE_ENV":     "index.region",
}

func envTransform(key string) string {
	if path, ok := legacyEnvVars[key]; ok {
		return path
	}
	lower := strings.ToLower(key)
	for _, section := range configSections {
		if strings.HasPrefix(lower, section+"_") {
			return section + "." + strings.TrimPrefix(lower, section+"_")
		}
	}
	return "" // not ours, skip
}

// Load builds the configuration: defaults, then the config file if one
// exists, then environment variables, then validation.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate checks field constraints plus the cross-field invariants the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	// The index stores what the model produces; a mismatch cannot work.
	if c.Embedding.Dimension != c.Index.Dimension {
		return fmt.Errorf("embedding dimension %d does not match index dimension %d",
			c.Embedding.Dimension, c.Index.Dimension)
	}

	if c.Index.Backend == "pinecone" {
		if c.Index.APIKey == "" {
			return fmt.Errorf("index.api_key (PINECONE_API_KEY) is required for the pinecone backend")
		}
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding.api_key (GOOGLE_API_KEY) is required for the pinecone backend")
		}
	}
	return nil
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
