// Package config loads the recommender configuration from YAML files per environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/assesshub/recommender/internal/domain"
)

// Config holds the recommender API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Index    IndexConfig    `yaml:"index"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds catalog store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// LLMConfig holds settings for the embedding and rerank providers. Both speak the
// OpenAI-compatible API and may share one endpoint.
type LLMConfig struct {
	APIKey             string  `yaml:"api_key"`
	BaseURL            string  `yaml:"base_url"`
	EmbeddingModel     string  `yaml:"embedding_model"`
	Dimensions         int     `yaml:"dimensions"`
	QueryInstruction   string  `yaml:"query_instruction"`
	RerankModel        string  `yaml:"rerank_model"`
	EmbedTimeoutSec    int     `yaml:"embed_timeout_sec"`
	RerankTimeoutSec   int     `yaml:"rerank_timeout_sec"`
	EmbedMaxAttempts   int     `yaml:"embed_max_attempts"`
	EmbedRetryDelayMS  int     `yaml:"embed_retry_delay_ms"`
	DisableEmbedCache  bool    `yaml:"disable_embed_cache"`
	EmbedCacheTTLSec   int     `yaml:"embed_cache_ttl_sec"`
	RerankTemperature  float32 `yaml:"rerank_temperature"`
	RerankMaxOutputTok int     `yaml:"rerank_max_output_tokens"`
}

// PipelineConfig holds the retrieval and ranking knobs.
type PipelineConfig struct {
	RetrievalMultiplier int     `yaml:"retrieval_multiplier"`
	MinExtraCandidates  int     `yaml:"min_extra_candidates"`
	MinSimilarity       float64 `yaml:"min_similarity"`
	DefaultTopK         int     `yaml:"default_top_k"`
	MaxTopK             int     `yaml:"max_top_k"`
}

// IndexConfig holds HNSW index settings.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
}

// IndexerConfig holds the embedding backfill worker settings.
type IndexerConfig struct {
	Enabled     bool `yaml:"enabled"`
	IntervalSec int  `yaml:"interval_sec"`
	BatchSize   int  `yaml:"batch_size"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.LLM.Dimensions <= 0 {
		c.LLM.Dimensions = domain.DefaultVectorDimensions
	}
	if c.LLM.EmbedTimeoutSec <= 0 {
		c.LLM.EmbedTimeoutSec = 10
	}
	if c.LLM.RerankTimeoutSec <= 0 {
		c.LLM.RerankTimeoutSec = 20
	}
	if c.LLM.EmbedMaxAttempts <= 0 {
		c.LLM.EmbedMaxAttempts = 3
	}
	if c.LLM.EmbedRetryDelayMS <= 0 {
		c.LLM.EmbedRetryDelayMS = 200
	}
	if c.LLM.EmbedCacheTTLSec <= 0 {
		c.LLM.EmbedCacheTTLSec = 86400
	}
	if c.LLM.RerankTemperature <= 0 {
		c.LLM.RerankTemperature = 0.2
	}
	if c.LLM.RerankMaxOutputTok <= 0 {
		c.LLM.RerankMaxOutputTok = 1024
	}
	if c.Pipeline.RetrievalMultiplier <= 0 {
		c.Pipeline.RetrievalMultiplier = 2
	}
	if c.Pipeline.MinExtraCandidates <= 0 {
		c.Pipeline.MinExtraCandidates = 5
	}
	if c.Pipeline.MinSimilarity <= 0 {
		c.Pipeline.MinSimilarity = 0.7
	}
	if c.Pipeline.DefaultTopK <= 0 {
		c.Pipeline.DefaultTopK = 10
	}
	if c.Pipeline.MaxTopK <= 0 {
		c.Pipeline.MaxTopK = 50
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 32
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 400
	}
	if c.Indexer.IntervalSec <= 0 {
		c.Indexer.IntervalSec = 300
	}
	if c.Indexer.BatchSize <= 0 {
		c.Indexer.BatchSize = 32
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = domain.KeyPrefix
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.LLM.EmbeddingModel == "" {
		return fmt.Errorf("llm.embedding_model is required")
	}
	if c.Pipeline.MinSimilarity > 1 {
		return fmt.Errorf("pipeline.min_similarity must be between 0 and 1, got %g", c.Pipeline.MinSimilarity)
	}
	if c.Pipeline.DefaultTopK > c.Pipeline.MaxTopK {
		return fmt.Errorf("pipeline.default_top_k (%d) exceeds pipeline.max_top_k (%d)",
			c.Pipeline.DefaultTopK, c.Pipeline.MaxTopK)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
