package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"manual-spec-rag/internal/models"
)

type Config struct {
	RAG        RAGConfig   `yaml:"rag"`
	EmbedLLM   LLMConfig   `yaml:"embed_llm"`
	ExtractLLM LLMConfig   `yaml:"extract_llm"`
	Cache      CacheConfig `yaml:"cache"`
	Log        LogConfig   `yaml:"log"`
}

type RAGConfig struct {
	ChunkBudget      int           `yaml:"chunk_budget"`
	MinSegmentLength int           `yaml:"min_segment_length"`
	TopK             int           `yaml:"top_k"`
	RowTolerance     float64       `yaml:"row_tolerance"`
	EmbedBatchSize   int           `yaml:"embed_batch_size"`
	EmbedConcurrency int           `yaml:"embed_concurrency"`
	ParseConcurrency int           `yaml:"parse_concurrency"`
	MinConfidence    float64       `yaml:"min_confidence"`
	StrictGrounding  *bool         `yaml:"strict_grounding"`
	RunTimeout       time.Duration `yaml:"run_timeout"`
}

// LLMConfig describes one model endpoint. Provider is "openai", "ollama" or, for embeddings only, "hash".
type LLMConfig struct {
	Provider          string  `yaml:"provider"`
	BaseURL           string  `yaml:"base_url"`
	Key               string  `yaml:"key"`
	Model             string  `yaml:"model"`
	Dimensions        int     `yaml:"dimensions"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	MaxTokens         int     `yaml:"max_tokens"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderHash   = "hash"

	defaultEmbedBatchSize   = 32
	defaultEmbedConcurrency = 2
	defaultParseConcurrency = 8
	defaultHashDimensions   = 512
	defaultMaxTokens        = 4096
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no file is present: local hashing embeddings
// and an OpenAI extraction model.
func Default() *Config {
	cfg := &Config{
		EmbedLLM:   LLMConfig{Provider: ProviderHash},
		ExtractLLM: LLMConfig{Provider: ProviderOpenAI},
		Cache:      CacheConfig{Enabled: true},
	}
	cfg.applyEnv()
	cfg.ApplyDefaults()
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("EMBED_API_KEY"); v != "" {
		c.EmbedLLM.Key = v
	}
	if v := os.Getenv("EXTRACT_API_KEY"); v != "" {
		c.ExtractLLM.Key = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if c.EmbedLLM.Key == "" && c.EmbedLLM.Provider == ProviderOpenAI {
			c.EmbedLLM.Key = v
		}
		if c.ExtractLLM.Key == "" && c.ExtractLLM.Provider == ProviderOpenAI {
			c.ExtractLLM.Key = v
		}
	}
}

func (c *Config) ApplyDefaults() {
	if c.RAG.ChunkBudget == 0 {
		c.RAG.ChunkBudget = models.DefaultChunkBudget
	}
	if c.RAG.MinSegmentLength == 0 {
		c.RAG.MinSegmentLength = models.DefaultMinSegmentLength
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = models.DefaultTopK
	}
	if c.RAG.RowTolerance == 0 {
		c.RAG.RowTolerance = models.DefaultRowTolerance
	}
	if c.RAG.EmbedBatchSize == 0 {
		c.RAG.EmbedBatchSize = defaultEmbedBatchSize
	}
	if c.RAG.EmbedConcurrency == 0 {
		c.RAG.EmbedConcurrency = defaultEmbedConcurrency
	}
	if c.RAG.ParseConcurrency == 0 {
		c.RAG.ParseConcurrency = defaultParseConcurrency
	}
	if c.RAG.MinConfidence == 0 {
		c.RAG.MinConfidence = models.DefaultMinConfidence
	}
	if c.RAG.StrictGrounding == nil {
		strict := true
		c.RAG.StrictGrounding = &strict
	}
	if c.EmbedLLM.Provider == "" {
		c.EmbedLLM.Provider = ProviderHash
	}
	if c.EmbedLLM.Provider == ProviderHash && c.EmbedLLM.Dimensions == 0 {
		c.EmbedLLM.Dimensions = defaultHashDimensions
	}
	if c.ExtractLLM.Provider == "" {
		c.ExtractLLM.Provider = ProviderOpenAI
	}
	if c.ExtractLLM.MaxTokens == 0 {
		c.ExtractLLM.MaxTokens = defaultMaxTokens
	}
	if c.Log.Level == "" {
		c.Log.Level = "debug"
	}
}

// Grounding reports whether records must be grounded in the retrieved context.
func (c *Config) Grounding() bool {
	return c.RAG.StrictGrounding == nil || *c.RAG.StrictGrounding
}

func (c *Config) Validate() error {
	var errs []error
	if c.RAG.ChunkBudget < 0 {
		errs = append(errs, fmt.Errorf("rag.chunk_budget must not be negative, got %d", c.RAG.ChunkBudget))
	}
	if c.RAG.TopK < 0 {
		errs = append(errs, fmt.Errorf("rag.top_k must not be negative, got %d", c.RAG.TopK))
	}
	if c.RAG.RowTolerance < 0 {
		errs = append(errs, fmt.Errorf("rag.row_tolerance must not be negative, got %g", c.RAG.RowTolerance))
	}
	if c.RAG.MinConfidence < 0 || c.RAG.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("rag.min_confidence must be within [0,1], got %g", c.RAG.MinConfidence))
	}
	switch c.EmbedLLM.Provider {
	case ProviderHash:
		if c.EmbedLLM.Dimensions <= 0 {
			errs = append(errs, fmt.Errorf("embed_llm.dimensions must be positive for the hash provider"))
		}
	case ProviderOpenAI, ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("embed_llm.provider %q is not supported", c.EmbedLLM.Provider))
	}
	switch c.ExtractLLM.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("extract_llm.provider %q is not supported", c.ExtractLLM.Provider))
	}
	return errors.Join(errs...)
}
