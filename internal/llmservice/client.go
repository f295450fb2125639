package llmservice

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"manual-spec-rag/internal/config"
)

// NewModel builds the chat model used for extraction.
func NewModel(llmConfig *config.LLMConfig) (llms.Model, error) {
	log.Debug().
		Str("provider", llmConfig.Provider).
		Str("base_url", llmConfig.BaseURL).
		Str("model", llmConfig.Model).
		Msg("Creating extraction model")

	switch llmConfig.Provider {
	case config.ProviderOpenAI:
		llm, err := openai.New(OpenAIOptions(llmConfig, false)...)
		if err != nil {
			return nil, err
		}
		return llm, nil
	case config.ProviderOllama:
		llm, err := ollama.New(OllamaOptions(llmConfig)...)
		if err != nil {
			return nil, err
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", llmConfig.Provider)
	}
}

// OpenAIOptions maps an endpoint config to client options. For embeddings the model is
// passed as the embedding model.
func OpenAIOptions(llmConfig *config.LLMConfig, embedding bool) []openai.Option {
	var opts []openai.Option
	if llmConfig.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
	}
	if llmConfig.Key != "" {
		opts = append(opts, openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")))
	}
	if llmConfig.Model != "" {
		if embedding {
			opts = append(opts, openai.WithEmbeddingModel(llmConfig.Model))
		} else {
			opts = append(opts, openai.WithModel(llmConfig.Model))
		}
	}
	return opts
}

func OllamaOptions(llmConfig *config.LLMConfig) []ollama.Option {
	var opts []ollama.Option
	if llmConfig.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
	}
	if llmConfig.Model != "" {
		opts = append(opts, ollama.WithModel(llmConfig.Model))
	}
	return opts
}
