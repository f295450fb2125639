package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"manual-spec-rag/internal/config"
	"manual-spec-rag/internal/llmservice"
	"manual-spec-rag/internal/models"
)

const hostedBatchSize = 64

// HostedEmbedder calls a remote embedding model through langchaingo. Remote models are
// treated as non-deterministic: repeated calls may differ in the last bits.
type HostedEmbedder struct {
	embedder embeddings.Embedder
	limiter  *rate.Limiter
}

// NewHostedEmbedder wraps an embedder; requestsPerSecond <= 0 disables pacing.
func NewHostedEmbedder(embedder embeddings.Embedder, requestsPerSecond float64) *HostedEmbedder {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return &HostedEmbedder{embedder: embedder, limiter: limiter}
}

// NewOpenAIEmbedder creates an embedder for any OpenAI compatible endpoint.
func NewOpenAIEmbedder(llmConfig *config.LLMConfig) (*HostedEmbedder, error) {
	log.Debug().
		Str("base_url", llmConfig.BaseURL).
		Str("embedding_model", llmConfig.Model).
		Msg("Creating OpenAI embedder")

	llm, err := openai.New(llmservice.OpenAIOptions(llmConfig, true)...)
	if err != nil {
		return nil, fmt.Errorf("init openai embedder: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm, embeddings.WithBatchSize(hostedBatchSize))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return NewHostedEmbedder(embedder, llmConfig.RequestsPerSecond), nil
}

// NewOllamaEmbedder creates an embedder backed by an Ollama server.
func NewOllamaEmbedder(llmConfig *config.LLMConfig) (*HostedEmbedder, error) {
	log.Debug().
		Str("base_url", llmConfig.BaseURL).
		Str("embedding_model", llmConfig.Model).
		Msg("Creating Ollama embedder")

	llm, err := ollama.New(llmservice.OllamaOptions(llmConfig)...)
	if err != nil {
		return nil, fmt.Errorf("init ollama embedder: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm, embeddings.WithBatchSize(hostedBatchSize))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return NewHostedEmbedder(embedder, llmConfig.RequestsPerSecond), nil
}

func (h *HostedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, classify(err)
	}
	start := time.Now()
	vec, err := h.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, classify(err)
	}
	if len(vec) == 0 {
		return nil, &models.EmbeddingError{Kind: models.EmbeddingMalformed, Cause: fmt.Errorf("empty embedding")}
	}
	log.Debug().Int("dimensions", len(vec)).Int64("elapsed_ms", time.Since(start).Milliseconds()).Msg("Embedded query")
	return vec, nil
}

func (h *HostedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, classify(err)
	}
	vecs, err := h.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, classify(err)
	}
	if len(vecs) != len(texts) {
		return nil, &models.EmbeddingError{
			Kind:  models.EmbeddingMalformed,
			Cause: fmt.Errorf("expected %d vectors, got %d", len(texts), len(vecs)),
		}
	}
	for i, v := range vecs {
		if len(v) == 0 {
			return nil, &models.EmbeddingError{Kind: models.EmbeddingMalformed, Cause: fmt.Errorf("empty vector at index %d", i)}
		}
	}
	return vecs, nil
}

func classify(err error) error {
	kind := models.EmbeddingTransport
	switch llmservice.Classify(err) {
	case llmservice.FailureAuth:
		kind = models.EmbeddingAuth
	case llmservice.FailureRateLimit:
		kind = models.EmbeddingRateLimit
	}
	return &models.EmbeddingError{Kind: kind, Cause: err}
}
