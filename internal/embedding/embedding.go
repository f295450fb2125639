package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"manual-spec-rag/internal/config"
	"manual-spec-rag/internal/models"
)

// Provider maps text to fixed-dimension vectors. EmbedBatch returns one vector per input,
// in input order.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider builds the provider named by the config.
func NewProvider(cfg *config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderHash:
		return NewHashEmbedder(cfg.Dimensions), nil
	case config.ProviderOpenAI:
		e, err := NewOpenAIEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	case config.ProviderOllama:
		e, err := NewOllamaEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.Provider)
	}
}

// EmbedOne embeds a single text. A failed single call is retried once as a batch of one
// before the error is returned.
func EmbedOne(ctx context.Context, p Provider, text string) ([]float32, error) {
	vec, err := p.Embed(ctx, text)
	if err == nil {
		return vec, nil
	}
	if ctx.Err() != nil {
		return nil, asEmbeddingError(err)
	}

	log.Warn().Err(err).Msg("Single embedding failed, retrying as batch of one")
	vecs, batchErr := p.EmbedBatch(ctx, []string{text})
	if batchErr != nil {
		return nil, asEmbeddingError(batchErr)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, &models.EmbeddingError{
			Kind:  models.EmbeddingMalformed,
			Cause: fmt.Errorf("batch of one returned %d vectors", len(vecs)),
		}
	}
	return vecs[0], nil
}

// EmbedChunks embeds chunk texts in batches and returns copies with embeddings attached.
// Batches may run concurrently; the input is never modified and nothing is returned unless
// every batch succeeded.
func EmbedChunks(ctx context.Context, p Provider, chunks []models.Chunk, batchSize, concurrency int) ([]models.Chunk, error) {
	if batchSize <= 0 {
		batchSize = len(chunks)
	}
	start := time.Now()
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for from := 0; from < len(chunks); from += batchSize {
		to := min(from+batchSize, len(chunks))
		g.Go(func() error {
			texts := make([]string, 0, to-from)
			for _, c := range chunks[from:to] {
				texts = append(texts, c.Text)
			}
			vecs, err := p.EmbedBatch(gctx, texts)
			if err != nil {
				return asEmbeddingError(err)
			}
			if len(vecs) != len(texts) {
				return &models.EmbeddingError{
					Kind:  models.EmbeddingMalformed,
					Cause: fmt.Errorf("batch %d-%d: expected %d vectors, got %d", from, to, len(texts), len(vecs)),
				}
			}
			copy(vectors[from:to], vecs)
			log.Debug().Int("from", from).Int("to", to).Msg("Embedded chunk batch")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dim := -1
	out := make([]models.Chunk, len(chunks))
	for i, c := range chunks {
		if len(vectors[i]) == 0 {
			return nil, &models.EmbeddingError{Kind: models.EmbeddingMalformed, Cause: fmt.Errorf("empty vector for chunk %s", c.ID)}
		}
		if dim >= 0 && len(vectors[i]) != dim {
			return nil, &models.EmbeddingError{
				Kind:  models.EmbeddingMalformed,
				Cause: fmt.Errorf("chunk %s has dimension %d, expected %d", c.ID, len(vectors[i]), dim),
			}
		}
		dim = len(vectors[i])
		out[i] = c.Clone()
		out[i].Embedding = vectors[i]
	}

	log.Info().
		Int("chunks", len(out)).
		Int("dimensions", dim).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Msg("Embedded chunks")
	return out, nil
}

func asEmbeddingError(err error) error {
	var embErr *models.EmbeddingError
	if errors.As(err, &embErr) {
		return err
	}
	return &models.EmbeddingError{Kind: models.EmbeddingTransport, Cause: err}
}
