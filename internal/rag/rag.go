package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"manual-spec-rag/internal/chunker"
	"manual-spec-rag/internal/config"
	"manual-spec-rag/internal/embedding"
	"manual-spec-rag/internal/extractor"
	"manual-spec-rag/internal/helper"
	"manual-spec-rag/internal/models"
	"manual-spec-rag/internal/parser"
)

// ChunkStore caches embedded chunks by document content hash.
type ChunkStore interface {
	Get(ctx context.Context, key string) ([]models.Chunk, bool, error)
	Put(ctx context.Context, key string, chunks []models.Chunk) error
}

type RAG struct {
	cfg       *config.Config
	parser    parser.Parser
	provider  embedding.Provider
	extractor extractor.SpecExtractor
	cache     ChunkStore
}

// Result is the outcome of one run. On failure Stage is StageFailed and Err holds the error of
// the failing stage; Chunks and Retrieved keep whatever earlier stages completed.
type Result struct {
	RunID     string               `json:"run_id"`
	Query     string               `json:"query"`
	Records   []models.SpecRecord  `json:"records"`
	Retrieved []models.ScoredChunk `json:"retrieved"`
	Chunks    []models.Chunk       `json:"-"`
	Stage     models.Stage         `json:"stage"`
	Err       error                `json:"-"`
}

// NewRAG wires a pipeline. cache may be nil to disable chunk reuse.
func NewRAG(cfg *config.Config, provider embedding.Provider, specExtractor extractor.SpecExtractor, cache ChunkStore) *RAG {
	return &RAG{
		cfg:       cfg,
		parser:    parser.FormatParser{},
		provider:  provider,
		extractor: specExtractor,
		cache:     cache,
	}
}

// run carries the per-run state; nothing in it is shared between runs.
type run struct {
	result  *Result
	onStage models.StageFunc
	logger  zerolog.Logger
	started time.Time
}

func (rn *run) emit(stage models.Stage, status models.StageStatus, description string) {
	rn.logger.Info().
		Str("stage", string(stage)).
		Str("status", string(status)).
		Int64("elapsed_ms", time.Since(rn.started).Milliseconds()).
		Msg(description)
	if rn.onStage != nil {
		rn.onStage(stage, status, description)
	}
}

func (rn *run) fail(stage models.Stage, err error) (*Result, error) {
	description := fmt.Sprintf("%s failed: %v", stage.Label(), err)
	rn.emit(stage, models.StatusError, description)
	rn.emit(models.StageFailed, models.StatusError, description)
	rn.result.Stage = models.StageFailed
	rn.result.Records = nil
	rn.result.Err = err
	return rn.result, err
}

func (rn *run) enter(ctx context.Context, stage models.Stage, description string) error {
	rn.result.Stage = stage
	if err := ctx.Err(); err != nil {
		return err
	}
	rn.emit(stage, models.StatusActive, description)
	return nil
}

// Run executes the stages strictly in order: reconstruction, chunking, embedding, retrieval and
// extraction. The first failing stage ends the run and its error is returned unchanged.
func (r *RAG) Run(ctx context.Context, doc models.Document, query string, onStage models.StageFunc) (*Result, error) {
	runID, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	rn := &run{
		result:  &Result{RunID: runID, Query: query, Stage: models.StageIdle},
		onStage: onStage,
		logger:  log.With().Str("run_id", runID).Str("document", doc.Name).Logger(),
		started: time.Now(),
	}
	if strings.TrimSpace(query) == "" {
		return rn.fail(models.StageIdle, models.ErrEmptyQuery)
	}

	chunks, err := r.prepareChunks(ctx, rn, doc)
	if err != nil {
		return rn.fail(rn.result.Stage, err)
	}

	if err := rn.enter(ctx, models.StageRetrieving, "Ranking chunks against the query"); err != nil {
		return rn.fail(models.StageRetrieving, err)
	}
	queryVec, err := embedding.EmbedOne(ctx, r.provider, query)
	if err != nil {
		return rn.fail(models.StageRetrieving, err)
	}
	hits, err := Retrieve(queryVec, chunks, r.cfg.RAG.TopK)
	if err != nil {
		return rn.fail(models.StageRetrieving, err)
	}
	rn.result.Retrieved = hits
	rn.emit(models.StageRetrieving, models.StatusDone, fmt.Sprintf("Retrieved %d chunks, best score %.3f", len(hits), hits[0].Score))

	if err := rn.enter(ctx, models.StageExtracting, "Extracting specifications"); err != nil {
		return rn.fail(models.StageExtracting, err)
	}
	records, err := r.extractor.Extract(ctx, query, BuildContext(hits))
	if err != nil {
		return rn.fail(models.StageExtracting, err)
	}
	rn.emit(models.StageExtracting, models.StatusDone, fmt.Sprintf("Extracted %d records", len(records)))

	rn.result.Records = records
	rn.result.Stage = models.StageCompleted
	rn.emit(models.StageCompleted, models.StatusDone, fmt.Sprintf("Run completed with %d records", len(records)))
	return rn.result, nil
}

// prepareChunks produces embedded chunks for doc, from the cache when the same bytes were
// processed before. On error the result Stage names the stage that failed.
func (r *RAG) prepareChunks(ctx context.Context, rn *run, doc models.Document) ([]models.Chunk, error) {
	key := helper.ContentHash(doc.Data)
	if r.cache != nil {
		cached, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			rn.logger.Warn().Err(err).Msg("Chunk cache read failed, rebuilding")
		}
		if ok && err == nil {
			for _, stage := range []models.Stage{models.StageReconstructing, models.StageChunking, models.StageEmbedding} {
				if err := rn.enter(ctx, stage, "Reused cached chunks"); err != nil {
					return nil, err
				}
				rn.emit(stage, models.StatusDone, fmt.Sprintf("Reused %d cached chunks", len(cached)))
			}
			rn.result.Chunks = cached
			return cached, nil
		}
	}

	if err := rn.enter(ctx, models.StageReconstructing, fmt.Sprintf("Reading %s", doc.Name)); err != nil {
		return nil, err
	}
	pages, err := r.parser.LoadPages(doc.Name, doc.Data)
	if err != nil {
		return nil, err
	}
	reconstructed, err := parser.ReconstructAll(ctx, pages, r.cfg.RAG.RowTolerance, r.cfg.RAG.ParseConcurrency)
	if err != nil {
		return nil, err
	}
	rn.emit(models.StageReconstructing, models.StatusDone, fmt.Sprintf("Reconstructed %d pages", len(reconstructed)))

	if err := rn.enter(ctx, models.StageChunking, "Splitting pages into chunks"); err != nil {
		return nil, err
	}
	chunks := chunker.New(r.cfg.RAG.ChunkBudget, r.cfg.RAG.MinSegmentLength).Chunk(reconstructed)
	rn.result.Chunks = chunks
	rn.emit(models.StageChunking, models.StatusDone, fmt.Sprintf("Built %d chunks, %d spec-priority", len(chunks), countPriority(chunks)))

	if err := rn.enter(ctx, models.StageEmbedding, fmt.Sprintf("Embedding %d chunks", len(chunks))); err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, models.ErrNoEmbeddedChunks
	}
	embedded, err := embedding.EmbedChunks(ctx, r.provider, chunks, r.cfg.RAG.EmbedBatchSize, r.cfg.RAG.EmbedConcurrency)
	if err != nil {
		return nil, err
	}
	rn.result.Chunks = embedded
	rn.emit(models.StageEmbedding, models.StatusDone, fmt.Sprintf("Embedded %d chunks", len(embedded)))

	if r.cache != nil {
		if err := r.cache.Put(ctx, key, embedded); err != nil && !errors.Is(err, context.Canceled) {
			rn.logger.Warn().Err(err).Msg("Failed to cache chunks")
		}
	}
	return embedded, nil
}

func countPriority(chunks []models.Chunk) int {
	n := 0
	for _, c := range chunks {
		if c.IsSpecPriority {
			n++
		}
	}
	return n
}
