package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tmc/langchaingo/llms"

	"manual-spec-rag/internal/llmservice"
	"manual-spec-rag/internal/models"
)

// SpecExtractor turns a query and its retrieved context into structured spec records.
type SpecExtractor interface {
	Extract(ctx context.Context, query, contextText string) ([]models.SpecRecord, error)
}

type Options struct {
	MaxTokens       int
	MinConfidence   float64
	StrictGrounding bool
}

// LLMExtractor asks a chat model for a JSON array of records and validates what comes back.
type LLMExtractor struct {
	llm    llms.Model
	opts   Options
	schema *jsonschema.Schema
}

func NewLLMExtractor(llm llms.Model, opts Options) (*LLMExtractor, error) {
	if llm == nil {
		return nil, errors.New("extraction model is required")
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = models.DefaultMinConfidence
	}
	schema, err := compileRecordSchema()
	if err != nil {
		return nil, err
	}
	return &LLMExtractor{llm: llm, opts: opts, schema: schema}, nil
}

// Extract issues a single deterministic model call. Unparseable output yields an empty result,
// call failures are mapped onto the extraction error types.
func (e *LLMExtractor) Extract(ctx context.Context, query, contextText string) ([]models.SpecRecord, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.ErrEmptyQuery
	}

	start := time.Now()
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, models.ExtractionSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(models.ExtractionUserTemplate, query, contextText)),
	}
	callOpts := []llms.CallOption{llms.WithTemperature(0), llms.WithTopK(1)}
	if e.opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(e.opts.MaxTokens))
	}

	resp, err := e.llm.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		log.Error().Err(err).Int64("elapsed_ms", time.Since(start).Milliseconds()).Msg("Extraction call failed")
		return nil, mapCallError(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		log.Warn().Msg("Extraction model returned no choices")
		return []models.SpecRecord{}, nil
	}

	raw := resp.Choices[0].Content
	items, ok := ParseRecordArray(raw)
	if !ok {
		log.Warn().Int("response_len", len(raw)).Str("response", truncate(raw, 200)).Msg("Unparseable extraction response, returning no records")
		return []models.SpecRecord{}, nil
	}

	records := e.postProcess(items, contextText)
	log.Info().
		Int("raw_items", len(items)).
		Int("records", len(records)).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Msg("Extraction completed")
	return records, nil
}

func (e *LLMExtractor) postProcess(items []map[string]any, contextText string) []models.SpecRecord {
	out := make([]models.SpecRecord, 0, len(items))
	for i, item := range items {
		rec, err := decodeRecord(e.schema, item)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Msg("Dropping invalid record")
			continue
		}
		for _, r := range SplitDualUnit(rec) {
			if e.opts.StrictGrounding && !IsGrounded(r, contextText) {
				log.Warn().Str("component", r.Component).Str("value", r.Value).Msg("Dropping record not present in context")
				continue
			}
			out = append(out, r)
		}
	}
	return FilterByConfidence(out, e.opts.MinConfidence)
}

// FilterByConfidence drops records strictly below the floor; a record at the floor is kept.
func FilterByConfidence(records []models.SpecRecord, floor float64) []models.SpecRecord {
	kept := make([]models.SpecRecord, 0, len(records))
	for _, r := range records {
		if r.Confidence < floor {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func mapCallError(err error) error {
	switch llmservice.Classify(err) {
	case llmservice.FailureAuth:
		return &models.InvalidCredentialsError{Cause: err}
	case llmservice.FailureRateLimit:
		return &models.RateLimitedError{Cause: err}
	case llmservice.FailureCanceled:
		return &models.ExtractionError{Message: "call canceled", Cause: err}
	default:
		return &models.ExtractionError{Message: err.Error(), Cause: err}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
