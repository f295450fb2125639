package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"manual-spec-rag/internal/chromemdb"
	"manual-spec-rag/internal/chunker"
	"manual-spec-rag/internal/config"
	"manual-spec-rag/internal/embedding"
	"manual-spec-rag/internal/export"
	"manual-spec-rag/internal/extractor"
	"manual-spec-rag/internal/helper"
	"manual-spec-rag/internal/llmservice"
	"manual-spec-rag/internal/models"
	"manual-spec-rag/internal/parser"
	"manual-spec-rag/internal/rag"
)

const (
	configFilePath = "./configs/config.yaml"
	exportDir      = "./exports"
)

// queryList collects repeated -query flags.
type queryList []string

func (q *queryList) String() string {
	return strings.Join(*q, "; ")
}

func (q *queryList) Set(v string) error {
	*q = append(*q, v)
	return nil
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	var queries queryList
	filePath := flag.String("file", "", "Path to the service manual (pdf, docx, xlsx, pptx, txt)")
	flag.Var(&queries, "query", "Specification query, may be repeated")
	topK := flag.Int("k", 0, "Number of chunks to retrieve (overrides config)")
	budget := flag.Int("budget", 0, "Maximum number of chunks (overrides config)")
	exportFormat := flag.String("export", "", "Export format: csv, json, xlsx or html")
	outPath := flag.String("out", "", "Export file path")
	configPath := flag.String("config", configFilePath, "Path to the config file")
	dryRun := flag.Bool("dry-run", false, "Stop after chunking and print the chunks")
	flag.Parse()

	if *filePath == "" {
		log.Fatal().Msg("Please provide a document using the -file flag")
	}
	if len(queries) == 0 && !*dryRun {
		log.Fatal().Msg("Please provide at least one query using the -query flag")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if *topK > 0 {
		cfg.RAG.TopK = *topK
	}
	if *budget > 0 {
		cfg.RAG.ChunkBudget = *budget
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}
	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	var format export.Format
	if *exportFormat != "" {
		if format, err = export.ParseFormat(*exportFormat); err != nil {
			log.Fatal().Err(err).Msg("Invalid export format")
		}
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Error reading document")
	}
	doc := models.Document{Name: filepath.Base(*filePath), Data: data}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *dryRun {
		if err := printChunks(ctx, cfg, doc); err != nil {
			log.Fatal().Err(err).Msg("Error chunking document")
		}
		return
	}

	pipeline, err := buildPipeline(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing pipeline")
	}

	failed := false
	for i, query := range queries {
		runCtx, cancel := ctx, context.CancelFunc(func() {})
		if cfg.RAG.RunTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, cfg.RAG.RunTimeout)
		}
		res, err := pipeline.Run(runCtx, doc, query, printStage)
		cancel()
		if err != nil {
			failed = true
			printFailure(err)
			continue
		}

		printRecords(query, res)
		if format != "" {
			path := exportPath(*outPath, doc.Name, format, i, len(queries))
			if err := writeExport(path, format, res); err != nil {
				log.Error().Err(err).Str("path", path).Msg("Error exporting records")
				failed = true
				continue
			}
			log.Info().Str("path", path).Msg("Exported records")
		}
	}
	if failed {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && path == configFilePath {
			log.Warn().Str("path", path).Msg("Config file not found, using defaults")
			return config.Default(), nil
		}
		return nil, err
	}
	return config.LoadConfig(path)
}

func buildPipeline(cfg *config.Config) (*rag.RAG, error) {
	provider, err := embedding.NewProvider(&cfg.EmbedLLM)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	model, err := llmservice.NewModel(&cfg.ExtractLLM)
	if err != nil {
		return nil, fmt.Errorf("extraction model: %w", err)
	}
	specExtractor, err := extractor.NewLLMExtractor(model, extractor.Options{
		MaxTokens:       cfg.ExtractLLM.MaxTokens,
		MinConfidence:   cfg.RAG.MinConfidence,
		StrictGrounding: cfg.Grounding(),
	})
	if err != nil {
		return nil, err
	}

	var cache rag.ChunkStore
	if cfg.Cache.Enabled {
		cache = chromemdb.NewChunkCache()
	}
	return rag.NewRAG(cfg, provider, specExtractor, cache), nil
}

func printChunks(ctx context.Context, cfg *config.Config, doc models.Document) error {
	pages, err := parser.LoadPages(doc.Name, doc.Data)
	if err != nil {
		return err
	}
	reconstructed, err := parser.ReconstructAll(ctx, pages, cfg.RAG.RowTolerance, cfg.RAG.ParseConcurrency)
	if err != nil {
		return err
	}
	chunks := chunker.New(cfg.RAG.ChunkBudget, cfg.RAG.MinSegmentLength).Chunk(reconstructed)
	log.Info().Int("pages", len(reconstructed)).Int("chunks", len(chunks)).Msg("Chunked document")
	helper.PrettyPrint(chunks)
	return nil
}

func printStage(stage models.Stage, status models.StageStatus, description string) {
	var c *color.Color
	switch status {
	case models.StatusDone:
		c = color.New(color.FgGreen)
	case models.StatusError:
		c = color.New(color.FgRed, color.Bold)
	default:
		c = color.New(color.FgCyan)
	}
	c.Fprintf(os.Stderr, "[%-21s] %-6s %s\n", stage.Label(), status, description)
}

func printFailure(err error) {
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	var (
		rateErr *models.RateLimitedError
		authErr *models.InvalidCredentialsError
		openErr *models.DocumentOpenError
	)
	switch {
	case errors.As(err, &rateErr):
		fmt.Fprintf(os.Stderr, "%s the extraction provider is rate limiting requests, wait a minute and retry\n", red("Rate limited:"))
	case errors.As(err, &authErr):
		fmt.Fprintf(os.Stderr, "%s check extract_llm.key or EXTRACT_API_KEY\n", red("Invalid credentials:"))
	case errors.As(err, &openErr):
		fmt.Fprintf(os.Stderr, "%s %v\n", red("Cannot open document:"), openErr.Cause)
	default:
		fmt.Fprintf(os.Stderr, "%s %v\n", red("Run failed:"), err)
	}
}

func printRecords(query string, res *rag.Result) {
	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Printf("\n%s %s\n", boldCyan("Query:"), query)
	if len(res.Records) == 0 {
		fmt.Println("No specifications found.")
	}
	for _, r := range res.Records {
		page := "-"
		if r.SourcePage != nil {
			page = fmt.Sprintf("%d", *r.SourcePage)
		}
		line := fmt.Sprintf("%-32s %-14s %s %s", r.Component, r.SpecType, boldGreen(r.Value), r.Unit)
		if r.Condition != "" {
			line += " (" + r.Condition + ")"
		}
		if r.PartNumber != "" && r.SpecType != models.SpecPartNumber {
			line += " part " + r.PartNumber
		}
		fmt.Printf("%s  %s\n", line, faint(fmt.Sprintf("p.%s %d%%", page, export.ConfidencePercent(r.Confidence))))
	}

	fmt.Printf("\n%s\n", boldCyan("Retrieved context:"))
	for i, hit := range res.Retrieved {
		fmt.Printf("%2d. %-10s %.3f  %s\n", i+1, hit.Chunk.ID, hit.Score, faint(hit.Chunk.Section))
	}
}

func exportPath(out, docName string, format export.Format, index, total int) string {
	if out == "" {
		base := strings.TrimSuffix(docName, filepath.Ext(docName))
		out = filepath.Join(exportDir, base+format.FileExtension())
	}
	if total > 1 {
		ext := filepath.Ext(out)
		out = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(out, ext), index+1, ext)
	}
	return out
}

func writeExport(path string, format export.Format, res *rag.Result) error {
	if err := helper.CreateFolder(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return writeReport(f, format, res)
}

// writeReport closes w in every case and reports the close error when the write itself succeeded.
func writeReport(w io.WriteCloser, format export.Format, res *rag.Result) error {
	err := export.Write(w, format, export.Report{
		RunID:     res.RunID,
		Query:     res.Query,
		Records:   res.Records,
		Retrieved: res.Retrieved,
	})
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}
