package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gulfmed/scout/internal/agent/provider"
	"github.com/gulfmed/scout/internal/config"
	"github.com/gulfmed/scout/internal/enrich"
	"github.com/gulfmed/scout/internal/logging"
	"github.com/gulfmed/scout/internal/ratelimit"
	"github.com/gulfmed/scout/internal/research/analysis"
	"github.com/gulfmed/scout/internal/research/scrape"
	"github.com/gulfmed/scout/internal/research/search"
	"github.com/gulfmed/scout/internal/store"
)

var (
	enrichInput     string
	enrichOutputDir string
	enrichBatchSize int
	enrichNoReview  bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a company spreadsheet without an agent loop",
	Long: `Research every row of an input CSV one at a time: scrape the company
website, fill gaps with web search, and run analysis (model-backed when a Groq
key is configured, rule-based otherwise). Progress is checkpointed so an
interrupted run resumes where it left off, and results are flushed in chunks
and consolidated at the end.`,
	Run: runEnrich,
}

func init() {
	enrichCmd.Flags().StringVar(&enrichInput, "input", "",
		"Input CSV with company_name, website, category, email, phone, location columns")
	enrichCmd.Flags().StringVar(&enrichOutputDir, "output", "",
		"Output directory for chunks and sidecar state (default from config)")
	enrichCmd.Flags().IntVar(&enrichBatchSize, "batch-size", 0,
		"Rows per flushed chunk (default from config)")
	enrichCmd.Flags().BoolVar(&enrichNoReview, "no-review", false,
		"Skip writing the data-quality review log")
	_ = enrichCmd.MarkFlagRequired("input")
}

func runEnrich(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	HandleError(err, "Configuration error")

	outputDir := enrichOutputDir
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	batchSize := cfg.BatchSize
	if enrichBatchSize > 0 {
		batchSize = enrichBatchSize
	}

	logger := logging.GetLogger("enrich")

	rows, err := store.ReadInput(enrichInput)
	HandleError(err, "Failed to read input CSV")
	logger.Info("Starting scout v%s enrichment: %d rows from %s", Version, len(rows), enrichInput)

	st, err := store.New(outputDir)
	HandleError(err, "Failed to set up output store")

	limiter := webLimiter(cfg)
	groq, groqLimiter := analysisProvider(cfg, logger)
	analyzer := analysis.New(groq, groqLimiter)

	enricher := enrich.New(scrape.New(limiter), search.NewClient(limiter), analyzer, st)

	reviewPath := filepath.Join(outputDir, "review_log.json")
	if enrichNoReview {
		reviewPath = ""
	}
	runCfg := enrich.Config{
		BatchSize:    batchSize,
		ProgressPath: filepath.Join(outputDir, "enrich_progress.json"),
		ReviewPath:   reviewPath,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := enricher.Run(ctx, rows, runCfg)
	if stats != nil {
		logger.Info("enrichment finished: processed=%d skipped=%d needs_review=%d chunks=%d",
			stats.Processed, stats.Skipped, stats.NeedsReview, stats.Chunks)
	}
	HandleError(err, "Enrichment run failed")

	path, count, err := st.Consolidate("enriched_results.csv")
	HandleError(err, "Failed to consolidate results")
	fmt.Printf("Consolidated %d companies into %s\n", count, path)
}

// analysisProvider returns the chat backend for row analysis, or nil when
// no Groq key is configured so the analyzer falls back to rules.
func analysisProvider(cfg *config.Config, logger *logging.Logger) (provider.Provider, *ratelimit.Limiter) {
	if cfg.GroqAPIKey == "" {
		logger.Info("no Groq key configured, using rule-based analysis")
		return nil, nil
	}
	groqCfg := provider.DefaultGroqConfig()
	groqCfg.APIKey = cfg.GroqAPIKey
	if cfg.GroqModel != "" {
		groqCfg.Model = cfg.GroqModel
	}
	p, err := provider.NewGroqProvider(groqCfg)
	if err != nil {
		logger.Warn("failed to create Groq provider, using rule-based analysis: %v", err)
		return nil, nil
	}
	return p, ratelimit.New(cfg.GroqRateLimit, 0, 0)
}
