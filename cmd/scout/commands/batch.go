package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gulfmed/scout/internal/agent"
	"github.com/gulfmed/scout/internal/agent/tools"
	"github.com/gulfmed/scout/internal/batch"
	"github.com/gulfmed/scout/internal/logging"
)

var (
	batchTopics      []string
	batchOutputDir   string
	batchParallel    bool
	batchWorkers     int
	batchPause       time.Duration
	batchMetricsAddr string
)

var batchCmd = &cobra.Command{
	Use:   "batch [topics-file]",
	Short: "Research multiple specialties in one run",
	Long: `Run a research session per topic, either sequentially with a pause
between topics or with a bounded worker pool. Topics come from the --topics
flag or from a file with one topic per line (lines starting with # are
skipped). Reports and batch_summary.json land in the output directory, and
saved companies are consolidated into a single CSV at the end.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runBatch,
}

func init() {
	batchCmd.Flags().StringSliceVar(&batchTopics, "topics", nil,
		"Topics to research (repeatable, alternative to a topics file)")
	batchCmd.Flags().StringVar(&batchOutputDir, "output", "",
		"Output directory for reports, chunks and the summary (default from config)")
	batchCmd.Flags().BoolVar(&batchParallel, "parallel", false,
		"Run topics concurrently with a worker pool")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0,
		"Worker pool size in parallel mode (default from config)")
	batchCmd.Flags().DurationVar(&batchPause, "pause", 0,
		"Pause between topics in sequential mode (default from config)")
	batchCmd.Flags().StringVar(&batchMetricsAddr, "metrics-addr", "",
		"Expose prometheus metrics on this address (e.g. :9190)")
}

func runBatch(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	HandleError(err, "Configuration error")

	topics := batchTopics
	if len(topics) == 0 && len(args) == 1 {
		topics, err = readTopicsFile(args[0])
		HandleError(err, "Failed to read topics file")
	}
	if len(topics) == 0 {
		HandleError(fmt.Errorf("no topics given: pass a topics file or --topics"), "Invalid arguments")
	}

	outputDir := batchOutputDir
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	workers := 1
	if batchParallel {
		workers = cfg.Workers
		if batchWorkers > 0 {
			workers = batchWorkers
		}
	}
	pause := time.Duration(cfg.TopicPauseSeconds) * time.Second
	if batchPause > 0 {
		pause = batchPause
	}

	logger := logging.GetLogger("batch")
	logger.Info("Starting scout v%s batch: %d topics, %d workers", Version, len(topics), workers)

	if batchMetricsAddr != "" {
		cfg.MetricsAddr = batchMetricsAddr
	}
	m := setupMetrics(cfg)
	deps, st, err := buildDeps(cfg, outputDir, m)
	HandleError(err, "Failed to set up output store")

	p, err := researchProvider(cfg)
	HandleError(err, "Failed to create completion provider")

	registry := tools.NewRegistry(deps)
	sessions := func() *agent.Session {
		return agent.NewSession(p, registry,
			agent.WithMaxTurns(cfg.MaxTurns),
			agent.WithMetrics(m),
		)
	}

	driver := batch.NewDriver(batch.Config{
		Topics:     topics,
		Workers:    workers,
		TopicPause: pause,
		OutputDir:  outputDir,
	}, sessions, st)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, runErr := driver.Run(ctx)
	if summary != nil {
		logger.Info("batch finished: %d topics, %d failed, %d companies, %d tokens",
			len(summary.Topics), summary.Failed, summary.Companies, summary.TotalTokens)
	}

	// flush before exiting on a driver error so completed topics survive
	HandleError(flushPartial(st, logger), "Failed to flush saved companies")
	HandleError(runErr, "Batch run failed")

	path, count, err := st.Consolidate("research_results.csv")
	HandleError(err, "Failed to consolidate results")
	fmt.Printf("Consolidated %d companies into %s\n", count, path)
}

func readTopicsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var topics []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		topics = append(topics, line)
	}
	return topics, nil
}
