package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gulfmed/scout/internal/agent"
	"github.com/gulfmed/scout/internal/agent/tools"
	"github.com/gulfmed/scout/internal/logging"
)

var (
	researchOutputDir string
	researchReportDir string
	researchMaxTurns  int
)

var researchCmd = &cobra.Command{
	Use:   "research <specialty>",
	Short: "Research manufacturers for a single medical specialty",
	Long: `Run one agent session that researches medical device manufacturers for
the given specialty and prints the final report. Companies saved during the
session are flushed to a CSV chunk in the output directory.`,
	Args: cobra.ExactArgs(1),
	Run:  runResearch,
}

func init() {
	researchCmd.Flags().StringVar(&researchOutputDir, "output", "",
		"Output directory for saved companies (default from config)")
	researchCmd.Flags().StringVar(&researchReportDir, "report-dir", "",
		"Write the final report as markdown into this directory")
	researchCmd.Flags().IntVar(&researchMaxTurns, "max-turns", 0,
		"Override the per-session turn budget")
}

func runResearch(cmd *cobra.Command, args []string) {
	specialty := args[0]

	cfg, err := loadConfig()
	HandleError(err, "Configuration error")

	outputDir := researchOutputDir
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	maxTurns := cfg.MaxTurns
	if researchMaxTurns > 0 {
		maxTurns = researchMaxTurns
	}

	logger := logging.GetLogger("research")
	logger.Info("Starting scout v%s research: %s", Version, specialty)

	m := setupMetrics(cfg)
	deps, st, err := buildDeps(cfg, outputDir, m)
	HandleError(err, "Failed to set up output store")

	p, err := researchProvider(cfg)
	HandleError(err, "Failed to create completion provider")

	registry := tools.NewRegistry(deps)
	session := agent.NewSession(p, registry,
		agent.WithMaxTurns(maxTurns),
		agent.WithMetrics(m),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, runErr := session.Run(ctx, agent.SpecialtyPrompt(specialty))
	if outcome != nil && outcome.FinalReport != "" {
		fmt.Println(outcome.FinalReport)
		if researchReportDir != "" {
			if path, werr := writeReportFile(researchReportDir, specialty, outcome.FinalReport); werr != nil {
				logger.Warn("failed to write report: %v", werr)
			} else {
				logger.Info("report written to %s", path)
			}
		}
	}

	// companies saved before a session failure are flushed regardless
	HandleError(flushPartial(st, logger), "Failed to flush saved companies")
	HandleError(runErr, "Research session failed")

	logger.Info("session %s finished: state=%s turns=%d tools=%d",
		session.ID, outcome.State, outcome.Stats.Turns, outcome.Stats.ToolCalls)
}

func writeReportFile(dir, topic, report string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := strings.ReplaceAll(topic, " ", "_") + "_report.md"
	path := filepath.Join(dir, name)
	content := fmt.Sprintf("# Research Report: %s\n\nGenerated: %s\n\n%s\n",
		topic, time.Now().Format(time.RFC3339), report)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
