package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gulfmed/scout/internal/store"
)

var (
	consolidateDir    string
	consolidateOutput string
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Merge research chunk files into a single CSV",
	Long: `Merge all research_batch_*.csv chunk files in a directory into one
deduplicated CSV. When a company appears in multiple chunks the later chunk
wins.`,
	Run: runConsolidate,
}

func init() {
	consolidateCmd.Flags().StringVar(&consolidateDir, "dir", "",
		"Directory containing chunk files (default from config)")
	consolidateCmd.Flags().StringVarP(&consolidateOutput, "output", "o", "research_results.csv",
		"Name of the consolidated CSV, written into the chunk directory")
}

func runConsolidate(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	HandleError(err, "Configuration error")

	dir := consolidateDir
	if dir == "" {
		dir = cfg.OutputDir
	}

	st, err := store.New(dir)
	HandleError(err, "Failed to open chunk directory")

	path, count, err := st.Consolidate(consolidateOutput)
	HandleError(err, "Failed to consolidate chunks")
	fmt.Printf("Consolidated %d companies into %s\n", count, path)
}
