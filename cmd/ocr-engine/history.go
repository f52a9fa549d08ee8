package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ocr-engine/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history [dir]",
	Short: "Show recent conversion runs for a directory",
	Long: `History lists the batch runs recorded for a directory, newest first,
with their processed/skipped/failed counts. With --run, the per-file
outcomes of one run are shown instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 10, "maximum number of runs to list")
	historyCmd.Flags().Int64("run", 0, "show per-file outcomes for this run ID")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	path := filepath.Join(dir, ledgerFile)
	if _, err := os.Stat(path); err != nil {
		fmt.Printf("no run history recorded in %s\n", dir)
		return nil
	}

	store, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if runID, _ := cmd.Flags().GetInt64("run"); runID > 0 {
		records, err := store.RunFiles(cmd.Context(), runID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Printf("no file records for run %d\n", runID)
			return nil
		}
		for _, rec := range records {
			if rec.Detail != "" {
				fmt.Printf("%-10s %s (%s)\n", rec.Outcome, rec.Name, rec.Detail)
			} else {
				fmt.Printf("%-10s %s\n", rec.Outcome, rec.Name)
			}
		}
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Printf("no run history recorded in %s\n", dir)
		return nil
	}
	for _, r := range runs {
		fmt.Printf("run %-4d %s  processed: %d, skipped: %d, errors: %d\n",
			r.ID, r.StartedAt.Format(time.RFC3339),
			r.Summary.Processed, r.Summary.Skipped, r.Summary.Errors)
	}
	return nil
}
