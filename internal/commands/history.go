package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/moasq/distcheck/internal/config"
	"github.com/moasq/distcheck/internal/smoke"
	"github.com/moasq/distcheck/internal/storage"
	"github.com/moasq/distcheck/internal/terminal"
)

var historyFlags struct {
	dir   string
	limit int
	json  bool
	clear bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent smoke test runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(historyFlags.dir, "")
		if err != nil {
			return err
		}
		store := storage.NewRunStore(cfg.StateDir(), cfg.HistoryLimit)

		if historyFlags.clear {
			if err := store.Clear(); err != nil {
				return err
			}
			terminal.Success("Run history cleared")
			return nil
		}

		reports, err := store.Recent(historyFlags.limit)
		if err != nil {
			return err
		}

		if historyFlags.json {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		}

		if len(reports) == 0 {
			terminal.Info("No runs recorded yet. Run `distcheck` first.")
			return nil
		}

		terminal.Header("Recent runs")
		for _, r := range reports {
			terminal.Detail(r.StartedAt.Local().Format(time.DateTime), describeRun(r))
		}
		return nil
	},
}

// describeRun renders one history line: outcome, duration and first failure.
func describeRun(r smoke.Report) string {
	line := fmt.Sprintf("%s  %s", terminal.Mark(r.Success), r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	if r.Success {
		line += fmt.Sprintf("  %d output files", r.OutputEntries)
		if n := len(r.Warnings); n > 0 {
			line += fmt.Sprintf(", %d warnings", n)
		}
		return line
	}
	for _, cp := range r.Checkpoints {
		if cp.Status == smoke.StatusFailed {
			return line + "  failed at " + cp.Name
		}
	}
	return line + "  interrupted"
}

func init() {
	historyCmd.Flags().StringVarP(&historyFlags.dir, "dir", "d", ".", "Project root directory")
	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 10, "Number of runs to show")
	historyCmd.Flags().BoolVar(&historyFlags.json, "json", false, "Print runs as JSON")
	historyCmd.Flags().BoolVar(&historyFlags.clear, "clear", false, "Delete the stored run history")
}
