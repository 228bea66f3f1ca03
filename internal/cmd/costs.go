package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gantrylabs/gantry/internal/worktree"
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Show cost totals for the last run",
	Long: `Costs reads the report written by the run command and prints spend
grouped by phase and by engine, alongside per-task records.`,
	RunE: runCosts,
}

var costsVerbose bool

func init() {
	costsCmd.Flags().BoolVarP(&costsVerbose, "verbose", "v", false, "list individual cost records")
	rootCmd.AddCommand(costsCmd)
}

func runCosts(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	repoRoot, err := worktree.FindGitRoot(cwd)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(repoRoot, reportPath))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no run report found; run a document first")
		}
		return err
	}

	var report runReport
	if err := json.Unmarshal(data, &report); err != nil {
		return fmt.Errorf("failed to parse run report: %w", err)
	}

	line("%s", headerStyle.Render(fmt.Sprintf("Costs for run of %s", report.CreatedAt.Format("2006-01-02 15:04:05"))))
	if report.RunID != "" {
		line("  run id:          %s", report.RunID)
	}
	line("  total actual:    $%.2f", report.Summary.TotalActual)
	line("  total estimated: $%.2f", report.Summary.TotalEstimated)

	if len(report.Summary.ByPhase) > 0 {
		line("")
		line("%s", headerStyle.Render("By phase"))
		for _, scope := range report.Summary.ByPhase {
			line("  %-20s $%.2f  (%d record(s))", scope.Key, scope.ActualCost, scope.RecordCount)
		}
	}

	if len(report.Summary.ByEngine) > 0 {
		line("")
		line("%s", headerStyle.Render("By engine"))
		for _, scope := range report.Summary.ByEngine {
			line("  %-20s $%.2f  (%d iteration(s))", scope.Key, scope.ActualCost, scope.Iterations)
		}
	}

	if costsVerbose && len(report.Records) > 0 {
		line("")
		line("%s", headerStyle.Render("Records"))
		for _, record := range report.Records {
			line("  %s  %-16s $%.2f  %s", record.Timestamp.Format("15:04:05"), record.TaskID, record.ActualCost, dimStyle.Render(string(record.Source)))
		}
	}

	return nil
}
