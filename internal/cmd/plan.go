package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gantrylabs/gantry/internal/orchestrator"
	"github.com/gantrylabs/gantry/internal/prd"
)

var planCmd = &cobra.Command{
	Use:   "plan <requirements-file>",
	Short: "Compute and display the execution plan without running anything",
	Long: `Plan loads a requirements document, builds the dependency graph and
file-overlap groups for each phase, and prints the resulting wave
schedule. Scheduling errors (cycles, dangling dependencies,
unsatisfiable orderings) are reported here exactly as the run command
would hit them.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	doc, err := prd.LoadDocument(args[0])
	if err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	line("%s", headerStyle.Render(doc.Title))

	for i := range doc.Phases {
		phase := &doc.Phases[i]
		plan, groups, err := orchestrator.Plan(phase)
		if err != nil {
			return fmt.Errorf("phase %s: %w", phase.ID, err)
		}

		line("")
		line("%s", headerStyle.Render(fmt.Sprintf("Phase %s: %s", phase.ID, phase.Name)))
		line("  %d task(s), %d wave(s)", len(phase.Tasks), len(plan.Waves))

		if len(groups.Overlaps) > 0 {
			line("  %s", warnStyle.Render("File overlaps force sequential execution:"))
			for _, overlap := range groups.Overlaps {
				line("    %s: %s", overlap.File, strings.Join(overlap.TaskIDs, ", "))
			}
		}

		for wave, members := range plan.Waves {
			line("  wave %d: %s", wave+1, strings.Join(members, ", "))
		}
	}

	return nil
}
