package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gantrylabs/gantry/internal/boundary"
	"github.com/gantrylabs/gantry/internal/config"
	"github.com/gantrylabs/gantry/internal/errors"
	"github.com/gantrylabs/gantry/internal/pipeline"
	"github.com/gantrylabs/gantry/internal/worktree"
)

var checkTarget string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the validation pipeline against the current worktree",
	Long: `Check rebases the current branch onto the target branch, runs the
configured build and typecheck commands, and screens the changed files
against the boundary rules, the same gate a task must pass before a
PR is created.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkTarget, "target", "", "target branch to validate against (default: run.target_branch)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Commands.Build == "" {
		return fmt.Errorf("commands.build must be configured")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	repoRoot, err := worktree.FindGitRoot(cwd)
	if err != nil {
		return err
	}

	target := checkTarget
	if target == "" {
		target = cfg.Run.TargetBranch
	}

	git := worktree.NewGit()
	matcher := boundary.NewMatcher(cfg.Boundaries.NeverTouch, cfg.Boundaries.RequireReview)
	checks := pipeline.New(nil, git, matcher, pipeline.Commands{
		Build:     cfg.Commands.Build,
		Typecheck: cfg.Commands.Typecheck,
	}, nil)

	result, err := checks.Run(cmd.Context(), "check", repoRoot, target)
	printCheckResult(result)

	if err != nil {
		var taskErr *errors.TaskError
		if errors.As(err, &taskErr) {
			return fmt.Errorf("check failed: %s", taskErr.Reason)
		}
		return err
	}
	return nil
}

func printCheckResult(result *pipeline.CheckResult) {
	line("%s", headerStyle.Render("Pre-PR check"))

	if result.Rebase != nil {
		printStep("rebase", result.Rebase.Success)
		for _, file := range result.Rebase.ConflictFiles {
			line("      %s", failStyle.Render(file))
		}
	}
	if result.Build != nil {
		printStep("build", result.Build.Success)
	}
	if result.Typecheck != nil {
		printStep("typecheck", result.Typecheck.Success)
	}

	line("  changed files: %d", len(result.ChangedFiles))
	for _, violation := range result.Violations {
		line("  %s %s (matches %s)", failStyle.Render("forbidden:"), violation.File, violation.Pattern)
	}
	for _, file := range result.CautionFiles {
		line("  %s %s", warnStyle.Render("caution:"), file)
	}

	if result.Success {
		line("%s", successStyle.Render("All checks passed"))
	}
}

func printStep(name string, ok bool) {
	if ok {
		line("  %s %s", successStyle.Render("✓"), name)
	} else {
		line("  %s %s", failStyle.Render("✗"), name)
	}
}
