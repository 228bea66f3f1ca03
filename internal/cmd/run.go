package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gantrylabs/gantry/internal/agent"
	"github.com/gantrylabs/gantry/internal/boundary"
	"github.com/gantrylabs/gantry/internal/budget"
	"github.com/gantrylabs/gantry/internal/config"
	"github.com/gantrylabs/gantry/internal/logging"
	"github.com/gantrylabs/gantry/internal/orchestrator"
	"github.com/gantrylabs/gantry/internal/pipeline"
	"github.com/gantrylabs/gantry/internal/pr"
	"github.com/gantrylabs/gantry/internal/prd"
	"github.com/gantrylabs/gantry/internal/worktree"
)

// runReport is what the run command persists for later inspection by
// the costs command.
type runReport struct {
	RunID     string                  `json:"run_id"`
	CreatedAt time.Time               `json:"created_at"`
	Result    *orchestrator.RunResult `json:"result"`
	Records   []budget.Record         `json:"records"`
	Summary   budget.Summary          `json:"summary"`
}

// reportPath is relative to the repository root.
const reportPath = ".gantry/last-run.json"

var runCmd = &cobra.Command{
	Use:   "run <requirements-file>",
	Short: "Execute a requirements document end to end",
	Long: `Run schedules the document's tasks, dispatches each to the configured
agent engine in an isolated worktree, validates the changes (rebase,
build, typecheck, boundary scan), and opens a pull request for every
task that passes.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Commands.Build == "" {
		return fmt.Errorf("commands.build must be configured before running")
	}

	doc, err := prd.LoadDocument(args[0])
	if err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	repoRoot, err := worktree.FindGitRoot(cwd)
	if err != nil {
		return err
	}

	runDir := filepath.Join(repoRoot, ".gantry")
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		logger, err = logging.NewLogger(runDir, logging.ParseLevel(cfg.Logging.Level), logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		if err != nil {
			return err
		}
		defer logger.Close()
	}
	runID := uuid.NewString()
	logger = logger.WithRun(runID)

	worktreeDir := cfg.Run.WorktreeDir
	if !filepath.IsAbs(worktreeDir) {
		worktreeDir = filepath.Join(repoRoot, worktreeDir)
	}
	manager, err := worktree.NewManager(repoRoot, worktreeDir, logger)
	if err != nil {
		return err
	}

	git := worktree.NewGit()
	matcher := boundary.NewMatcher(cfg.Boundaries.NeverTouch, cfg.Boundaries.RequireReview)
	checks := pipeline.New(nil, git, matcher, pipeline.Commands{
		Build:     cfg.Commands.Build,
		Typecheck: cfg.Commands.Typecheck,
	}, logger)

	tracker := budget.NewTracker(budget.Config{
		DefaultTaskCeiling: cfg.Budget.DefaultTaskCeiling,
		SessionCap:         cfg.Budget.SessionCap,
		WarnThreshold:      cfg.Budget.WarnThreshold,
	}, logger)

	engine := agent.NewClaudeEngine(logger)
	engine.Binary = cfg.Engine.Binary
	engine.Model = cfg.Engine.Model
	engine.ExtraArgs = cfg.Engine.ExtraArgs

	orch := orchestrator.New(cfg, doc, engine, git, manager, checks, tracker, pr.NewClient(repoRoot), logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	report := runReport{
		RunID:     runID,
		CreatedAt: time.Now(),
		Result:    result,
		Records:   tracker.Records(),
		Summary:   tracker.Summary(),
	}
	if err := writeReport(repoRoot, report); err != nil {
		logger.Warn("failed to write run report", "error", err.Error())
	}

	printRunResult(result)
	if result.Stopped {
		return fmt.Errorf("run stopped early: %s", result.StoppedReason)
	}
	return nil
}

func writeReport(repoRoot string, report runReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(repoRoot, reportPath), data, 0o644)
}

func printRunResult(result *orchestrator.RunResult) {
	line("")
	line("%s", headerStyle.Render("Run summary"))
	for _, task := range result.Tasks {
		switch task.Status {
		case orchestrator.StatusComplete:
			line("  %s %s  %s", successStyle.Render("✓"), task.TaskID, dimStyle.Render(task.PRURL))
		case orchestrator.StatusSkipped:
			line("  %s %s  %s", dimStyle.Render("-"), task.TaskID, dimStyle.Render("skipped"))
		default:
			line("  %s %s  %s", failStyle.Render("✗"), task.TaskID, task.Error)
		}
	}

	counts := result.Counts()
	line("")
	line("  complete: %d  failed: %d  blocked: %d  skipped: %d",
		counts[orchestrator.StatusComplete],
		counts[orchestrator.StatusFailed],
		counts[orchestrator.StatusBlocked],
		counts[orchestrator.StatusSkipped])
}
