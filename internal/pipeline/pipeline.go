package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gantrylabs/gantry/internal/boundary"
	apperrors "github.com/gantrylabs/gantry/internal/errors"
	"github.com/gantrylabs/gantry/internal/logging"
)

// Commands holds the external commands the pipeline runs. An empty
// Typecheck means the typecheck step is skipped without side effects.
type Commands struct {
	Build     string
	Typecheck string
}

// Pipeline validates one task's changes before a PR may be created.
// A Pipeline is safe to reuse across tasks; each Run is independent.
type Pipeline struct {
	runner   Runner
	vcs      VCS
	matcher  *boundary.Matcher
	commands Commands
	logger   *logging.Logger
}

// New creates a validation pipeline. A nil runner defaults to
// ShellRunner; a nil logger discards output.
func New(runner Runner, vcs VCS, matcher *boundary.Matcher, commands Commands, logger *logging.Logger) *Pipeline {
	if runner == nil {
		runner = ShellRunner{}
	}
	if matcher == nil {
		matcher = boundary.NewMatcher(nil, nil)
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Pipeline{
		runner:   runner,
		vcs:      vcs,
		matcher:  matcher,
		commands: commands,
		logger:   logger,
	}
}

// Run executes the state machine once for a task attempt in its
// isolated working copy. The returned CheckResult is always non-nil and
// cumulative. On a step failure the error is a *apperrors.TaskError
// carrying the failure reason and diagnostics; on cancellation the
// context error is returned and any in-flight step's partial result is
// discarded.
func (p *Pipeline) Run(ctx context.Context, taskID, workdir, targetBranch string) (*CheckResult, error) {
	log := p.logger.WithTask(taskID)
	result := &CheckResult{FinalState: StateStart}

	state := StateStart
	var taskErr *apperrors.TaskError

	for !state.IsTerminal() {
		if err := ctx.Err(); err != nil {
			result.FinalState = StateFailed
			result.ErrorMessage = err.Error()
			return result, err
		}

		started := time.Now()
		var next State
		switch state {
		case StateStart:
			next = StateRebase
		case StateRebase:
			next, taskErr = p.runRebase(ctx, taskID, workdir, targetBranch, result)
		case StateBuild:
			next, taskErr = p.runBuild(ctx, taskID, workdir, result)
		case StateTypecheck:
			next, taskErr = p.runTypecheck(ctx, taskID, workdir, result)
		case StateDiff:
			next = p.runDiff(ctx, workdir, targetBranch, result)
		case StateSafetyScan:
			next, taskErr = p.runSafetyScan(taskID, result)
		default:
			next = StateFailed
			taskErr = apperrors.NewTaskError(taskID, apperrors.ReasonBuildFailure,
				fmt.Errorf("unknown pipeline state %q", state))
		}

		if state != StateStart {
			result.Steps = append(result.Steps, StepTiming{
				Step:       state,
				DurationMs: time.Since(started).Milliseconds(),
			})
			log.Debug("pipeline step finished", "step", state.String(), "next", next.String())
		}
		state = next
	}

	result.FinalState = state
	if state == StateDone {
		result.Success = true
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		// A step killed by cancellation is an abort, not a task failure.
		result.ErrorMessage = err.Error()
		return result, err
	}
	if taskErr != nil {
		result.ErrorMessage = taskErr.Error()
		return result, taskErr
	}
	return result, nil
}

func (p *Pipeline) runRebase(ctx context.Context, taskID, workdir, targetBranch string, result *CheckResult) (State, *apperrors.TaskError) {
	rebase := p.vcs.Rebase(ctx, targetBranch, workdir)
	if ctx.Err() != nil {
		// Killed mid-flight; the partial result is meaningless.
		return StateFailed, nil
	}
	result.Rebase = &rebase
	if !rebase.Success {
		err := apperrors.NewTaskError(taskID, apperrors.ReasonRebaseConflict,
			fmt.Errorf("rebase onto %s stopped on conflicts", targetBranch)).
			WithFiles(rebase.ConflictFiles)
		return StateFailed, err
	}
	return StateBuild, nil
}

func (p *Pipeline) runBuild(ctx context.Context, taskID, workdir string, result *CheckResult) (State, *apperrors.TaskError) {
	cmd := p.runner.Run(ctx, p.commands.Build, workdir)
	if ctx.Err() != nil {
		return StateFailed, nil
	}
	result.Build = &cmd
	if !cmd.Success {
		err := apperrors.NewTaskError(taskID, apperrors.ReasonBuildFailure,
			fmt.Errorf("build command failed: %s", firstLine(cmd.Stderr))).
			WithExitCode(cmd.ExitCode)
		return StateFailed, err
	}
	return StateTypecheck, nil
}

func (p *Pipeline) runTypecheck(ctx context.Context, taskID, workdir string, result *CheckResult) (State, *apperrors.TaskError) {
	if p.commands.Typecheck == "" {
		return StateDiff, nil
	}
	cmd := p.runner.Run(ctx, p.commands.Typecheck, workdir)
	if ctx.Err() != nil {
		return StateFailed, nil
	}
	result.Typecheck = &cmd
	if !cmd.Success {
		err := apperrors.NewTaskError(taskID, apperrors.ReasonTypecheckFailure,
			fmt.Errorf("typecheck command failed: %s", firstLine(cmd.Stderr))).
			WithExitCode(cmd.ExitCode)
		return StateFailed, err
	}
	return StateDiff, nil
}

// runDiff computes the changed-file set. An empty diff is valid; it is
// reported, not treated as an error.
func (p *Pipeline) runDiff(ctx context.Context, workdir, targetBranch string, result *CheckResult) State {
	changed, err := p.vcs.Diff(ctx, targetBranch, "HEAD", workdir)
	if err != nil {
		p.logger.Warn("diff failed, treating changed set as empty", "error", err.Error())
		changed = nil
	}
	result.ChangedFiles = changed
	return StateSafetyScan
}

func (p *Pipeline) runSafetyScan(taskID string, result *CheckResult) (State, *apperrors.TaskError) {
	classification := p.matcher.Classify(result.ChangedFiles)
	result.CautionFiles = classification.Caution
	result.Violations = classification.Violations

	if len(classification.Violations) > 0 {
		files := make([]string, len(classification.Violations))
		pairs := make([]string, len(classification.Violations))
		for i, v := range classification.Violations {
			files[i] = v.File
			pairs[i] = fmt.Sprintf("%s (matched %s)", v.File, v.Pattern)
		}
		err := apperrors.NewTaskError(taskID, apperrors.ReasonBoundaryViolation,
			fmt.Errorf("never-touch violations: %s", strings.Join(pairs, ", "))).
			WithFiles(files).
			WithPattern(classification.Violations[0].Pattern)
		return StateFailed, err
	}
	return StateDone, nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
