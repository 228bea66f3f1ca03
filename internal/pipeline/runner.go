package pipeline

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// Runner executes an external command and captures its full output.
// Implementations are synchronous: the call suspends until the process
// exits or the context is canceled.
type Runner interface {
	Run(ctx context.Context, command, cwd string) CommandResult
}

// VCS is the version-control adapter the pipeline depends on.
type VCS interface {
	// Rebase rebases the current branch onto targetBranch in cwd.
	Rebase(ctx context.Context, targetBranch, cwd string) RebaseResult

	// Diff returns the file paths changed between fromRef and toRef.
	Diff(ctx context.Context, fromRef, toRef, cwd string) ([]string, error)
}

// ShellRunner runs commands through "sh -c" so configured build and
// typecheck commands may use shell syntax.
type ShellRunner struct{}

// Run executes command in cwd. An empty command is a caller error and
// is returned as a failed CommandResult rather than a panic or Go
// error.
func (ShellRunner) Run(ctx context.Context, command, cwd string) CommandResult {
	if command == "" {
		return CommandResult{
			Command:  command,
			Success:  false,
			ExitCode: -1,
			Stderr:   "empty command",
		}
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = cwd
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	elapsed := time.Since(started)

	result := CommandResult{
		Command:    command,
		Success:    err == nil,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMs: elapsed.Milliseconds(),
	}
	if err != nil {
		result.ExitCode = -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else if result.Stderr == "" {
			result.Stderr = err.Error()
		}
	}
	return result
}
