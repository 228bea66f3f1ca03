// Package worktree materializes tasks into isolated git working copies.
//
// Each task attempt runs in its own worktree on its own branch, so a
// failed or aborted task never dirties the main checkout. Git is driven
// through the CLI; the CommandExecutor abstraction lets tests substitute
// canned output without a real repository.
package worktree

import (
	"context"
	"os/exec"
)

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// Run executes a command in dir and returns combined output.
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// CLICommandExecutor executes commands using os/exec.
type CLICommandExecutor struct{}

// Run executes a command and returns combined output.
func (CLICommandExecutor) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}
