package worktree

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gantrylabs/gantry/internal/errors"
	"github.com/gantrylabs/gantry/internal/pipeline"
)

// Git drives git through the CLI and implements the pipeline's
// version-control adapter.
type Git struct {
	executor CommandExecutor
}

// NewGit creates a Git using the real CLI executor.
func NewGit() *Git {
	return &Git{executor: CLICommandExecutor{}}
}

// NewGitWithExecutor creates a Git with a custom executor, primarily
// for tests.
func NewGitWithExecutor(executor CommandExecutor) *Git {
	return &Git{executor: executor}
}

// Rebase rebases the current branch in cwd onto targetBranch. On
// conflict the conflicting files are recorded, the rebase is aborted to
// leave the worktree clean, and the result reports failure. Conflicts
// are never auto-resolved here.
func (g *Git) Rebase(ctx context.Context, targetBranch, cwd string) pipeline.RebaseResult {
	output, err := g.executor.Run(ctx, cwd, "git", "rebase", targetBranch)
	if err == nil {
		return pipeline.RebaseResult{Success: true, Output: string(output)}
	}

	conflicts := g.conflictingFiles(ctx, cwd)

	// Abort so the worktree stays usable for diagnosis or retry.
	_, _ = g.executor.Run(ctx, cwd, "git", "rebase", "--abort")

	return pipeline.RebaseResult{
		Success:       false,
		ConflictFiles: conflicts,
		Output:        string(output),
	}
}

// Diff returns the file paths changed between fromRef and toRef.
func (g *Git) Diff(ctx context.Context, fromRef, toRef, cwd string) ([]string, error) {
	output, err := g.executor.Run(ctx, cwd, "git", "diff", "--name-only", fromRef+"..."+toRef)
	if err != nil {
		return nil, errors.NewGitError("failed to compute diff", err).
			WithRepository(cwd).
			WithGitOutput(string(output))
	}
	return splitLines(output), nil
}

// conflictingFiles lists unmerged paths in cwd.
func (g *Git) conflictingFiles(ctx context.Context, cwd string) []string {
	output, err := g.executor.Run(ctx, cwd, "git", "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil
	}
	return splitLines(output)
}

// CurrentBranch returns the branch checked out in cwd.
func (g *Git) CurrentBranch(ctx context.Context, cwd string) (string, error) {
	output, err := g.executor.Run(ctx, cwd, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", errors.NewGitError("failed to resolve current branch", err).
			WithRepository(cwd).
			WithGitOutput(string(output))
	}
	return strings.TrimSpace(string(output)), nil
}

// CommitAll stages and commits all changes in cwd. A worktree with
// nothing to commit is not an error.
func (g *Git) CommitAll(ctx context.Context, cwd, message string) error {
	output, err := g.executor.Run(ctx, cwd, "git", "add", "-A")
	if err != nil {
		return errors.NewGitError("failed to stage changes", err).
			WithRepository(cwd).
			WithGitOutput(string(output))
	}

	output, err = g.executor.Run(ctx, cwd, "git", "commit", "-m", message)
	if err != nil {
		if strings.Contains(string(output), "nothing to commit") {
			return nil
		}
		return errors.NewGitError("failed to commit changes", err).
			WithRepository(cwd).
			WithGitOutput(string(output))
	}
	return nil
}

// HasUncommittedChanges reports whether cwd has staged or unstaged
// modifications.
func (g *Git) HasUncommittedChanges(ctx context.Context, cwd string) (bool, error) {
	output, err := g.executor.Run(ctx, cwd, "git", "status", "--porcelain")
	if err != nil {
		return false, errors.NewGitError("failed to check git status", err).
			WithRepository(cwd).
			WithGitOutput(string(output))
	}
	return strings.TrimSpace(string(output)) != "", nil
}

// Push pushes branch from cwd to origin, setting upstream.
func (g *Git) Push(ctx context.Context, cwd, branch string) error {
	output, err := g.executor.Run(ctx, cwd, "git", "push", "-u", "origin", branch)
	if err != nil {
		return errors.NewGitError("failed to push branch", err).
			WithRepository(cwd).
			WithBranch(branch).
			WithGitOutput(string(output))
	}
	return nil
}

// FindGitRoot walks up from startDir to the repository root.
func FindGitRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && (info.IsDir() || info.Mode().IsRegular()) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.NewGitError("not inside a git repository", nil).WithRepository(startDir)
		}
		dir = parent
	}
}

func splitLines(output []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
