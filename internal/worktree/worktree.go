package worktree

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gantrylabs/gantry/internal/errors"
	"github.com/gantrylabs/gantry/internal/logging"
)

// branchPrefix namespaces task branches so they are recognizable and
// safe to bulk-delete.
const branchPrefix = "gantry/"

// Manager creates and removes per-task worktrees under a run directory.
type Manager struct {
	repoDir  string
	runDir   string
	executor CommandExecutor
	logger   *logging.Logger
}

// NewManager creates a worktree manager rooted at the repository
// containing repoDir. runDir is where task worktrees are materialized.
func NewManager(repoDir, runDir string, logger *logging.Logger) (*Manager, error) {
	root, err := FindGitRoot(repoDir)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Manager{
		repoDir:  root,
		runDir:   runDir,
		executor: CLICommandExecutor{},
		logger:   logger,
	}, nil
}

// NewManagerWithExecutor creates a Manager with a custom executor, for
// tests.
func NewManagerWithExecutor(repoDir, runDir string, executor CommandExecutor, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Manager{repoDir: repoDir, runDir: runDir, executor: executor, logger: logger}
}

// RepoDir returns the repository root the manager operates on.
func (m *Manager) RepoDir() string {
	return m.repoDir
}

// TaskBranch returns the branch name for a task attempt.
func TaskBranch(taskID string) string {
	return branchPrefix + taskID
}

// PathFor returns the worktree directory for a task.
func (m *Manager) PathFor(taskID string) string {
	return filepath.Join(m.runDir, taskID)
}

// Create materializes a new worktree for taskID, branched off
// baseBranch, and returns its path.
func (m *Manager) Create(ctx context.Context, taskID, baseBranch string) (string, error) {
	path := m.PathFor(taskID)
	branch := TaskBranch(taskID)

	output, err := m.executor.Run(ctx, m.repoDir, "git", "worktree", "add", "-b", branch, path, baseBranch)
	if err != nil {
		return "", errors.NewGitError(fmt.Sprintf("failed to create worktree for task %s", taskID), err).
			WithRepository(m.repoDir).
			WithBranch(branch).
			WithGitOutput(string(output))
	}

	m.logger.Debug("worktree created", "task_id", taskID, "path", path, "branch", branch)
	return path, nil
}

// Remove detaches and deletes a task's worktree. The branch is kept so
// its commits remain reachable for PR creation.
func (m *Manager) Remove(ctx context.Context, taskID string) error {
	path := m.PathFor(taskID)
	output, err := m.executor.Run(ctx, m.repoDir, "git", "worktree", "remove", "--force", path)
	if err != nil {
		return errors.NewGitError(fmt.Sprintf("failed to remove worktree for task %s", taskID), err).
			WithRepository(m.repoDir).
			WithGitOutput(string(output))
	}
	m.logger.Debug("worktree removed", "task_id", taskID, "path", path)
	return nil
}

// List returns the paths of all worktrees attached to the repository.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	output, err := m.executor.Run(ctx, m.repoDir, "git", "worktree", "list", "--porcelain")
	if err != nil {
		return nil, errors.NewGitError("failed to list worktrees", err).
			WithRepository(m.repoDir).
			WithGitOutput(string(output))
	}

	var paths []string
	for _, line := range strings.Split(string(output), "\n") {
		if rest, ok := strings.CutPrefix(line, "worktree "); ok {
			paths = append(paths, strings.TrimSpace(rest))
		}
	}
	return paths, nil
}

// DeleteBranch removes a task branch after its PR has been created or
// the run abandoned.
func (m *Manager) DeleteBranch(ctx context.Context, branch string) error {
	output, err := m.executor.Run(ctx, m.repoDir, "git", "branch", "-D", branch)
	if err != nil {
		return errors.NewGitError("failed to delete branch", err).
			WithRepository(m.repoDir).
			WithBranch(branch).
			WithGitOutput(string(output))
	}
	return nil
}
