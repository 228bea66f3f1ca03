package worktree

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeExecutor returns canned output keyed by the joined argument list.
type fakeExecutor struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeExecutor) Run(_ context.Context, _ string, name string, args ...string) ([]byte, error) {
	key := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, key)
	return []byte(f.outputs[key]), f.errs[key]
}

func TestRebase_Success(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"git rebase main": "Successfully rebased and updated refs/heads/gantry/task-1.",
	}}

	result := NewGitWithExecutor(exec).Rebase(context.Background(), "main", "/wt/task-1")
	if !result.Success {
		t.Fatalf("Expected success, got %+v", result)
	}
	if len(result.ConflictFiles) != 0 {
		t.Errorf("ConflictFiles = %v", result.ConflictFiles)
	}
}

func TestRebase_ConflictRecordsFilesAndAborts(t *testing.T) {
	exec := &fakeExecutor{
		outputs: map[string]string{
			"git rebase main":                      "CONFLICT (content): Merge conflict in internal/api/server.go",
			"git diff --name-only --diff-filter=U": "internal/api/server.go\ninternal/api/routes.go\n",
		},
		errs: map[string]error{
			"git rebase main": errors.New("exit status 1"),
		},
	}

	result := NewGitWithExecutor(exec).Rebase(context.Background(), "main", "/wt/task-1")
	if result.Success {
		t.Fatal("Expected rebase failure")
	}
	if len(result.ConflictFiles) != 2 || result.ConflictFiles[0] != "internal/api/server.go" {
		t.Errorf("ConflictFiles = %v", result.ConflictFiles)
	}

	aborted := false
	for _, call := range exec.calls {
		if call == "git rebase --abort" {
			aborted = true
		}
	}
	if !aborted {
		t.Error("Expected the conflicted rebase to be aborted")
	}
}

func TestDiff_ParsesChangedFiles(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"git diff --name-only main...HEAD": "cmd/gantry/main.go\n\ninternal/prd/load.go\n",
	}}

	changed, err := NewGitWithExecutor(exec).Diff(context.Background(), "main", "HEAD", "/wt/task-1")
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if len(changed) != 2 || changed[0] != "cmd/gantry/main.go" || changed[1] != "internal/prd/load.go" {
		t.Errorf("Changed files = %v", changed)
	}
}

func TestDiff_Error(t *testing.T) {
	exec := &fakeExecutor{errs: map[string]error{
		"git diff --name-only main...HEAD": errors.New("exit status 128"),
	}}

	_, err := NewGitWithExecutor(exec).Diff(context.Background(), "main", "HEAD", "/wt/task-1")
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "failed to compute diff") {
		t.Errorf("Error = %v", err)
	}
}

func TestCommitAll_NothingToCommitIsNotAnError(t *testing.T) {
	exec := &fakeExecutor{
		outputs: map[string]string{
			"git commit -m checkpoint": "nothing to commit, working tree clean",
		},
		errs: map[string]error{
			"git commit -m checkpoint": errors.New("exit status 1"),
		},
	}

	if err := NewGitWithExecutor(exec).CommitAll(context.Background(), "/wt/task-1", "checkpoint"); err != nil {
		t.Errorf("CommitAll failed: %v", err)
	}
}

func TestCurrentBranch(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"git rev-parse --abbrev-ref HEAD": "gantry/task-1\n",
	}}

	branch, err := NewGitWithExecutor(exec).CurrentBranch(context.Background(), "/wt/task-1")
	if err != nil {
		t.Fatalf("CurrentBranch failed: %v", err)
	}
	if branch != "gantry/task-1" {
		t.Errorf("Branch = %q", branch)
	}
}
