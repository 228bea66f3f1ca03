package worktree

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestTaskBranch(t *testing.T) {
	if got := TaskBranch("task-3"); got != "gantry/task-3" {
		t.Errorf("TaskBranch = %q", got)
	}
}

func TestManagerCreate(t *testing.T) {
	exec := &fakeExecutor{}
	m := NewManagerWithExecutor("/repo", "/run", exec, nil)

	path, err := m.Create(context.Background(), "task-1", "main")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if path != filepath.Join("/run", "task-1") {
		t.Errorf("Path = %q", path)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("Calls = %v", exec.calls)
	}
	want := "git worktree add -b gantry/task-1 " + path + " main"
	if exec.calls[0] != want {
		t.Errorf("Call = %q, want %q", exec.calls[0], want)
	}
}

func TestManagerList(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"git worktree list --porcelain": strings.Join([]string{
			"worktree /repo",
			"HEAD abc123",
			"branch refs/heads/main",
			"",
			"worktree /run/task-1",
			"HEAD def456",
			"branch refs/heads/gantry/task-1",
			"",
		}, "\n"),
	}}
	m := NewManagerWithExecutor("/repo", "/run", exec, nil)

	paths, err := m.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(paths) != 2 || paths[0] != "/repo" || paths[1] != "/run/task-1" {
		t.Errorf("Paths = %v", paths)
	}
}
