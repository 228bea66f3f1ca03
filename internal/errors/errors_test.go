package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestDanglingDependencyError_Message(t *testing.T) {
	err := NewDanglingDependency("task-3", "task-9")

	if !strings.Contains(err.Error(), "task-3") {
		t.Errorf("Expected error to name the declaring task, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "task-9") {
		t.Errorf("Expected error to name the missing reference, got %q", err.Error())
	}
}

func TestCyclicDependencyError_Message(t *testing.T) {
	err := NewCyclicDependency([]string{"a", "b", "c", "a"})

	want := "a -> b -> c -> a"
	if !strings.Contains(err.Error(), want) {
		t.Errorf("Expected cycle %q in message, got %q", want, err.Error())
	}
}

func TestIsFatalToPlan(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"dangling", NewDanglingDependency("a", "b"), true},
		{"cyclic", NewCyclicDependency([]string{"a", "b", "a"}), true},
		{"unschedulable", NewUnschedulable("a", "b"), true},
		{"wrapped dangling", fmt.Errorf("building plan: %w", NewDanglingDependency("a", "b")), true},
		{"task error", NewTaskError("a", ReasonBuildFailure, nil), false},
		{"plain error", New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatalToPlan(tt.err); got != tt.want {
				t.Errorf("IsFatalToPlan(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestTaskError_Context(t *testing.T) {
	base := New("exit status 2")
	err := NewTaskError("task-1", ReasonBoundaryViolation, base).
		WithFiles([]string{"db/schema.sql"}).
		WithPattern("db/**")

	msg := err.Error()
	for _, want := range []string{"task-1", "boundary_violation", "db/schema.sql", "db/**"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected %q in message, got %q", want, msg)
		}
	}

	if !Is(err, base) {
		t.Error("Expected TaskError to unwrap to base error")
	}
}

func TestIsFatalToTask(t *testing.T) {
	err := fmt.Errorf("running pipeline: %w", NewTaskError("t", ReasonRebaseConflict, nil))
	if !IsFatalToTask(err) {
		t.Error("Expected wrapped TaskError to be fatal to task")
	}
	if IsFatalToTask(New("boom")) {
		t.Error("Expected plain error not to be fatal to task")
	}
}

func TestGitError_Context(t *testing.T) {
	base := New("exit status 128")
	err := NewGitError("rebase failed", base).
		WithRepository("/tmp/wt").
		WithBranch("gantry/task-1").
		WithGitOutput("CONFLICT (content): merge conflict in main.go\n")

	msg := err.Error()
	for _, want := range []string{"rebase failed", "/tmp/wt", "gantry/task-1", "CONFLICT"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected %q in message, got %q", want, msg)
		}
	}
	if !Is(err, base) {
		t.Error("Expected GitError to unwrap to base error")
	}
}
