// Package errors provides centralized error definitions and error handling
// utilities for the gantry codebase. It defines the scheduling and execution
// error taxonomy, error constructors with context wrapping, and classification
// helpers.
//
// # Error Taxonomy
//
// Errors fall into two fatality classes:
//
// Fatal-to-plan errors abort scheduling entirely; no partial plan is produced:
//   - DanglingDependencyError: a task references a dependency that does not exist
//   - CyclicDependencyError: tasks form a dependency cycle
//   - UnschedulableError: overlap-group order contradicts a dependency edge
//
// Fatal-to-task errors abort a single task's pipeline run and leave other
// tasks unaffected:
//   - TaskError: carries the task ID, failure reason, and full diagnostic
//     context (files, exit code, matched pattern)
//
// GitError wraps failures from git subprocess invocations with repository
// and command-output context.
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewDanglingDependency("task-3", "task-9")
//	err := errors.NewTaskError("task-3", errors.ReasonBuildFailure, baseErr).WithExitCode(2)
//	err := errors.NewGitError("rebase failed", baseErr).WithRepository(dir).WithGitOutput(out)
//
// Checking errors:
//
//	if errors.IsFatalToPlan(err) { ... }
//	var taskErr *errors.TaskError
//	if errors.As(err, &taskErr) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Fatal-to-plan Errors
// -----------------------------------------------------------------------------

// DanglingDependencyError indicates a task declares a dependency on a task ID
// that does not exist in the task set.
type DanglingDependencyError struct {
	TaskID    string // Task declaring the dependency
	MissingID string // The referenced ID that does not exist
}

// NewDanglingDependency creates a DanglingDependencyError.
func NewDanglingDependency(taskID, missingID string) *DanglingDependencyError {
	return &DanglingDependencyError{TaskID: taskID, MissingID: missingID}
}

// Error implements the error interface.
func (e *DanglingDependencyError) Error() string {
	return fmt.Sprintf("task %s depends on unknown task %s", e.TaskID, e.MissingID)
}

// CyclicDependencyError indicates a set of tasks form a dependency cycle.
// Cycle holds the ordered task IDs forming the cycle, with the first ID
// repeated at the end.
type CyclicDependencyError struct {
	Cycle []string
}

// NewCyclicDependency creates a CyclicDependencyError from the ordered cycle.
func NewCyclicDependency(cycle []string) *CyclicDependencyError {
	return &CyclicDependencyError{Cycle: cycle}
}

// Error implements the error interface.
func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// UnschedulableError indicates the dependency graph and overlap grouping
// jointly imply an order that cannot be satisfied. TaskA and TaskB identify
// the conflicting pair: the overlap group requires TaskA before TaskB while
// the dependency graph requires the reverse.
type UnschedulableError struct {
	TaskA string
	TaskB string
}

// NewUnschedulable creates an UnschedulableError for a conflicting task pair.
func NewUnschedulable(taskA, taskB string) *UnschedulableError {
	return &UnschedulableError{TaskA: taskA, TaskB: taskB}
}

// Error implements the error interface.
func (e *UnschedulableError) Error() string {
	return fmt.Sprintf("unschedulable task set: overlap order requires %s before %s but dependencies require the reverse", e.TaskA, e.TaskB)
}

// IsFatalToPlan reports whether err (or any error it wraps) makes the whole
// execution plan uncomputable.
func IsFatalToPlan(err error) bool {
	var dangling *DanglingDependencyError
	var cyclic *CyclicDependencyError
	var unsched *UnschedulableError
	return As(err, &dangling) || As(err, &cyclic) || As(err, &unsched)
}

// -----------------------------------------------------------------------------
// Fatal-to-task Errors
// -----------------------------------------------------------------------------

// FailReason identifies why a task's validation pipeline failed.
type FailReason string

const (
	// ReasonRebaseConflict indicates the task branch could not be rebased
	// onto its target without conflicts.
	ReasonRebaseConflict FailReason = "rebase_conflict"

	// ReasonBuildFailure indicates the configured build command exited non-zero.
	ReasonBuildFailure FailReason = "build_failure"

	// ReasonTypecheckFailure indicates the configured type-check command
	// exited non-zero.
	ReasonTypecheckFailure FailReason = "typecheck_failure"

	// ReasonBoundaryViolation indicates a changed file matched a never-touch
	// pattern.
	ReasonBoundaryViolation FailReason = "boundary_violation"
)

// String returns the string representation of the failure reason.
func (r FailReason) String() string {
	return string(r)
}

// TaskError represents a failure that aborts a single task's pipeline run.
// It carries structured diagnostic context so the failure is actionable
// without re-running the pipeline.
type TaskError struct {
	TaskID   string
	Reason   FailReason
	Files    []string // Conflicting or violating files, if applicable
	ExitCode int      // Exit code of the failing command, if applicable
	Pattern  string   // Boundary pattern matched, if applicable
	Err      error    // Underlying error, if any
}

// NewTaskError creates a TaskError for the given task and reason.
func NewTaskError(taskID string, reason FailReason, err error) *TaskError {
	return &TaskError{TaskID: taskID, Reason: reason, Err: err}
}

// WithFiles attaches the affected file list and returns the error.
func (e *TaskError) WithFiles(files []string) *TaskError {
	e.Files = files
	return e
}

// WithExitCode attaches the failing command's exit code and returns the error.
func (e *TaskError) WithExitCode(code int) *TaskError {
	e.ExitCode = code
	return e
}

// WithPattern attaches the matched boundary pattern and returns the error.
func (e *TaskError) WithPattern(pattern string) *TaskError {
	e.Pattern = pattern
	return e
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "task %s failed: %s", e.TaskID, e.Reason)
	if len(e.Files) > 0 {
		fmt.Fprintf(&sb, " (files: %s)", strings.Join(e.Files, ", "))
	}
	if e.Pattern != "" {
		fmt.Fprintf(&sb, " (pattern: %s)", e.Pattern)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// IsFatalToTask reports whether err aborts a single task without affecting
// the rest of the plan.
func IsFatalToTask(err error) bool {
	var taskErr *TaskError
	return As(err, &taskErr)
}

// -----------------------------------------------------------------------------
// Git Errors
// -----------------------------------------------------------------------------

// GitError represents a failure from a git subprocess invocation.
type GitError struct {
	Message    string
	Repository string
	Branch     string
	GitOutput  string
	Err        error
}

// NewGitError creates a GitError wrapping the underlying error.
func NewGitError(message string, err error) *GitError {
	return &GitError{Message: message, Err: err}
}

// WithRepository attaches the repository path and returns the error.
func (e *GitError) WithRepository(repo string) *GitError {
	e.Repository = repo
	return e
}

// WithBranch attaches the branch name and returns the error.
func (e *GitError) WithBranch(branch string) *GitError {
	e.Branch = branch
	return e
}

// WithGitOutput attaches the captured git output and returns the error.
func (e *GitError) WithGitOutput(output string) *GitError {
	e.GitOutput = strings.TrimSpace(output)
	return e
}

// Error implements the error interface.
func (e *GitError) Error() string {
	var sb strings.Builder
	sb.WriteString("git: ")
	sb.WriteString(e.Message)
	if e.Repository != "" {
		fmt.Fprintf(&sb, " (repo: %s)", e.Repository)
	}
	if e.Branch != "" {
		fmt.Fprintf(&sb, " (branch: %s)", e.Branch)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	if e.GitOutput != "" {
		fmt.Fprintf(&sb, "\n%s", e.GitOutput)
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *GitError) Unwrap() error {
	return e.Err
}
