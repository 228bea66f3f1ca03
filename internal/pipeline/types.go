package pipeline

import "github.com/gantrylabs/gantry/internal/boundary"

// CommandResult is an immutable snapshot of one external command
// invocation.
type CommandResult struct {
	Command    string `json:"command"`
	Success    bool   `json:"success"`
	ExitCode   int    `json:"exit_code"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	DurationMs int64  `json:"duration_ms"`
}

// RebaseResult reports the outcome of rebasing a task branch onto its
// target. ConflictFiles is populated only when the rebase stopped on
// conflicts.
type RebaseResult struct {
	Success       bool     `json:"success"`
	ConflictFiles []string `json:"conflict_files,omitempty"`
	Output        string   `json:"output,omitempty"`
}

// StepTiming records how long one state machine step took, regardless
// of its outcome.
type StepTiming struct {
	Step       State `json:"step"`
	DurationMs int64 `json:"duration_ms"`
}

// CheckResult is the cumulative outcome of one validation run. Fields
// are populated incrementally as steps complete: a later step's field
// is nil or empty if an earlier step failed and the step never ran.
type CheckResult struct {
	Success bool `json:"success"`

	Rebase    *RebaseResult  `json:"rebase,omitempty"`
	Build     *CommandResult `json:"build,omitempty"`
	Typecheck *CommandResult `json:"typecheck,omitempty"`

	ChangedFiles []string             `json:"changed_files"`
	CautionFiles []string             `json:"caution_files,omitempty"`
	Violations   []boundary.Violation `json:"never_touch_violations,omitempty"`

	ErrorMessage string       `json:"error_message,omitempty"`
	FinalState   State        `json:"final_state"`
	Steps        []StepTiming `json:"steps"`
}
