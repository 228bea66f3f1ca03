package orchestrator

import (
	"github.com/gantrylabs/gantry/internal/pipeline"
)

// TaskStatus describes the final disposition of one task attempt.
type TaskStatus string

const (
	// StatusComplete means the task passed validation and a PR exists.
	StatusComplete TaskStatus = "complete"

	// StatusFailed means the agent or the validation pipeline failed.
	StatusFailed TaskStatus = "failed"

	// StatusBlocked means the agent reported it could not finish.
	StatusBlocked TaskStatus = "blocked"

	// StatusSkipped means the task was never dispatched because the
	// run stopped first.
	StatusSkipped TaskStatus = "skipped"
)

// TaskResult records the outcome of one task attempt.
type TaskResult struct {
	TaskID  string                `json:"task_id"`
	PhaseID string                `json:"phase_id"`
	Wave    int                   `json:"wave"`
	Status  TaskStatus            `json:"status"`
	Check   *pipeline.CheckResult `json:"check,omitempty"`
	PRURL   string                `json:"pr_url,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// RunResult aggregates every task outcome of a run.
type RunResult struct {
	Tasks []TaskResult `json:"tasks"`

	// Stopped is set when the run halted early, with the reason.
	Stopped       bool   `json:"stopped"`
	StoppedReason string `json:"stopped_reason,omitempty"`
}

// Counts returns how many tasks finished in each status.
func (r *RunResult) Counts() map[TaskStatus]int {
	counts := make(map[TaskStatus]int)
	for _, task := range r.Tasks {
		counts[task.Status]++
	}
	return counts
}
