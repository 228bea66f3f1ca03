package pipeline

// State identifies one step of the validation state machine.
type State string

const (
	// StateStart is the initial state before any step has run.
	StateStart State = "start"

	// StateRebase rebases the task branch onto its target branch.
	StateRebase State = "rebase"

	// StateBuild runs the configured build command.
	StateBuild State = "build"

	// StateTypecheck runs the configured typecheck command, or is
	// skipped when no command is configured.
	StateTypecheck State = "typecheck"

	// StateDiff computes the changed-file set against the target branch.
	StateDiff State = "diff"

	// StateSafetyScan screens changed files against boundary rules.
	StateSafetyScan State = "safety_scan"

	// StateDone means every step passed with no forbidden matches.
	StateDone State = "done"

	// StateFailed is terminal and reachable from any non-terminal state.
	StateFailed State = "failed"
)

func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether the state machine stops in this state.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}
