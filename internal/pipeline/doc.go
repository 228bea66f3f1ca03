// Package pipeline runs the pre-merge validation state machine for one
// task attempt.
//
// The pipeline advances through a fixed sequence of states: rebase the
// task branch onto its target, run the configured build command, run
// the configured typecheck command, compute the changed-file diff, and
// screen the diff against boundary rules. Any failing step transitions
// to the terminal Failed state with a typed reason; later steps never
// run. Results are cumulative: a step's output appears in the
// CheckResult only if that step actually ran.
//
// Steps within one task are strictly sequential. A later step's working
// copy depends on the prior step's committed state, so the pipeline
// must never be parallelized internally. Retries belong to the
// orchestration layer, not here.
package pipeline
