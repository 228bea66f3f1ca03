// Package orchestrator drives a full gantry run.
//
// For each phase in the requirements document it computes an execution
// plan (dependency graph, file-overlap groups, wave schedule), then
// walks the plan wave by wave. Each task in a wave is materialized into
// its own worktree, dispatched to the agent engine, validated by the
// pre-merge pipeline, and turned into a pull request when it passes.
// The budget tracker observes every completed attempt; a session-level
// violation stops further dispatch while tasks already in flight run to
// completion.
//
// Wave members are independent and safe to run concurrently; the
// dispatch width is bounded by run.max_parallel.
package orchestrator
