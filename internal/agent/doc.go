// Package agent runs external AI coding-agent processes.
//
// The engine contract is deliberately opaque: a prompt goes in, exit
// status and captured output come out. Structured results, when
// required, are recovered from the agent's output by the structured
// package, or read from the sentinel completion file the agent writes
// into its worktree when it finishes.
package agent
