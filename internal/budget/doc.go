// Package budget tracks agent spend across task, phase, and session scopes
// and signals ceiling violations.
//
// The tracker accumulates costs monotonically: a task that fails or is
// aborted keeps its spend, because the spend already happened. Each cost
// observation is checked against three independent ceilings - the task's
// individual cost ceiling, the owning phase's budget cap, and the
// session-wide cap - and every applicable violation is returned, not just
// the first. The tracker only signals; it never halts execution itself.
//
// Spending exactly at a ceiling is not a violation. Exceeding it by any
// positive amount is.
package budget
