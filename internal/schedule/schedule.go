// Package schedule merges the dependency graph and the file-overlap
// partition into an execution plan: an ordered list of waves, where every
// task in a wave may be dispatched concurrently once all prior waves have
// completed.
//
// Overlap groups are turned into an explicit chain: within a sequential
// group, tasks execute in ascending task-ID order. That chain is combined
// with the dependency graph's partial order using a layered topological
// sort. If the chain order contradicts a dependency edge, scheduling fails
// with an UnschedulableError naming the conflicting pair; the constraint is
// never silently dropped.
//
// Plan computation is pure: no I/O, no shared state, safe to compute once
// per run.
package schedule

import (
	"sort"

	"github.com/gantrylabs/gantry/internal/depgraph"
	"github.com/gantrylabs/gantry/internal/errors"
	"github.com/gantrylabs/gantry/internal/overlap"
)

// Plan is an ordered list of waves. A task appears in exactly one wave,
// and its wave index is strictly greater than the wave index of every
// dependency and every prior member of its overlap chain.
type Plan struct {
	// Waves holds task IDs per wave, each wave sorted by task ID.
	Waves [][]string

	waveOf map[string]int
}

// WaveOf returns the wave index for a task, or -1 for an unknown ID.
func (p *Plan) WaveOf(taskID string) int {
	if idx, ok := p.waveOf[taskID]; ok {
		return idx
	}
	return -1
}

// Len returns the total number of scheduled tasks.
func (p *Plan) Len() int {
	return len(p.waveOf)
}

// Build computes the execution plan for a dependency graph and an overlap
// partition covering the same task set. All failures are fatal: no partial
// plan is ever returned.
func Build(g *depgraph.Graph, ov *overlap.Result) (*Plan, error) {
	ids := g.TaskIDs()

	// Predecessor edges: dependency edges plus overlap-chain edges
	// (ascending task-ID order within each sequential group).
	preds := make(map[string][]string, len(ids))
	addEdge := func(before, after string) {
		preds[after] = append(preds[after], before)
	}

	for _, id := range ids {
		for _, depID := range g.Dependencies(id) {
			addEdge(depID, id)
		}
	}

	var chains [][2]string
	for _, group := range ov.GroupIDs() {
		for i := 0; i+1 < len(group); i++ {
			addEdge(group[i], group[i+1])
			chains = append(chains, [2]string{group[i], group[i+1]})
		}
	}

	inDegree := make(map[string]int, len(ids))
	dependents := make(map[string][]string, len(ids))
	for _, id := range ids {
		seen := make(map[string]bool, len(preds[id]))
		for _, before := range preds[id] {
			if seen[before] {
				continue
			}
			seen[before] = true
			inDegree[id]++
			dependents[before] = append(dependents[before], id)
		}
	}

	plan := &Plan{waveOf: make(map[string]int, len(ids))}
	scheduled := 0

	for scheduled < len(ids) {
		var wave []string
		for _, id := range ids {
			if _, done := plan.waveOf[id]; done {
				continue
			}
			if inDegree[id] == 0 {
				wave = append(wave, id)
			}
		}

		if len(wave) == 0 {
			return nil, unschedulablePair(g, chains, dependents, plan)
		}

		sort.Strings(wave)
		waveIdx := len(plan.Waves)
		plan.Waves = append(plan.Waves, wave)

		for _, id := range wave {
			plan.waveOf[id] = waveIdx
			scheduled++
			for _, next := range dependents[id] {
				inDegree[next]--
			}
		}
	}

	return plan, nil
}

// unschedulablePair identifies a chain edge participating in a cycle of
// the combined (dependency + chain) edge set among the still-unscheduled
// tasks. A stall can only arise from such a cycle, and every such cycle
// contains at least one chain edge: pure dependency cycles are rejected at
// graph construction and a chain alone is a total order.
func unschedulablePair(g *depgraph.Graph, chains [][2]string, dependents map[string][]string, plan *Plan) error {
	reaches := func(from, to string) bool {
		visited := make(map[string]bool)
		stack := []string{from}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if id == to {
				return true
			}
			if visited[id] {
				continue
			}
			visited[id] = true
			stack = append(stack, dependents[id]...)
		}
		return false
	}

	for _, chain := range chains {
		before, after := chain[0], chain[1]
		if _, done := plan.waveOf[before]; done {
			continue
		}
		// The chain edge wants `before` first. It is on a cycle when the
		// rest of the combined order forces `before` after `after`.
		if reaches(after, before) {
			return errors.NewUnschedulable(before, after)
		}
	}

	// Unreachable in practice; report the first stuck pair for diagnosis.
	var stuck []string
	for _, id := range g.TaskIDs() {
		if _, done := plan.waveOf[id]; !done {
			stuck = append(stuck, id)
		}
	}
	sort.Strings(stuck)
	if len(stuck) >= 2 {
		return errors.NewUnschedulable(stuck[0], stuck[1])
	}
	return errors.NewUnschedulable(stuck[0], stuck[0])
}
