// Package depgraph builds a directed dependency graph over a phase's tasks.
//
// The graph is derived entirely from each task's declared depends_on list.
// Back-edges (DependedBy) are computed from the forward edges during
// construction and are never authored directly, so forward and back edges
// cannot drift apart.
//
// Construction fails with a DanglingDependencyError when a task references
// an ID that does not exist, and with a CyclicDependencyError when any task
// is reachable from itself. Both are fatal to the plan: no partial graph is
// returned.
package depgraph

import (
	"sort"

	"github.com/gantrylabs/gantry/internal/errors"
	"github.com/gantrylabs/gantry/internal/prd"
)

// Node is a single task in the dependency graph.
type Node struct {
	// TaskID is the task's unique ID.
	TaskID string

	// Task is the underlying task definition.
	Task prd.Task

	// DependsOn lists the IDs of tasks this task depends on (forward edges).
	DependsOn []string

	// DependedBy lists the IDs of tasks that depend on this task.
	// Derived from DependsOn during construction.
	DependedBy []string
}

// Graph maps task IDs to their dependency nodes.
type Graph struct {
	nodes map[string]*Node
	order []string // task IDs in input order
}

// Build constructs a dependency graph from the task list. It registers all
// task IDs first, then resolves forward edges and populates back edges.
// Returns a DanglingDependencyError if an edge references an unknown ID,
// or a CyclicDependencyError if the graph contains a cycle.
func Build(tasks []prd.Task) (*Graph, error) {
	g := &Graph{
		nodes: make(map[string]*Node, len(tasks)),
		order: make([]string, 0, len(tasks)),
	}

	for _, task := range tasks {
		g.nodes[task.ID] = &Node{
			TaskID:    task.ID,
			Task:      task,
			DependsOn: append([]string(nil), task.DependsOn...),
		}
		g.order = append(g.order, task.ID)
	}

	for _, id := range g.order {
		node := g.nodes[id]
		for _, depID := range node.DependsOn {
			dep, ok := g.nodes[depID]
			if !ok {
				return nil, errors.NewDanglingDependency(id, depID)
			}
			dep.DependedBy = append(dep.DependedBy, id)
		}
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, errors.NewCyclicDependency(cycle)
	}

	return g, nil
}

// Node returns the node for the given task ID, or nil if not present.
func (g *Graph) Node(taskID string) *Node {
	return g.nodes[taskID]
}

// Len returns the number of tasks in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// TaskIDs returns all task IDs in input order.
func (g *Graph) TaskIDs() []string {
	return append([]string(nil), g.order...)
}

// Dependencies returns the direct dependencies of a task, or nil for an
// unknown ID.
func (g *Graph) Dependencies(taskID string) []string {
	node := g.nodes[taskID]
	if node == nil {
		return nil
	}
	return append([]string(nil), node.DependsOn...)
}

// Dependents returns the tasks directly depending on a task, sorted by ID
// for deterministic output.
func (g *Graph) Dependents(taskID string) []string {
	node := g.nodes[taskID]
	if node == nil {
		return nil
	}
	out := append([]string(nil), node.DependedBy...)
	sort.Strings(out)
	return out
}

// Reachable reports whether to is reachable from from by following
// forward dependency edges.
func (g *Graph) Reachable(from, to string) bool {
	if g.nodes[from] == nil || g.nodes[to] == nil {
		return false
	}

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
		stack = append(stack, g.nodes[id].DependsOn...)
	}
	return false
}

// findCycle detects a dependency cycle via DFS with a recursion stack.
// Returns the ordered cycle (first ID repeated at the end), or nil if the
// graph is acyclic. Traversal starts from task IDs in input order so the
// reported cycle is deterministic.
func (g *Graph) findCycle() []string {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	parent := make(map[string]string)

	var dfs func(taskID string) []string
	dfs = func(taskID string) []string {
		visited[taskID] = true
		recStack[taskID] = true

		for _, depID := range g.nodes[taskID].DependsOn {
			if !visited[depID] {
				parent[depID] = taskID
				if cycle := dfs(depID); cycle != nil {
					return cycle
				}
			} else if recStack[depID] {
				// Found a cycle - reconstruct it
				cycle := []string{depID}
				current := taskID
				for current != depID {
					cycle = append([]string{current}, cycle...)
					current = parent[current]
				}
				return append([]string{depID}, cycle...)
			}
		}

		recStack[taskID] = false
		return nil
	}

	for _, id := range g.order {
		if !visited[id] {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
