// Package overlap partitions a phase's tasks by transitive file overlap.
//
// Two tasks that declare the same affected file cannot safely run in
// parallel; worse, overlap is transitive: if A shares a file with B and B
// shares a different file with C, all three must serialize. The grouper
// detects these components with a union-find structure and returns a
// partition: conflict-free tasks ("safe") and groups that must execute
// strictly sequentially.
//
// The grouper only partitions. It imposes no execution order within a
// sequential group; ordering is the scheduler's concern. The partition is
// deterministic: component membership never depends on map iteration
// order, and all returned lists are sorted by explicit keys (task ID,
// file path).
package overlap

import (
	"sort"

	"github.com/gantrylabs/gantry/internal/prd"
)

// FileOverlap records a single file path declared by two or more tasks.
type FileOverlap struct {
	// File is the shared file path.
	File string

	// TaskIDs lists the tasks declaring the file, sorted by ID.
	TaskIDs []string
}

// Result is the partition produced by Group. Every input task appears
// exactly once, either in Safe or in exactly one Sequential group.
type Result struct {
	// Safe contains tasks with no file overlap, sorted by task ID.
	Safe []prd.Task

	// Sequential contains the overlap groups. Each group has at least
	// two members and is sorted by task ID; groups are ordered by their
	// first member's ID.
	Sequential [][]prd.Task

	// Overlaps lists every file shared by two or more tasks, sorted by
	// file path. Observational only.
	Overlaps []FileOverlap
}

// Group partitions tasks by transitive file overlap. File paths are
// compared as exact strings; glob expansion is the caller's concern.
func Group(tasks []prd.Task) *Result {
	ids := make([]string, len(tasks))
	byID := make(map[string]prd.Task, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
		byID[t.ID] = t
	}

	// Map each file to the tasks declaring it. Deduplicate in case a task
	// lists the same file twice.
	fileTasks := make(map[string][]string)
	for _, t := range tasks {
		seen := make(map[string]bool, len(t.Files))
		for _, f := range t.Files {
			if seen[f] {
				continue
			}
			seen[f] = true
			fileTasks[f] = append(fileTasks[f], t.ID)
		}
	}

	uf := newUnionFind(ids)
	var overlaps []FileOverlap
	for file, owners := range fileTasks {
		if len(owners) < 2 {
			continue
		}
		for _, other := range owners[1:] {
			uf.union(owners[0], other)
		}
		sorted := append([]string(nil), owners...)
		sort.Strings(sorted)
		overlaps = append(overlaps, FileOverlap{File: file, TaskIDs: sorted})
	}
	sort.Slice(overlaps, func(i, j int) bool { return overlaps[i].File < overlaps[j].File })

	// Read back components keyed by representative.
	components := make(map[string][]string)
	for _, id := range ids {
		root := uf.find(id)
		components[root] = append(components[root], id)
	}

	result := &Result{Overlaps: overlaps}
	var groups [][]prd.Task
	for _, members := range components {
		if len(members) == 1 {
			result.Safe = append(result.Safe, byID[members[0]])
			continue
		}
		sort.Strings(members)
		group := make([]prd.Task, len(members))
		for i, id := range members {
			group[i] = byID[id]
		}
		groups = append(groups, group)
	}

	sort.Slice(result.Safe, func(i, j int) bool { return result.Safe[i].ID < result.Safe[j].ID })
	sort.Slice(groups, func(i, j int) bool { return groups[i][0].ID < groups[j][0].ID })
	result.Sequential = groups

	return result
}

// GroupIDs returns the IDs of every sequential group, each sorted by
// task ID, in the same order as Result.Sequential.
func (r *Result) GroupIDs() [][]string {
	out := make([][]string, len(r.Sequential))
	for i, group := range r.Sequential {
		ids := make([]string, len(group))
		for j, t := range group {
			ids[j] = t.ID
		}
		out[i] = ids
	}
	return out
}
