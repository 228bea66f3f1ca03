// Package filelock provides an in-memory registry of file ownership
// claims for concurrently running tasks.
//
// The scheduler already serializes tasks whose declared file sets
// overlap; the registry is the runtime backstop for the declarations
// being wrong. Before a task is dispatched its declared files are
// claimed; a conflicting claim means two live tasks would touch the
// same path, and the later task is failed instead of being allowed to
// race the earlier one.
package filelock

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Sentinel errors returned by registry operations.
var (
	// ErrAlreadyClaimed is returned when a file is claimed by another task.
	ErrAlreadyClaimed = errors.New("file already claimed by another task")

	// ErrNotOwner is returned when a task releases a file it does not own.
	ErrNotOwner = errors.New("task does not own this file")
)

// Claim records ownership of one file path by one task.
type Claim struct {
	TaskID    string
	FilePath  string
	ClaimedAt time.Time
}

// Registry tracks which live task owns which file path. All methods are
// safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	claims map[string]Claim // file path -> claim
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{claims: make(map[string]Claim)}
}

// ClaimAll claims every path for taskID, atomically: on any conflict
// nothing is claimed and the error names the conflicting path and its
// owner.
func (r *Registry) ClaimAll(taskID string, paths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, path := range paths {
		if existing, ok := r.claims[path]; ok && existing.TaskID != taskID {
			return fmt.Errorf("%w: %s owned by %s", ErrAlreadyClaimed, path, existing.TaskID)
		}
	}

	now := time.Now()
	for _, path := range paths {
		r.claims[path] = Claim{TaskID: taskID, FilePath: path, ClaimedAt: now}
	}
	return nil
}

// ReleaseAll releases every claim held by taskID.
func (r *Registry) ReleaseAll(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for path, claim := range r.claims {
		if claim.TaskID == taskID {
			delete(r.claims, path)
		}
	}
}

// Release releases one path, verifying ownership.
func (r *Registry) Release(taskID, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	claim, ok := r.claims[path]
	if !ok {
		return nil
	}
	if claim.TaskID != taskID {
		return fmt.Errorf("%w: %s owned by %s", ErrNotOwner, path, claim.TaskID)
	}
	delete(r.claims, path)
	return nil
}

// Owner returns the task owning path, if any.
func (r *Registry) Owner(path string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	claim, ok := r.claims[path]
	return claim.TaskID, ok
}

// TaskFiles returns the paths currently claimed by taskID.
func (r *Registry) TaskFiles(taskID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var paths []string
	for path, claim := range r.claims {
		if claim.TaskID == taskID {
			paths = append(paths, path)
		}
	}
	return paths
}
