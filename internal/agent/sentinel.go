package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/gantrylabs/gantry/internal/structured"
)

// CompletionFileName is the sentinel file an agent writes into its
// worktree when it finishes. Existence signals completion; the contents
// carry the agent's self-report.
const CompletionFileName = ".gantry-task-complete.json"

// CompletionFile is the agent's completion report. It serves as both a
// sentinel (existence = task done) and a context carrier for budget
// accounting and review routing.
type CompletionFile struct {
	TaskID        string   `json:"task_id"`
	Status        string   `json:"status"` // "complete", "blocked", or "failed"
	Summary       string   `json:"summary"`
	FilesModified []string `json:"files_modified"`
	ActualCost    float64  `json:"actual_cost,omitempty"`
	Iterations    int      `json:"iterations,omitempty"`
	Issues        []string `json:"issues,omitempty"`
}

// Complete reports whether the agent considers the task done.
func (c *CompletionFile) Complete() bool {
	return c.Status == "complete"
}

// completionSchema pins down the fields every agent report must carry;
// everything else is optional self-report context.
var completionSchema = structured.Schema{Fields: []structured.Field{
	{Path: "task_id", Kind: structured.KindString, Required: true},
	{Path: "status", Kind: structured.KindString, Required: true},
}}

// ParseCompletion recovers a completion report from agent-authored
// text. Markdown fences, trailing commas, and surrounding prose are
// tolerated; a report missing task_id or status fails validation with
// the raw text preserved in the result.
func ParseCompletion(text string) structured.Result[CompletionFile] {
	return structured.Parse[CompletionFile](text, completionSchema, structured.DefaultOptions())
}

// ReadCompletionFile loads and validates the sentinel file in workdir.
func ReadCompletionFile(workdir string) (*CompletionFile, error) {
	path := filepath.Join(workdir, CompletionFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	result := ParseCompletion(string(data))
	if !result.Success {
		return nil, fmt.Errorf("invalid completion file %s: %w", path, result.Errors[0])
	}
	return &result.Data, nil
}

// WaitForCompletion blocks until the sentinel file appears in workdir
// or the context is canceled. A sentinel already present when the wait
// starts is returned immediately.
func WaitForCompletion(ctx context.Context, workdir string) (*CompletionFile, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	defer watcher.Close()

	if err := watcher.Add(workdir); err != nil {
		return nil, err
	}

	// The agent may have finished before the watch was established.
	if file, err := ReadCompletionFile(workdir); err == nil {
		return file, nil
	}

	target := filepath.Join(workdir, CompletionFileName)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil, fmt.Errorf("completion watcher closed")
			}
			if event.Name != target {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			file, err := ReadCompletionFile(workdir)
			if err != nil {
				// Partial write; wait for the next event.
				continue
			}
			return file, nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil, fmt.Errorf("completion watcher closed")
			}
			return nil, err
		}
	}
}
