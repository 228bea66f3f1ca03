package orchestrator

import (
	"bytes"
	"text/template"

	"github.com/gantrylabs/gantry/internal/agent"
	"github.com/gantrylabs/gantry/internal/prd"
)

// taskPromptTemplate instructs the agent and tells it how to signal
// completion: write the sentinel file the orchestrator watches for.
const taskPromptTemplate = `You are implementing a single well-scoped task in an isolated git worktree.

## Task: {{.Task.Title}} ({{.Task.ID}})

{{.Task.Description}}

## Success criteria
{{range .Task.SuccessCriteria}}- {{.}}
{{end}}
{{- if .Task.Files}}
## Files you are expected to touch
{{range .Task.Files}}- {{.}}
{{end}}
{{- end}}
## Rules
- Stay inside this worktree. Do not modify files outside the listed scope unless strictly necessary.
- Commit your work with clear messages as you go.
- When you are done (or blocked), write a JSON file named {{.SentinelName}} in the worktree root:
  {"task_id": "{{.Task.ID}}", "status": "complete" | "blocked" | "failed", "summary": "...", "files_modified": [...], "actual_cost": 0.0, "iterations": 1}
`

type promptData struct {
	Task         prd.Task
	SentinelName string
}

// buildPrompt renders the agent instruction text for a task.
func buildPrompt(task prd.Task) (string, error) {
	tmpl, err := template.New("task-prompt").Parse(taskPromptTemplate)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{Task: task, SentinelName: agent.CompletionFileName}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
