package prd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// flexibleTask handles alternative field names that agents may generate
// when emitting task lists.
type flexibleTask struct {
	ID                  string   `json:"id" yaml:"id"`
	Title               string   `json:"title" yaml:"title"`
	Description         string   `json:"description" yaml:"description"`
	SuccessCriteria     []string `json:"success_criteria" yaml:"success_criteria"`
	Files               []string `json:"files" yaml:"files"`
	FilesAffected       []string `json:"files_affected" yaml:"files_affected"` // Alternative name
	Complexity          int      `json:"complexity" yaml:"complexity"`
	CostCeiling         float64  `json:"cost_ceiling" yaml:"cost_ceiling"`
	EstimatedIterations int      `json:"estimated_iterations" yaml:"estimated_iterations"`
	DependsOn           []string `json:"depends_on" yaml:"depends_on"`
	Depends             []string `json:"depends" yaml:"depends"` // Alternative name
}

type flexiblePhase struct {
	ID        string         `json:"id" yaml:"id"`
	Name      string         `json:"name" yaml:"name"`
	Branch    string         `json:"branch" yaml:"branch"`
	BudgetCap float64        `json:"budget_cap" yaml:"budget_cap"`
	Tasks     []flexibleTask `json:"tasks" yaml:"tasks"`
}

type flexibleDocument struct {
	Title  string          `json:"title" yaml:"title"`
	Phases []flexiblePhase `json:"phases" yaml:"phases"`
	Tasks  []flexibleTask  `json:"tasks" yaml:"tasks"` // Flat form: a single unnamed phase
}

// LoadDocument reads and parses a requirements document from a YAML or
// JSON file. Files ending in .json are parsed as JSON; everything else
// is parsed as YAML. The loaded document is validated before being
// returned; validation failures are load errors.
//
// A document with a top-level "tasks" list and no "phases" is accepted
// as a single-phase document with phase ID "phase-1".
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read requirements document: %w", err)
	}

	var raw flexibleDocument
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse requirements JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse requirements YAML: %w", err)
		}
	}

	doc := convertDocument(raw)
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// convertDocument normalizes a flexible document into the canonical model,
// resolving alternative field names.
func convertDocument(raw flexibleDocument) *Document {
	phases := raw.Phases
	if len(phases) == 0 && len(raw.Tasks) > 0 {
		phases = []flexiblePhase{{ID: "phase-1", Tasks: raw.Tasks}}
	}

	doc := &Document{Title: raw.Title}
	for _, fp := range phases {
		phase := Phase{
			ID:        fp.ID,
			Name:      fp.Name,
			Branch:    fp.Branch,
			BudgetCap: fp.BudgetCap,
			Tasks:     make([]Task, len(fp.Tasks)),
		}
		for i, ft := range fp.Tasks {
			phase.Tasks[i] = convertTask(ft)
		}
		doc.Phases = append(doc.Phases, phase)
	}
	return doc
}

func convertTask(ft flexibleTask) Task {
	files := ft.Files
	if len(files) == 0 && len(ft.FilesAffected) > 0 {
		files = ft.FilesAffected
	}

	dependsOn := ft.DependsOn
	if len(dependsOn) == 0 && len(ft.Depends) > 0 {
		dependsOn = ft.Depends
	}

	return Task{
		ID:                  ft.ID,
		Title:               ft.Title,
		Description:         ft.Description,
		SuccessCriteria:     ft.SuccessCriteria,
		Files:               files,
		Complexity:          ft.Complexity,
		CostCeiling:         ft.CostCeiling,
		EstimatedIterations: ft.EstimatedIterations,
		DependsOn:           dependsOn,
	}
}

// Validate checks the document for structural problems: missing IDs,
// duplicate task IDs within a phase, duplicate phase IDs, and complexity
// scores outside the allowed range. It returns the first problem found.
func (d *Document) Validate() error {
	if len(d.Phases) == 0 {
		return fmt.Errorf("requirements document has no phases")
	}

	phaseSeen := make(map[string]bool)
	for _, phase := range d.Phases {
		if phase.ID == "" {
			return fmt.Errorf("phase is missing an id")
		}
		if phaseSeen[phase.ID] {
			return fmt.Errorf("duplicate phase id %q", phase.ID)
		}
		phaseSeen[phase.ID] = true

		if len(phase.Tasks) == 0 {
			return fmt.Errorf("phase %q has no tasks", phase.ID)
		}

		taskSeen := make(map[string]bool)
		for _, task := range phase.Tasks {
			if task.ID == "" {
				return fmt.Errorf("phase %q contains a task with no id", phase.ID)
			}
			if taskSeen[task.ID] {
				return fmt.Errorf("duplicate task id %q in phase %q", task.ID, phase.ID)
			}
			taskSeen[task.ID] = true

			if task.Complexity < MinComplexity || task.Complexity > MaxComplexity {
				return fmt.Errorf("task %q has complexity %d, want %d-%d",
					task.ID, task.Complexity, MinComplexity, MaxComplexity)
			}
			if task.CostCeiling < 0 {
				return fmt.Errorf("task %q has negative cost ceiling", task.ID)
			}
		}
	}

	return nil
}
