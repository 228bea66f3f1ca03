package prd

// Complexity bounds for a task. Scores outside this range are rejected
// at load time.
const (
	MinComplexity = 1
	MaxComplexity = 10
)

// Task is a single unit of work extracted from a requirements document.
// Tasks are immutable once loaded; IDs are unique within their phase.
type Task struct {
	// ID uniquely identifies the task within its phase.
	ID string `json:"id" yaml:"id"`

	// Title is a short human-readable title.
	Title string `json:"title" yaml:"title"`

	// Description contains the full instructions for the executing agent.
	Description string `json:"description" yaml:"description"`

	// SuccessCriteria lists the conditions that define task completion.
	SuccessCriteria []string `json:"success_criteria,omitempty" yaml:"success_criteria,omitempty"`

	// Files lists the file paths (glob patterns) this task is expected
	// to modify. Used for overlap grouping; membership tests treat them
	// as exact path strings.
	Files []string `json:"files,omitempty" yaml:"files,omitempty"`

	// Complexity is the estimated complexity score, 1 (trivial) to 10.
	Complexity int `json:"complexity" yaml:"complexity"`

	// CostCeiling is the maximum spend permitted for this task in USD.
	// Zero means the configured default ceiling applies.
	CostCeiling float64 `json:"cost_ceiling,omitempty" yaml:"cost_ceiling,omitempty"`

	// EstimatedIterations is the expected number of agent iterations.
	EstimatedIterations int `json:"estimated_iterations,omitempty" yaml:"estimated_iterations,omitempty"`

	// DependsOn lists IDs of tasks that must complete before this one.
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// Phase is a named collection of tasks sharing a target branch and a
// budget cap.
type Phase struct {
	// ID uniquely identifies the phase within the document.
	ID string `json:"id" yaml:"id"`

	// Name is a human-readable phase name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Branch is the target branch task branches rebase onto. Defaults to
	// the repository's main branch when empty.
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`

	// BudgetCap is the maximum cumulative spend for this phase in USD.
	// Zero means no phase-level cap.
	BudgetCap float64 `json:"budget_cap,omitempty" yaml:"budget_cap,omitempty"`

	// Tasks is the ordered task list for this phase.
	Tasks []Task `json:"tasks" yaml:"tasks"`
}

// Document is a parsed requirements document.
type Document struct {
	// Title is the document title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Phases is the ordered list of phases.
	Phases []Phase `json:"phases" yaml:"phases"`
}

// PhaseByID returns the phase with the given ID, or nil if not found.
func (d *Document) PhaseByID(id string) *Phase {
	for i := range d.Phases {
		if d.Phases[i].ID == id {
			return &d.Phases[i]
		}
	}
	return nil
}

// TaskByID returns the task with the given ID within the phase, or nil
// if not found.
func (p *Phase) TaskByID(id string) *Task {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			return &p.Tasks[i]
		}
	}
	return nil
}

// TaskIDs returns the IDs of all tasks in the phase, in document order.
func (p *Phase) TaskIDs() []string {
	ids := make([]string, len(p.Tasks))
	for i, t := range p.Tasks {
		ids[i] = t.ID
	}
	return ids
}
