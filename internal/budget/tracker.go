package budget

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gantrylabs/gantry/internal/logging"
)

// Source identifies where a cost figure came from.
type Source string

const (
	// SourceEstimate marks a pre-execution estimate.
	SourceEstimate Source = "estimate"

	// SourceEngine marks a cost reported by the agent engine itself.
	SourceEngine Source = "engine"

	// SourceManual marks an operator-entered correction.
	SourceManual Source = "manual"
)

// Record is one cost observation for a task attempt. Records are
// append-only; the tracker never rewrites history.
type Record struct {
	ID            string
	TaskID        string
	PhaseID       string
	Engine        string
	EstimatedCost float64
	ActualCost    float64
	Iterations    int
	Timestamp     time.Time
	Source        Source
}

// -----------------------------------------------------------------------------
// Violations
// -----------------------------------------------------------------------------

// Violation is a budget ceiling breach. Violations are signals: the
// tracker reports them and keeps accumulating, leaving the reaction to
// the caller.
type Violation interface {
	error
	violation()
}

// TaskCeilingViolation reports a task exceeding its individual cost ceiling.
type TaskCeilingViolation struct {
	TaskID  string
	Spent   float64
	Ceiling float64
}

func (v *TaskCeilingViolation) violation() {}

// Error implements the error interface.
func (v *TaskCeilingViolation) Error() string {
	return fmt.Sprintf("task %s exceeded cost ceiling: spent $%.2f of $%.2f", v.TaskID, v.Spent, v.Ceiling)
}

// PhaseBudgetViolation reports a phase exceeding its budget cap.
type PhaseBudgetViolation struct {
	PhaseID string
	Spent   float64
	Cap     float64
}

func (v *PhaseBudgetViolation) violation() {}

// Error implements the error interface.
func (v *PhaseBudgetViolation) Error() string {
	return fmt.Sprintf("phase %s exceeded budget cap: spent $%.2f of $%.2f", v.PhaseID, v.Spent, v.Cap)
}

// SessionBudgetViolation reports the session exceeding its overall cap.
type SessionBudgetViolation struct {
	Total float64
	Cap   float64
}

func (v *SessionBudgetViolation) violation() {}

// Error implements the error interface.
func (v *SessionBudgetViolation) Error() string {
	return fmt.Sprintf("session exceeded budget cap: spent $%.2f of $%.2f", v.Total, v.Cap)
}

// -----------------------------------------------------------------------------
// Tracker
// -----------------------------------------------------------------------------

// Config holds the budget ceilings.
type Config struct {
	// DefaultTaskCeiling applies to tasks that declare no cost ceiling.
	// Zero means no default ceiling.
	DefaultTaskCeiling float64

	// SessionCap is the session-wide spend limit. Zero means no cap.
	SessionCap float64

	// WarnThreshold is the fraction of SessionCap at which the tracker
	// starts logging warnings, before the cap itself is breached.
	// Zero disables the early warning.
	WarnThreshold float64
}

// Tracker accumulates cost totals at task, phase, and session scope.
// All methods are safe for concurrent use; each observation is applied
// and checked atomically.
type Tracker struct {
	mu sync.Mutex

	config       Config
	taskCeilings map[string]float64
	phaseCaps    map[string]float64

	taskTotals  map[string]float64
	phaseTotals map[string]float64
	sessionCost float64

	records []Record
	logger  *logging.Logger
}

// NewTracker creates a Tracker with the given ceilings.
func NewTracker(cfg Config, logger *logging.Logger) *Tracker {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Tracker{
		config:       cfg,
		taskCeilings: make(map[string]float64),
		phaseCaps:    make(map[string]float64),
		taskTotals:   make(map[string]float64),
		phaseTotals:  make(map[string]float64),
		logger:       logger,
	}
}

// RegisterTask declares a task's individual cost ceiling. A zero ceiling
// falls back to the configured default.
func (t *Tracker) RegisterTask(taskID string, ceiling float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ceiling <= 0 {
		ceiling = t.config.DefaultTaskCeiling
	}
	t.taskCeilings[taskID] = ceiling
}

// RegisterPhase declares a phase's budget cap. Zero means no cap.
func (t *Tracker) RegisterPhase(phaseID string, cap float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phaseCaps[phaseID] = cap
}

// Observe appends a cost record and returns every ceiling violated by the
// new cumulative totals. Checks run in task, phase, session order and are
// independent: a single observation may trigger all three. Totals are
// monotonic; violations never roll spend back.
func (t *Tracker) Observe(rec Record) []Violation {
	t.mu.Lock()
	defer t.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	t.records = append(t.records, rec)

	t.taskTotals[rec.TaskID] += rec.ActualCost
	t.phaseTotals[rec.PhaseID] += rec.ActualCost
	t.sessionCost += rec.ActualCost

	var violations []Violation

	if ceiling := t.taskCeilings[rec.TaskID]; ceiling > 0 && t.taskTotals[rec.TaskID] > ceiling {
		violations = append(violations, &TaskCeilingViolation{
			TaskID:  rec.TaskID,
			Spent:   t.taskTotals[rec.TaskID],
			Ceiling: ceiling,
		})
	}

	if cap := t.phaseCaps[rec.PhaseID]; cap > 0 && t.phaseTotals[rec.PhaseID] > cap {
		violations = append(violations, &PhaseBudgetViolation{
			PhaseID: rec.PhaseID,
			Spent:   t.phaseTotals[rec.PhaseID],
			Cap:     cap,
		})
	}

	if t.config.SessionCap > 0 && t.sessionCost > t.config.SessionCap {
		violations = append(violations, &SessionBudgetViolation{
			Total: t.sessionCost,
			Cap:   t.config.SessionCap,
		})
	} else if t.config.SessionCap > 0 && t.config.WarnThreshold > 0 &&
		t.sessionCost > t.config.SessionCap*t.config.WarnThreshold {
		t.logger.Warn("session budget approaching cap",
			"spent", t.sessionCost,
			"cap", t.config.SessionCap,
			"threshold", t.config.WarnThreshold)
	}

	for _, v := range violations {
		t.logger.Warn("budget violation", "task_id", rec.TaskID, "detail", v.Error())
	}

	return violations
}

// TaskCost returns the cumulative actual cost for a task.
func (t *Tracker) TaskCost(taskID string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.taskTotals[taskID]
}

// PhaseCost returns the cumulative actual cost for a phase.
func (t *Tracker) PhaseCost(phaseID string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phaseTotals[phaseID]
}

// SessionCost returns the session-wide cumulative actual cost.
func (t *Tracker) SessionCost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionCost
}

// Records returns a copy of the append-only record log.
func (t *Tracker) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Record(nil), t.records...)
}
