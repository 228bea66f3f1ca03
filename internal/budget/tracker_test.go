package budget

import (
	"sync"
	"testing"
)

func engineRecord(taskID, phaseID string, cost float64) Record {
	return Record{
		TaskID:     taskID,
		PhaseID:    phaseID,
		Engine:     "claude",
		ActualCost: cost,
		Iterations: 1,
		Source:     SourceEngine,
	}
}

func TestObserve_NoViolationUnderCeiling(t *testing.T) {
	tr := NewTracker(Config{SessionCap: 100}, nil)
	tr.RegisterTask("task-1", 10)
	tr.RegisterPhase("phase-1", 50)

	if v := tr.Observe(engineRecord("task-1", "phase-1", 5)); len(v) != 0 {
		t.Errorf("Expected no violations, got %v", v)
	}
	if got := tr.TaskCost("task-1"); got != 5 {
		t.Errorf("TaskCost = %v, want 5", got)
	}
}

func TestObserve_EqualityIsNotAViolation(t *testing.T) {
	tr := NewTracker(Config{SessionCap: 10}, nil)
	tr.RegisterTask("task-1", 10)
	tr.RegisterPhase("phase-1", 10)

	if v := tr.Observe(engineRecord("task-1", "phase-1", 10)); len(v) != 0 {
		t.Errorf("Spending exactly at ceiling must not violate, got %v", v)
	}
}

func TestObserve_ExceedingByAnyAmountViolates(t *testing.T) {
	tr := NewTracker(Config{}, nil)
	tr.RegisterTask("task-1", 10)

	v := tr.Observe(engineRecord("task-1", "phase-1", 10.01))
	if len(v) != 1 {
		t.Fatalf("Expected 1 violation, got %v", v)
	}

	tcv, ok := v[0].(*TaskCeilingViolation)
	if !ok {
		t.Fatalf("Expected TaskCeilingViolation, got %T", v[0])
	}
	if tcv.TaskID != "task-1" || tcv.Ceiling != 10 {
		t.Errorf("Violation = %+v", tcv)
	}
	if tcv.Spent != 10.01 {
		t.Errorf("Spent = %v, want 10.01", tcv.Spent)
	}
}

func TestObserve_AllScopesCanViolateAtOnce(t *testing.T) {
	tr := NewTracker(Config{SessionCap: 5}, nil)
	tr.RegisterTask("task-1", 5)
	tr.RegisterPhase("phase-1", 5)

	v := tr.Observe(engineRecord("task-1", "phase-1", 6))
	if len(v) != 3 {
		t.Fatalf("Expected 3 co-occurring violations, got %d: %v", len(v), v)
	}

	if _, ok := v[0].(*TaskCeilingViolation); !ok {
		t.Errorf("v[0] = %T, want TaskCeilingViolation", v[0])
	}
	if _, ok := v[1].(*PhaseBudgetViolation); !ok {
		t.Errorf("v[1] = %T, want PhaseBudgetViolation", v[1])
	}
	if _, ok := v[2].(*SessionBudgetViolation); !ok {
		t.Errorf("v[2] = %T, want SessionBudgetViolation", v[2])
	}
}

func TestObserve_CostsAreMonotonic(t *testing.T) {
	tr := NewTracker(Config{}, nil)
	tr.RegisterTask("task-1", 10)

	tr.Observe(engineRecord("task-1", "phase-1", 8))
	// The task fails afterwards; its spend stays on the books.
	tr.Observe(engineRecord("task-1", "phase-1", 4))

	if got := tr.TaskCost("task-1"); got != 12 {
		t.Errorf("TaskCost = %v, want 12", got)
	}
	if got := tr.SessionCost(); got != 12 {
		t.Errorf("SessionCost = %v, want 12", got)
	}
}

func TestObserve_DefaultTaskCeiling(t *testing.T) {
	tr := NewTracker(Config{DefaultTaskCeiling: 3}, nil)
	tr.RegisterTask("task-1", 0) // no declared ceiling

	v := tr.Observe(engineRecord("task-1", "phase-1", 4))
	if len(v) != 1 {
		t.Fatalf("Expected default ceiling violation, got %v", v)
	}
}

func TestObserve_UnregisteredScopesNeverViolate(t *testing.T) {
	tr := NewTracker(Config{}, nil)

	if v := tr.Observe(engineRecord("task-x", "phase-x", 1000)); len(v) != 0 {
		t.Errorf("Expected no violations without registered ceilings, got %v", v)
	}
}

func TestObserve_AssignsRecordIDAndTimestamp(t *testing.T) {
	tr := NewTracker(Config{}, nil)
	tr.Observe(engineRecord("task-1", "phase-1", 1))

	recs := tr.Records()
	if len(recs) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(recs))
	}
	if recs[0].ID == "" {
		t.Error("Expected record ID to be assigned")
	}
	if recs[0].Timestamp.IsZero() {
		t.Error("Expected record timestamp to be assigned")
	}
}

func TestObserve_ConcurrentUpdates(t *testing.T) {
	tr := NewTracker(Config{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Observe(engineRecord("task-1", "phase-1", 1))
		}()
	}
	wg.Wait()

	if got := tr.SessionCost(); got != 50 {
		t.Errorf("SessionCost = %v, want 50", got)
	}
	if got := len(tr.Records()); got != 50 {
		t.Errorf("Records = %d, want 50", got)
	}
}

func TestSummary_GroupsByPhaseAndEngine(t *testing.T) {
	tr := NewTracker(Config{}, nil)

	tr.Observe(Record{TaskID: "t1", PhaseID: "phase-1", Engine: "claude", EstimatedCost: 2, ActualCost: 3, Iterations: 2, Source: SourceEngine})
	tr.Observe(Record{TaskID: "t2", PhaseID: "phase-2", Engine: "claude", ActualCost: 5, Iterations: 1, Source: SourceEngine})
	tr.Observe(Record{TaskID: "t3", PhaseID: "phase-1", Engine: "codex", ActualCost: 1, Iterations: 1, Source: SourceEngine})

	s := tr.Summary()

	if s.TotalActual != 9 {
		t.Errorf("TotalActual = %v, want 9", s.TotalActual)
	}
	if s.TotalEstimated != 2 {
		t.Errorf("TotalEstimated = %v, want 2", s.TotalEstimated)
	}

	if len(s.ByPhase) != 2 || s.ByPhase[0].Key != "phase-1" || s.ByPhase[1].Key != "phase-2" {
		t.Fatalf("ByPhase = %+v", s.ByPhase)
	}
	if s.ByPhase[0].ActualCost != 4 {
		t.Errorf("phase-1 actual = %v, want 4", s.ByPhase[0].ActualCost)
	}
	if s.ByPhase[0].RecordCount != 2 {
		t.Errorf("phase-1 records = %d, want 2", s.ByPhase[0].RecordCount)
	}

	if len(s.ByEngine) != 2 || s.ByEngine[0].Key != "claude" || s.ByEngine[1].Key != "codex" {
		t.Fatalf("ByEngine = %+v", s.ByEngine)
	}
	if s.ByEngine[0].ActualCost != 8 {
		t.Errorf("claude actual = %v, want 8", s.ByEngine[0].ActualCost)
	}
}

func TestObserve_WarnThresholdDoesNotViolate(t *testing.T) {
	tr := NewTracker(Config{SessionCap: 10, WarnThreshold: 0.8}, nil)

	// 9 of 10 is past the threshold but under the cap: warned, not violated.
	if v := tr.Observe(engineRecord("task-1", "phase-1", 9)); len(v) != 0 {
		t.Fatalf("expected no violations past warn threshold, got %v", v)
	}
	if got := tr.SessionCost(); got != 9 {
		t.Errorf("SessionCost = %v, want 9", got)
	}

	if v := tr.Observe(engineRecord("task-2", "phase-1", 2)); len(v) != 1 {
		t.Fatalf("expected session violation over cap, got %v", v)
	}
}
